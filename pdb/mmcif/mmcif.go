// Package mmcif reads an mmcif formatted file. It is a subpackage of pdb.
// The first thing to do is build an mmcifreader and then call it.
package mmcif

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/andrew-torda/lobec/pdb/cmmn"
)

const (
	squote byte = '\''
	dquote byte = '"'
)

// Usually one reads a file which contains lots of information you are
// not interested in. We handle this in two stages.
// 1. Make a list of interesting data items and tables. If something is
// not on this list, do not save it.
// 2. The atom_site table is always read. Each line that survives the
// filter (model, chain, atom name) becomes one cmmn.Atom.

type bSlice []byte // byte slice
type stSlice []string
type keepTable struct {
	Names []string  // table headings
	Vals  []stSlice // each entry is a slice of values
}

type stringhash map[string]string
type tablehash map[string]keepTable

// MmcifData defines the data that will be returned by an mmcifReader
type MmcifData struct {
	Data   stringhash // Data items to keep
	Tables tablehash  // Tables we keep
	Atoms  []cmmn.Atom
}

// What criteria do we use when deciding whether or not to keep
// an atom
type fltr struct {
	modelMax    int16 // How many models should be read ?
	chains      []string
	intrstAtoms []string // Interesting atoms - those we keep. Empty means all.
}

// MmcifReader is the object which will do the reading of mmcif data
// We do not return information here. Here is where we store instructions
// to the reader.
type MmcifReader struct {
	cmmtScanner
	dataToKeep   map[string]bool
	tablesToKeep map[string]bool
	fltr         *fltr
	headers      []bSlice
	scrtchBytes  [][]byte
}

// NewMmcifReader returns an object to read mmcif files.
// It is given a reader, so the caller must have decided if it is
// a file, compressed file, http source, whatever.
// By default we read every atom of the first model. For superpositions
// we need the whole model, since everything is moved and written out again.
func NewMmcifReader(r io.Reader) *MmcifReader {
	if r == nil {
		return nil
	}
	return &MmcifReader{
		cmmtScanner:  newCmmtScanner(r, '#'),
		dataToKeep:   map[string]bool{"_entry.id": true},
		tablesToKeep: make(map[string]bool),
		fltr:         &fltr{modelMax: 1},
		scrtchBytes:  make([][]byte, 25),
	}
}

// SetChains adds a list of desired chains to our reader.
func (mr *MmcifReader) SetChains(s []string) {
	mr.fltr.chains = make([]string, 0, len(s))
	for _, c := range s {
		if c != "" {
			mr.fltr.chains = append(mr.fltr.chains, c)
		}
	}
}

// SetAtoms sets the slice of atom names which we will look for.
// An empty slice means every atom.
func (mr *MmcifReader) SetAtoms(s []string) {
	mr.fltr.intrstAtoms = make([]string, len(s))
	copy(mr.fltr.intrstAtoms, s)
}

// AddItems adds a category to the reader that we will read from
// the mmcif file.
func (mr *MmcifReader) AddItems(s []string) {
	for _, a := range s {
		mr.dataToKeep[a] = true
	}
}

// AddTable tells us that if we see a table / loop with a certain word as
// the first entry, than we will keep this table.
func (mr *MmcifReader) AddTable(s []string) {
	for _, a := range s {
		mr.tablesToKeep[a] = true
	}
}

// SetModelMax tells us the maximum number of models to read.
// -1 means get everything
//
//	0 means get nothing
//	a positive int is the number of models
func (mr *MmcifReader) SetModelMax(modelMax int16) {
	mr.fltr.modelMax = modelMax
}

// cmmtScanner is a wrapper around bufio.Scanner that will ignore lines
// starting with a comment character.
// It also counts newlines in scanner.n, so we can print out the line
// number in error messages.
type cmmtScanner struct {
	*bufio.Scanner           // standard library scanner
	l_err          readError // fill this out as soon as an error happens
	ctoken         []byte    // Store the bytes that will be returned by cbytes()
	n              int       // line number in the mmcif file
	cmmt           byte      // Comment character
	Ok             bool      // Are we OK or have we had an error ?
}

// newCmmtScanner is a wrapper around scanner, but
//   - jumps over blank lines
//   - jumps over lines starting with a comment character
//
// An mmcifReader contains a newCmmtScanner.
func newCmmtScanner(r io.Reader, cmmt byte) cmmtScanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 4*1024*1024) // some title lines are long
	return cmmtScanner{
		Scanner: s,
		cmmt:    cmmt,
		Ok:      true,
	}
}

// cscan is a wrapper around the library Scan(). It adds a newline counter
// for error messages. It jumps over blank lines and lines starting
// with a comment character. Comment characters are only recognised as the
// first character, since they are legitimate elsewhere in the text.
// When finished, it sets "ctoken" to point to the slice.
func (s *cmmtScanner) cscan() (ok bool) {
	var b []byte
	if !s.Ok { // We have already had an error, but nobody has noticed.
		s.ctoken = nil
		s.fill("pre-existing error missed. Small bug ?", false)
		return false
	}
	ok = true
	for len(b) == 0 && ok {
		if ok = s.Scan(); ok { //     This is false on EOF
			s.n++
		} else { //                   If scan returned false,
			s.ctoken = nil //         but Err() is nil, it is just EOF
			if s.Err() != nil {
				s.fill(s.Err().Error(), true)
				return false
			}
			return true
		}
		b = bytes.TrimRight(s.Bytes(), " \t\r")
		if len(b) == 0 {
			continue
		}
		if b[0] == s.cmmt {
			b = nil
		}
	}
	s.ctoken = b
	return ok
}

// cbytes is like Bytes from the library, but returns the processed characters.
func (s *cmmtScanner) cbytes() []byte {
	return s.ctoken
}

// stateFn is the type of state function. It returns the next
// state function that should act on its input.
type stateFn func(*MmcifReader, *MmcifData) stateFn

// stateData reads lines that start with data_
func stateData(mr *MmcifReader, _ *MmcifData) stateFn {
	if !mr.cscan() {
		return nil
	}
	return stateTop
}

// stateUnknown should be reached if we are confused and do not know
// what to do. It is an error and we should stop
func stateUnknown(mr *MmcifReader, _ *MmcifData) stateFn {
	mr.fill("Unknown state, line is not data_, loop_ or an item", true)
	return nil
}

// stateLoopHdr gets the headers from a loop directive and decides
// what to do next: read atoms, keep a table or skip it.
func stateLoopHdr(mr *MmcifReader, _ *MmcifData) stateFn {
	if len(mr.headers) != 0 {
		mr.fill("probable bug, headers slice not empty", false)
		return nil
	}
	for ok := true; ok && len(mr.cbytes()) > 0 && mr.cbytes()[0] == byte('_'); ok = mr.cscan() {
		s := make([]byte, len(mr.cbytes()))
		copy(s, mr.cbytes())
		t := bytes.TrimRight(s, " ")
		mr.headers = append(mr.headers, t)
	}
	if len(mr.headers) < 1 {
		mr.fill("no contents found while reading loop headers", true)
		mr.headers = mr.headers[:0]
		return nil
	}

	dots := []byte{'.'}
	kword := bytes.SplitAfter(mr.headers[0], dots)
	if bytes.HasPrefix(kword[0], []byte("_atom_site.")) {
		return stateAtomTable
	}
	if _, ok := mr.tablesToKeep[string(kword[0])]; ok {
		return stateLoopTable
	}
	mr.headers = mr.headers[:0]
	return stateSkipLoopTable
}

// isSpecial returns true if the input in inline is not simply
// more of a table. Usually this means there is a new directive
// coming.
// If we have end of line, we also return true, so a caller knows
// it has to do something special.
func isSpecial(inline []byte) bool {
	switch {
	case inline == nil:
		return true
	case bytes.HasPrefix(inline, []byte("_")):
		return true
	case bytes.HasPrefix(inline, []byte("loop_")):
		return true
	case bytes.HasPrefix(inline, []byte("data_")):
		return true
	default:
		return false
	}
}

// stateLoopTable reads from each line a line in a table.
// Build the table within this function and then put it in the hash
// table of tables.
func stateLoopTable(mr *MmcifReader, md *MmcifData) stateFn {
	const not_split string = "Could not split string at dot: "
	dots := []byte{'.'}
	ncol := len(mr.headers)
	var table keepTable
	var tblName string
	{ //             This first section just saves the headers for table
		t := bytes.SplitAfterN(mr.headers[0], dots, 2)
		if len(t) < 2 {
			mr.fill(not_split+string(mr.headers[0]), true)
			return nil
		}
		s := string(t[0])
		tblName = s[0 : len(s)-1]
	}
	table.Names = make([]string, 0, len(mr.headers))
	table.Vals = make([]stSlice, 0, 5)

	for _, word := range mr.headers { // given _atom_site.foo, save foo
		t := bytes.SplitAfterN(word, dots, 2)
		if len(t) < 2 {
			mr.fill(not_split+string(word), true)
			return nil
		}
		table.Names = append(table.Names, string(t[1]))
	}
	mr.headers = mr.headers[:0]
	for b, ok := getNpieces(mr, ncol); len(b) == ncol && ok; {
		table.Vals = append(table.Vals, b)
		b, ok = getNpieces(mr, ncol)
	}
	md.Tables[tblName] = table
	return stateTop
}

const line_siz = 92 // A line from PDB is 88 bytes long
const sl_siz = 50   // This comes from bencharking. Set to 50
// newLineBuf creates the slice of lines (byte slices) that are
// filled and used to send information to the reader (atomsite()).
func newLineBuf() interface{} {
	var tmp [sl_siz * line_siz]byte
	var x [sl_siz]bSlice
	for i, start, end := 0, 0, line_siz; i < sl_siz; i++ {
		x[i] = tmp[start:end:end]
		start = end
		end += line_siz
	}
	return x[:]
}

// stateAtomTable is like any stateLoopTable, but we special case it
// because it is the biggest, most important and slowest to
// process.
// We read lines into a slice of lines. When we have enough, we
// push the slice into the channel. atomSite() does the processing.
// In the meantime, we continue reading the file.
func stateAtomTable(mr *MmcifReader, md *MmcifData) stateFn {
	c := make(chan []bSlice, 3) // buffer size 3 came from benchmarking
	rChan := make(chan string)
	// The other end of the channel puts the buffers back in the pool
	// when it has processed all the lines.
	var bufPool = sync.Pool{
		New: newLineBuf,
	}

	i := 0
	{
		var headers []bSlice
		for _, h := range mr.headers {
			tmp := make([]byte, len(h))
			copy(tmp, h)
			headers = append(headers, tmp)
		}
		go atomSite(headers, mr.fltr, md, c, rChan, &bufPool)
	}

	mr.headers = nil
	lines := bufPool.Get().([]bSlice)
	for {
		t := mr.cbytes()
		if isSpecial(t) {
			break
		}
		if len(t) > cap(lines[i]) { // default line length is too small.
			lines[i] = make([]byte, len(t))
		}
		lines[i] = lines[i][:len(t)]
		copy(lines[i], t)

		if i == (sl_siz - 1) {
			i = 0
			c <- lines
			lines = bufPool.Get().([]bSlice)
			for i := range lines {
				lines[i] = lines[i][:0]
			}
		} else {
			i++
		}
		if !mr.cscan() {
			break
		}
	}
	if i > 0 { // Push any leftover lines down the channel
		c <- lines[0:i]
	}
	close(c)
	if s := <-rChan; s != "" {
		mr.fill(s, false) // On this channel, anything non-empty is an error
		return nil
	}
	return stateTop
}

// stateSkipLoopTable reads lines from a table, but does not
// save them anywhere. Most of the tables we encounter are not
// to be saved.
func stateSkipLoopTable(mr *MmcifReader, _ *MmcifData) stateFn {
	found_something := false
	for ; !isSpecial(mr.cbytes()); mr.cscan() {
		found_something = true
	}
	if !found_something {
		mr.fill("empty table", true)
		return nil
	}
	return stateTop
}

// stateLoop is where you are if you have a loop directive.
func stateLoop(mr *MmcifReader, _ *MmcifData) stateFn {
	if !mr.cscan() {
		return nil
	}
	return stateLoopHdr
}

// stateDItem gets a data item. This is often on one line, but
// if there is only one word, the value is on subsequent lines
func stateDItem(mr *MmcifReader, md *MmcifData) stateFn {
	var value string
	t, err := splitCifLine(mr.cbytes(), mr.scrtchBytes)
	if err != nil {
		mr.fill(err.Error(), true)
		return nil
	}

	itemName := string(t[0])
	switch {
	case len(t) == 2 && (len(t[1]) == 0 || t[1][0] != ';'):
		value = string(t[1])
		mr.cscan() // EOF here is fine, stateTop sees nil
	case len(t) == 1:
		const msg string = "data split on two lines"
		if !mr.cscan() || mr.cbytes() == nil {
			mr.fill(msg, true)
			return nil
		}
		b_in := mr.cbytes()
		if b_in[0] == ';' {
			ok := true
			tmp := string(b_in[1:])
			for ok = mr.cscan(); len(mr.cbytes()) > 0 && ok; ok = mr.cscan() {
				if mr.cbytes()[0] == ';' {
					break
				}
				tmp = tmp + string(mr.cbytes())
			}
			if !ok || mr.cbytes() == nil {
				mr.fill(msg, true)
				return nil
			}
			value = tmp
		} else {
			if v, err := splitCifLine(b_in, mr.scrtchBytes); err == nil && len(v) == 1 {
				value = string(v[0])
			} else {
				value = string(b_in)
			}
		}
		mr.cscan()
	default:
		mr.fill(fmt.Sprintf("data item %s has %d values", itemName, len(t)-1), true)
		return nil
	}

	if mr.dataToKeep[itemName] {
		md.Data[itemName] = value
	}
	return stateTop
}

// stateTop is the general state that looks at the current line and
// decides what state to jump to next.
func stateTop(mr *MmcifReader, _ *MmcifData) stateFn {
	b := mr.cbytes() // Does not advance scanner
	if !mr.Ok {
		return nil
	}
	switch {
	case b == nil:
		return nil
	case bytes.HasPrefix(b, []byte("loop_")):
		return stateLoop
	case bytes.HasPrefix(b, []byte("data")):
		return stateData
	case bytes.HasPrefix(b, []byte("_")):
		return stateDItem
	default:
		return stateUnknown
	}
}

// getNpieces asks the scanner for lines and returns N items
// as an array of strings. We have to use new strings, since
// calls to scan() will update the underlying buffer.
func getNpieces(mr *MmcifReader, npiece int) (ret []string, ok bool) {
	// notNasty returns true if we can use the library split
	// function. That is, it contains no quotes.
	notNasty := func(b_in []byte) bool {
		for _, c := range b_in {
			if c == dquote || c == squote {
				return false
			}
		}
		return true
	}
	for ok = true; len(ret) < npiece && ok; ok = mr.cscan() {
		b_in := mr.cbytes()
		if isSpecial(b_in) {
			return nil, ok
		}
		if b_in[0] == ';' {
			tmp := string(b_in[1:])
			for ok = mr.cscan(); ok; ok = mr.cscan() {
				x := mr.cbytes()
				if len(x) < 1 || x[0] == ';' {
					break
				}
				tmp = tmp + string(x)
			}
			ret = append(ret, tmp)
			if !ok {
				mr.fill("getNpieces", true)
				return nil, false
			}
			continue
		}
		var t [][]byte
		if notNasty(b_in) {
			t = bytes.Fields(b_in)
		} else {
			var err error
			if t, err = splitCifLine(b_in, mr.scrtchBytes); err != nil {
				mr.fill(err.Error(), true)
				return nil, false
			}
		}
		for _, u := range t {
			ret = append(ret, string(u))
		}
	}
	return
}

// DoFile takes an mmcifreader and actually parses the file.
func (mr *MmcifReader) DoFile() (*MmcifData, error) {
	if mr == nil {
		return nil, errors.New("Start of file, nil mmcifReader")
	}
	if !mr.cscan() {
		return nil, mr.l_err
	}
	md := new(MmcifData)
	md.Data = make(stringhash)
	md.Tables = make(tablehash)
	for state := stateTop; (state != nil) && mr.Ok; {
		state = state(mr, md)
	}
	if mr.Ok && mr.n == 0 {
		mr.fill("zero length file", false)
	}
	if !mr.Ok {
		return nil, mr.l_err
	}
	return md, nil
}

// nAtomType gives us the number of atoms of a specific name, summed
// over all models and chains
func (md *MmcifData) nAtomType(a string) (n int) {
	for i := range md.Atoms {
		if md.Atoms[i].Name == a {
			n++
		}
	}
	return n
}
