// This file is for parsing atom_site lines and turning them into atoms.
package mmcif

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	. "github.com/andrew-torda/lobec/pdb/cmmn"
)

const bust = -99.0 // Returned for coordinates when something breaks

const absent int8 = -1

type cifCol struct {
	cifName string // name in mmcif file, like auth_asym_id
	altName string // an alternative, label_asym_id is the alt for auth_asym_id
	n       int8   // most likely place to find the column, absent if missing
	needed  bool   // we cannot live without it
}

type acn struct {
	group_PDB,
	id,
	typeSymbol,
	labelAtomId,
	labelAltId,
	labelCompId,
	labelAsymId,
	labelEntityId,
	labelSeqId,
	pdbxPDBInsCode,
	cartnX,
	cartnY,
	cartnZ,
	occupancy,
	BIsoOrEquiv,
	authSeqId,
	authCompId,
	authAsymId,
	authAtomId,
	pdbxPDBModelNum cifCol
}

// newAcn returns the column layout used by the PDB. Files from the
// archive nearly always look like this.
func newAcn() *acn {
	return &acn{
		cifCol{"group_PDB", "", 0, false},
		cifCol{"id", "", 1, false},
		cifCol{"type_symbol", "", 2, false},
		cifCol{"label_atom_id", "", 3, false},
		cifCol{"label_alt_id", "", 4, false},
		cifCol{"label_comp_id", "", 5, false},
		cifCol{"label_asym_id", "", 6, false},
		cifCol{"label_entity_id", "", 7, false},
		cifCol{"label_seq_id", "", 8, false},
		cifCol{"pdbx_PDB_ins_code", "", 9, false},
		cifCol{"Cartn_x", "", 10, true},
		cifCol{"Cartn_y", "", 11, true},
		cifCol{"Cartn_z", "", 12, true},
		cifCol{"occupancy", "", 13, false},
		cifCol{"B_iso_or_equiv", "", 14, false},
		cifCol{"auth_seq_id", "label_seq_id", 16, true},
		cifCol{"auth_comp_id", "label_comp_id", 17, true},
		cifCol{"auth_asym_id", "label_asym_id", 18, true},
		cifCol{"auth_atom_id", "label_atom_id", 19, true},
		cifCol{"pdbx_PDB_model_num", "", 20, false},
	}
}

// all returns pointers to every column, so we can loop over them.
func (a *acn) all() []*cifCol {
	return []*cifCol{&a.group_PDB, &a.id, &a.typeSymbol, &a.labelAtomId,
		&a.labelAltId, &a.labelCompId, &a.labelAsymId, &a.labelEntityId,
		&a.labelSeqId, &a.pdbxPDBInsCode, &a.cartnX, &a.cartnY, &a.cartnZ,
		&a.occupancy, &a.BIsoOrEquiv, &a.authSeqId, &a.authCompId,
		&a.authAsymId, &a.authAtomId, &a.pdbxPDBModelNum}
}

// sliceAfterASite takes a header and returns a slice that starts
// after "_atom_site.".
func sliceAfterASite(s bSlice) bSlice {
	const slen = len("_atom_site.")
	if len(s) < slen {
		return nil
	}
	return s[slen:]
}

// checkName looks to see if a certain header, specified by ndx
// contains the label we are looking for.
func checkName(headers []bSlice, cf cifCol) bool {
	if int(cf.n) >= len(headers) || cf.n < 0 {
		return false
	}
	return string(sliceAfterASite(headers[cf.n])) == cf.cifName
}

// dflt_headers checks if the column names are the default ones from the
// protein data bank. Usually they are, so we do not have to search for
// each label in the table.
func dflt_headers(acn *acn, headers []bSlice) bool {
	for _, cf := range acn.all() {
		if !checkName(headers, *cf) {
			return false
		}
	}
	return true
}

// getColPos is called if the default cif column names were not correct.
// If a needed name is not found under its name or its alternative,
// we set the error that was given to us.
func (cf *cifCol) getColPos(headers []bSlice, err *error) {
	if *err != nil {
		return
	}
	for _, name := range []string{cf.cifName, cf.altName} {
		if name == "" {
			continue
		}
		for i, h := range headers {
			if name == string(sliceAfterASite(h)) {
				cf.n = int8(i)
				return
			}
		}
	}
	cf.n = absent
	if cf.needed {
		*err = errors.New("Could not find atomsite column: " + cf.cifName)
	}
}

// searchColNames is used when we seem to have something other than defaults.
// It looks in the list of headers for each of the labels we are interested in.
func searchColNames(acn *acn, headers []bSlice) error {
	if len(headers) > 127 {
		return fmt.Errorf("%d atom_site columns is too many", len(headers))
	}
	var err error
	for _, cf := range acn.all() {
		cf.getColPos(headers, &err)
	}
	return err
}

// isDotOrQ returns true if the string is a dot or question mark
func isDotOrQ(s bSlice) bool {
	if len(s) != 1 {
		return false
	}
	return s[0] == '.' || s[0] == '?'
}

// boringAtom returns true if the atom name is not on our list of
// interesting atoms. This was fastest in benchmarks for short names
// and a short list.
func boringAtom(atName bSlice, intrstAtoms []string) bool {
	for _, s := range intrstAtoms {
		if len(atName) != len(s) {
			continue
		}
		switch len(s) {
		case 1:
			if atName[0] == s[0] {
				return false
			}
		case 2:
			if atName[0] == s[0] && atName[1] == s[1] {
				return false
			}
		case 3:
			if atName[0] == s[0] && atName[1] == s[1] && atName[2] == s[2] {
				return false
			}
		default:
			if string(atName) == s {
				return false
			}
		}
	}
	return true
}

// getint16 is a helper used to convert a string to int16 with error messages.
func getint16(toparse bSlice, name string) (int16, error) {
	if len(toparse) == 0 {
		return bust, errors.New("zero length string")
	}
	r, err := strconv.ParseInt(string(toparse), 10, 16)
	if err != nil {
		return bust, errors.New(err.Error() + ". Looked for " + name)
	}
	return int16(r), nil
}

type fswtch byte

const (
	swtchModel fswtch = 1 << iota
	swtchChainID
	swtchAtomID
)

// getxyz gets the x, y and z coordinates from an input line.
// The first error is kept and later calls are no-ops.
func getxyz(cmpnt []bSlice, acn *acn) (Xyz, error) {
	var err error
	ff := func(index int8) float64 {
		var xx float64
		if err != nil {
			return bust
		}
		if xx, err = strconv.ParseFloat(string(cmpnt[index]), 64); err != nil {
			return bust
		}
		return xx
	}
	var xyz Xyz
	xyz.X = ff(acn.cartnX.n)
	xyz.Y = ff(acn.cartnY.n)
	xyz.Z = ff(acn.cartnZ.n)
	return xyz, err
}

// optFloat reads an optional number. Missing or unknown values give dflt.
func optFloat(cmpnt []bSlice, cf cifCol, dflt float64) float64 {
	if cf.n == absent {
		return dflt
	}
	s := cmpnt[cf.n]
	if isDotOrQ(s) {
		return dflt
	}
	if x, err := strconv.ParseFloat(string(s), 64); err == nil {
		return x
	}
	return dflt
}

// optStr returns the column as a string, or "" if missing, dot or ?.
func optStr(cmpnt []bSlice, cf cifCol) string {
	if cf.n == absent || isDotOrQ(cmpnt[cf.n]) {
		return ""
	}
	return string(cmpnt[cf.n])
}

// seqNum converts a residue number column. A dot or question mark is
// not an error. We return BrokenResNum.
func seqNum(cmpnt []bSlice, cf cifCol) (int, error) {
	if cf.n == absent {
		return BrokenResNum, nil
	}
	s := cmpnt[cf.n]
	if isDotOrQ(s) {
		return BrokenResNum, nil
	}
	t, err := strconv.ParseInt(string(s), 10, 32)
	if err != nil {
		return -1, fmt.Errorf("%s: Converting residue number %s", err.Error(), s)
	}
	return int(t), nil
}

func getInsCode(cmpnt []bSlice, acn *acn) (byte, error) {
	if acn.pdbxPDBInsCode.n == absent {
		return 0, nil
	}
	t := cmpnt[acn.pdbxPDBInsCode.n]
	if isDotOrQ(t) {
		return 0, nil
	}
	if len(t) > 1 {
		return 0, errors.New("insertion code length > 1: \"" + string(t) + "\"")
	}
	return t[0], nil
}

func getChainID(cmpnt []bSlice, acn *acn) bSlice {
	s := cmpnt[acn.authAsymId.n]
	if !isDotOrQ(s) {
		return s
	}
	return nil
}

// getMdlNum converts the model number. Files without the column have
// one model, so we say 1.
func getMdlNum(cmpnt []bSlice, acn *acn) (int16, error) {
	if acn.pdbxPDBModelNum.n == absent {
		return 1, nil
	}
	mdlNum, err := getint16(cmpnt[acn.pdbxPDBModelNum.n], "model num")
	if err != nil {
		msg := "\nFull string was"
		for _, x := range cmpnt {
			msg = msg + " " + string(x)
		}
		return -1, errors.New(err.Error() + msg)
	}
	return mdlNum, nil
}

// cmpntTooSmall checks if our component array is too small for any
// of the columns we found in the headers.
func cmpntTooSmall(acn *acn, n int) error {
	for _, cf := range acn.all() {
		if int(cf.n) >= n {
			return fmt.Errorf("Too few components (%d)", n)
		}
	}
	return nil
}

// Set up a byte which will tell us if we have to switch according
// to model, chain or atomtype
func fswtchSet(fltr *fltr) (fswtch fswtch) {
	if fltr.modelMax >= 0 {
		fswtch |= swtchModel
	}
	if len(fltr.chains) > 0 {
		fswtch |= swtchChainID
	}
	if len(fltr.intrstAtoms) > 0 {
		fswtch |= swtchAtomID
	}
	return fswtch
}

// boringLine determines if an input line is of no interest.
// It might be called to skip over a zillion unwanted lines, so it should
// quickly determine if it can return true - usually if the model or
// chain is not wanted.
func boringLine(cmpnt []bSlice, acn *acn, fltr *fltr, fswtch fswtch) bool {
	if fswtch&swtchModel != 0 {
		nMdl, err := getMdlNum(cmpnt, acn)
		if err != nil {
			return false // let the caller trip over it
		}
		if nMdl > fltr.modelMax {
			return true
		}
	}
	if fswtch&swtchChainID != 0 {
		c := getChainID(cmpnt, acn)
		found := false
		for _, wanted := range fltr.chains {
			if string(c) == wanted {
				found = true
				break
			}
		}
		if !found {
			return true
		}
	}
	if fswtch&swtchAtomID != 0 {
		if boringAtom(cmpnt[acn.authAtomId.n], fltr.intrstAtoms) {
			return true
		}
	}
	return false
}

// lineAtom turns one split atom_site line into an atom.
func lineAtom(cmpnt []bSlice, acn *acn) (Atom, error) {
	var a Atom
	var err error
	if a.ResNum, err = seqNum(cmpnt, acn.authSeqId); err != nil {
		return a, err
	}
	if a.LabelSeq, err = seqNum(cmpnt, acn.labelSeqId); err != nil {
		return a, err
	}
	if a.InsCode, err = getInsCode(cmpnt, acn); err != nil {
		return a, err
	}
	if a.MdlNum, err = getMdlNum(cmpnt, acn); err != nil {
		return a, err
	}
	if a.Xyz, err = getxyz(cmpnt, acn); err != nil {
		return a, fmt.Errorf("coordinates: %w", err)
	}
	a.Group = optStr(cmpnt, acn.group_PDB)
	if a.Group == "" {
		a.Group = "ATOM"
	}
	if acn.id.n != absent {
		a.Serial, _ = strconv.Atoi(string(cmpnt[acn.id.n]))
	}
	a.Name = string(cmpnt[acn.authAtomId.n])
	if alt := optStr(cmpnt, acn.labelAltId); alt != "" {
		a.AltLoc = alt[0]
	}
	a.ResName = string(cmpnt[acn.authCompId.n])
	a.Chain = string(getChainID(cmpnt, acn))
	a.Element = optStr(cmpnt, acn.typeSymbol)
	a.Entity = optStr(cmpnt, acn.labelEntityId)
	a.Occ = optFloat(cmpnt, acn.occupancy, 1.0)
	a.BFac = optFloat(cmpnt, acn.BIsoOrEquiv, 0.0)
	a.Category = Categorise(a.Group, a.ResName, a.LabelSeq)
	return a, nil
}

// chanWrap wraps a channel and stores the slice we get from it.
type chanWrap struct {
	c       chan []bSlice
	cs      []bSlice   // The slice of byte slices with our lines
	bufPool *sync.Pool // Pool created in the caller and shared here
	scrtch  [40]bSlice // Scratch space
	ndx     int
}

// linechan returns the next line from the channel which has slices of lines.
func (cw *chanWrap) linechan() bSlice {
	if cw.ndx == len(cw.cs) { // refill
		if len(cw.cs) > 0 {
			cw.bufPool.Put(cw.cs[:cap(cw.cs)])
		}
		cw.cs = <-cw.c
		cw.ndx = 0
		if len(cw.cs) == 0 {
			return nil
		}
	}
	cw.ndx++
	return cw.cs[cw.ndx-1]
}

// cmpntChan calls linechan to get the next line of input and
// returns it, broken into components.
func (cw *chanWrap) cmpntChan() (cmpnt []bSlice, err error) {
	s := cw.linechan()
	if s == nil {
		return nil, nil
	}
	for _, c := range s {
		if c == squote || c == dquote { // rare, so only now pay for quotes
			var t [][]byte
			if t, err = splitCifLine(s, make([][]byte, 0, len(cw.scrtch))); err != nil {
				return nil, err
			}
			cmpnt = cw.scrtch[:0]
			for _, u := range t {
				cmpnt = append(cmpnt, u)
			}
			return cmpnt, nil
		}
	}
	return fields(s, cw.scrtch[:]), nil
}

// fillme does the work reading atom_site lines
func (md *MmcifData) fillme(c chan []bSlice, fltr *fltr, acn *acn, bufPool *sync.Pool) error {
	cw := &chanWrap{c: c, bufPool: bufPool}
	fswtch := fswtchSet(fltr)
	for {
		cmpnt, err := cw.cmpntChan()
		if err != nil {
			return err
		}
		if cmpnt == nil {
			return nil
		}
		if err := cmpntTooSmall(acn, len(cmpnt)); err != nil {
			return fmt.Errorf("%s on line %q", err.Error(), cmpnt)
		}
		if boringLine(cmpnt, acn, fltr, fswtch) {
			continue
		}
		a, err := lineAtom(cmpnt, acn)
		if err != nil {
			return err
		}
		md.Atoms = append(md.Atoms, a)
	}
}

// drain discards anything in the channel
func drain(c chan []bSlice) {
	for range c {
	}
}

// atomSite reads lines of input from the channel, but it gets a
// few of them at once - a slice is fed into the channel.
// Anything sent on rChan is an error message. Closing rChan says we
// are finished.
func atomSite(headers []bSlice, fltr *fltr, md *MmcifData,
	c chan []bSlice, rChan chan string, bufPool *sync.Pool) {
	defer close(rChan)
	acn := newAcn()
	if !dflt_headers(acn, headers) {
		if err := searchColNames(acn, headers); err != nil {
			drain(c)
			rChan <- err.Error()
			return
		}
	}
	if md.Atoms == nil {
		md.Atoms = make([]Atom, 0, 1024)
	}
	if err := md.fillme(c, fltr, acn, bufPool); err != nil {
		drain(c)
		rChan <- err.Error()
	}
}
