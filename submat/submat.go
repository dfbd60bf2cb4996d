// 23 Feb 2018
// read a substitution matrix

package submat

import (
	"bufio"
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/andrew-torda/matrix"
)

// Submat is the export type. it internals do not have to be exported.
type Submat struct {
	mat  *matrix.FMatrix2d
	cmap [128]int8
}

const notset int8 = -1

//go:embed blosum62.txt
var blosum62Txt string

var (
	blosumOnce sync.Once
	blosum     *Submat
	blosumErr  error
)

// Blosum62 returns the built in BLOSUM62 matrix. It is read once and
// shared, so callers must not change it.
func Blosum62() (*Submat, error) {
	blosumOnce.Do(func() {
		blosum, blosumErr = ReadFrom(strings.NewReader(blosum62Txt), "blosum62")
	})
	return blosum, blosumErr
}

// String prints out a substitution matrix. Useful during debugging.
func (submat *Submat) String() string {
	cmap := submat.cmap[:]
	var b strings.Builder
	b.WriteString("Mapping\n")
	n := 10
	for i := range cmap {
		if cmap[i] != notset {
			fmt.Fprintf(&b, "%4s%4d", string(rune(i)), cmap[i])
			n--
			if n == 0 {
				n = 10
				b.WriteString("\n")
			}
		}
	}
	b.WriteString("\nThe matrix\n")
	fmt.Fprintf(&b, "%4s", " ")
	for c := '*'; c < 'Z'; c++ {
		if cmap[c] != notset {
			fmt.Fprintf(&b, "%4s", string(c))
		}
	}
	b.WriteString("\n")
	for c := '*'; c < 'Z'; c++ {
		if cmap[c] != notset {
			fmt.Fprintf(&b, "%4s", string(c))
			for d := '*'; d < 'Z'; d++ {
				if cmap[d] != notset {
					fmt.Fprintf(&b, "%4.0f", submat.mat.Mat[cmap[c]][cmap[d]])
				}
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// CmmtScanner is a wrapper around bufio.Scanner that will ignore anything
// after a comment character and remove leading and trailing white space.
type CmmtScanner struct {
	*bufio.Scanner
	cmmt byte // Comment character
}

// NewCmmtScanner is a wrapper around scanner, but
//   - jumps over blank lines
//   - removes leading spaces
//   - removes anything after a comment character
func NewCmmtScanner(r io.Reader, cmmt byte) *CmmtScanner {
	return &CmmtScanner{bufio.NewScanner(r), cmmt}
}

// CBytes presents exactly the same interface as scanner.Bytes, but
// has to do a bit more work.
// Before returning, we remove anything after the comment symbol and
// strip leading and trailing white space.
// If this leaves us with an empty string, we call Scan again.
// Like the Bytes function, this works directly in the i/o buffer
// and does not allocate any memory. If you like the string it returns,
// you have to save it somewhere.
func (s *CmmtScanner) CBytes() []byte {
	ok := true
	for b := s.Bytes(); ok; ok, b = s.Scan(), s.Bytes() {
		if i := bytes.IndexByte(b, s.cmmt); i >= 0 {
			b = b[:i]
		}
		b = bytes.TrimSpace(b)
		if len(b) > 0 {
			return b
		}
	}
	return nil
}

// The first non-comment line  of the substitution matrix file
// contains a list of the allowed characters. Each field has to be
// one character long
func alfbt_line(inline []byte, submat *Submat) (int, error) {
	cmap := submat.cmap[:]
	for i := range cmap {
		cmap[i] = notset
	}
	f := bytes.Fields(inline)
	if len(f) == 0 {
		return 0, errors.New("alfbt_line: no alphabet line")
	}
	for _, c := range f {
		if len(c) != 1 {
			return 0, errors.New("alfbt_line: expected a single character, got " + string(c))
		}
		if c[0] >= 128 {
			return 0, errors.New("alfbt_line: saw a non-ascii character in " + string(inline))
		}
	}
	for i, c := range f {
		cmap[c[0]] = int8(i)
	}
	for i, c := range f { // If not set, set both upper and lower case
		l := (bytes.ToLower(c))[0] // This is safe, since we have checked
		u := (bytes.ToUpper(c))[0] // that c is one-byte long
		if cmap[l] == notset {     // Lower case index
			cmap[l] = int8(i)
		}
		if cmap[u] == notset { //     Corresponding upper case index
			cmap[u] = int8(i)
		}
	}
	return len(f), nil
}

// ReadFrom reads a substitution matrix. name is only used in error
// messages.
func ReadFrom(rdr io.Reader, name string) (*Submat, error) {
	submat := new(Submat)
	scnr := NewCmmtScanner(rdr, '#')
	scnr.Scan()
	r := "Reading from " + name
	n_alfbt, err := alfbt_line(scnr.CBytes(), submat)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r, err)
	}
	submat.mat = matrix.NewFMatrix2d(n_alfbt, n_alfbt)
	nc := 0
	for scnr.Scan() {
		line := scnr.CBytes()
		if line == nil {
			break
		}
		fields := bytes.Fields(line)
		if len(fields) != n_alfbt+1 {
			return nil, errors.New(r + ". Wrong number of items on line:\n" + string(line))
		}
		if len(fields[0]) != 1 || fields[0][0] >= 128 || submat.cmap[fields[0][0]] == notset {
			return nil, errors.New(r + " invalid character on line " + string(line))
		}
		i := submat.cmap[fields[0][0]]
		for j := 0; j < n_alfbt; j++ {
			f, err := strconv.ParseFloat(string(fields[j+1]), 32)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", r, err)
			}
			x := float32(f)
			submat.mat.Mat[i][j], submat.mat.Mat[j][i] = x, x
		}
		nc++
	}
	if err = scnr.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", r, err)
	}
	if nc != n_alfbt {
		return nil, errors.New(r + ".. not enough lines found")
	}
	return submat, nil
}

// Read will read a substitution matrix from a filename.
func Read(fname string) (*Submat, error) {
	fp, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return ReadFrom(fp, fname)
}

// index of a byte. Anything not in the alphabet is treated as 'X'
// if the matrix has one, otherwise as the first letter.
func (submat *Submat) index(a byte) int8 {
	if a < 128 && submat.cmap[a] != notset {
		return submat.cmap[a]
	}
	if x := submat.cmap['X']; x != notset {
		return x
	}
	return 0
}

// Score returns the similarity score of bytes a and b, given
// a specific scoring matrix.
func (submat *Submat) Score(a, b byte) float32 {
	return submat.mat.Mat[submat.index(a)][submat.index(b)]
}

// ScoreSeqs will take two sequences and calculate a similarity matrix
// based on the substitution matrix.
// We return an M x N matrix, where M and N are the lengths of first
// and second sequences respectively.
func (submat *Submat) ScoreSeqs(s, t []byte) (scr_mat *matrix.FMatrix2d) {
	scr_mat = matrix.NewFMatrix2d(len(s), len(t))
	mat := scr_mat.Mat
	for i, cs := range s {
		for j, ct := range t {
			mat[i][j] = submat.Score(cs, ct)
		}
	}
	return
}
