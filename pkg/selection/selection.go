// Package selection picks subsets of atoms out of a structure by chain,
// residue range, atom name and category. A Selection is a plain value.
// Nothing is cached, so every call looks at the structure as it is now.
package selection

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/andrew-torda/lobec/pdb/cmmn"
	"github.com/andrew-torda/lobec/pdb/geom"
)

// Range is an inclusive window of residue numbers (auth_seq_id).
type Range struct {
	Start, End int
}

// AllResidues is the Range that matches every residue of a chain.
var AllResidues = Range{Start: math.MinInt, End: math.MaxInt}

// All says whether r is the AllResidues sentinel.
func (r Range) All() bool { return r == AllResidues }

// Contains says if residue n falls in the window. A window with Start
// after End contains nothing.
func (r Range) Contains(n int) bool {
	if r.All() {
		return true
	}
	return n != cmmn.BrokenResNum && n >= r.Start && n <= r.End
}

// Shift moves the window by d residues. AllResidues stays as it is.
func (r Range) Shift(d int) Range {
	if r.All() {
		return r
	}
	return Range{r.Start + d, r.End + d}
}

// Len is the number of residue numbers covered, 0 for an empty window.
func (r Range) Len() int {
	if r.All() {
		return math.MaxInt
	}
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

func (r Range) String() string {
	if r.All() {
		return "all"
	}
	return strconv.Itoa(r.Start) + "-" + strconv.Itoa(r.End)
}

// ParseRange reads "127-350" or "all". Negative residue numbers are
// allowed, so "-5-20" is -5 to 20.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return AllResidues, nil
	}
	i := strings.IndexByte(s[min(1, len(s)):], '-')
	if i == -1 {
		return Range{}, fmt.Errorf("range %q is not start-end", s)
	}
	i += min(1, len(s))
	start, err := strconv.Atoi(s[:i])
	if err != nil {
		return Range{}, fmt.Errorf("range %q: %w", s, err)
	}
	end, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return Range{}, fmt.Errorf("range %q: %w", s, err)
	}
	return Range{start, end}, nil
}

// Selection describes which atoms we want. Empty Chain, AtomNames or
// Categories mean no restriction. Use AllResidues for no range limit.
type Selection struct {
	Chain      string
	Range      Range
	AtomNames  []string
	Categories []cmmn.Category
}

// CAlpha selects the polymer C-alpha atoms of a chain within r.
func CAlpha(chain string, r Range) Selection {
	return Selection{
		Chain:      chain,
		Range:      r,
		AtomNames:  []string{"CA"},
		Categories: []cmmn.Category{cmmn.Polymer},
	}
}

// WithRange returns a copy with a different window.
func (sel Selection) WithRange(r Range) Selection {
	sel.Range = r
	return sel
}

func (sel Selection) String() string {
	var parts []string
	if sel.Chain != "" {
		parts = append(parts, "chain "+sel.Chain)
	}
	parts = append(parts, "residues "+sel.Range.String())
	if len(sel.AtomNames) > 0 {
		parts = append(parts, "atoms "+strings.Join(sel.AtomNames, ","))
	}
	for _, c := range sel.Categories {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " ")
}

// Key identifies one selected atom, for pairing and messages.
type Key struct {
	Chain   string
	ResNum  int
	InsCode byte
	Name    string
}

func (k Key) String() string {
	s := k.Chain + "/" + strconv.Itoa(k.ResNum)
	if k.InsCode != 0 {
		s += string(k.InsCode)
	}
	return s + "/" + k.Name
}

func keyOf(a *cmmn.Atom) Key {
	return Key{a.Chain, a.ResNum, a.InsCode, a.Name}
}

// match is the test for one atom, without the alternate location rule.
func (sel *Selection) match(a *cmmn.Atom) bool {
	if sel.Chain != "" && a.Chain != sel.Chain {
		return false
	}
	if !sel.Range.Contains(a.ResNum) {
		return false
	}
	if len(sel.AtomNames) > 0 {
		found := false
		for _, n := range sel.AtomNames {
			if a.Name == n {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(sel.Categories) > 0 {
		found := false
		for _, c := range sel.Categories {
			if a.Category == c {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Atoms returns the indices of selected atoms in s.Atoms, in file order.
// Where an atom has alternate locations only the first one seen is
// kept, so each (residue, atom name) appears once.
func (sel Selection) Atoms(s *cmmn.Structure) []int {
	var ret []int
	var seenAlt map[Key]bool
	for i := range s.Atoms {
		a := &s.Atoms[i]
		if !sel.match(a) {
			continue
		}
		if a.AltLoc != 0 {
			if seenAlt == nil {
				seenAlt = make(map[Key]bool)
			}
			k := keyOf(a)
			if seenAlt[k] {
				continue
			}
			seenAlt[k] = true
		}
		ret = append(ret, i)
	}
	return ret
}

// Count is the number of atoms Atoms would return.
func (sel Selection) Count(s *cmmn.Structure) int {
	return len(sel.Atoms(s))
}

// Keys gives the key of each selected atom, in the same order as Atoms.
func (sel Selection) Keys(s *cmmn.Structure) []Key {
	ndx := sel.Atoms(s)
	ret := make([]Key, len(ndx))
	for i, j := range ndx {
		ret[i] = keyOf(&s.Atoms[j])
	}
	return ret
}

// Coords gives the coordinates of the selected atoms.
func (sel Selection) Coords(s *cmmn.Structure) cmmn.XyzSl {
	return s.Coords(sel.Atoms(s))
}

// Breaks returns the keys of selected atoms that are too far from, or
// too close to, the one before. On a C-alpha selection these are
// chain breaks or badly modelled spots.
func (sel Selection) Breaks(s *cmmn.Structure) []Key {
	ndx := sel.Atoms(s)
	var ret []Key
	for i := 1; i < len(ndx); i++ {
		a, b := &s.Atoms[ndx[i-1]], &s.Atoms[ndx[i]]
		if a.Chain != b.Chain {
			continue
		}
		if _, err := geom.CADist(a.Xyz, b.Xyz); err != nil {
			ret = append(ret, keyOf(b))
		}
	}
	return ret
}

// ChainCount is the number of polymer C-alpha atoms in one chain.
type ChainCount struct {
	Chain string
	N     int
}

// ChainCounts lists every chain in file order with its C-alpha count.
func ChainCounts(s *cmmn.Structure) []ChainCount {
	chains := s.Chains()
	ret := make([]ChainCount, len(chains))
	for i, c := range chains {
		ret[i] = ChainCount{c, CAlpha(c, AllResidues).Count(s)}
	}
	return ret
}

// BestChain is the chain with the most C-alpha atoms, if that is more
// than minCA. Otherwise it is the first chain in the file. An empty
// structure gives "".
func BestChain(s *cmmn.Structure, minCA int) string {
	cc := ChainCounts(s)
	if len(cc) == 0 {
		return ""
	}
	best := cc[0]
	for _, c := range cc[1:] {
		if c.N > best.N {
			best = c
		}
	}
	if best.N > minCA {
		return best.Chain
	}
	return cc[0].Chain
}

// EmptySelectionError says nothing matched a selection we needed.
type EmptySelectionError struct {
	Structure string
	Selection Selection
}

func (e *EmptySelectionError) Error() string {
	return fmt.Sprintf("no atoms in %s for %s", e.Structure, e.Selection)
}
