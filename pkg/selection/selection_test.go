package selection_test

import (
	"strings"
	"testing"

	"github.com/andrew-torda/lobec/pdb/cmmn"
	"github.com/andrew-torda/lobec/pdb/pdbtest"
	. "github.com/andrew-torda/lobec/pkg/selection"
	"github.com/google/go-cmp/cmp"
)

// twoChains has 20 residues of A numbered 100..119, 5 of B numbered
// 1..5, a ligand and a calcium ion whose atom is also called CA.
func twoChains() *cmmn.Structure {
	ion := cmmn.Atom{Group: "HETATM", Name: "CA", ResName: "CA", Chain: "A",
		ResNum: 601, LabelSeq: cmmn.BrokenResNum, Category: cmmn.Inorganic}
	return pdbtest.Structure("1TWO",
		pdbtest.Chain("A", 100, 20),
		pdbtest.Chain("B", 1, 5),
		[]cmmn.Atom{pdbtest.Ligand("A", 501, cmmn.Xyz{}), ion})
}

func TestRange(t *testing.T) {
	var tests = []struct {
		r        Range
		n        int
		contains bool
		str      string
		length   int
	}{
		{Range{127, 350}, 127, true, "127-350", 224},
		{Range{127, 350}, 350, true, "127-350", 224},
		{Range{127, 350}, 351, false, "127-350", 224},
		{Range{10, 5}, 7, false, "10-5", 0},
		{AllResidues, -3, true, "all", AllResidues.Len()},
		{Range{-5, 5}, cmmn.BrokenResNum, false, "-5-5", 11},
	}
	for _, tt := range tests {
		if got := tt.r.Contains(tt.n); got != tt.contains {
			t.Errorf("%v contains %d gave %v", tt.r, tt.n, got)
		}
		if tt.r.String() != tt.str {
			t.Errorf("wanted %s got %s", tt.str, tt.r)
		}
		if tt.r.Len() != tt.length {
			t.Errorf("%v has length %d", tt.r, tt.r.Len())
		}
	}
	if r := (Range{127, 350}).Shift(-30); r != (Range{97, 320}) {
		t.Error("shift broken", r)
	}
	if r := AllResidues.Shift(30); !r.All() {
		t.Error("shifting all residues should leave it alone")
	}
}

func TestParseRange(t *testing.T) {
	var tests = []struct {
		in   string
		want Range
		ok   bool
	}{
		{"127-350", Range{127, 350}, true},
		{" 120-280 ", Range{120, 280}, true},
		{"-5-20", Range{-5, 20}, true},
		{"5--3", Range{5, -3}, true},
		{"all", AllResidues, true},
		{"ALL", AllResidues, true},
		{"", Range{}, false},
		{"127", Range{}, false},
		{"a-b", Range{}, false},
		{"1-", Range{}, false},
	}
	for _, tt := range tests {
		got, err := ParseRange(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("%q gave error %v", tt.in, err)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("%q gave %v wanted %v", tt.in, got, tt.want)
		}
	}
}

func TestCount(t *testing.T) {
	s := twoChains()
	var tests = []struct {
		name string
		sel  Selection
		n    int
	}{
		{"window", CAlpha("A", Range{105, 109}), 5},
		{"whole chain", CAlpha("A", AllResidues), 20},
		{"other chain", CAlpha("B", AllResidues), 5},
		{"any chain", CAlpha("", AllResidues), 25},
		{"missing chain", CAlpha("Z", AllResidues), 0},
		{"empty window", CAlpha("A", Range{300, 400}), 0},
		{"inverted window", CAlpha("A", Range{110, 105}), 0},
		{"backbone", Selection{Chain: "A", Range: Range{100, 101}, AtomNames: []string{"N", "CA", "C"}}, 6},
		{"calcium counts without category", Selection{Chain: "A", Range: AllResidues, AtomNames: []string{"CA"}}, 21},
		{"ligand", Selection{Range: AllResidues, Categories: []cmmn.Category{cmmn.Organic}}, 1},
		{"everything", Selection{Range: AllResidues}, len(s.Atoms)},
	}
	for _, tt := range tests {
		if n := tt.sel.Count(s); n != tt.n {
			t.Errorf("%s: wanted %d got %d", tt.name, tt.n, n)
		}
	}
}

func TestAltLoc(t *testing.T) {
	s := pdbtest.Structure("1ALT", pdbtest.Chain("A", 1, 3))
	dup := s.Atoms[4] // CA of residue 2
	s.Atoms[4].AltLoc = 'A'
	dup.AltLoc = 'B'
	dup.X += 0.3
	s.Atoms = append(s.Atoms[:5], append([]cmmn.Atom{dup}, s.Atoms[5:]...)...)
	sel := CAlpha("A", AllResidues)
	ndx := sel.Atoms(s)
	if len(ndx) != 3 {
		t.Fatalf("wanted 3 CA, got %d", len(ndx))
	}
	if s.Atoms[ndx[1]].AltLoc != 'A' {
		t.Error("should keep the first alternate location")
	}
}

func TestKeysAndCoords(t *testing.T) {
	s := twoChains()
	sel := CAlpha("B", Range{2, 3})
	want := []Key{{"B", 2, 0, "CA"}, {"B", 3, 0, "CA"}}
	if diff := cmp.Diff(want, sel.Keys(s)); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
	xyz := sel.Coords(s)
	if len(xyz) != 2 || xyz[0] != pdbtest.HelixXyz(1) {
		t.Error("coordinates wrong", xyz)
	}
	if k := (Key{"A", 52, 'B', "CA"}); k.String() != "A/52B/CA" {
		t.Error(k.String())
	}
}

// The selection must see the structure as it is now, not when the
// selection was first used.
func TestNotCached(t *testing.T) {
	s := twoChains()
	sel := CAlpha("A", Range{100, 104})
	if n := sel.Count(s); n != 5 {
		t.Fatal("wanted 5, got", n)
	}
	s.Atoms = s.Atoms[:3*2]
	if n := sel.Count(s); n != 2 {
		t.Error("count did not follow the structure, got", n)
	}
}

func TestBreaks(t *testing.T) {
	s := twoChains()
	sel := CAlpha("", AllResidues)
	if b := sel.Breaks(s); len(b) != 0 {
		t.Error("helix should have no breaks, got", b)
	}
	for i := range s.Atoms {
		if s.Atoms[i].Chain == "A" && s.Atoms[i].ResNum >= 110 {
			s.Atoms[i].X += 10
		}
	}
	b := sel.Breaks(s)
	if len(b) != 1 || b[0] != (Key{"A", 110, 0, "CA"}) {
		t.Error("wanted one break at A/110, got", b)
	}
}

func TestChainCounts(t *testing.T) {
	s := twoChains()
	want := []ChainCount{{"A", 20}, {"B", 5}}
	if diff := cmp.Diff(want, ChainCounts(s)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	var tests = []struct {
		min  int
		want string
	}{
		{10, "A"},
		{20, "A"},
	}
	for _, tt := range tests {
		if c := BestChain(s, tt.min); c != tt.want {
			t.Errorf("min %d gave %s", tt.min, c)
		}
	}
	// B first in the file, but A bigger
	s2 := pdbtest.Structure("2", pdbtest.Chain("B", 1, 5), pdbtest.Chain("A", 1, 30))
	if c := BestChain(s2, 10); c != "A" {
		t.Error("wanted A got", c)
	}
	if c := BestChain(s2, 40); c != "B" {
		t.Error("nothing big enough, wanted first chain, got", c)
	}
	if c := BestChain(&cmmn.Structure{}, 0); c != "" {
		t.Error("empty structure gave", c)
	}
}

func TestEmptySelectionError(t *testing.T) {
	e := &EmptySelectionError{Structure: "1ABC", Selection: CAlpha("A", Range{127, 350})}
	msg := e.Error()
	for _, w := range []string{"1ABC", "chain A", "127-350", "CA"} {
		if !strings.Contains(msg, w) {
			t.Errorf("%q does not mention %s", msg, w)
		}
	}
}
