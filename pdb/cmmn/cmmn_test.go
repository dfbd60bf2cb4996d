package cmmn_test

import (
	"testing"

	. "github.com/andrew-torda/lobec/pdb/cmmn"
)

func TestXyzOk(t *testing.T) {
	var xyz Xyz
	xyz = BrokenXyz
	if xyz.Ok() {
		t.Error("cannot even check if a value is OK")
	}
	xyz = Xyz{1, 1, 1}
	if !xyz.Ok() {
		t.Error("OK should be true")
	}
}

func TestCategorise(t *testing.T) {
	var tests = []struct {
		group, res string
		labelSeq   int
		want       Category
	}{
		{"ATOM", "ALA", 4, Polymer},
		{"HETATM", "TPO", 197, Polymer},
		{"HETATM", "HOH", BrokenResNum, Solvent},
		{"HETATM", "DOD", BrokenResNum, Solvent},
		{"HETATM", "MG", BrokenResNum, Inorganic},
		{"HETATM", "CA", BrokenResNum, Inorganic},
		{"HETATM", "ANP", BrokenResNum, Organic},
		{"HETATM", "GOL", BrokenResNum, Organic},
	}
	for _, tt := range tests {
		if got := Categorise(tt.group, tt.res, tt.labelSeq); got != tt.want {
			t.Errorf("%s %s wanted %v got %v", tt.group, tt.res, tt.want, got)
		}
	}
}

func mkStruct() *Structure {
	return &Structure{
		ID: "1ABC",
		Atoms: []Atom{
			{Chain: "A", Name: "CA", ResNum: 1, Category: Polymer},
			{Chain: "A", Name: "O", ResName: "HOH", Category: Solvent},
			{Chain: "B", Name: "CA", ResNum: 1, Category: Polymer},
			{Chain: "A", Name: "MG", ResName: "MG", Category: Inorganic},
			{Chain: "W", Name: "O", ResName: "HOH", Category: Solvent},
		},
	}
}

func TestStripSolvent(t *testing.T) {
	s := mkStruct()
	if n := s.StripSolvent(); n != 2 {
		t.Errorf("wanted 2 solvent atoms removed, got %d", n)
	}
	if len(s.Atoms) != 3 {
		t.Fatalf("wanted 3 atoms left, got %d", len(s.Atoms))
	}
	for _, a := range s.Atoms {
		if a.Category == Solvent {
			t.Error("solvent survived stripping")
		}
	}
	if n := s.StripSolvent(); n != 0 {
		t.Error("second strip should remove nothing")
	}
}

func TestChains(t *testing.T) {
	s := mkStruct()
	got := s.Chains()
	want := []string{"A", "B", "W"}
	if len(got) != len(want) {
		t.Fatalf("wanted %v got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("wanted %v got %v", want, got)
		}
	}
}

func TestClone(t *testing.T) {
	s := mkStruct()
	c := s.Clone()
	c.Atoms[0].X = 99
	if s.Atoms[0].X == 99 {
		t.Error("clone shares atoms with the original")
	}
	if c.Name() != "1ABC" {
		t.Error("name broken", c.Name())
	}
	c.Assembly = "2"
	if c.Name() != "1ABC-assembly2" {
		t.Error("name with assembly broken", c.Name())
	}
}
