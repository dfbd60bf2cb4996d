// Package pdb/cmmn has common definitions for coordinates, atoms and
// structures. It is shared by the reader, the store and everything
// that selects or moves atoms.
package cmmn

import (
	"math"
)

// Xyz is one set of coordinates in Angstrom.
type Xyz struct{ X, Y, Z float64 }
type XyzSl []Xyz // xyz's are coordinates

var BrokenXyz = Xyz{math.MaxFloat64, 0, -math.MaxFloat64}

var BrokenResNum int = -9999

func (xyz *Xyz) Ok() bool {
	if *xyz != BrokenXyz {
		return true
	}
	return false
}

// Category says what kind of molecule an atom belongs to.
type Category byte

const (
	Polymer Category = iota
	Solvent
	Organic   // ligands, cofactors, buffer molecules
	Inorganic // ions
)

func (c Category) String() string {
	switch c {
	case Polymer:
		return "polymer"
	case Solvent:
		return "solvent"
	case Organic:
		return "organic"
	case Inorganic:
		return "inorganic"
	}
	return "unknown"
}

var waterNames = map[string]bool{
	"HOH": true, "WAT": true, "DOD": true, "H2O": true, "DIS": true,
}

// Not complete, but covers what turns up in kinase crystal structures.
var inorgNames = map[string]bool{
	"NA": true, "CL": true, "MG": true, "ZN": true, "CA": true,
	"MN": true, "K": true, "FE": true, "FE2": true, "CU": true,
	"CO": true, "NI": true, "CD": true, "IOD": true, "BR": true,
	"SO4": true, "PO4": true, "LI": true, "CS": true, "SR": true,
	"HG": true, "F": true, "NO3": true,
}

// Categorise decides the category of an atom from its record group,
// residue name and label_seq_id. A HETATM with a sequence position is
// a modified residue (TPO, MSE, ...) and so part of the polymer.
func Categorise(group, resName string, labelSeq int) Category {
	if group == "ATOM" || labelSeq != BrokenResNum {
		return Polymer
	}
	if waterNames[resName] {
		return Solvent
	}
	if inorgNames[resName] {
		return Inorganic
	}
	return Organic
}

// Atom is one line from an atom_site table.
type Atom struct {
	Group    string // ATOM or HETATM
	Serial   int
	Name     string // auth_atom_id
	AltLoc   byte   // 0 if there is none
	ResName  string // auth_comp_id
	Chain    string // auth_asym_id
	ResNum   int    // auth_seq_id
	InsCode  byte
	Element  string
	Entity   string
	LabelSeq int // label_seq_id, BrokenResNum for "."
	Occ      float64
	BFac     float64
	MdlNum   int16
	Category Category
	Xyz
}

// Structure is one model of one assembly of an entry.
type Structure struct {
	ID       string // accession, like 4WB8
	Assembly string // "" for the deposited asymmetric unit
	Atoms    []Atom
}

// Chains returns the chain names in the order they first appear.
func (s *Structure) Chains() []string {
	ret := make([]string, 0, 2)
	seen := make(map[string]bool)
	for i := range s.Atoms {
		c := s.Atoms[i].Chain
		if !seen[c] {
			seen[c] = true
			ret = append(ret, c)
		}
	}
	return ret
}

// StripSolvent removes water atoms in place and returns how many went.
func (s *Structure) StripSolvent() int {
	n := 0
	for _, a := range s.Atoms {
		if a.Category != Solvent {
			s.Atoms[n] = a
			n++
		}
	}
	nGone := len(s.Atoms) - n
	s.Atoms = s.Atoms[:n]
	return nGone
}

// Coords returns a fresh slice of the coordinates of atoms at ndx.
func (s *Structure) Coords(ndx []int) XyzSl {
	ret := make(XyzSl, len(ndx))
	for i, j := range ndx {
		ret[i] = s.Atoms[j].Xyz
	}
	return ret
}

// Clone gives a deep copy, so one can move atoms about without
// touching the original.
func (s *Structure) Clone() *Structure {
	t := *s
	t.Atoms = make([]Atom, len(s.Atoms))
	copy(t.Atoms, s.Atoms)
	return &t
}

// Name is the accession, with the assembly if there is one.
func (s *Structure) Name() string {
	if s.Assembly == "" {
		return s.ID
	}
	return s.ID + "-assembly" + s.Assembly
}
