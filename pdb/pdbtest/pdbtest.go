// Package pdbtest builds small synthetic structures for tests, so we do
// not need files from the protein data bank. The backbone follows an
// ideal alpha helix, which gives sensible C-alpha spacing.
package pdbtest

import (
	"bytes"
	"math"

	"github.com/andrew-torda/lobec/pdb/cmmn"
	"github.com/andrew-torda/lobec/pdb/mmcif"
)

const (
	radius = 2.3
	rise   = 1.5
	twist  = 100 * math.Pi / 180
)

var resNames = []string{"ALA", "GLY", "LEU", "LYS", "GLU", "ASP", "VAL", "SER", "THR", "PHE"}

// HelixXyz is the C-alpha position of residue i of the helix.
func HelixXyz(i int) cmmn.Xyz {
	a := float64(i) * twist
	return cmmn.Xyz{X: radius * math.Cos(a), Y: radius * math.Sin(a), Z: rise * float64(i)}
}

// Chain makes n residues numbered from first, each with N, CA and C
// atoms. Residue names cycle through a fixed list.
func Chain(chain string, first, n int) []cmmn.Atom {
	return ChainSeq(chain, first, n, nil)
}

// ChainSeq is Chain with the residue names given. If names is shorter
// than n, it wraps around.
func ChainSeq(chain string, first, n int, names []string) []cmmn.Atom {
	if len(names) == 0 {
		names = resNames
	}
	ret := make([]cmmn.Atom, 0, 3*n)
	for i := 0; i < n; i++ {
		ca := HelixXyz(i)
		rn := names[i%len(names)]
		for _, at := range []struct {
			name string
			dx   float64
		}{{"N", -0.6}, {"CA", 0}, {"C", 0.6}} {
			xyz := ca
			xyz.Z += at.dx
			ret = append(ret, cmmn.Atom{
				Group: "ATOM", Name: at.name, ResName: rn, Chain: chain,
				ResNum: first + i, LabelSeq: i + 1, Element: at.name[:1],
				Entity: "1", Occ: 1, MdlNum: 1, Category: cmmn.Polymer, Xyz: xyz,
			})
		}
	}
	return ret
}

// Water is a single solvent oxygen.
func Water(chain string, resNum int, xyz cmmn.Xyz) cmmn.Atom {
	return cmmn.Atom{Group: "HETATM", Name: "O", ResName: "HOH", Chain: chain,
		ResNum: resNum, LabelSeq: cmmn.BrokenResNum, Element: "O", Entity: "3",
		Occ: 1, MdlNum: 1, Category: cmmn.Solvent, Xyz: xyz}
}

// Ligand is a single organic atom.
func Ligand(chain string, resNum int, xyz cmmn.Xyz) cmmn.Atom {
	return cmmn.Atom{Group: "HETATM", Name: "C1", ResName: "ANP", Chain: chain,
		ResNum: resNum, LabelSeq: cmmn.BrokenResNum, Element: "C", Entity: "2",
		Occ: 1, MdlNum: 1, Category: cmmn.Organic, Xyz: xyz}
}

// Structure puts atom lists together and numbers the atoms.
func Structure(id string, parts ...[]cmmn.Atom) *cmmn.Structure {
	s := &cmmn.Structure{ID: id}
	for _, p := range parts {
		s.Atoms = append(s.Atoms, p...)
	}
	for i := range s.Atoms {
		s.Atoms[i].Serial = i + 1
	}
	return s
}

// Rotation about z by angle followed by one about x by the same angle.
func Rotation(angle float64) [3][3]float64 {
	c, s := math.Cos(angle), math.Sin(angle)
	rz := [3][3]float64{{c, -s, 0}, {s, c, 0}, {0, 0, 1}}
	rx := [3][3]float64{{1, 0, 0}, {0, c, -s}, {0, s, c}}
	var r [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				r[i][j] += rx[i][k] * rz[k][j]
			}
		}
	}
	return r
}

// Move applies x' = Rx + t to every atom of s.
func Move(s *cmmn.Structure, r [3][3]float64, t cmmn.Xyz) {
	for i := range s.Atoms {
		p := s.Atoms[i].Xyz
		s.Atoms[i].Xyz = cmmn.Xyz{
			X: r[0][0]*p.X + r[0][1]*p.Y + r[0][2]*p.Z + t.X,
			Y: r[1][0]*p.X + r[1][1]*p.Y + r[1][2]*p.Z + t.Y,
			Z: r[2][0]*p.X + r[2][1]*p.Y + r[2][2]*p.Z + t.Z,
		}
	}
}

// Cif returns the structure as mmcif text.
func Cif(s *cmmn.Structure) string {
	var buf bytes.Buffer
	if err := mmcif.Write(&buf, s); err != nil {
		panic(err) // bytes.Buffer does not fail
	}
	return buf.String()
}
