// Package superpose fits one set of atoms onto another with a rigid
// rotation and translation (Kabsch), throwing out badly fitting pairs
// and refitting for a few cycles.
//
// The outline of the fit:
//
// Centre both sets on their centroids and build the 3x3 covariance
// matrix H = sum over pairs of p q^T, with p moving and q reference.
//
// Take the SVD H = U S V^T. The rotation is R = V D U^T where D is
// diag(1, 1, d) and d = sign(det(V U^T)). Without D one can get a
// reflection instead of a rotation.
//
// A moving point x goes to R(x - c_mov) + c_ref.
package superpose

import (
	"errors"
	"fmt"
	"math"

	"github.com/andrew-torda/lobec/pdb/cmmn"
	"github.com/andrew-torda/lobec/pdb/geom"
	"github.com/andrew-torda/lobec/pkg/selection"
	"gonum.org/v1/gonum/mat"
)

// MinPairs is the smallest number of pairs we will fit.
const MinPairs = 3

// Options steer one superposition.
type Options struct {
	Cycles    int     // most outlier rejection cycles, 0 means just one fit
	Cutoff    float64 // pairs further apart than this, after fitting, are dropped
	Transform bool    // move the whole moving structure at the end
}

// DefaultOptions are 10 cycles with a 2 A cutoff and no transform.
func DefaultOptions() Options {
	return Options{Cycles: 10, Cutoff: 2.0}
}

// Transform is a rigid motion, applied as R(x - CMov) + CRef.
type Transform struct {
	R    [3][3]float64
	CMov cmmn.Xyz
	CRef cmmn.Xyz
}

// Identity does nothing.
var Identity = Transform{R: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}

// Apply moves one point.
func (t *Transform) Apply(x cmmn.Xyz) cmmn.Xyz {
	p := geom.Diff(t.CMov, x)
	return cmmn.Xyz{
		X: t.R[0][0]*p.X + t.R[0][1]*p.Y + t.R[0][2]*p.Z + t.CRef.X,
		Y: t.R[1][0]*p.X + t.R[1][1]*p.Y + t.R[1][2]*p.Z + t.CRef.Y,
		Z: t.R[2][0]*p.X + t.R[2][1]*p.Y + t.R[2][2]*p.Z + t.CRef.Z,
	}
}

// Result of one superposition. NOffered is the number of pairs after
// truncating to the shorter selection and NAligned the number kept
// after outlier rejection, so NAligned <= NOffered.
type Result struct {
	RMSD      float64
	NAligned  int
	NOffered  int
	Cycles    int // rejection cycles which dropped something
	Transform Transform
	Applied   bool
}

// FitFailureError means there were too few pairs for a fit.
type FitFailureError struct {
	Pairs int
}

func (e *FitFailureError) Error() string {
	return fmt.Sprintf("fit failure: %d atom pairs, need at least %d", e.Pairs, MinPairs)
}

// Fit finds the transform taking mov onto ref, pairing points by
// position. It returns the RMSD of the fitted pairs.
func Fit(mov, ref cmmn.XyzSl) (Transform, float64, error) {
	if len(mov) != len(ref) {
		return Identity, 0, fmt.Errorf("fitting %d points onto %d", len(mov), len(ref))
	}
	if len(mov) < MinPairs {
		return Identity, 0, &FitFailureError{Pairs: len(mov)}
	}
	t := Transform{CMov: geom.Centroid(mov), CRef: geom.Centroid(ref)}

	h := mat.NewDense(3, 3, nil)
	for i := range mov {
		p := geom.Diff(t.CMov, mov[i])
		q := geom.Diff(t.CRef, ref[i])
		pv := [3]float64{p.X, p.Y, p.Z}
		qv := [3]float64{q.X, q.Y, q.Z}
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				h.Set(r, c, h.At(r, c)+pv[r]*qv[c])
			}
		}
	}
	var svd mat.SVD
	if ok := svd.Factorize(h, mat.SVDFull); !ok {
		return Identity, 0, errors.New("SVD of covariance matrix failed")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var vut mat.Dense
	vut.Mul(&v, u.T())
	d := 1.0
	if mat.Det(&vut) < 0 {
		d = -1
	}
	dm := mat.NewDiagDense(3, []float64{1, 1, d})
	var vd, rot mat.Dense
	vd.Mul(&v, dm)
	rot.Mul(&vd, u.T())
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			t.R[r][c] = rot.At(r, c)
		}
	}
	return t, pairRMSD(&t, mov, ref), nil
}

// pairRMSD is the RMSD after moving mov with t.
func pairRMSD(t *Transform, mov, ref cmmn.XyzSl) float64 {
	if len(mov) == 0 {
		return 0
	}
	var sum float64
	for i := range mov {
		sum += geom.Dist2(t.Apply(mov[i]), ref[i])
	}
	return math.Sqrt(sum / float64(len(mov)))
}

// RMSD of two point sets as they are, without fitting. Pairs are taken
// by position and the longer set is truncated.
func RMSD(a, b cmmn.XyzSl) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += geom.Dist2(a[i], b[i])
	}
	return math.Sqrt(sum / float64(n))
}

// Pairs fits mov onto ref with outlier rejection. After each fit, pairs
// further apart than opt.Cutoff are dropped and the rest refitted. This
// stops when nothing is dropped or after opt.Cycles rejection rounds.
// Neither slice is changed.
func Pairs(mov, ref cmmn.XyzSl, opt Options) (Result, error) {
	n := min(len(mov), len(ref))
	res := Result{NOffered: n, Transform: Identity}
	m := append(cmmn.XyzSl(nil), mov[:n]...)
	r := append(cmmn.XyzSl(nil), ref[:n]...)
	cut2 := opt.Cutoff * opt.Cutoff
	for {
		if len(m) < MinPairs {
			return res, &FitFailureError{Pairs: len(m)}
		}
		t, rmsd, err := Fit(m, r)
		if err != nil {
			return res, err
		}
		res.Transform, res.RMSD, res.NAligned = t, rmsd, len(m)
		if res.Cycles >= opt.Cycles || opt.Cutoff <= 0 {
			break
		}
		k := 0
		for i := range m {
			if geom.Dist2(t.Apply(m[i]), r[i]) <= cut2 {
				m[k], r[k] = m[i], r[i]
				k++
			}
		}
		if k == len(m) {
			break
		}
		m, r = m[:k], r[:k]
		res.Cycles++
	}
	return res, nil
}

// Align superposes the movSel atoms of mov onto the refSel atoms of ref.
// Atoms are paired in selection order. If opt.Transform is set, every
// atom of mov is moved at the end. ref is only read.
func Align(mov *cmmn.Structure, movSel selection.Selection, ref *cmmn.Structure,
	refSel selection.Selection, opt Options) (Result, error) {
	res, err := Pairs(movSel.Coords(mov), refSel.Coords(ref), opt)
	if err != nil {
		return res, err
	}
	if opt.Transform {
		for i := range mov.Atoms {
			mov.Atoms[i].Xyz = res.Transform.Apply(mov.Atoms[i].Xyz)
		}
		res.Applied = true
	}
	return res, nil
}

// Engine does superpositions with the package functions. It exists so
// callers can hold something that satisfies an interface.
type Engine struct{}

// Align calls the package level Align.
func (Engine) Align(mov *cmmn.Structure, movSel selection.Selection, ref *cmmn.Structure,
	refSel selection.Selection, opt Options) (Result, error) {
	return Align(mov, movSel, ref, refSel, opt)
}
