// Package geom has the small bits of vector arithmetic on coordinates
// which the superposition and the chain break check need.
package geom

import (
	"math"

	"github.com/andrew-torda/lobec/pdb/cmmn"
)

const (
	mindist  = 2.6
	mindist2 = mindist * mindist
	maxdist  = 4.1 // max dist for c_alpha to c_alpha
	maxdist2 = maxdist * maxdist
)

type Error string

func (e Error) Error() string { return string(e) }

// Diff gets the difference of two vectors, end - start.
func Diff(start, end cmmn.Xyz) cmmn.Xyz {
	return cmmn.Xyz{X: end.X - start.X, Y: end.Y - start.Y, Z: end.Z - start.Z}
}

// Add returns the sum of two vectors.
func Add(u, v cmmn.Xyz) cmmn.Xyz {
	return cmmn.Xyz{X: u.X + v.X, Y: u.Y + v.Y, Z: u.Z + v.Z}
}

// Dot returns the scalar product of two vectors
func Dot(u, v cmmn.Xyz) float64 { return u.X*v.X + u.Y*v.Y + u.Z*v.Z }

// Len2 gives us the length squared
func Len2(v cmmn.Xyz) float64 { return Dot(v, v) }

// Dist2 is the squared distance between two points.
func Dist2(a, b cmmn.Xyz) float64 { return Len2(Diff(a, b)) }

// Dist is the distance between two points.
func Dist(a, b cmmn.Xyz) float64 { return math.Sqrt(Dist2(a, b)) }

// Centroid is the mean position of a set of points. An empty set gives
// the origin.
func Centroid(xyz cmmn.XyzSl) cmmn.Xyz {
	var c cmmn.Xyz
	if len(xyz) == 0 {
		return c
	}
	for _, p := range xyz {
		c = Add(c, p)
	}
	n := float64(len(xyz))
	return cmmn.Xyz{X: c.X / n, Y: c.Y / n, Z: c.Z / n}
}

// CADist gets the distance between two alpha carbons, but if it is
// bigger than a bonded neighbour could be, or smaller than two atoms
// can approach, it returns an error.
func CADist(x1, x2 cmmn.Xyz) (float64, error) {
	r := Dist2(x1, x2)
	switch {
	case r >= maxdist2:
		return math.Sqrt(r), Error("too big")
	case r <= mindist2:
		return math.Sqrt(r), Error("too small")
	}
	return math.Sqrt(r), nil
}
