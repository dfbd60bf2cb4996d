// Package quality turns an RMSD into a tier.
package quality

import (
	"math"
	"strings"
)

// Tier is the quality class of one superposition.
type Tier int

const (
	Excellent Tier = iota
	Good
	Moderate
	HighRMSD
	Error
)

// Tiers lists every tier in the order they are reported.
var Tiers = []Tier{Excellent, Good, Moderate, HighRMSD, Error}

var tierNames = [...]string{"EXCELLENT", "GOOD", "MODERATE", "HIGH_RMSD", "ERROR"}

func (t Tier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return "UNKNOWN"
	}
	return tierNames[t]
}

// ParseTier is the inverse of String.
func ParseTier(s string) (Tier, bool) {
	for i, n := range tierNames {
		if strings.EqualFold(s, n) {
			return Tier(i), true
		}
	}
	return Error, false
}

// Upper bounds of the tiers, inclusive apart from Excellent.
const (
	ExcellentBelow = 2.0
	GoodMax        = 2.5
	ModerateMax    = 4.0
)

// Classify maps an RMSD to a tier:
//
//	rmsd < 2.0        EXCELLENT
//	2.0 <= rmsd <= 2.5 GOOD
//	2.5 < rmsd <= 4.0 MODERATE
//	rmsd > 4.0        HIGH_RMSD
//
// NaN and negative values cannot come from a fit and give ERROR.
func Classify(rmsd float64) Tier {
	switch {
	case math.IsNaN(rmsd) || rmsd < 0:
		return Error
	case rmsd < ExcellentBelow:
		return Excellent
	case rmsd <= GoodMax:
		return Good
	case rmsd <= ModerateMax:
		return Moderate
	}
	return HighRMSD
}

// Policy can make the number of aligned atoms count. With MinAligned
// zero, the tier depends only on the RMSD.
type Policy struct {
	MinAligned int
}

// Classify applies the policy.
func (p Policy) Classify(rmsd float64, nAligned int) Tier {
	if p.MinAligned > 0 && nAligned < p.MinAligned {
		return Error
	}
	return Classify(rmsd)
}

// Coverage limits for Diagnose.
const (
	FewAtoms     = 50
	GoodCoverage = 100
)

// Diagnose comments on the number of aligned atoms. It never changes a
// tier. An empty string means nothing to say.
func Diagnose(nAligned int) string {
	switch {
	case nAligned < FewAtoms:
		return "few atoms"
	case nAligned > GoodCoverage:
		return "good coverage"
	}
	return ""
}

// Counts is how many results fell in each tier.
type Counts [len(tierNames)]int

// Add counts one tier.
func (c *Counts) Add(t Tier) {
	if t >= 0 && int(t) < len(c) {
		c[t]++
	}
}

// Total is the number counted.
func (c *Counts) Total() int {
	n := 0
	for _, x := range c {
		n += x
	}
	return n
}
