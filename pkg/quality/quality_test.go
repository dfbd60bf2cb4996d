package quality_test

import (
	"math"
	"testing"

	. "github.com/andrew-torda/lobec/pkg/quality"
)

func TestClassify(t *testing.T) {
	var tests = []struct {
		rmsd float64
		want Tier
	}{
		{0, Excellent},
		{1.999, Excellent},
		{2.0, Good},
		{2.2, Good},
		{2.5, Good},
		{2.5001, Moderate},
		{4.0, Moderate},
		{4.0001, HighRMSD},
		{25, HighRMSD},
		{math.Inf(1), HighRMSD},
		{-0.1, Error},
		{math.NaN(), Error},
	}
	for _, tt := range tests {
		if got := Classify(tt.rmsd); got != tt.want {
			t.Errorf("%g gave %v wanted %v", tt.rmsd, got, tt.want)
		}
	}
}

// Every non-negative value lands in exactly one tier and the tiers come
// in order as the rmsd rises.
func TestTotal(t *testing.T) {
	last := Excellent
	for x := 0.0; x < 6; x += 0.01 {
		tier := Classify(x)
		if tier == Error {
			t.Fatal("real rmsd gave ERROR", x)
		}
		if tier < last {
			t.Fatalf("tier went down at %g", x)
		}
		last = tier
	}
}

func TestPolicy(t *testing.T) {
	var p Policy
	if got := p.Classify(1.0, 3); got != Excellent {
		t.Error("default policy looked at atom count", got)
	}
	p.MinAligned = 20
	if got := p.Classify(1.0, 19); got != Error {
		t.Error("too few atoms should be ERROR, got", got)
	}
	if got := p.Classify(3.0, 20); got != Moderate {
		t.Error("enough atoms, got", got)
	}
}

func TestStrings(t *testing.T) {
	want := []string{"EXCELLENT", "GOOD", "MODERATE", "HIGH_RMSD", "ERROR"}
	for i, tier := range Tiers {
		if tier.String() != want[i] {
			t.Errorf("wanted %s got %s", want[i], tier)
		}
		if back, ok := ParseTier(want[i]); !ok || back != tier {
			t.Error("could not parse", want[i])
		}
	}
	if _, ok := ParseTier("SUPERB"); ok {
		t.Error("parsed a tier that does not exist")
	}
	if Tier(99).String() != "UNKNOWN" {
		t.Error("out of range tier")
	}
}

func TestDiagnose(t *testing.T) {
	var tests = []struct {
		n    int
		want string
	}{
		{0, "few atoms"},
		{49, "few atoms"},
		{50, ""},
		{100, ""},
		{101, "good coverage"},
	}
	for _, tt := range tests {
		if got := Diagnose(tt.n); got != tt.want {
			t.Errorf("%d gave %q", tt.n, got)
		}
	}
}

func TestCounts(t *testing.T) {
	var c Counts
	for _, tier := range []Tier{Good, Good, Error, HighRMSD, Tier(-1)} {
		c.Add(tier)
	}
	if c[Good] != 2 || c[Error] != 1 || c[HighRMSD] != 1 || c.Total() != 4 {
		t.Error("counts wrong", c)
	}
}
