// Package region decides which residues of a target chain are lined up
// with the reference window. The reference window is tried first. If
// the target has too few atoms there, other windows are scored and
// the best one is used. As a last resort the whole chain is taken.
package region

import (
	"fmt"
	"io"
	"log"
	"math"
	"strings"

	"github.com/andrew-torda/lobec/pdb/cmmn"
	"github.com/andrew-torda/lobec/pkg/selection"
	"github.com/andrew-torda/lobec/pkg/superpose"
)

// Aligner superposes selections. superpose.Engine is the real one.
type Aligner interface {
	Align(mov *cmmn.Structure, movSel selection.Selection, ref *cmmn.Structure,
		refSel selection.Selection, opt superpose.Options) (superpose.Result, error)
}

// Mode says whether the reference window is tried on its own first.
type Mode byte

const (
	Fallback Mode = iota // primary window if it is big enough, else search
	Search               // always score the candidate windows
)

func (m Mode) String() string {
	if m == Search {
		return "search"
	}
	return "fallback"
}

// ParseMode reads "fallback" or "search".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fallback":
		return Fallback, nil
	case "search":
		return Search, nil
	}
	return Fallback, fmt.Errorf("region mode %q is not fallback or search", s)
}

// Policy holds the thresholds for choosing a window.
type Policy struct {
	MinPrimary    int     // primary window is used with at least this many atoms
	MinCandidate  int     // candidates need more than this, offered and aligned
	ExploreCycles int     // rejection cycles while scoring candidates
	Cutoff        float64 // rejection cutoff while scoring candidates
	Mode          Mode
}

// DefaultPolicy is 20 atoms for the primary window and more than 40 for
// a candidate, scored with 5 cycles at 2 A.
func DefaultPolicy() Policy {
	return Policy{MinPrimary: 20, MinCandidate: 40, ExploreCycles: 5, Cutoff: 2.0}
}

// Score of a candidate. Lower is better. It rewards a low rmsd and
// many aligned atoms, one hundredth of an angstrom per atom.
func Score(rmsd float64, nAligned int) float64 {
	return rmsd - float64(nAligned)/100
}

// How says where a Choice came from.
type How byte

const (
	Primary How = iota // the reference window itself
	Searched           // best scoring candidate
	Whole              // every residue of the chain
)

func (h How) String() string {
	switch h {
	case Primary:
		return "primary"
	case Searched:
		return "search"
	}
	return "all"
}

// Candidate is one window that was looked at during the search.
type Candidate struct {
	Range    selection.Range
	NOffered int // target atoms in the window
	NAligned int
	RMSD     float64
	Score    float64
	Skip     string // why it could not be used, empty if it qualified
}

func (c Candidate) String() string {
	if c.Skip != "" {
		return fmt.Sprintf("%s skipped: %s", c.Range, c.Skip)
	}
	return fmt.Sprintf("%s n=%d rmsd=%.2f score=%.2f", c.Range, c.NAligned, c.RMSD, c.Score)
}

// Choice is the window to use on the target chain.
type Choice struct {
	Chain string
	Range selection.Range
	How   How
	N     int     // target atoms in the window
	Score float64 // NaN unless How is Searched
	Trace []Candidate
}

// Note is a short description for the result table.
func (c Choice) Note() string {
	switch c.How {
	case Searched:
		return fmt.Sprintf("search %s score %.2f", c.Range, c.Score)
	case Whole:
		return "whole chain"
	}
	return ""
}

// Resolver picks windows. The zero value works, with the real engine,
// numeric windows and a zero Policy, so callers normally set Policy.
type Resolver struct {
	Engine   Aligner
	Strategy Strategy
	Policy   Policy
	Log      *log.Logger
}

// NewResolver has the default engine and numeric windows.
func NewResolver(p Policy, logger *log.Logger) *Resolver {
	return &Resolver{Engine: superpose.Engine{}, Strategy: DfltNumeric(), Policy: p, Log: logger}
}

func (r *Resolver) engine() Aligner {
	if r.Engine == nil {
		return superpose.Engine{}
	}
	return r.Engine
}

func (r *Resolver) strategy() Strategy {
	if r.Strategy == nil {
		return DfltNumeric()
	}
	return r.Strategy
}

func (r *Resolver) logger() *log.Logger {
	if r.Log == nil {
		return log.New(io.Discard, "", 0)
	}
	return r.Log
}

// Resolve chooses the window of chain in tgt to superpose onto the
// refSel atoms of ref. Neither structure is changed.
// The atom names and categories of refSel are used on the target too.
func (r *Resolver) Resolve(tgt *cmmn.Structure, chain string, ref *cmmn.Structure,
	refSel selection.Selection) (Choice, error) {
	lg := r.logger()
	p := r.Policy
	tgtSel := refSel
	tgtSel.Chain = chain
	choice := Choice{Chain: chain, Score: math.NaN()}

	if p.Mode == Fallback {
		n := tgtSel.Count(tgt)
		if n > 0 && n >= p.MinPrimary {
			choice.Range, choice.How, choice.N = refSel.Range, Primary, n
			return choice, nil
		}
		lg.Printf("%s chain %s: %d atoms in %s, searching", tgt.Name(), chain, n, refSel.Range)
	}

	opt := superpose.Options{Cycles: p.ExploreCycles, Cutoff: p.Cutoff}
	best := -1
	for _, w := range r.strategy().Windows(tgt, chain, ref, refSel) {
		c := Candidate{Range: w, Score: math.NaN()}
		sel := tgtSel.WithRange(w)
		if c.NOffered = sel.Count(tgt); c.NOffered <= p.MinCandidate {
			c.Skip = fmt.Sprintf("%d atoms offered", c.NOffered)
			choice.Trace = append(choice.Trace, c)
			continue
		}
		res, err := r.engine().Align(tgt, sel, ref, refSel, opt)
		if err != nil {
			c.Skip = err.Error()
			choice.Trace = append(choice.Trace, c)
			continue
		}
		c.NAligned, c.RMSD = res.NAligned, res.RMSD
		if c.NAligned <= p.MinCandidate {
			c.Skip = fmt.Sprintf("%d atoms aligned", c.NAligned)
			choice.Trace = append(choice.Trace, c)
			continue
		}
		c.Score = Score(c.RMSD, c.NAligned)
		choice.Trace = append(choice.Trace, c)
		if best == -1 || c.Score < choice.Trace[best].Score {
			best = len(choice.Trace) - 1
		}
	}
	for _, c := range choice.Trace {
		lg.Printf("%s chain %s: %s", tgt.Name(), chain, c)
	}

	if best != -1 {
		c := choice.Trace[best]
		choice.Range, choice.How, choice.N, choice.Score = c.Range, Searched, c.NOffered, c.Score
		return choice, nil
	}

	all := tgtSel.WithRange(selection.AllResidues)
	n := all.Count(tgt)
	if n == 0 {
		return choice, &selection.EmptySelectionError{Structure: tgt.Name(), Selection: all}
	}
	lg.Printf("%s chain %s: no window qualified, using %d atoms of the chain", tgt.Name(), chain, n)
	choice.Range, choice.How, choice.N = selection.AllResidues, Whole, n
	return choice, nil
}
