// Package pipeline runs the batch. A Session holds everything one run
// needs: the reference, the store, the resolver and where output goes.
// Nothing is kept in package variables.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/andrew-torda/lobec/pdb"
	"github.com/andrew-torda/lobec/pdb/cmmn"
	"github.com/andrew-torda/lobec/pkg/manifest"
	"github.com/andrew-torda/lobec/pkg/quality"
	"github.com/andrew-torda/lobec/pkg/region"
	"github.com/andrew-torda/lobec/pkg/results"
	"github.com/andrew-torda/lobec/pkg/selection"
	"github.com/andrew-torda/lobec/pkg/superpose"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Loader gets a structure by accession and assembly. pdb.Store is the
// real one.
type Loader interface {
	Load(ctx context.Context, id, assembly string) (*cmmn.Structure, error)
}

// Reference says which structure and window everything is put onto.
// If File is set, the structure is read from there instead of the store.
type Reference struct {
	ID       string
	Assembly string
	Chain    string
	Range    selection.Range
	File     string
}

// DfltReference is PKA (4WB8), assembly 1, chain A, residues 127 to 350.
var DfltReference = Reference{ID: "4WB8", Assembly: "1", Chain: "A", Range: selection.Range{Start: 127, End: 350}}

// AlignedSuffix is added to the accession for aligned coordinate files.
const AlignedSuffix = "_aligned.cif"

// A chain needs more C-alpha atoms than this to be picked when the
// manifest chain is missing.
const minAutoChain = 200

// Session is one run.
type Session struct {
	RunID    string
	Store    Loader
	Engine   region.Aligner
	Resolver *region.Resolver
	Align    superpose.Options // Transform is forced on for the final fit
	Policy   quality.Policy
	Atom     string // atom name to superpose, CA unless set
	OutDir   string // aligned files go here, "" means none are written
	Workers  int
	Log      *log.Logger
	Out      io.Writer // progress lines for the user

	Ref    *cmmn.Structure
	RefSel selection.Selection

	wrtMu sync.Mutex
}

// NewSession has a fresh run id and default settings. The reference
// still has to be loaded.
func NewSession(store Loader, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Session{
		RunID:    uuid.NewString(),
		Store:    store,
		Engine:   superpose.Engine{},
		Resolver: region.NewResolver(region.DefaultPolicy(), logger),
		Align:    superpose.DefaultOptions(),
		Atom:     "CA",
		Workers:  1,
		Log:      logger,
		Out:      io.Discard,
	}
}

func (s *Session) selection(chain string, r selection.Range) selection.Selection {
	sel := selection.CAlpha(chain, r)
	if s.Atom != "" {
		sel.AtomNames = []string{s.Atom}
	}
	return sel
}

// LoadReference reads the reference and checks its window. Any error
// here means the batch cannot run.
func (s *Session) LoadReference(ctx context.Context, ref Reference) error {
	var st *cmmn.Structure
	var err error
	if ref.File != "" {
		st, err = pdb.LoadLocal(ref.File)
	} else {
		st, err = s.Store.Load(ctx, ref.ID, ref.Assembly)
	}
	if err != nil {
		return fmt.Errorf("loading reference: %w", err)
	}
	sel := s.selection(ref.Chain, ref.Range)
	n := sel.Count(st)
	if n == 0 {
		return fmt.Errorf("reference: %w", &selection.EmptySelectionError{Structure: st.Name(), Selection: sel})
	}
	if brk := sel.Breaks(st); len(brk) > 0 {
		s.Log.Printf("reference %s has %d chain breaks in %s, first at %s", st.Name(), len(brk), ref.Range, brk[0])
	}
	s.Log.Printf("reference %s %s: %d atoms", st.Name(), sel, n)
	s.Ref, s.RefSel = st, sel
	return nil
}

// pickChain returns chain if it has C-alpha atoms. Otherwise it is the
// biggest chain of the structure, with a note, if that has more than
// minAutoChain C-alpha atoms. If not, chain comes back unchanged and the
// resolver reports it as empty.
func pickChain(st *cmmn.Structure, chain string) (string, string) {
	if selection.CAlpha(chain, selection.AllResidues).Count(st) > 0 {
		return chain, ""
	}
	best := selection.BestChain(st, minAutoChain)
	if best == "" || best == chain {
		return chain, ""
	}
	if selection.CAlpha(best, selection.AllResidues).Count(st) <= minAutoChain {
		return chain, ""
	}
	return best, fmt.Sprintf("chain %s empty, used %s", chain, best)
}

func joinNotes(notes ...string) string {
	var keep []string
	for _, n := range notes {
		if n != "" {
			keep = append(keep, n)
		}
	}
	return strings.Join(keep, "; ")
}

// One does a single manifest entry. Failures become ERROR records.
func (s *Session) One(ctx context.Context, e manifest.Entry) results.Record {
	tgt, err := s.Store.Load(ctx, e.ID, e.Assembly)
	if err != nil {
		s.Log.Printf("%s: %v", e, err)
		return results.ErrorRecord(e.ID, err)
	}
	chain, chainNote := pickChain(tgt, e.Chain)
	choice, err := s.Resolver.Resolve(tgt, chain, s.Ref, s.RefSel)
	if err != nil {
		s.Log.Printf("%s: %v", e, err)
		return results.ErrorRecord(e.ID, err)
	}
	movSel := s.RefSel
	movSel.Chain, movSel.Range = chain, choice.Range
	opt := s.Align
	opt.Transform = true
	res, err := s.Engine.Align(tgt, movSel, s.Ref, s.RefSel, opt)
	if err != nil {
		s.Log.Printf("%s %s: %v", e, choice.Range, err)
		return results.ErrorRecord(e.ID, err)
	}
	rec := results.Record{
		ID:       e.ID,
		Chain:    chain,
		NAligned: res.NAligned,
		RMSD:     res.RMSD,
		Tier:     s.Policy.Classify(res.RMSD, res.NAligned),
		Range:    choice.Range,
		Note:     joinNotes(chainNote, choice.Note(), quality.Diagnose(res.NAligned)),
	}
	if s.OutDir != "" {
		if err := s.writeAligned(e.ID, tgt); err != nil {
			s.Log.Printf("%s: %v", e, err)
			rec.Note = joinNotes(rec.Note, err.Error())
		}
	}
	return rec
}

// AlignedPath is where the aligned copy of a structure is written.
func (s *Session) AlignedPath(id string) string {
	return filepath.Join(s.OutDir, id+AlignedSuffix)
}

// Two chains of one entry share a file name, so writes are one at a time.
func (s *Session) writeAligned(id string, tgt *cmmn.Structure) error {
	s.wrtMu.Lock()
	defer s.wrtMu.Unlock()
	if err := pdb.WriteFile(s.AlignedPath(id), tgt); err != nil {
		return fmt.Errorf("writing aligned file: %w", err)
	}
	return nil
}

// forEach calls f for every entry, with at most Workers at a time.
// It stops starting new ones when ctx is cancelled.
func (s *Session) forEach(ctx context.Context, entries []manifest.Entry, f func(i int, e manifest.Entry)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.Workers, 1))
	for i, e := range entries {
		if gctx.Err() != nil {
			break
		}
		i, e := i, e
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f(i, e)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Run superposes every entry of the manifest and writes the records,
// in manifest order, to w. Only a cancelled context stops the batch.
// The records finished before that are still written.
func (s *Session) Run(ctx context.Context, m *manifest.Manifest, w *results.Writer) (*results.Summary, error) {
	if s.Ref == nil {
		return nil, errors.New("run: no reference loaded")
	}
	sum := &results.Summary{RunID: s.RunID, Skipped: m.Skipped}
	s.Log.Printf("run %s: %d entries, %d skipped, %d workers", s.RunID, len(m.Entries), m.Skipped, max(s.Workers, 1))
	recs := make([]*results.Record, len(m.Entries))
	var outMu sync.Mutex
	runErr := s.forEach(ctx, m.Entries, func(i int, e manifest.Entry) {
		r := s.One(ctx, e)
		recs[i] = &r
		outMu.Lock()
		chain := e.Chain
		if r.Err == nil {
			chain = r.Chain
		}
		fmt.Fprintf(s.Out, "[%d/%d] %s chain %s: %s\n", i+1, len(m.Entries), e.ID, chain, progress(&r))
		outMu.Unlock()
	})
	for _, r := range recs {
		if r == nil {
			continue
		}
		sum.Add(*r)
		if err := w.Write(*r); err != nil {
			return sum, fmt.Errorf("writing results: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return sum, fmt.Errorf("writing results: %w", err)
	}
	return sum, runErr
}

func progress(r *results.Record) string {
	if r.Err != nil {
		return "ERROR " + r.Err.Error()
	}
	return fmt.Sprintf("%d atoms, rmsd %s, %s", r.NAligned, r.RMSDText(), r.Tier)
}

// Fetch loads every entry so it ends up in the store's cache. It
// returns the number that could not be loaded.
func (s *Session) Fetch(ctx context.Context, m *manifest.Manifest) (int, error) {
	var mu sync.Mutex
	nFail := 0
	err := s.forEach(ctx, m.Entries, func(i int, e manifest.Entry) {
		_, err := s.Store.Load(ctx, e.ID, e.Assembly)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			nFail++
			fmt.Fprintf(s.Out, "%s: %v\n", e.ID, err)
			return
		}
		fmt.Fprintf(s.Out, "%s assembly %s ok\n", e.ID, e.Assembly)
	})
	return nFail, err
}
