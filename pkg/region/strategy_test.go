package region_test

import (
	"testing"

	"github.com/andrew-torda/lobec/pdb/cmmn"
	"github.com/andrew-torda/lobec/pdb/pdbtest"
	. "github.com/andrew-torda/lobec/pkg/region"
	"github.com/andrew-torda/lobec/pkg/selection"
)

var aa = []string{"ALA", "ARG", "ASN", "ASP", "CYS", "GLN", "GLU", "GLY", "HIS", "ILE",
	"LEU", "LYS", "MET", "PHE", "PRO", "SER", "THR", "TRP", "TYR", "VAL"}

// kinaseLike is a sequence with no repeats over short stretches.
func kinaseLike(n int) []string {
	ret := make([]string, n)
	for i := range ret {
		ret[i] = aa[(i*7+i*i/3)%len(aa)]
	}
	return ret
}

func TestOneLetter(t *testing.T) {
	for name, want := range map[string]byte{"ALA": 'A', "tpo": 'T', "SEP": 'S', "ANP": 'X', "": 'X'} {
		if got := OneLetter(name); got != want {
			t.Errorf("%s gave %c", name, got)
		}
	}
}

// The target has ten extra residues in front and is numbered from 1.
// Reference residue r sits at target residue r-90.
func TestSeqAnchorMap(t *testing.T) {
	names := kinaseLike(300)
	rf := pdbtest.Structure("REF", pdbtest.ChainSeq("A", 101, 300, names))
	extra := []string{"GLY", "GLY", "SER", "SER", "GLY", "GLY", "SER", "SER", "GLY", "GLY"}
	tgt := pdbtest.Structure("TGT", pdbtest.ChainSeq("B", 1, 310, append(extra, names...)))
	refSel := selection.CAlpha("A", selection.Range{Start: 127, End: 350})

	sa := DfltSeqAnchor(nil)
	got, err := sa.Map(tgt, "B", rf, refSel)
	if err != nil {
		t.Fatal(err)
	}
	if want := (selection.Range{Start: 37, End: 260}); got != want {
		t.Errorf("mapped to %s wanted %s", got, want)
	}
	w := sa.Windows(tgt, "B", rf, refSel)
	if len(w) != 7 || w[0] != got || w[1] != refSel.Range {
		t.Error("windows", w)
	}
}

func TestSeqAnchorFails(t *testing.T) {
	rf := pdbtest.Structure("REF", pdbtest.Chain("A", 101, 50))
	tgt := pdbtest.Structure("TGT", pdbtest.Chain("B", 1, 50))
	refSel := selection.CAlpha("A", selection.Range{Start: 500, End: 600})
	sa := DfltSeqAnchor(nil)
	if _, err := sa.Map(tgt, "B", rf, refSel); err == nil {
		t.Error("window outside the reference should not map")
	}
	if _, err := sa.Map(&cmmn.Structure{ID: "NIL"}, "B", rf, refSel.WithRange(selection.Range{Start: 101, End: 120})); err == nil {
		t.Error("empty target should not map")
	}
	// still get the numeric windows
	if w := sa.Windows(tgt, "B", rf, refSel); len(w) != 6 {
		t.Error("windows", w)
	}
}

// With sequence anchoring, a renumbered target gets the right window
// through the resolver and the real engine.
func TestSeqAnchorResolve(t *testing.T) {
	names := kinaseLike(300)
	rf := pdbtest.Structure("REF", pdbtest.ChainSeq("A", 101, 300, names))
	tgt := pdbtest.Structure("TGT", pdbtest.ChainSeq("A", 1001, 300, names))
	pdbtest.Move(tgt, pdbtest.Rotation(2), cmmn.Xyz{Z: 10})
	r := NewResolver(DefaultPolicy(), nil)
	r.Strategy = DfltSeqAnchor(nil)
	ch, err := r.Resolve(tgt, "A", rf, selection.CAlpha("A", selection.Range{Start: 127, End: 350}))
	if err != nil {
		t.Fatal(err)
	}
	if ch.How != Searched || ch.Range != (selection.Range{Start: 1027, End: 1250}) {
		t.Errorf("got %s %s", ch.How, ch.Range)
	}
	if ch.Trace[0].RMSD > 1e-4 || ch.Trace[0].NAligned != 224 {
		t.Error("first candidate", ch.Trace[0])
	}
}
