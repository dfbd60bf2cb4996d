package region

import (
	"fmt"
	"log"
	"strings"

	"github.com/andrew-torda/lobec/gotoh"
	"github.com/andrew-torda/lobec/pdb/cmmn"
	"github.com/andrew-torda/lobec/pkg/selection"
	"github.com/andrew-torda/lobec/submat"
)

// Strategy proposes target windows, best guesses first.
type Strategy interface {
	Windows(tgt *cmmn.Structure, chain string, ref *cmmn.Structure, refSel selection.Selection) []selection.Range
}

// NumericWindows trusts residue numbering. It offers the reference
// window, the reference window moved by each of Shifts, then the
// Generic windows.
type NumericWindows struct {
	Shifts  []int
	Generic []selection.Range
}

// DfltNumeric is the reference window, shifted by -30 and +30, then
// 120-280, 140-300 and 100-250.
func DfltNumeric() NumericWindows {
	return NumericWindows{
		Shifts:  []int{-30, 30},
		Generic: []selection.Range{{Start: 120, End: 280}, {Start: 140, End: 300}, {Start: 100, End: 250}},
	}
}

// Windows does not look at the structures.
func (nw NumericWindows) Windows(_ *cmmn.Structure, _ string, _ *cmmn.Structure,
	refSel selection.Selection) []selection.Range {
	ret := []selection.Range{refSel.Range}
	for _, d := range nw.Shifts {
		ret = appendNew(ret, refSel.Range.Shift(d))
	}
	for _, g := range nw.Generic {
		ret = appendNew(ret, g)
	}
	return ret
}

func appendNew(ranges []selection.Range, r selection.Range) []selection.Range {
	for _, x := range ranges {
		if x == r {
			return ranges
		}
	}
	return append(ranges, r)
}

// SeqAnchor lines up the residue sequences of the reference chain and
// the target chain and carries the ends of the reference window over
// to the target. That window comes first, followed by whatever Then
// offers.
type SeqAnchor struct {
	Matrix *submat.Submat // nil means BLOSUM62
	Pnlty  gotoh.Pnlty
	Then   Strategy
	Log    *log.Logger
}

// DfltSeqAnchor uses BLOSUM62 with gaps costing 11 to open and 1 per
// extension, then the default numeric windows.
func DfltSeqAnchor(logger *log.Logger) *SeqAnchor {
	return &SeqAnchor{Pnlty: gotoh.Pnlty{Open: 10, Wdn: 1}, Then: DfltNumeric(), Log: logger}
}

// Windows puts the sequence mapped window, if there is one, in front of
// the windows from Then.
func (sa *SeqAnchor) Windows(tgt *cmmn.Structure, chain string, ref *cmmn.Structure,
	refSel selection.Selection) []selection.Range {
	var ret []selection.Range
	w, err := sa.Map(tgt, chain, ref, refSel)
	if err == nil {
		ret = append(ret, w)
	} else if sa.Log != nil {
		sa.Log.Printf("%s chain %s: %v", tgt.Name(), chain, err)
	}
	if sa.Then != nil {
		for _, r := range sa.Then.Windows(tgt, chain, ref, refSel) {
			ret = appendNew(ret, r)
		}
	}
	return ret
}

// Map aligns the two chains and returns the target residue numbers
// matching the first and last aligned reference residues of the window.
func (sa *SeqAnchor) Map(tgt *cmmn.Structure, chain string, ref *cmmn.Structure,
	refSel selection.Selection) (selection.Range, error) {
	if refSel.Range.All() {
		return refSel.Range, nil
	}
	smat := sa.Matrix
	if smat == nil {
		var err error
		if smat, err = submat.Blosum62(); err != nil {
			return selection.Range{}, err
		}
	}
	refSeq, refNum := chainSeq(ref, refSel.Chain)
	tgtSeq, tgtNum := chainSeq(tgt, chain)
	if len(refSeq) == 0 || len(tgtSeq) == 0 {
		return selection.Range{}, fmt.Errorf("sequence anchor: %d reference and %d target residues", len(refSeq), len(tgtSeq))
	}
	al := gotoh.Al_score{Pnlty: sa.Pnlty, Al_type: gotoh.Global}
	pairlist, _ := gotoh.Align(smat.ScoreSeqs(refSeq, tgtSeq), &al)
	m := gotoh.Mapping(pairlist, len(refSeq))
	if sa.Log != nil {
		a, b := gotoh.Format(pairlist, refSeq, tgtSeq)
		sa.Log.Printf("%s chain %s sequence alignment\n%s\n%s", tgt.Name(), chain, a, b)
	}
	first, last := -1, -1
	for i, n := range refNum {
		if !refSel.Range.Contains(n) || m[i] == -1 {
			continue
		}
		if first == -1 {
			first = m[i]
		}
		last = m[i]
	}
	if first == -1 || tgtNum[first] > tgtNum[last] {
		return selection.Range{}, fmt.Errorf("sequence anchor: window %s does not map onto %s chain %s",
			refSel.Range, tgt.Name(), chain)
	}
	return selection.Range{Start: tgtNum[first], End: tgtNum[last]}, nil
}

// chainSeq is the one letter sequence of the C-alpha atoms in a chain
// and the residue number of each.
func chainSeq(s *cmmn.Structure, chain string) ([]byte, []int) {
	ndx := selection.CAlpha(chain, selection.AllResidues).Atoms(s)
	seq := make([]byte, len(ndx))
	num := make([]int, len(ndx))
	for i, j := range ndx {
		seq[i] = OneLetter(s.Atoms[j].ResName)
		num[i] = s.Atoms[j].ResNum
	}
	return seq, num
}

var oneLetter = map[string]byte{
	"ALA": 'A', "ARG": 'R', "ASN": 'N', "ASP": 'D', "CYS": 'C',
	"GLN": 'Q', "GLU": 'E', "GLY": 'G', "HIS": 'H', "ILE": 'I',
	"LEU": 'L', "LYS": 'K', "MET": 'M', "PHE": 'F', "PRO": 'P',
	"SER": 'S', "THR": 'T', "TRP": 'W', "TYR": 'Y', "VAL": 'V',
	"SEP": 'S', "TPO": 'T', "PTR": 'Y', "MSE": 'M', "CSO": 'C',
	"HIP": 'H', "HID": 'H', "HIE": 'H', "ASX": 'B', "GLX": 'Z',
}

// OneLetter is the amino acid code for a residue name, 'X' if unknown.
// Phosphorylated and other common modified residues get the code of
// their parent.
func OneLetter(resName string) byte {
	if c, ok := oneLetter[strings.ToUpper(resName)]; ok {
		return c
	}
	return 'X'
}

// NewStrategy builds a strategy by name, "numeric" or "sequence".
func NewStrategy(name string, numeric NumericWindows, logger *log.Logger) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "numeric":
		return numeric, nil
	case "sequence", "seq":
		sa := DfltSeqAnchor(logger)
		sa.Then = numeric
		return sa, nil
	}
	return nil, fmt.Errorf("region strategy %q is not numeric or sequence", name)
}
