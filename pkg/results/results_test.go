package results_test

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/andrew-torda/lobec/pkg/quality"
	. "github.com/andrew-torda/lobec/pkg/results"
	"github.com/andrew-torda/lobec/pkg/selection"
)

func records() []Record {
	return []Record{
		{ID: "4WB8", Chain: "A", NAligned: 224, RMSD: 0, Tier: quality.Excellent,
			Range: selection.Range{Start: 127, End: 350}},
		{ID: "1ATP", Chain: "E", NAligned: 60, RMSD: 2.456, Tier: quality.Good,
			Range: selection.Range{Start: 140, End: 300}, Note: "search 140-300 score 1.85"},
		ErrorRecord("9XXX", errors.New("not found")),
	}
}

func TestWrite(t *testing.T) {
	var b bytes.Buffer
	w := NewWriter(&b, false)
	for _, r := range records() {
		if err := w.Write(r); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	want := `PDB_ID,Chain,N_CA_aligned,RMSD,Status
4WB8,A,224,0.00,EXCELLENT
1ATP,E,60,2.46,GOOD
9XXX,ERROR,0,N/A,ERROR
`
	if b.String() != want {
		t.Errorf("got\n%s\nwanted\n%s", b.String(), want)
	}
}

func TestExtended(t *testing.T) {
	var b bytes.Buffer
	w := NewWriter(&b, true)
	for _, r := range records() {
		if err := w.Write(r); err != nil {
			t.Fatal(err)
		}
	}
	w.Close()
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if lines[0] != "PDB_ID,Chain,N_CA_aligned,RMSD,Status,Range,Note" {
		t.Error(lines[0])
	}
	if lines[2] != "1ATP,E,60,2.46,GOOD,140-300,search 140-300 score 1.85" {
		t.Error(lines[2])
	}
	if lines[3] != "9XXX,ERROR,0,N/A,ERROR,,not found" {
		t.Error(lines[3])
	}
}

func TestEmptyTable(t *testing.T) {
	var b bytes.Buffer
	if err := NewWriter(&b, false).Close(); err != nil {
		t.Fatal(err)
	}
	if b.String() != "PDB_ID,Chain,N_CA_aligned,RMSD,Status\n" {
		t.Error(b.String())
	}
}

func TestRMSDText(t *testing.T) {
	r := Record{RMSD: math.NaN()}
	if r.RMSDText() != "N/A" {
		t.Error(r.RMSDText())
	}
	r.RMSD = 1.005
	if got := r.RMSDText(); got != "1.00" && got != "1.01" {
		t.Error(got)
	}
}

func TestSummary(t *testing.T) {
	s := Summary{RunID: "abc", Skipped: 2}
	for _, r := range records() {
		s.Add(r)
	}
	var b bytes.Buffer
	if err := s.Print(&b); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	for _, want := range []string{"run", "abc", "EXCELLENT   1", "GOOD        1", "HIGH_RMSD   0", "ERROR       1", "processed   3", "skipped     2"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in\n%s", want, out)
		}
	}
}
