// Package results writes one row per structure and the summary at the
// end of a run.
package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"

	"github.com/andrew-torda/lobec/pkg/quality"
	"github.com/andrew-torda/lobec/pkg/selection"
)

// DfltFile is where the table goes unless told otherwise.
const DfltFile = "superposition_results.csv"

// Header is the column list. Extended tables add ExtraHeader.
var (
	Header      = []string{"PDB_ID", "Chain", "N_CA_aligned", "RMSD", "Status"}
	ExtraHeader = []string{"Range", "Note"}
)

// Record is the outcome for one structure.
type Record struct {
	ID       string
	Chain    string
	NAligned int
	RMSD     float64 // NaN if there is none
	Tier     quality.Tier
	Range    selection.Range
	Note     string
	Err      error
}

// ErrorRecord is the row for a structure that could not be done.
func ErrorRecord(id string, err error) Record {
	return Record{ID: id, Chain: "ERROR", RMSD: math.NaN(), Tier: quality.Error, Err: err}
}

// RMSDText is the rmsd to two places or N/A.
func (r *Record) RMSDText() string {
	if math.IsNaN(r.RMSD) || r.Err != nil {
		return "N/A"
	}
	return strconv.FormatFloat(r.RMSD, 'f', 2, 64)
}

func (r *Record) rangeText() string {
	if r.Err != nil {
		return ""
	}
	return r.Range.String()
}

func (r *Record) noteText() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return r.Note
}

// Writer puts records into a csv table. The header is written with the
// first record, or by Close if there were none.
type Writer struct {
	csv      *csv.Writer
	extended bool
	started  bool
}

// NewWriter with extended set adds the Range and Note columns.
func NewWriter(w io.Writer, extended bool) *Writer {
	return &Writer{csv: csv.NewWriter(w), extended: extended}
}

func (w *Writer) header() error {
	if w.started {
		return nil
	}
	w.started = true
	hdr := Header
	if w.extended {
		hdr = append(append([]string(nil), Header...), ExtraHeader...)
	}
	return w.csv.Write(hdr)
}

// Write adds one row.
func (w *Writer) Write(r Record) error {
	if err := w.header(); err != nil {
		return err
	}
	row := []string{r.ID, r.Chain, strconv.Itoa(r.NAligned), r.RMSDText(), r.Tier.String()}
	if w.extended {
		row = append(row, r.rangeText(), r.noteText())
	}
	return w.csv.Write(row)
}

// Close writes the header if nothing else was written and flushes.
func (w *Writer) Close() error {
	if err := w.header(); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Summary counts what happened in a run.
type Summary struct {
	RunID     string
	Counts    quality.Counts
	Processed int
	Skipped   int // manifest rows that could not be used
}

// Add counts one record.
func (s *Summary) Add(r Record) {
	s.Processed++
	s.Counts.Add(r.Tier)
}

// Print writes the summary as a small table.
func (s *Summary) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 3, ' ', 0)
	fmt.Fprintf(tw, "run\t%s\n", s.RunID)
	for _, t := range quality.Tiers {
		fmt.Fprintf(tw, "%s\t%d\n", t, s.Counts[t])
	}
	fmt.Fprintf(tw, "processed\t%d\n", s.Processed)
	fmt.Fprintf(tw, "skipped\t%d\n", s.Skipped)
	return tw.Flush()
}
