// Package manifest reads the list of structures to process. This is a
// custom report from the RCSB: maybe a line naming the report, then a
// header row, then one row per polymer instance.
package manifest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Column names we need. Alternatives are tried in order.
var (
	idCols       = []string{"PDB ID", "Entry ID"}
	assemblyCols = []string{"Assembly ID"}
	chainCols    = []string{"Auth Asym ID"}
)

// ErrNoHeader means no row had a "PDB ID" column.
var ErrNoHeader = errors.New("manifest: no header row with a PDB ID column")

// Entry is one structure to superpose.
type Entry struct {
	Line     int // line in the file, for messages
	ID       string
	Assembly string
	Chain    string
}

func (e Entry) String() string {
	return fmt.Sprintf("%s assembly %s chain %s", e.ID, e.Assembly, e.Chain)
}

// Manifest is the usable rows and a count of those we could not use.
type Manifest struct {
	Entries []Entry
	Skipped int
}

func findCol(header []string, names []string) int {
	for _, n := range names {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), n) {
				return i
			}
		}
	}
	return -1
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// Read finds the header row and collects every row with an id, an
// assembly and a chain. Rows missing one of these are counted in
// Skipped. Ids are upper cased. Chain names are case sensitive and
// kept as they are.
func Read(r io.Reader) (*Manifest, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var idCol, asmCol, chainCol int
	var m Manifest
	inData := false
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("manifest: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if !inData {
			if idCol = findCol(rec, idCols); idCol == -1 {
				continue
			}
			asmCol, chainCol = findCol(rec, assemblyCols), findCol(rec, chainCols)
			if asmCol == -1 || chainCol == -1 {
				return nil, fmt.Errorf("manifest: header on line %d needs Assembly ID and Auth Asym ID", line)
			}
			inData = true
			continue
		}
		e := Entry{
			Line:     line,
			ID:       strings.ToUpper(field(rec, idCol)),
			Assembly: field(rec, asmCol),
			Chain:    field(rec, chainCol),
		}
		if e.ID == "" || e.Assembly == "" || e.Chain == "" {
			m.Skipped++
			continue
		}
		m.Entries = append(m.Entries, e)
	}
	if !inData {
		return nil, ErrNoHeader
	}
	return &m, nil
}

// ReadFile is Read on a named file.
func ReadFile(path string) (*Manifest, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	defer fp.Close()
	return Read(fp)
}
