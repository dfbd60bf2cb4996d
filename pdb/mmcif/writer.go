package mmcif

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/andrew-torda/lobec/pdb/cmmn"
)

// Columns written to atom_site. The order is the one the PDB uses, so
// the reader takes the fast path when it sees our own files.
var wrtCols = []string{
	"group_PDB", "id", "type_symbol", "label_atom_id", "label_alt_id",
	"label_comp_id", "label_asym_id", "label_entity_id", "label_seq_id",
	"pdbx_PDB_ins_code", "Cartn_x", "Cartn_y", "Cartn_z", "occupancy",
	"B_iso_or_equiv", "pdbx_formal_charge", "auth_seq_id", "auth_comp_id",
	"auth_asym_id", "auth_atom_id", "pdbx_PDB_model_num",
}

// dotIf returns "." for a missing value, otherwise the quoted value.
func dotIf(v string) string {
	if v == "" {
		return "."
	}
	return quoteCif(v)
}

func seqStr(n int) string {
	if n == cmmn.BrokenResNum {
		return "."
	}
	return strconv.Itoa(n)
}

func byteStr(b byte, missing string) string {
	if b == 0 || b == ' ' {
		return missing
	}
	return string(b)
}

// Write puts a structure out as a small mmcif file: a data block named
// after the structure and one atom_site loop with every atom.
// We do not have label_asym_id, so the author chain goes in both places.
func Write(w io.Writer, s *cmmn.Structure) error {
	bw := bufio.NewWriter(w)
	name := s.ID
	if name == "" {
		name = "unnamed"
	}
	fmt.Fprintf(bw, "data_%s\n#\n_entry.id %s\n#\n", name, quoteCif(name))
	if len(s.Atoms) > 0 {
		fmt.Fprintln(bw, "loop_")
		for _, c := range wrtCols {
			fmt.Fprintf(bw, "_atom_site.%s\n", c)
		}
	}
	for i := range s.Atoms {
		a := &s.Atoms[i]
		serial := a.Serial
		if serial == 0 {
			serial = i + 1
		}
		mdl := a.MdlNum
		if mdl == 0 {
			mdl = 1
		}
		group := a.Group
		if group == "" {
			group = "ATOM"
		}
		_, err := fmt.Fprintf(bw,
			"%-6s %d %s %s %s %s %s %s %s %s %.3f %.3f %.3f %.2f %.2f ? %s %s %s %s %d\n",
			group, serial, dotIf(a.Element), quoteCif(a.Name),
			byteStr(a.AltLoc, "."), quoteCif(a.ResName), quoteCif(a.Chain),
			dotIf(a.Entity), seqStr(a.LabelSeq), byteStr(a.InsCode, "?"),
			a.X, a.Y, a.Z, a.Occ, a.BFac,
			seqStr(a.ResNum), quoteCif(a.ResName), quoteCif(a.Chain),
			quoteCif(a.Name), mdl)
		if err != nil {
			return fmt.Errorf("writing atom %d of %s: %w", serial, name, err)
		}
	}
	fmt.Fprintln(bw, "#")
	return bw.Flush()
}
