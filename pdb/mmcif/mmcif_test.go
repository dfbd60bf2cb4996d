package mmcif_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/andrew-torda/lobec/brokenio"
	"github.com/andrew-torda/lobec/pdb/cmmn"
	. "github.com/andrew-torda/lobec/pdb/mmcif"
)

type twostring struct {
	in  string
	out string
}

const atomHdr = `loop_
_atom_site.group_PDB
_atom_site.id
_atom_site.type_symbol
_atom_site.label_atom_id
_atom_site.label_alt_id
_atom_site.label_comp_id
_atom_site.label_asym_id
_atom_site.label_entity_id
_atom_site.label_seq_id
_atom_site.pdbx_PDB_ins_code
_atom_site.Cartn_x
_atom_site.Cartn_y
_atom_site.Cartn_z
_atom_site.occupancy
_atom_site.B_iso_or_equiv
_atom_site.pdbx_formal_charge
_atom_site.auth_seq_id
_atom_site.auth_comp_id
_atom_site.auth_asym_id
_atom_site.auth_atom_id
_atom_site.pdbx_PDB_model_num
`

// Two chains, an alternate location, a modified residue, an ion, a
// water, a ligand with a quoted atom name and a second model.
const miniCif = `data_1TST
#
_entry.id 1TST
_cell.length_a 1
_struct.title 'A test structure'
#
loop_
_chem_comp.id
_chem_comp.type
_chem_comp.name
ALA 'L-peptide linking' ALANINE
HOH non-polymer WATER
#
` + atomHdr +
	`ATOM   1  N  N     . ALA A 1 1 ? 1.000 2.000 3.000 1.00 10.00 ? 10  ALA A N     1
ATOM   2  C  CA    . ALA A 1 1 ? 2.000 2.000 3.000 1.00 10.00 ? 10  ALA A CA    1
ATOM   3  C  CA    A GLY A 1 2 ? 3.800 2.000 3.000 0.50 10.00 ? 11  GLY A CA    1
ATOM   4  C  CA    B GLY A 1 2 ? 3.900 2.000 3.000 0.50 10.00 ? 11  GLY A CA    1
HETATM 5  C  CA    . TPO A 1 3 ? 7.600 2.000 3.000 1.00 10.00 ? 12  TPO A CA    1
ATOM   6  C  CA    . ALA B 1 1 ? 0.000 0.000 0.000 1.00 10.00 ? 10  ALA B CA    1
HETATM 7  MG MG    . MG  C 2 . ? 5.000 5.000 5.000 1.00 10.00 ? 301 MG  A MG    1
HETATM 8  O  O     . HOH D 3 . ? 9.000 9.000 9.000 1.00 10.00 ? 401 HOH A O     1
HETATM 9  C  "C5'" . ANP E 4 . ? 1.500 1.500 1.500 1.00 10.00 ? 501 ANP A "C5'" 1
ATOM   10 C  CA    . ALA A 1 1 ? 1.100 2.000 3.000 1.00 10.00 ? 10  ALA A CA    2
#
`

func readString(t *testing.T, s string, setup func(*MmcifReader)) (*MmcifData, error) {
	t.Helper()
	mr := NewMmcifReader(strings.NewReader(s))
	if setup != nil {
		setup(mr)
	}
	return mr.DoFile()
}

func TestMessyLine(t *testing.T) {
	// This is from 2a9w.cif.
	ss :=
		`GA9 non-polymer         . '3,3-BIS(3-BR-4-HYD)-7-CH-1H,3H-BEO[DE]ISO-1-ONE'
'4-CHL-3',3"-DIB-1,8-NAPHTH' 'C24 H13 Br2 Cl O4' 560.619
GLN 'L-peptide linking' y GLUTAMINE                                                                   ? 'C5 H10 N2 O3'
146.144
`
	answers := []int{4, 3, 6, 1}
	scnr := NewCmmtScanner(bytes.NewReader([]byte(ss)), '#')
	retIn := make([][]byte, 0, 40)
	ndx := 0
	for scnr.Cscan() && scnr.Cbytes() != nil {
		tt, err := SplitCifLine(scnr.Cbytes(), retIn)
		if err != nil {
			t.Error("Splitting messy string", err)
		}
		if len(tt) != answers[ndx] {
			t.Error("wrong number of entries, got", len(tt))
		}
		ndx++
	}
}

func TestTablesAndItems(t *testing.T) {
	md, err := readString(t, miniCif, func(mr *MmcifReader) {
		mr.AddTable([]string{"_chem_comp."})
		mr.AddItems([]string{"_cell.length_a", "_struct.title"})
	})
	if err != nil {
		t.Fatal(err)
	}
	if md.Data["_entry.id"] != "1TST" {
		t.Error("entry id, got", md.Data["_entry.id"])
	}
	if md.Data["_cell.length_a"] != "1" {
		t.Error("wrong value or not found: _cell.length_a")
	}
	if md.Data["_struct.title"] != "A test structure" {
		t.Errorf("title came back as %q", md.Data["_struct.title"])
	}
	tbl := md.Tables["_chem_comp"]
	if len(tbl.Names) != 3 || len(tbl.Vals) != 2 {
		t.Fatalf("chem_comp table has %d names %d rows", len(tbl.Names), len(tbl.Vals))
	}
	if tbl.Vals[0][1] != "L-peptide linking" {
		t.Error("quoted table value broken:", tbl.Vals[0][1])
	}
}

var filterData = []struct {
	chains   []string
	atoms    []string
	modelmax int16
	n        int
}{
	{nil, nil, 1, 9},
	{nil, nil, -1, 10},
	{nil, nil, 0, 0},
	{[]string{"B"}, nil, 1, 1},
	{[]string{"A"}, []string{"CA"}, 1, 4},
	{[]string{"A"}, []string{"CA"}, -1, 5},
	{nil, []string{"CA"}, 1, 5},
	{nil, []string{"C5'"}, 1, 1},
	{[]string{"Z"}, nil, -1, 0},
}

func TestFilters(t *testing.T) {
	for _, f := range filterData {
		md, err := readString(t, miniCif, func(mr *MmcifReader) {
			mr.SetChains(f.chains)
			mr.SetAtoms(f.atoms)
			mr.SetModelMax(f.modelmax)
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(md.Atoms) != f.n {
			t.Error("expected", f.n, "atoms got", len(md.Atoms), "chains", f.chains,
				"atoms", f.atoms, "modelmax", f.modelmax)
		}
	}
}

func TestAtomFields(t *testing.T) {
	md, err := readString(t, miniCif, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n := md.NAtomType("CA"); n != 5 {
		t.Error("wanted 5 CA, got", n)
	}
	a := md.Atoms[2]
	if a.Name != "CA" || a.ResName != "GLY" || a.ResNum != 11 || a.AltLoc != 'A' {
		t.Errorf("third atom wrong %+v", a)
	}
	if a.Occ != 0.5 || a.X != 3.8 {
		t.Errorf("numbers wrong %+v", a)
	}
	want := []cmmn.Category{cmmn.Polymer, cmmn.Polymer, cmmn.Polymer, cmmn.Polymer,
		cmmn.Polymer, cmmn.Polymer, cmmn.Inorganic, cmmn.Solvent, cmmn.Organic}
	for i, c := range want {
		if md.Atoms[i].Category != c {
			t.Errorf("atom %d (%s) category %v wanted %v", i, md.Atoms[i].ResName, md.Atoms[i].Category, c)
		}
	}
	if md.Atoms[8].Name != "C5'" {
		t.Error("quoted atom name came back as", md.Atoms[8].Name)
	}
	if md.Atoms[6].LabelSeq != cmmn.BrokenResNum {
		t.Error("dot in label_seq_id should give BrokenResNum")
	}
	s := md.Structure("", "1")
	if s.ID != "1TST" || s.Assembly != "1" || len(s.Atoms) != 9 {
		t.Errorf("structure %s %s %d", s.ID, s.Assembly, len(s.Atoms))
	}
}

// Read a file with columns in a non-standard place and no auth_ columns
func TestFunnyCol(t *testing.T) {
	const funny = `data_x
loop_
_atom_site.id
_atom_site.Cartn_x
_atom_site.Cartn_y
_atom_site.Cartn_z
_atom_site.label_atom_id
_atom_site.label_comp_id
_atom_site.label_asym_id
_atom_site.label_seq_id
1 27.27 25.549 -0.624 O GLY A 5
2 28.00 25.000 -1.000 CA GLY A 5
`
	md, err := readString(t, funny, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(md.Atoms) != 2 {
		t.Fatal("wanted 2 atoms, got", len(md.Atoms))
	}
	a := md.Atoms[0]
	if a.Name != "O" || a.Chain != "A" || a.ResNum != 5 || a.Group != "ATOM" {
		t.Errorf("label columns not used %+v", a)
	}
	if a.X != 27.27 || a.Y != 25.549 || a.Z != -0.624 {
		t.Error("Wrong xyz value", a.Xyz)
	}
}

func TestErrors(t *testing.T) {
	line := func(s string) string { return "data_e\n" + atomHdr + s + "\n" }
	var files = []struct {
		name, content, emsg string
	}{
		{"empty", "", "zero length"},
		{"brokeny", line("ATOM 1 C CA . ALA A 1 1 ? 1.0 abc 3.0 1.00 10.00 ? 10 ALA A CA 1"), "coordinates"},
		{"broken_resnum", line("ATOM 1 C CA . ALA A 1 1 ? 1.0 2.0 3.0 1.00 10.00 ? 1x ALA A CA 1"), "residue number"},
		{"rubbish", "hello world\n", "Unknown"},
		{"shortline", line("ATOM 1 C CA . ALA A 1 1 ? 1.0 2.0 3.0"), "Too few"},
		{"inscode", line("ATOM 1 C CA . ALA A 1 1 AB 1.0 2.0 3.0 1.00 10.00 ? 10 ALA A CA 1"), "insertion code length"},
		{"nocoords", "data_e\nloop_\n_atom_site.id\n_atom_site.label_atom_id\n1 CA\n", "Could not find atomsite column"},
		{"unterminated", "data_e\n_struct.title 'no end\n", "unterminated quote"},
	}
	for _, f := range files {
		_, err := readString(t, f.content, nil)
		if err == nil {
			t.Error("should have error on file", f.name)
			continue
		}
		if !strings.Contains(err.Error(), f.emsg) {
			t.Error(err, "file", f.name)
		}
		if !strings.Contains(err.Error(), "parsing") {
			t.Error("error does not say it was parsing", err)
		}
	}
}

func TestBrokenReader(t *testing.T) {
	rdr := brokenio.NewReader(io.NopCloser(strings.NewReader(miniCif)))
	rdr.SetFailAfter(300)
	if _, err := NewMmcifReader(rdr).DoFile(); err == nil {
		t.Error("read error was lost")
	}
	rdr = brokenio.NewReader(io.NopCloser(strings.NewReader(miniCif)))
	rdr.SetProbZeroFile(1)
	if _, err := NewMmcifReader(rdr).DoFile(); err == nil {
		t.Error("zero length file should be an error")
	}
}

func TestRoundTrip(t *testing.T) {
	md, err := readString(t, miniCif, nil)
	if err != nil {
		t.Fatal(err)
	}
	s1 := md.Structure("", "")
	var buf bytes.Buffer
	if err := Write(&buf, s1); err != nil {
		t.Fatal(err)
	}
	md2, err := readString(t, buf.String(), nil)
	if err != nil {
		t.Fatal(err, "\n", buf.String())
	}
	s2 := md2.Structure("", "")
	if s2.ID != s1.ID {
		t.Error("id lost", s2.ID)
	}
	if len(s2.Atoms) != len(s1.Atoms) {
		t.Fatalf("wrote %d atoms read back %d", len(s1.Atoms), len(s2.Atoms))
	}
	for i := range s1.Atoms {
		a, b := s1.Atoms[i], s2.Atoms[i]
		if a.Name != b.Name || a.Chain != b.Chain || a.ResNum != b.ResNum ||
			a.AltLoc != b.AltLoc || a.Category != b.Category || a.Xyz != b.Xyz {
			t.Errorf("atom %d changed\n%+v\n%+v", i, a, b)
		}
	}
}

func TestQuoteCif(t *testing.T) {
	var ss = []twostring{
		{"CA", "CA"},
		{"", "?"},
		{"C5'", "\"C5'\""},
		{"two words", "'two words'"},
		{"_x", "'_x'"},
	}
	for _, x := range ss {
		if got := QuoteCif(x.in); got != x.out {
			t.Errorf("quoting %q wanted %q got %q", x.in, x.out, got)
		}
	}
}

func TestCmmtscanner(t *testing.T) {
	var ss = []twostring{
		{"some words", "some words"},
		{"#beforecomment#after", ""},
		{"with'quote", "with'quote"},
		{"#hash'#inquote", ""},
		{"hash'#inquote'before#after", "hash'#inquote'before#after"},
		{"ab\"#keep", "ab\"#keep"},
		{"ab\"#keep\"c#", "ab\"#keep\"c#"},
		{"", ""},
	}
	for _, x := range ss {
		scnr := NewCmmtScanner(bytes.NewReader([]byte(x.in)), '#')
		scnr.Cscan()
		b := scnr.Cbytes()
		if string(b) != x.out {
			t.Errorf("Expected\"%s\" got \"%s\"\n", x.out, string(b))
		}
	}
}

type sb []string
type strSlice struct {
	in  string
	out sb
}

func TestSplitCifLine(t *testing.T) {
	var ss = []strSlice{
		{"", sb{""}},
		{"a\"b\"", sb{"a\"b\""}},
		{`b"b"b"b`, sb{"b\"b\"b\"b"}},
		{`b"b"b"b"`, sb{"b\"b\"b\"b\""}},
		{"a b c ", sb{"a", "b", "c"}},
		{"c", sb{"c"}},
		{`aa'aa`, sb{"aa'aa"}},
	}
	scratch := make([][]byte, 3)

	for _, x := range ss {
		tt, err := SplitCifLine([]byte(x.in), scratch)
		if err != nil {
			t.Errorf("Splitting x.in gave error %s\n", err)
		}
		for i, tOut := range tt {
			if string(tOut) != x.out[i] {
				t.Errorf("Splitting <%s> broken, got <%s>", x.in, string(tOut))
			}
		}
	}
}

func TestSplitCifLine2(t *testing.T) {
	ss := `#This is my test string.
word1 word2
"word1"  	word2
"word1"word2
word1 "word2"
# and a comment in the middle of the file
# and the next should give us errors
   word1 word2

`
	scnr := NewCmmtScanner(bytes.NewReader([]byte(ss)), '#')
	var n_ok, n_broken int
	scratch := make([][]byte, 0)
	for scnr.Cscan() && scnr.Cbytes() != nil {
		tt, err := SplitCifLine(scnr.Cbytes(), scratch)
		if err != nil {
			n_broken++
		} else {
			n_ok++
			if len(tt) != 2 {
				t.Errorf("\"%s\" want %d items, got %d", string(scnr.Bytes()), 2, len(tt))
			}
			if string(tt[0]) != "word1" || string(tt[1]) != "word2" {
				t.Errorf("string \"%s\" not broken down correctly", string(scnr.Bytes()))
			}
		}
		scratch = scratch[:0]
	}
	if n_broken != 1 {
		t.Errorf("Expected one error, got %d\n", n_broken)
	}
}

// TestBroken checks that we do get an error on silly strings.
func TestBroken(t *testing.T) {
	ss := []string{
		`'word1'"word2"`,
		`word1 "word2`,
	}
	scratch := make([][]byte, 0)
	for _, s := range ss {
		_, err := SplitCifLine([]byte(s), scratch)
		if err == nil {
			t.Error("Expected an error on string", s)
		}
	}
}

func TestFields(t *testing.T) {
	type ftest struct {
		s string
		a []string
	}
	var tests = []ftest{
		{" 1", []string{"1"}},
		{"", []string{}},
		{" ", []string{}},
		{"1", []string{"1"}},
		{" 1 ", []string{"1"}},
		{"1 2", []string{"1", "2"}},
		{"1   2    ", []string{"1", "2"}},
		{"12 34 ", []string{"12", "34"}},
		{"1  2 3 4 ", []string{"1", "2", "3", "4"}},
		{"ATOM 1805  O O    . GLY A 1 10 ? -16.616 0.276   -4.686  1.00 0.00 ?  299 GLY A O    2",
			[]string{"ATOM", "1805", "O", "O", ".", "GLY", "A", "1", "10", "?", "-16.616", "0.276", "-4.686", "1.00", "0.00", "?", "299", "GLY", "A", "O", "2"}},
	}

	for _, tt := range tests {
		var scrtch [40]BSlice
		ret := Fields([]byte(tt.s), scrtch[:])
		if len(ret) != len(tt.a) {
			t.Errorf("Wanted %d fields, got %d, string '%s'", len(tt.a), len(ret), tt.s)
		}
		for i, a := range tt.a {
			if i < len(ret) && string(ret[i]) != a {
				t.Errorf("fields mismatch want '%s' got '%s'", tt.a[i], ret[i])
			}
		}
	}
}

func TestFieldsLong(t *testing.T) {
	const small = 5
	var scrtch [small]BSlice
	in := BSlice(" 1 2 3 4 5 6 7 8 9 0 ")
	out := Fields(in, scrtch[:])
	if len(out) != small {
		t.Error("Problem when scratch array is too small")
	}
}
