// Package pdb is the upper level for getting structures. It decides if
// a file is compressed, calls the mmcif reader and hands back a
// cmmn.Structure with the solvent removed. Store (download.go) adds a
// cache and the protein data bank mirrors on top.
package pdb

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/andrew-torda/lobec/pdb/cmmn"
	"github.com/andrew-torda/lobec/pdb/mmcif"
	"github.com/andrew-torda/lobec/pdb/zwrap"
	"github.com/edsrzf/mmap-go"
)

// NewLogger decides where to send debugging output.
// "" means throw it away, "stdout" is standard output and anything
// else is a file we append to.
func NewLogger(outinfo string) (*log.Logger, error) {
	var iowriter io.Writer
	switch outinfo {
	case "":
		iowriter = io.Discard
	case "stdout":
		iowriter = os.Stdout
	default:
		var err error
		iowriter, err = os.OpenFile(outinfo, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("creating log file: %w", err)
		}
	}
	return log.New(iowriter, "", log.Lshortfile), nil
}

// ReadStructure parses mmcif from r, which may be gzipped, keeps the
// first model and strips the solvent. If id is empty, the name comes
// from _entry.id in the file.
func ReadStructure(r io.Reader, id, assembly string) (*cmmn.Structure, error) {
	rc, err := zwrap.WrapMaybe(io.NopCloser(r))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", id, err)
	}
	defer rc.Close()
	mr := mmcif.NewMmcifReader(rc)
	md, err := mr.DoFile()
	if err != nil {
		return nil, err
	}
	s := md.Structure(id, assembly)
	s.StripSolvent()
	return s, nil
}

// idFromPath guesses the accession and assembly from a file name like
// 4wb8-assembly1.cif.gz. Anything else gives an empty id, so the
// caller falls back to _entry.id.
func idFromPath(path string) (id, assembly string) {
	s := filepath.Base(path)
	if i := strings.IndexByte(s, '.'); i != -1 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, "_aligned")
	if i := strings.Index(s, "-assembly"); i != -1 {
		return strings.ToUpper(s[:i]), s[i+len("-assembly"):]
	}
	if len(s) == 4 {
		return strings.ToUpper(s), ""
	}
	return "", ""
}

// LoadLocal reads a structure file by memory mapping it. Compression is
// recognised from the contents, not the name.
func LoadLocal(path string) (*cmmn.Structure, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	info, err := fp.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	id, asm := idFromPath(path)
	if info.Size() == 0 { // cannot map nothing, let the parser complain
		return loadErr(path)(ReadStructure(bytes.NewReader(nil), id, asm))
	}
	mm, err := mmap.Map(fp, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mapping %s: %w", path, err)
	}
	defer mm.Unmap()
	rdr, err := zwrap.FromBytes(mm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return loadErr(path)(ReadStructure(rdr, id, asm))
}

// loadErr puts the file name on a parse error.
func loadErr(path string) func(*cmmn.Structure, error) (*cmmn.Structure, error) {
	return func(s *cmmn.Structure, err error) (*cmmn.Structure, error) {
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return s, nil
	}
}

// WriteFile writes a structure as mmcif to path.
func WriteFile(path string, s *cmmn.Structure) error {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := mmcif.Write(fp, s); err != nil {
		fp.Close()
		return err
	}
	return fp.Close()
}
