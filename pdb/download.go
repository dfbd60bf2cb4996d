package pdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andrew-torda/lobec/pdb/cmmn"
	"github.com/andrew-torda/lobec/pdb/zwrap"
)

// Mirror is one site we can fetch structures from. Base and Suffix go
// either side of the file stem, {ID}-assembly{N} or just {ID}.
type Mirror struct {
	Base   string
	Suffix string
}

// DfltMirrors are the sites tried, in order. Sites return normal or
// gzipped data, and we look at the contents rather than the suffix.
var DfltMirrors = []Mirror{
	{"https://files.rcsb.org/download/", ".cif.gz"},
	{"https://files.rcsb.org/download/", ".cif"},
}

// NotFoundError says a structure was neither in the cache nor on any mirror.
type NotFoundError struct {
	ID       string
	Assembly string
	Tried    []string // cache paths and urls with what went wrong
}

func (e *NotFoundError) Error() string {
	s := e.ID
	if e.Assembly != "" && e.Assembly != "0" {
		s += " assembly " + e.Assembly
	}
	return fmt.Sprintf("%s not found (tried %s)", s, strings.Join(e.Tried, "; "))
}

// Store gets structures by accession and assembly. It looks in
// CacheDir first, then asks each mirror in turn. Anything fetched is
// written to the cache.
type Store struct {
	CacheDir string
	Mirrors  []Mirror
	Client   *http.Client
	Log      *log.Logger
}

// NewStore makes a Store with the default mirrors and an http client
// with the given timeout.
func NewStore(cacheDir string, timeout time.Duration, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Store{
		CacheDir: cacheDir,
		Mirrors:  DfltMirrors,
		Client:   &http.Client{Timeout: timeout},
		Log:      logger,
	}
}

// stem is the file name without suffix. Assembly "" or "0" means the
// deposited entry.
func stem(id, assembly string) string {
	if assembly == "" || assembly == "0" {
		return id
	}
	return id + "-assembly" + assembly
}

// cacheNames lists the places a structure might be in the cache.
func (st *Store) cacheNames(id, assembly string) []string {
	var ret []string
	for _, i := range []string{id, strings.ToLower(id)} {
		for _, sfx := range []string{".cif", ".cif.gz"} {
			ret = append(ret, filepath.Join(st.CacheDir, stem(i, assembly)+sfx))
		}
	}
	return ret
}

// CachePath is where a fetched structure is written.
func (st *Store) CachePath(id, assembly string, gzipped bool) string {
	sfx := ".cif"
	if gzipped {
		sfx = ".cif.gz"
	}
	return filepath.Join(st.CacheDir, stem(strings.ToUpper(id), assembly)+sfx)
}

// Load returns a structure with its solvent stripped. The accession is
// upper-cased. A parse error of a file we did find is returned as it
// is, and not as NotFoundError.
func (st *Store) Load(ctx context.Context, id, assembly string) (*cmmn.Structure, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if id == "" {
		return nil, errors.New("empty accession")
	}
	nf := &NotFoundError{ID: id, Assembly: assembly}
	if st.CacheDir != "" {
		for _, path := range st.cacheNames(id, assembly) {
			if _, err := os.Stat(path); err != nil {
				nf.Tried = append(nf.Tried, path)
				continue
			}
			st.Log.Println("cache hit", path)
			s, err := LoadLocal(path)
			if err != nil {
				return nil, err
			}
			s.ID, s.Assembly = id, assembly
			return s, nil
		}
	}
	payload, err := st.fetch(ctx, id, assembly, nf)
	if err != nil {
		return nil, err
	}
	if st.CacheDir != "" {
		if err := st.save(id, assembly, payload); err != nil {
			st.Log.Println("not cached:", err)
		}
	}
	return ReadStructure(bytes.NewReader(payload), id, assembly)
}

// fetch tries each mirror in turn and returns the raw payload of the
// first that answers 200.
func (st *Store) fetch(ctx context.Context, id, assembly string, nf *NotFoundError) ([]byte, error) {
	client := st.Client
	if client == nil {
		client = http.DefaultClient
	}
	for _, m := range st.Mirrors {
		url := m.Base + stem(id, assembly) + m.Suffix
		b, err := getHTTP(ctx, client, url)
		if err == nil {
			st.Log.Println("fetched", url, len(b), "bytes")
			return b, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		st.Log.Println(err)
		nf.Tried = append(nf.Tried, err.Error())
	}
	return nil, nf
}

// getHTTP gets the whole body from url. Anything but 200 is an error.
func getHTTP(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %s", url, resp.Status)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%s: empty reply", url)
	}
	return b, nil
}

// save writes a payload into the cache. It goes to a temporary file
// first so a half written file never looks like a cache entry.
func (st *Store) save(id, assembly string, payload []byte) error {
	if err := os.MkdirAll(st.CacheDir, 0o755); err != nil {
		return err
	}
	path := st.CachePath(id, assembly, zwrap.IsGzip(payload))
	tmp, err := os.CreateTemp(st.CacheDir, ".part-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
