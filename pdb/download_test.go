package pdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	. "github.com/andrew-torda/lobec/pdb"
)

// newServer serves smallCif gzipped for 1ABC-assembly1 and 404 for
// everything else. It counts the requests it sees.
func newServer(t *testing.T) (*httptest.Server, *int32) {
	var n int32
	payload := gz(t, smallCif())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&n, 1)
		if r.URL.Path != "/download/1ABC-assembly1.cif.gz" {
			http.NotFound(w, r)
			return
		}
		w.Write(payload)
	}))
	t.Cleanup(srv.Close)
	return srv, &n
}

func testStore(t *testing.T, srv *httptest.Server) *Store {
	st := NewStore(t.TempDir(), 0, nil)
	st.Mirrors = []Mirror{{srv.URL + "/download/", ".cif.gz"}}
	st.Client = srv.Client()
	return st
}

func TestStem(t *testing.T) {
	if s := Stem("4WB8", "1"); s != "4WB8-assembly1" {
		t.Error(s)
	}
	for _, asm := range []string{"", "0"} {
		if s := Stem("4WB8", asm); s != "4WB8" {
			t.Error(s)
		}
	}
}

func TestStoreFetchThenCache(t *testing.T) {
	srv, n := newServer(t)
	st := testStore(t, srv)
	ctx := context.Background()
	s, err := st.Load(ctx, "1abc", "1")
	if err != nil {
		t.Fatal(err)
	}
	if s.Name() != "1ABC-assembly1" || len(s.Atoms) != 10 {
		t.Errorf("fetched %s with %d atoms", s.Name(), len(s.Atoms))
	}
	cached := st.CachePath("1ABC", "1", true)
	if _, err := os.Stat(cached); err != nil {
		t.Fatal("fetched file was not cached", err)
	}
	if *n != 1 {
		t.Error("wanted one request, got", *n)
	}
	s, err = st.Load(ctx, "1ABC", "1")
	if err != nil {
		t.Fatal(err)
	}
	if *n != 1 {
		t.Error("second load went to the server")
	}
	if s.Name() != "1ABC-assembly1" {
		t.Error("name from the cache is", s.Name())
	}
	left, _ := filepath.Glob(filepath.Join(st.CacheDir, ".part-*"))
	if len(left) != 0 {
		t.Error("temporary files left behind", left)
	}
}

func TestStoreCacheOnly(t *testing.T) {
	st := NewStore(t.TempDir(), 0, nil)
	st.Mirrors = nil
	os.WriteFile(filepath.Join(st.CacheDir, "1abc-assembly3.cif"), []byte(smallCif()), 0o644)
	s, err := st.Load(context.Background(), "1ABC", "3")
	if err != nil {
		t.Fatal(err)
	}
	if s.Name() != "1ABC-assembly3" {
		t.Error("wrong name", s.Name())
	}
}

func TestStoreNotFound(t *testing.T) {
	srv, _ := newServer(t)
	st := testStore(t, srv)
	st.Mirrors = append(st.Mirrors, Mirror{srv.URL + "/other/", ".cif"})
	_, err := st.Load(context.Background(), "9ZZZ", "1")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("wanted NotFoundError, got %v", err)
	}
	if nf.ID != "9ZZZ" || nf.Assembly != "1" {
		t.Error("error has wrong names", nf)
	}
	if len(nf.Tried) != 6 { // four cache names and two mirrors
		t.Errorf("tried %d places: %v", len(nf.Tried), nf.Tried)
	}
	if !strings.Contains(err.Error(), "404") {
		t.Error("status not reported", err)
	}
}

func TestStoreBrokenPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a structure\n"))
	}))
	defer srv.Close()
	st := testStore(t, srv)
	_, err := st.Load(context.Background(), "1ABC", "1")
	if err == nil {
		t.Fatal("rubbish payload should not parse")
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		t.Error("parse error reported as not found")
	}
}

func TestStoreCancelled(t *testing.T) {
	srv, _ := newServer(t)
	st := testStore(t, srv)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := st.Load(ctx, "1ABC", "1"); !errors.Is(err, context.Canceled) {
		t.Error("wanted context.Canceled, got", err)
	}
}

func TestStoreEmptyID(t *testing.T) {
	st := NewStore("", 0, nil)
	if _, err := st.Load(context.Background(), "  ", "1"); err == nil {
		t.Error("empty id should fail")
	}
}
