package common_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/andrew-torda/lobec/pkg/common"
)

func TestWrtTemp(t *testing.T) {
	name, err := common.WrtTemp("hello\n")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(name)
	b, err := os.ReadFile(name)
	if err != nil || string(b) != "hello\n" {
		t.Error("read back", string(b), err)
	}
}

func TestCreateIn(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	fp, err := common.CreateIn(dir, "x.csv")
	if err != nil {
		t.Fatal(err)
	}
	fp.Close()
	if _, err := os.Stat(filepath.Join(dir, "x.csv")); err != nil {
		t.Error(err)
	}
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := common.CreateIn(filepath.Join(blocker, "sub"), "x"); err == nil {
		t.Error("directory under a file should fail")
	}
}
