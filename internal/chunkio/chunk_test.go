package chunkio

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/deepteams/sixel/internal/status"
)

func TestNew_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	want := []byte("hello sixel world")
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(path, false, nil, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if string(c.Bytes()) != string(want) {
		t.Errorf("Bytes = %q, want %q", c.Bytes(), want)
	}
}

func TestNew_GrowsAcrossMultipleReads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.bin")
	want := make([]byte, 200*1024)
	for i := range want {
		want[i] = byte(i)
	}
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(path, false, nil, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Len() != len(want) {
		t.Fatalf("Len = %d, want %d", c.Len(), len(want))
	}
	for i, b := range c.Bytes() {
		if b != want[i] {
			t.Fatalf("byte %d = %d, want %d", i, b, want[i])
		}
	}
}

func TestNew_DirectoryIsBadInput(t *testing.T) {
	dir := t.TempDir()
	_, err := New(dir, false, nil, nil, nil)
	se, ok := err.(*status.Error)
	if !ok || se.Code != status.BadInput {
		t.Fatalf("New(dir) error = %v, want BadInput", err)
	}
}

func TestNew_MissingFileIsLibcError(t *testing.T) {
	_, err := New("/nonexistent/path/does-not-exist", false, nil, nil, nil)
	se, ok := err.(*status.Error)
	if !ok || se.Code != status.LibcError {
		t.Fatalf("New(missing) error = %v, want LibcError", err)
	}
}

func TestNew_URLDelegatesToFetcher(t *testing.T) {
	_, err := New("http://example.invalid/image.six", false, nil, nil, NotImplementedFetcher{})
	se, ok := err.(*status.Error)
	if !ok || se.Code != status.NotImplemented {
		t.Fatalf("New(url) with NotImplementedFetcher = %v, want NotImplemented", err)
	}
}

func TestNew_CancelFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(path, make([]byte, 64*1024), 0o644); err != nil {
		t.Fatal(err)
	}
	var cancel atomic.Int32
	cancel.Store(1)
	_, err := New(path, false, &cancel, nil, nil)
	se, ok := err.(*status.Error)
	if !ok || se.Code != status.Interrupted {
		t.Fatalf("New with pre-set cancel = %v, want Interrupted", err)
	}
}
