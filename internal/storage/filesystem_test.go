package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAndResolve(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	key, err := store.Write(context.Background(), "rendered/videos/job-1/video.mp4", []byte("bytes"))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if key != "rendered/videos/job-1/video.mp4" {
		t.Fatalf("Write() key = %q", key)
	}

	path, err := store.Resolve(key)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(data) != "bytes" {
		t.Fatalf("stored data = %q", data)
	}
}

func TestSanitizeKeyRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	for _, key := range []string{"", "..", "../etc/passwd", "a/../../b"} {
		if _, err := store.Write(context.Background(), key, []byte("x")); err == nil {
			t.Fatalf("Write(%q) expected error", key)
		}
	}

	// leading slash and backslashes are normalized, not rejected
	key, err := store.Write(context.Background(), "/windows\\style\\key.bin", []byte("x"))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if filepath.IsAbs(key) {
		t.Fatalf("key %q should be relative", key)
	}
}
