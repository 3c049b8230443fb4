package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStorageSaveAndDelete(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(root, "uploads")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	obj, err := s.Save(ctx, FolderPlaceImages, "png", "image/png", []byte("data"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(obj.Path, FolderPlaceImages+"/") || !strings.HasSuffix(obj.Path, ".png") {
		t.Fatalf("unexpected key %q", obj.Path)
	}
	if obj.URL != "/uploads/"+obj.Path || obj.Size != 4 {
		t.Fatalf("unexpected object %+v", obj)
	}
	full := filepath.Join(root, filepath.FromSlash(obj.Path))
	if b, err := os.ReadFile(full); err != nil || string(b) != "data" {
		t.Fatalf("file content %q err %v", b, err)
	}

	if err := s.Delete(ctx, obj.Path); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(full); !os.IsNotExist(err) {
		t.Fatalf("file still exists: %v", err)
	}
	if err := s.Delete(ctx, obj.Path); err != nil {
		t.Fatalf("deleting a missing file must succeed: %v", err)
	}
}

func TestLocalStorageKeysStayUnderRoot(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(root, "/uploads/")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	full, err := s.resolve("../../etc/passwd")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.HasPrefix(full, root) {
		t.Fatalf("%q escapes %q", full, root)
	}
	if _, err := s.resolve(".."); err == nil {
		t.Fatal("expected an error for a key resolving to the root")
	}
}

func TestSaveHonoursCancelledContext(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "uploads")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Save(ctx, FolderPDFs, ".pdf", "application/pdf", []byte("x")); err == nil {
		t.Fatal("expected context error")
	}
}

func TestGenerateKey(t *testing.T) {
	a := generateKey("/pdfs/", "PDF")
	b := generateKey("pdfs", ".pdf")
	if !strings.HasPrefix(a, "pdfs/") || !strings.HasSuffix(a, ".pdf") {
		t.Fatalf("unexpected key %q", a)
	}
	if a == b {
		t.Fatal("keys must be unique")
	}
}
