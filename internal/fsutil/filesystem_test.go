package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_Exists(t *testing.T) {
	fs := OSFileSystem{}

	if !fs.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}

	if fs.Exists("nonexistent_file_xyz.go") {
		t.Error("expected nonexistent file to not exist")
	}
}

func TestOSFileSystem_ReadFile(t *testing.T) {
	fs := OSFileSystem{}

	data, err := fs.ReadFile("filesystem.go")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if len(data) == 0 {
		t.Error("expected non-empty file content")
	}
}

func TestOSFileSystem_WriteFileReplaces(t *testing.T) {
	fs := OSFileSystem{}
	path := filepath.Join(t.TempDir(), "snapshot.png")

	if err := fs.WriteFile(path, []byte("first"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := fs.WriteFile(path, []byte("second"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("expected %q, got %q", "second", data)
	}

	info, err := fs.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected no temporary files left behind, found %d entries", len(entries))
	}
}

func TestOSFileSystem_WriteFileMissingDir(t *testing.T) {
	fs := OSFileSystem{}
	if err := fs.WriteFile(filepath.Join(t.TempDir(), "nope", "x"), nil, 0o644); err == nil {
		t.Error("expected error writing into a missing directory")
	}
}

func TestOSFileSystem_Glob(t *testing.T) {
	fs := OSFileSystem{}
	dir := t.TempDir()
	for _, name := range []string{"1_0.png", "0_0.png", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := fs.Glob(filepath.Join(dir, "*_*.png"))
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	want := []string{filepath.Join(dir, "0_0.png"), filepath.Join(dir, "1_0.png")}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected %v, got %v", want, got)
	}

	if _, err := fs.Glob("[bad"); err == nil {
		t.Error("expected error for malformed pattern")
	}
}

func TestOSFileSystem_MkdirAllAndIsDir(t *testing.T) {
	fs := OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "a", "b")

	if IsDir(fs, dir) {
		t.Fatal("directory should not exist yet")
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if !IsDir(fs, dir) {
		t.Error("expected directory to exist")
	}
	if IsDir(fs, "filesystem.go") {
		t.Error("a regular file is not a directory")
	}
}

func TestOSFileSystem_Open(t *testing.T) {
	fs := OSFileSystem{}
	f, err := fs.Open("filesystem.go")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Name() != "filesystem.go" {
		t.Errorf("expected filesystem.go, got %s", info.Name())
	}
}
