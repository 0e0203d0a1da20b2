package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeTree(t *testing.T, root string) {
	t.Helper()
	files := map[string]string{
		"webida-package.json": `{"id":"pkgX"}`,
		"src/plugin.js":       "define({});",
		"src/nested/deep.txt": "deep",
	}
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "run.sh"), []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
}

func TestCopyDirCopiesTree(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	dst := filepath.Join(tmp, "dst")
	writeTree(t, src)

	if err := CopyDir(src, dst); err != nil {
		t.Fatalf("CopyDir: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dst, "src", "nested", "deep.txt"))
	if err != nil {
		t.Fatalf("nested file not copied: %v", err)
	}
	if string(data) != "deep" {
		t.Errorf("content = %q, want %q", data, "deep")
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dst, "run.sh"))
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0755 {
			t.Errorf("run.sh permissions = %o, want %o", perm, 0755)
		}
	}

	// Source is untouched.
	if _, err := os.Stat(filepath.Join(src, "src", "plugin.js")); err != nil {
		t.Errorf("source file missing after copy: %v", err)
	}
}

func TestCopyDirIntoExistingEmptyDir(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	dst := filepath.Join(tmp, "dst")
	writeTree(t, src)
	if err := os.Mkdir(dst, 0755); err != nil {
		t.Fatal(err)
	}

	if err := CopyDir(src, dst); err != nil {
		t.Fatalf("CopyDir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "webida-package.json")); err != nil {
		t.Errorf("descriptor not copied: %v", err)
	}
}

func TestCopyDirPreservesSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink semantics differ on Windows")
	}
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	writeTree(t, src)
	if err := os.Symlink("src/plugin.js", filepath.Join(src, "main.js")); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(tmp, "dst")
	if err := CopyDir(src, dst); err != nil {
		t.Fatalf("CopyDir: %v", err)
	}

	target, err := os.Readlink(filepath.Join(dst, "main.js"))
	if err != nil {
		t.Fatalf("symlink not recreated: %v", err)
	}
	if target != "src/plugin.js" {
		t.Errorf("symlink target = %q, want %q", target, "src/plugin.js")
	}
}

func TestCopyDirRejectsFile(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := CopyDir(file, filepath.Join(tmp, "dst")); err == nil {
		t.Error("expected error when source is not a directory")
	}
}

func TestCopyDirMissingSource(t *testing.T) {
	tmp := t.TempDir()
	if err := CopyDir(filepath.Join(tmp, "nope"), filepath.Join(tmp, "dst")); err == nil {
		t.Error("expected error for missing source")
	}
}

func TestCopyFileKeepsRestrictiveMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no unix permission bits on windows")
	}
	tmp := t.TempDir()
	src := filepath.Join(tmp, "secret.json")
	if err := os.WriteFile(src, []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(tmp, "copy.json")
	if err := os.WriteFile(dst, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want %o", perm, 0600)
	}
}
