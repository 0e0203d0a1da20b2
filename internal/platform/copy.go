package platform

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// CopyDir recursively copies src into dst. dst may already exist as an
// empty directory; it is created otherwise. Regular files keep their mode
// bits and symlinks are recreated as symlinks with the same target. Other
// special files are skipped.
func CopyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !srcInfo.IsDir() {
		return fmt.Errorf("%s is not a directory", src)
	}

	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		switch {
		case entry.Type()&os.ModeSymlink != 0:
			target, err := ReadSymlinkTarget(srcPath)
			if err != nil {
				return fmt.Errorf("reading symlink %s: %w", srcPath, err)
			}
			if err := createSymlink(target, dstPath, srcPath); err != nil {
				return fmt.Errorf("creating symlink %s: %w", dstPath, err)
			}
		case entry.IsDir():
			if err := CopyDir(srcPath, dstPath); err != nil {
				return err
			}
		case entry.Type().IsRegular():
			if err := CopyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}

	// Applied last so read-only source dirs can still be filled.
	return setMode(dst, srcInfo.Mode().Perm())
}

// CopyFile copies a single file from src to dst, preserving permissions.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	return setMode(dst, info.Mode().Perm())
}

// setMode applies copied permission bits. Windows has no unix modes, so it
// is a no-op there.
func setMode(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode)
}
