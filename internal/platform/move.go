package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// Move renames src to dst. When the rename fails, typically because src and
// dst live on different filesystems, it copies src to dst and removes src.
func Move(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	info, err := os.Lstat(src)
	if err != nil {
		return err
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := ReadSymlinkTarget(src)
		if err != nil {
			return err
		}
		if err := createSymlink(target, dst, src); err != nil {
			return err
		}
	case info.IsDir():
		if err := CopyDir(src, dst); err != nil {
			_ = os.RemoveAll(dst)
			return fmt.Errorf("moving %s to %s: %w", src, dst, err)
		}
	default:
		if err := CopyFile(src, dst); err != nil {
			_ = os.Remove(dst)
			return fmt.Errorf("moving %s to %s: %w", src, dst, err)
		}
	}

	return os.RemoveAll(src)
}

// MoveContents moves every entry of srcDir into dstDir, which must exist,
// then removes the emptied srcDir.
func MoveContents(srcDir, dstDir string) error {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		src := filepath.Join(srcDir, entry.Name())
		dst := filepath.Join(dstDir, entry.Name())
		if err := Move(src, dst); err != nil {
			return err
		}
	}

	return os.Remove(srcDir)
}
