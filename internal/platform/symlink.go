package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// sidecarSuffix marks the file that records a symlink target on Windows
// when the link had to be replaced by a copy.
const sidecarSuffix = ".target"

// CreateSymlink makes link point at target. Where symlinks are unavailable
// (Windows without developer mode) the target is copied to link instead and
// the target is recorded in a sidecar so ReadSymlinkTarget still works.
func CreateSymlink(target, link string) error {
	return createSymlink(target, link, link)
}

// createSymlink is CreateSymlink with the fallback copy resolving a relative
// target against origin, the link being copied, rather than against link.
func createSymlink(target, link, origin string) error {
	err := os.Symlink(target, link)
	if err == nil || runtime.GOOS != "windows" {
		return err
	}

	if err := copyForSymlink(linkSource(target, origin), link); err != nil {
		return fmt.Errorf("symlink fallback (copy) failed: %w", err)
	}
	_ = os.WriteFile(link+sidecarSuffix, []byte(target), 0644)
	return nil
}

// ReadSymlinkTarget returns the target of a symlink, or of a copy made by
// CreateSymlink's Windows fallback.
func ReadSymlinkTarget(path string) (string, error) {
	target, err := os.Readlink(path)
	if err == nil || runtime.GOOS != "windows" {
		return target, err
	}

	data, readErr := os.ReadFile(path + sidecarSuffix)
	if readErr != nil {
		return "", fmt.Errorf("readlink failed and no %s sidecar found: %w", sidecarSuffix, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// linkSource returns the path a symlink at link with the given target
// refers to. Relative targets are relative to the link's directory.
func linkSource(target, link string) string {
	if filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(filepath.Dir(link), target)
}

// copyForSymlink copies src, file or directory, to link.
func copyForSymlink(src, link string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return CopyDir(src, link)
	}
	return CopyFile(src, link)
}
