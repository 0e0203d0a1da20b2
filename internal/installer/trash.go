package installer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/wpm-labs/wpm/internal/branding"
	"go.uber.org/zap"
)

// trashPrefix names package directories staged for deletion.
func trashPrefix() string {
	return "." + branding.CLIName() + "-trash-"
}

// trashDirs lists staged directories left in installDir.
func trashDirs(installDir string) ([]string, error) {
	return filepath.Glob(filepath.Join(installDir, trashPrefix()+"*"))
}

// stage renames dir to an unused trash name next to it.
func stage(dir, packageID string) (string, error) {
	parent := filepath.Dir(dir)
	for n := 1; ; n++ {
		staged := filepath.Join(parent, fmt.Sprintf("%s%s-%d", trashPrefix(), packageID, n))
		if _, err := os.Lstat(staged); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		if err := os.Rename(dir, staged); err != nil {
			return "", err
		}
		return staged, nil
	}
}

// purgeTrash deletes staged directories from an earlier remove. Failures are
// logged and otherwise ignored.
func purgeTrash(installDir string, logger *zap.Logger) {
	dirs, err := trashDirs(installDir)
	if err != nil {
		logger.Warn("listing leftover trash directories", zap.Error(err))
		return
	}
	for _, dir := range dirs {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("could not remove leftover trash directory", zap.String("path", dir), zap.Error(err))
			continue
		}
		logger.Info("removed leftover trash directory", zap.String("path", dir))
	}
}
