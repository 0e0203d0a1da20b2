package installer

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/wpm-labs/wpm/internal/catalog"
	"github.com/wpm-labs/wpm/internal/errs"
	"go.uber.org/zap"
)

// InitResult reports what Init created.
type InitResult struct {
	CatalogPath    string
	CatalogCreated bool
	InstallDir     string
}

// Init prepares a fresh setup: the catalog directory, an empty catalog file
// when none exists, and the install directory. An existing catalog is left
// untouched.
func (in *Installer) Init(ctx context.Context) (*InitResult, error) {
	if err := in.opts.RequireCatalog(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &InitResult{CatalogPath: in.opts.CatalogPath(), InstallDir: in.opts.InstallDir}
	if in.opts.DryRun {
		_, err := os.Stat(res.CatalogPath)
		res.CatalogCreated = errors.Is(err, fs.ErrNotExist)
		return res, nil
	}

	for _, dir := range []string{in.opts.CatalogDir, in.opts.InstallDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errs.IO("init", "creating %s: %w", dir, err)
		}
	}

	_, err := os.Stat(res.CatalogPath)
	switch {
	case err == nil:
		// Parse it so a corrupt catalog is reported now rather than on install.
		if _, err := catalog.Load(res.CatalogPath, in.logger); err != nil {
			return nil, err
		}
		return res, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, errs.IO("init", "checking %s: %w", res.CatalogPath, err)
	}

	if err := catalog.New().Save(res.CatalogPath); err != nil {
		return nil, err
	}
	res.CatalogCreated = true
	in.logger.Info("created catalog", zap.String("path", res.CatalogPath))
	return res, nil
}
