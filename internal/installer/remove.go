package installer

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/wpm-labs/wpm/internal/catalog"
	"github.com/wpm-labs/wpm/internal/descriptor"
	"github.com/wpm-labs/wpm/internal/errs"
	"go.uber.org/zap"
)

// RemoveResult describes a removed package, or the plan for one in a dry run.
type RemoveResult struct {
	PackageID string   `json:"id" yaml:"id"`
	Dir       string   `json:"dir" yaml:"dir"`
	Modules   []string `json:"modules" yaml:"modules"`
	Entries   int      `json:"entries" yaml:"entries"` // catalog entries deleted
	DryRun    bool     `json:"dryRun" yaml:"dryRun"`
}

// Remove uninstalls packageID: its modules leave every catalog bucket and
// its directory is deleted. The catalog is left unchanged when the installed
// descriptor cannot be read.
func (in *Installer) Remove(ctx context.Context, packageID string) (*RemoveResult, error) {
	packageID = strings.TrimSpace(packageID)
	if packageID == "" {
		return nil, errs.UserInput("remove", "package id is required")
	}
	if packageID == "." || packageID == ".." || strings.ContainsAny(packageID, `/\`) {
		return nil, errs.UserInput("remove", "%q is not a package id", packageID)
	}
	if err := in.opts.RequireCatalog(); err != nil {
		return nil, err
	}

	cat, err := catalog.Load(in.opts.CatalogPath(), in.logger)
	if err != nil {
		return nil, err
	}

	dir := in.opts.PackageDir(packageID)
	desc, err := descriptor.Read(dir)
	if err != nil {
		return nil, err
	}
	if desc.ID != packageID {
		in.logger.Warn("installed descriptor id differs from its directory name",
			zap.String("dir", dir), zap.String("id", desc.ID))
	}

	modules := desc.Manifest.AllModules()
	removed := cat.RemoveModules(modules)
	res := &RemoveResult{
		PackageID: packageID,
		Dir:       dir,
		Modules:   modules,
		Entries:   removed,
		DryRun:    in.opts.DryRun,
	}
	in.logger.Debug("removed catalog entries", zap.String("package", packageID), zap.Int("entries", removed))

	if in.opts.DryRun {
		in.logger.Info("dry run, nothing removed", zap.String("package", packageID))
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	purgeTrash(in.opts.InstallDir, in.logger)
	staged, err := stage(dir, packageID)
	if err != nil {
		return nil, errs.IO("remove", "staging %s for deletion: %w", dir, err)
	}

	if err := cat.Save(in.opts.CatalogPath()); err != nil {
		if rerr := os.Rename(staged, dir); rerr != nil {
			in.logger.Error("could not restore package directory",
				zap.String("staged", staged), zap.String("dir", dir), zap.Error(rerr))
			return nil, fmt.Errorf("%w (package directory left at %s)", err, staged)
		}
		return nil, err
	}

	if err := os.RemoveAll(staged); err != nil {
		in.logger.Warn("package unregistered but its files could not be deleted; they will be removed by the next install or remove",
			zap.String("path", staged), zap.Error(err))
	}

	in.logger.Info("removed package", zap.String("package", packageID), zap.Int("entries", removed))
	return res, nil
}
