package installer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/wpm-labs/wpm/internal/branding"
	"github.com/wpm-labs/wpm/internal/catalog"
	"github.com/wpm-labs/wpm/internal/descriptor"
	"github.com/wpm-labs/wpm/internal/errs"
	"github.com/wpm-labs/wpm/internal/platform"
	"go.uber.org/zap"
)

// InstallResult describes an installed package, or the plan for one in a
// dry run.
type InstallResult struct {
	PackageID string                      `json:"id" yaml:"id"`
	Version   string                      `json:"version,omitempty" yaml:"version,omitempty"`
	Target    string                      `json:"target" yaml:"target"`
	FromLocal bool                        `json:"fromLocal" yaml:"fromLocal"`
	DryRun    bool                        `json:"dryRun" yaml:"dryRun"`
	Modules   map[catalog.Bucket][]string `json:"modules" yaml:"modules"`
}

// installTxn is the state of one install. It is never persisted.
type installTxn struct {
	*Installer

	source    string
	fromLocal bool
	cloned    bool // the clone directory belongs to this transaction
	sourceDir string
	desc      *descriptor.Descriptor
	cat       *catalog.Catalog
	target    string
	claimed   bool
}

type step struct {
	name string
	run  func(context.Context) error
}

// Install installs the package found at source, a local directory or a git
// URL. Steps run strictly in order and the first failure stops the install.
func (in *Installer) Install(ctx context.Context, source string) (res *InstallResult, err error) {
	if strings.TrimSpace(source) == "" {
		return nil, errs.UserInput("install", "package source is required")
	}
	if err := in.opts.RequireCatalog(); err != nil {
		return nil, err
	}

	tx := &installTxn{Installer: in, source: source}
	defer func() {
		if err != nil {
			tx.rollback()
		}
	}()

	prepare := []step{
		{"clean stale", tx.cleanStale},
		{"load catalog", tx.loadCatalog},
		{"acquire source", tx.acquireSource},
		{"select branch", tx.selectBranch},
		{"read descriptor", tx.readDescriptor},
		{"check collisions", tx.checkCollisions},
	}
	if err := tx.runSteps(ctx, prepare); err != nil {
		return nil, err
	}

	if in.opts.DryRun {
		if err := tx.runSteps(ctx, []step{{"check target", tx.checkTarget}}); err != nil {
			return nil, err
		}
		in.logger.Info("dry run, nothing installed", zap.String("package", tx.desc.ID), zap.String("target", tx.target))
		tx.discardClone()
		return tx.result(), nil
	}

	commit := []step{
		{"place package", tx.place},
		{"merge catalog", tx.mergeCatalog},
		{"persist catalog", tx.persistCatalog},
	}
	if err := tx.runSteps(ctx, commit); err != nil {
		return nil, err
	}

	in.logger.Info("installed package",
		zap.String("package", tx.desc.ID),
		zap.String("version", tx.desc.DisplayVersion()),
		zap.String("target", tx.target))
	return tx.result(), nil
}

func (tx *installTxn) runSteps(ctx context.Context, steps []step) error {
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		tx.logger.Debug("install step", zap.String("step", s.name))
		if err := s.run(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (tx *installTxn) result() *InstallResult {
	return &InstallResult{
		PackageID: tx.desc.ID,
		Version:   tx.desc.Version,
		Target:    tx.target,
		FromLocal: tx.fromLocal,
		DryRun:    tx.opts.DryRun,
		Modules:   bucketModules(tx.desc.Manifest),
	}
}

// cleanStale removes what interrupted runs left behind. A dry run leaves
// both in place.
func (tx *installTxn) cleanStale(context.Context) error {
	if tx.opts.DryRun {
		return nil
	}
	cloneDir := tx.opts.CloneDir()
	if _, err := os.Lstat(cloneDir); err == nil {
		if err := os.RemoveAll(cloneDir); err != nil {
			return errs.IO("clean stale", "removing old clone directory %s: %w", cloneDir, err)
		}
		tx.logger.Info("removed stale clone directory", zap.String("path", cloneDir))
	}
	purgeTrash(tx.opts.InstallDir, tx.logger)
	return nil
}

func (tx *installTxn) loadCatalog(context.Context) error {
	cat, err := catalog.Load(tx.opts.CatalogPath(), tx.logger)
	if err != nil {
		return err
	}
	tx.cat = cat
	return nil
}

func (tx *installTxn) acquireSource(ctx context.Context) error {
	info, err := os.Stat(tx.source)
	if err == nil {
		if !info.IsDir() {
			return errs.UserInput("acquire source", "%s is not a directory", tx.source)
		}
		dir, err := resolvePath(tx.source)
		if err != nil {
			return errs.IO("acquire source", "resolving %s: %w", tx.source, err)
		}
		tx.fromLocal = true
		tx.sourceDir = dir
		tx.logger.Info("installing from local directory", zap.String("path", dir))
		return nil
	}

	if tx.fetcher == nil {
		return errs.UserInput("acquire source", "%s is not a local directory and no fetcher is configured", tx.source)
	}
	if err := os.MkdirAll(tx.opts.TmpDir, 0755); err != nil {
		return errs.IO("acquire source", "creating temp directory %s: %w", tx.opts.TmpDir, err)
	}

	tx.sourceDir = tx.opts.CloneDir()
	if tx.opts.DryRun {
		// Keep clear of a clone directory an interrupted install may have left.
		dir, err := os.MkdirTemp(tx.opts.TmpDir, branding.CLIName()+"-dry-run-")
		if err != nil {
			return errs.IO("acquire source", "creating temp directory in %s: %w", tx.opts.TmpDir, err)
		}
		tx.sourceDir = dir
	}
	tx.cloned = true
	tx.logger.Info("cloning package", zap.String("url", tx.source), zap.String("dir", tx.sourceDir))
	return tx.fetcher.Clone(ctx, tx.source, tx.sourceDir)
}

func (tx *installTxn) selectBranch(ctx context.Context) error {
	if tx.fromLocal {
		return nil
	}
	tx.logger.Debug("checking out branch", zap.String("branch", tx.opts.Branch))
	return tx.fetcher.Checkout(ctx, tx.sourceDir, tx.opts.Branch)
}

func (tx *installTxn) readDescriptor(context.Context) error {
	d, err := descriptor.Read(tx.sourceDir)
	if err != nil {
		return err
	}
	tx.desc = d
	tx.logger.Debug("read descriptor",
		zap.String("package", d.ID),
		zap.Strings("plugins", d.Manifest.Plugins),
		zap.Strings("starters", d.Manifest.Starters),
		zap.Strings("disabled", d.Manifest.Disabled))
	return nil
}

func (tx *installTxn) checkCollisions(context.Context) error {
	modules := bucketModules(tx.desc.Manifest)
	for _, b := range catalog.Buckets {
		if err := tx.cat.CheckMerge(b, modules[b], tx.desc.ID); err != nil {
			return err
		}
	}
	return nil
}

// checkTarget reports the failures place would hit before anything is
// written. A dry run uses it in place of the claim.
func (tx *installTxn) checkTarget(context.Context) error {
	tx.target = tx.opts.PackageDir(tx.desc.ID)
	if err := tx.checkSourceOverlap(); err != nil {
		return err
	}
	if _, err := os.Lstat(tx.target); err == nil {
		return errs.Data("place package", "already have existing package at %s", tx.target)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return errs.IO("place package", "checking %s: %w", tx.target, err)
	}
	return nil
}

func (tx *installTxn) checkSourceOverlap() error {
	if !tx.fromLocal {
		return nil
	}
	target, err := resolvePath(tx.opts.PackageDir(tx.desc.ID))
	if err != nil {
		return errs.IO("place package", "resolving install target: %w", err)
	}
	if within(tx.sourceDir, target) {
		return errs.UserInput("place package", "install target %s is inside the source directory %s", target, tx.sourceDir)
	}
	return nil
}

// place claims installDir/<id> and fills it. The mkdir is the existence
// check; an existing target fails here with nothing touched.
func (tx *installTxn) place(context.Context) error {
	target := tx.opts.PackageDir(tx.desc.ID)
	if err := tx.checkSourceOverlap(); err != nil {
		return err
	}

	if err := os.MkdirAll(tx.opts.InstallDir, 0755); err != nil {
		return errs.IO("place package", "creating install directory %s: %w", tx.opts.InstallDir, err)
	}

	if err := os.Mkdir(target, 0755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return errs.Data("place package", "already have existing package at %s", target)
		}
		return errs.IO("place package", "creating %s: %w", target, err)
	}
	tx.target = target
	tx.claimed = true

	if tx.fromLocal {
		if err := platform.CopyDir(tx.sourceDir, target); err != nil {
			return errs.IO("place package", "copying %s to %s: %w", tx.sourceDir, target, err)
		}
		return nil
	}

	if err := platform.MoveContents(tx.sourceDir, target); err != nil {
		return errs.IO("place package", "moving %s to %s: %w", tx.sourceDir, target, err)
	}
	tx.cloned = false
	return nil
}

func (tx *installTxn) mergeCatalog(context.Context) error {
	modules := bucketModules(tx.desc.Manifest)
	for _, b := range catalog.Buckets {
		if err := tx.cat.MergePackage(b, modules[b], tx.desc.ID); err != nil {
			return err
		}
	}
	return nil
}

func (tx *installTxn) persistCatalog(context.Context) error {
	path := tx.opts.CatalogPath()
	if err := tx.cat.Save(path); err != nil {
		return err
	}
	tx.logger.Debug("saved catalog", zap.String("path", path))
	return nil
}

// rollback undoes what a failed install did to the filesystem. The local
// source is never touched and the catalog was not written.
func (tx *installTxn) rollback() {
	if tx.claimed {
		if err := os.RemoveAll(tx.target); err != nil {
			tx.logger.Warn("could not remove partially installed package", zap.String("path", tx.target), zap.Error(err))
		} else {
			tx.logger.Info("removed partially installed package", zap.String("path", tx.target))
		}
	}
	tx.discardClone()
}

func (tx *installTxn) discardClone() {
	if !tx.cloned {
		return
	}
	if err := os.RemoveAll(tx.sourceDir); err != nil {
		tx.logger.Warn("could not remove clone directory", zap.String("path", tx.sourceDir), zap.Error(err))
		return
	}
	tx.cloned = false
}

// resolvePath returns p as an absolute path with symlinks resolved. Trailing
// components that do not exist yet are kept as given.
func resolvePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	rest := ""
	for dir := abs; ; {
		resolved, err := filepath.EvalSymlinks(dir)
		if err == nil {
			return filepath.Join(resolved, rest), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(dir), rest)
		dir = parent
	}
}

// within reports whether p is dir or lies below it.
func within(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
