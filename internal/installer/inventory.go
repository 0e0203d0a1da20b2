package installer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/wpm-labs/wpm/internal/catalog"
	"github.com/wpm-labs/wpm/internal/descriptor"
	"github.com/wpm-labs/wpm/internal/discovery"
	"go.uber.org/zap"
)

// ModuleStatus is one module of an installed package.
type ModuleStatus struct {
	ID         string         `json:"id" yaml:"id"`
	Bucket     catalog.Bucket `json:"bucket" yaml:"bucket"`
	Registered bool           `json:"registered" yaml:"registered"`
}

// Package is an installed package as found on disk.
type Package struct {
	ID      string         `json:"id" yaml:"id"`
	Version string         `json:"version" yaml:"version"`
	Name    string         `json:"name,omitempty" yaml:"name,omitempty"`
	Dir     string         `json:"dir" yaml:"dir"`
	Modules []ModuleStatus `json:"modules,omitempty" yaml:"modules,omitempty"`
	Error   string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// FindingKind classifies a doctor finding.
type FindingKind string

const (
	FindingOrphanEntry        FindingKind = "orphan-entry"
	FindingUnregisteredModule FindingKind = "unregistered-module"
	FindingStaleClone         FindingKind = "stale-clone"
	FindingLeftoverTrash      FindingKind = "leftover-trash"
	FindingBrokenDescriptor   FindingKind = "broken-descriptor"
)

// Finding is one inconsistency between the catalog and the install directory.
type Finding struct {
	Kind    FindingKind `json:"kind" yaml:"kind"`
	Subject string      `json:"subject" yaml:"subject"`
	Detail  string      `json:"detail" yaml:"detail"`
}

type loaded struct {
	desc *descriptor.Descriptor
	err  error
}

// List reports every package under the install directory together with the
// catalog registration of its modules. Broken descriptors are reported in
// Package.Error rather than failing the listing.
func (in *Installer) List(ctx context.Context) ([]Package, error) {
	if err := in.opts.RequireCatalog(); err != nil {
		return nil, err
	}
	cat, err := catalog.Load(in.opts.CatalogPath(), in.logger)
	if err != nil {
		return nil, err
	}
	return in.list(ctx, cat)
}

func (in *Installer) list(ctx context.Context, cat *catalog.Catalog) ([]Package, error) {
	if _, err := os.Stat(in.opts.InstallDir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	loader := discovery.Loader[loaded]{
		Pattern: "*/" + descriptor.FileName(),
		Ignore:  discovery.DefaultIgnore,
		Load: func(path string) (loaded, error) {
			d, err := descriptor.ReadFile(path)
			return loaded{desc: d, err: err}, nil
		},
	}
	found, err := loader.LoadAll(ctx, in.opts.InstallDir)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		in.logger.Warn("some package directories could not be scanned", zap.Error(err))
	}

	pkgs := make([]Package, 0, len(found))
	for rel, l := range found {
		dir := filepath.Join(in.opts.InstallDir, filepath.Dir(filepath.FromSlash(rel)))
		if l.err != nil {
			pkgs = append(pkgs, Package{ID: filepath.Base(dir), Version: "-", Dir: dir, Error: l.err.Error()})
			continue
		}
		pkgs = append(pkgs, Package{
			ID:      l.desc.ID,
			Version: l.desc.DisplayVersion(),
			Name:    l.desc.Name,
			Dir:     dir,
			Modules: moduleStatus(cat, l.desc),
		})
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Dir < pkgs[j].Dir })
	return pkgs, nil
}

func moduleStatus(cat *catalog.Catalog, d *descriptor.Descriptor) []ModuleStatus {
	modules := bucketModules(d.Manifest)
	var out []ModuleStatus
	for _, b := range catalog.Buckets {
		for _, id := range modules[b] {
			p, ok := cat.Lookup(b, id)
			out = append(out, ModuleStatus{
				ID:         id,
				Bucket:     b,
				Registered: ok && p == catalog.ModulePath(d.ID, id),
			})
		}
	}
	return out
}

// Doctor cross-checks the catalog against the install directory. It changes
// nothing.
func (in *Installer) Doctor(ctx context.Context) ([]Finding, error) {
	if err := in.opts.RequireCatalog(); err != nil {
		return nil, err
	}
	cat, err := catalog.Load(in.opts.CatalogPath(), in.logger)
	if err != nil {
		return nil, err
	}

	var findings []Finding

	for _, pkg := range cat.Packages() {
		dir := in.opts.PackageDir(pkg)
		if _, err := os.Stat(dir); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		for _, b := range catalog.Buckets {
			for key, p := range cat.Modules(b) {
				if owner, _, err := catalog.ParseModulePath(p); err != nil || owner != pkg {
					continue
				}
				findings = append(findings, Finding{
					Kind:    FindingOrphanEntry,
					Subject: p,
					Detail:  "module " + key + " in " + b.String() + " points at missing directory " + dir,
				})
			}
		}
	}

	pkgs, err := in.list(ctx, cat)
	if err != nil {
		return nil, err
	}
	for _, pkg := range pkgs {
		if pkg.Error != "" {
			findings = append(findings, Finding{Kind: FindingBrokenDescriptor, Subject: pkg.Dir, Detail: pkg.Error})
			continue
		}
		for _, m := range pkg.Modules {
			if !m.Registered {
				findings = append(findings, Finding{
					Kind:    FindingUnregisteredModule,
					Subject: catalog.ModulePath(pkg.ID, m.ID),
					Detail:  "declared in " + m.Bucket.String() + " but not registered there",
				})
			}
		}
	}

	if _, err := os.Lstat(in.opts.CloneDir()); err == nil {
		findings = append(findings, Finding{
			Kind:    FindingStaleClone,
			Subject: in.opts.CloneDir(),
			Detail:  "left by an interrupted install; removed by the next install",
		})
	}

	trash, err := trashDirs(in.opts.InstallDir)
	if err == nil {
		for _, dir := range trash {
			findings = append(findings, Finding{
				Kind:    FindingLeftoverTrash,
				Subject: dir,
				Detail:  "left by an interrupted remove; removed by the next install or remove",
			})
		}
	}

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Kind != findings[j].Kind {
			return findings[i].Kind < findings[j].Kind
		}
		return findings[i].Subject < findings[j].Subject
	})
	return findings, nil
}
