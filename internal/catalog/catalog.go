// Package catalog maintains the plugin catalog file read by the plugin host
// at startup. The catalog has three buckets (enabled, autostart, disabled),
// each mapping a module key to its namespaced path
// "plugins/<packageId>/<moduleId>". The namespace prefix exists only in the
// file; callers always work with bare module keys.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wpm-labs/wpm/internal/branding"
	"github.com/wpm-labs/wpm/internal/errs"
	"go.uber.org/zap"
)

// Bucket names one partition of the catalog. The value is the JSON key the
// bucket is stored under.
type Bucket string

const (
	Enabled   Bucket = "plugins"
	Autostart Bucket = "start-plugins"
	Disabled  Bucket = "disabled-plugins"
)

// Buckets lists every bucket in serialization order.
var Buckets = []Bucket{Enabled, Autostart, Disabled}

func (b Bucket) String() string { return string(b) }

func (b Bucket) valid() bool {
	switch b {
	case Enabled, Autostart, Disabled:
		return true
	}
	return false
}

// Document is the persisted form of the catalog.
type Document struct {
	Plugins         []string `json:"plugins"`
	StartPlugins    []string `json:"start-plugins"`
	DisabledPlugins []string `json:"disabled-plugins"`
}

func (d *Document) bucket(b Bucket) *[]string {
	switch b {
	case Autostart:
		return &d.StartPlugins
	case Disabled:
		return &d.DisabledPlugins
	default:
		return &d.Plugins
	}
}

// Catalog is the in-memory registry. The zero value is not usable; call New
// or Load.
type Catalog struct {
	buckets map[Bucket]map[string]string
}

// New returns an empty catalog.
func New() *Catalog {
	c := &Catalog{buckets: make(map[Bucket]map[string]string, len(Buckets))}
	for _, b := range Buckets {
		c.buckets[b] = make(map[string]string)
	}
	return c
}

// Load reads the catalog file at path. A missing file is not an error: it
// yields an empty catalog and an info log.
func Load(path string, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("catalog file does not exist, a new one will be created", zap.String("path", path))
		return New(), nil
	}
	if err != nil {
		return nil, errs.IO("load catalog", "reading %s: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errs.Data("load catalog", "parsing %s: %w", path, err)
	}

	c := New()
	if err := c.Import(doc); err != nil {
		return nil, errs.Data("load catalog", "%s: %w", path, err)
	}

	logger.Info("loaded catalog", zap.String("path", path),
		zap.Int(Enabled.String(), c.Len(Enabled)),
		zap.Int(Autostart.String(), c.Len(Autostart)),
		zap.Int(Disabled.String(), c.Len(Disabled)))
	return c, nil
}

// Import adds every entry of doc, stripping the namespace from each path to
// obtain its module key.
func (c *Catalog) Import(doc Document) error {
	for _, b := range Buckets {
		for _, p := range *doc.bucket(b) {
			_, key, err := ParseModulePath(p)
			if err != nil {
				return fmt.Errorf("bucket %s: %w", b, err)
			}
			c.buckets[b][key] = p
		}
	}
	return nil
}

// Export returns the catalog as a Document whose arrays are sorted in
// ascending byte order. Empty buckets are empty arrays, never nil.
func (c *Catalog) Export() Document {
	var doc Document
	for _, b := range Buckets {
		paths := make([]string, 0, len(c.buckets[b]))
		for _, p := range c.buckets[b] {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		*doc.bucket(b) = paths
	}
	return doc
}

// CheckMerge reports the first module key in moduleIDs that the catalog
// already holds, in any bucket, for a package other than packageID.
func (c *Catalog) CheckMerge(b Bucket, moduleIDs []string, packageID string) error {
	if !b.valid() {
		return errs.Data("merge catalog", "unknown bucket %q", b)
	}
	if err := validSegment("package id", packageID); err != nil {
		return errs.Data("merge catalog", "%w", err)
	}
	for _, id := range moduleIDs {
		if err := validModuleID(id); err != nil {
			return errs.Data("merge catalog", "package %s: %w", packageID, err)
		}
		if owner, held, ok := c.owner(id); ok && owner != packageID {
			return errs.Data("merge catalog", "module %q is already registered in %s by package %q", id, held, owner)
		}
	}
	return nil
}

func (c *Catalog) owner(key string) (string, Bucket, bool) {
	for _, b := range Buckets {
		existing, ok := c.buckets[b][key]
		if !ok {
			continue
		}
		if pkg, _, err := ParseModulePath(existing); err == nil {
			return pkg, b, true
		}
	}
	return "", "", false
}

// MergePackage registers moduleIDs of packageID in bucket b. Merging the same
// package twice is idempotent. Keys held by another package are rejected
// before anything is changed.
func (c *Catalog) MergePackage(b Bucket, moduleIDs []string, packageID string) error {
	if len(moduleIDs) == 0 {
		return nil
	}
	if err := c.CheckMerge(b, moduleIDs, packageID); err != nil {
		return err
	}
	for _, id := range moduleIDs {
		c.buckets[b][id] = ModulePath(packageID, id)
	}
	return nil
}

// RemoveModules deletes each module key from every bucket and returns how
// many entries were deleted. Keys absent from a bucket are ignored.
func (c *Catalog) RemoveModules(moduleIDs []string) int {
	removed := 0
	for _, id := range moduleIDs {
		for _, b := range Buckets {
			if _, ok := c.buckets[b][id]; ok {
				delete(c.buckets[b], id)
				removed++
			}
		}
	}
	return removed
}

// Lookup returns the namespaced path registered for key in bucket b.
func (c *Catalog) Lookup(b Bucket, key string) (string, bool) {
	p, ok := c.buckets[b][key]
	return p, ok
}

// Modules returns a copy of bucket b as key → namespaced path.
func (c *Catalog) Modules(b Bucket) map[string]string {
	out := make(map[string]string, len(c.buckets[b]))
	for k, v := range c.buckets[b] {
		out[k] = v
	}
	return out
}

// Len returns the number of entries in bucket b.
func (c *Catalog) Len(b Bucket) int { return len(c.buckets[b]) }

// Packages returns the sorted ids of every package referenced by the catalog.
func (c *Catalog) Packages() []string {
	seen := make(map[string]bool)
	for _, b := range Buckets {
		for _, p := range c.buckets[b] {
			if pkg, _, err := ParseModulePath(p); err == nil {
				seen[pkg] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for pkg := range seen {
		out = append(out, pkg)
	}
	sort.Strings(out)
	return out
}

// Save writes the catalog to path. The document goes to a temporary file in
// the same directory which is then renamed over path, so the previous
// content is replaced wholesale or not at all. A symlinked path is followed:
// the file it points to is replaced and the link stays. An existing file
// keeps its permission bits; a new one gets 0644.
func (c *Catalog) Save(path string) error {
	data, err := json.MarshalIndent(c.Export(), "", "    ")
	if err != nil {
		return fmt.Errorf("marshaling catalog: %w", err)
	}
	data = append(data, '\n')

	path, mode, err := saveTarget(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errs.IO("save catalog", "creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return errs.IO("save catalog", "writing %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return errs.IO("save catalog", "syncing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errs.IO("save catalog", "closing %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		cleanup()
		return errs.IO("save catalog", "setting permissions on %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return errs.IO("save catalog", "replacing %s: %w", path, err)
	}
	return nil
}

// saveTarget resolves the file Save replaces and the mode it should have.
func saveTarget(path string) (string, fs.FileMode, error) {
	resolved, err := filepath.EvalSymlinks(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return path, 0644, nil
	case err != nil:
		return "", 0, errs.IO("save catalog", "resolving %s: %w", path, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", 0, errs.IO("save catalog", "checking %s: %w", resolved, err)
	}
	if info.IsDir() {
		return "", 0, errs.IO("save catalog", "%s is a directory", resolved)
	}
	return resolved, info.Mode().Perm(), nil
}

// ModulePath returns the namespaced path of a module.
func ModulePath(packageID, moduleID string) string {
	return branding.ModulePrefix() + packageID + "/" + moduleID
}

// ParseModulePath splits a namespaced path into its package id and module
// key. The module key is everything after the package segment and may itself
// contain slashes.
func ParseModulePath(p string) (packageID, moduleID string, err error) {
	prefix := branding.ModulePrefix()
	rest, ok := strings.CutPrefix(p, prefix)
	if !ok {
		return "", "", fmt.Errorf("entry %q does not start with %q", p, prefix)
	}
	packageID, moduleID, ok = strings.Cut(rest, "/")
	if !ok || packageID == "" || moduleID == "" {
		return "", "", fmt.Errorf("entry %q is not of the form %s<package>/<module>", p, prefix)
	}
	return packageID, moduleID, nil
}

func validSegment(what, s string) error {
	if s == "" {
		return fmt.Errorf("%s must not be empty", what)
	}
	if strings.ContainsAny(s, "/\\") || s == "." || s == ".." {
		return fmt.Errorf("%s %q must be a single path segment", what, s)
	}
	return nil
}

func validModuleID(id string) error {
	if id == "" {
		return errors.New("module id must not be empty")
	}
	if strings.HasPrefix(id, "/") {
		return fmt.Errorf("module id %q must not start with /", id)
	}
	return nil
}
