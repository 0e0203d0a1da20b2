package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wpm-labs/wpm/internal/config"
	"github.com/wpm-labs/wpm/internal/descriptor"
)

const pkgXDescriptor = `{"id":"pkgX","manifest":{"plugins":["m1"],"starters":[],"disabled":[]}}`

// testOptions returns options rooted in a fresh temp dir. The catalog dir
// exists; the install and temp dirs do not.
func testOptions(t *testing.T) config.Options {
	t.Helper()
	base := t.TempDir()
	opts := config.Options{
		CatalogDir:  filepath.Join(base, "conf"),
		CatalogFile: "plugin-settings.json",
		InstallDir:  filepath.Join(base, "install"),
		TmpDir:      filepath.Join(base, "tmp"),
		Branch:      config.DefaultBranch,
	}
	require.NoError(t, os.MkdirAll(opts.CatalogDir, 0755))
	return opts
}

// writePackage creates a package source tree with the given descriptor and
// extra files.
func writePackage(t *testing.T, dir, desc string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	if desc != "" {
		require.NoError(t, os.WriteFile(descriptor.Path(dir), []byte(desc), 0644))
	}
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// fakeFetcher writes a package tree instead of running git.
type fakeFetcher struct {
	desc        string
	files       map[string]string
	cloneErr    error
	checkoutErr error

	clones    []string
	checkouts []string
}

func (f *fakeFetcher) Clone(_ context.Context, url, dir string) error {
	f.clones = append(f.clones, url)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if f.cloneErr != nil {
		// Leave a partial clone behind like an interrupted git would.
		_ = os.WriteFile(filepath.Join(dir, "partial"), []byte("x"), 0644)
		return f.cloneErr
	}
	files := map[string]string{".git/HEAD": "ref: refs/heads/master\n"}
	for k, v := range f.files {
		files[k] = v
	}
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			return err
		}
	}
	if f.desc != "" {
		return os.WriteFile(descriptor.Path(dir), []byte(f.desc), 0644)
	}
	return nil
}

func (f *fakeFetcher) Checkout(_ context.Context, _ string, branch string) error {
	f.checkouts = append(f.checkouts, branch)
	return f.checkoutErr
}

var errFetch = errors.New("fetch failed")
