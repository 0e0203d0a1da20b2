//go:build integration

package integration_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wpm-labs/wpm/internal/config"
	"github.com/wpm-labs/wpm/internal/installer"
	"github.com/wpm-labs/wpm/internal/shell"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	CatalogDir string // holds plugin-settings.json
	InstallDir string // packages land in InstallDir/<id>
	TmpDir     string // clones land in TmpDir/cloning
}

// setupTestEnv creates isolated temp directories for one test.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	base := t.TempDir()
	env := &testEnv{
		CatalogDir: filepath.Join(base, "conf"),
		InstallDir: filepath.Join(base, "plugins"),
		TmpDir:     filepath.Join(base, "tmp"),
	}
	if err := os.MkdirAll(env.CatalogDir, 0755); err != nil {
		t.Fatalf("creating catalog dir: %v", err)
	}
	return env
}

func (e *testEnv) options(branch string) config.Options {
	return config.Options{
		CatalogDir:  e.CatalogDir,
		CatalogFile: "plugin-settings.json",
		InstallDir:  e.InstallDir,
		TmpDir:      e.TmpDir,
		Branch:      branch,
	}
}

// newInstaller returns an installer that runs the real git binary.
func (e *testEnv) newInstaller(t *testing.T, branch string) *installer.Installer {
	t.Helper()
	runner := shell.NewRunner(nil)
	runner.Stdout = testWriter{t}
	runner.Stderr = testWriter{t}
	return installer.New(e.options(branch), installer.NewGitFetcher(runner), nil)
}

func (e *testEnv) catalogPath() string {
	return filepath.Join(e.CatalogDir, "plugin-settings.json")
}

// testWriter forwards subprocess output to the test log.
type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// requireGit skips the test when git is not installed.
func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

// git runs a git command in dir and fails the test on error.
func git(t *testing.T, dir string, args ...string) {
	t.Helper()
	base := []string{"-c", "user.name=wpm-test", "-c", "user.email=wpm-test@example.com", "-c", "commit.gpgsign=false"}
	cmd := exec.Command("git", append(base, args...)...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
}

// setupPackageRepo creates a git repository holding package pkgX. master
// declares module m1; the stable branch adds m2 and bumps the version.
// Returns the repository path, usable as a clone URL.
func setupPackageRepo(t *testing.T) string {
	t.Helper()
	requireGit(t)

	repo := filepath.Join(t.TempDir(), "pkgX.git")
	writeFile(t, filepath.Join(repo, "webida-package.json"),
		`{"id":"pkgX","version":"1.0.0","manifest":{"plugins":["m1"],"starters":["m1"],"disabled":[]}}`)
	writeFile(t, filepath.Join(repo, "m1", "plugin.js"), "define([], function () {});\n")

	git(t, repo, "init", "--quiet")
	git(t, repo, "symbolic-ref", "HEAD", "refs/heads/master")
	git(t, repo, "add", ".")
	git(t, repo, "commit", "--quiet", "-m", "initial")

	git(t, repo, "checkout", "--quiet", "-b", "stable")
	writeFile(t, filepath.Join(repo, "webida-package.json"),
		`{"id":"pkgX","version":"2.0.0","manifest":{"plugins":["m1","m2"],"starters":["m1"],"disabled":[]}}`)
	writeFile(t, filepath.Join(repo, "m2", "plugin.js"), "define([], function () {});\n")
	git(t, repo, "add", ".")
	git(t, repo, "commit", "--quiet", "-m", "stable")
	git(t, repo, "checkout", "--quiet", "master")

	return repo
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}
