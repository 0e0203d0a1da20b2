//go:build integration

package integration_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/wpm-labs/wpm/internal/errs"
)

func TestRemoteInstallDefaultBranch(t *testing.T) {
	repo := setupPackageRepo(t)
	env := setupTestEnv(t)

	res, err := env.newInstaller(t, "master").Install(context.Background(), repo)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if res.PackageID != "pkgX" || res.FromLocal {
		t.Errorf("unexpected result %+v", res)
	}

	target := filepath.Join(env.InstallDir, "pkgX")
	assertFileExists(t, filepath.Join(target, "m1", "plugin.js"))
	assertFileNotExists(t, filepath.Join(target, "m2"))
	assertFileExists(t, filepath.Join(target, ".git"))
	assertFileNotExists(t, filepath.Join(env.TmpDir, "cloning"))

	assertFileContains(t, env.catalogPath(), `"plugins/pkgX/m1"`)
}

func TestRemoteInstallBranch(t *testing.T) {
	repo := setupPackageRepo(t)
	env := setupTestEnv(t)

	res, err := env.newInstaller(t, "stable").Install(context.Background(), repo)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if res.Version != "2.0.0" {
		t.Errorf("Version = %q, want 2.0.0", res.Version)
	}

	assertFileExists(t, filepath.Join(env.InstallDir, "pkgX", "m2", "plugin.js"))
	assertFileContains(t, env.catalogPath(), `"plugins/pkgX/m2"`)
}

func TestRemoteInstallUnknownBranch(t *testing.T) {
	repo := setupPackageRepo(t)
	env := setupTestEnv(t)

	_, err := env.newInstaller(t, "no-such-branch").Install(context.Background(), repo)
	if err == nil {
		t.Fatal("expected error for unknown branch")
	}
	if !errs.Is(err, errs.KindExternalCommand) {
		t.Errorf("kind = %v, want external command (%v)", errs.KindOf(err), err)
	}

	assertFileNotExists(t, filepath.Join(env.TmpDir, "cloning"))
	assertFileNotExists(t, filepath.Join(env.InstallDir, "pkgX"))
	assertFileNotExists(t, env.catalogPath())
}

func TestRemoteInstallBadURL(t *testing.T) {
	requireGit(t)
	env := setupTestEnv(t)

	_, err := env.newInstaller(t, "master").Install(context.Background(), filepath.Join(t.TempDir(), "missing.git"))
	if err == nil {
		t.Fatal("expected clone failure")
	}
	if got := errs.ExitCode(err); got != 4 {
		t.Errorf("exit code = %d, want 4 (%v)", got, err)
	}
	assertFileNotExists(t, filepath.Join(env.TmpDir, "cloning"))
}

func TestRemoteInstallTargetExists(t *testing.T) {
	repo := setupPackageRepo(t)
	env := setupTestEnv(t)

	writeFile(t, filepath.Join(env.InstallDir, "pkgX", "marker"), "mine")
	const catalog = `{"plugins":[],"start-plugins":[],"disabled-plugins":[]}`
	writeFile(t, env.catalogPath(), catalog)

	_, err := env.newInstaller(t, "master").Install(context.Background(), repo)
	if !errs.Is(err, errs.KindData) {
		t.Fatalf("expected data error, got %v", err)
	}

	if got := readFile(t, env.catalogPath()); got != catalog {
		t.Errorf("catalog changed:\n%s", got)
	}
	if got := readFile(t, filepath.Join(env.InstallDir, "pkgX", "marker")); got != "mine" {
		t.Errorf("existing package changed: %q", got)
	}
	if _, err := os.Stat(filepath.Join(env.TmpDir, "cloning")); !os.IsNotExist(err) {
		t.Errorf("clone directory should be removed, stat err = %v", err)
	}
}
