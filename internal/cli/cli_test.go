package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wpm-labs/wpm/internal/errs"
	"github.com/wpm-labs/wpm/internal/installer"
)

// isolate points HOME at an empty directory and clears WPM_ variables so
// neither a real config file nor the caller's environment leak in.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, "WPM_") {
			t.Setenv(name, "")
		}
	}
	t.Setenv("WPM_LOG_LEVEL", "error")
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := Execute(context.Background(), "1.2.3", "abc123", "2026-01-01")
	return out.String(), err
}

type workspace struct {
	conf    string
	install string
	tmp     string
	src     string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	isolate(t)
	base := t.TempDir()
	ws := workspace{
		conf:    filepath.Join(base, "conf"),
		install: filepath.Join(base, "install"),
		tmp:     filepath.Join(base, "tmp"),
		src:     filepath.Join(base, "src"),
	}
	require.NoError(t, os.MkdirAll(ws.conf, 0755))
	require.NoError(t, os.MkdirAll(ws.src, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(ws.src, "webida-package.json"),
		[]byte(`{"id":"pkgX","version":"1.0.0","manifest":{"plugins":["m1"],"starters":["m1"],"disabled":[]}}`), 0644))
	return ws
}

func (ws workspace) flags(args ...string) []string {
	return append(args, "-c", ws.conf, "-i", ws.install, "-t", ws.tmp)
}

func TestInstallListRemove(t *testing.T) {
	ws := newWorkspace(t)

	out, err := execute(t, ws.flags("install", ws.src)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Installed pkgX")
	assert.Contains(t, out, "plugins:")
	assert.Contains(t, out, "start-plugins:")

	data, err := os.ReadFile(filepath.Join(ws.conf, "plugin-settings.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"plugins/pkgX/m1"`)

	out, err = execute(t, ws.flags("list", "--json")...)
	require.NoError(t, err)
	var pkgs []installer.Package
	require.NoError(t, json.Unmarshal([]byte(out), &pkgs))
	require.Len(t, pkgs, 1)
	assert.Equal(t, "pkgX", pkgs[0].ID)
	assert.Equal(t, "1.0.0", pkgs[0].Version)

	out, err = execute(t, ws.flags("list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "pkgX")
	assert.Contains(t, out, "ok")

	out, err = execute(t, ws.flags("doctor")...)
	require.NoError(t, err)
	assert.Contains(t, out, "No problems found")

	out, err = execute(t, ws.flags("remove", "pkgX")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed pkgX (2 catalog entries)")

	_, err = os.Stat(filepath.Join(ws.install, "pkgX"))
	assert.True(t, os.IsNotExist(err))
}

func TestInstall_ExistingTargetExitCode(t *testing.T) {
	ws := newWorkspace(t)
	_, err := execute(t, ws.flags("install", ws.src)...)
	require.NoError(t, err)

	_, err = execute(t, ws.flags("install", ws.src)...)
	require.Error(t, err)
	assert.Equal(t, 3, errs.ExitCode(err))
}

func TestInstall_DryRun(t *testing.T) {
	ws := newWorkspace(t)

	out, err := execute(t, ws.flags("--dry-run", "install", ws.src)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Would install pkgX")

	_, err = os.Stat(filepath.Join(ws.conf, "plugin-settings.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestUserInputErrors(t *testing.T) {
	ws := newWorkspace(t)

	tests := []struct {
		name string
		args []string
	}{
		{"install without source", ws.flags("install")},
		{"install without catalog dir", []string{"install", ws.src, "-i", ws.install}},
		{"remove without id", ws.flags("remove")},
		{"unknown flag", ws.flags("install", ws.src, "--bogus")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, 2, errs.ExitCode(err), "got %v", err)
		})
	}
}

func TestCatalogDirFromEnv(t *testing.T) {
	ws := newWorkspace(t)
	t.Setenv("WPM_CONFIG_PATH", ws.conf)

	_, err := execute(t, "install", ws.src, "-i", ws.install, "-t", ws.tmp)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(ws.conf, "plugin-settings.json"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	ws := newWorkspace(t)

	out, err := execute(t, "validate", ws.src)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	bad := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bad, "webida-package.json"), []byte(`{"id":"a b","manifest":{}}`), 0644))
	out, err = execute(t, "validate", bad)
	require.Error(t, err)
	assert.Equal(t, 3, errs.ExitCode(err))
	assert.Contains(t, out, "/id")

	_, err = execute(t, "validate", t.TempDir())
	assert.Equal(t, 3, errs.ExitCode(err))
}

func TestVersion(t *testing.T) {
	isolate(t)

	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", out)

	out, err = execute(t, "version", "--json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "abc123", info["commit"])

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "wpm version 1.2.3 (commit: abc123, built: 2026-01-01)\n", out)
}

func TestConfigSetGet(t *testing.T) {
	isolate(t)

	out, err := execute(t, "config", "set", "branch", "develop")
	require.NoError(t, err)
	assert.Equal(t, "Set branch = develop\n", out)

	out, err = execute(t, "config", "get", "branch")
	require.NoError(t, err)
	assert.Equal(t, "develop\n", out)

	_, err = execute(t, "config", "set", "colour", "blue")
	assert.Equal(t, 2, errs.ExitCode(err))
}

func TestCreateThenInstall(t *testing.T) {
	ws := newWorkspace(t)
	pkgDir := filepath.Join(t.TempDir(), "tools")

	out, err := execute(t, "create", "tools", "-m", "editor", "-m", "lint", "--starter", "editor", "--output-dir", pkgDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Created package tools")
	assert.NotContains(t, out, "⚠")

	_, err = execute(t, ws.flags("install", pkgDir)...)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(ws.conf, "plugin-settings.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"plugins/tools/lint"`)
	assert.Contains(t, string(data), `"start-plugins": [
        "plugins/tools/editor"
    ]`)

	_, err = execute(t, "create", "bad id")
	assert.Equal(t, 2, errs.ExitCode(err))
}

func TestInitThenSearch(t *testing.T) {
	ws := newWorkspace(t)
	require.NoError(t, os.RemoveAll(ws.conf))

	out, err := execute(t, ws.flags("init", "--save")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Created "+filepath.Join(ws.conf, "plugin-settings.json"))

	out, err = execute(t, "config", "get", "install-path")
	require.NoError(t, err)
	assert.Equal(t, ws.install+"\n", out)

	out, err = execute(t, ws.flags("init")...)
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	_, err = execute(t, ws.flags("install", ws.src)...)
	require.NoError(t, err)

	out, err = execute(t, ws.flags("search", "M1")...)
	require.NoError(t, err)
	assert.Contains(t, out, "pkgX")

	out, err = execute(t, ws.flags("search", "--bucket", "disabled-plugins")...)
	require.NoError(t, err)
	assert.Equal(t, "No packages found with --bucket=disabled-plugins\n", out)

	_, err = execute(t, ws.flags("search", "--bucket", "everything")...)
	assert.Equal(t, 2, errs.ExitCode(err))
}
