package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/wpm-labs/wpm/internal/branding"
	"github.com/wpm-labs/wpm/internal/errs"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Option keys. They double as long flag names and config file keys.
const (
	KeyConf        = "conf"
	KeyCatalog     = "catalog"
	KeyInstallPath = "install-path"
	KeyTmpPath     = "tmp-path"
	KeyBranch      = "branch"
	KeyDebug       = "debug"
	KeyDryRun      = "dry-run"
)

// DefaultBranch is checked out after cloning when no branch is given.
const DefaultBranch = "master"

// cloneDirName is the fixed directory under the temp path that holds a clone.
const cloneDirName = "cloning"

// settableKeys are the keys `config set` accepts.
var settableKeys = []string{KeyConf, KeyCatalog, KeyInstallPath, KeyTmpPath, KeyBranch}

// Options is the resolved configuration for one invocation.
type Options struct {
	CatalogDir  string // directory holding the catalog file
	CatalogFile string // catalog file name
	InstallDir  string // packages are installed as InstallDir/<id>
	TmpDir      string // parent of the clone directory
	Branch      string // branch checked out after cloning
	Debug       bool
	DryRun      bool
}

// CatalogPath returns the full path of the catalog file.
func (o Options) CatalogPath() string {
	return filepath.Join(o.CatalogDir, o.CatalogFile)
}

// CloneDir returns the temporary directory remote packages are cloned into.
func (o Options) CloneDir() string {
	return filepath.Join(o.TmpDir, cloneDirName)
}

// PackageDir returns the install location of a package.
func (o Options) PackageDir(packageID string) string {
	return filepath.Join(o.InstallDir, packageID)
}

// RequireCatalog reports a user input error when no catalog directory is set.
func (o Options) RequireCatalog() error {
	if strings.TrimSpace(o.CatalogDir) == "" {
		return errs.UserInput("options", "catalog directory is required (use --%s or %s)",
			KeyConf, branding.EnvVar("CONFIG_PATH"))
	}
	return nil
}

// Dir returns the path to the wpm config directory (~/.wpm/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.wpm/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// newViper returns a private viper instance wired to the config file and
// the WPM_ environment.
func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(FilePath())
	v.SetConfigType(fileType)
	v.SetEnvPrefix(branding.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// The catalog directory historically came from WPM_CONFIG_PATH.
	if err := v.BindEnv(KeyConf, branding.EnvVar("CONFIG_PATH"), branding.EnvVar(KeyConf)); err != nil {
		return nil, fmt.Errorf("binding environment: %w", err)
	}

	v.SetDefault(KeyCatalog, branding.CatalogFile())
	v.SetDefault(KeyInstallPath, ".")
	v.SetDefault(KeyTmpPath, os.TempDir())
	v.SetDefault(KeyBranch, DefaultBranch)

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errs.Data("config", "reading %s: %w", FilePath(), err)
	}
	return v, nil
}

// Resolve builds Options from flags, environment, and the config file.
// flags may be nil.
func Resolve(flags *pflag.FlagSet) (Options, error) {
	v, err := newViper()
	if err != nil {
		return Options{}, err
	}
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Options{}, fmt.Errorf("binding flags: %w", err)
		}
	}

	opts := Options{
		CatalogDir:  v.GetString(KeyConf),
		CatalogFile: v.GetString(KeyCatalog),
		InstallDir:  v.GetString(KeyInstallPath),
		TmpDir:      v.GetString(KeyTmpPath),
		Branch:      v.GetString(KeyBranch),
		Debug:       v.GetBool(KeyDebug),
		DryRun:      v.GetBool(KeyDryRun),
	}

	if opts.CatalogFile == "" {
		return Options{}, errs.UserInput("options", "catalog file name must not be empty")
	}
	if opts.Branch == "" {
		opts.Branch = DefaultBranch
	}

	for _, p := range []*string{&opts.CatalogDir, &opts.InstallDir, &opts.TmpDir} {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return Options{}, errs.IO("options", "resolving %s: %w", *p, err)
		}
		*p = abs
	}

	return opts, nil
}

// Get returns a config value by key, as Resolve would see it without flags.
// Returns empty string if not set.
func Get(key string) (string, error) {
	v, err := newViper()
	if err != nil {
		return "", err
	}
	return v.GetString(key), nil
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if !slices.Contains(settableKeys, key) {
		return errs.UserInput("config", "unknown key %q (known keys: %s)", key, strings.Join(settableKeys, ", "))
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	// Read only the file so environment overrides are not persisted.
	v := viper.New()
	v.SetConfigFile(FilePath())
	v.SetConfigType(fileType)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errs.Data("config", "reading %s: %w", FilePath(), err)
	}

	v.Set(key, value)

	if err := v.WriteConfigAs(FilePath()); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
