// Package branding provides compile-time identity values for the CLI.
//
// branding.yaml is embedded with //go:embed; forks edit it to rename the
// binary, its home directory, and its environment variable prefix.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName        string `yaml:"cli_name"`
	DisplayName    string `yaml:"display_name"`
	Description    string `yaml:"description"`
	HomeDir        string `yaml:"home_dir"`
	EnvPrefix      string `yaml:"env_prefix"`
	CatalogFile    string `yaml:"catalog_file"`
	DescriptorFile string `yaml:"descriptor_file"`
	ModulePrefix   string `yaml:"module_prefix"`
}

func load() {
	once.Do(func() {
		// Set hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:        "wpm",
			DisplayName:    "WPM",
			Description:    "Package manager for plugin host packages",
			HomeDir:        ".wpm",
			EnvPrefix:      "WPM",
			CatalogFile:    "plugin-settings.json",
			DescriptorFile: "webida-package.json",
			ModulePrefix:   "plugins/",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "wpm").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".wpm").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "WPM").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// CatalogFile returns the default catalog file name read by the plugin host.
func CatalogFile() string { load(); return defaults.CatalogFile }

// DescriptorFile returns the package descriptor file name.
func DescriptorFile() string { load(); return defaults.DescriptorFile }

// ModulePrefix returns the namespace prefix of catalog module paths.
func ModulePrefix() string { load(); return defaults.ModulePrefix }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("install-path") → "WPM_INSTALL_PATH".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(suffix, "-", "_"))
}
