package descriptor

import (
	"github.com/Masterminds/semver/v3"
)

// Descriptor is the parsed form of a package descriptor file.
type Descriptor struct {
	ID          string   `json:"id" yaml:"id"`
	Version     string   `json:"version,omitempty" yaml:"version,omitempty"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Manifest    Manifest `json:"manifest" yaml:"manifest"`
}

// Manifest lists module keys per bucket.
type Manifest struct {
	Plugins  []string `json:"plugins" yaml:"plugins"`
	Starters []string `json:"starters" yaml:"starters"`
	Disabled []string `json:"disabled" yaml:"disabled"`
}

// AllModules returns the union of plugins, starters and disabled, in that
// order, without duplicates.
func (m Manifest) AllModules() []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range [][]string{m.Plugins, m.Starters, m.Disabled} {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// SemVer returns the parsed version, or nil when the descriptor has none or
// it does not parse.
func (d *Descriptor) SemVer() *semver.Version {
	if d.Version == "" {
		return nil
	}
	v, err := semver.NewVersion(d.Version)
	if err != nil {
		return nil
	}
	return v
}

// DisplayVersion returns the normalized version string, the raw string when
// it is not semver, or "-" when absent.
func (d *Descriptor) DisplayVersion() string {
	if v := d.SemVer(); v != nil {
		return v.String()
	}
	if d.Version != "" {
		return d.Version
	}
	return "-"
}
