// Package profile loads named column-binding profiles from YAML so
// recurring datasets do not need their column flags repeated on every
// invocation.
package profile

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Profile binds the column names and join key for one dataset family.
type Profile struct {
	IDCol        string `yaml:"id_col"`
	LatCol       string `yaml:"lat_col"`
	LonCol       string `yaml:"lon_col"`
	ValueCol     string `yaml:"value_col"`
	PolygonIDKey string `yaml:"polygon_id_key"`
	KNeighbors   int    `yaml:"k_neighbors"`
}

// Config is the top-level profiles document.
type Config struct {
	Defaults Profile            `yaml:"defaults"`
	Profiles map[string]Profile `yaml:"profiles"`
}

// Load reads a profiles file and fills every profile's empty fields
// from the defaults block.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "profile: read %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, eris.Wrap(err, "profile: parse")
	}

	for name, p := range cfg.Profiles {
		cfg.Profiles[name] = mergeDefaults(p, cfg.Defaults)
	}
	return &cfg, nil
}

// Get returns the named profile. An empty name yields the defaults
// block; an unknown name is an error listing what the file defines.
func (c *Config) Get(name string) (Profile, error) {
	if name == "" {
		return c.Defaults, nil
	}
	if p, ok := c.Profiles[name]; ok {
		return p, nil
	}

	known := make([]string, 0, len(c.Profiles))
	for n := range c.Profiles {
		known = append(known, n)
	}
	sort.Strings(known)
	return Profile{}, eris.Errorf("profile: unknown profile %q (have: %s)",
		name, strings.Join(known, ", "))
}

func mergeDefaults(p, d Profile) Profile {
	if p.IDCol == "" {
		p.IDCol = d.IDCol
	}
	if p.LatCol == "" {
		p.LatCol = d.LatCol
	}
	if p.LonCol == "" {
		p.LonCol = d.LonCol
	}
	if p.ValueCol == "" {
		p.ValueCol = d.ValueCol
	}
	if p.PolygonIDKey == "" {
		p.PolygonIDKey = d.PolygonIDKey
	}
	if p.KNeighbors == 0 {
		p.KNeighbors = d.KNeighbors
	}
	return p
}
