// Package cars loads vehicle part configs.
//
// A catalog is described by a summary file mapping each car to its named configs and
// the file each config lives in:
//
//	{"etk800": {"etk854t_A": "cars_and_configs/etk800/etk854t_A.json"}}
//
// Configs are keyed "<car>__<config>". Files are read as JSON first and YAML second,
// since the simulator's own config files are often not strict JSON.
package cars

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/aretw0/bngenvs/pkg/domain"
	"gopkg.in/yaml.v3"
)

// SummaryFile is the conventional summary file name inside a catalog directory.
const SummaryFile = "cars_and_configs.json"

// Separator joins the car and config names of a catalog key.
const Separator = "__"

// Summary maps car -> config name -> config file path.
type Summary map[string]map[string]string

// Catalog is an in-memory set of named part configs. It implements domain.PartCatalog.
type Catalog struct {
	summary Summary
	configs map[string]domain.PartConfig
}

// NewCatalog builds a catalog from already parsed configs.
func NewCatalog(configs map[string]domain.PartConfig) *Catalog {
	c := &Catalog{summary: Summary{}, configs: make(map[string]domain.PartConfig, len(configs))}
	for name, cfg := range configs {
		c.configs[name] = cfg.Clone()
	}
	return c
}

// Load reads the summary at path and every config it lists. Relative config paths are
// tried as given first and then relative to the summary's directory.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read car config summary: %w", err)
	}
	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode car config summary %s: %w", path, err)
	}

	c := &Catalog{summary: summary, configs: make(map[string]domain.PartConfig)}
	base := filepath.Dir(path)
	for car, configs := range summary {
		for name, file := range configs {
			cfg, err := ReadPartConfig(resolve(base, file))
			if err != nil {
				return nil, fmt.Errorf("failed to load %s%s%s: %w", car, Separator, name, err)
			}
			c.configs[car+Separator+name] = cfg
		}
	}
	return c, nil
}

// LoadDir loads the catalog whose summary sits in dir.
func LoadDir(dir string) (*Catalog, error) {
	return Load(filepath.Join(dir, SummaryFile))
}

func resolve(base, file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	if _, err := os.Stat(file); err == nil {
		return file
	}
	return filepath.Join(base, file)
}

// ReadPartConfig parses one part config file.
func ReadPartConfig(path string) (domain.PartConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.PartConfig{}, err
	}
	return ParsePartConfig(data)
}

// ParsePartConfig decodes JSON, falling back to YAML.
func ParsePartConfig(data []byte) (domain.PartConfig, error) {
	var cfg domain.PartConfig
	jsonErr := json.Unmarshal(data, &cfg)
	if jsonErr != nil {
		cfg = domain.PartConfig{}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return domain.PartConfig{}, fmt.Errorf("part config is neither JSON (%v) nor YAML: %w", jsonErr, err)
		}
	}
	if cfg.Parts == nil {
		cfg.Parts = map[string]string{}
	}
	if cfg.Vars == nil {
		cfg.Vars = map[string]float64{}
	}
	return cfg, nil
}

// Lookup returns a copy of the named config.
func (c *Catalog) Lookup(name string) (domain.PartConfig, bool) {
	cfg, ok := c.configs[name]
	if !ok {
		return domain.PartConfig{}, false
	}
	return cfg.Clone(), true
}

// Names returns every config key, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.configs))
	for name := range c.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Cars returns the cars in the summary, sorted.
func (c *Catalog) Cars() []string {
	cars := make([]string, 0, len(c.summary))
	for car := range c.summary {
		cars = append(cars, car)
	}
	sort.Strings(cars)
	return cars
}

// Len is the number of configs.
func (c *Catalog) Len() int { return len(c.configs) }

var _ domain.PartCatalog = (*Catalog)(nil)
