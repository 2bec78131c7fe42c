// Package config holds the YAML-based defaults a host process may tune:
// worker counts for the scanner and resolver, the resolver's LRU cache
// capacity, and the default comparison mode. Grounded on mutagen's
// pkg/configuration/global (a plain YAML-tagged struct loaded via
// pkg/encoding's strict-decode helpers), narrowed to this module's
// concerns since there is no session/forwarding configuration here.
package config

import (
	"github.com/dualpane/corefs/pkg/encoding"
	"github.com/dualpane/corefs/pkg/entrymodel"
)

// Defaults used when a field is zero-valued after loading (or when no
// configuration file exists at all).
const (
	DefaultResolverCacheCapacity = 1024
	DefaultResolverWorkers       = 0 // 0 selects runtime.NumCPU() at call sites.
	DefaultScanWorkers           = 0
	DefaultCompareMode           = entrymodel.ModeSmart
)

// Configuration is the root YAML configuration object.
type Configuration struct {
	// Scan holds scanner-specific defaults.
	Scan struct {
		// Workers bounds scan concurrency. Zero selects runtime.NumCPU().
		Workers int `yaml:"workers"`
	} `yaml:"scan"`
	// Resolve holds dir-resolver defaults.
	Resolve struct {
		// Workers bounds resolver concurrency. Zero selects runtime.NumCPU().
		Workers int `yaml:"workers"`
		// CacheCapacity bounds the resolver's LRU verdict cache.
		CacheCapacity int `yaml:"cacheCapacity"`
	} `yaml:"resolve"`
	// Compare holds comparator defaults.
	Compare struct {
		// DefaultMode is used when a compare verb omits an explicit mode.
		DefaultMode entrymodel.CompareMode `yaml:"defaultMode"`
	} `yaml:"compare"`
}

// Default returns a Configuration populated with this package's defaults.
func Default() *Configuration {
	cfg := &Configuration{}
	cfg.Scan.Workers = DefaultScanWorkers
	cfg.Resolve.Workers = DefaultResolverWorkers
	cfg.Resolve.CacheCapacity = DefaultResolverCacheCapacity
	cfg.Compare.DefaultMode = DefaultCompareMode
	return cfg
}

// Load attempts to load a YAML configuration file from path on top of
// Default(), so fields the file omits keep their default values. On any
// failure it returns nil and the error (os.IsNotExist errors are passed
// through to the caller so it can distinguish "no config file" from
// "malformed config file").
func Load(path string) (*Configuration, error) {
	cfg := Default()
	if err := encoding.LoadAndUnmarshalYAML(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyZeroDefaults()
	return cfg, nil
}

// applyZeroDefaults fills in any field left at its zero value by a partial
// YAML document (e.g. a file that only overrides compare.defaultMode).
func (c *Configuration) applyZeroDefaults() {
	if c.Resolve.CacheCapacity == 0 {
		c.Resolve.CacheCapacity = DefaultResolverCacheCapacity
	}
	if c.Compare.DefaultMode == "" {
		c.Compare.DefaultMode = DefaultCompareMode
	}
}
