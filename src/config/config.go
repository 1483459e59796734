// Package config loads and validates feedkeeper's repository engine
// configuration, following the teacher's YAML-with-KnownFields,
// defaults-then-overlay, Load/LoadWithWarnings/Validate layering. TOML
// config files (by ".toml" extension) are also accepted, decoded with
// github.com/pelletier/go-toml/v2 — the same library the teacher uses
// to parse dependency manifests in its freshness checks.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".feedkeeper.yml"

// HashAlgorithm names the digest used to hash ingested archives.
type HashAlgorithm string

const (
	SHA256 HashAlgorithm = "sha256"
	SHA512 HashAlgorithm = "sha512"
)

// Config is the repository engine's full configuration, the eight
// options from spec.md §6 plus the repository root and hash algorithm.
type Config struct {
	Root string `yaml:"root" toml:"root"`

	EnableDelisting                    bool          `yaml:"enableDelisting" toml:"enableDelisting"`
	EnableFrameworkFiltering            bool          `yaml:"enableFrameworkFiltering" toml:"enableFrameworkFiltering"`
	IgnoreSymbolsPackages               bool          `yaml:"ignoreSymbolsPackages" toml:"ignoreSymbolsPackages"`
	AllowOverrideExistingPackageOnPush  bool          `yaml:"allowOverrideExistingPackageOnPush" toml:"allowOverrideExistingPackageOnPush"`
	EnableFileSystemMonitoring          bool          `yaml:"enableFileSystemMonitoring" toml:"enableFileSystemMonitoring"`
	CacheFileName                       string        `yaml:"cacheFileName" toml:"cacheFileName"`
	InitialCacheRebuildAfterSeconds     int           `yaml:"initialCacheRebuildAfterSeconds" toml:"initialCacheRebuildAfterSeconds"`
	CacheRebuildFrequencyInMinutes      int           `yaml:"cacheRebuildFrequencyInMinutes" toml:"cacheRebuildFrequencyInMinutes"`
	HashAlgorithm                       HashAlgorithm `yaml:"hashAlgorithm" toml:"hashAlgorithm"`
}

// Load reads configuration from a YAML file (TOML for a ".toml" path),
// discarding warnings. If
// path is empty it tries the default file; a missing file yields
// defaults rather than an error.
func Load(path string) (*Config, error) {
	cfg, _, err := LoadWithWarnings(path)
	return cfg, err
}

// LoadWithWarnings reads configuration from a YAML file (TOML for a
// ".toml" path) and returns validation warnings alongside the config.
func LoadWithWarnings(path string) (*Config, []string, error) {
	if path == "" {
		path = defaultConfigFile
	}

	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			warnings, verr := Validate(cfg)
			return cfg, warnings, verr
		}
		return nil, nil, err
	}

	if strings.HasSuffix(path, ".toml") {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	warnings, verr := Validate(cfg)
	if verr != nil {
		return nil, warnings, verr
	}
	return cfg, warnings, nil
}

// Defaults returns a Config populated with spec.md §6's default values.
func Defaults() *Config {
	return &Config{
		EnableDelisting:                    false,
		EnableFrameworkFiltering:           false,
		IgnoreSymbolsPackages:              false,
		AllowOverrideExistingPackageOnPush: true,
		EnableFileSystemMonitoring:         true,
		CacheFileName:                      "",
		InitialCacheRebuildAfterSeconds:    15,
		CacheRebuildFrequencyInMinutes:     60,
		HashAlgorithm:                      SHA512,
	}
}
