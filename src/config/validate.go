package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/feedkeeper/feedkeeper/src/ferrors"
)

const cacheFileSuffix = ".cache.bin"

// Validate checks structural invariants of a loaded Config. It returns
// warnings (non-fatal notices) and a hard error — a *ferrors.Error of
// kind InvalidConfiguration — if the config cannot be used as-is.
// Validate never prints; the CLI formats warnings itself.
func Validate(cfg *Config) (warnings []string, err error) {
	if cfg.InitialCacheRebuildAfterSeconds <= 0 {
		return warnings, ferrors.New(ferrors.InvalidConfiguration, "config.Validate",
			fmt.Sprintf("initialCacheRebuildAfterSeconds must be > 0, got %d", cfg.InitialCacheRebuildAfterSeconds))
	}
	if cfg.CacheRebuildFrequencyInMinutes <= 0 {
		return warnings, ferrors.New(ferrors.InvalidConfiguration, "config.Validate",
			fmt.Sprintf("cacheRebuildFrequencyInMinutes must be > 0, got %d", cfg.CacheRebuildFrequencyInMinutes))
	}
	if cfg.HashAlgorithm != SHA256 && cfg.HashAlgorithm != SHA512 {
		return warnings, ferrors.New(ferrors.InvalidConfiguration, "config.Validate",
			fmt.Sprintf("hashAlgorithm must be sha256 or sha512, got %q", cfg.HashAlgorithm))
	}

	name, nameWarnings, verr := normalizeCacheFileName(cfg.CacheFileName)
	if verr != nil {
		return warnings, verr
	}
	warnings = append(warnings, nameWarnings...)
	cfg.CacheFileName = name

	return warnings, nil
}

// normalizeCacheFileName validates that name, if non-empty, is a bare
// filename (no path separators, no absolute path, no traversal) and
// appends the ".cache.bin" suffix if it is missing, per spec.md §6. An
// empty name is left for the repository engine to default from the
// machine id.
func normalizeCacheFileName(name string) (normalized string, warnings []string, err error) {
	if name == "" {
		return "", nil, nil
	}

	base := filepath.Base(name)
	if base != name || filepath.IsAbs(name) || strings.ContainsAny(name, `/\:*?"<>|`) || strings.Contains(name, "..") {
		return "", nil, ferrors.New(ferrors.InvalidConfiguration, "config.Validate",
			fmt.Sprintf("cacheFileName must be a bare filename, got %q", name))
	}

	if !strings.HasSuffix(name, cacheFileSuffix) {
		warnings = append(warnings, fmt.Sprintf("cacheFileName %q does not end in %q; appending it", name, cacheFileSuffix))
		name += cacheFileSuffix
	}
	return name, warnings, nil
}
