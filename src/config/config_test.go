package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/feedkeeper/feedkeeper/src/config"
	"github.com/feedkeeper/feedkeeper/src/ferrors"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := config.Defaults()
	if cfg.HashAlgorithm != want.HashAlgorithm || cfg.InitialCacheRebuildAfterSeconds != want.InitialCacheRebuildAfterSeconds {
		t.Errorf("cfg = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadOverlaysYAMLOntoDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedkeeper.yml")
	os.WriteFile(path, []byte("root: /srv/feed\nenableDelisting: true\n"), 0o644)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Root != "/srv/feed" {
		t.Errorf("Root = %q, want /srv/feed", cfg.Root)
	}
	if !cfg.EnableDelisting {
		t.Errorf("EnableDelisting = false, want true")
	}
	// Untouched fields keep their defaults.
	if cfg.CacheRebuildFrequencyInMinutes != 60 {
		t.Errorf("CacheRebuildFrequencyInMinutes = %d, want 60", cfg.CacheRebuildFrequencyInMinutes)
	}
}

func TestLoadOverlaysTOMLOntoDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedkeeper.toml")
	os.WriteFile(path, []byte("root = \"/srv/feed\"\nenableDelisting = true\n"), 0o644)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Root != "/srv/feed" {
		t.Errorf("Root = %q, want /srv/feed", cfg.Root)
	}
	if !cfg.EnableDelisting {
		t.Errorf("EnableDelisting = false, want true")
	}
	// Untouched fields keep their defaults.
	if cfg.CacheRebuildFrequencyInMinutes != 60 {
		t.Errorf("CacheRebuildFrequencyInMinutes = %d, want 60", cfg.CacheRebuildFrequencyInMinutes)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedkeeper.yml")
	os.WriteFile(path, []byte("notAField: true\n"), 0o644)

	if _, err := config.Load(path); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestValidateRejectsBadHashAlgorithm(t *testing.T) {
	cfg := config.Defaults()
	cfg.HashAlgorithm = "md5"

	_, err := config.Validate(cfg)
	if kind, ok := ferrors.KindOf(err); !ok || kind != ferrors.InvalidConfiguration {
		t.Fatalf("err = %v, want InvalidConfiguration", err)
	}
}

func TestValidateRejectsPathLikeCacheFileName(t *testing.T) {
	cfg := config.Defaults()
	cfg.CacheFileName = "foo:bar/baz"

	_, err := config.Validate(cfg)
	if kind, ok := ferrors.KindOf(err); !ok || kind != ferrors.InvalidConfiguration {
		t.Fatalf("err = %v, want InvalidConfiguration", err)
	}
}

func TestValidateAppendsCacheSuffixWithWarning(t *testing.T) {
	cfg := config.Defaults()
	cfg.CacheFileName = "mycache"

	warnings, err := config.Validate(cfg)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.CacheFileName != "mycache.cache.bin" {
		t.Errorf("CacheFileName = %q, want mycache.cache.bin", cfg.CacheFileName)
	}
	if len(warnings) != 1 {
		t.Errorf("warnings = %v, want exactly one", warnings)
	}
}

func TestValidateAcceptsNameAlreadySuffixed(t *testing.T) {
	cfg := config.Defaults()
	cfg.CacheFileName = "mycache.cache.bin"

	warnings, err := config.Validate(cfg)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
}
