// Package cache implements the metadata cache (spec.md §4.D): an
// in-memory catalog of ServerPackage records, indexed by
// case-insensitive id (an (id, version) lookup scans that id's records
// by semantic version equality), backed by a single JSON file under the
// repository root.
package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/feedkeeper/feedkeeper/src/fsx"
	"github.com/feedkeeper/feedkeeper/src/pkgmeta"
	"github.com/feedkeeper/feedkeeper/src/pkgver"
)

// SchemaVersion is the only accepted value of the cache file's
// SchemaVersion field; any other value, or any deserialization failure,
// causes Load to delete the file and start empty (spec.md §3).
const SchemaVersion = "3.0.0"

// fileFormat is the on-disk JSON shape.
type fileFormat struct {
	SchemaVersion string                  `json:"SchemaVersion"`
	Packages      []pkgmeta.ServerPackage `json:"Packages"`
}

// Cache is the in-memory catalog. All exported methods are safe for
// concurrent use.
type Cache struct {
	mu       sync.RWMutex
	fs       *fsx.FS
	fileName string
	byID     map[string][]pkgmeta.ServerPackage // key: lowercase id
	dirty    bool
}

// New creates an empty Cache that persists to fileName (root-relative)
// through fs.
func New(fs *fsx.FS, fileName string) *Cache {
	return &Cache{fs: fs, fileName: fileName, byID: map[string][]pkgmeta.ServerPackage{}}
}

// FileName returns the root-relative path the cache persists to.
func (c *Cache) FileName() string { return c.fileName }

// Load reads the cache file. Any deserialization error or schema
// mismatch deletes the file and leaves the cache empty, per spec.md §3
// invariant 7 and §4.D.
func (c *Cache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	exists, err := c.fs.Exists(c.fileName)
	if err != nil {
		return fmt.Errorf("cache: checking %s: %w", c.fileName, err)
	}
	if !exists {
		c.byID = map[string][]pkgmeta.ServerPackage{}
		return nil
	}

	rc, err := c.fs.Open(c.fileName)
	if err != nil {
		return fmt.Errorf("cache: opening %s: %w", c.fileName, err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return fmt.Errorf("cache: reading %s: %w", c.fileName, err)
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil || ff.SchemaVersion != SchemaVersion {
		// Self-heal: delete the corrupt or stale file and start empty.
		_ = c.fs.Remove(c.fileName)
		c.byID = map[string][]pkgmeta.ServerPackage{}
		return nil
	}

	byID := map[string][]pkgmeta.ServerPackage{}
	for _, p := range ff.Packages {
		key := strings.ToLower(p.ID)
		byID[key] = append(byID[key], p)
	}
	c.byID = byID
	c.dirty = false
	return nil
}

// Add upserts pkg. If enableDelisting is false and pkg.Listed is false,
// the entry is dropped instead of added — the "listed-only policy when
// delisting is off" from spec.md §4.D.
func (c *Cache) Add(pkg pkgmeta.ServerPackage, enableDelisting bool) {
	if !enableDelisting && !pkg.Listed {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := strings.ToLower(pkg.ID)
	list := c.byID[key]
	v, err := pkg.Version()
	if err != nil {
		return
	}
	replaced := false
	for i, existing := range list {
		ev, everr := existing.Version()
		if everr == nil && ev.Equal(v) {
			list[i] = pkg
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, pkg)
	}
	c.byID[key] = list
	c.dirty = true
}

// Remove removes (id, version): if enableDelisting, it flips Listed to
// false; otherwise it deletes the entry outright.
func (c *Cache) Remove(id string, v pkgver.Version, enableDelisting bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := strings.ToLower(id)
	list := c.byID[key]
	for i, existing := range list {
		ev, err := existing.Version()
		if err != nil || !ev.Equal(v) {
			continue
		}
		if enableDelisting {
			list[i].Listed = false
		} else {
			list = append(list[:i], list[i+1:]...)
		}
		c.byID[key] = list
		c.dirty = true
		return
	}
}

// Exists reports whether (id, version) has an entry, matching id
// case-insensitively and version by semantic equality (spec.md §4.D).
func (c *Cache) Exists(id string, v pkgver.Version) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, existing := range c.byID[strings.ToLower(id)] {
		ev, err := existing.Version()
		if err == nil && ev.Equal(v) {
			return true
		}
	}
	return false
}

// Find returns the entry for (id, version), or ok=false if absent.
func (c *Cache) Find(id string, v pkgver.Version) (pkgmeta.ServerPackage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, existing := range c.byID[strings.ToLower(id)] {
		ev, err := existing.Version()
		if err == nil && ev.Equal(v) {
			return existing, true
		}
	}
	return pkgmeta.ServerPackage{}, false
}

// ByID returns every version of id, in a stable copy.
func (c *Cache) ByID(id string) []pkgmeta.ServerPackage {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := c.byID[strings.ToLower(id)]
	out := make([]pkgmeta.ServerPackage, len(list))
	copy(out, list)
	return out
}

// GetAll returns a stable snapshot (a copy, not a live view) of every
// entry in the cache, per spec.md §4.D.
func (c *Cache) GetAll() []pkgmeta.ServerPackage {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []pkgmeta.ServerPackage
	for _, list := range c.byID {
		out = append(out, list...)
	}
	return out
}

// Replace atomically swaps the entire cache contents, used by the
// repository engine's rebuild step.
func (c *Cache) Replace(packages []pkgmeta.ServerPackage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	byID := map[string][]pkgmeta.ServerPackage{}
	for _, p := range packages {
		key := strings.ToLower(p.ID)
		byID[key] = append(byID[key], p)
	}
	c.byID = byID
	c.dirty = true
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID = map[string][]pkgmeta.ServerPackage{}
	c.dirty = true
}

// IsDirty reports whether the cache has unpersisted changes.
func (c *Cache) IsDirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

// PersistIfDirty persists the cache only if it has unpersisted changes.
func (c *Cache) PersistIfDirty() error {
	if !c.IsDirty() {
		return nil
	}
	return c.Persist()
}

// Persist writes the current cache contents to the cache file.
func (c *Cache) Persist() error {
	c.mu.Lock()
	var packages []pkgmeta.ServerPackage
	for _, list := range c.byID {
		packages = append(packages, list...)
	}
	c.dirty = false
	c.mu.Unlock()

	data, err := json.Marshal(fileFormat{SchemaVersion: SchemaVersion, Packages: packages})
	if err != nil {
		return fmt.Errorf("cache: marshaling: %w", err)
	}

	return c.fs.CreateAtomic(c.fileName, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
