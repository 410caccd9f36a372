package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"quill/internal/printer"
	"quill/internal/version"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 2

// Digest identifies one (input, options) pair.
type Digest [32]byte

// CacheKey hashes the raw input together with everything that affects the
// output: the option fingerprints and the formatter version.
func CacheKey(raw []byte, fingerprints ...string) Digest {
	h := sha256.New()
	_, _ = h.Write([]byte(version.Version))
	_, _ = h.Write([]byte{0})
	for _, fp := range fingerprints {
		_, _ = h.Write([]byte(fp))
		_, _ = h.Write([]byte{0})
	}
	_, _ = h.Write(raw)
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// DiskCache stores formatted output by CacheKey. Only successful results are
// stored, so a hit never needs a parse. Thread-safe.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is the msgpack record written per key.
type DiskPayload struct {
	Schema  uint16
	Output  []byte
	Markers []uint32 // source, dest pairs
	Stats   printer.Stats

	// Verified is set when the output passed the idempotence check.
	Verified bool
}

// OpenDiskCache opens $XDG_CACHE_HOME/<app> (or ~/.cache/<app>).
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDiskCacheAt(filepath.Join(base, app))
}

// OpenDiskCacheAt opens a cache rooted at dir, creating it.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	// двухсимвольные подкаталоги, чтобы не раздувать один каталог
	return filepath.Join(c.dir, "fmt", hexKey[:2], hexKey+".mp")
}

// Put serializes and atomically writes a payload.
func (c *DiskCache) Put(key Digest, payload *DiskPayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	payload.Schema = diskCacheSchemaVersion
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(tmp, p)
}

// Get reads a payload. Entries from another schema count as misses.
func (c *DiskCache) Get(key Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	if out.Schema != diskCacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "fmt"))
}

func packMarkers(ms []printer.SourceMarker) []uint32 {
	out := make([]uint32, 0, 2*len(ms))
	for _, m := range ms {
		out = append(out, m.Source, m.Dest)
	}
	return out
}

func unpackMarkers(flat []uint32) []printer.SourceMarker {
	out := make([]printer.SourceMarker, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		out = append(out, printer.SourceMarker{Source: flat[i], Dest: flat[i+1]})
	}
	return out
}
