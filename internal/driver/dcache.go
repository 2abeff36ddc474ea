package driver

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"capsule/internal/diag"
	"capsule/internal/hir"
	"capsule/internal/project"
	"capsule/internal/source"
)

// Increment when DiskPayload changes shape.
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores per-file elaboration results keyed by content and
// settings. Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is what a cache entry holds. Spans are stored against file
// 0 and rebound on Restore.
type DiskPayload struct {
	Schema       uint16
	Path         string
	ContentHash  project.Digest
	Diagnostics  []diag.Diagnostic
	Environments []hir.EnvironmentView
	Broken       bool
}

// OpenDiskCache opens $XDG_CACHE_HOME/<app>, or ~/.cache/<app>.
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

// OpenDiskCacheAt opens a cache rooted at dir.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key project.Digest) string {
	return filepath.Join(c.dir, "files", key.String()+".mp")
}

// CacheKey derives the entry key for a file under opts. Anything that
// changes the bag contents must feed into it.
func CacheKey(file *source.File, opts *DiagnoseOptions) project.Digest {
	var flags project.Digest
	copy(flags[:], string(opts.Stage))
	flags[24] = boolByte(opts.IgnoreWarnings)
	flags[25] = boolByte(opts.WarningsAsErrors)
	flags[26] = byte(opts.MaxDiagnostics)
	flags[27] = byte(opts.MaxDiagnostics >> 8)
	flags[28] = byte(diskCacheSchemaVersion)
	return project.Combine(file.Hash, opts.Analysis.Fingerprint(), flags)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Put writes payload atomically through a temp file.
func (c *DiskCache) Put(key project.Digest, payload *DiskPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	payload.Schema = diskCacheSchemaVersion
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return err
	}
	if err := os.Rename(f.Name(), p); err != nil {
		_ = os.Remove(f.Name())
		return err
	}
	return nil
}

// Get reads the entry for key. Entries of another schema are misses.
func (c *DiskCache) Get(key project.Digest, out *DiskPayload) (bool, error) {
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
	return out.Schema == diskCacheSchemaVersion, nil
}

// DropAll removes every entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

// payloadFor snapshots a finished run. Timing diagnostics are left out.
func payloadFor(res *DiagnoseResult, envs []hir.EnvironmentView) *DiskPayload {
	payload := &DiskPayload{
		Path:         res.File.Path,
		ContentHash:  res.File.Hash,
		Environments: envs,
		Broken:       res.Bag.HasErrors(),
	}
	for _, d := range res.Bag.Items() {
		if d.Code == diag.ObsTimings {
			continue
		}
		payload.Diagnostics = append(payload.Diagnostics, rebind(d, 0))
	}
	return payload
}

// Restore returns the cached diagnostics bound to fileID.
func (p *DiskPayload) Restore(fileID source.FileID) []diag.Diagnostic {
	out := make([]diag.Diagnostic, 0, len(p.Diagnostics))
	for _, d := range p.Diagnostics {
		out = append(out, rebind(d, fileID))
	}
	return out
}

func rebind(d diag.Diagnostic, fileID source.FileID) diag.Diagnostic {
	d.Primary.File = fileID
	if len(d.Notes) > 0 {
		notes := make([]diag.Note, len(d.Notes))
		for i, n := range d.Notes {
			n.Span.File = fileID
			notes[i] = n
		}
		d.Notes = notes
	}
	if len(d.Fixes) > 0 {
		fixes := make([]diag.Fix, len(d.Fixes))
		for i, fix := range d.Fixes {
			edits := make([]diag.TextEdit, len(fix.Edits))
			for j, e := range fix.Edits {
				e.Span.File = fileID
				edits[j] = e
			}
			fix.Edits = edits
			fixes[i] = fix
		}
		d.Fixes = fixes
	}
	return d
}
