package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"dftemplate/internal/diag"
	"dftemplate/internal/lint"
	"dftemplate/internal/source"
)

// Digest is a sha256 sum.
type Digest [32]byte

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores the lint findings of documents by content key.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is the cached result of linting one document. Spans are kept
// as offsets and rebound to the current FileID on load.
type DiskPayload struct {
	Schema      uint16
	Path        string
	Diagnostics []CachedDiagnostic
}

type CachedDiagnostic struct {
	Severity uint8
	Code     uint16
	Message  string
	Start    uint32
	End      uint32
	Notes    []CachedNote
	Fixes    []CachedFix
	Tags     uint8
}

type CachedNote struct {
	Start uint32
	End   uint32
	Msg   string
}

type CachedFix struct {
	Title string
	Edits []CachedEdit
}

type CachedEdit struct {
	Start   uint32
	End     uint32
	NewText string
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewDiskCache(filepath.Join(base, app))
}

// NewDiskCache opens a cache rooted at dir.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "docs", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key Digest, payload *DiskPayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		// после Rename файла уже нет
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	payload.Schema = diskCacheSchemaVersion
	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload. Entries written with another schema
// version are treated as missing.
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
	return out.Schema == diskCacheSchemaVersion, nil
}

// DropAll invalidates the cache.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// переименуем каталог и удалим
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}

// combineDigest: H(part1 || part2 ...).
func combineDigest(parts ...Digest) Digest {
	h := sha256.New()
	for _, p := range parts {
		_, _ = h.Write(p[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// optionsDigest fingerprints the lint options that change findings.
func optionsDigest(opts lint.Options) Digest {
	disabled := make([]string, len(opts.Disabled))
	for i, c := range opts.Disabled {
		disabled[i] = string(c)
	}
	slices.Sort(disabled)
	h := sha256.New()
	for _, name := range disabled {
		_, _ = h.Write([]byte(name))
		_, _ = h.Write([]byte{0})
	}
	_, _ = h.Write([]byte(strconv.FormatBool(opts.NoSuggestions)))
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// CacheKey combines document content, knowledge base and lint options.
func CacheKey(content, kb Digest, opts lint.Options) Digest {
	return combineDigest(content, kb, optionsDigest(opts))
}

func toPayload(path string, diags []diag.Diagnostic) *DiskPayload {
	out := &DiskPayload{Path: path, Diagnostics: make([]CachedDiagnostic, len(diags))}
	for i, d := range diags {
		cd := CachedDiagnostic{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			Start:    d.Primary.Start,
			End:      d.Primary.End,
			Tags:     uint8(d.Tags),
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, CachedNote{Start: n.Span.Start, End: n.Span.End, Msg: n.Msg})
		}
		for _, f := range d.Fixes {
			cf := CachedFix{Title: f.Title}
			for _, e := range f.Edits {
				cf.Edits = append(cf.Edits, CachedEdit{Start: e.Span.Start, End: e.Span.End, NewText: e.NewText})
			}
			cd.Fixes = append(cd.Fixes, cf)
		}
		out.Diagnostics[i] = cd
	}
	return out
}

// fromPayload rebinds cached findings to file.
func fromPayload(p *DiskPayload, file source.FileID, r diag.Reporter) {
	span := func(start, end uint32) source.Span {
		return source.Span{File: file, Start: start, End: end}
	}
	for _, cd := range p.Diagnostics {
		d := diag.Diagnostic{
			Severity: diag.Severity(cd.Severity),
			Code:     diag.Code(cd.Code),
			Message:  cd.Message,
			Primary:  span(cd.Start, cd.End),
			Tags:     diag.Tag(cd.Tags),
		}
		for _, n := range cd.Notes {
			d.Notes = append(d.Notes, diag.Note{Span: span(n.Start, n.End), Msg: n.Msg})
		}
		for _, f := range cd.Fixes {
			fix := diag.Fix{Title: f.Title}
			for _, e := range f.Edits {
				fix.Edits = append(fix.Edits, diag.FixEdit{Span: span(e.Start, e.End), NewText: e.NewText})
			}
			d.Fixes = append(d.Fixes, fix)
		}
		r.Report(d)
	}
}
