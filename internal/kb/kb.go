// Package kb is the read-only knowledge base consulted by the parser and the
// checks: keyword and definition tables, the action catalog, static message
// aliases, global variables and attribute value sets.
package kb

import (
	"crypto/sha256"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"dftemplate/internal/diag"
	"dftemplate/internal/source"
)

//go:embed data/*.json
var embedded embed.FS

// Table names one of the knowledge base files.
type Table string

const (
	LanguageTable Table = "language"
	ModulesTable  Table = "modules"
	TablesTable   Table = "tables"
)

var tables = []Table{LanguageTable, ModulesTable, TablesTable}

// AllTables lists the table files in load order.
func AllTables() []Table {
	return append([]Table(nil), tables...)
}

func (t Table) FileName() string   { return string(t) + ".json" }
func (t Table) schemaName() string { return string(t) + ".schema.json" }

// KnowledgeBase is immutable after loading and safe for concurrent use.
type KnowledgeBase struct {
	Language *Language
	Modules  *Modules
	Tables   *Tables

	hash [32]byte
}

// Hash identifies the table contents; it is part of cache keys.
func (kb *KnowledgeBase) Hash() [32]byte {
	return kb.hash
}

var defaultKB = sync.OnceValues(func() (*KnowledgeBase, error) {
	return Load(nil, "", nil)
})

// Default returns the embedded knowledge base.
func Default() *KnowledgeBase {
	kb, err := defaultKB()
	if err != nil {
		panic(fmt.Sprintf("kb: embedded tables are invalid: %v", err))
	}
	return kb
}

// Embedded returns the raw embedded content of a table.
func Embedded(t Table) ([]byte, error) {
	return embedded.ReadFile("data/" + t.FileName())
}

// Load builds a knowledge base from the table files in dir. Missing files fall
// back to the embedded tables. A file failing its schema is reported as
// KB6001, a file with an unusable entry as KB6002; both are replaced by the
// embedded table. An empty dir loads the embedded tables only.
func Load(files *source.FileSet, dir string, r diag.Reporter) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{}
	h := sha256.New()
	for _, t := range tables {
		raw, err := Embedded(t)
		if err != nil {
			return nil, err
		}
		if dir != "" {
			if content, ok, err := loadOverride(files, dir, t, r, kb); err != nil {
				return nil, err
			} else if ok {
				raw = content
			}
		}
		if raw != nil && !kb.installed(t) {
			if err := kb.install(t, raw); err != nil {
				return nil, fmt.Errorf("kb: embedded %s: %w", t.FileName(), err)
			}
		}
		h.Write([]byte(t))
		h.Write(raw)
	}
	copy(kb.hash[:], h.Sum(nil))
	return kb, nil
}

// loadOverride installs the table file from dir when it is valid.
func loadOverride(files *source.FileSet, dir string, t Table, r diag.Reporter, kb *KnowledgeBase) ([]byte, bool, error) {
	path := filepath.Join(dir, t.FileName())
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kb: read %s: %w", path, err)
	}
	report := func(code diag.Code, detail error) {
		if r == nil || files == nil {
			return
		}
		id := files.Add(path, content, 0)
		span := files.Get(id).LineSpan(0)
		msg := "Table entry does not implement schema."
		if code == diag.KbInvalidEntry {
			msg = fmt.Sprintf("Invalid entry in %s.", t.FileName())
		}
		diag.ReportError(r, code, span, msg).WithNote(span, detail.Error()).Emit()
	}
	if err := Validate(t, content); err != nil {
		report(diag.KbSchemaMismatch, err)
		return nil, false, nil
	}
	if err := kb.install(t, content); err != nil {
		report(diag.KbInvalidEntry, err)
		return nil, false, nil
	}
	return content, true, nil
}

func (kb *KnowledgeBase) installed(t Table) bool {
	switch t {
	case LanguageTable:
		return kb.Language != nil
	case ModulesTable:
		return kb.Modules != nil
	default:
		return kb.Tables != nil
	}
}

func (kb *KnowledgeBase) install(t Table, raw []byte) error {
	switch t {
	case LanguageTable:
		l, err := parseLanguage(raw)
		if err != nil {
			return err
		}
		kb.Language = l
	case ModulesTable:
		m, err := parseModules(raw)
		if err != nil {
			return err
		}
		kb.Modules = m
	case TablesTable:
		tb, err := parseTables(raw)
		if err != nil {
			return err
		}
		kb.Tables = tb
	default:
		return fmt.Errorf("unknown table %q", t)
	}
	return nil
}
