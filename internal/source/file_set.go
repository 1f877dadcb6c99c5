package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"fortio.org/safecast"
)

// FileSet owns every loaded quest document and resolves spans to positions.
// It is not safe for concurrent mutation; workspace analysis loads all files
// before fanning out to workers.
type FileSet struct {
	files   []File
	index   map[string]FileID // path -> latest id
	baseDir string            // для относительных путей в выводе
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		index: make(map[string]FileID),
	}
}

// NewFileSetWithBase создаёт FileSet с заданной базовой директорией.
func NewFileSetWithBase(baseDir string) *FileSet {
	fs := NewFileSet()
	fs.baseDir = baseDir
	return fs
}

// BaseDir returns the directory used for relative paths, defaulting to the
// working directory.
func (fileSet *FileSet) BaseDir() string {
	if fileSet.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return fileSet.baseDir
}

// Add stores already normalized content and returns a fresh FileID, even when
// the path was seen before. The path index always points to the newest copy.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	if _, err := safecast.Conv[uint32](len(content)); err != nil {
		panic(fmt.Errorf("file %s too large: %w", path, err))
	}
	lenFiles, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(lenFiles)
	normalizedPath := normalizePath(path)
	fileSet.files = append(fileSet.files, File{
		ID:      id,
		Path:    normalizedPath,
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	})
	fileSet.index[normalizedPath] = id
	return id
}

// Load reads a document from disk, decodes legacy code pages and normalizes
// BOM/CRLF before calling Add.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	content, flags := Normalize(content)
	return fileSet.Add(path, content, flags), nil
}

// Normalize applies the same transformations as Load to in-memory content.
func Normalize(content []byte) ([]byte, FileFlags) {
	var flags FileFlags
	content, hadBOM := removeBOM(content)
	if hadBOM {
		flags |= FileHadBOM
	}
	content, legacy := decodeLegacy(content)
	if legacy {
		flags |= FileDecodedLegacy
	}
	content, hadCRLF := normalizeCRLF(content)
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return content, flags
}

// AddVirtual adds a document that does not come from disk.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	content, flags := Normalize(content)
	return fileSet.Add(name, content, flags|FileVirtual)
}

// Get returns the file for id. It panics on an unknown id.
func (fileSet *FileSet) Get(id FileID) *File {
	return &fileSet.files[id]
}

// Len returns the number of stored files, including superseded versions.
func (fileSet *FileSet) Len() int {
	return len(fileSet.files)
}

// GetLatest returns the newest file ID stored for path.
func (fileSet *FileSet) GetLatest(path string) (FileID, bool) {
	id, ok := fileSet.index[normalizePath(path)]
	return id, ok
}

// Resolve converts a span into line and column positions.
func (fileSet *FileSet) Resolve(span Span) (start, end LineCol) {
	f := &fileSet.files[span.File]
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// LineCount returns the number of lines. Trailing newline starts one more
// (empty) line.
func (f *File) LineCount() int {
	return len(f.LineIdx) + 1
}

// LineStart returns the byte offset of 0-based line i.
func (f *File) LineStart(i int) uint32 {
	if i <= 0 {
		return 0
	}
	return f.LineIdx[i-1] + 1
}

// LineEnd returns the offset just past the text of 0-based line i, excluding '\n'.
func (f *File) LineEnd(i int) uint32 {
	if i < len(f.LineIdx) {
		return f.LineIdx[i]
	}
	n, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	return n
}

// Line returns the text of 0-based line i without its terminator.
func (f *File) Line(i int) string {
	if i < 0 || i >= f.LineCount() {
		return ""
	}
	return string(f.Content[f.LineStart(i):f.LineEnd(i)])
}

// LineSpan returns the span of 0-based line i.
func (f *File) LineSpan(i int) Span {
	return Span{File: f.ID, Start: f.LineStart(i), End: f.LineEnd(i)}
}

// LineOf returns the 0-based line containing off.
func (f *File) LineOf(off uint32) int {
	return int(toLineCol(f.LineIdx, off).Line) - 1
}

// GetLine возвращает строку с заданным номером (1-based).
func (f *File) GetLine(lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}
	return f.Line(int(lineNum) - 1)
}

// FormatPath renders the path for output.
// mode: "absolute", "relative", "basename", "auto"
func (f *File) FormatPath(mode, baseDir string) string {
	switch mode {
	case "absolute":
		if abs, err := AbsolutePath(f.Path); err == nil {
			return abs
		}
	case "relative":
		if f.Flags&FileVirtual != 0 {
			return f.Path
		}
		if baseDir == "" {
			if wd, err := os.Getwd(); err == nil {
				baseDir = wd
			}
		}
		if rel, err := RelativePath(f.Path, baseDir); err == nil {
			return rel
		}
	case "basename":
		return BaseName(f.Path)
	case "auto":
		if len(f.Path) < 40 || !filepath.IsAbs(f.Path) {
			return f.Path
		}
		return BaseName(f.Path)
	}
	return f.Path
}
