package source

type (
	// FileID uniquely identifies a quest document within a FileSet.
	FileID uint32
	// FileFlags encodes how the document content was normalized on load.
	FileFlags uint8
)

const (
	// FileVirtual marks content added from memory (tests, stdin, editor buffers).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
	// FileDecodedLegacy marks files re-encoded from Windows-1252.
	FileDecodedLegacy
)

// File holds the normalized UTF-8 text of one document and its line index.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // offsets of every '\n'
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol is a human-readable position.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based, in bytes
}
