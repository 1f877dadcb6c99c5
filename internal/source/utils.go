package source

import (
	"bytes"
	"fmt"
	"path/filepath"
	"slices"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// normalizeCRLF заменяет все \r\n на \n, не трогая одиночные \r.
func normalizeCRLF(content []byte) ([]byte, bool) {
	if !slices.Contains(content, '\r') {
		return content, false
	}
	out := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	return out, len(out) != len(content)
}

func removeBOM(content []byte) ([]byte, bool) {
	if bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}) {
		return content[3:], true
	}
	return content, false
}

// decodeLegacy re-encodes Windows-1252 text as UTF-8. Quest templates shipped
// with the classic game data use that code page for accented names.
func decodeLegacy(content []byte) ([]byte, bool) {
	if utf8.Valid(content) {
		return content, false
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(content)
	if err != nil {
		return content, false
	}
	return out, true
}

func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, bytes.Count(content, []byte{'\n'}))
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i))
		}
	}
	return out
}

func toLineCol(lineIdx []uint32, off uint32) LineCol {
	// первая строка, у которой '\n' стоит не раньше off
	line, _ := slices.BinarySearch(lineIdx, off)
	var startOff uint32
	if line > 0 {
		startOff = lineIdx[line-1] + 1
	}
	return LineCol{Line: uint32(line + 1), Col: off - startOff + 1}
}

func normalizePath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

// AbsolutePath returns p as an absolute, slash-separated path.
func AbsolutePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(abs), nil
}

// RelativePath returns p relative to baseDir, or the absolute path when p
// lives outside baseDir.
func RelativePath(p, baseDir string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil || rel == ".." || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator) {
		return filepath.ToSlash(abs), nil
	}
	return filepath.ToSlash(rel), nil
}

// BaseName returns the last element of p.
func BaseName(p string) string {
	return filepath.Base(p)
}

// Denormalize reverses Normalize for content about to be written back:
// CRLF line ends, the Windows-1252 code page and the BOM are restored as
// flags record them.
func Denormalize(content []byte, flags FileFlags) ([]byte, error) {
	out := content
	if flags&FileNormalizedCRLF != 0 {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte("\r\n"))
	}
	if flags&FileDecodedLegacy != 0 {
		encoded, err := charmap.Windows1252.NewEncoder().Bytes(out)
		if err != nil {
			return nil, fmt.Errorf("re-encode as Windows-1252: %w", err)
		}
		out = encoded
	}
	if flags&FileHadBOM != 0 {
		out = append([]byte{0xEF, 0xBB, 0xBF}, out...)
	}
	return out, nil
}
