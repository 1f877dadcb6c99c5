package diagfmt

import (
	"path/filepath"

	"dftemplate/internal/source"
)

func formatPath(fs *source.FileSet, f *source.File, mode PathMode) string {
	var path string
	switch mode {
	case PathModeAbsolute:
		path = f.FormatPath("absolute", "")
	case PathModeRelative:
		path = f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		path = f.FormatPath("basename", "")
	default:
		path = f.FormatPath("auto", "")
	}
	return filepath.ToSlash(path)
}

// resolvable reports whether span points into a loaded file. Load errors
// carry an empty span of a file that may not exist.
func resolvable(fs *source.FileSet, span source.Span) bool {
	if fs == nil || int(span.File) >= fs.Len() {
		return false
	}
	return int(span.End) <= len(fs.Get(span.File).Content)
}
