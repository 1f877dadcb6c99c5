package source

import (
	"fmt"
)

// Span is a half-open byte range inside one file.
type Span struct {
	File  FileID
	Start uint32 // включительно
	End   uint32 // не включительно
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Contains reports whether other lies entirely inside s.
func (s Span) Contains(other Span) bool {
	return s.File == other.File && s.Start <= other.Start && other.End <= s.End
}

// ContainsOffset reports whether off is inside s. The end offset counts as
// inside so a cursor placed right after a word still hits it.
func (s Span) ContainsOffset(off uint32) bool {
	return s.Start <= off && off <= s.End
}

// Cover returns the smallest span including both s and other.
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// Text returns the bytes covered by the span.
func (s Span) Text(f *File) string {
	if f == nil || int(s.End) > len(f.Content) || s.Start > s.End {
		return ""
	}
	return string(f.Content[s.Start:s.End])
}
