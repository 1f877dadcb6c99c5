package parser

import (
	"regexp"
	"strconv"

	"dftemplate/internal/source"
)

var (
	messageIDLine    = regexp.MustCompile(`^\s*Message:\s+([0-9]+)`)
	staticMessage    = regexp.MustCompile(`^\s*(.*):\s+\[\s*([0-9]+)\s*\]\s*$`)
	blockEndingLine  = regexp.MustCompile(`^\s*(\s*-.*|.*\[\s*([0-9]+)\s*\]|Message:\s*([0-9]+)|QBN:)\s*$`)
	contextMacroWord = regexp.MustCompile(`%[a-z0-9]+\b`)
)

// MessageHeader is a recognized "Message: n" or "Alias: [n]" line. Offsets
// are relative to the line start.
type MessageHeader struct {
	ID         int
	Alias      string
	IDStart    int
	IDEnd      int
	AliasStart int
}

// ParseMessageHeader recognizes both message header forms.
func ParseMessageHeader(line string) (MessageHeader, bool) {
	if m := messageIDLine.FindStringSubmatchIndex(line); m != nil {
		id, err := strconv.Atoi(line[m[2]:m[3]])
		if err == nil {
			return MessageHeader{ID: id, IDStart: m[2], IDEnd: m[3]}, true
		}
	}
	if m := staticMessage.FindStringSubmatchIndex(line); m != nil {
		id, err := strconv.Atoi(line[m[4]:m[5]])
		if err == nil {
			return MessageHeader{
				ID:         id,
				Alias:      line[m[2]:m[3]],
				IDStart:    m[4],
				IDEnd:      m[5],
				AliasStart: m[2],
			}, true
		}
	}
	return MessageHeader{}, false
}

// MessageBlock follows the text of one message as lines are fed to it.
type MessageBlock struct {
	file *source.File
	line int
}

// NewMessageBlock opens a block whose header is on 0-based line.
func NewMessageBlock(file *source.File, line int) *MessageBlock {
	return &MessageBlock{file: file, line: line}
}

// CurrentLine is the last line checked.
func (b *MessageBlock) CurrentLine() int {
	return b.line
}

// IsInside advances the block to target and reports whether target is still
// part of the message text. Skipped lines are checked for a block ending on
// the way. The block ends at an empty line followed by another empty line or
// by something that looks like a declaration.
func (b *MessageBlock) IsInside(target int) bool {
	for {
		b.line++
		if b.line >= b.file.LineCount() {
			return false
		}
		if len(b.file.Line(b.line)) == 0 && b.nextLineIsBlockEnding() {
			return false
		}
		if target <= b.line {
			return true
		}
	}
}

func (b *MessageBlock) nextLineIsBlockEnding() bool {
	next := b.line + 1
	if next >= b.file.LineCount() {
		return false
	}
	text := b.file.Line(next)
	return len(text) == 0 || blockEndingLine.MatchString(text)
}

// macroOffsets returns the [start,end) offsets of context macros in text.
func macroOffsets(text string) [][]int {
	return contextMacroWord.FindAllStringIndex(text, -1)
}
