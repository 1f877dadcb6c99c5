// Package parser turns the lines of a quest template into the quest model.
// Parsing never fails: lines that are not understood are recorded on their
// section and reported later by the checks.
package parser

import (
	"strings"

	"dftemplate/internal/kb"
	"dftemplate/internal/quest"
	"dftemplate/internal/signature"
	"dftemplate/internal/source"
)

// Context is the state carried from one line to the next.
type Context struct {
	Block quest.BlockKind
	// BlockStart is the first line of the current section, -1 until the
	// section has content.
	BlockStart int
	// Message is the open message text block in QRC.
	Message *MessageBlock
	// Actions receives the actions of QBN: the latest task with actions of
	// its own, or the entry point.
	Actions *[]*quest.Action
}

// Result is the model plus the classification of every line.
type Result struct {
	Quest *quest.Quest
	Lines []Kind
}

// Parser — состояние разбора одного документа
type Parser struct {
	file *source.File
	kb   *kb.KnowledgeBase
	q    *quest.Quest
	ctx  Context
	last int // последняя строка, отданная секции
}

// ParseFile parses a whole document.
func ParseFile(file *source.File, base *kb.KnowledgeBase) Result {
	p := &Parser{
		file: file,
		kb:   base,
		q:    quest.New(file, base),
		ctx:  Context{Block: quest.BlockPreamble, BlockStart: -1},
		last: -1,
	}
	p.ctx.Actions = &p.q.Qbn.EntryPoint

	lines := make([]Kind, file.LineCount())
	for i := range lines {
		lines[i] = p.parseLine(i)
	}
	p.finishBlock()
	return Result{Quest: p.q, Lines: lines}
}

func (p *Parser) block(kind quest.BlockKind) *quest.Block {
	switch kind {
	case quest.BlockPreamble:
		return &p.q.Preamble.Block
	case quest.BlockQRC:
		return &p.q.Qrc.Block
	default:
		return &p.q.Qbn.Block
	}
}

// finishBlock sets the range of the current section up to the last line
// that belonged to it.
func (p *Parser) finishBlock() {
	if p.ctx.BlockStart < 0 {
		return
	}
	end := max(p.last, p.ctx.BlockStart)
	span := p.file.LineSpan(p.ctx.BlockStart).Cover(p.file.LineSpan(end))
	p.block(p.ctx.Block).SetRange(span)
}

func (p *Parser) enterBlock(kind quest.BlockKind, line int) {
	p.finishBlock()
	p.ctx.Block = kind
	p.ctx.BlockStart = line
	p.ctx.Message = nil
	p.last = line
}

// isSkipped reports blank and "-" comment lines. Comments are recognized
// everywhere, message text included: such a line never joins Message.Body
// and its macros are not recorded, but it does not end the message either.
func isSkipped(text string) bool {
	trimmed := strings.TrimSpace(text)
	return trimmed == "" || strings.HasPrefix(trimmed, "-")
}

func (p *Parser) parseLine(i int) Kind {
	text := p.file.Line(i)
	if isSkipped(text) {
		return LineSkipped
	}

	// секции идут только вперёд: Preamble -> QRC -> QBN
	switch strings.TrimSpace(text) {
	case "QRC:":
		if p.ctx.Block == quest.BlockPreamble {
			p.enterBlock(quest.BlockQRC, i)
			return LineSection
		}
	case "QBN:":
		if p.ctx.Block != quest.BlockQBN {
			p.enterBlock(quest.BlockQBN, i)
			return LineSection
		}
	}

	if p.ctx.BlockStart < 0 {
		p.ctx.BlockStart = i
	}
	p.last = i

	var kind Kind
	switch p.ctx.Block {
	case quest.BlockPreamble:
		kind = p.parsePreamble(i, text)
	case quest.BlockQRC:
		kind = p.parseQrc(i, text)
	default:
		kind = p.parseQbn(i, text)
	}
	if kind == LineUnrecognized {
		b := p.block(p.ctx.Block)
		b.Failed = append(b.Failed, p.file.LineSpan(i))
	}
	return kind
}

func (p *Parser) tokens(i int, text string) []signature.Token {
	return signature.Split(p.file.ID, text, p.file.LineStart(i))
}

func (p *Parser) span(i, start, end int) source.Span {
	base := p.file.LineStart(i)
	return source.Span{File: p.file.ID, Start: base + uint32(start), End: base + uint32(end)}
}

func (p *Parser) parsePreamble(i int, text string) Kind {
	d, ok := p.parseDirective(i, text)
	if !ok {
		return LineUnrecognized
	}
	p.q.Preamble.Directives = append(p.q.Preamble.Directives, d)
	return LineDirective
}

// parseDirective recognizes "Keyword: value" for a known keyword.
func (p *Parser) parseDirective(i int, text string) (*quest.Directive, bool) {
	colon := strings.IndexByte(text, ':')
	if colon < 0 {
		return nil, false
	}
	name := strings.TrimSpace(text[:colon])
	kw, ok := p.kb.Language.Keyword(name)
	if !ok {
		return nil, false
	}
	nameStart := strings.Index(text, name)
	rest := text[colon+1:]
	value := strings.TrimSpace(rest)
	valueStart := colon + 1 + strings.Index(rest, value)
	return &quest.Directive{
		Name: name,
		Parameter: signature.Parameter{
			Type:  kw.ParamType,
			Value: value,
			Span:  p.span(i, valueStart, valueStart+len(value)),
		},
		Span: p.span(i, nameStart, nameStart+len(name)),
		Line: p.file.LineSpan(i),
	}, true
}

func (p *Parser) parseQrc(i int, text string) Kind {
	qrc := p.q.Qrc
	if len(qrc.Messages) > 0 && p.ctx.Message != nil && p.ctx.Message.IsInside(i) {
		p.parseMessageLine(i, text)
		return LineMessageBody
	}

	if h, ok := ParseMessageHeader(text); ok {
		msg := &quest.Message{
			ID:    h.ID,
			Alias: h.Alias,
			Span:  p.span(i, h.IDStart, h.IDEnd),
			Line:  p.file.LineSpan(i),
		}
		if h.Alias != "" {
			msg.AliasSpan = p.span(i, h.AliasStart, h.AliasStart+len(h.Alias))
		}
		qrc.Messages = append(qrc.Messages, msg)
		p.ctx.Message = NewMessageBlock(p.file, i)
		return LineMessage
	}

	p.ctx.Message = nil
	return LineUnrecognized
}

func (p *Parser) parseMessageLine(i int, text string) {
	qrc := p.q.Qrc
	msg := qrc.Messages[len(qrc.Messages)-1]
	msg.Body = append(msg.Body, p.file.LineSpan(i))
	for _, loc := range macroOffsets(text) {
		qrc.Macros = append(qrc.Macros, quest.ContextMacro{
			Symbol: text[loc[0]:loc[1]],
			Span:   p.span(i, loc[0], loc[1]),
		})
	}
}

func (p *Parser) parseQbn(i int, text string) Kind {
	tokens := p.tokens(i, text)
	words := signature.Texts(tokens)
	qbn := p.q.Qbn

	// определение символа: "Item _gold_ gold"
	if len(words) >= 2 && p.kb.Language.IsSymbolType(words[0]) {
		s := &quest.Symbol{
			Type: words[0],
			Name: words[1],
			Span: tokens[1].Span,
			Line: p.file.LineSpan(i),
		}
		if def, ok := p.kb.Language.FindDefinition(words[0], text); ok {
			s.Definition = def
			s.Signature = def.Bind(p.file.ID, text, p.file.LineStart(i))
			if s.Signature == nil {
				s.Signature = []signature.Parameter{}
			}
		}
		qbn.Symbols.Push(s.Base(), s)
		return LineSymbol
	}

	if h, ok := ParseTask(words, p.kb.Tables); ok {
		t := &quest.Task{
			Name:      words[h.Name],
			Kind:      h.Kind,
			GlobalVar: h.GlobalVar,
			Span:      tokens[h.Name].Span,
			Line:      p.file.LineSpan(i),
		}
		if t.Kind == quest.TaskPersistUntil {
			qbn.PersistUntil = append(qbn.PersistUntil, t)
		} else {
			qbn.Tasks.Push(t.Name, t)
		}
		if !t.IsVariable() {
			p.ctx.Actions = &t.Actions
		}
		return LineTask
	}

	if m, ok := p.kb.Modules.FindAction(words); ok {
		*p.ctx.Actions = append(*p.ctx.Actions, &quest.Action{
			Line:   p.file.LineSpan(i),
			Params: signature.Bind(m.Pattern(), tokens),
			Match:  m,
		})
		return LineAction
	}

	return LineUnrecognized
}
