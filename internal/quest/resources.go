package quest

import (
	"slices"

	"dftemplate/internal/kb"
	"dftemplate/internal/signature"
	"dftemplate/internal/source"
)

// Resource is anything declared by a quest line.
type Resource interface {
	// DeclSpan is the name token.
	DeclSpan() source.Span
	// BlockSpan covers the declaration and the content it owns.
	BlockSpan() source.Span
}

// Directive is a preamble line such as "Quest: S0000999".
type Directive struct {
	Name      string
	Parameter signature.Parameter
	Span      source.Span
	Line      source.Span
}

func (d *Directive) DeclSpan() source.Span  { return d.Span }
func (d *Directive) BlockSpan() source.Span { return d.Line }

// Symbol is a QBN resource declaration such as "Item _gold_ gold".
type Symbol struct {
	Type string
	// Name is the declared token verbatim.
	Name string
	Span source.Span
	Line source.Span
	// Signature is nil when no definition matched the line.
	Signature  []signature.Parameter
	Definition *kb.Definition
}

func (s *Symbol) DeclSpan() source.Span  { return s.Span }
func (s *Symbol) BlockSpan() source.Span { return s.Line }

// Base is the lookup key of the symbol.
func (s *Symbol) Base() string { return BaseSymbol(s.Name) }

// Valid reports whether the line matched a definition of its type.
func (s *Symbol) Valid() bool { return s.Signature != nil }

type TaskKind uint8

const (
	TaskStandard TaskKind = iota
	TaskRepeat
	TaskVariable
	TaskPersistUntil
	TaskGlobalVarLink
)

func (k TaskKind) String() string {
	switch k {
	case TaskStandard:
		return "task"
	case TaskRepeat:
		return "repeat"
	case TaskVariable:
		return "variable"
	case TaskPersistUntil:
		return "until"
	case TaskGlobalVarLink:
		return "globalvar"
	}
	return "unknown"
}

// Task owns the actions that follow its header.
type Task struct {
	Name string
	Kind TaskKind
	// GlobalVar is set for TaskGlobalVarLink.
	GlobalVar string
	Span      source.Span
	Line      source.Span
	Actions   []*Action
}

func (t *Task) DeclSpan() source.Span { return t.Span }

func (t *Task) BlockSpan() source.Span {
	if len(t.Actions) == 0 {
		return t.Line
	}
	return t.Line.Cover(t.Actions[len(t.Actions)-1].Line)
}

// IsVariable reports whether the task is a flag without actions of its own.
func (t *Task) IsVariable() bool {
	return t.Kind == TaskVariable || t.Kind == TaskGlobalVarLink
}

// HasAnyCondition reports whether at least one action is a condition.
func (t *Task) HasAnyCondition() bool {
	return slices.ContainsFunc(t.Actions, func(a *Action) bool {
		return a.Info().IsCondition()
	})
}

// Action is an invocation line bound to a catalog overload.
type Action struct {
	Line   source.Span
	Params []signature.Parameter
	Match  kb.Match
}

// nameIndex is the first literal word; it names the action.
func (a *Action) nameIndex() int {
	for i, p := range a.Params {
		if p.Type != "" && !p.IsPlaceholder() {
			return i
		}
	}
	return 0
}

func (a *Action) DeclSpan() source.Span {
	if len(a.Params) == 0 {
		return a.Line
	}
	return a.Params[a.nameIndex()].Span
}

func (a *Action) BlockSpan() source.Span { return a.Line }

func (a *Action) Name() string {
	if len(a.Params) == 0 {
		return ""
	}
	return a.Params[a.nameIndex()].Value
}

// Info is the catalog entry; two actions with the same Info are invocations
// of the same action.
func (a *Action) Info() *kb.Action { return a.Match.Action }

// SameSignature reports whether other invokes the same overload shape. All
// "when" expressions are considered equal.
func (a *Action) SameSignature(other *Action) bool {
	if len(a.Params) > 0 && len(other.Params) > 0 &&
		a.Params[0].Type == "when" && other.Params[0].Type == "when" {
		return true
	}
	if len(a.Params) != len(other.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i].Type != other.Params[i].Type {
			return false
		}
	}
	return true
}

// IsInvocationOf compares the leading parameter types with types, e.g.
// IsInvocationOf("start", "timer").
func (a *Action) IsInvocationOf(types ...string) bool {
	if len(types) > len(a.Params) {
		return false
	}
	for i, typ := range types {
		if a.Params[i].Type != typ {
			return false
		}
	}
	return true
}

// ParameterAt returns the parameter whose span contains span.
func (a *Action) ParameterAt(span source.Span) (signature.Parameter, bool) {
	return parameterAt(a.Params, span)
}

// ParameterAt returns the parameter of the definition containing span.
func (s *Symbol) ParameterAt(span source.Span) (signature.Parameter, bool) {
	return parameterAt(s.Signature, span)
}

func parameterAt(params []signature.Parameter, span source.Span) (signature.Parameter, bool) {
	for _, p := range params {
		if p.Span.Contains(span) {
			return p, true
		}
	}
	return signature.Parameter{}, false
}

// FirstFreeMessageID is the first id not reserved for static messages.
const FirstFreeMessageID = 1011

// Message is a QRC text block introduced by "Message: n" or "Alias: [n]".
type Message struct {
	ID    int
	Alias string
	Span  source.Span
	// AliasSpan is empty for "Message: n" headers.
	AliasSpan source.Span
	Line      source.Span
	Body      []source.Span
}

func (m *Message) DeclSpan() source.Span { return m.Span }

func (m *Message) BlockSpan() source.Span {
	if len(m.Body) == 0 {
		return m.Line
	}
	return m.Line.Cover(m.Body[len(m.Body)-1])
}

// IsStatic reports whether the id is reserved for a built-in message.
func (m *Message) IsStatic() bool { return m.ID < FirstFreeMessageID }

// ContextMacro is a %-prefixed token inside a message body, e.g. %pcn.
type ContextMacro struct {
	Symbol string
	Span   source.Span
}
