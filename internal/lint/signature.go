package lint

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"dftemplate/internal/diag"
	"dftemplate/internal/kb"
	"dftemplate/internal/signature"
)

var number = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]+)?$`)

func hasSign(s string) bool {
	return strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-")
}

// checkSignature validates every typed parameter. Operators of "when"
// expressions are not task references.
func (l *linter) checkSignature(params []signature.Parameter) {
	if !l.opts.enabled(CheckSignature) {
		return
	}
	isWhen := len(params) > 0 && params[0].Type == "when"
	for _, p := range params {
		if isWhen && p.Type == kb.ParamTask && isOperator(p.Value) {
			continue
		}
		l.checkParameter(p)
	}
}

func isOperator(word string) bool {
	switch strings.ToLower(word) {
	case "and", "or", "not":
		return true
	}
	return false
}

func (l *linter) checkParameter(p signature.Parameter) {
	switch p.Type {
	case "":
		return
	case kb.ParamNatural:
		switch {
		case !number.MatchString(p.Value):
			diag.ReportError(l.r, diag.ValNotANumber, p.Span, p.Value+" is not a number.").Emit()
		case hasSign(p.Value):
			diag.ReportError(l.r, diag.ValNotNatural, p.Span, "Natural number doesn't accept a sign.").Emit()
		}
		return
	case kb.ParamInteger:
		switch {
		case !number.MatchString(p.Value):
			diag.ReportError(l.r, diag.ValNotANumber, p.Span, p.Value+" is not a number.").Emit()
		case !hasSign(p.Value):
			diag.ReportError(l.r, diag.ValNotInteger, p.Span, "Integer number must have a sign.").Emit()
		}
		return
	case kb.ParamTime:
		if !validTime(p.Value) {
			diag.ReportError(l.r, diag.ValIncorrectTime, p.Span,
				p.Value+" is not in 24-hour format (00:00 to 23:59).").Emit()
		}
		return
	case kb.ParamMessage, kb.ParamMessageID, kb.ParamMessageName:
		l.checkMessageParameter(p)
		return
	case kb.ParamSymbol:
		if _, ok := l.q.GetSymbol(p.Value); !ok {
			l.undefined(diag.SemUndefinedSymbol, p, "symbol", l.symbolNames())
		}
		return
	case kb.ParamTask:
		if _, ok := l.q.GetTask(p.Value); !ok {
			l.undefined(diag.SemUndefinedTask, p, "task", l.q.Qbn.Tasks.Keys())
		}
		return
	case kb.ParamEffectKey:
		if !l.kb.Modules.EffectKeyExists(p.Value) {
			l.undefinedAttribute(p)
		}
		return
	}

	if typ, ok := kb.SymbolTypeOf(p.Type); ok {
		l.checkSymbolType(p, typ)
		return
	}
	if l.kb.Tables.HasAttributes(p.Type) && !l.kb.Tables.Attribute(p.Type, p.Value) {
		l.undefinedAttribute(p)
	}
}

func validTime(value string) bool {
	hh, mm, ok := strings.Cut(value, ":")
	if !ok {
		return false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return false
	}
	m, err := strconv.Atoi(mm)
	return err == nil && m >= 0 && m <= 59
}

func (l *linter) checkMessageParameter(p signature.Parameter) {
	msg, ok := ResolveMessage(l.q, p)
	if !ok {
		l.undefined(diag.SemUndefinedMessage, p, "message", l.messageNames())
		return
	}
	if p.Type != kb.ParamMessage {
		return
	}
	// статическое сообщение по номеру: предложить алиас
	if _, err := strconv.Atoi(p.Value); err == nil {
		if alias, ok := l.kb.Tables.StaticMessageAlias(msg.ID); ok {
			diag.ReportHint(l.r, diag.StyUseAlias, p.Span,
				fmt.Sprintf("Use text alias for static message %s.", p.Value)).
				WithFix("Replace with "+alias, diag.FixEdit{Span: p.Span, NewText: alias}).
				Emit()
		}
	}
}

func (l *linter) checkSymbolType(p signature.Parameter, typ string) {
	s, ok := l.q.GetSymbol(p.Value)
	if !ok {
		l.undefined(diag.SemUndefinedSymbol, p, "symbol", l.symbolNames())
		return
	}
	if s.Type != typ {
		diag.ReportError(l.r, diag.SemIncorrectSymbolType, p.Span,
			fmt.Sprintf("Incorrect symbol type: %s is not declared as %s.", p.Value, typ)).
			WithNote(s.Span, fmt.Sprintf("%s is declared as %s here", s.Name, s.Type)).
			Emit()
	}
}

func (l *linter) undefinedAttribute(p signature.Parameter) {
	group := signature.TypeName(p.Type)
	b := diag.ReportError(l.r, diag.SemUndefinedAttribute, p.Span,
		fmt.Sprintf("The name '%s' doesn't exist in the attribute group '%s'.", p.Value, group))
	candidates := l.kb.Tables.Attributes(p.Type)
	if p.Type == kb.ParamEffectKey {
		candidates = l.kb.Modules.EffectKeys()
	}
	l.suggest(b, p, candidates)
	b.Emit()
}

func (l *linter) undefined(code diag.Code, p signature.Parameter, what string, candidates []string) {
	b := diag.ReportError(l.r, code, p.Span, fmt.Sprintf("Reference to undefined %s: %s.", what, p.Value))
	l.suggest(b, p, candidates)
	b.Emit()
}
