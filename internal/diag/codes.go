package diag

import (
	"fmt"
	"slices"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Структура документа
	SynInfo                Code = 1000
	SynUndefinedExpression Code = 1001
	SynBlockMissing        Code = 1002
	SynInvalidDefinition   Code = 1003
	SynInvalidSignature    Code = 1004

	// Ссылки и определения
	SemInfo                Code = 2000
	SemDuplicateDefinition Code = 2001
	SemDuplicateMessageID  Code = 2002
	SemUndefinedMessage    Code = 2003
	SemUndefinedSymbol     Code = 2004
	SemUndefinedTask       Code = 2005
	SemUndefinedAttribute  Code = 2006
	SemUndefinedUntilTask  Code = 2007
	SemIncorrectSymbolType Code = 2008
	SemInvalidStaticAlias  Code = 2009
	SemUndefinedQuest      Code = 2010
	SemDuplicateQuestName  Code = 2011

	// Значения параметров
	ValInfo          Code = 3000
	ValNotANumber    Code = 3001
	ValNotNatural    Code = 3002
	ValNotInteger    Code = 3003
	ValIncorrectTime Code = 3004

	// Предупреждения
	LntInfo            Code = 4000
	LntUnusedSymbol    Code = 4001
	LntUnusedTask      Code = 4002
	LntUnusedMessage   Code = 4003
	LntUnstartedClock  Code = 4004
	LntUnlinkedClock   Code = 4005
	LntSymbolVariation Code = 4006

	// Подсказки по стилю
	StyInfo             Code = 5000
	StyNamingConvention Code = 5001
	StyMessagePosition  Code = 5002
	StyUseAlias         Code = 5003

	// Таблицы базы знаний
	KbInfo           Code = 6000
	KbSchemaMismatch Code = 6001
	KbInvalidEntry   Code = 6002

	// Ввод-вывод
	IOInfo          Code = 7000
	IOLoadFileError Code = 7001
)

var (
	codeDescription = map[Code]string{
		UnknownCode: "Unknown error",

		SynInfo:                "Structure information",
		SynUndefinedExpression: "Undefined expression",
		SynBlockMissing:        "Missing quest block",
		SynInvalidDefinition:   "Invalid symbol definition",
		SynInvalidSignature:    "Invalid action signature",

		SemInfo:                "Reference information",
		SemDuplicateDefinition: "Duplicated definition",
		SemDuplicateMessageID:  "Duplicated message number",
		SemUndefinedMessage:    "Undefined message",
		SemUndefinedSymbol:     "Undefined symbol",
		SemUndefinedTask:       "Undefined task",
		SemUndefinedAttribute:  "Undefined attribute",
		SemUndefinedUntilTask:  "Undefined task in persist-until",
		SemIncorrectSymbolType: "Incorrect symbol type",
		SemInvalidStaticAlias:  "Invalid static message alias",
		SemUndefinedQuest:      "Undefined quest",
		SemDuplicateQuestName:  "Duplicated quest name",

		ValInfo:          "Value information",
		ValNotANumber:    "Not a number",
		ValNotNatural:    "Signed natural number",
		ValNotInteger:    "Unsigned integer number",
		ValIncorrectTime: "Incorrect time",

		LntInfo:            "Lint information",
		LntUnusedSymbol:    "Unused symbol",
		LntUnusedTask:      "Unused task",
		LntUnusedMessage:   "Unused message",
		LntUnstartedClock:  "Clock never started",
		LntUnlinkedClock:   "Clock not linked to a task",
		LntSymbolVariation: "Incorrect symbol variation",

		StyInfo:             "Style information",
		StyNamingConvention: "Naming convention",
		StyMessagePosition:  "Message position",
		StyUseAlias:         "Static message alias",

		KbInfo:           "Knowledge base information",
		KbSchemaMismatch: "Table schema mismatch",
		KbInvalidEntry:   "Invalid table entry",

		IOInfo:          "I/O information",
		IOLoadFileError: "Failed to load file",
	}
)

// ID returns the stable textual identifier, e.g. "SEM2004".
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("VAL%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("LNT%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("STY%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("KB%04d", ic)
	case ic >= 7000 && ic < 8000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// ParseCode resolves an ID such as "LNT4001" back to its Code.
func ParseCode(id string) (Code, bool) {
	for c := range codeDescription {
		if c.ID() == id {
			return c, true
		}
	}
	return UnknownCode, false
}

// Codes returns every known code in ascending order.
func Codes() []Code {
	out := make([]Code, 0, len(codeDescription))
	for c := range codeDescription {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}
