package parser

import "fmt"

// Kind classifies one line of a quest document.
type Kind uint8

const (
	LineSkipped Kind = iota // пустая строка или комментарий
	LineSection
	LineDirective
	LineSymbol
	LineTask
	LineAction
	LineMessage
	LineMessageBody
	LineUnrecognized
)

var kindNames = [...]string{
	LineSkipped:      "skipped",
	LineSection:      "section",
	LineDirective:    "directive",
	LineSymbol:       "symbol",
	LineTask:         "task",
	LineAction:       "action",
	LineMessage:      "message",
	LineMessageBody:  "message-body",
	LineUnrecognized: "unrecognized",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}
