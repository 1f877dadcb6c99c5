package parser

import (
	"strings"

	"dftemplate/internal/kb"
	"dftemplate/internal/quest"
)

// TaskHeader is a recognized task declaration. Name is the index of the
// name token.
type TaskHeader struct {
	Kind      quest.TaskKind
	Name      int
	GlobalVar string
}

// ParseTask recognizes the task forms:
//
//	_name_ task:
//	repeat _name_ task:
//	variable _name_
//	until _name_ performed:
//	<GlobalVar> _name_
func ParseTask(words []string, tables *kb.Tables) (TaskHeader, bool) {
	switch len(words) {
	case 2:
		switch {
		case words[1] == "task:":
			return TaskHeader{Kind: quest.TaskStandard, Name: 0}, true
		case strings.EqualFold(words[0], "variable"):
			return TaskHeader{Kind: quest.TaskVariable, Name: 1}, true
		}
		if _, ok := tables.GlobalVar(words[0]); ok {
			return TaskHeader{Kind: quest.TaskGlobalVarLink, Name: 1, GlobalVar: words[0]}, true
		}
	case 3:
		switch {
		case strings.EqualFold(words[0], "repeat") && words[2] == "task:":
			return TaskHeader{Kind: quest.TaskRepeat, Name: 1}, true
		case strings.EqualFold(words[0], "until") && words[2] == "performed:":
			return TaskHeader{Kind: quest.TaskPersistUntil, Name: 1}, true
		}
	}
	return TaskHeader{}, false
}
