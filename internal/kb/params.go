package kb

import "strings"

// Parameter types understood by the checker. Any other placeholder is looked
// up in the attribute tables.
const (
	ParamNatural     = "${nn}"
	ParamInteger     = "${dd}"
	ParamTime        = "${hh}:${mm}"
	ParamMessage     = "${message}"
	ParamMessageID   = "${messageID}"
	ParamMessageName = "${messageName}"
	ParamSymbol      = "${_symbol_}"
	ParamItem        = "${_item_}"
	ParamPerson      = "${_person_}"
	ParamPlace       = "${_place_}"
	ParamClock       = "${_clock_}"
	ParamFoe         = "${_foe_}"
	ParamTask        = "${task}"
	ParamEffectKey   = "${effectKey}"
	ParamQuestName   = "${questName}"
	ParamQuestID     = "${questID}"
)

// Symbol types of the definition table.
const (
	TypeItem   = "Item"
	TypePerson = "Person"
	TypePlace  = "Place"
	TypeClock  = "Clock"
	TypeFoe    = "Foe"
)

var symbolParams = map[string]string{
	ParamItem:   TypeItem,
	ParamPerson: TypePerson,
	ParamPlace:  TypePlace,
	ParamClock:  TypeClock,
	ParamFoe:    TypeFoe,
}

// SymbolTypeOf maps a typed symbol placeholder such as "${_clock_}" to the
// symbol type it requires.
func SymbolTypeOf(param string) (string, bool) {
	typ, ok := symbolParams[param]
	return typ, ok
}

// attributeKey reduces "${faction}" and "faction" to the same table key.
func attributeKey(typ string) string {
	return strings.TrimSuffix(strings.TrimPrefix(typ, "${"), "}")
}
