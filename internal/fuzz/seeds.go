package fuzztests

import (
	"testing"

	"dftemplate/internal/kb"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB — ограничение для тестового корпуса
	maxFuzzInput = 1 << 16
)

var questSeeds = []string{
	"",
	"QBN:\n",
	"Quest: S0000001\nDisplayName: Test\n\nQRC:\n\nQuestorOffer:  [1000]\nWill you help %pcn?\n\nMessage:  1011\nThanks.\n\nQBN:\nItem _gold_ gold\nClock _c_ 00:10\n\nstart timer _c_\n\n_start_ task:\n\tclicked item _gold_\n\tsay 1011\n\n_c_ task:\n\tend quest\n",
	"QRC:\nMessage: 1011\n\n\nMessage: 1011\n   \n<ce> text\n\nQBN:\nvariable _v_\nuntil _v_ performed:\n\tsay 1011\n",
	"Quest:\nQRC:\nQRC:\nQBN:\nQBN:\nQRC:\n",
	"QBN:\nPerson _p_ face 1 faction The_Merchants\n_t_ task:\n\twhen _a_ and _b_\n\tdaily from 07:00 to 19:30\n",
	"\r\n\ufeffQBN:\r\n_x_ task:\r\n\tsay 9999999999999999999\r\n",
}

func addCorpusSeeds(f *testing.F) {
	for _, seed := range questSeeds {
		f.Add(clampSeed([]byte(seed)))
	}
	addCatalogSeeds(f)
}

// addCatalogSeeds adds one task per action overload, placeholders left as
// written in the catalog.
func addCatalogSeeds(f *testing.F) {
	for _, a := range kb.Default().Modules.Actions() {
		for _, p := range a.Overloads {
			f.Add([]byte("QBN:\n_t_ task:\n\t" + p.Snippet + "\n"))
		}
	}
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}

// truncateForLog truncates input for logging purposes
func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(input[:maxLen:maxLen], []byte("...")...)
}
