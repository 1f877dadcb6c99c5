package diag

import (
	"fmt"
	"math"
	"sort"

	"fortio.org/safecast"
)

// Bag collects diagnostics up to a limit.
type Bag struct {
	items []Diagnostic
	max   uint16
}

// NewBag creates a bag holding at most max diagnostics. Non-positive or
// oversized limits mean "as many as fit in uint16".
func NewBag(max int) *Bag {
	limit, err := safecast.Conv[uint16](max)
	if err != nil || limit == 0 {
		limit = math.MaxUint16
	}
	return &Bag{
		items: make([]Diagnostic, 0, min(int(limit), 64)),
		max:   limit,
	}
}

// Add добавляет диагностику, учитывая лимит.
// Возвращает false, если лимит исчерпан.
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) >= int(b.max) {
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Cap() uint16 {
	return b.max
}

// HasErrors возвращает true, если есть хотя бы одна ошибка.
func (b *Bag) HasErrors() bool {
	return b.countAtLeast(SevError) > 0
}

// HasWarnings возвращает true, если есть предупреждения или ошибки.
func (b *Bag) HasWarnings() bool {
	return b.countAtLeast(SevWarning) > 0
}

func (b *Bag) countAtLeast(sev Severity) int {
	n := 0
	for i := range b.items {
		if b.items[i].Severity >= sev {
			n++
		}
	}
	return n
}

// Count returns how many diagnostics have exactly the given severity.
func (b *Bag) Count(sev Severity) int {
	n := 0
	for i := range b.items {
		if b.items[i].Severity == sev {
			n++
		}
	}
	return n
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items возвращает срез диагностик. Не модифицируйте его.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Merge appends every diagnostic of other, growing the limit when needed.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	newTotal := len(b.items) + len(other.items)
	if newTotal > int(b.max) {
		if limit, err := safecast.Conv[uint16](newTotal); err == nil {
			b.max = limit
		} else {
			b.max = math.MaxUint16
		}
	}
	for _, d := range other.items {
		b.Add(d)
	}
}

// Filter keeps only diagnostics for which keep returns true.
func (b *Bag) Filter(keep func(*Diagnostic) bool) {
	out := b.items[:0]
	for i := range b.items {
		if keep(&b.items[i]) {
			out = append(out, b.items[i])
		}
	}
	b.items = out
}

// Transform applies fn to every diagnostic in place.
func (b *Bag) Transform(fn func(*Diagnostic)) {
	for i := range b.items {
		fn(&b.items[i])
	}
}

// Sort orders by file, start, end, severity (desc) and code.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code < dj.Code
	})
}

// Dedup drops repeated Code+Primary+Message entries, keeping the first.
func (b *Bag) Dedup() {
	seen := make(map[string]bool, len(b.items))
	out := b.items[:0]
	for _, d := range b.items {
		key := fmt.Sprintf("%s:%s:%s", d.Code.ID(), d.Primary.String(), d.Message)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	b.items = out
}
