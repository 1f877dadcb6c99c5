// Package fix applies the suggested edits attached to diagnostics to the
// quest files on disk.
package fix

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"

	"dftemplate/internal/diag"
	"dftemplate/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines selection strategy for fixes.
type ApplyMode uint8

const (
	// ApplyModeOnce applies the first fix in source order.
	ApplyModeOnce ApplyMode = iota
	ApplyModeAll
	ApplyModeID
)

// ApplyOptions configures how fixes are selected.
type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
	// DryRun computes the new contents without writing them.
	DryRun bool
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	ID        string
	Title     string
	Code      diag.Code
	Message   string
	Path      string
	EditCount int
}

// SkippedFix captures a skipped fix with a reason.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange summarises modifications of one file. Content is the new text
// as it is (or would be) written, in the file's original encoding.
type FileChange struct {
	Path      string
	EditCount int
	Content   []byte
}

type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

type candidate struct {
	diag  diag.Diagnostic
	fix   diag.Fix
	id    string
	order int
}

// FixID is the stable identifier of the idx-th fix of d, e.g.
// "STY5003-0-120-0": code, file, offset, index.
func FixID(d diag.Diagnostic, idx int) string {
	return fmt.Sprintf("%s-%d-%d-%d", d.Code.ID(), d.Primary.File, d.Primary.Start, idx)
}

// Apply collects fixes from diagnostics, selects a subset according to opts,
// and applies them. Fixes overlapping an already selected fix are skipped.
func Apply(fs *source.FileSet, diagnostics []diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{}
	if fs == nil {
		return result, fmt.Errorf("fix: FileSet is nil")
	}

	candidates, skips := gatherCandidates(diagnostics)
	result.Skipped = append(result.Skipped, skips...)
	sortCandidates(candidates)

	selected, skips := selectCandidates(candidates, opts)
	result.Skipped = append(result.Skipped, skips...)
	if len(selected) == 0 {
		return result, ErrNoFixes
	}

	applied, skips, changes, err := applyCandidates(fs, selected, opts.DryRun)
	result.Applied = applied
	result.Skipped = append(result.Skipped, skips...)
	result.FileChanges = changes
	if err != nil {
		return result, err
	}
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}
	return result, nil
}

func gatherCandidates(diagnostics []diag.Diagnostic) ([]candidate, []SkippedFix) {
	var (
		cands []candidate
		skips []SkippedFix
	)
	order := 0
	for _, d := range diagnostics {
		for idx, f := range d.Fixes {
			id := FixID(d, idx)
			if len(f.Edits) == 0 {
				skips = append(skips, SkippedFix{ID: id, Title: f.Title, Reason: "fix has no edits"})
				continue
			}
			cands = append(cands, candidate{diag: d, fix: f, id: id, order: order})
			order++
		}
	}
	return cands, skips
}

// sortCandidates orders by file, span, then insertion order.
func sortCandidates(candidates []candidate) {
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return cmp.Or(
			cmp.Compare(a.diag.Primary.File, b.diag.Primary.File),
			cmp.Compare(a.diag.Primary.Start, b.diag.Primary.Start),
			cmp.Compare(a.diag.Primary.End, b.diag.Primary.End),
			cmp.Compare(a.order, b.order),
		)
	})
}

func selectCandidates(candidates []candidate, opts ApplyOptions) ([]candidate, []SkippedFix) {
	switch opts.Mode {
	case ApplyModeID:
		for _, cand := range candidates {
			if cand.id == opts.TargetID {
				return []candidate{cand}, nil
			}
		}
		return nil, []SkippedFix{{ID: opts.TargetID, Reason: "fix id not found"}}
	case ApplyModeAll:
		return candidates, nil
	case ApplyModeOnce:
		if len(candidates) > 0 {
			return candidates[:1], nil
		}
	}
	return nil, nil
}

func applyCandidates(fs *source.FileSet, selected []candidate, dryRun bool) ([]AppliedFix, []SkippedFix, []FileChange, error) {
	accepted := make(map[source.FileID][]diag.FixEdit)
	var (
		applied []AppliedFix
		skipped []SkippedFix
	)

	for _, cand := range selected {
		if reason := checkEdits(fs, accepted, cand.fix.Edits); reason != "" {
			skipped = append(skipped, SkippedFix{ID: cand.id, Title: cand.fix.Title, Reason: reason})
			continue
		}
		for _, e := range cand.fix.Edits {
			accepted[e.Span.File] = append(accepted[e.Span.File], e)
		}
		applied = append(applied, AppliedFix{
			ID:        cand.id,
			Title:     cand.fix.Title,
			Code:      cand.diag.Code,
			Message:   cand.diag.Message,
			Path:      fs.Get(cand.diag.Primary.File).FormatPath("relative", fs.BaseDir()),
			EditCount: len(cand.fix.Edits),
		})
	}

	ids := make([]source.FileID, 0, len(accepted))
	for id := range accepted {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	changes := make([]FileChange, 0, len(ids))
	for _, id := range ids {
		file := fs.Get(id)
		content, err := source.Denormalize(rewrite(file.Content, accepted[id]), file.Flags)
		if err != nil {
			return applied, skipped, changes, fmt.Errorf("%s: %w", file.Path, err)
		}
		if !dryRun {
			mode := os.FileMode(0o644)
			if info, err := os.Stat(file.Path); err == nil {
				mode = info.Mode()
			}
			if err := os.WriteFile(file.Path, content, mode); err != nil {
				return applied, skipped, changes, fmt.Errorf("write %s: %w", file.Path, err)
			}
		}
		changes = append(changes, FileChange{
			Path:      file.FormatPath("relative", fs.BaseDir()),
			EditCount: len(accepted[id]),
			Content:   content,
		})
	}
	return applied, skipped, changes, nil
}

// checkEdits returns why edits cannot join the accepted ones, or "".
func checkEdits(fs *source.FileSet, accepted map[source.FileID][]diag.FixEdit, edits []diag.FixEdit) string {
	for i, e := range edits {
		if int(e.Span.File) >= fs.Len() {
			return "edit points to an unknown file"
		}
		file := fs.Get(e.Span.File)
		if file.Flags&source.FileVirtual != 0 {
			return "target file is virtual"
		}
		if e.Span.End < e.Span.Start || int(e.Span.End) > len(file.Content) {
			return "edit span out of range"
		}
		for _, prev := range accepted[e.Span.File] {
			if spansConflict(prev.Span, e.Span) {
				return fmt.Sprintf("conflicts with another fix in %s", file.FormatPath("relative", fs.BaseDir()))
			}
		}
		for _, other := range edits[:i] {
			if other.Span.File == e.Span.File && spansConflict(other.Span, e.Span) {
				return "fix has overlapping edits"
			}
		}
	}
	return ""
}

// spansConflict reports whether two spans overlap as half-open intervals.
// Two insertions never conflict; an insertion conflicts with a span strictly
// containing its position.
func spansConflict(a, b source.Span) bool {
	if a.Empty() && b.Empty() {
		return false
	}
	if a.Empty() {
		return b.Start <= a.Start && a.Start < b.End
	}
	if b.Empty() {
		return a.Start <= b.Start && b.Start < a.End
	}
	return a.Start < b.End && b.Start < a.End
}

// rewrite applies non-overlapping edits to content, last edit first so that
// offsets stay valid.
func rewrite(content []byte, edits []diag.FixEdit) []byte {
	sorted := slices.Clone(edits)
	slices.SortStableFunc(sorted, func(a, b diag.FixEdit) int {
		return cmp.Or(cmp.Compare(b.Span.Start, a.Span.Start), cmp.Compare(b.Span.End, a.Span.End))
	})
	out := slices.Clone(content)
	for _, e := range sorted {
		out = slices.Concat(out[:e.Span.Start], []byte(e.NewText), out[e.Span.End:])
	}
	return out
}
