// Package diag defines the diagnostic model shared by the quest parser, the
// linter and the knowledge-base loader.
//
// A Diagnostic carries a Severity (hint, warning, error), a numeric Code with
// a stable ID such as "SEM2004", a message, a primary source.Span and optional
// notes, fixes and editor tags. Codes are grouped by range:
//
//   - SYN1xxx – document structure (undefined expressions, missing blocks);
//   - SEM2xxx – references and definitions;
//   - VAL3xxx – parameter values (numbers, times);
//   - LNT4xxx – warnings about unused or unlinked declarations;
//   - STY5xxx – style hints;
//   - KB6xxx  – knowledge-base tables;
//   - IO7xxx  – file loading.
//
// Producers emit through a Reporter, usually via ReportBuilder. BagReporter
// collects into a Bag; DedupReporter and FilterReporter can be stacked in
// front of it. Config holds user preferences (ignored codes, severity
// overrides) loaded from dftemplate.toml.
//
// The package performs no formatting or IO; rendering lives in
// internal/diagfmt.
package diag
