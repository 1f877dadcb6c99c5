package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"dftemplate/internal/source"
	"dftemplate/internal/trace"
	"dftemplate/internal/workspace"
)

var refsCmd = &cobra.Command{
	Use:   "refs [flags] <quest.txt|directory>",
	Short: "Find references to a quest resource",
	Long: `Find references to a quest, action, macro or global variable across all templates,
or to a symbol, task or message within the template given by --file`,
	Args: cobra.ExactArgs(1),
	RunE: runRefs,
}

func init() {
	refsCmd.Flags().String("quest", "", "quest name or numeric id")
	refsCmd.Flags().String("action", "", "action words, e.g. \"give pc\"")
	refsCmd.Flags().String("macro", "", "context macro, e.g. %qdt")
	refsCmd.Flags().String("global-var", "", "global variable name")
	refsCmd.Flags().String("symbol", "", "symbol name, needs --file")
	refsCmd.Flags().String("task", "", "task name, needs --file")
	refsCmd.Flags().String("message", "", "message id or static alias, needs --file")
	refsCmd.Flags().String("file", "", "template searched for --symbol, --task and --message")
	refsCmd.Flags().String("format", "text", "output format (text|json)")
	refsCmd.Flags().Int("jobs", 0, "max parallel workers (0=manifest or auto)")
}

// refsQuery is the one resource a refs invocation asks about.
type refsQuery struct {
	kind  string
	value string
}

var (
	globalRefKinds = []string{"quest", "action", "macro", "global-var"}
	localRefKinds  = []string{"symbol", "task", "message"}
)

func readRefsQuery(cmd *cobra.Command) (refsQuery, error) {
	var found []refsQuery
	for _, kind := range append(append([]string{}, globalRefKinds...), localRefKinds...) {
		value, err := cmd.Flags().GetString(kind)
		if err != nil {
			return refsQuery{}, fmt.Errorf("failed to get %s flag: %w", kind, err)
		}
		if value = strings.TrimSpace(value); value != "" {
			found = append(found, refsQuery{kind: kind, value: value})
		}
	}
	switch len(found) {
	case 0:
		return refsQuery{}, errors.New("nothing to search: pass one of --quest, --action, --macro, --global-var, --symbol, --task, --message")
	case 1:
		return found[0], nil
	}
	return refsQuery{}, fmt.Errorf("--%s and --%s cannot be used together", found[0].kind, found[1].kind)
}

func (q refsQuery) local() bool {
	for _, k := range localRefKinds {
		if q.kind == k {
			return true
		}
	}
	return false
}

func runRefs(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	query, err := readRefsQuery(cmd)
	if err != nil {
		return err
	}
	file, err := cmd.Flags().GetString("file")
	if err != nil {
		return fmt.Errorf("failed to get file flag: %w", err)
	}
	if query.local() && file == "" {
		return fmt.Errorf("--%s needs --file", query.kind)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q (expected text|json)", format)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}

	ctx := cmd.Context()
	s, err := openSession(ctx, args[0], true)
	if err != nil {
		return err
	}
	ws, err := s.analyze(ctx, jobs)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	ctx, span := trace.Start(ctx, trace.ScopeDriver, "refs")
	defer span.End(query.kind + "=" + query.value)

	locs, err := findReferences(ctx, ws, query, file)
	if err != nil {
		return err
	}
	if format == "json" {
		return printLocationsJSON(cmd.OutOrStdout(), ws.Files, locs)
	}
	printLocations(cmd.OutOrStdout(), ws.Files, locs)
	return nil
}

func findReferences(ctx context.Context, ws *workspace.Workspace, q refsQuery, file string) ([]workspace.Location, error) {
	switch q.kind {
	case "quest":
		return ws.QuestReferences(ctx, q.value)
	case "action":
		match, ok := ws.KB.Modules.FindAction(strings.Fields(q.value))
		if !ok {
			return nil, fmt.Errorf("unknown action %q", q.value)
		}
		return ws.ActionReferences(ctx, match.Action)
	case "macro":
		return ws.MacroReferences(ctx, q.value)
	case "global-var":
		return ws.GlobalVarReferences(ctx, q.value)
	}

	doc, err := findDocument(ws, file)
	if err != nil {
		return nil, err
	}
	if !doc.IsQuest() {
		return nil, fmt.Errorf("%s is not a quest template", doc.Display)
	}
	switch q.kind {
	case "symbol":
		return workspace.SymbolReferences(doc, q.value), nil
	case "task":
		return workspace.TaskReferences(doc, q.value), nil
	case "message":
		m, ok := doc.Quest.Qrc.GetMessage(q.value, ws.KB.Tables)
		if !ok {
			return nil, fmt.Errorf("%s has no message %s", doc.Display, q.value)
		}
		return workspace.MessageReferences(doc, m), nil
	}
	return nil, fmt.Errorf("unknown reference kind %q", q.kind)
}

// lineOf returns the trimmed source line containing span.
func lineOf(f *source.File, span source.Span) string {
	return strings.TrimSpace(f.Line(f.LineOf(span.Start)))
}

// printLocations prints one "path:line:col: text" line per location.
func printLocations(out io.Writer, fs *source.FileSet, locs []workspace.Location) {
	for _, loc := range locs {
		start, _ := fs.Resolve(loc.Span)
		fmt.Fprintf(out, "%s:%d:%d: %s\n", loc.Doc.Display, start.Line, start.Col, lineOf(loc.Doc.File, loc.Span))
	}
}

type locationJSON struct {
	File  string `json:"file"`
	Line  uint32 `json:"line"`
	Col   uint32 `json:"col"`
	Text  string `json:"text"`
	Match string `json:"match"`
}

func toLocationJSON(fs *source.FileSet, loc workspace.Location) locationJSON {
	f := loc.Doc.File
	start, _ := fs.Resolve(loc.Span)
	return locationJSON{
		File:  loc.Doc.Display,
		Line:  start.Line,
		Col:   start.Col,
		Text:  lineOf(f, loc.Span),
		Match: loc.Span.Text(f),
	}
}

func printLocationsJSON(out io.Writer, fs *source.FileSet, locs []workspace.Location) error {
	items := make([]locationJSON, len(locs))
	for i, loc := range locs {
		items[i] = toLocationJSON(fs, loc)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}
