package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"dftemplate/internal/callgraph"
	"dftemplate/internal/source"
	"dftemplate/internal/workspace"
)

var callsCmd = &cobra.Command{
	Use:   "calls [flags] <directory>",
	Short: "Show which quests start which",
	Long: `Show the "start quest" call hierarchy: the callers or callees of one quest,
or with --order every quest ordered so that callers come before the quests they start`,
	Args: cobra.ExactArgs(1),
	RunE: runCalls,
}

func init() {
	callsCmd.Flags().String("callers", "", "list the quests starting this quest (name or id)")
	callsCmd.Flags().String("callees", "", "list the quests started by this quest (name or id)")
	callsCmd.Flags().Bool("order", false, "print the quests in start order and report cycles")
	callsCmd.Flags().Int("jobs", 0, "max parallel workers (0=manifest or auto)")
}

func runCalls(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	callers, err := cmd.Flags().GetString("callers")
	if err != nil {
		return fmt.Errorf("failed to get callers flag: %w", err)
	}
	callees, err := cmd.Flags().GetString("callees")
	if err != nil {
		return fmt.Errorf("failed to get callees flag: %w", err)
	}
	order, err := cmd.Flags().GetBool("order")
	if err != nil {
		return fmt.Errorf("failed to get order flag: %w", err)
	}
	set := 0
	for _, on := range []bool{callers != "", callees != "", order} {
		if on {
			set++
		}
	}
	if set != 1 {
		return errors.New("pass exactly one of --callers, --callees, --order")
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
	out := cmd.OutOrStdout()

	switch {
	case callers != "":
		calls, err := ws.Callers(ctx, callers)
		if err != nil {
			return err
		}
		printCalls(out, ws.Files, calls, true)
	case callees != "":
		doc, ok := ws.FindQuest(callees)
		if !ok {
			return fmt.Errorf("quest %s is not in %s", callees, s.target)
		}
		printCalls(out, ws.Files, ws.Callees(doc), false)
	default:
		idx, g := ws.CallGraph()
		printOrder(out, idx, g, callgraph.ToposortKahn(g))
	}
	return nil
}

// printCalls prints one call per line with the location of the invocation.
// byCaller selects which end of the call is named first.
func printCalls(out io.Writer, fs *source.FileSet, calls []workspace.Call, byCaller bool) {
	for _, c := range calls {
		start, _ := fs.Resolve(c.Span)
		where := fmt.Sprintf("%s:%d:%d", c.Caller.Display, start.Line, start.Col)
		if byCaller {
			fmt.Fprintf(out, "%s\t%s\n", c.Caller.Quest.Name(), where)
			continue
		}
		target := "(not in workspace)"
		if c.Target != nil {
			target = c.Target.Display
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", c.Name, target, where)
	}
}

func printOrder(out io.Writer, idx callgraph.Index, g callgraph.Graph, topo *callgraph.Topo) {
	for i, batch := range topo.Batches {
		fmt.Fprintf(out, "%d: %s\n", i+1, strings.Join(idx.Names(batch), " "))
	}
	if topo.Cyclic {
		fmt.Fprintf(out, "cycle: %s\n", strings.Join(idx.Names(topo.Cycles), " "))
	}
	if len(g.SelfCalls) > 0 {
		fmt.Fprintf(out, "starts itself: %s\n", strings.Join(idx.Names(g.SelfCalls), " "))
	}
	if missing := g.Missing(); len(missing) > 0 {
		fmt.Fprintf(out, "missing: %s\n", strings.Join(idx.Names(missing), " "))
	}
}
