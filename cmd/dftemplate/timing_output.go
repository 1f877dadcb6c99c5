package main

import (
	"fmt"
	"io"

	"dftemplate/internal/observ"
	"dftemplate/internal/workspace"
)

// printStageTimings prints the stage durations summed over all documents,
// then the slowest documents.
func printStageTimings(out io.Writer, ws *workspace.Workspace) {
	if out == nil || ws == nil {
		return
	}
	for _, stage := range []workspace.Stage{workspace.StageLoad, workspace.StageParse, workspace.StageLint, workspace.StageQuests} {
		if !ws.Timings.Has(stage) {
			continue
		}
		fmt.Fprintf(out, "%-7s %8.1f ms\n", stage, observ.Millis(ws.Timings.Duration(stage)))
	}
	total := ws.Timings.Sum(workspace.StageLoad, workspace.StageParse, workspace.StageLint, workspace.StageQuests)
	fmt.Fprintf(out, "%-7s %8.1f ms\n", "total", observ.Millis(total))

	for _, doc := range slowest(ws.Docs, 3) {
		fmt.Fprintf(out, "  %s %.2f ms", doc.Display, doc.Timing.TotalMS)
		if doc.Cached {
			fmt.Fprint(out, " (cached)")
		}
		fmt.Fprintln(out)
	}
}

// slowest returns up to n documents with the largest total time.
func slowest(docs []*workspace.Document, n int) []*workspace.Document {
	out := make([]*workspace.Document, 0, n+1)
	for _, doc := range docs {
		i := len(out)
		for i > 0 && out[i-1].Timing.TotalMS < doc.Timing.TotalMS {
			i--
		}
		if i >= n {
			continue
		}
		out = append(out, nil)
		copy(out[i+1:], out[i:])
		out[i] = doc
		if len(out) > n {
			out = out[:n]
		}
	}
	return out
}
