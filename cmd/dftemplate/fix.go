package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"dftemplate/internal/fix"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] <quest.txt|directory>",
	Short: "Apply suggested fixes",
	Long: `Apply the edits suggested by diagnostics, such as replacing a message number with its
static alias. By default only the first fix is applied; use --all or --id to choose.`,
	Args: cobra.ExactArgs(1),
	RunE: runFix,
}

func init() {
	fixCmd.Flags().Bool("all", false, "apply every non-conflicting fix")
	fixCmd.Flags().String("id", "", "apply the fix with this id (see --list)")
	fixCmd.Flags().Bool("list", false, "list the available fixes with their ids")
	fixCmd.Flags().Bool("dry-run", false, "report what would change without writing files")
}

func runFix(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return fmt.Errorf("failed to get all flag: %w", err)
	}
	id, err := cmd.Flags().GetString("id")
	if err != nil {
		return fmt.Errorf("failed to get id flag: %w", err)
	}
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return fmt.Errorf("failed to get list flag: %w", err)
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	if all && id != "" {
		return errors.New("--all and --id cannot be used together")
	}

	ctx := cmd.Context()
	// кэш не нужен: правки меняют файлы
	s, err := openSession(ctx, args[0], false)
	if err != nil {
		return err
	}
	ws, err := s.analyze(ctx, 0)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	bag := ws.Diagnostics(s.filter, 0)
	bag.Sort()
	out := cmd.OutOrStdout()

	if list {
		for _, d := range bag.Items() {
			start, _ := ws.Files.Resolve(d.Primary)
			path := ws.Files.Get(d.Primary.File).FormatPath("relative", ws.Files.BaseDir())
			for i, f := range d.Fixes {
				fmt.Fprintf(out, "%s\t%s:%d:%d\t%s\n", fix.FixID(d, i), path, start.Line, start.Col, f.Title)
			}
		}
		return nil
	}

	opts := fix.ApplyOptions{Mode: fix.ApplyModeOnce, DryRun: dryRun}
	switch {
	case all:
		opts.Mode = fix.ApplyModeAll
	case id != "":
		opts.Mode, opts.TargetID = fix.ApplyModeID, id
	}
	res, err := fix.Apply(ws.Files, bag.Items(), opts)
	for _, a := range res.Applied {
		fmt.Fprintf(out, "fixed %s %s: %s\n", a.Path, a.Code.ID(), a.Title)
	}
	for _, sk := range res.Skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", sk.ID, sk.Reason)
	}
	verb := "updated"
	if dryRun {
		verb = "would update"
	}
	for _, c := range res.FileChanges {
		fmt.Fprintf(out, "%s %s (%d edits)\n", verb, c.Path, c.EditCount)
	}
	if errors.Is(err, fix.ErrNoFixes) {
		fmt.Fprintln(out, "nothing to fix")
		return nil
	}
	return err
}
