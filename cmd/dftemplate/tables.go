package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dftemplate/internal/diag"
	"dftemplate/internal/kb"
	"dftemplate/internal/signature"
	"dftemplate/internal/source"
)

var tablesCmd = &cobra.Command{
	Use:   "tables [flags] [path]",
	Short: "Inspect, validate or export the knowledge base tables",
	Long: `Inspect the knowledge base used for path (the manifest's [knowledge].tables or the
embedded tables), validate an override directory, or export the embedded tables as a
starting point for overrides`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTables,
}

var tableSections = []string{"keywords", "symbols", "actions", "effects", "messages", "globals", "attributes"}

func init() {
	tablesCmd.Flags().String("list", "", "print one section ("+strings.Join(tableSections, "|")+")")
	tablesCmd.Flags().String("dir", "", "table directory to use instead of the manifest setting")
	tablesCmd.Flags().Bool("validate", false, "check the table directory and report rejected files")
	tablesCmd.Flags().String("export", "", "write the embedded tables into this directory")
}

func runTables(cmd *cobra.Command, args []string) error {
	list, err := cmd.Flags().GetString("list")
	if err != nil {
		return fmt.Errorf("failed to get list flag: %w", err)
	}
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return fmt.Errorf("failed to get dir flag: %w", err)
	}
	validate, err := cmd.Flags().GetBool("validate")
	if err != nil {
		return fmt.Errorf("failed to get validate flag: %w", err)
	}
	export, err := cmd.Flags().GetString("export")
	if err != nil {
		return fmt.Errorf("failed to get export flag: %w", err)
	}
	out := cmd.OutOrStdout()

	if export != "" {
		return exportTables(out, export)
	}

	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	s, err := openSession(cmd.Context(), target, false)
	if err != nil {
		return err
	}
	if dir != "" {
		s.kbFiles = source.NewFileSetWithBase(dir)
		s.kbBag = diag.NewBag(0)
		if s.kb, err = kb.Load(s.kbFiles, dir, diag.BagReporter{Bag: s.kbBag}); err != nil {
			return err
		}
	}

	if validate {
		if s.reportTables(cmd) {
			return errDiagnostics
		}
		quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
		if !quiet {
			fmt.Fprintln(out, "tables ok")
		}
		return nil
	}
	s.reportTables(cmd)

	if list == "" {
		printTableSummary(out, s.kb)
		return nil
	}
	return printTableSection(out, s.kb, list)
}

func printTableSummary(out io.Writer, base *kb.KnowledgeBase) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "keywords\t%d\n", len(base.Language.Keywords()))
	fmt.Fprintf(tw, "symbol types\t%d\n", len(base.Language.SymbolTypes()))
	fmt.Fprintf(tw, "actions\t%d\n", len(base.Modules.Actions()))
	fmt.Fprintf(tw, "effect keys\t%d\n", len(base.Modules.EffectKeys()))
	fmt.Fprintf(tw, "static messages\t%d\n", len(base.Tables.StaticMessages()))
	fmt.Fprintf(tw, "global variables\t%d\n", len(base.Tables.GlobalVarNames()))
	fmt.Fprintf(tw, "attribute groups\t%d\n", len(base.Tables.AttributeGroups()))
	hash := base.Hash()
	fmt.Fprintf(tw, "hash\t%x\n", hash[:8])
	_ = tw.Flush()
}

func printTableSection(out io.Writer, base *kb.KnowledgeBase, section string) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	switch strings.ToLower(section) {
	case "keywords":
		for _, k := range base.Language.Keywords() {
			fmt.Fprintf(tw, "%s\t%s\n", k.Signature, k.Summary)
		}
	case "symbols":
		for _, typ := range base.Language.SymbolTypes() {
			for _, d := range base.Language.Definitions(typ) {
				fmt.Fprintf(tw, "%s\t%s\n", d.Snippet, d.Summary)
			}
			for _, v := range base.Language.Variations(typ) {
				fmt.Fprintf(tw, "  %s\t%s\n", v.Prefix, v.Summary)
			}
		}
	case "actions":
		for _, a := range base.Modules.Actions() {
			for _, p := range a.Overloads {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Module, a.Category, patternText(p))
			}
		}
	case "effects":
		for _, key := range base.Modules.EffectKeys() {
			fmt.Fprintln(tw, key)
		}
	case "messages":
		for _, m := range base.Tables.StaticMessages() {
			fmt.Fprintf(tw, "%d\t%s\n", m.ID, m.Alias)
		}
	case "globals":
		for _, name := range base.Tables.GlobalVarNames() {
			id, _ := base.Tables.GlobalVar(name)
			fmt.Fprintf(tw, "%d\t%s\n", id, name)
		}
	case "attributes":
		for _, group := range base.Tables.AttributeGroups() {
			fmt.Fprintf(tw, "%s\t%s\n", group, strings.Join(base.Tables.Attributes(group), " "))
		}
	default:
		return fmt.Errorf("unknown section %q (expected %s)", section, strings.Join(tableSections, "|"))
	}
	return nil
}

// patternText renders a pattern with its normalized words, which reads
// better than the numbered snippet.
func patternText(p signature.Pattern) string {
	words := p.Words
	if p.Variadic && len(words) > 0 {
		words = append(append([]string(nil), words[:len(words)-1]...), "${..."+signature.TypeName(words[len(words)-1])+"}")
	}
	return strings.Join(words, " ")
}

// exportTables writes the embedded tables into dir, refusing to overwrite.
func exportTables(out io.Writer, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	for _, t := range kb.AllTables() {
		target := filepath.Join(dir, t.FileName())
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("%s already exists", target)
		}
		raw, err := kb.Embedded(t)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, raw, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		fmt.Fprintln(out, target)
	}
	return nil
}
