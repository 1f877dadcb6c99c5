package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"dftemplate/internal/diag"
	"dftemplate/internal/diagfmt"
	"dftemplate/internal/lint"
	"dftemplate/internal/trace"
	"dftemplate/internal/version"
	"dftemplate/internal/workspace"
)

var diagCmd = &cobra.Command{
	Use:   "diag [flags] <quest.txt|directory>",
	Short: "Run diagnostics on a quest template or a directory of templates",
	Long:  `Run diagnostics to find structural, reference and style issues in a quest template or all *.txt templates within a directory`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDiagnose,
}

func init() {
	diagCmd.Flags().String("format", "pretty", "output format (pretty|short|json|sarif)")
	diagCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=manifest or auto)")
	diagCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	diagCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	diagCmd.Flags().Bool("preview", false, "show how suggested fixes change the source")
	diagCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	diagCmd.Flags().Bool("no-cache", false, "do not read or write the disk cache")
	diagCmd.Flags().Bool("no-warnings", false, "report errors only")
	diagCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	diagCmd.Flags().Bool("no-suggestions", false, "skip \"did you mean\" notes for undefined names")
	diagCmd.Flags().StringSlice("disable", nil, "checks to skip (e.g. naming,order)")
	diagCmd.Flags().StringSlice("ignore", nil, "diagnostic code globs to drop (e.g. STY*)")
	diagCmd.Flags().String("ui", "auto", "progress view for directories (auto|on|off)")
	diagCmd.Flags().Bool("watch", false, "re-run diagnostics when quest files change")
}

// diagOptions are the parsed flags of the diag command.
type diagOptions struct {
	format           diagfmt.Format
	jobs             int
	max              int
	withNotes        bool
	suggest          bool
	preview          bool
	fullPath         bool
	noCache          bool
	noWarnings       bool
	warningsAsErrors bool
	noSuggestions    bool
	disable          []string
	ignore           []string
	ui               uiMode
	watch            bool
	quiet            bool
	timings          bool
	color            bool
}

func readDiagOptions(cmd *cobra.Command) (diagOptions, error) {
	var (
		opts diagOptions
		err  error
	)
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return opts, fmt.Errorf("failed to get format flag: %w", err)
	}
	if opts.format, err = diagfmt.ParseFormat(formatStr); err != nil {
		return opts, err
	}
	if opts.jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return opts, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if opts.max, err = cmd.Root().PersistentFlags().GetInt("max-diagnostics"); err != nil {
		return opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	for name, dst := range map[string]*bool{
		"with-notes":         &opts.withNotes,
		"suggest":            &opts.suggest,
		"preview":            &opts.preview,
		"fullpath":           &opts.fullPath,
		"no-cache":           &opts.noCache,
		"no-warnings":        &opts.noWarnings,
		"warnings-as-errors": &opts.warningsAsErrors,
		"no-suggestions":     &opts.noSuggestions,
		"watch":              &opts.watch,
	} {
		if *dst, err = cmd.Flags().GetBool(name); err != nil {
			return opts, fmt.Errorf("failed to get %s flag: %w", name, err)
		}
	}
	if opts.noWarnings && opts.warningsAsErrors {
		return opts, fmt.Errorf("no-warnings and warnings-as-errors flags cannot be used together")
	}
	if opts.disable, err = cmd.Flags().GetStringSlice("disable"); err != nil {
		return opts, fmt.Errorf("failed to get disable flag: %w", err)
	}
	if opts.ignore, err = cmd.Flags().GetStringSlice("ignore"); err != nil {
		return opts, fmt.Errorf("failed to get ignore flag: %w", err)
	}
	uiStr, err := cmd.Flags().GetString("ui")
	if err != nil {
		return opts, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if opts.ui, err = readUIMode(uiStr); err != nil {
		return opts, err
	}
	if opts.quiet, err = cmd.Root().PersistentFlags().GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if opts.timings, err = cmd.Root().PersistentFlags().GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if opts.color, err = useColor(cmd, os.Stdout); err != nil {
		return opts, err
	}
	return opts, nil
}

// apply layers the command line over the manifest settings of s.
func (opts diagOptions) apply(s *session) error {
	for _, name := range opts.disable {
		check, err := lint.ParseCheck(name)
		if err != nil {
			return fmt.Errorf("--disable: %w", err)
		}
		s.lint.Disabled = append(s.lint.Disabled, check)
	}
	if opts.noSuggestions {
		s.lint.NoSuggestions = true
	}
	for _, pattern := range opts.ignore {
		s.filter.Ignore = append(s.filter.Ignore, strings.ToUpper(strings.TrimSpace(pattern)))
	}
	if opts.noWarnings {
		s.filter.MinSeverity = diag.SevError
	}
	if opts.warningsAsErrors {
		s.filter.WarningsAsErrors = true
	}
	return nil
}

// runDiagnose executes the "diag" command and fails with errDiagnostics when
// any reported diagnostic is an error.
func runDiagnose(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	opts, err := readDiagOptions(cmd)
	if err != nil {
		return err
	}
	s, err := openSession(cmd.Context(), args[0], !opts.noCache)
	if err != nil {
		return err
	}
	if err := opts.apply(s); err != nil {
		return err
	}

	if opts.watch {
		return watchDiagnose(cmd, s, opts)
	}
	failed, err := diagnoseOnce(cmd.Context(), cmd, s, opts, shouldUseTUI(opts.ui) && s.isDir)
	if err != nil {
		return err
	}
	if failed {
		return errDiagnostics
	}
	return nil
}

// diagnoseOnce analyzes the session target and prints the findings. It
// reports whether an error was among them.
func diagnoseOnce(ctx context.Context, cmd *cobra.Command, s *session, opts diagOptions, withUI bool) (bool, error) {
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "diagnose")
	defer span.End(s.target)

	tablesFailed := s.reportTables(cmd)

	paths, err := s.paths()
	if err != nil {
		return false, fmt.Errorf("failed to discover quest files: %w", err)
	}
	wsOpts := s.options(opts.jobs, opts.max)

	var ws *workspace.Workspace
	if withUI {
		ws, err = runAnalyzeWithUI(ctx, "dftemplate diag", paths, wsOpts)
	} else {
		ws, err = workspace.Analyze(ctx, paths, wsOpts)
	}
	if err != nil {
		return false, fmt.Errorf("diagnosis failed: %w", err)
	}

	bag := ws.Diagnostics(s.filter, wsOpts.MaxDiagnostics)
	bag.Sort()
	out := cmd.OutOrStdout()
	if err := printDiagnostics(out, bag, ws, opts); err != nil {
		return false, err
	}
	if opts.format == diagfmt.FormatPretty && !opts.quiet {
		diagfmt.Summary(out, bag, opts.color)
	}
	if opts.timings {
		printStageTimings(cmd.ErrOrStderr(), ws)
	}
	return tablesFailed || bag.HasErrors(), nil
}

func printDiagnostics(out io.Writer, bag *diag.Bag, ws *workspace.Workspace, opts diagOptions) error {
	pathMode := diagfmt.PathModeRelative
	if opts.fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	showFixes := opts.suggest || opts.preview

	switch opts.format {
	case diagfmt.FormatPretty:
		diagfmt.Pretty(out, bag, ws.Files, diagfmt.PrettyOpts{
			Color:       opts.color,
			Context:     2,
			PathMode:    pathMode,
			ShowNotes:   opts.withNotes,
			ShowFixes:   showFixes,
			ShowPreview: opts.preview,
		})
	case diagfmt.FormatShort:
		diagfmt.Short(out, bag, ws.Files, opts.withNotes)
	case diagfmt.FormatJSON:
		err := diagfmt.JSON(out, bag, ws.Files, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     opts.withNotes,
			IncludeFixes:     showFixes,
			IncludePreviews:  opts.preview,
		})
		if err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	case diagfmt.FormatSarif:
		err := diagfmt.Sarif(out, bag, ws.Files, diagfmt.SarifRunMeta{
			ToolName:    "dftemplate",
			ToolVersion: version.Version,
		})
		if err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	default:
		return fmt.Errorf("unknown format: %s", opts.format)
	}
	return nil
}
