package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"dftemplate/internal/format"
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [flags] <quest.txt|directory>",
	Short: "Format quest templates",
	Long: `Re-indent task actions, drop trailing whitespace and collapse blank lines in QBN.
Message text is left as written. Files keep their encoding and line endings.`,
	Args: cobra.ExactArgs(1),
	RunE: runFmt,
}

func init() {
	fmtCmd.Flags().Bool("check", false, "check if files are properly formatted")
	fmtCmd.Flags().String("format", "text", "output format (text|json)")
	fmtCmd.Flags().Bool("stdout", false, "print formatted templates to stdout instead of rewriting files")
}

func runFmt(cmd *cobra.Command, args []string) error {
	check, err := cmd.Flags().GetBool("check")
	if err != nil {
		return err
	}
	outputFormat, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	writeToStdout, err := cmd.Flags().GetBool("stdout")
	if err != nil {
		return err
	}
	if writeToStdout && check {
		return errors.New("fmt: --stdout cannot be used with --check")
	}
	if writeToStdout && outputFormat != "text" {
		return errors.New("fmt: --stdout is only supported with text output")
	}
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")

	ctx := cmd.Context()
	s, err := openSession(ctx, args[0], false)
	if err != nil {
		return err
	}
	paths, err := s.paths()
	if err != nil {
		return err
	}
	results, err := format.FormatPaths(ctx, paths, s.kb, format.PathOptions{
		Check:   check,
		Stdout:  writeToStdout,
		Options: s.config.FormatOptions(),
	})
	if err != nil {
		return err
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	var hasErrors, hasChanges bool
	switch outputFormat {
	case "text":
		hasErrors, hasChanges = renderFmtText(out, errOut, results, check, writeToStdout, quiet)
	case "json":
		hasErrors, hasChanges = fmtStatus(results)
		if err := renderFmtJSON(out, results, check); err != nil {
			return err
		}
	default:
		return fmt.Errorf("fmt: unsupported output format %q", outputFormat)
	}

	if hasErrors {
		return errors.New("fmt: failed to format some files")
	}
	if check && hasChanges {
		return errDiagnostics
	}
	return nil
}

func fmtStatus(results []format.Result) (hasErrors, hasChanges bool) {
	for _, res := range results {
		hasErrors = hasErrors || res.Err != nil
		hasChanges = hasChanges || res.Changed
	}
	return hasErrors, hasChanges
}

func renderFmtText(out, errOut io.Writer, results []format.Result, check, stdout, quiet bool) (hasErrors, hasChanges bool) {
	for _, res := range results {
		if res.Err != nil {
			hasErrors = true
			fmt.Fprintf(errOut, "fmt: %s: %v\n", res.Path, res.Err)
			continue
		}
		switch {
		case stdout:
			_, _ = out.Write(res.Formatted)
		case !res.Changed:
		case check:
			hasChanges = true
			if !quiet {
				fmt.Fprintln(out, res.Path)
			}
		default:
			hasChanges = true
			if !quiet {
				fmt.Fprintf(out, "reformatted %s\n", res.Path)
			}
		}
	}
	return hasErrors, hasChanges
}

func renderFmtJSON(out io.Writer, results []format.Result, check bool) error {
	type jsonResult struct {
		Path     string `json:"path"`
		Changed  bool   `json:"changed"`
		Error    string `json:"error,omitempty"`
		CheckRun bool   `json:"check"`
	}

	payload := make([]jsonResult, 0, len(results))
	for _, res := range results {
		jr := jsonResult{Path: res.Path, Changed: res.Changed, CheckRun: check}
		if res.Err != nil {
			jr.Error = res.Err.Error()
		}
		payload = append(payload, jr)
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
