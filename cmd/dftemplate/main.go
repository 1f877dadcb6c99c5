package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"dftemplate/internal/version"
)

// errDiagnostics makes the process exit with status 1 without printing
// anything more: the findings have already been reported.
var errDiagnostics = errors.New("diagnostics reported errors")

var rootCmd = &cobra.Command{
	Use:   "dftemplate",
	Short: "Daggerfall quest template checker",
	Long:  `dftemplate parses Daggerfall quest templates and reports structural, reference and style problems`,

	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		stopTrace, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		cleanups = append(cleanups, stopTrace)
		stopProf, err := setupProfiling(cmd)
		if err != nil {
			return err
		}
		cleanups = append(cleanups, stopProf)
		return nil
	},
}

// cleanups run after the command, in reverse order, whatever its outcome.
var cleanups []func()

func main() {
	// Устанавливаем версию для автоматического флага --version
	rootCmd.Version = version.Version

	rootCmd.AddCommand(diagCmd)
	rootCmd.AddCommand(refsCmd)
	rootCmd.AddCommand(callsCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(fmtCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 0, "maximum number of diagnostics to show (0 = manifest value)")
	rootCmd.PersistentFlags().String("trace", "", "write trace events to a file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "events kept by the ring tracer")
	rootCmd.PersistentFlags().Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval (0 = off)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to the file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to the file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to the file")

	err := rootCmd.Execute()
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	if err != nil {
		if !errors.Is(err, errDiagnostics) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves --color for output written to f.
func useColor(cmd *cobra.Command, f *os.File) (bool, error) {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch colorFlag {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		return isTerminal(f), nil
	}
	return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
}
