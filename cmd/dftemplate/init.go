package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"dftemplate/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a dftemplate.toml manifest",
	Long: `Create a dftemplate.toml manifest with the default settings in path, or in the
current directory when path is omitted. A missing directory is created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("export-tables", false, "also export the embedded tables into ./tables and point the manifest at them")
}

func runInit(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	withTables, err := cmd.Flags().GetBool("export-tables")
	if err != nil {
		return fmt.Errorf("failed to get export-tables flag: %w", err)
	}

	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	cfg := project.DefaultConfig()
	if withTables {
		cfg.Knowledge.Tables = "tables"
	}
	manifestPath, err := project.WriteConfig(target, cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized dftemplate project in %s\n", filepath.Clean(target))
	fmt.Fprintf(out, "  - %s\n", filepath.Base(manifestPath))
	if withTables {
		return exportTables(out, filepath.Join(target, "tables"))
	}
	return nil
}
