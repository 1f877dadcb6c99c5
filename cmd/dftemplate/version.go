package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"dftemplate/internal/kb"
	"dftemplate/internal/version"
)

type versionPayload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	Tables    string `json:"tables"`
}

var versionFormat string

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		switch strings.ToLower(versionFormat) {
		case "json":
			return renderVersionJSON(cmd.OutOrStdout())
		case "pretty":
			color, err := useColor(cmd, os.Stdout)
			if err != nil {
				return err
			}
			renderVersionPretty(cmd.OutOrStdout(), color)
			return nil
		}
		return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFormat)
	},
}

// tablesFingerprint identifies the embedded knowledge base.
func tablesFingerprint() string {
	hash := kb.Default().Hash()
	return fmt.Sprintf("%x", hash[:6])
}

func renderVersionPretty(out io.Writer, color bool) {
	fmt.Fprintln(out, version.Describe(color))
	fmt.Fprintf(out, "tables: %s\n", tablesFingerprint())
}

func renderVersionJSON(out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(versionPayload{
		Tool:      "dftemplate",
		Version:   version.Version,
		GitCommit: strings.TrimSpace(version.GitCommit),
		BuildDate: strings.TrimSpace(version.BuildDate),
		Tables:    tablesFingerprint(),
	})
}
