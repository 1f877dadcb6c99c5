package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dftemplate/internal/prof"
)

// setupProfiling starts the profilers selected by the persistent flags. The
// returned cleanup writes the profiles and is safe to call more than once.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	flags := cmd.Root().PersistentFlags()
	var opts prof.Options
	for name, dst := range map[string]*string{
		"cpu-profile":   &opts.CPU,
		"mem-profile":   &opts.Mem,
		"runtime-trace": &opts.RuntimeTrace,
	} {
		value, err := flags.GetString(name)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", name, err)
		}
		*dst = value
	}
	if !opts.Enabled() {
		return func() {}, nil
	}

	p, err := prof.Start(opts)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := p.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "profile: %v\n", err)
		}
	}, nil
}
