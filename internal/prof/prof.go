// Package prof wires the Go profilers to the --cpu-profile, --mem-profile
// and --runtime-trace flags.
package prof

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Options names the output files; empty paths disable a profiler.
type Options struct {
	CPU          string
	Mem          string
	RuntimeTrace string
}

func (o Options) Enabled() bool {
	return o.CPU != "" || o.Mem != "" || o.RuntimeTrace != ""
}

// Profiler owns the open profile files until Stop.
type Profiler struct {
	opts      Options
	cpuFile   *os.File
	traceFile *os.File
	stopped   bool
}

// Start enables the CPU profile and the runtime trace. The heap profile is
// written by Stop.
func Start(opts Options) (*Profiler, error) {
	p := &Profiler{opts: opts}
	if opts.CPU != "" {
		f, err := os.Create(opts.CPU)
		if err != nil {
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		p.cpuFile = f
	}
	if opts.RuntimeTrace != "" {
		f, err := os.Create(opts.RuntimeTrace)
		if err == nil {
			err = trace.Start(f)
			if err != nil {
				_ = f.Close()
			}
		}
		if err != nil {
			p.stopCPU()
			return nil, fmt.Errorf("runtime trace: %w", err)
		}
		p.traceFile = f
	}
	return p, nil
}

func (p *Profiler) stopCPU() {
	if p.cpuFile == nil {
		return
	}
	pprof.StopCPUProfile()
	_ = p.cpuFile.Close()
	p.cpuFile = nil
}

// Stop finishes every profiler. Calling it again is a no-op.
func (p *Profiler) Stop() error {
	if p == nil || p.stopped {
		return nil
	}
	p.stopped = true

	var errs []error
	if p.traceFile != nil {
		trace.Stop()
		errs = append(errs, p.traceFile.Close())
		p.traceFile = nil
	}
	p.stopCPU()
	if p.opts.Mem != "" {
		errs = append(errs, writeMem(p.opts.Mem))
	}
	return errors.Join(errs...)
}

func writeMem(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	return nil
}
