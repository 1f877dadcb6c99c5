package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"dftemplate/internal/project"
	"dftemplate/internal/workspace"
)

// watchDebounce groups the bursts of events editors produce on save.
const watchDebounce = 200 * time.Millisecond

// watchDiagnose re-runs diagnostics whenever a quest file or the manifest
// changes, until interrupted.
func watchDiagnose(cmd *cobra.Command, s *session, opts diagOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, s.baseDir, s.isDir); err != nil {
		return err
	}
	if s.manifest != nil && s.manifest.Root != s.baseDir {
		if err := watcher.Add(s.manifest.Root); err != nil {
			return fmt.Errorf("failed to watch %s: %w", s.manifest.Root, err)
		}
	}
	if s.manifest != nil && s.manifest.TablesDir() != "" {
		// каталога таблиц может не быть, тогда используются встроенные
		_ = watcher.Add(s.manifest.TablesDir())
	}

	run := func() {
		if !opts.quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "== %s: checking %s ==\n", time.Now().Format("15:04:05"), s.target)
		}
		if _, err := diagnoseOnce(ctx, cmd, s, opts, false); err != nil && ctx.Err() == nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
		}
	}
	run()

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && s.isDir {
				// новые подкаталоги тоже нужно слушать
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = addWatchDirs(watcher, ev.Name, true)
				}
			}
			if !relevantChange(ev, s) {
				continue
			}
			timer.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watch: %v\n", err)
		case <-timer.C:
			if err := reloadSession(ctx, s, opts); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
				continue
			}
			run()
		}
	}
}

// addWatchDirs watches dir and, when recursive, every non-hidden directory
// below it. fsnotify does not recurse on its own.
func addWatchDirs(w *fsnotify.Watcher, dir string, recursive bool) error {
	if !recursive {
		return w.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func relevantChange(ev fsnotify.Event, s *session) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(ev.Name)
	if name == project.ManifestName {
		return true
	}
	if s.manifest != nil && s.manifest.TablesDir() != "" &&
		filepath.Clean(filepath.Dir(ev.Name)) == filepath.Clean(s.manifest.TablesDir()) {
		return true
	}
	if !s.isDir {
		return filepath.Clean(ev.Name) == filepath.Clean(s.target)
	}
	return strings.EqualFold(filepath.Ext(name), workspace.QuestExt)
}

// reloadSession re-reads the manifest and tables, keeping the command line
// overrides.
func reloadSession(ctx context.Context, s *session, opts diagOptions) error {
	fresh, err := openSession(ctx, s.target, !opts.noCache)
	if err != nil {
		return err
	}
	if err := opts.apply(fresh); err != nil {
		return err
	}
	*s = *fresh
	return nil
}
