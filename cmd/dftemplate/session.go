package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"dftemplate/internal/diag"
	"dftemplate/internal/diagfmt"
	"dftemplate/internal/kb"
	"dftemplate/internal/lint"
	"dftemplate/internal/project"
	"dftemplate/internal/source"
	"dftemplate/internal/trace"
	"dftemplate/internal/workspace"
)

// session is what every analyzing command needs: the target, the manifest
// settings and the knowledge base they select.
type session struct {
	target   string
	isDir    bool
	baseDir  string
	manifest *project.Manifest
	config   project.Config

	kb      *kb.KnowledgeBase
	kbFiles *source.FileSet
	kbBag   *diag.Bag

	lint   lint.Options
	filter diag.Config
	cache  *workspace.DiskCache
}

// openSession resolves target and the manifest above it. The disk cache is
// opened only when both the caller and the manifest allow it.
func openSession(ctx context.Context, target string, allowCache bool) (*session, error) {
	_, span := trace.Start(ctx, trace.ScopeDriver, "session")
	defer span.End(target)

	st, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}
	s := &session{target: target, isDir: st.IsDir(), config: project.DefaultConfig()}
	s.baseDir = target
	if !s.isDir {
		s.baseDir = filepath.Dir(target)
	}

	manifest, ok, err := project.LoadManifest(target)
	if err != nil {
		return nil, err
	}
	if ok {
		s.manifest = manifest
		s.config = manifest.Config
	}

	s.kbFiles = source.NewFileSetWithBase(s.baseDir)
	s.kbBag = diag.NewBag(0)
	tables := ""
	if s.manifest != nil {
		tables = s.manifest.TablesDir()
	}
	s.kb, err = kb.Load(s.kbFiles, tables, diag.BagReporter{Bag: s.kbBag})
	if err != nil {
		return nil, err
	}

	if s.lint, err = s.config.LintOptions(); err != nil {
		return nil, err
	}
	if s.filter, err = s.config.DiagConfig(); err != nil {
		return nil, err
	}

	if allowCache && s.config.CacheEnabled() {
		// без кэша всё работает, просто медленнее
		if cache, err := workspace.OpenDiskCache("dftemplate"); err == nil {
			s.cache = cache
		}
	}
	return s, nil
}

// paths lists the quest files of the target.
func (s *session) paths() ([]string, error) {
	return workspace.Discover(s.target)
}

// options builds the analysis options. jobs and max override the manifest
// when positive.
func (s *session) options(jobs, max int) workspace.Options {
	if jobs <= 0 {
		jobs = s.config.Workspace.Jobs
	}
	return workspace.Options{
		KB:             s.kb,
		Lint:           s.lint,
		Jobs:           jobs,
		MaxDiagnostics: s.maxDiagnostics(max),
		Cache:          s.cache,
		BaseDir:        s.baseDir,
		ResolveQuests:  s.isDir,
	}
}

func (s *session) maxDiagnostics(flag int) int {
	if flag > 0 {
		return flag
	}
	return s.config.Diagnostics.Max
}

// analyze runs a plain analysis without progress output.
func (s *session) analyze(ctx context.Context, jobs int) (*workspace.Workspace, error) {
	paths, err := s.paths()
	if err != nil {
		return nil, err
	}
	return workspace.Analyze(ctx, paths, s.options(jobs, 0))
}

// reportTables prints rejected table files to stderr. It reports whether any
// table was rejected.
func (s *session) reportTables(cmd *cobra.Command) bool {
	if s.kbBag.Len() == 0 {
		return false
	}
	color, err := useColor(cmd, os.Stderr)
	if err != nil {
		color = false
	}
	s.kbBag.Sort()
	diagfmt.Pretty(cmd.ErrOrStderr(), s.kbBag, s.kbFiles, diagfmt.PrettyOpts{
		Color:     color,
		Context:   1,
		PathMode:  diagfmt.PathModeRelative,
		ShowNotes: true,
	})
	return s.kbBag.HasErrors()
}

// findDocument locates path among the analyzed documents.
func findDocument(ws *workspace.Workspace, path string) (*workspace.Document, error) {
	if doc, ok := ws.Document(path); ok {
		return doc, nil
	}
	if doc, ok := ws.Document(filepath.ToSlash(path)); ok {
		return doc, nil
	}
	return nil, fmt.Errorf("%s is not part of the analyzed files", path)
}
