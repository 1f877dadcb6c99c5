// Package workspace analyzes many quest documents at once: discovery,
// concurrent parsing and linting, a disk cache of findings, checks that need
// every quest (duplicate names, calls to unknown quests) and reference
// search across documents.
package workspace

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"dftemplate/internal/diag"
	"dftemplate/internal/kb"
	"dftemplate/internal/lint"
	"dftemplate/internal/observ"
	"dftemplate/internal/parser"
	"dftemplate/internal/quest"
	"dftemplate/internal/source"
	"dftemplate/internal/trace"
)

type Options struct {
	// KB defaults to the embedded knowledge base.
	KB   *kb.KnowledgeBase
	Lint lint.Options
	// Jobs limits concurrent documents; non-positive means GOMAXPROCS.
	Jobs           int
	MaxDiagnostics int
	// Cache is optional.
	Cache *DiskCache
	// Progress is optional.
	Progress ProgressSink
	// BaseDir shortens paths in progress events.
	BaseDir string
	// ResolveQuests reports "start quest" calls to quests missing from the
	// workspace. Leave it off when analyzing a single file.
	ResolveQuests bool
}

// Document is the analysis result of one file.
type Document struct {
	Path    string
	Display string
	File    *source.File
	Quest   *quest.Quest
	Lines   []parser.Kind
	Bag     *diag.Bag
	// Cached is set when lint findings came from the disk cache.
	Cached bool
	// LoadErr is set when the file could not be read. File is then empty
	// and Quest is nil.
	LoadErr error
	Timing  observ.Report

	timer *observ.Timer
}

// IsQuest reports whether the document parsed as a quest template.
func (d *Document) IsQuest() bool {
	return d.Quest != nil && d.Quest.IsQuest()
}

// Workspace holds the documents of one analysis. It is read-only after
// Analyze returns.
type Workspace struct {
	Files   *source.FileSet
	KB      *kb.KnowledgeBase
	Docs    []*Document
	Timings Timings

	byName map[string][]*Document
}

// Analyze loads, parses and lints paths. Documents are analyzed
// concurrently; on cancellation the finished documents are returned along
// with the context error.
func Analyze(ctx context.Context, paths []string, opts Options) (*Workspace, error) {
	if opts.KB == nil {
		opts.KB = kb.Default()
	}
	ctx, span := trace.Start(ctx, trace.ScopePass, "analyze")
	defer span.WithCount("files", len(paths)).End("")

	ws := &Workspace{
		Files: source.NewFileSetWithBase(opts.BaseDir),
		KB:    opts.KB,
	}
	docs := make([]*Document, len(paths))
	for i, path := range paths {
		docs[i] = &Document{Path: path, Display: DisplayPath(path, opts.BaseDir), timer: observ.NewTimer()}
		emit(opts.Progress, Event{File: docs[i].Display, Stage: StageLoad, Status: StatusQueued})
	}

	// FileSet не потокобезопасен: загружаем всё до запуска воркеров
	ids := make([]source.FileID, len(docs))
	for i, doc := range docs {
		idx := doc.timer.Begin(string(StageLoad))
		ids[i], doc.LoadErr = ws.Files.Load(doc.Path)
		if doc.LoadErr != nil {
			// пустой файл, чтобы диагностика указывала на нужный путь
			ids[i] = ws.Files.Add(doc.Path, nil, 0)
		}
		doc.timer.End(idx, "")
	}
	// Get отдаёт указатель в срез FileSet, берём его после всех Load
	for i, doc := range docs {
		doc.File = ws.Files.Get(ids[i])
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	done := make([]bool, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(docs))))
	for i, doc := range docs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			analyzeDocument(gctx, doc, opts)
			done[i] = true
			return nil
		})
	}
	err := g.Wait()

	// результаты пишутся по индексу, мьютекс не нужен
	for i, doc := range docs {
		if !done[i] {
			continue
		}
		doc.Timing = doc.timer.Report()
		for _, stage := range []Stage{StageLoad, StageParse, StageLint} {
			ws.Timings.Add(stage, doc.timer.Duration(string(stage)))
		}
		ws.Docs = append(ws.Docs, doc)
	}
	ws.index()
	if err != nil {
		return ws, err
	}

	emit(opts.Progress, Event{Stage: StageQuests, Status: StatusWorking})
	start := time.Now()
	ws.checkQuests(ctx, opts)
	ws.Timings.Add(StageQuests, time.Since(start))
	emit(opts.Progress, Event{Stage: StageQuests, Status: StatusDone, Elapsed: time.Since(start)})
	return ws, nil
}

func analyzeDocument(ctx context.Context, doc *Document, opts Options) {
	_, span := trace.Start(ctx, trace.ScopeDocument, "document:"+doc.Display)
	defer func() {
		if doc.Bag != nil {
			span.WithCount("diagnostics", doc.Bag.Len())
		}
		span.End("")
	}()

	doc.Bag = diag.NewBag(opts.MaxDiagnostics)
	r := diag.BagReporter{Bag: doc.Bag}
	if doc.LoadErr != nil {
		diag.ReportError(r, diag.IOLoadFileError, source.Span{File: doc.File.ID},
			"failed to load file: "+doc.LoadErr.Error()).Emit()
		emit(opts.Progress, Event{File: doc.Display, Stage: StageLoad, Status: StatusError, Err: doc.LoadErr})
		span.WithExtra("status", "error")
		return
	}

	emit(opts.Progress, Event{File: doc.Display, Stage: StageParse, Status: StatusWorking})
	idx := doc.timer.Begin(string(StageParse))
	res := parser.ParseFile(doc.File, opts.KB)
	doc.timer.End(idx, "")
	doc.Quest, doc.Lines = res.Quest, res.Lines

	// обычные .txt рядом с квестами не проверяем
	if !doc.Quest.IsQuest() {
		span.WithExtra("status", "skipped")
		emit(opts.Progress, Event{File: doc.Display, Stage: StageLint, Status: StatusDone})
		return
	}

	emit(opts.Progress, Event{File: doc.Display, Stage: StageLint, Status: StatusWorking})
	idx = doc.timer.Begin(string(StageLint))
	doc.Cached = lintDocument(doc, opts, r)
	doc.timer.End(idx, cacheNote(doc.Cached))

	status := StatusDone
	if doc.Cached {
		status = StatusCached
		span.WithExtra("cache", "hit")
	}
	emit(opts.Progress, Event{
		File:    doc.Display,
		Stage:   StageLint,
		Status:  status,
		Elapsed: doc.timer.Duration(string(StageParse)) + doc.timer.Duration(string(StageLint)),
	})
}

// lintDocument reports cached findings when possible and reports whether
// the cache was used. Cache failures fall back to a fresh lint.
func lintDocument(doc *Document, opts Options, r diag.Reporter) bool {
	if opts.Cache == nil {
		lint.Run(doc.Quest, r, opts.Lint)
		return false
	}

	key := CacheKey(doc.File.Hash, opts.KB.Hash(), opts.Lint)
	var payload DiskPayload
	if ok, err := opts.Cache.Get(key, &payload); err == nil && ok {
		fromPayload(&payload, doc.File.ID, r)
		return true
	}

	fresh := diag.NewBag(0)
	lint.Run(doc.Quest, diag.BagReporter{Bag: fresh}, opts.Lint)
	for _, d := range fresh.Items() {
		r.Report(d)
	}
	// кэш — оптимизация, ошибка записи не мешает результату
	_ = opts.Cache.Put(key, toPayload(doc.File.Path, fresh.Items()))
	return false
}

func cacheNote(cached bool) string {
	if cached {
		return "cached"
	}
	return ""
}

func (ws *Workspace) index() {
	ws.byName = make(map[string][]*Document)
	for _, doc := range ws.Docs {
		if !doc.IsQuest() {
			continue
		}
		if name := doc.Quest.Name(); name != "" {
			ws.byName[name] = append(ws.byName[name], doc)
		}
	}
}

// Document returns the analysis of path as it was passed to Analyze.
func (ws *Workspace) Document(path string) (*Document, bool) {
	for _, doc := range ws.Docs {
		if doc.Path == path || doc.Display == path {
			return doc, true
		}
	}
	return nil, false
}

// Quests returns the documents that parsed as quests.
func (ws *Workspace) Quests() []*Document {
	var out []*Document
	for _, doc := range ws.Docs {
		if doc.IsQuest() {
			out = append(out, doc)
		}
	}
	return out
}

// Diagnostics merges the findings of every document into one bag, passing
// them through cfg.
func (ws *Workspace) Diagnostics(cfg diag.Config, max int) *diag.Bag {
	out := diag.NewBag(max)
	r := diag.FilterReporter{Config: cfg, Next: diag.BagReporter{Bag: out}}
	for _, doc := range ws.Docs {
		if doc.Bag == nil {
			continue
		}
		for _, d := range doc.Bag.Items() {
			r.Report(d)
		}
	}
	return out
}

// HasErrors reports whether any document has an error diagnostic.
func (ws *Workspace) HasErrors() bool {
	for _, doc := range ws.Docs {
		if doc.Bag != nil && doc.Bag.HasErrors() {
			return true
		}
	}
	return false
}

func (d *Document) String() string {
	return fmt.Sprintf("%s (%d diagnostics)", d.Display, d.Bag.Len())
}
