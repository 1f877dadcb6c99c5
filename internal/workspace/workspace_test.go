package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dftemplate/internal/callgraph"
	"dftemplate/internal/diag"
	"dftemplate/internal/lint"
	"dftemplate/internal/quest"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func questText(name string, body string) string {
	return "Quest: " + name + "\nDisplayName: Test\n\nQRC:\n\nQBN:\n\n" + body
}

func analyzeDir(t *testing.T, dir string, opts Options) *Workspace {
	t.Helper()
	paths, err := Discover(dir)
	if err != nil {
		t.Fatal(err)
	}
	opts.BaseDir = dir
	ws, err := Analyze(context.Background(), paths, opts)
	if err != nil {
		t.Fatal(err)
	}
	return ws
}

func codes(doc *Document, code diag.Code) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, d := range doc.Bag.Items() {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

func TestDiscover(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"b.txt":             "",
		"A.TXT":             "",
		"sub/c.txt":         "",
		"sub/readme.md":     "",
		".git/ignored.txt":  "",
		"sub/.hidden/x.txt": "",
	})
	paths, err := Discover(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"A.TXT", "b.txt", "sub/c.txt"}
	if diff := cmp.Diff(want, DisplayPaths(paths, dir)); diff != "" {
		t.Errorf("Discover (-want +got):\n%s", diff)
	}

	single, err := Discover(filepath.Join(dir, "sub", "readme.md"))
	if err != nil || len(single) != 1 {
		t.Errorf("file root = %v, %v", single, err)
	}
}

func TestAnalyzeQuestCalls(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.txt":     questText("S0000001", "_start_ task:\n\tstart quest S0000002\n\tstart quest 3\n"),
		"b.txt":     questText("S0000002", "_start_ task:\n\tend quest\n"),
		"notes.txt": "just some notes\n",
	})
	ws := analyzeDir(t, dir, Options{ResolveQuests: true, Jobs: 2})

	if len(ws.Docs) != 3 || len(ws.Quests()) != 2 {
		t.Fatalf("docs = %d, quests = %d", len(ws.Docs), len(ws.Quests()))
	}
	if diff := cmp.Diff([]string{"S0000001", "S0000002"}, ws.QuestNames()); diff != "" {
		t.Errorf("QuestNames (-want +got):\n%s", diff)
	}

	a, _ := ws.FindQuest("1")
	undefined := codes(a, diag.SemUndefinedQuest)
	if len(undefined) != 1 || undefined[0].Message != "Reference to undefined quest: S0000003." {
		t.Errorf("undefined quest = %+v", undefined)
	}

	notes, ok := ws.Document("notes.txt")
	if !ok || notes.IsQuest() || notes.Bag.Len() != 0 {
		t.Errorf("plain text file must not be linted: %+v", notes)
	}

	callees := ws.Callees(a)
	if len(callees) != 2 {
		t.Fatalf("callees = %+v", callees)
	}
	if callees[0].Name != "S0000002" || callees[0].Target == nil || callees[0].Target.Display != "b.txt" {
		t.Errorf("first callee = %+v", callees[0])
	}
	if callees[1].Name != "S0000003" || callees[1].Target != nil {
		t.Errorf("second callee = %+v", callees[1])
	}

	callers, err := ws.Callers(context.Background(), "2")
	if err != nil || len(callers) != 1 || callers[0].Caller != a {
		t.Errorf("callers = %+v, %v", callers, err)
	}

	refs, err := ws.QuestReferences(context.Background(), "S0000002")
	if err != nil {
		t.Fatal(err)
	}
	var where []string
	for _, r := range refs {
		where = append(where, r.Doc.Display+":"+r.Span.Text(r.Doc.File))
	}
	if diff := cmp.Diff([]string{"a.txt:S0000002", "b.txt:S0000002"}, where); diff != "" {
		t.Errorf("QuestReferences (-want +got):\n%s", diff)
	}
}

func TestResolveQuestsDisabled(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.txt": questText("S0000001", "_start_ task:\n\tstart quest S0000009\n"),
	})
	ws := analyzeDir(t, dir, Options{})
	if n := len(codes(ws.Docs[0], diag.SemUndefinedQuest)); n != 0 {
		t.Errorf("undefined quest reported without ResolveQuests: %d", n)
	}
}

func TestDuplicateQuestName(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.txt": questText("S0000001", ""),
		"b.txt": questText("S0000001", ""),
	})
	ws := analyzeDir(t, dir, Options{})
	first, _ := ws.Document("a.txt")
	second, _ := ws.Document("b.txt")

	if n := len(codes(first, diag.SemDuplicateQuestName)); n != 0 {
		t.Errorf("first declaration reported %d times", n)
	}
	dups := codes(second, diag.SemDuplicateQuestName)
	if len(dups) != 1 {
		t.Fatalf("duplicates = %+v", dups)
	}
	if dups[0].Message != "Quest name already in use: S0000001." {
		t.Errorf("message = %q", dups[0].Message)
	}
	if len(dups[0].Notes) != 1 || dups[0].Notes[0].Span.File != first.File.ID {
		t.Errorf("note must point at the first declaration: %+v", dups[0].Notes)
	}
}

func TestLoadError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.txt")
	ws, err := Analyze(context.Background(), []string{missing}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	doc := ws.Docs[0]
	if doc.LoadErr == nil || doc.Quest != nil || len(doc.File.Content) != 0 {
		t.Fatalf("expected load error, got %+v", doc)
	}
	loadErrs := codes(doc, diag.IOLoadFileError)
	if len(loadErrs) != 1 || !ws.HasErrors() {
		t.Fatalf("diagnostics = %+v", doc.Bag.Items())
	}
	if loadErrs[0].Primary.File != doc.File.ID {
		t.Error("load error must point at the missing file")
	}
}

func TestDiskCache(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.txt": questText("S0000001", "Item _gold_ gold\n\n_start_ task:\n\tsay 1011\n"),
	})
	cache, err := NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	first := analyzeDir(t, dir, Options{Cache: cache})
	second := analyzeDir(t, dir, Options{Cache: cache})
	if first.Docs[0].Cached || !second.Docs[0].Cached {
		t.Fatalf("cached = %v then %v", first.Docs[0].Cached, second.Docs[0].Cached)
	}

	summarize := func(ws *Workspace) []string {
		var out []string
		for _, d := range ws.Docs[0].Bag.Items() {
			out = append(out, d.Code.ID()+" "+d.Primary.String()+" "+d.Message)
		}
		return out
	}
	if len(summarize(first)) == 0 {
		t.Fatal("fixture should produce findings")
	}
	if diff := cmp.Diff(summarize(first), summarize(second)); diff != "" {
		t.Errorf("cached findings differ (-fresh +cached):\n%s", diff)
	}

	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	var payload DiskPayload
	key := CacheKey(first.Docs[0].File.Hash, first.KB.Hash(), lint.Options{})
	if ok, _ := cache.Get(key, &payload); ok {
		t.Error("DropAll left entries behind")
	}
}

func TestCacheKeyDependsOnOptions(t *testing.T) {
	var content, kbHash Digest
	a := CacheKey(content, kbHash, lint.Options{})
	if a == CacheKey(content, kbHash, lint.Options{NoSuggestions: true}) {
		t.Error("NoSuggestions must change the key")
	}
}

func TestCancelledAnalysis(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.txt": questText("S0000001", ""),
		"b.txt": questText("S0000002", ""),
	})
	paths, _ := Discover(dir)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ws, err := Analyze(ctx, paths, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if ws == nil || len(ws.Docs) != 0 {
		t.Errorf("no document should finish after cancellation: %+v", ws)
	}
}

func TestProgressEvents(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.txt":     questText("S0000001", ""),
		"plain.txt": "hello\n",
	})
	var (
		mu   sync.Mutex
		last = map[string]Event{}
	)
	sink := SinkFunc(func(evt Event) {
		mu.Lock()
		defer mu.Unlock()
		last[evt.File] = evt
	})
	analyzeDir(t, dir, Options{Progress: sink})

	for _, file := range []string{"a.txt", "plain.txt"} {
		evt := last[file]
		if evt.Stage != StageLint || evt.Status != StatusDone {
			t.Errorf("%s ended with %+v", file, evt)
		}
	}
}

func TestDocumentReferences(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.txt": "Quest: S0000001\n\nQRC:\n\nMessage: 1011\nYou found =gold_ and %pcn.\n\n" +
			"QBN:\nItem _gold_ gold\nClock _timer_ 00:10\n\n" +
			"_start_ task:\n\tclicked item _gold_ say 1011\n\tstart timer _timer_\n\n" +
			"_timer_ task:\n\tclear _start_\n",
	})
	ws := analyzeDir(t, dir, Options{})
	doc := ws.Docs[0]

	texts := func(locs []Location) []string {
		var out []string
		for _, l := range locs {
			out = append(out, l.Span.Text(doc.File))
		}
		return out
	}

	if diff := cmp.Diff([]string{"=gold_", "_gold_", "_gold_"}, texts(SymbolReferences(doc, "__gold_"))); diff != "" {
		t.Errorf("symbol refs (-want +got):\n%s", diff)
	}
	if got := texts(SymbolReferences(doc, "_timer_")); len(got) != 3 {
		t.Errorf("clock refs = %v", got)
	}
	if diff := cmp.Diff([]string{"_start_", "_start_"}, texts(TaskReferences(doc, "_start_"))); diff != "" {
		t.Errorf("task refs (-want +got):\n%s", diff)
	}

	m, ok := doc.Quest.Qrc.MessageByID(1011)
	if !ok {
		t.Fatal("message 1011 not parsed")
	}
	if got := MessageReferences(doc, m); len(got) != 2 {
		t.Errorf("message refs = %v", texts(got))
	}

	macros, err := ws.MacroReferences(context.Background(), "%pcn")
	if err != nil || len(macros) != 1 {
		t.Errorf("macro refs = %v, %v", macros, err)
	}

	var clicked *quest.Action
	for a := range doc.Quest.Qbn.AllActions() {
		if strings.HasPrefix(a.Name(), "clicked") {
			clicked = a
		}
	}
	if clicked == nil {
		t.Fatal("clicked action not parsed")
	}
	actions, err := ws.ActionReferences(context.Background(), clicked.Info())
	if err != nil || len(actions) != 1 {
		t.Errorf("action refs = %v, %v", actions, err)
	}
}

func TestCallGraphOrder(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.txt": questText("S0000001", "_start_ task:\n\tstart quest S0000002\n"),
		"b.txt": questText("S0000002", "_start_ task:\n\tstart quest S0000003\n"),
		"c.txt": questText("S0000003", "_start_ task:\n\tstart quest 2\n"),
	})
	ws := analyzeDir(t, dir, Options{})

	idx, g := ws.CallGraph()
	topo := callgraph.ToposortKahn(g)
	if !topo.Cyclic {
		t.Fatal("S0000002 and S0000003 start each other")
	}
	if diff := cmp.Diff([]string{"S0000001"}, idx.Names(topo.Order)); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"S0000002", "S0000003"}, idx.Names(topo.Cycles)); diff != "" {
		t.Errorf("cycles (-want +got):\n%s", diff)
	}
}

func TestSymbolReferencesSkipLongerNames(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.txt": "Quest: S0000001\n\nQRC:\n\nMessage: 1011\nTake =gold_bar_ or =gold_.\n\n" +
			"QBN:\nItem _gold_ gold\nItem _gold_bar_ gold\n\n" +
			"_start_ task:\n\tclicked item _gold_bar_ say 1011\n",
	})
	ws := analyzeDir(t, dir, Options{})
	doc := ws.Docs[0]

	var got []string
	for _, l := range SymbolReferences(doc, "_gold_") {
		got = append(got, l.Span.Text(doc.File))
	}
	if diff := cmp.Diff([]string{"=gold_", "_gold_"}, got); diff != "" {
		t.Errorf("refs (-want +got):\n%s", diff)
	}
}
