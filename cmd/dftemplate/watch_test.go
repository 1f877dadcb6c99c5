package main

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"
)

func fsnotifyWrite(name string) fsnotify.Event {
	return fsnotify.Event{Name: name, Op: fsnotify.Write}
}

func TestRelevantChange(t *testing.T) {
	dir := &session{target: "quests", isDir: true}
	single := &session{target: "quests/a.txt"}

	cases := []struct {
		name string
		ev   fsnotify.Event
		s    *session
		want bool
	}{
		{"quest file", fsnotifyWrite("quests/a.TXT"), dir, true},
		{"other file", fsnotifyWrite("quests/a.md"), dir, false},
		{"manifest", fsnotifyWrite("quests/dftemplate.toml"), dir, true},
		{"chmod only", fsnotify.Event{Name: "quests/a.txt", Op: fsnotify.Chmod}, dir, false},
		{"removed quest", fsnotify.Event{Name: "quests/b.txt", Op: fsnotify.Remove}, dir, true},
		{"renamed quest", fsnotify.Event{Name: "quests/b.txt", Op: fsnotify.Rename}, dir, true},
		{"target file", fsnotifyWrite("quests/a.txt"), single, true},
		{"sibling of target", fsnotifyWrite("quests/b.txt"), single, false},
		{"manifest next to target", fsnotifyWrite("quests/dftemplate.toml"), single, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := relevantChange(tc.ev, tc.s); got != tc.want {
				t.Errorf("relevantChange(%v) = %v, want %v", tc.ev, got, tc.want)
			}
		})
	}
}

func TestAddWatchDirsSkipsHidden(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"act1", "act1/side", ".git", ".git/objects"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		t.Skipf("watcher unavailable: %v", err)
	}
	defer w.Close()

	if err := addWatchDirs(w, root, true); err != nil {
		t.Fatalf("addWatchDirs: %v", err)
	}
	var got []string
	for _, p := range w.WatchList() {
		rel, _ := filepath.Rel(root, p)
		got = append(got, filepath.ToSlash(rel))
	}
	slices.Sort(got)
	if diff := cmp.Diff([]string{".", "act1", "act1/side"}, got); diff != "" {
		t.Errorf("watched (-want +got):\n%s", diff)
	}
}
