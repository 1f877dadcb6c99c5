package format

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dftemplate/internal/kb"
	"dftemplate/internal/parser"
	"dftemplate/internal/source"
)

const messy = "\n\nQuest: S0000001\nDisplayName: Test   \n\nQRC:\n\nMessage:  1011\n  <ce> Hello.  \n\nQBN:\n    Item _gold_ gold\n\n\n\nstart timer _c_\n_start_ task:\nclicked item _gold_\n        say 1011   \n\n\n- note  \n"

const tidy = "Quest: S0000001\nDisplayName: Test\n\nQRC:\n\nMessage:  1011\n  <ce> Hello.\n\nQBN:\nItem _gold_ gold\n\nstart timer _c_\n_start_ task:\n\tclicked item _gold_\n\tsay 1011\n\n- note\n"

func parse(t *testing.T, text string) (*source.File, parser.Result) {
	t.Helper()
	fs := source.NewFileSet()
	sf := fs.Get(fs.AddVirtual("quest.txt", []byte(text)))
	return sf, parser.ParseFile(sf, kb.Default())
}

func TestFormatFile(t *testing.T) {
	sf, res := parse(t, messy)
	got, err := FormatFile(sf, res)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(tidy, string(got)); diff != "" {
		t.Errorf("formatted (-want +got):\n%s", diff)
	}

	// повторное форматирование ничего не меняет
	sf, res = parse(t, tidy)
	again, err := FormatFile(sf, res)
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != tidy {
		t.Errorf("not idempotent:\n%s", again)
	}
}

func TestFormatWithSpaces(t *testing.T) {
	sf, res := parse(t, "QBN:\n_a_ task:\nsay 1011\n\n\n\n_b_ task:\nsay 1011\n")
	got, err := FormatFileWith(sf, res, Options{IndentWidth: 2, MaxBlankLines: 2})
	if err != nil {
		t.Fatal(err)
	}
	want := "QBN:\n_a_ task:\n  say 1011\n\n\n_b_ task:\n  say 1011\n"
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("formatted (-want +got):\n%s", diff)
	}
}

func TestFormatRejectsStaleResult(t *testing.T) {
	sf, _ := parse(t, "QBN:\n")
	_, other := parse(t, "QBN:\n")
	if _, err := FormatFile(sf, other); err == nil {
		t.Error("expected error for a result of another file")
	}
	if _, err := FormatFile(nil, other); err == nil {
		t.Error("expected error for nil file")
	}
}

func TestCheckRoundTrip(t *testing.T) {
	sf, _ := parse(t, messy)
	if ok, msg := CheckRoundTrip(sf, kb.Default(), Options{}); !ok {
		t.Error(msg)
	}
}

func TestFormatPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	crlf := "QBN:\r\n_a_ task:\r\nsay 1011  \r\n"
	if err := os.WriteFile(path, []byte(crlf), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := FormatPaths(context.Background(), []string{path}, kb.Default(), PathOptions{Check: true})
	if err != nil || len(res) != 1 || !res[0].Changed {
		t.Fatalf("check = %+v, %v", res, err)
	}
	if data, _ := os.ReadFile(path); string(data) != crlf {
		t.Fatal("check mode wrote the file")
	}

	res, err = FormatPaths(context.Background(), []string{path}, kb.Default(), PathOptions{})
	if err != nil || res[0].Err != nil || !res[0].Changed {
		t.Fatalf("write = %+v, %v", res, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "QBN:\r\n_a_ task:\r\n\tsay 1011\r\n"; string(data) != want {
		t.Errorf("written %q, want %q", data, want)
	}

	if _, err := FormatPaths(context.Background(), nil, kb.Default(), PathOptions{}); err == nil {
		t.Error("expected error for no paths")
	}
}
