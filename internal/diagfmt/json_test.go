package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dftemplate/internal/diag"
	"dftemplate/internal/source"
)

// TestJSONBasic проверяет базовое JSON форматирование
func TestJSONBasic(t *testing.T) {
	bag, fs, _ := undefinedGold(t, "quest.txt")

	var buf bytes.Buffer
	err := JSON(&buf, bag, fs, JSONOpts{
		IncludePositions: true,
		PathMode:         PathModeBasename,
		IncludeNotes:     true,
		IncludeFixes:     true,
		IncludePreviews:  true,
	})
	if err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput: %s", err, buf.String())
	}
	if output.Count != 1 || len(output.Diagnostics) != 1 {
		t.Fatalf("Expected 1 diagnostic, got %d", output.Count)
	}

	got := output.Diagnostics[0]
	want := DiagnosticJSON{
		Severity: "ERROR",
		Code:     "SEM2004",
		Message:  "Reference to undefined symbol: _gld_.",
		Location: LocationJSON{File: "quest.txt", StartByte: 19, EndByte: 24, StartLine: 2, StartCol: 15, EndLine: 2, EndCol: 20},
		Notes: []NoteJSON{{
			Message:  "did you mean _gold_?",
			Location: LocationJSON{File: "quest.txt", StartByte: 30, EndByte: 36, StartLine: 3, StartCol: 6, EndLine: 3, EndCol: 12},
		}},
		Fixes: []FixJSON{{
			Title: "Replace with _gold_",
			Edits: []FixEditJSON{{
				Location:    LocationJSON{File: "quest.txt", StartByte: 19, EndByte: 24, StartLine: 2, StartCol: 15, EndLine: 2, EndCol: 20},
				NewText:     "_gold_",
				OldText:     "_gld_",
				BeforeLines: []string{"\tclicked item _gld_"},
				AfterLines:  []string{"\tclicked item _gold_"},
			}},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("diagnostic mismatch (-want +got):\n%s", diff)
	}
}

// TestJSONWithoutPositions проверяет вывод без line/col
func TestJSONWithoutPositions(t *testing.T) {
	bag, fs, _ := undefinedGold(t, "quest.txt")

	output := BuildDiagnosticsOutput(bag, fs, JSONOpts{PathMode: PathModeBasename})
	loc := output.Diagnostics[0].Location
	if loc.StartLine != 0 || loc.StartCol != 0 {
		t.Errorf("positions must be omitted: %+v", loc)
	}
	if output.Diagnostics[0].Notes != nil || output.Diagnostics[0].Fixes != nil {
		t.Error("notes and fixes must be omitted")
	}
}

func TestJSONMaxLimit(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("quest.txt", []byte("QBN:\n_a_ task:\n_b_ task:\n"))
	bag := diag.NewBag(10)
	for _, start := range []uint32{5, 15} {
		bag.Add(diag.New(diag.SevWarning, diag.LntUnusedTask, source.Span{File: fileID, Start: start, End: start + 3}, "unused"))
	}

	output := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 1})
	if output.Count != 1 {
		t.Errorf("Count = %d, want 1", output.Count)
	}
	if !output.Diagnostics[0].Unnecessary {
		t.Error("unused task must be marked unnecessary")
	}
}

func TestSarif(t *testing.T) {
	bag, fs, fileID := undefinedGold(t, "quest.txt")
	bag.Add(diag.New(diag.SevHint, diag.StyNamingConvention, source.Span{File: fileID, Start: 0, End: 3}, "naming"))

	var buf bytes.Buffer
	meta := SarifRunMeta{ToolName: "dftemplate", ToolVersion: "1.2.3", InvocationArgs: []string{"diag", "quests"}}
	if err := Sarif(&buf, bag, fs, meta); err != nil {
		t.Fatal(err)
	}

	var log struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name  string `json:"name"`
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID    string `json:"ruleId"`
				RuleIndex int    `json:"ruleIndex"`
				Level     string `json:"level"`
				Locations []struct {
					PhysicalLocation struct {
						ArtifactLocation struct {
							URI string `json:"uri"`
						} `json:"artifactLocation"`
						Region struct {
							StartLine   int `json:"startLine"`
							StartColumn int `json:"startColumn"`
						} `json:"region"`
					} `json:"physicalLocation"`
				} `json:"locations"`
				RelatedLocations []json.RawMessage `json:"relatedLocations"`
			} `json:"results"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("invalid SARIF: %v\n%s", err, buf.String())
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("log = %+v", log)
	}
	run := log.Runs[0]
	if run.Tool.Driver.Name != "dftemplate" || len(run.Tool.Driver.Rules) != 2 {
		t.Errorf("driver = %+v", run.Tool.Driver)
	}
	if len(run.Results) != 2 {
		t.Fatalf("results = %+v", run.Results)
	}
	first := run.Results[0]
	if first.RuleID != "SEM2004" || first.Level != "error" || first.RuleIndex != 0 {
		t.Errorf("first result = %+v", first)
	}
	if loc := first.Locations[0].PhysicalLocation; loc.ArtifactLocation.URI != "quest.txt" || loc.Region.StartLine != 2 || loc.Region.StartColumn != 15 {
		t.Errorf("location = %+v", loc)
	}
	if len(first.RelatedLocations) != 1 {
		t.Errorf("notes must become related locations: %d", len(first.RelatedLocations))
	}
	if second := run.Results[1]; second.Level != "note" || second.RuleIndex != 1 {
		t.Errorf("second result = %+v", second)
	}
}
