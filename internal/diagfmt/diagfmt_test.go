package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portlint/internal/diag"
	"portlint/internal/source"
)

const sample = "class G {\n" +
	"  void Build() {\n" +
	"    var eq = new Equal();\n" +
	"    var sum = new ScalarSum();\n" +
	"    Connect(eq.equal, sum.a);\n" +
	"  }\n" +
	"}\n"

func span(file source.FileID, text, needle string) source.Span {
	i := strings.Index(text, needle)
	if i < 0 {
		panic("needle not found: " + needle)
	}
	return source.Span{File: file, Start: uint32(i), End: uint32(i + len(needle))}
}

func sampleFiles(t *testing.T) ([]File, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSetWithBase("/work")
	id := fs.AddVirtual("graph.cs", []byte(sample))
	bag := diag.NewBag(0)

	eqSpan := span(id, sample, "eq.equal")
	accessor := source.Span{File: id, Start: eqSpan.Start + 3, End: eqSpan.End}
	r := diag.BagReporter{Bag: bag}
	diag.ReportError(r, diag.PortComparisonAccessor, eqSpan,
		"'eq.equal' is wrong. Equal exposes its output as '.comparison'. Use 'eq.comparison' instead.").
		WithNote(span(id, sample, "eq = new Equal()"), "'eq' is declared here").
		WithFix("use 'comparison'", accessor, "equal", "comparison").
		Emit()
	diag.ReportWarning(r, diag.PortMultiInputSlot, span(id, sample, "sum.a"), "slot warning").Emit()
	diag.ReportError(r, diag.PortMultiInputSlot, span(id, sample, "sum.a"), "slot error").Emit()

	return []File{{Path: "graph.cs", ID: id, Bag: bag}}, fs
}

func TestTextFixedFormat(t *testing.T) {
	files, fs := sampleFiles(t)
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, files, fs, TextOpts{}))

	want := "  ERROR VS-PORT-001 (line 5): 'eq.equal' is wrong. Equal exposes its output as '.comparison'. Use 'eq.comparison' instead.\n" +
		"  ERROR VS-PORT-003 (line 5): slot error\n" +
		"  WARNING VS-PORT-003 (line 5): slot warning\n" +
		"\n" +
		"Total: 2 error(s), 1 warning(s)\n"
	assert.Equal(t, want, buf.String())
}

func TestTextNoIssues(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("clean.cs", []byte("class C {}\n"))
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, []File{{Path: "clean.cs", ID: id, Bag: diag.NewBag(0)}}, fs, TextOpts{}))
	assert.Equal(t, NoIssuesMessage+"\n", buf.String())
}

func TestTextHeadersAndDropped(t *testing.T) {
	fs := source.NewFileSet()
	a := fs.AddVirtual("a.cs", []byte("x.equal\n"))
	b := fs.AddVirtual("b.cs", []byte("class C {}\n"))
	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.PortComparisonAccessor, source.Span{File: a, Start: 0, End: 7}, "first"))
	bag.Add(diag.NewError(diag.PortComparisonAccessor, source.Span{File: a, Start: 0, End: 7}, "second"))

	var buf bytes.Buffer
	err := Text(&buf, []File{
		{Path: "a.cs", ID: a, Bag: bag},
		{Path: "b.cs", ID: b, Bag: diag.NewBag(0)},
	}, fs, TextOpts{Headers: true})
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "a.cs:\n  ERROR VS-PORT-001 (line 1): first\n"), out)
	assert.Contains(t, out, "1 more diagnostic(s) not shown (limit 1)")
	assert.NotContains(t, out, "b.cs:")
	assert.True(t, strings.HasSuffix(out, "\nTotal: 2 error(s), 0 warning(s)\n"), out)
}

func TestShortKeepsBagOrder(t *testing.T) {
	files, fs := sampleFiles(t)
	var buf bytes.Buffer
	require.NoError(t, Short(&buf, files, fs, false))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "error VS-PORT-001 graph.cs:5:13 "), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "warning VS-PORT-003 graph.cs:5:23 "), lines[1])
}

func TestPrettyUnderlinesSpan(t *testing.T) {
	files, fs := sampleFiles(t)
	var buf bytes.Buffer
	require.NoError(t, Pretty(&buf, files, fs, PrettyOpts{ShowNotes: true, ShowFixes: true, ShowPreview: true}))
	out := buf.String()

	assert.Contains(t, out, "graph.cs:5:13: ERROR VS-PORT-001: 'eq.equal' is wrong.")
	assert.Contains(t, out, "5 |     Connect(eq.equal, sum.a);\n")
	assert.Contains(t, out, "  |             ^~~~~~~~\n")
	assert.Contains(t, out, "note: graph.cs:3:9: 'eq' is declared here")
	assert.Contains(t, out, "fix: use 'comparison' (always-safe)")
	assert.Contains(t, out, "-     Connect(eq.equal, sum.a);")
	assert.Contains(t, out, "+     Connect(eq.comparison, sum.a);")
	assert.Contains(t, out, "2 error(s) 1 warning(s)")
	assert.NotContains(t, out, "\x1b[", "colour must be off")
}

func TestPrettyColor(t *testing.T) {
	files, fs := sampleFiles(t)
	var buf bytes.Buffer
	require.NoError(t, Pretty(&buf, files, fs, PrettyOpts{Color: true}))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestPrettyClipsWidth(t *testing.T) {
	assert.Equal(t, "abc", clip("abc", 0))
	assert.Equal(t, "ab…", clip("abcdef", 3))
	assert.Equal(t, "    x", expandTabs("\tx"))
}

func TestJSONReport(t *testing.T) {
	files, fs := sampleFiles(t)
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, files, fs, JSONOpts{IncludeNotes: true, IncludeFixes: true, IncludePreviews: true}))

	var out DiagnosticsOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 2, out.Errors)
	assert.Equal(t, 1, out.Warnings)
	require.Len(t, out.Files, 1)

	f := out.Files[0]
	assert.Equal(t, "graph.cs", f.File)
	assert.Equal(t, 3, f.Count)
	first := f.Diagnostics[0]
	assert.Equal(t, "ERROR", first.Severity)
	assert.Equal(t, "VS-PORT-001", first.Code)
	assert.EqualValues(t, 5, first.Line)
	require.Len(t, first.Notes, 1)
	require.Len(t, first.Fixes, 1)
	require.Len(t, first.Fixes[0].Edits, 1)
	assert.Equal(t, "comparison", first.Fixes[0].Edits[0].NewText)
	assert.Equal(t, []string{"    Connect(eq.comparison, sum.a);"}, first.Fixes[0].Edits[0].AfterLines)
}

func TestJSONMaxAndEmpty(t *testing.T) {
	files, fs := sampleFiles(t)
	out := BuildDiagnosticsOutput(files, fs, JSONOpts{Max: 1})
	assert.Equal(t, 1, out.Files[0].Count)
	assert.Nil(t, out.Files[0].Diagnostics[0].Notes)

	empty := BuildDiagnosticsOutput([]File{{Path: "x.cs", ID: 99}}, fs, JSONOpts{})
	require.Len(t, empty.Files, 1)
	assert.NotNil(t, empty.Files[0].Diagnostics)
	assert.Equal(t, "x.cs", empty.Files[0].File)
}

func TestSarifLog(t *testing.T) {
	files, fs := sampleFiles(t)
	var buf bytes.Buffer
	meta := SarifRunMeta{
		ToolVersion: "1.0.0",
		Rules:       []RuleMeta{{ID: "VS-PORT-001", Name: "comparison-accessor", Short: "legacy comparison accessor"}},
		RunGUID:     "2f0c8f44-6b3a-4c52-9f0e-1d2b3c4d5e6f",
	}
	require.NoError(t, Sarif(&buf, files, fs, meta))

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
			AutomationDetails struct {
				GUID string `json:"guid"`
			} `json:"automationDetails"`
			Results []struct {
				RuleID    string `json:"ruleId"`
				RuleIndex *int   `json:"ruleIndex"`
				Level     string `json:"level"`
				Fixes     []any  `json:"fixes"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &log))
	assert.Equal(t, "2.1.0", log.Version)
	require.Len(t, log.Runs, 1)
	run := log.Runs[0]
	assert.Equal(t, "portlint", run.Tool.Driver.Name)
	assert.Equal(t, meta.RunGUID, run.AutomationDetails.GUID)
	require.Len(t, run.Results, 3)
	assert.Equal(t, "VS-PORT-001", run.Results[0].RuleID)
	require.NotNil(t, run.Results[0].RuleIndex)
	assert.Equal(t, 0, *run.Results[0].RuleIndex)
	assert.Len(t, run.Results[0].Fixes, 1)
	assert.Equal(t, "warning", run.Results[1].Level)
	assert.Nil(t, run.Results[1].RuleIndex)
}

func TestSarifGeneratesGUID(t *testing.T) {
	files, fs := sampleFiles(t)
	var a, b bytes.Buffer
	require.NoError(t, Sarif(&a, files, fs, SarifRunMeta{}))
	require.NoError(t, Sarif(&b, files, fs, SarifRunMeta{}))
	assert.NotEqual(t, a.String(), b.String())
}

func TestParseFormatAndPathMode(t *testing.T) {
	for _, name := range strings.Split(FormatNames, "|") {
		f, err := ParseFormat(name)
		require.NoError(t, err)
		assert.Equal(t, name, f.String())
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)

	m, err := ParsePathMode("relative")
	require.NoError(t, err)
	assert.Equal(t, PathModeRelative, m)
	_, err = ParsePathMode("weird")
	assert.Error(t, err)
}
