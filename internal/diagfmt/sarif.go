package diagfmt

import (
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/google/uuid"

	"portlint/internal/diag"
	"portlint/internal/source"
)

const (
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
	sarifVersion = "2.1.0"
)

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool               sarifTool              `json:"tool"`
	AutomationDetails  sarifAutomationDetails `json:"automationDetails"`
	Invocations        []sarifInvocation      `json:"invocations,omitempty"`
	Results            []sarifResult          `json:"results"`
	OriginalURIBaseIDs map[string]sarifURI    `json:"originalUriBaseIds,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	Name             string       `json:"name,omitempty"`
	ShortDescription *sarifText   `json:"shortDescription,omitempty"`
	FullDescription  *sarifText   `json:"fullDescription,omitempty"`
	DefaultConfig    *sarifConfig `json:"defaultConfiguration,omitempty"`
}

type sarifConfig struct {
	Level string `json:"level"`
}

type sarifText struct {
	Text string `json:"text"`
}

type sarifAutomationDetails struct {
	GUID string `json:"guid"`
}

type sarifInvocation struct {
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type sarifURI struct {
	URI string `json:"uri"`
}

type sarifResult struct {
	RuleID           string                 `json:"ruleId"`
	RuleIndex        *int                   `json:"ruleIndex,omitempty"`
	Level            string                 `json:"level"`
	Message          sarifText              `json:"message"`
	Locations        []sarifLocation        `json:"locations"`
	RelatedLocations []sarifRelatedLocation `json:"relatedLocations,omitempty"`
	Fixes            []sarifFix             `json:"fixes,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifRelatedLocation struct {
	ID               int                   `json:"id"`
	Message          sarifText             `json:"message"`
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId,omitempty"`
}

type sarifRegion struct {
	StartLine   uint32 `json:"startLine"`
	StartColumn uint32 `json:"startColumn"`
	EndLine     uint32 `json:"endLine"`
	EndColumn   uint32 `json:"endColumn"`
	CharOffset  uint32 `json:"charOffset"`
	CharLength  uint32 `json:"charLength"`
}

type sarifFix struct {
	Description     sarifText             `json:"description"`
	ArtifactChanges []sarifArtifactChange `json:"artifactChanges"`
}

type sarifArtifactChange struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Replacements     []sarifReplacement    `json:"replacements"`
}

type sarifReplacement struct {
	DeletedRegion   sarifRegion `json:"deletedRegion"`
	InsertedContent sarifText   `json:"insertedContent"`
}

func sarifLevel(sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	}
	return "note"
}

func sarifPhysical(fs *source.FileSet, sp source.Span) sarifPhysicalLocation {
	loc := sarifPhysicalLocation{
		Region: sarifRegion{CharOffset: sp.Start, CharLength: sp.Len()},
	}
	f := fs.Get(sp.File)
	if f == nil {
		return loc
	}
	start, end := fs.Resolve(sp)
	loc.Region.StartLine, loc.Region.StartColumn = start.Line, start.Col
	loc.Region.EndLine, loc.Region.EndColumn = end.Line, end.Col
	loc.ArtifactLocation.URI = normalizeURI(f.FormatPath("relative", fs.BaseDir()))
	if f.Flags&source.FileVirtual == 0 && fs.BaseDir() != "" {
		loc.ArtifactLocation.URIBaseID = "SRCROOT"
	}
	return loc
}

// Sarif writes a SARIF 2.1.0 log with a single run.
func Sarif(w io.Writer, files []File, fs *source.FileSet, meta SarifRunMeta) error {
	ruleIndex := make(map[string]int, len(meta.Rules))
	rules := make([]sarifRule, 0, len(meta.Rules))
	for i, r := range meta.Rules {
		ruleIndex[r.ID] = i
		sr := sarifRule{
			ID:            r.ID,
			Name:          r.Name,
			DefaultConfig: &sarifConfig{Level: "error"},
		}
		if r.Short != "" {
			sr.ShortDescription = &sarifText{Text: r.Short}
		}
		if r.Help != "" {
			sr.FullDescription = &sarifText{Text: r.Help}
		}
		rules = append(rules, sr)
	}

	guid := meta.RunGUID
	if guid == "" {
		guid = uuid.NewString()
	}
	name := meta.ToolName
	if name == "" {
		name = "portlint"
	}

	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:           name,
			Version:        meta.ToolVersion,
			InformationURI: meta.InformationURI,
			Rules:          rules,
		}},
		AutomationDetails: sarifAutomationDetails{GUID: guid},
		Results:           []sarifResult{},
	}
	if base := baseDir(fs); base != "" {
		run.OriginalURIBaseIDs = map[string]sarifURI{"SRCROOT": {URI: "file://" + normalizeURI(base) + "/"}}
	}

	for _, f := range files {
		if f.Bag == nil {
			continue
		}
		for _, d := range f.Bag.Items() {
			res := sarifResult{
				RuleID:    d.Code.ID(),
				Level:     sarifLevel(d.Severity),
				Message:   sarifText{Text: d.Message},
				Locations: []sarifLocation{{PhysicalLocation: sarifPhysical(fs, d.Primary)}},
			}
			if idx, ok := ruleIndex[res.RuleID]; ok {
				res.RuleIndex = &idx
			}
			for i, n := range d.Notes {
				res.RelatedLocations = append(res.RelatedLocations, sarifRelatedLocation{
					ID:               i + 1,
					Message:          sarifText{Text: n.Msg},
					PhysicalLocation: sarifPhysical(fs, n.Span),
				})
			}
			for _, fix := range d.Fixes {
				sf := sarifFix{Description: sarifText{Text: fix.Title}}
				for _, edit := range fix.Edits {
					pl := sarifPhysical(fs, edit.Span)
					sf.ArtifactChanges = append(sf.ArtifactChanges, sarifArtifactChange{
						ArtifactLocation: pl.ArtifactLocation,
						Replacements: []sarifReplacement{{
							DeletedRegion:   pl.Region,
							InsertedContent: sarifText{Text: edit.NewText},
						}},
					})
				}
				res.Fixes = append(res.Fixes, sf)
			}
			run.Results = append(run.Results, res)
		}
	}
	if len(meta.InvocationArgs) > 0 {
		run.Invocations = []sarifInvocation{{Arguments: meta.InvocationArgs, ExecutionSuccessful: true}}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(sarifLog{Schema: sarifSchema, Version: sarifVersion, Runs: []sarifRun{run}})
}

func baseDir(fs *source.FileSet) string {
	if fs == nil {
		return ""
	}
	return fs.BaseDir()
}

func normalizeURI(p string) string {
	return filepath.ToSlash(p)
}
