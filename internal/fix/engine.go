package fix

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"portlint/internal/diag"
	"portlint/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines selection strategy for fixes.
type ApplyMode uint8

const (
	ApplyModeOnce ApplyMode = iota
	ApplyModeAll
	ApplyModeID
)

// ApplyOptions configures how fixes are selected.
type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
	// DryRun computes file changes without writing them.
	DryRun bool
}

// Candidate is a fix offered by a diagnostic, with a stable ID.
type Candidate struct {
	ID            string
	Title         string
	Code          diag.Code
	Message       string
	Applicability diag.FixApplicability
	Path          string
	Line          uint32

	diag  diag.Diagnostic
	fix   diag.Fix
	order int
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	ID            string
	Title         string
	Code          diag.Code
	Message       string
	Applicability diag.FixApplicability
	PrimaryPath   string
	EditCount     int
}

// SkippedFix captures a skipped or failed fix with a reason.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange summarises modifications performed on a file. Content holds
// the rewritten bytes as they were (or, in dry-run mode, would be) written.
type FileChange struct {
	Path      string
	EditCount int
	Content   []byte
}

// ApplyResult aggregates applied fixes, skipped ones, and file changes.
type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

// Candidates lists every fix attached to diagnostics in application order.
// Fixes without an ID get one derived from code, file and position, e.g.
// "VS-PORT-001@graph.cs:15:12#0".
func Candidates(fs *source.FileSet, diagnostics []diag.Diagnostic) ([]Candidate, []SkippedFix) {
	cands := make([]Candidate, 0)
	skips := make([]SkippedFix, 0)
	seen := make(map[string]struct{})

	order := 0
	for _, d := range diagnostics {
		pos, _ := fs.Resolve(d.Primary)
		path := displayPath(fs, d.Primary.File)
		for idx, f := range d.Fixes {
			if f.ID == "" {
				f.ID = fmt.Sprintf("%s@%s:%d:%d#%d", d.Code.ID(), path, pos.Line, pos.Col, idx)
			}
			if len(f.Edits) == 0 {
				skips = append(skips, SkippedFix{ID: f.ID, Title: f.Title, Reason: "fix has no edits"})
				continue
			}
			if _, dup := seen[f.ID]; dup {
				skips = append(skips, SkippedFix{ID: f.ID, Title: f.Title, Reason: "duplicate fix id"})
				continue
			}
			seen[f.ID] = struct{}{}
			cands = append(cands, Candidate{
				ID:            f.ID,
				Title:         f.Title,
				Code:          d.Code,
				Message:       d.Message,
				Applicability: f.Applicability,
				Path:          path,
				Line:          pos.Line,
				diag:          d,
				fix:           f,
				order:         order,
			})
			order++
		}
	}
	sortCandidates(cands)
	return cands, skips
}

// Apply collects fixes from diagnostics, selects a subset according to opts, and applies them.
func Apply(fs *source.FileSet, diagnostics []diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{
		Applied:     make([]AppliedFix, 0),
		Skipped:     make([]SkippedFix, 0),
		FileChanges: make([]FileChange, 0),
	}
	if fs == nil {
		return result, fmt.Errorf("fix: FileSet is nil")
	}

	candidates, skips := Candidates(fs, diagnostics)
	result.Skipped = append(result.Skipped, skips...)
	if len(candidates) == 0 {
		return result, ErrNoFixes
	}

	selected, selectionSkips := selectCandidates(candidates, opts)
	result.Skipped = append(result.Skipped, selectionSkips...)
	if len(selected) == 0 {
		return result, ErrNoFixes
	}

	applied, skipped, changes, err := applyCandidates(fs, selected, opts.DryRun)
	result.Applied = append(result.Applied, applied...)
	result.Skipped = append(result.Skipped, skipped...)
	result.FileChanges = append(result.FileChanges, changes...)
	if err != nil {
		return result, err
	}
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}
	return result, nil
}

// sortCandidates orders by file, span, discovery order, then preference.
func sortCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		di, dj := candidates[i].diag, candidates[j].diag
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		if candidates[i].order != candidates[j].order {
			return candidates[i].order < candidates[j].order
		}
		if candidates[i].fix.IsPreferred != candidates[j].fix.IsPreferred {
			return candidates[i].fix.IsPreferred
		}
		return candidates[i].ID < candidates[j].ID
	})
}

func selectCandidates(candidates []Candidate, opts ApplyOptions) ([]Candidate, []SkippedFix) {
	switch opts.Mode {
	case ApplyModeID:
		for _, cand := range candidates {
			if cand.ID == opts.TargetID {
				return []Candidate{cand}, nil
			}
		}
		return nil, []SkippedFix{{ID: opts.TargetID, Reason: "fix id not found"}}
	case ApplyModeAll:
		selected := make([]Candidate, 0, len(candidates))
		skipped := make([]SkippedFix, 0)
		for _, cand := range candidates {
			if cand.Applicability == diag.FixApplicabilityAlwaysSafe {
				selected = append(selected, cand)
				continue
			}
			skipped = append(skipped, SkippedFix{
				ID:     cand.ID,
				Title:  cand.Title,
				Reason: fmt.Sprintf("applicability is %s", cand.Applicability),
			})
		}
		return selected, skipped
	case ApplyModeOnce:
		for _, cand := range candidates {
			if cand.Applicability == diag.FixApplicabilityAlwaysSafe {
				return []Candidate{cand}, nil
			}
		}
		return candidates[:1], nil
	}
	return nil, nil
}

func applyCandidates(fs *source.FileSet, selected []Candidate, dryRun bool) ([]AppliedFix, []SkippedFix, []FileChange, error) {
	accepted := make(map[source.FileID][]diag.TextEdit)
	applied := make([]AppliedFix, 0, len(selected))
	skipped := make([]SkippedFix, 0)

	for _, cand := range selected {
		reason := ""
		for _, edit := range cand.fix.Edits {
			if reason = checkEdit(fs, accepted[edit.Span.File], edit); reason != "" {
				break
			}
		}
		if reason == "" {
			reason = checkSelfOverlap(cand.fix.Edits)
		}
		if reason != "" {
			skipped = append(skipped, SkippedFix{ID: cand.ID, Title: cand.Title, Reason: reason})
			continue
		}
		for _, edit := range cand.fix.Edits {
			accepted[edit.Span.File] = append(accepted[edit.Span.File], edit)
		}
		applied = append(applied, AppliedFix{
			ID:            cand.ID,
			Title:         cand.Title,
			Code:          cand.Code,
			Message:       cand.Message,
			Applicability: cand.Applicability,
			PrimaryPath:   cand.Path,
			EditCount:     len(cand.fix.Edits),
		})
	}

	if len(applied) == 0 {
		return applied, skipped, nil, nil
	}

	ids := make([]source.FileID, 0, len(accepted))
	for id := range accepted {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	changes := make([]FileChange, 0, len(ids))
	for _, id := range ids {
		file := fs.Get(id)
		content := encodeLike(file, rewrite(file.Content, accepted[id]))
		if !dryRun {
			if err := writeFile(file.Path, content); err != nil {
				return applied, skipped, changes, fmt.Errorf("write %s: %w", file.Path, err)
			}
		}
		changes = append(changes, FileChange{
			Path:      file.FormatPath("relative", fs.BaseDir()),
			EditCount: len(accepted[id]),
			Content:   content,
		})
	}
	return applied, skipped, changes, nil
}

// checkEdit returns a skip reason, or "" when edit can be applied on top of
// the edits already accepted for its file.
func checkEdit(fs *source.FileSet, accepted []diag.TextEdit, edit diag.TextEdit) string {
	file := fs.Get(edit.Span.File)
	switch {
	case file == nil:
		return "target file is unknown"
	case file.Flags&source.FileVirtual != 0:
		return "target file is virtual"
	case file.Flags&source.FileDecodedUTF16 != 0:
		return "target file is UTF-16 encoded"
	}
	current, ok := file.Text(edit.Span)
	if !ok {
		return "edit span out of range"
	}
	if edit.OldText != "" && string(current) != edit.OldText {
		return "existing text does not match expected content"
	}
	for _, prev := range accepted {
		if spansConflict(prev, edit) {
			return fmt.Sprintf("conflicts with previously applied edits in %s", file.FormatPath("auto", fs.BaseDir()))
		}
	}
	return ""
}

func checkSelfOverlap(edits []diag.TextEdit) string {
	for i := range edits {
		for j := i + 1; j < len(edits); j++ {
			if edits[i].Span.File == edits[j].Span.File && spansConflict(edits[i], edits[j]) {
				return "fix has overlapping edits"
			}
		}
	}
	return ""
}

// spansConflict reports whether two text edits' spans overlap.
// Spans are treated as half-open intervals [Start, End). Two zero-length edits
// never conflict. A zero-length edit conflicts with a non-zero span if its
// position is within that span.
func spansConflict(a, b diag.TextEdit) bool {
	aStart, aEnd := a.Span.Start, a.Span.End
	bStart, bEnd := b.Span.Start, b.Span.End

	if aStart == aEnd && bStart == bEnd {
		return false
	}
	if aStart == aEnd {
		return bStart <= aStart && aStart < bEnd
	}
	if bStart == bEnd {
		return aStart <= bStart && bStart < aEnd
	}
	return aStart < bEnd && bStart < aEnd
}

// rewrite applies non-overlapping edits, all expressed against content.
func rewrite(content []byte, edits []diag.TextEdit) []byte {
	sorted := append([]diag.TextEdit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Span.Start < sorted[j].Span.Start
	})
	var out bytes.Buffer
	out.Grow(len(content))
	last := uint32(0)
	for _, e := range sorted {
		out.Write(content[last:e.Span.Start])
		out.WriteString(e.NewText)
		last = e.Span.End
	}
	out.Write(content[last:])
	return out.Bytes()
}

// encodeLike restores the line endings and byte order mark stripped on load.
func encodeLike(file *source.File, content []byte) []byte {
	if file.Flags&source.FileNormalizedCRLF != 0 {
		content = bytes.ReplaceAll(content, []byte("\n"), []byte("\r\n"))
	}
	if file.Flags&source.FileHadBOM != 0 {
		content = append([]byte{0xEF, 0xBB, 0xBF}, content...)
	}
	return content
}

func writeFile(path string, content []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".portlint-fix-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Chmod(name, mode); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return err
	}
	return nil
}

func displayPath(fs *source.FileSet, fileID source.FileID) string {
	file := fs.Get(fileID)
	if file == nil {
		return ""
	}
	return file.FormatPath("relative", fs.BaseDir())
}
