// Package external runs a full-fidelity validator as a subprocess and
// reads back its diagnostic records. The layer is optional: any failure to
// produce records is reported as an UnavailableError so callers can degrade
// to a skipped-layer notice.
package external

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"portlint/internal/diag"
)

// DefaultToolchain is passed as --toolchain when nothing else is configured.
const DefaultToolchain = "6000.0.68f1"

// DefaultTimeout bounds a single validator run.
const DefaultTimeout = 30 * time.Second

// DefaultSetupExitCode is the exit status a validator uses to say it could
// not set itself up. It is not a verdict on the file.
const DefaultSetupExitCode = 3

// ErrUnavailable matches every UnavailableError via errors.Is.
var ErrUnavailable = errors.New("external validator unavailable")

// UnavailableError explains why the validator layer produced no verdict.
type UnavailableError struct {
	Reason string
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

func unavailable(err error, format string, args ...any) *UnavailableError {
	return &UnavailableError{Reason: fmt.Sprintf(format, args...), Err: err}
}

// Record is one diagnostic reported by the validator.
type Record struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Line     int    `json:"line"`
	Column   int    `json:"column,omitempty"`
	Message  string `json:"message"`
}

// Level maps the record's severity label. Labels other than error and
// warning (Info, Hidden) report false and are left out of the report.
func (r Record) Level() (diag.Severity, bool) {
	return diag.ParseSeverity(r.Severity)
}

// Options are per-run parameters forwarded to the validator.
type Options struct {
	ToolchainVersion string
	ProjectPath      string
	Timeout          time.Duration
}

// Validator checks one file and returns its records.
type Validator interface {
	Validate(ctx context.Context, path string, opts Options) ([]Record, error)
}

// Counts returns the number of error and warning records.
func Counts(records []Record) (errs, warns int) {
	for _, r := range records {
		sev, ok := r.Level()
		switch {
		case !ok:
			continue
		case sev == diag.SevError:
			errs++
		case sev == diag.SevWarning:
			warns++
		}
	}
	return errs, warns
}

// WriteText prints records in the analyzer's fixed line format, errors
// first, followed by the Total line.
func WriteText(w io.Writer, records []Record) error {
	errs, warns := Counts(records)
	if errs+warns == 0 {
		_, err := fmt.Fprintln(w, "External validation PASSED: No errors or warnings.")
		return err
	}
	for _, want := range []diag.Severity{diag.SevError, diag.SevWarning} {
		for _, r := range records {
			if sev, ok := r.Level(); !ok || sev != want {
				continue
			}
			if _, err := fmt.Fprintf(w, "  %s %s (line %d): %s\n", want, r.Code, r.Line, r.Message); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "\nTotal: %d error(s), %d warning(s)\n", errs, warns)
	return err
}
