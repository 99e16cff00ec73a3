package diag

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevWarning is reserved for findings that must not fail a run.
	SevWarning Severity = iota + 1
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// ParseSeverity accepts the labels produced by String as well as lower-case
// forms used by external tools.
func ParseSeverity(s string) (Severity, bool) {
	switch s {
	case "ERROR", "error", "Error":
		return SevError, true
	case "WARNING", "warning", "Warning", "warn":
		return SevWarning, true
	}
	return 0, false
}
