package trace

import (
	"fmt"
	"strings"
)

// Level controls which spans are recorded. Each level past LevelError adds
// one scope of the driver → file → rule tree.
type Level uint8

const (
	LevelOff    Level = iota // nothing
	LevelError               // points only
	LevelPhase               // driver and file spans
	LevelDetail              // plus one span per rule
	LevelDebug               // every scope
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel accepts the names produced by String in any case.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// ShouldEmit reports whether spans of scope are recorded at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch {
	case l >= LevelDebug:
		return true
	case l == LevelDetail:
		return scope <= ScopeRule
	case l == LevelPhase:
		return scope <= ScopeFile
	}
	return false
}
