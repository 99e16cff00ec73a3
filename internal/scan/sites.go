package scan

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"fortio.org/safecast"
)

// Ident matches a C# identifier without the verbatim @ prefix.
const Ident = `[A-Za-z_][A-Za-z0-9_]*`

// Site is one `identifier.accessor` occurrence.
type Site struct {
	Ident          string
	Accessor       string
	Offset         uint32 // start of the identifier
	AccessorOffset uint32 // start of the accessor
}

// Alternation quotes names and joins them longest first, so that a regexp
// never settles on a shorter prefix of a longer name.
func Alternation(names []string) string {
	sorted := slices.Clone(names)
	slices.SortFunc(sorted, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	sorted = slices.Compact(sorted)
	quoted := make([]string, 0, len(sorted))
	for _, name := range sorted {
		if name == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(name))
	}
	return strings.Join(quoted, "|")
}

var accessorPatterns sync.Map // alternation -> *regexp.Regexp

func accessorPattern(alt string) *regexp.Regexp {
	if re, ok := accessorPatterns.Load(alt); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(fmt.Sprintf(`\b(%s)\s*\.\s*(%s)\b`, Ident, alt))
	actual, _ := accessorPatterns.LoadOrStore(alt, re)
	return actual.(*regexp.Regexp)
}

// Accessors finds every `identifier . accessor` in text whose accessor is one
// of accessors. Whitespace is allowed around the dot; the accessor must end
// on a word boundary. Sites come back in text order.
func Accessors(text []byte, accessors []string) []Site {
	alt := Alternation(accessors)
	if alt == "" {
		return nil
	}
	matches := accessorPattern(alt).FindAllSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	sites := make([]Site, 0, len(matches))
	for _, m := range matches {
		start, err := safecast.Conv[uint32](m[2])
		if err != nil {
			break
		}
		accStart, err := safecast.Conv[uint32](m[4])
		if err != nil {
			break
		}
		sites = append(sites, Site{
			Ident:          string(text[m[2]:m[3]]),
			Accessor:       string(text[m[4]:m[5]]),
			Offset:         start,
			AccessorOffset: accStart,
		})
	}
	return sites
}
