// Package scan is the lexical layer shared by the binding extractors and the
// rules: comment masking and accessor-site search over raw C# text.
package scan

// Mask returns a copy of src in which every comment byte is replaced by a
// space. Newlines survive so offsets and line numbers stay valid. String and
// character literals, including verbatim (@"..."), interpolated ($"...") and
// raw ("""...""") forms, are copied untouched. Unterminated constructs run to
// the end of the input.
func Mask(src []byte) []byte {
	out := make([]byte, len(src))
	copy(out, src)

	i := 0
	n := len(src)
	for i < n {
		c := src[i]
		switch {
		case c == '/' && i+1 < n && src[i+1] == '/':
			for i < n && src[i] != '\n' {
				out[i] = ' '
				i++
			}
		case c == '/' && i+1 < n && src[i+1] == '*':
			out[i], out[i+1] = ' ', ' '
			i += 2
			for i < n {
				if src[i] == '*' && i+1 < n && src[i+1] == '/' {
					out[i], out[i+1] = ' ', ' '
					i += 2
					break
				}
				if src[i] != '\n' {
					out[i] = ' '
				}
				i++
			}
		case c == '"':
			i = skipString(src, i, isVerbatimPrefix(src, i))
		case c == '\'':
			i = skipChar(src, i)
		default:
			i++
		}
	}
	return out
}

// isVerbatimPrefix reports whether the quote at i is preceded by @, $@ or @$.
func isVerbatimPrefix(src []byte, i int) bool {
	for j := i - 1; j >= 0 && j >= i-2; j-- {
		switch src[j] {
		case '@':
			return true
		case '$':
			continue
		default:
			return false
		}
	}
	return false
}

// skipString returns the offset just past the string literal that opens at i.
func skipString(src []byte, i int, verbatim bool) int {
	n := len(src)
	quotes := 0
	for j := i; j < n && src[j] == '"'; j++ {
		quotes++
	}
	if quotes >= 3 {
		return skipRawString(src, i+quotes, quotes)
	}
	i++
	for i < n {
		switch src[i] {
		case '\\':
			if !verbatim {
				i += 2
				continue
			}
		case '"':
			if verbatim && i+1 < n && src[i+1] == '"' {
				i += 2
				continue
			}
			return i + 1
		case '\n':
			if !verbatim {
				return i
			}
		}
		i++
	}
	return n
}

func skipRawString(src []byte, i, quotes int) int {
	n := len(src)
	run := 0
	for ; i < n; i++ {
		if src[i] == '"' {
			run++
			if run == quotes {
				return i + 1
			}
			continue
		}
		run = 0
	}
	return n
}

func skipChar(src []byte, i int) int {
	n := len(src)
	i++
	for i < n {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case '\'':
			return i + 1
		case '\n':
			return i
		}
		i++
	}
	return n
}
