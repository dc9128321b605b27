// Package glob validates and compiles the restricted portable glob dialect:
// a deliberately small subset of shell globbing that's guaranteed to mean
// the same thing on every platform and every backing filesystem, because it
// never touches the filesystem itself. Parse rejects anything it can't
// promise that about.
package glob

import (
	"strings"
	"unicode"

	"github.com/hashicorp/go-multierror"
)

// Compiled is a validated pattern, ready to be turned into a matcher by
// package globset. It's cheap to build and holds no compiled regular
// expression of its own; globset compiles the automata from Regexp when it
// builds a matcher.
type Compiled struct {
	// Raw is the original pattern text, unmodified.
	Raw string
}

// Regexp returns the anchored, byte-oriented regular expression that
// recognises exactly the paths this glob matches. The translation never
// looks at Unicode properties: `.` is the only literal that needs escaping,
// `?` and `*` only ever stand for "one/zero-or-more characters that aren't
// `/`" (each character matched as one complete UTF-8 sequence), and `**`
// stands for "zero or more complete segments".
func (c *Compiled) Regexp() string {
	var b strings.Builder
	b.WriteByte('^')
	runes := []rune(c.Raw)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				if i+2 < len(runes) && runes[i+2] == '/' {
					// "**/": zero or more whole segments, each including its
					// own trailing slash, so the `/` that follows in the source
					// pattern is absorbed here rather than emitted again below.
					b.WriteString(`(?:[^/]+/)*`)
					i += 2
				} else {
					// A trailing "**": zero or more whole segments, with the
					// final one allowed to omit its slash since nothing follows.
					b.WriteString(`(?:[^/]+/)*[^/]*`)
					i++
				}
			} else {
				b.WriteString(`[^/]*`)
			}
		case '?':
			b.WriteString(`[^/]`)
		case '[':
			j := i + 1
			for j < len(runes) && runes[j] != ']' {
				j++
			}
			writeCharClass(&b, runes[i+1:j])
			i = j
		case '.', '\\', '+', '(', ')', '|', '^', '$':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('$')
	return b.String()
}

func writeCharClass(b *strings.Builder, body []rune) {
	b.WriteByte('[')
	for _, r := range body {
		if r == ']' || r == '\\' || r == '^' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte(']')
}

// allowedLiteral reports whether r is legal outside of a character class,
// other than the operators handled specially by the parser (*, ?, [, ], /).
func allowedLiteral(r rune) bool {
	return r == '_' || r == '-' || r == '.' || isAlphanumeric(r)
}

// allowedInClass reports whether r is legal inside a `[...]` body, including
// as a range endpoint.
func allowedInClass(r rune) bool {
	return r == '_' || r == '-' || r == '.' || isAlphanumeric(r)
}

func isAlphanumeric(r rune) bool {
	return (r >= '0' && r <= '9') ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r > 0x7f && (unicode.IsLetter(r) || unicode.IsDigit(r)))
}

// Parse validates pattern against the restricted dialect and returns a
// Compiled glob. It never touches the filesystem: validity is a pure
// function of the pattern text.
func Parse(pattern string) (*Compiled, error) {
	runes := []rune(pattern)
	startOrSlash := true

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '/':
			startOrSlash = true
			continue

		case r == '.':
			if startOrSlash && i+1 < len(runes) && runes[i+1] == '.' {
				return nil, &Error{Kind: ParentDirectory, Glob: pattern, Pos: i}
			}
			startOrSlash = false

		case r == '*':
			firstStar := i
			n := 1
			for i+1 < len(runes) && runes[i+1] == '*' {
				i++
				n++
			}
			var nextRune rune
			hasNext := i+1 < len(runes)
			if hasNext {
				nextRune = runes[i+1]
			}
			followsOK := !hasNext || nextRune == '/'
			precedesOK := startOrSlash
			if n >= 3 || (n == 2 && !(followsOK && precedesOK)) {
				return nil, &Error{Kind: TooManyStars, Glob: pattern, Pos: firstStar}
			}
			startOrSlash = false

		case r == '?':
			startOrSlash = false

		case r == '[':
			j := i + 1
			for j < len(runes) && runes[j] != ']' {
				c := runes[j]
				if !allowedInClass(c) {
					return nil, &Error{Kind: InvalidCharacterRange, Glob: pattern, Pos: j, Invalid: c}
				}
				j++
			}
			i = j
			startOrSlash = false

		default:
			if !allowedLiteral(r) {
				return nil, &Error{Kind: InvalidCharacter, Glob: pattern, Pos: i, Invalid: r}
			}
			startOrSlash = false
		}
	}

	return &Compiled{Raw: pattern}, nil
}

// MustParse is like Parse but panics on an invalid pattern. It's meant for
// patterns baked into the program, not ones read from user input.
func MustParse(pattern string) *Compiled {
	c, err := Parse(pattern)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseAll parses every pattern in patterns, collecting every failure rather
// than stopping at the first one, so a caller reading a glob file gets a
// single report covering all of its mistakes.
func ParseAll(patterns []string) ([]*Compiled, error) {
	compiled := make([]*Compiled, 0, len(patterns))
	var result error
	for _, p := range patterns {
		c, err := Parse(p)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		compiled = append(compiled, c)
	}
	return compiled, result
}
