package glob

import "fmt"

// ErrorKind classifies why a pattern failed to parse.
type ErrorKind int

// The error kinds a restricted glob pattern can fail with.
const (
	// ParentDirectory is returned when `..` appears at a segment boundary.
	ParentDirectory ErrorKind = iota
	// InvalidCharacter is returned for a disallowed character outside `[...]`.
	InvalidCharacter
	// InvalidCharacterRange is returned for a disallowed character inside `[...]`.
	InvalidCharacterRange
	// TooManyStars is returned for a `*` run that can't be represented portably.
	TooManyStars
	// GlobEngineError is returned when a syntactically valid pattern nonetheless
	// fails to translate to a working regular expression. This should be
	// unreachable for any pattern this package itself accepts; it's kept so a
	// translation bug surfaces as an error rather than a panic.
	GlobEngineError
)

// Error is returned by Parse when a pattern is rejected. It always carries
// the offending pattern and the 0-based character position of the problem.
type Error struct {
	Kind ErrorKind
	Glob string
	Pos  int

	// Invalid is the offending character, when the kind is character-related.
	// It is the zero rune for ParentDirectory and TooManyStars.
	Invalid rune

	// wrapped holds the underlying translation error of a GlobEngineError when
	// one is attached. Nothing in this module attaches one: the
	// GlobEngineErrors that globset returns carry only the pattern, so their
	// Error text is "glob engine error" and Unwrap returns nil.
	wrapped error
}

// Error implements the error interface. The wording and position here are
// part of the tested contract: callers (and tests) match on this text
// exactly, not just on Kind. The kinds don't all share one template, because
// ParentDirectory's is phrased slightly differently; the two character kinds
// share theirs.
func (e *Error) Error() string {
	switch e.Kind {
	case ParentDirectory:
		return fmt.Sprintf("The parent directory operator (`..`) at position %d is not allowed in glob: `%s`", e.Pos, e.Glob)
	case InvalidCharacter, InvalidCharacterRange:
		return fmt.Sprintf("Invalid character `%c` at position %d in glob: `%s`", e.Invalid, e.Pos, e.Glob)
	case TooManyStars:
		// "at stars" rather than "stars at" preserves the reference
		// implementation's literal wording.
		return fmt.Sprintf("Too many at stars at position %d in glob: `%s`", e.Pos, e.Glob)
	case GlobEngineError:
		if e.wrapped != nil {
			return e.wrapped.Error()
		}
		return "glob engine error"
	default:
		return fmt.Sprintf("invalid glob at position %d in glob: `%s`", e.Pos, e.Glob)
	}
}

// Unwrap exposes the underlying translation error of a GlobEngineError, if
// one is attached (see wrapped), so callers can use errors.As/errors.Is
// against it.
func (e *Error) Unwrap() error {
	return e.wrapped
}
