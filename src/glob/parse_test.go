package glob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccepts(t *testing.T) {
	for _, pattern := range []string{
		"licenses/LICENSE.txt",
		"licenses/*.txt",
		"licenses/**/*.txt",
		"**/*.txt",
		"**",
		"*/**",
		"a?c.txt",
		"licenses/LICENSE..txt",
		"src/[a-zA-Z0-9_.-]*.go",
		"src/[-abc]",
		"src/[abc-]",
		"licenses/風.txt",
	} {
		t.Run(pattern, func(t *testing.T) {
			c, err := Parse(pattern)
			require.NoError(t, err)
			assert.Equal(t, pattern, c.Raw)
		})
	}
}

func TestParseRejectsLeadingParentDirectory(t *testing.T) {
	_, err := Parse("../licenses")
	require.Error(t, err)
	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, ParentDirectory, ge.Kind)
	assert.Equal(t, 0, ge.Pos)
	assert.Equal(t, "The parent directory operator (`..`) at position 0 is not allowed in glob: `../licenses`", err.Error())
}

func TestParseRejectsParentDirectoryAfterSlash(t *testing.T) {
	_, err := Parse("licenses/../eula.txt")
	require.Error(t, err)
	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, ParentDirectory, ge.Kind)
	assert.Equal(t, 9, ge.Pos)
}

func TestParseAllowsDotDotMidLiteral(t *testing.T) {
	_, err := Parse("licenses/LICENSE..txt")
	assert.NoError(t, err)
}

func TestParseRejectsBackslash(t *testing.T) {
	_, err := Parse(`licenses\eula.txt`)
	require.Error(t, err)
	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, InvalidCharacter, ge.Kind)
	assert.Equal(t, '\\', ge.Invalid)
	assert.Equal(t, 8, ge.Pos)
}

func TestParseRejectsBang(t *testing.T) {
	_, err := Parse("licenses/LICEN!E.txt")
	require.Error(t, err)
	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, InvalidCharacter, ge.Kind)
	assert.Equal(t, '!', ge.Invalid)
	assert.Equal(t, 14, ge.Pos)
}

func TestParseRejectsInvalidCharacterInClass(t *testing.T) {
	_, err := Parse("licenses/LICEN[!C]E.txt")
	require.Error(t, err)
	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, InvalidCharacterRange, ge.Kind)
	assert.Equal(t, '!', ge.Invalid)
	assert.Equal(t, 15, ge.Pos)
}

func TestParseRejectsQuestionMarkInClass(t *testing.T) {
	// `?` is fine outside a class, but the class body only admits
	// alphanumerics, `_`, `-`, `.`.
	_, err := Parse("licenses/LICEN[C?]E.txt")
	require.Error(t, err)
	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, InvalidCharacterRange, ge.Kind)
	assert.Equal(t, '?', ge.Invalid)
	assert.Equal(t, 16, ge.Pos)
}

func TestParseRejectsTripleStarMidSegment(t *testing.T) {
	_, err := Parse("licenses/***/licenses.csv")
	require.Error(t, err)
	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, TooManyStars, ge.Kind)
	assert.Equal(t, 9, ge.Pos)
}

func TestParseRejectsLongStarRun(t *testing.T) {
	_, err := Parse("******")
	require.Error(t, err)
	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, TooManyStars, ge.Kind)
	assert.Equal(t, 0, ge.Pos)
}

func TestParseRejectsDoubleStarFollowedByLiteral(t *testing.T) {
	_, err := Parse("licenses/**license")
	require.Error(t, err)
	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, TooManyStars, ge.Kind)
	assert.Equal(t, 9, ge.Pos)
}

func TestParseRejectsDoubleStarPrecededByLiteral(t *testing.T) {
	_, err := Parse("licenses/lit**")
	require.Error(t, err)
	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, TooManyStars, ge.Kind)
	assert.Equal(t, 12, ge.Pos)
}

func TestParseAcceptsDoubleStarWholeSegment(t *testing.T) {
	for _, pattern := range []string{"**/licenses.csv", "licenses/**/eula.txt", "licenses/**"} {
		_, err := Parse(pattern)
		assert.NoError(t, err, pattern)
	}
}

func TestParseErrorFormatting(t *testing.T) {
	_, err := Parse("licenses/***/licenses.csv")
	require.Error(t, err)
	assert.Equal(t, "Too many at stars at position 9 in glob: `licenses/***/licenses.csv`", err.Error())
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("..") })
}

func TestMustParseOK(t *testing.T) {
	assert.NotPanics(t, func() { MustParse("licenses/*.txt") })
}

func TestParseAll(t *testing.T) {
	compiled, err := ParseAll([]string{"licenses/*.txt", "..", "eula.txt", "a/**/b**"})
	require.Error(t, err)
	assert.Len(t, compiled, 2)
	assert.Contains(t, err.Error(), "2 errors occurred")
}

func TestParseAllNoErrors(t *testing.T) {
	compiled, err := ParseAll([]string{"licenses/*.txt", "eula.txt"})
	require.NoError(t, err)
	assert.Len(t, compiled, 2)
}

func TestRegexpTranslation(t *testing.T) {
	cases := map[string]string{
		"licenses/LICENSE.txt": `^licenses/LICENSE\.txt$`,
		"licenses/*.txt":       `^licenses/[^/]*\.txt$`,
		"a?c.txt":              `^a[^/]c\.txt$`,
		"**":                   `^(?:[^/]+/)*[^/]*$`,
		"licenses/**/eula.txt": `^licenses/(?:[^/]+/)*eula\.txt$`,
		"**/*.go":              `^(?:[^/]+/)*[^/]*\.go$`,
	}
	for pattern, want := range cases {
		c := MustParse(pattern)
		assert.Equal(t, want, c.Regexp(), pattern)
	}
}
