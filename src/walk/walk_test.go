package walk

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thought-machine/globwalk/src/glob"
	"github.com/thought-machine/globwalk/src/globset"
)

func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := []string{
		"licenses/LICENSE.txt",
		"licenses/sub/LICENSE.txt",
		"licenses/eula.md",
		"src/glob/parse.go",
		"src/globset/matcher.go",
		"src/walk/walk.go",
		"README.md",
	}
	for _, f := range files {
		full := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte("x"), 0644))
	}
	return root
}

func matcherFor(t *testing.T, patterns ...string) *globset.DirMatcher {
	t.Helper()
	globs, err := glob.ParseAll(patterns)
	require.NoError(t, err)
	m, err := globset.Build(globs)
	require.NoError(t, err)
	return m
}

func collect(t *testing.T, root string, m *globset.DirMatcher, opts ...Option) ([]string, []string) {
	t.Helper()
	var files []string
	var errs []string
	err := Walk(context.Background(), root, m, func(e Entry, werr error) error {
		if werr != nil {
			errs = append(errs, werr.Error())
			return nil
		}
		if !e.Dirent.IsDir() {
			files = append(files, e.Path)
		}
		return nil
	}, opts...)
	require.NoError(t, err)
	sort.Strings(files)
	return files, errs
}

func TestWalkYieldsOnlyMatches(t *testing.T) {
	root := buildTree(t)
	m := matcherFor(t, "licenses/*.txt")

	files, errs := collect(t, root, m)
	assert.Empty(t, errs)
	assert.Equal(t, []string{"licenses/LICENSE.txt"}, files)
}

func TestWalkPrunesNonMatchingDirectories(t *testing.T) {
	root := buildTree(t)
	m := matcherFor(t, "licenses/*.txt")

	var visitedSrcDir bool
	err := Walk(context.Background(), root, m, func(e Entry, werr error) error {
		require.NoError(t, werr)
		if e.Dirent.IsDir() && e.Path == "src" {
			visitedSrcDir = true
		}
		return nil
	})
	require.NoError(t, err)
	assert.False(t, visitedSrcDir, "src has no descendant that can match licenses/*.txt, so it should be pruned before being opened")
}

func TestWalkRecursiveGlob(t *testing.T) {
	root := buildTree(t)
	m := matcherFor(t, "**/*.go")

	files, _ := collect(t, root, m)
	assert.Equal(t, []string{
		"src/glob/parse.go",
		"src/globset/matcher.go",
		"src/walk/walk.go",
	}, files)
}

func TestWalkCompletenessAcrossMultipleGlobs(t *testing.T) {
	root := buildTree(t)
	m := matcherFor(t, "licenses/*.txt", "*.md", "licenses/*.md")

	files, _ := collect(t, root, m)
	assert.Equal(t, []string{
		"README.md",
		"licenses/LICENSE.txt",
		"licenses/eula.md",
	}, files)
}

func TestWalkDegradedModeVisitsEverything(t *testing.T) {
	root := buildTree(t)
	globs, err := glob.ParseAll([]string{"licenses/*.txt"})
	require.NoError(t, err)
	m, err := globset.BuildWithLimit(globs, 1)
	require.NoError(t, err)
	require.False(t, m.HasPrefixDFA())

	files, _ := collect(t, root, m)
	assert.Equal(t, []string{"licenses/LICENSE.txt"}, files)
}

func TestWalkMissingRootReportsError(t *testing.T) {
	m := matcherFor(t, "*.txt")
	err := Walk(context.Background(), filepath.Join(t.TempDir(), "nope"), m, func(Entry, error) error { return nil })
	assert.Error(t, err)
}

func TestWalkCancellation(t *testing.T) {
	root := buildTree(t)
	m := matcherFor(t, "**/*.go")

	ctx, cancel := context.WithCancel(context.Background())
	count := 0
	err := Walk(ctx, root, m, func(e Entry, werr error) error {
		count++
		cancel()
		return nil
	})
	assert.Error(t, err)
	assert.LessOrEqual(t, count, 3)
}

func TestIterMatchesWalk(t *testing.T) {
	root := buildTree(t)
	m := matcherFor(t, "licenses/*.txt")

	it := NewIter(context.Background(), root, m)
	var files []string
	for {
		e, err, ok := it.Next()
		if !ok {
			break
		}
		require.NoError(t, err)
		if !e.Dirent.IsDir() {
			files = append(files, e.Path)
		}
	}
	assert.Equal(t, []string{"licenses/LICENSE.txt"}, files)
}

func TestIterMissingRootReportsError(t *testing.T) {
	m := matcherFor(t, "*.txt")
	it := NewIter(context.Background(), filepath.Join(t.TempDir(), "nope"), m)

	_, err, ok := it.Next()
	require.True(t, ok, "a missing root must surface as an error item, not a silent empty sequence")
	assert.Error(t, err)

	_, _, ok = it.Next()
	assert.False(t, ok)
}

func TestIterStopReleasesWalker(t *testing.T) {
	root := buildTree(t)
	m := matcherFor(t, "**/*.go")

	it := NewIter(context.Background(), root, m)
	_, _, ok := it.Next()
	require.True(t, ok)
	it.Stop()
}
