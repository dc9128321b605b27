// Package globset turns a set of validated globs (see package glob) into
// matchers: a FullMatcher that decides whether a complete relative path
// matches any glob in the set, and a DirMatcher that additionally knows
// whether a directory could still contain a match further down, so a walker
// can prune subtrees it will never yield anything from.
package globset

import (
	"time"

	"gopkg.in/op/go-logging.v1"

	"github.com/thought-machine/globwalk/src/glob"
	"github.com/thought-machine/globwalk/src/metrics"
)

var log = logging.MustGetLogger("globset")

// FullMatcher answers "does this path match any glob in the set". Each glob
// gets its own byte-alphabet DFA, built the same way the prefix matcher's is
// (see dfa.go); a full match is that DFA landing on an isMatch state after
// consuming every byte of path. This is deliberately the same automaton
// machinery the prefix DFA uses, and not the standard library's Unicode-mode
// regexp engine: matching in bytes, not runes, means a path containing bytes
// that aren't valid UTF-8 is handled the same way by both matchers, so they
// can never disagree about whether a given path matches.
type FullMatcher struct {
	patterns []string
	dfas     []*prefixDFA
}

// NewFullMatcher compiles globs into a FullMatcher.
func NewFullMatcher(globs []*glob.Compiled) (*FullMatcher, error) {
	m := &FullMatcher{
		patterns: make([]string, len(globs)),
		dfas:     make([]*prefixDFA, len(globs)),
	}
	for i, g := range globs {
		n, err := buildNFA([]string{g.Regexp()})
		if err != nil {
			return nil, &glob.Error{Kind: glob.GlobEngineError, Glob: g.Raw}
		}
		d, ok := buildPrefixDFA(n, dfaSizeLimit)
		if !ok {
			return nil, &glob.Error{Kind: glob.GlobEngineError, Glob: g.Raw}
		}
		m.patterns[i] = g.Raw
		m.dfas[i] = d
	}
	return m, nil
}

// IsMatch reports whether path matches at least one glob in the set.
func (m *FullMatcher) IsMatch(path string) bool {
	_, ok := m.Which(path)
	return ok
}

// Which returns the raw text of the first glob (in construction order) that
// matches path, and whether any glob matched at all.
func (m *FullMatcher) Which(path string) (string, bool) {
	b := []byte(path)
	for i, d := range m.dfas {
		if state := d.run(b); !dead(state) && d.isMatch[state] {
			return m.patterns[i], true
		}
	}
	return "", false
}

// DirMatcher combines a FullMatcher with an (optional) PrefixDFA to drive a
// pruning directory walk. It's immutable once built and safe to share
// across concurrent walks of different roots.
type DirMatcher struct {
	full *FullMatcher
	dfa  *prefixDFA // nil when construction exceeded the size budget
}

// Build constructs a DirMatcher using the default size budget.
func Build(globs []*glob.Compiled) (*DirMatcher, error) {
	return BuildWithLimit(globs, dfaSizeLimit)
}

// BuildWithLimit constructs a DirMatcher, bounding prefix-DFA construction to
// at most limit states. If the budget is exceeded, the returned DirMatcher
// has no PrefixDFA and degrades to "descend into everything" for
// MatchDirectory; construction itself never fails for this reason; the
// engine never falls back to a slower non-deterministic matcher to make the
// prefix decision; it simply stops pruning.
func BuildWithLimit(globs []*glob.Compiled, limit int) (*DirMatcher, error) {
	full, err := NewFullMatcher(globs)
	if err != nil {
		return nil, err
	}

	patterns := make([]string, len(globs))
	for i, g := range globs {
		patterns[i] = g.Regexp()
	}

	start := time.Now()
	n, err := buildNFA(patterns)
	if err != nil {
		return nil, &glob.Error{Kind: glob.GlobEngineError, Glob: joinPatterns(globs)}
	}
	d, ok := buildPrefixDFA(n, limit)
	elapsed := time.Since(start)

	if !ok {
		log.Warning("Prefix DFA for %d globs exceeded the %d state budget; degrading to visiting every directory", len(globs), limit)
		metrics.RecordDFABuild(0, false, elapsed)
		return &DirMatcher{full: full}, nil
	}
	metrics.RecordDFABuild(d.states(), true, elapsed)
	return &DirMatcher{full: full, dfa: d}, nil
}

// HasPrefixDFA reports whether construction produced a prefix DFA, or
// whether this DirMatcher is running in degraded "visit everything" mode.
func (d *DirMatcher) HasPrefixDFA() bool {
	return d.dfa != nil
}

// MatchPath reports whether relPath matches some glob in the set.
func (d *DirMatcher) MatchPath(relPath string) bool {
	return d.full.IsMatch(relPath)
}

// MatchDirectory reports whether a directory at relPath might contain a
// match, and therefore should be descended into. An empty relPath (the
// walk root) always admits descent.
func (d *DirMatcher) MatchDirectory(relPath string) bool {
	if relPath == "" {
		return true
	}
	if d.dfa == nil {
		return true
	}

	state := d.dfa.run([]byte(relPath))
	if dead(state) {
		// The directory path itself doesn't extend any live prefix; there's
		// nothing further to check.
		return false
	}
	if d.dfa.isMatch[state] {
		return true
	}
	slashState := d.dfa.step(state, '/')
	return !dead(slashState)
}

func joinPatterns(globs []*glob.Compiled) string {
	s := ""
	for i, g := range globs {
		if i > 0 {
			s += ", "
		}
		s += g.Raw
	}
	return s
}
