package globset

import (
	"fmt"
	"regexp/syntax"
	"sort"
	"unicode/utf8"
)

// nfaState is one state of the Thompson construction: zero or more
// byte-consuming transitions, plus epsilon edges to states reachable without
// consuming input.
type nfaState struct {
	trans []nfaTrans
	eps   []int
}

type nfaTrans struct {
	r  byteRange
	to int
}

// nfa is a byte-alphabet nondeterministic automaton built by unioning the
// translated regex of every glob in a set. It has a single start state and a
// single accept state; which pattern matched is never tracked, since the
// prefix matcher only ever needs to know "could something still match".
type nfa struct {
	states []nfaState
	start  int
	accept int
}

func newNFABuilder() (*nfa, func() int) {
	n := &nfa{}
	alloc := func() int {
		n.states = append(n.states, nfaState{})
		return len(n.states) - 1
	}
	return n, alloc
}

func (n *nfa) addEps(from, to int) {
	n.states[from].eps = append(n.states[from].eps, to)
}

func (n *nfa) addTrans(from int, r byteRange, to int) {
	n.states[from].trans = append(n.states[from].trans, nfaTrans{r: r, to: to})
}

// buildNFA parses each pattern's byte-level regex (as produced by
// glob.Compiled.Regexp) and compiles their union into a single NFA.
func buildNFA(patterns []string) (*nfa, error) {
	n, alloc := newNFABuilder()
	n.start = alloc()
	n.accept = alloc()

	for _, p := range patterns {
		ast, err := syntax.Parse(p, syntax.Perl)
		if err != nil {
			return nil, fmt.Errorf("translating %q: %w", p, err)
		}
		ast = ast.Simplify()
		c := &compiler{nfa: n, alloc: alloc}
		start, end, err := c.compile(ast)
		if err != nil {
			return nil, fmt.Errorf("compiling %q: %w", p, err)
		}
		n.addEps(n.start, start)
		n.addEps(end, n.accept)
	}
	return n, nil
}

// compiler holds the state threaded through one recursive AST-to-NFA walk.
type compiler struct {
	nfa   *nfa
	alloc func() int
}

// compile returns a fragment (start, end) such that every path from start to
// end consumes exactly the bytes re can match, with no transitions escaping
// the fragment.
func (c *compiler) compile(re *syntax.Regexp) (start, end int, err error) {
	switch re.Op {
	case syntax.OpNoMatch:
		start = c.alloc()
		end = c.alloc()
		return start, end, nil

	case syntax.OpEmptyMatch, syntax.OpBeginLine, syntax.OpEndLine,
		syntax.OpBeginText, syntax.OpEndText, syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		// Zero-width assertions are no-ops here: every pattern we translate
		// is wrapped in ^...$ structurally, so reaching the end of the
		// required literal/class chain already means "matched so far" -
		// there's no separate end-of-input gate to model.
		s := c.alloc()
		return s, s, nil

	case syntax.OpLiteral:
		return c.compileLiteral(re.Rune)

	case syntax.OpCharClass:
		return c.compileClass(re.Rune)

	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		return c.compileClass([]rune{0, utf8.MaxRune})

	case syntax.OpCapture:
		return c.compile(re.Sub[0])

	case syntax.OpConcat:
		return c.compileConcat(re.Sub)

	case syntax.OpAlternate:
		return c.compileAlternate(re.Sub)

	case syntax.OpStar:
		return c.compileStar(re.Sub[0])

	case syntax.OpPlus:
		return c.compilePlus(re.Sub[0])

	case syntax.OpQuest:
		return c.compileQuest(re.Sub[0])

	case syntax.OpRepeat:
		return c.compileRepeat(re)

	default:
		return 0, 0, fmt.Errorf("unsupported regex construct %v", re.Op)
	}
}

func (c *compiler) compileLiteral(runes []rune) (start, end int, err error) {
	if len(runes) == 0 {
		s := c.alloc()
		return s, s, nil
	}
	start = c.alloc()
	cur := start
	for _, r := range runes {
		var buf [utf8.UTFMax]byte
		n := utf8.EncodeRune(buf[:], r)
		for i := 0; i < n; i++ {
			next := c.alloc()
			c.nfa.addTrans(cur, byteRange{lo: buf[i], hi: buf[i]}, next)
			cur = next
		}
	}
	return start, cur, nil
}

func (c *compiler) compileClass(pairs []rune) (start, end int, err error) {
	start = c.alloc()
	end = c.alloc()
	for i := 0; i+1 < len(pairs); i += 2 {
		for _, seq := range utf8Ranges(pairs[i], pairs[i+1]) {
			c.compileByteSequence(seq, start, end)
		}
	}
	return start, end, nil
}

// compileByteSequence wires a chain of per-byte ranges from `from` to `to`,
// allocating intermediate states for multi-byte UTF-8 sequences.
func (c *compiler) compileByteSequence(seq utf8Sequence, from, to int) {
	cur := from
	for i, r := range seq {
		next := to
		if i < len(seq)-1 {
			next = c.alloc()
		}
		c.nfa.addTrans(cur, r, next)
		cur = next
	}
}

func (c *compiler) compileConcat(subs []*syntax.Regexp) (start, end int, err error) {
	if len(subs) == 0 {
		s := c.alloc()
		return s, s, nil
	}
	start, end, err = c.compile(subs[0])
	if err != nil {
		return 0, 0, err
	}
	for _, sub := range subs[1:] {
		s2, e2, err := c.compile(sub)
		if err != nil {
			return 0, 0, err
		}
		c.nfa.addEps(end, s2)
		end = e2
	}
	return start, end, nil
}

func (c *compiler) compileAlternate(subs []*syntax.Regexp) (start, end int, err error) {
	start = c.alloc()
	end = c.alloc()
	for _, sub := range subs {
		s, e, err := c.compile(sub)
		if err != nil {
			return 0, 0, err
		}
		c.nfa.addEps(start, s)
		c.nfa.addEps(e, end)
	}
	return start, end, nil
}

// compileStar implements Kleene star: zero or more repetitions.
func (c *compiler) compileStar(sub *syntax.Regexp) (start, end int, err error) {
	s, e, err := c.compile(sub)
	if err != nil {
		return 0, 0, err
	}
	start = c.alloc()
	end = c.alloc()
	c.nfa.addEps(start, s)
	c.nfa.addEps(start, end)
	c.nfa.addEps(e, s)
	c.nfa.addEps(e, end)
	return start, end, nil
}

// compilePlus implements one or more repetitions: the body runs once, then
// may loop back on itself any number of times.
func (c *compiler) compilePlus(sub *syntax.Regexp) (start, end int, err error) {
	s, e, err := c.compile(sub)
	if err != nil {
		return 0, 0, err
	}
	end = c.alloc()
	c.nfa.addEps(e, s)
	c.nfa.addEps(e, end)
	return s, end, nil
}

func (c *compiler) compileQuest(sub *syntax.Regexp) (start, end int, err error) {
	s, e, err := c.compile(sub)
	if err != nil {
		return 0, 0, err
	}
	start = c.alloc()
	end = c.alloc()
	c.nfa.addEps(start, s)
	c.nfa.addEps(start, end)
	c.nfa.addEps(e, end)
	return start, end, nil
}

// compileRepeat expands a bounded {m,n} repeat. The glob translator never
// emits one, and buildNFA runs regexp/syntax.Simplify (which expands counted
// repeats) before compiling, so buildNFA never reaches this; it's kept so
// compile handles every quantifier node on its own.
func (c *compiler) compileRepeat(re *syntax.Regexp) (start, end int, err error) {
	min, max := re.Min, re.Max
	sub := re.Sub[0]

	start = c.alloc()
	cur := start
	for i := 0; i < min; i++ {
		s, e, err := c.compile(sub)
		if err != nil {
			return 0, 0, err
		}
		c.nfa.addEps(cur, s)
		cur = e
	}

	if max == -1 {
		s, e, err := c.compileStar(sub)
		if err != nil {
			return 0, 0, err
		}
		c.nfa.addEps(cur, s)
		cur = e
	} else {
		for i := min; i < max; i++ {
			s, e, err := c.compileQuest(sub)
			if err != nil {
				return 0, 0, err
			}
			c.nfa.addEps(cur, s)
			cur = e
		}
	}
	end = c.alloc()
	c.nfa.addEps(cur, end)
	return start, end, nil
}

// epsilonClosure returns the set of states reachable from any state in
// states via zero or more epsilon edges, including the states themselves.
func (n *nfa) epsilonClosure(states []int) []int {
	seen := make(map[int]bool, len(states))
	stack := append([]int(nil), states...)
	for _, s := range states {
		seen[s] = true
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range n.states[s].eps {
			if !seen[e] {
				seen[e] = true
				stack = append(stack, e)
			}
		}
	}
	out := make([]int, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}
