package globset

import (
	"strconv"
	"strings"
)

// prefixDFA is an anchored, byte-alphabet deterministic automaton accepting
// the union of a glob set's translated regexes. It's built once via subset
// construction over the NFA and then only ever read, so it's safe to share
// across walkers.
//
// There is deliberately no separate "end of input" transition the way a
// streaming-search DFA needs: because every translated pattern's `$` anchor
// is compiled as a structural epsilon rather than a runtime lookaround (see
// nfa.go), a state's isMatch flag already means "the bytes consumed so far
// are a complete match", with no extra step required to ask the same
// question at end-of-input. next_eoi_state and a plain transition collapse
// into the same operation here.
type prefixDFA struct {
	classes     []byteRange   // partition of 0..255
	classOf     [256]int      // byte -> class index
	transitions [][]int       // [state][class] -> next state, or -1 for dead
	isMatch     []bool        // [state]
	start       int
}

// dfaSizeLimit bounds the number of distinct DFA states subset construction
// is allowed to materialise before giving up. It isn't a contract, just a
// tuning constant balancing memory against how exotic a glob set can be
// before the walker degrades to visiting everything.
const dfaSizeLimit = 1_000_000

// buildPrefixDFA runs subset construction over n's states, budgeted by
// limit. It returns (nil, false) rather than an error when the budget is
// exceeded: exceeding the budget is an expected outcome for pathological
// glob sets, not a bug, and callers degrade rather than fail.
func buildPrefixDFA(n *nfa, limit int) (*prefixDFA, bool) {
	allRanges := make([]byteRange, 0, len(n.states))
	for _, st := range n.states {
		for _, t := range st.trans {
			allRanges = append(allRanges, t.r)
		}
	}
	classes := byteClasses(allRanges)

	d := &prefixDFA{classes: classes}
	for b := 0; b < 256; b++ {
		for i, c := range classes {
			if byte(b) >= c.lo && byte(b) <= c.hi {
				d.classOf[b] = i
				break
			}
		}
	}

	type stateKey string
	keyOf := func(states []int) stateKey {
		var b strings.Builder
		for i, s := range states {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(s))
		}
		return stateKey(b.String())
	}

	ids := map[stateKey]int{}
	var sets [][]int

	startSet := n.epsilonClosure([]int{n.start})
	startKey := keyOf(startSet)
	ids[startKey] = 0
	sets = append(sets, startSet)
	d.start = 0

	work := []int{0}
	for len(work) > 0 {
		id := work[0]
		work = work[1:]
		if id >= len(d.transitions) {
			grow := make([][]int, id+1)
			copy(grow, d.transitions)
			d.transitions = grow
			growMatch := make([]bool, id+1)
			copy(growMatch, d.isMatch)
			d.isMatch = growMatch
		}

		set := sets[id]
		d.isMatch[id] = containsMatch(n, set)

		row := make([]int, len(classes))
		for ci, class := range classes {
			rep := class.lo
			var moveSet []int
			seen := map[int]bool{}
			for _, s := range set {
				for _, t := range n.states[s].trans {
					if rep >= t.r.lo && rep <= t.r.hi && !seen[t.to] {
						seen[t.to] = true
						moveSet = append(moveSet, t.to)
					}
				}
			}
			if len(moveSet) == 0 {
				row[ci] = -1
				continue
			}
			next := n.epsilonClosure(moveSet)
			nk := keyOf(next)
			nid, ok := ids[nk]
			if !ok {
				if len(sets) >= limit {
					return nil, false
				}
				nid = len(sets)
				ids[nk] = nid
				sets = append(sets, next)
				work = append(work, nid)
			}
			row[ci] = nid
		}
		d.transitions[id] = row
	}

	return d, true
}

func containsMatch(n *nfa, states []int) bool {
	for _, s := range states {
		if s == n.accept {
			return true
		}
	}
	return false
}

// dead reports whether state (as returned by step) represents "no
// extension of the bytes consumed so far can ever match".
func dead(state int) bool {
	return state < 0
}

// step consumes one byte from state, returning the next state or a dead
// sentinel (< 0) if no transition admits b.
func (d *prefixDFA) step(state int, b byte) int {
	if state < 0 {
		return -1
	}
	return d.transitions[state][d.classOf[b]]
}

// run feeds every byte of s into the DFA starting from its start state,
// returning the resulting state (or dead).
func (d *prefixDFA) run(s []byte) int {
	state := d.start
	for _, b := range s {
		state = d.step(state, b)
		if dead(state) {
			return state
		}
	}
	return state
}

// states reports how many states were materialised, for metrics.
func (d *prefixDFA) states() int {
	return len(d.transitions)
}
