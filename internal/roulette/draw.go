// Package roulette implements the three-stage dish roulette: a country, then a
// staple food from that country, then a main dish from that country.
//
// Each stage draws uniformly from its pool while avoiding values already drawn
// in the current cycle; once every pool value has been drawn the cycle starts
// over. Draw is the pure core; Engine layers sessions, pool loading and the
// spin lifecycle on top of it.
package roulette

import (
	"math/rand/v2"
	"sort"
)

// Rand is the randomness the roulette needs. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// globalRand uses the goroutine-safe top-level math/rand/v2 source.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// History is the set of values drawn in the current cycle of one stage.
type History map[string]struct{}

func (h History) Has(v string) bool {
	_, ok := h[v]
	return ok
}

func (h History) Clone() History {
	out := make(History, len(h))
	for k := range h {
		out[k] = struct{}{}
	}
	return out
}

// Sorted lists the history values in lexicographic order.
func (h History) Sorted() []string {
	out := make([]string, 0, len(h))
	for k := range h {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Draw picks a value from pool, preferring values not in used. It returns the
// value and the history after the draw; used itself is never modified.
//
// When every pool value is already in used, the draw is made from the whole
// pool and the returned history holds only the new value. An empty pool
// yields ok == false and used unchanged.
//
// Exhaustion is tested against the current pool, not by comparing len(used)
// with len(pool). History can keep values whose dishes were deleted since
// they were drawn; those never count towards a full cycle, so a pool that
// lost a drawn value still offers its undrawn values before starting over.
func Draw(pool []string, used History, rng Rand) (value string, next History, ok bool) {
	if len(pool) == 0 {
		return "", used, false
	}
	available := make([]string, 0, len(pool))
	for _, v := range pool {
		if !used.Has(v) {
			available = append(available, v)
		}
	}
	exhausted := len(available) == 0
	if exhausted {
		available = pool
	}

	value = available[rng.IntN(len(available))]
	if exhausted {
		return value, History{value: {}}, true
	}
	next = used.Clone()
	next[value] = struct{}{}
	return value, next, true
}

// normalizePool drops blanks and duplicates and sorts the rest, so that the
// same catalog contents always produce the same draw for a given RNG.
func normalizePool(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
