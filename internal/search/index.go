// Package search provides a small, deterministic, read-only in-memory index
// for keyword lookups over dish text.
//
//   - No logging in the library (callers decide how/what to log)
//   - Functional options (Option pattern)
//   - Unicode case folding via golang.org/x/text/cases, so "PHO", "Pho" and
//     "pho" match alike and kana/kanji pass through untouched
//   - Immutable after construction, safe for concurrent use
//   - Results keep document order, so callers that feed documents newest
//     first get newest-first results
//
// A document matches when the folded query is a substring of any one of its
// fields. Queries of three or more runes are narrowed through a trigram
// posting list before the substring check; shorter queries scan linearly.
package search

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Document is one searchable record. Fields are matched independently; a
// query never matches across a field boundary.
type Document struct {
	ID     string
	Fields []string
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	maxDocs    int
	maxResults int
}

func defaultConfig() config {
	return config{maxDocs: 0, maxResults: 100}
}

// WithMaxDocs indexes at most the first n documents.
func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

// WithMaxResults caps results when Search is called with a non-positive limit.
func WithMaxResults(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

const gram = 3

// fieldSep separates folded fields inside a document's haystack. It cannot
// appear in a folded query, so substring hits never span two fields.
const fieldSep = "\x00"

type doc struct {
	id   string
	text string
}

// Index is an immutable trigram index.
type Index struct {
	cfg      config
	docs     []doc
	postings map[string][]int // trigram -> ascending doc positions
}

// New builds an Index over docs, preserving their order.
func New(docs []Document, opts ...Option) *Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.maxDocs > 0 && len(docs) > cfg.maxDocs {
		docs = docs[:cfg.maxDocs]
	}

	fold := cases.Fold()
	idx := &Index{cfg: cfg, docs: make([]doc, 0, len(docs)), postings: make(map[string][]int)}
	for _, d := range docs {
		parts := make([]string, 0, len(d.Fields))
		for _, f := range d.Fields {
			f = strings.TrimSpace(normalizeWhitespace(f))
			if f != "" {
				parts = append(parts, fold.String(f))
			}
		}
		if len(parts) == 0 {
			continue
		}
		pos := len(idx.docs)
		idx.docs = append(idx.docs, doc{id: d.ID, text: strings.Join(parts, fieldSep)})

		seen := make(map[string]struct{})
		for _, p := range parts {
			for _, g := range trigrams(p) {
				if _, dup := seen[g]; dup {
					continue
				}
				seen[g] = struct{}{}
				idx.postings[g] = append(idx.postings[g], pos)
			}
		}
	}
	return idx
}

// Len reports how many documents were indexed.
func (i *Index) Len() int { return len(i.docs) }

// Search returns the IDs of up to limit matching documents in index order.
// A blank query matches nothing.
func (i *Index) Search(q string, limit int) []string {
	q = strings.TrimSpace(normalizeWhitespace(q))
	if q == "" || len(i.docs) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = i.cfg.maxResults
	}
	q = cases.Fold().String(q)

	var candidates []int
	if utf8.RuneCountInString(q) >= gram {
		candidates = i.candidates(q)
		if len(candidates) == 0 {
			return nil
		}
	}

	out := make([]string, 0, min(limit, len(i.docs)))
	check := func(pos int) bool {
		if strings.Contains(i.docs[pos].text, q) {
			out = append(out, i.docs[pos].id)
		}
		return len(out) < limit
	}
	if candidates != nil {
		for _, pos := range candidates {
			if !check(pos) {
				break
			}
		}
	} else {
		for pos := range i.docs {
			if !check(pos) {
				break
			}
		}
	}
	return out
}

// candidates intersects the posting lists of every trigram in q.
func (i *Index) candidates(q string) []int {
	grams := trigrams(q)
	var acc []int
	for n, g := range grams {
		list, ok := i.postings[g]
		if !ok {
			return nil
		}
		if n == 0 {
			acc = append([]int(nil), list...)
			continue
		}
		acc = intersect(acc, list)
		if len(acc) == 0 {
			return nil
		}
	}
	return acc
}

// ----------------------------------------------------------------------------
// Helpers

func trigrams(s string) []string {
	r := []rune(s)
	if len(r) < gram {
		return nil
	}
	out := make([]string, 0, len(r)-gram+1)
	for i := 0; i+gram <= len(r); i++ {
		out = append(out, string(r[i:i+gram]))
	}
	return out
}

func intersect(a, b []int) []int {
	out := a[:0]
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' || r == '　' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
