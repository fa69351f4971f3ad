package catalog

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

// Matching thresholds. A phonetic code overlap lowers the similarity bar,
// since metaphone agreement already signals the query sounds like the target.
const (
	phoneticThreshold = 0.70
	fuzzyThreshold    = 0.82
)

// matcher scores a free-text query against catalogue names using substring
// containment, Double Metaphone overlap and Jaro-Winkler similarity.
// Read-only, safe for concurrent use.
type matcher struct{}

func newMatcher() *matcher { return &matcher{} }

// score returns the match quality in [0,1] and whether the target matches at
// all. Substring containment is a perfect match; otherwise the best
// token-pair Jaro-Winkler similarity decides, with the threshold relaxed
// when any token pair shares a metaphone code.
func (m *matcher) score(query, target string) (float64, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	t := strings.ToLower(strings.TrimSpace(target))
	if q == "" || t == "" {
		return 0, false
	}
	if strings.Contains(t, q) {
		return 1, true
	}

	qTokens := strings.Fields(q)
	tTokens := strings.Fields(t)

	var best float64
	phonetic := false
	for _, qt := range qTokens {
		qp, qs := matchr.DoubleMetaphone(qt)
		for _, tt := range tTokens {
			if jw := matchr.JaroWinkler(qt, tt, false); jw > best {
				best = jw
			}
			tp, ts := matchr.DoubleMetaphone(tt)
			if codeOverlap(qp, qs, tp, ts) {
				phonetic = true
			}
		}
	}
	if phonetic && best >= phoneticThreshold {
		return best, true
	}
	if best >= fuzzyThreshold {
		return best, true
	}
	return 0, false
}

// codeOverlap reports whether any non-empty metaphone code is shared.
func codeOverlap(qp, qs, tp, ts string) bool {
	for _, q := range []string{qp, qs} {
		if q == "" {
			continue
		}
		if q == tp || (ts != "" && q == ts) {
			return true
		}
	}
	return false
}

// rank filters items by query match on their search key and orders them best
// first. Ties keep catalogue order.
func rank[T any](m *matcher, query string, items []T, key func(T) string) []T {
	type scored struct {
		item  T
		score float64
		pos   int
	}
	var hits []scored
	for i, it := range items {
		if s, ok := m.score(query, key(it)); ok {
			hits = append(hits, scored{item: it, score: s, pos: i})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].pos < hits[j].pos
	})
	out := make([]T, len(hits))
	for i, h := range hits {
		out[i] = h.item
	}
	return out
}
