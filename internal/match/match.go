// Package match ranks strings by approximate similarity to a query.
package match

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Fuzzy ranks a corpus with subsequence matching that ignores case and
// diacritics. Closer matches (fewer inserted characters) rank first; ties
// keep corpus order.
type Fuzzy struct {
	// FallbackToCorpus returns the whole corpus when nothing matches,
	// the way the product completer behaves.
	FallbackToCorpus bool
}

// Match returns the corpus entries that match query, best first.
// A blank query returns the corpus unchanged.
func (f Fuzzy) Match(corpus []string, query string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return append([]string(nil), corpus...)
	}

	ranks := fuzzy.RankFindNormalizedFold(query, corpus)
	if len(ranks) == 0 {
		if f.FallbackToCorpus {
			return append([]string(nil), corpus...)
		}
		return []string{}
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})
	out := make([]string, len(ranks))
	for i, r := range ranks {
		out[i] = r.Target
	}
	return out
}
