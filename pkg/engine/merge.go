package engine

import (
	"sort"
	"strings"

	"github.com/xhad/tier0/internal/models"
)

// dedupKeyLen bounds the prefix used to recognize near-identical
// candidate texts across retrieval paths.
const dedupKeyLen = 100

// Merge deduplicates and ranks candidates from the three retrieval
// paths. Vector results are considered before pattern results, which are
// considered before keyword results, and the first candidate seen for a
// text prefix wins. Ranking is by descending relevance with a stable
// sort, so equal scores keep merge-insertion order.
func Merge(vector, pattern, keyword []models.Candidate) []models.Candidate {
	all := make([]models.Candidate, 0, len(vector)+len(pattern)+len(keyword))
	all = append(all, vector...)
	all = append(all, pattern...)
	all = append(all, keyword...)

	seen := make(map[string]struct{}, len(all))
	unique := all[:0]
	for _, c := range all {
		key := c.Text
		if len(key) > dedupKeyLen {
			key = key[:dedupKeyLen]
		}
		key = strings.TrimSpace(key)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, c)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Relevance > unique[j].Relevance
	})
	return unique
}
