// Package keyword is the lexical fallback retriever, used when no
// embedding provider is configured and vector search is unavailable.
package keyword

import (
	"strings"

	"github.com/xhad/tier0/internal/models"
	"github.com/xhad/tier0/pkg/chunker"
)

// Fixed domain vocabulary. Relevance is the count of these terms present
// in a chunk; tune the bonuses here, not at call sites.
var (
	domainKeywords = []string{
		"safety", "incident", "accident", "injury", "fatality",
		"hard hat", "ppe", "personal protective equipment",
		"operations", "compliance", "violation", "hazard",
		"risk", "spill", "leak", "fire", "explosion",
		"tier 1", "tier 2", "process safety", "recordable injury",
	}

	numericTokens = []string{
		"2024", "2023", "38", "39", "96", "100",
		"severe", "reported", "decreased", "increased",
	}

	metricPhrases = []string{"tier 1", "tier 2", "process safety", "oil spill"}
)

const (
	numericBonus = 5.0
	metricBonus  = 3.0

	// Chunks shorter than this carry too little context to cite.
	minChunkLength = 50
)

type Retriever struct {
	chunker chunker.Chunker
}

func New(c chunker.Chunker) Retriever {
	return Retriever{chunker: c}
}

// Search scores every chunk of every corpus document against the fixed
// vocabulary. Scoring is vocabulary-driven, not question-driven: the
// question does not influence chunk relevance, it only selects this
// retrieval path. Documents with no domain content are skipped
// wholesale.
func (r *Retriever) Search(_ string, docs []models.Document) []models.Candidate {
	var out []models.Candidate

	for _, doc := range docs {
		if !containsAny(strings.ToLower(doc.Text), domainKeywords) {
			continue
		}

		for _, chunk := range r.chunker.Split(doc.Text) {
			if len(chunk) <= minChunkLength {
				continue
			}
			lower := strings.ToLower(chunk)

			var relevance float64
			for _, kw := range domainKeywords {
				if strings.Contains(lower, kw) {
					relevance++
				}
			}
			if relevance == 0 {
				continue
			}

			hasNumbers := containsAny(lower, numericTokens)
			if hasNumbers {
				relevance += numericBonus
			}
			if containsAny(lower, metricPhrases) {
				relevance += metricBonus
			}

			out = append(out, models.Candidate{
				Text:       chunk,
				Source:     doc.Filename,
				Year:       doc.Year,
				Relevance:  relevance,
				MatchType:  models.MatchKeyword,
				HasNumbers: hasNumbers,
			})
		}
	}

	return out
}

func containsAny(lower string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
