// Package pattern extracts numeric safety statements from document text
// with regular expressions. It needs no embedding provider and runs on
// every document query.
package pattern

import (
	"regexp"
	"strings"

	"github.com/xhad/tier0/internal/models"
)

// Matches get a large base score so a literal numeric statement outranks
// generic keyword hits; tune here, not at call sites.
const (
	baseScore       = 20.0
	tierPairBonus   = 10.0
	recentYearBonus = 5.0
	phraseBonus     = 5.0

	// contextWindow is how many characters around the match span become
	// the candidate text.
	contextWindow = 1000
)

var statementPatterns = []*regexp.Regexp{
	// "38 Tier 1 and Tier 2 process safety events"
	regexp.MustCompile(`(?is)(\d+)\s+tier\s+[12]\s+(?:and|&)\s+tier\s+[12]\s+.*?(?:event|incident)`),
	// "Tier 1 and 2 ... 38 events"
	regexp.MustCompile(`(?is)tier\s+[12]\s+(?:and|&)\s+[12].*?(\d+)\s+(?:event|incident)`),
	// "reported 14 ... spills"
	regexp.MustCompile(`(?is)(?:reported|recorded)\s+(\d+)\s+.*?(?:safety|incident|spill|event)`),
}

var boostPhrases = []string{"process safety", "oil spill", "safety event"}

// Extract returns one candidate per regex match, scored by the fixed
// base plus co-occurrence bonuses found in the surrounding window.
func Extract(doc models.Document) []models.Candidate {
	var out []models.Candidate

	for _, re := range statementPatterns {
		for _, span := range re.FindAllStringIndex(doc.Text, -1) {
			start := span[0] - contextWindow
			if start < 0 {
				start = 0
			}
			end := span[1] + contextWindow
			if end > len(doc.Text) {
				end = len(doc.Text)
			}
			window := strings.TrimSpace(doc.Text[start:end])

			relevance := baseScore
			lower := strings.ToLower(window)
			if strings.Contains(lower, "tier 1") && strings.Contains(lower, "tier 2") {
				relevance += tierPairBonus
			}
			if strings.Contains(lower, "2024") || strings.Contains(lower, "2023") {
				relevance += recentYearBonus
			}
			for _, phrase := range boostPhrases {
				if strings.Contains(lower, phrase) {
					relevance += phraseBonus
					break
				}
			}

			out = append(out, models.Candidate{
				Text:       window,
				Source:     doc.Filename,
				Year:       doc.Year,
				Relevance:  relevance,
				MatchType:  models.MatchPattern,
				HasNumbers: true,
			})
		}
	}

	return out
}
