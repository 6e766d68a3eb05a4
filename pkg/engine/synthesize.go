package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/xhad/tier0/internal/models"
)

const (
	// synthesisSnippets is how many top-ranked snippets reach the
	// completion provider.
	synthesisSnippets = 5

	// Pattern and numeric snippets are denser and more likely to hold
	// the literal number being asked about, so they get a larger budget.
	numericSnippetBudget = 1500
	plainSnippetBudget   = 800

	// templateSnippets / templateBudget shape the deterministic fallback.
	templateSnippets = 3
	templateBudget   = 400

	synthesisMaxTokens = 500
)

func (e *Engine) synthesize(ctx context.Context, question string, snippets []models.Candidate) (string, error) {
	var parts []string
	for _, s := range snippets {
		attribution := "[" + s.Source
		if s.Year != 0 {
			attribution += fmt.Sprintf(" - %d", s.Year)
		}
		attribution += "]"

		budget := plainSnippetBudget
		if s.MatchType == models.MatchPattern || s.HasNumbers {
			budget = numericSnippetBudget
		}
		parts = append(parts, attribution+"\n"+truncate(s.Text, budget))
	}
	docContext := strings.Join(parts, "\n\n---\n\n")

	prompt := fmt.Sprintf(`Based on the following excerpts from the document corpus, answer this question concisely and factually: %s

Context:
%s

Provide a clear, factual answer with specific numbers, dates, and metrics if available. Focus on the most relevant data.`, question, docContext)

	return e.provider.Chat(ctx, "", prompt, synthesisMaxTokens)
}

// templateAnswer is the mandatory deterministic fallback: concatenate
// the top snippets with attribution so a well-formed question always
// gets an answer.
func templateAnswer(results []models.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d relevant sections in the document corpus. ", len(results))

	n := len(results)
	if n > templateSnippets {
		n = templateSnippets
	}
	for i := 0; i < n; i++ {
		s := results[i]
		if i == 0 {
			b.WriteString("From " + s.Source)
			if s.Year != 0 {
				fmt.Fprintf(&b, " (%d)", s.Year)
			}
			b.WriteString(": ")
		} else {
			b.WriteString("\n\nAdditional data: ")
		}
		b.WriteString(truncate(s.Text, templateBudget))
	}
	return b.String()
}

func truncate(text string, budget int) string {
	if len(text) <= budget {
		return text
	}
	return text[:budget] + "..."
}
