package pattern_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/tier0/internal/models"
	"github.com/xhad/tier0/pkg/pattern"
)

func TestExtract_TierEventStatement(t *testing.T) {
	doc := models.Document{
		Filename: "annual_report_2024.txt",
		Year:     2024,
		Text:     "In 2024 we recorded 38 Tier 1 and Tier 2 process safety events across operations.",
	}

	candidates := pattern.Extract(doc)
	require.NotEmpty(t, candidates)

	c := candidates[0]
	assert.Equal(t, models.MatchPattern, c.MatchType)
	assert.Equal(t, "annual_report_2024.txt", c.Source)
	assert.True(t, c.HasNumbers)
	assert.Contains(t, c.Text, "38 Tier 1 and Tier 2")
	// base 20 + tier pair 10 + recent year 5 + "process safety" 5
	assert.Equal(t, 40.0, c.Relevance)
}

func TestExtract_CaseInsensitiveAcrossLines(t *testing.T) {
	doc := models.Document{
		Filename: "ops.txt",
		Text:     "we REPORTED 14\nmajor oil\nspills during the year",
	}

	candidates := pattern.Extract(doc)
	require.NotEmpty(t, candidates)
	assert.Contains(t, strings.ToLower(candidates[0].Text), "reported 14")
}

func TestExtract_WindowClippedToTextBounds(t *testing.T) {
	doc := models.Document{
		Filename: "short.txt",
		Text:     "reported 3 safety events",
	}

	candidates := pattern.Extract(doc)
	require.NotEmpty(t, candidates)
	assert.Equal(t, doc.Text, candidates[0].Text)
}

func TestExtract_NoMatchYieldsNothing(t *testing.T) {
	doc := models.Document{
		Filename: "plain.txt",
		Text:     "Quarterly revenue grew modestly with no notable operational changes.",
	}
	assert.Empty(t, pattern.Extract(doc))
}

func TestExtract_BaseScoreWithoutBonuses(t *testing.T) {
	doc := models.Document{
		Filename: "old.txt",
		Text:     "The operator recorded 7 minor injury incidents in 1998.",
	}

	candidates := pattern.Extract(doc)
	require.NotEmpty(t, candidates)
	assert.Equal(t, 20.0, candidates[0].Relevance)
}
