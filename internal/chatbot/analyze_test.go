package chatbot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const analysisJSON = `{"summary": "Strong backend engineer.", "strengths": ["Python", "SQL"], "weaknesses": ["No frontend work"], "suitableRoles": ["Backend Engineer"], "overallRating": 4.5}`

func TestAnalyzeTalentParsesJSON(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	h.primary.AddResponse("analyze this candidate", analysisJSON)

	analysis, err := h.svc.AnalyzeTalent(ctx, testProfile())
	require.NoError(t, err)

	assert.Equal(t, "Strong backend engineer.", analysis.Summary)
	assert.Equal(t, []string{"Python", "SQL"}, analysis.Strengths)
	assert.Equal(t, []string{"Backend Engineer"}, analysis.SuitableRoles)
	assert.InDelta(t, 4.5, analysis.OverallRating, 1e-9)
}

func TestAnalyzeTalentToleratesSurroundingProse(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	h.primary.AddResponse("analyze", "Here is my assessment:\n```json\n"+analysisJSON+"\n```")

	analysis, err := h.svc.AnalyzeTalent(ctx, testProfile())
	require.NoError(t, err)
	assert.Equal(t, "Strong backend engineer.", analysis.Summary)
}

func TestAnalyzeTalentDegradesOnInvalidJSON(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	h.primary.AddResponse("analyze", "I cannot produce JSON today.")

	analysis, err := h.svc.AnalyzeTalent(ctx, testProfile())
	require.NoError(t, err, "unparseable output is not an error")
	assert.Equal(t, "I cannot produce JSON today.", analysis.Summary)
	assert.Empty(t, analysis.Strengths)
}

func TestAnalyzeTalentCachesResult(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	h.primary.AddResponse("analyze", analysisJSON)

	first, err := h.svc.AnalyzeTalent(ctx, testProfile())
	require.NoError(t, err)

	second, err := h.svc.AnalyzeTalent(ctx, testProfile())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, h.primary.CallCount())
}

func TestAnalyzeTalentPropagatesModelError(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	h.primary.SetError(errors.New("quota exceeded"))

	_, err := h.svc.AnalyzeTalent(ctx, testProfile())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestAnalyzeTalentRequiresProfile(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.AnalyzeTalent(context.Background(), nil)
	assert.Error(t, err)
}

func TestParseAnalysisEmptySummaryDegrades(t *testing.T) {
	analysis, degraded := parseAnalysis(`{"strengths": ["x"]}`)
	assert.True(t, degraded)
	assert.Equal(t, `{"strengths": ["x"]}`, analysis.Summary)
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a": "b}"}`, extractJSONObject(`noise {"a": "b}"} trailing`))
	assert.Empty(t, extractJSONObject("no object here"))
	assert.Empty(t, extractJSONObject("{unterminated"))
}
