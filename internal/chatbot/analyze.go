package chatbot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/talentdesk/talentchat/internal/cache"
	"github.com/talentdesk/talentchat/internal/talent"
)

// AnalyzeTalent produces a structured assessment of the profile. Results
// are cached per talent ID; within the cache TTL repeated calls never hit
// the model.
//
// The model is asked for strict JSON. Output that fails to parse is not an
// error: the raw text is returned as a summary-only Analysis, and that
// degraded result is cached like any other.
func (s *Service) AnalyzeTalent(ctx context.Context, profile *talent.Profile) (*Analysis, error) {
	if profile == nil {
		return nil, fmt.Errorf("profile is required")
	}

	key := cache.AnalysisKey(profile.ID)
	if val, ok := s.cache.Get(key); ok {
		if analysis, ok := val.(*Analysis); ok {
			s.logger.Debug("analysis cache hit", "talent_id", profile.ID)
			return analysis, nil
		}
	}

	if err := s.waitForModelSlot(ctx); err != nil {
		return nil, err
	}

	resp, err := genkit.Generate(ctx, s.g,
		ai.WithModelName(s.chatModel),
		ai.WithMessages(
			ai.NewSystemMessage(ai.NewTextPart(analysisSystemPrompt)),
			ai.NewUserMessage(ai.NewTextPart("Analyze this candidate:\n\n"+profile.Summary())),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("analysis model %s: %w", s.chatModel, err)
	}

	analysis, degraded := parseAnalysis(resp.Text())
	if degraded {
		s.logger.Warn("analysis output was not valid JSON, degrading to summary",
			"talent_id", profile.ID)
	}

	s.cache.Set(key, analysis, cache.AnalysisTTL)
	return analysis, nil
}

const analysisSystemPrompt = `You are a recruitment analyst. Respond with strict JSON only, no prose and no code fences, matching this shape:
{"summary": string, "strengths": [string], "weaknesses": [string], "suitableRoles": [string], "overallRating": number between 1 and 5}`

// parseAnalysis decodes the model output, tolerating surrounding prose or
// code fences. Unparseable output degrades to a summary-only Analysis
// carrying the raw text; degraded reports which path was taken.
func parseAnalysis(raw string) (analysis *Analysis, degraded bool) {
	if candidate := extractJSONObject(raw); candidate != "" {
		var parsed Analysis
		if err := json.Unmarshal([]byte(candidate), &parsed); err == nil && parsed.Summary != "" {
			return &parsed, false
		}
	}
	return &Analysis{Summary: raw}, true
}

// extractJSONObject returns the first balanced top-level JSON object in s,
// or empty when there is none.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
