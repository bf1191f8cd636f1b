package chatbot

import "github.com/talentdesk/talentchat/internal/talent"

// ConversationStarters returns suggested opening questions for a talent.
// This is pure template expansion over profile fields: no model call, no
// cache, deterministic for a given profile.
func ConversationStarters(profile *talent.Profile) []string {
	starters := []string{
		"What are " + profile.Name + "'s main strengths?",
		"Is " + profile.Name + " a good fit for a senior role?",
		"Summarize " + profile.Name + "'s professional experience.",
	}
	if len(profile.Skills) > 0 {
		starters = append(starters,
			"How experienced is "+profile.Name+" with "+profile.Skills[0]+"?")
	}
	return starters
}
