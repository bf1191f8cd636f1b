package cache

import "time"

// TTLs per entry class. These are fixed; there is no per-call override.
const (
	// ConversationTTL bounds how long a cached chat transcript stays warm.
	ConversationTTL = time.Hour
	// AnalysisTTL bounds a cached talent analysis.
	AnalysisTTL = 2 * time.Hour
	// UserSessionTTL bounds a cached user session blob.
	UserSessionTTL = 30 * time.Minute
)

// ConversationKey returns the cache key for a chat transcript.
func ConversationKey(talentID, conversationID string) string {
	return "chat:" + talentID + ":" + conversationID
}

// ConversationPrefix returns the pattern that matches every cached
// conversation for a talent, suitable for Clear.
func ConversationPrefix(talentID string) string {
	return "chat:" + talentID + ":*"
}

// AnalysisKey returns the cache key for a talent analysis.
func AnalysisKey(talentID string) string {
	return "talent_analysis:" + talentID
}

// UserSessionKey returns the cache key for a user session.
func UserSessionKey(userID string) string {
	return "user_session:" + userID
}
