package chatbot

import "strings"

// isModelNotFound reports whether err signals an unrecognized model name.
// Provider errors reach us as opaque wrapped strings, so this matches on
// message text; it is the one documented exception to structured error
// handling in this package.
func isModelNotFound(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(err.Error(),
		"model not found",
		"no model named",
		"is not found",
		"not_found",
		"404",
	)
}

// containsAny checks if s contains any of the substrings, case-insensitive.
func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
