package router

import "strings"

func lower(s string) string {
	return strings.ToLower(s)
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

func containsAny(query string, keywords []string) bool {
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(query, keyword) {
			return true
		}
	}
	return false
}

// MatchesAnalytics reports whether a question-answering query reads like an
// analytics request. This is the narrower second classification the QA
// handler applies on top of routing; it never changes the selected handler.
func MatchesAnalytics(query string, analyticsKeywords []string) bool {
	return containsAny(lower(query), lowerAll(analyticsKeywords))
}
