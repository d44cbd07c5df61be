package retrieval

import "strings"

// classifier matches an engine failure when every phrase appears in the
// lowercased error text.
type classifier struct {
	kind    ErrorKind
	phrases []string
}

// classifiers is the closed pattern table, checked in order. New phrases
// extend the table without touching callers.
var classifiers = []classifier{
	// Bot checks demanding a logged-in session.
	{KindAuthRequired, []string{"sign in to confirm", "bot"}},
	{KindAuthRequired, []string{"--cookies"}},
	{KindAuthRequired, []string{"cookies-from-browser"}},
	{KindAuthRequired, []string{"login required"}},
	{KindAuthRequired, []string{"sign in to confirm your age"}},

	// The resource is gone or walled off; retrying cannot help.
	{KindNotFound, []string{"video unavailable"}},
	{KindNotFound, []string{"this video is not available"}},
	{KindNotFound, []string{"content is not available"}},
	{KindNotFound, []string{"private video"}},
	{KindNotFound, []string{"has been removed"}},
	{KindNotFound, []string{"does not exist"}},
	{KindNotFound, []string{"404", "not found"}},
}

// Classify maps raw engine failure text onto the closed [ErrorKind] set.
// Pure and total: identical input yields identical output, unmatched text
// is always KindGeneric, and it never panics.
func Classify(text string) ErrorKind {
	if text == "" {
		return KindGeneric
	}
	lower := strings.ToLower(text)
	for _, c := range classifiers {
		matched := true
		for _, phrase := range c.phrases {
			if !strings.Contains(lower, phrase) {
				matched = false
				break
			}
		}
		if matched {
			return c.kind
		}
	}
	return KindGeneric
}
