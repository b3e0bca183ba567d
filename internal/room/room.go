// Package room derives the identifier of a two-party conversation.
//
// Every code path that addresses a conversation (live relay, persistence,
// history, report cleanup, similarity records) must go through ID, otherwise
// a single conversation silently splits into several rooms.
package room

import "strings"

// Separator joins the two participant emails.
const Separator = "--"

// ID returns the room id for a and b: both emails sorted lexicographically and
// joined with Separator. ID(a, b) == ID(b, a).
func ID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + Separator + b
}

// Counterpart returns the other participant of room id as seen by email. It
// reports false when email is not a participant or id was not produced by ID.
// Emails may themselves contain Separator, so the id is never split blindly;
// both sides must be addresses with a single '@'.
func Counterpart(id, email string) (string, bool) {
	if !isAddress(email) {
		return "", false
	}
	if other, ok := strings.CutPrefix(id, email+Separator); ok && isAddress(other) && ID(email, other) == id {
		return other, true
	}
	if other, ok := strings.CutSuffix(id, Separator+email); ok && isAddress(other) && ID(email, other) == id {
		return other, true
	}
	return "", false
}

func isAddress(s string) bool {
	return strings.Count(s, "@") == 1
}
