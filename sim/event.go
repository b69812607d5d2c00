package sim

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// Role identifies the author of a transcript event.
type Role string

const (
	// RoleAssistant marks events authored by an AI persona (lead, validator).
	RoleAssistant Role = "assistant"

	// RoleSystem marks events authored by the system itself (incident alerts).
	RoleSystem Role = "system"

	// RoleLearner marks events wrapping learner submissions.
	RoleLearner Role = "learner"
)

// Event is one immutable transcript entry. The ID is assigned at creation
// and never reassigned; merge deduplication keys on it.
type Event struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewEvent creates an event with a fresh globally unique ID.
func NewEvent(role Role, content string) Event {
	return Event{
		ID:      uuid.NewString(),
		Role:    role,
		Content: content,
	}
}

// NewAssistantEvent creates an assistant-authored event.
func NewAssistantEvent(content string) Event {
	return NewEvent(RoleAssistant, content)
}

// NewSystemEvent creates a system-authored event.
func NewSystemEvent(content string) Event {
	return NewEvent(RoleSystem, content)
}

// NewLearnerEvent creates an event wrapping a learner submission.
func NewLearnerEvent(content string) Event {
	return NewEvent(RoleLearner, content)
}

// EnsureID returns the event with an identifier guaranteed to be set.
// Events created through the constructors always carry a UUID; a content
// hash is the weaker fallback for legacy events that arrived without one.
func EnsureID(e Event) Event {
	if e.ID != "" {
		return e
	}
	h := sha256.Sum256([]byte(string(e.Role) + "\x00" + e.Content))
	e.ID = hex.EncodeToString(h[:])
	return e
}

// MergeEvents appends, in order, every incoming event whose ID is not
// already present in existing. Existing entries are never removed or
// reordered, so merging the same batch twice is a no-op the second time.
// The input slices are not modified.
func MergeEvents(existing, incoming []Event) []Event {
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[EnsureID(e).ID] = true
	}

	merged := make([]Event, len(existing), len(existing)+len(incoming))
	copy(merged, existing)

	for _, e := range incoming {
		e = EnsureID(e)
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		merged = append(merged, e)
	}

	return merged
}

// LatestEvent returns the most recent transcript event.
// The second return is false for an empty transcript.
func LatestEvent(events []Event) (Event, bool) {
	if len(events) == 0 {
		return Event{}, false
	}
	return events[len(events)-1], true
}
