package activity

import (
	"strings"
	"time"
)

const (
	// VerbStateUpdated is reported for a path changed by a local update.
	VerbStateUpdated = "state.updated"
	// VerbStateRestored is reported for a path changed by a persisted snapshot.
	VerbStateRestored = "state.restored"

	// ObjectTypeState is the object type of every state event.
	ObjectTypeState = "state"
)

// StateEventInput describes one changed path of a manager's state.
type StateEventInput struct {
	ManagerID  string
	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	SnapshotID string
	Path       string
	OldValue   any
	NewValue   any
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildStateUpdatedEvent constructs the event for a locally changed path.
func BuildStateUpdatedEvent(input StateEventInput) Event {
	return BuildStateEvent(VerbStateUpdated, input)
}

// BuildStateRestoredEvent constructs the event for a path changed by a
// persisted snapshot.
func BuildStateRestoredEvent(input StateEventInput) Event {
	return BuildStateEvent(VerbStateRestored, input)
}

// BuildStateEvent constructs a state event for verb. The object id is the
// manager id; path and values travel as metadata. Nil values are kept since a
// transition to or from nil is a change.
func BuildStateEvent(verb string, input StateEventInput) Event {
	metadata := make(map[string]any, len(input.Metadata)+4)
	for key, value := range input.Metadata {
		metadata[key] = value
	}
	if path := strings.TrimSpace(input.Path); path != "" {
		metadata["path"] = path
	}
	if snapshot := strings.TrimSpace(input.SnapshotID); snapshot != "" {
		metadata["snapshot_id"] = snapshot
	}
	metadata["old_value"] = input.OldValue
	metadata["new_value"] = input.NewValue

	objectID := strings.TrimSpace(input.ManagerID)
	if objectID == "" {
		objectID = ObjectTypeState
	}

	return Event{
		Verb:       strings.TrimSpace(verb),
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeState,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
