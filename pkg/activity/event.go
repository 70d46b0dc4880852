// Package activity reports state changes to audit hooks.
//
// Every changed leaf path of an update becomes one Event whose object is the
// manager and whose metadata carries the path and both values. Hooks receive
// normalized events only.
package activity

import (
	"strings"
	"time"
)

// Event is one audited state change.
type Event struct {
	Verb       string
	ActorID    string
	UserID     string
	TenantID   string
	ObjectType string
	ObjectID   string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// Normalize trims identifiers, detaches metadata and stamps OccurredAt when
// it is zero.
func (e Event) Normalize() Event {
	out := Event{
		Verb:       strings.TrimSpace(e.Verb),
		ActorID:    strings.TrimSpace(e.ActorID),
		UserID:     strings.TrimSpace(e.UserID),
		TenantID:   strings.TrimSpace(e.TenantID),
		ObjectType: strings.TrimSpace(e.ObjectType),
		ObjectID:   strings.TrimSpace(e.ObjectID),
		Channel:    strings.TrimSpace(e.Channel),
		OccurredAt: e.OccurredAt,
	}
	if len(e.Metadata) > 0 {
		out.Metadata = make(map[string]any, len(e.Metadata))
		for key, value := range e.Metadata {
			out.Metadata[key] = value
		}
	}
	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now()
	}
	return out
}

// Valid reports whether the event names a verb and an object.
func (e Event) Valid() bool {
	return strings.TrimSpace(e.Verb) != "" &&
		strings.TrimSpace(e.ObjectType) != "" &&
		strings.TrimSpace(e.ObjectID) != ""
}

// Path returns the dotted state path carried in metadata, if any.
func (e Event) Path() string {
	path, _ := e.Metadata["path"].(string)
	return path
}
