// Package usersink forwards state activity to a go-users ActivitySink.
package usersink

import (
	"context"
	"strings"

	"github.com/goliatone/go-statekit/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts activity events to a go-users ActivitySink. When PathPrefixes
// is set only events whose path starts with one of the dotted prefixes are
// forwarded.
type Hook struct {
	Sink         usertypes.ActivitySink
	PathPrefixes []string
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	if !event.Valid() || !h.matches(event.Path()) {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	normalized := event.Normalize()

	record := usertypes.ActivityRecord{
		ActorID:    parseUUID(normalized.ActorID),
		UserID:     parseUUID(normalized.UserID),
		TenantID:   parseUUID(normalized.TenantID),
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		Data:       normalized.Metadata,
		OccurredAt: normalized.OccurredAt,
	}
	return h.Sink.Log(ctx, record)
}

func (h Hook) matches(path string) bool {
	if len(h.PathPrefixes) == 0 {
		return true
	}
	for _, prefix := range h.PathPrefixes {
		prefix = strings.TrimSpace(prefix)
		if path == prefix || strings.HasPrefix(path, prefix+".") {
			return true
		}
	}
	return false
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
