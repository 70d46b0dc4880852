package usersink_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-statekit/pkg/activity"
	"github.com/goliatone/go-statekit/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsStateEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	event := activity.BuildStateUpdatedEvent(activity.StateEventInput{
		ManagerID:  "cart",
		ActorID:    actorID.String(),
		TenantID:   "not-a-uuid",
		Channel:    "statekit",
		Path:       "level1.level2Val",
		OldValue:   "",
		NewValue:   "UPDATED!!!",
		OccurredAt: now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID {
		t.Fatalf("expected actor %s got %s", actorID, record.ActorID)
	}
	if record.TenantID != uuid.Nil {
		t.Fatalf("expected invalid tenant to map to uuid.Nil, got %s", record.TenantID)
	}
	if record.Verb != activity.VerbStateUpdated || record.ObjectType != activity.ObjectTypeState || record.ObjectID != "cart" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "statekit" || record.OccurredAt != now {
		t.Fatalf("unexpected channel/time: %+v", record)
	}
	if record.Data["path"] != "level1.level2Val" || record.Data["new_value"] != "UPDATED!!!" {
		t.Fatalf("expected metadata passthrough got %v", record.Data)
	}
}

func TestHookNotifyFiltersByPathPrefix(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink, PathPrefixes: []string{"level1"}}

	for _, path := range []string{"level1", "level1.level2.level3", "level10", "other"} {
		event := activity.BuildStateUpdatedEvent(activity.StateEventInput{ManagerID: "cart", Path: path})
		if err := hook.Notify(context.Background(), event); err != nil {
			t.Fatalf("notify %s: %v", path, err)
		}
	}
	if len(sink.records) != 2 {
		t.Fatalf("expected 2 forwarded records, got %d", len(sink.records))
	}
	if sink.records[1].Data["path"] != "level1.level2.level3" {
		t.Fatalf("unexpected forwarded path %v", sink.records[1].Data["path"])
	}
}

func TestHookNotifySkipsMissingVerb(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
}

func TestHookNotifyDefaultsTimestamp(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbStateRestored,
		ObjectType: activity.ObjectTypeState,
		ObjectID:   "cart",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 || sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected one record with occurred_at defaulted, got %+v", sink.records)
	}
}
