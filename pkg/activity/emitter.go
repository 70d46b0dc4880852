package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultChannel is stamped on events that carry no channel.
const DefaultChannel = "statekit"

// Config holds defaults applied to every emitted event.
type Config struct {
	Channel string
	ActorID string
}

// Change is one changed leaf path with its values before and after.
type Change struct {
	Path string
	Old  any
	New  any
}

// Emitter turns state changes into events for a fixed set of hooks.
type Emitter struct {
	hooks   Hooks
	channel string
	actorID string
}

// NewEmitter returns an emitter for hooks. It is disabled when no non-nil
// hook is given.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	return &Emitter{
		hooks:   hooks.Compact(),
		channel: channel,
		actorID: strings.TrimSpace(cfg.ActorID),
	}
}

// Enabled reports whether any hook is attached.
func (e *Emitter) Enabled() bool {
	return e != nil && len(e.hooks) > 0
}

// Emit applies the channel and actor defaults and notifies the hooks.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	if strings.TrimSpace(event.ActorID) == "" {
		event.ActorID = e.actorID
	}
	return e.hooks.Notify(ctx, event)
}

// EmitChanges emits one verb event per change for managerID, in order.
// Every change is attempted; failures are joined.
func (e *Emitter) EmitChanges(ctx context.Context, verb, managerID string, changes []Change) error {
	if !e.Enabled() {
		return nil
	}
	var errs []error
	for _, change := range changes {
		event := BuildStateEvent(verb, StateEventInput{
			ManagerID: managerID,
			Path:      change.Path,
			OldValue:  change.Old,
			NewValue:  change.New,
		})
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", change.Path, err))
		}
	}
	return errors.Join(errs...)
}
