package statekit

import (
	"context"

	"github.com/goliatone/go-statekit/internal/tree"
	"github.com/goliatone/go-statekit/pkg/activity"
	"github.com/goliatone/go-statekit/schema"
)

type activityConfig struct {
	hooks   activity.Hooks
	channel string
	actorID string
}

// WithActivityHooks reports every changed state path to hooks.
// Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := hooks.Compact()
	return func(cfg *config) {
		cfg.activity.hooks = normalized
	}
}

// WithActivityChannel overrides the channel stamped on activity events.
func WithActivityChannel(channel string) Option {
	return func(cfg *config) {
		cfg.activity.channel = channel
	}
}

// WithActivityActor stamps actorID on every activity event.
func WithActivityActor(actorID string) Option {
	return func(cfg *config) {
		cfg.activity.actorID = actorID
	}
}

// ActivityHooks returns a copy of the configured hooks.
func (m *Manager) ActivityHooks() activity.Hooks {
	if m == nil {
		return nil
	}
	return m.cfg.activity.hooks.Compact()
}

func newActivityEmitter(cfg activityConfig) *activity.Emitter {
	return activity.NewEmitter(cfg.hooks, activity.Config{Channel: cfg.channel, ActorID: cfg.actorID})
}

// emitActivity reports one event per changed path. Hook failures are logged
// and never fail the update.
func (m *Manager) emitActivity(ctx context.Context, verb string, prev, next map[string]any, changed []schema.Path) {
	if !m.emitter.Enabled() || len(changed) == 0 {
		return
	}
	changes := make([]activity.Change, 0, len(changed))
	for _, path := range changed {
		oldValue, _ := tree.Lookup(prev, path)
		newValue, _ := tree.Lookup(next, path)
		changes = append(changes, activity.Change{
			Path: path.String(),
			Old:  tree.Clone(oldValue),
			New:  tree.Clone(newValue),
		})
	}
	if err := m.emitter.EmitChanges(ctx, verb, m.id, changes); err != nil {
		m.warn("activity hook failed", map[string]any{"verb": verb, "error": err})
	}
}
