package activity

import (
	"context"
	"errors"
	"fmt"
)

// Hook receives state events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, event Event) error

// Notify calls fn.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks notifies several hooks in order.
type Hooks []Hook

// Compact returns a copy without nil entries, or nil when nothing remains.
func (h Hooks) Compact() Hooks {
	var out Hooks
	for _, hook := range h {
		if hook != nil {
			out = append(out, hook)
		}
	}
	return out
}

// Notify normalizes event and hands it to every hook. Invalid events are
// dropped. A failing hook does not stop the others; failures are joined.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 || !event.Valid() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	event = event.Normalize()

	var errs []error
	for i, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("activity: hook %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
