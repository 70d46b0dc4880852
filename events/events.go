// Package events routes state change notifications to listeners keyed by
// event name or path.
package events

import (
	"sort"
	"sync"

	"github.com/goliatone/go-statekit/schema"
)

// Update is the catch-all event fired once per state update.
const Update Name = "update"

// Key identifies a listener bucket. Name, schema.Path and any type exposing
// EventKey() (such as *pathtree.Node) satisfy it.
type Key interface {
	EventKey() string
}

// Name is a literal event key such as "update" or "on_a_b_update".
type Name string

// EventKey implements Key.
func (n Name) EventKey() string { return string(n) }

// Event is delivered to listeners. Path events carry Path and Value; the
// update event carries State.
type Event struct {
	Type  string
	Path  schema.Path
	Value any
	State any
}

// Listener receives events synchronously on the emitting goroutine.
type Listener func(Event)

// ListenerID identifies a registration so it can be removed later.
type ListenerID uint64

type entry struct {
	id       ListenerID
	listener Listener
}

// Router keeps per-key listener lists. Registration order is delivery order
// and the same function may be registered more than once.
type Router struct {
	mu        sync.RWMutex
	next      ListenerID
	listeners map[string][]entry
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{listeners: map[string][]entry{}}
}

// Add registers listener under key and returns its handle.
func (r *Router) Add(key Key, listener Listener) ListenerID {
	if key == nil || listener == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listeners == nil {
		r.listeners = map[string][]entry{}
	}
	r.next++
	name := key.EventKey()
	r.listeners[name] = append(r.listeners[name], entry{id: r.next, listener: listener})
	return r.next
}

// Remove drops the registration id under key. Unknown ids are ignored.
func (r *Router) Remove(key Key, id ListenerID) bool {
	if key == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	name := key.EventKey()
	current := r.listeners[name]
	for i, e := range current {
		if e.id != id {
			continue
		}
		updated := make([]entry, 0, len(current)-1)
		updated = append(updated, current[:i]...)
		updated = append(updated, current[i+1:]...)
		if len(updated) == 0 {
			delete(r.listeners, name)
		} else {
			r.listeners[name] = updated
		}
		return true
	}
	return false
}

// Count returns the number of listeners registered under key.
func (r *Router) Count(key Key) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners[key.EventKey()])
}

// Keys lists the keys with at least one listener, sorted.
func (r *Router) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.listeners))
	for key := range r.listeners {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Emit delivers event to every listener registered under event.Type. The
// listener list is captured before delivery so listeners may register or
// remove listeners while running. A panicking listener stops the pass.
func (r *Router) Emit(event Event) {
	r.mu.RLock()
	current := r.listeners[event.Type]
	r.mu.RUnlock()
	for _, e := range current {
		e.listener(event)
	}
}

// Bubble expands changed leaf paths into the ordered list of paths to notify:
// every prefix of every changed path, root to leaf, each reported once.
func Bubble(changed []schema.Path) []schema.Path {
	seen := make(map[string]struct{}, len(changed))
	var out []schema.Path
	for _, path := range changed {
		for _, prefix := range path.Prefixes() {
			key := prefix.EventKey()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, prefix)
		}
	}
	return out
}
