package storage

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrInvalidKey = errors.New("storage: key must not be empty")
	ErrClosed     = errors.New("storage: store is closed")
)

// Change is delivered to watchers when a key's value differs from the last
// observed one. Removed is set when the key no longer exists. Err is set
// when a watcher failed to read the key; the other fields are then empty.
type Change struct {
	Key      string
	Value    string
	OldValue string
	Removed  bool
	Err      error
}

// Store is a shared string key-value store with change notification.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	// Watch calls fn for every change of key until stop is called or ctx is
	// done.
	Watch(ctx context.Context, key string, fn func(Change)) (stop func(), err error)
}

// Role selects how a manager participates in a shared key.
type Role string

const (
	RoleProvider   Role = "provider"
	RoleSubscriber Role = "subscriber"
)

// ParseRole maps a config string onto a Role. Unknown values are rejected.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleProvider:
		return RoleProvider, true
	case RoleSubscriber:
		return RoleSubscriber, true
	default:
		return "", false
	}
}

// DefaultKeyPrefix prefixes provider ids when building storage keys.
const DefaultKeyPrefix = "statekit:"

// Key returns the storage key for a provider.
func Key(prefix, providerID string) string {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return prefix + providerID
}

func validKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	return nil
}
