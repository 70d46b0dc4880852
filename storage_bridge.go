package statekit

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-statekit/pkg/storage"
	"github.com/goliatone/go-statekit/schema"
)

const originStorage = "storage"

// StorageOptions connects a manager to a shared store.
type StorageOptions struct {
	Store storage.Store
	// Role is storage.RoleProvider or storage.RoleSubscriber.
	Role storage.Role
	// ProviderID names the shared key; subscribers use the provider's id.
	ProviderID string
	// KeyPrefix defaults to storage.DefaultKeyPrefix.
	KeyPrefix string
	// PrivatePaths are never written to the store and survive restores.
	PrivatePaths []schema.Path
}

type bridge struct {
	store   storage.Store
	role    storage.Role
	id      string
	key     string
	private []schema.Path
	stop    func()
	cancel  context.CancelFunc
}

// ConnectToLocalStorage binds the manager to a shared key. A provider
// restores any stored snapshot (keeping its private values) and then writes
// its state after every update. A subscriber applies the stored snapshot and
// every later change, and never writes. A missing store, provider id or role
// is logged and ignored.
func (m *Manager) ConnectToLocalStorage(ctx context.Context, opts StorageOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	providerID := strings.TrimSpace(opts.ProviderID)
	switch {
	case opts.Store == nil:
		m.warn("storage connect skipped: no store", nil)
		return nil
	case providerID == "":
		m.warn("storage connect skipped: provider id is required", map[string]any{"role": string(opts.Role)})
		return nil
	case opts.Role != storage.RoleProvider && opts.Role != storage.RoleSubscriber:
		m.warn("storage connect skipped: unknown role", map[string]any{"role": string(opts.Role)})
		return nil
	}

	m.Disconnect()
	b := &bridge{
		store:   opts.Store,
		role:    opts.Role,
		id:      providerID,
		key:     storage.Key(opts.KeyPrefix, providerID),
		private: clonePaths(opts.PrivatePaths),
	}

	if err := m.applyStored(ctx, b); err != nil {
		return err
	}

	if b.role == storage.RoleSubscriber {
		watchCtx, cancel := context.WithCancel(context.Background())
		stop, err := b.store.Watch(watchCtx, b.key, func(change storage.Change) {
			if change.Err != nil {
				m.warn("storage poll failed", map[string]any{"key": b.key, "error": change.Err})
				return
			}
			if change.Removed {
				return
			}
			if err := m.applySnapshot(watchCtx, b, change.Value); err != nil {
				m.warn("storage change ignored", map[string]any{"key": b.key, "error": err})
			}
		})
		if err != nil {
			cancel()
			return fmt.Errorf("statekit: watch %q: %w", b.key, err)
		}
		b.stop = stop
		b.cancel = cancel
	}

	m.bridgeMu.Lock()
	m.bridge = b
	m.bridgeMu.Unlock()
	m.debug("storage connected", map[string]any{"role": string(b.role), "key": b.key})

	if b.role == storage.RoleProvider {
		return m.persist(ctx)
	}
	return nil
}

// Disconnect stops watching and writing. It is safe to call when not
// connected.
func (m *Manager) Disconnect() {
	m.bridgeMu.Lock()
	b := m.bridge
	m.bridge = nil
	m.bridgeMu.Unlock()
	if b == nil {
		return
	}
	if b.stop != nil {
		b.stop()
	}
	if b.cancel != nil {
		b.cancel()
	}
}

// StorageKey returns the connected key, or "" when not connected.
func (m *Manager) StorageKey() string {
	m.bridgeMu.Lock()
	defer m.bridgeMu.Unlock()
	if m.bridge == nil {
		return ""
	}
	return m.bridge.key
}

// StoredState reads the snapshot currently stored under the connected key.
// ok is false when nothing is stored or the manager is not connected.
func (m *Manager) StoredState(ctx context.Context) (map[string]any, bool, error) {
	m.bridgeMu.Lock()
	b := m.bridge
	m.bridgeMu.Unlock()
	if b == nil {
		return nil, false, nil
	}
	raw, ok, err := b.store.Get(ctx, b.key)
	if err != nil || !ok {
		return nil, false, err
	}
	env, err := storage.DecodeEnvelope(raw, m.schema)
	if err != nil {
		return nil, false, err
	}
	return env.State, true, nil
}

func (m *Manager) applyStored(ctx context.Context, b *bridge) error {
	raw, ok, err := b.store.Get(ctx, b.key)
	if err != nil {
		return fmt.Errorf("statekit: read %q: %w", b.key, err)
	}
	if !ok {
		return nil
	}
	if err := m.applySnapshot(ctx, b, raw); err != nil {
		m.warn("stored snapshot ignored", map[string]any{"key": b.key, "error": err})
	}
	return nil
}

// applySnapshot merges a stored snapshot into state. Local values at the
// private paths are put back on top of it.
func (m *Manager) applySnapshot(ctx context.Context, b *bridge, raw string) error {
	env, err := storage.DecodeEnvelope(raw, m.schema)
	if err != nil {
		return err
	}
	update := UpdateFunc(func(prev *View) (Patch, error) {
		_, removed := storage.Sanitize(prev.raw(), b.private)
		return Patch(storage.Restore(env.State, removed)), nil
	})
	_, err = m.SetState(ctx, update, withOrigin(originStorage))
	return err
}

// persist writes the sanitized state when connected as a provider.
func (m *Manager) persist(ctx context.Context) error {
	m.bridgeMu.Lock()
	b := m.bridge
	m.bridgeMu.Unlock()
	if b == nil || b.role != storage.RoleProvider {
		return nil
	}
	sanitized, _ := storage.Sanitize(m.State().raw(), b.private)
	encoded, err := storage.NewEnvelope(b.role, b.id, sanitized).Encode()
	if err != nil {
		return err
	}
	if err := b.store.Set(ctx, b.key, encoded); err != nil {
		return fmt.Errorf("statekit: persist %q: %w", b.key, err)
	}
	return nil
}
