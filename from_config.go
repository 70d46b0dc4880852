package statekit

import (
	"context"
	"fmt"

	fileconfig "github.com/goliatone/go-statekit/config"
	"github.com/goliatone/go-statekit/pkg/storage"
	"github.com/goliatone/go-statekit/schema"
)

// FromConfig loads the configured schema and translates cfg into options.
func FromConfig(cfg fileconfig.Config) (*schema.Schema, []Option, error) {
	if cfg.SchemaFile == "" {
		return nil, nil, fmt.Errorf("%w: schema_file is not set", ErrInvalidStateSchema)
	}
	s, err := schema.LoadFile(cfg.SchemaFile)
	if err != nil {
		return nil, nil, err
	}
	opts := []Option{
		WithDynamicGetters(cfg.DynamicGetters),
		WithDynamicSetters(cfg.DynamicSetters),
		WithNestedGetters(cfg.NestedGetters),
		WithNestedSetters(cfg.NestedSetters),
		WithWriteProtection(cfg.WriteProtection),
	}
	if cfg.ID != "" {
		opts = append(opts, WithID(cfg.ID))
	}
	return s, opts, nil
}

// StorageFromConfig opens the store described by cfg. An empty path yields a
// MemoryStore, which only shares state inside the process.
func StorageFromConfig(cfg fileconfig.Storage) (StorageOptions, error) {
	role, ok := storage.ParseRole(cfg.Role)
	if !ok {
		return StorageOptions{}, fmt.Errorf("statekit: unknown storage role %q", cfg.Role)
	}
	var private []schema.Path
	for _, entry := range cfg.PrivatePaths {
		private = append(private, schema.ParsePath(entry))
	}

	opts := StorageOptions{
		Role:         role,
		ProviderID:   cfg.ProviderID,
		KeyPrefix:    cfg.KeyPrefix,
		PrivatePaths: private,
	}
	if cfg.Path == "" {
		opts.Store = storage.NewMemoryStore()
		return opts, nil
	}
	var boltOpts []storage.BoltOption
	if cfg.PollInterval > 0 {
		boltOpts = append(boltOpts, storage.WithPollInterval(cfg.PollInterval))
	}
	store, err := storage.OpenBoltStore(cfg.Path, boltOpts...)
	if err != nil {
		return StorageOptions{}, err
	}
	opts.Store = store
	return opts, nil
}

// NewFromConfig builds, initializes and, when storage is configured,
// connects a manager. opts are applied after the configured ones.
func NewFromConfig(ctx context.Context, cfg fileconfig.Config, opts ...Option) (*Manager, error) {
	s, base, err := FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	m, err := New(s, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	if err := m.Init(); err != nil {
		return nil, err
	}
	if !cfg.Storage.Enabled() {
		return m, nil
	}
	storageOpts, err := StorageFromConfig(cfg.Storage)
	if err != nil {
		return nil, err
	}
	if err := m.ConnectToLocalStorage(ctx, storageOpts); err != nil {
		return nil, err
	}
	return m, nil
}
