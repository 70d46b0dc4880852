// Package statekit keeps a schema-shaped state tree, synthesizes accessors
// for every declared path, hands out read-only views of the live state and
// notifies path listeners when an update changes declared leaves.
//
// A Manager moves through two phases: after New it holds state and accepts
// updates; after Init the synthesized getters and setters are available.
//
//	m, _ := statekit.New(s, statekit.WithID("main"))
//	_ = m.Init()
//	m.AddEventListener(schema.Path{"level1"}, func(e events.Event) { ... })
//	_, _ = m.Set(ctx, "setLevel1_level2_level3", -1)
package statekit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-statekit/diff"
	"github.com/goliatone/go-statekit/events"
	"github.com/goliatone/go-statekit/internal/tree"
	"github.com/goliatone/go-statekit/pathtree"
	"github.com/goliatone/go-statekit/pkg/activity"
	"github.com/goliatone/go-statekit/schema"
)

// Manager owns the canonical state of one schema.
type Manager struct {
	id       string
	cfg      config
	schema   *schema.Schema
	paths    *pathtree.Node
	router   *events.Router
	logger   Logger
	emitter  *activity.Emitter
	registry *Registry

	// updateMu serializes SetState from resolve through persist.
	updateMu sync.Mutex
	mu       sync.RWMutex
	state    map[string]any

	accessMu      sync.RWMutex
	active        bool
	getters       map[string]Getter
	setters       map[string]Setter
	methods       map[string]Method
	customGetters map[string]GetterFunc
	customSetters map[string]SetterFunc
	customMethods map[string]MethodFunc
	computed      map[string]CompiledRule
	namespaces    map[string]map[string]Method

	evalMu    sync.Mutex
	evaluator Evaluator

	bridgeMu sync.Mutex
	bridge   *bridge
}

// New builds a manager for s, installs the schema defaults (merged under
// WithInitialState) and registers the manager by id.
func New(s *schema.Schema, opts ...Option) (*Manager, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: schema is nil", ErrInvalidStateSchema)
	}
	cfg := applyOptions(opts)
	if err := errors.Join(cfg.errs...); err != nil {
		return nil, err
	}
	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}
	logger := cfg.logger
	if logger == nil {
		logger = NewStdLogger(nil, LevelWarn)
	}

	m := &Manager{
		id:            cfg.id,
		cfg:           cfg,
		schema:        s,
		paths:         pathtree.Build(s),
		router:        events.NewRouter(),
		logger:        logger,
		emitter:       newActivityEmitter(cfg.activity),
		state:         tree.Merge(cfg.initialState, s.Defaults()),
		getters:       map[string]Getter{},
		setters:       map[string]Setter{},
		methods:       map[string]Method{},
		customGetters: map[string]GetterFunc{},
		customSetters: map[string]SetterFunc{},
		customMethods: map[string]MethodFunc{},
		computed:      map[string]CompiledRule{},
		namespaces:    map[string]map[string]Method{},
		evaluator:     cfg.evaluator,
	}

	registry := DefaultRegistry
	if cfg.registrySet {
		registry = cfg.registry
	}
	if registry != nil {
		registry.Register(m)
		m.registry = registry
	}
	return m, nil
}

// Init synthesizes accessors for the schema and re-applies custom and
// computed entries on top of them. Calling it again rebuilds the registries.
func (m *Manager) Init() error {
	getters, setters := m.synthesize()

	m.accessMu.Lock()
	defer m.accessMu.Unlock()
	m.getters = getters
	m.setters = setters
	for name, fn := range m.customGetters {
		m.getters[name] = m.bindGetter(fn)
	}
	for name, rule := range m.computed {
		m.getters[name] = m.computedGetter(rule)
	}
	for name, fn := range m.customSetters {
		m.setters[name] = m.bindSetter(fn)
	}
	for name, fn := range m.customMethods {
		m.methods[name] = m.bindMethod(fn)
	}
	m.active = true
	m.debug("initialized", map[string]any{"getters": len(m.getters), "setters": len(m.setters)})
	return nil
}

// Active reports whether Init has run.
func (m *Manager) Active() bool {
	m.accessMu.RLock()
	defer m.accessMu.RUnlock()
	return m.active
}

// ID returns the registry id.
func (m *Manager) ID() string { return m.id }

// Schema returns the declared schema.
func (m *Manager) Schema() *schema.Schema { return m.schema }

// Paths returns the root of the declared path tree.
func (m *Manager) Paths() *pathtree.Node { return m.paths }

// State returns a view over the current state.
func (m *Manager) State() *View {
	m.mu.RLock()
	data := m.state
	m.mu.RUnlock()
	return m.view(data)
}

func (m *Manager) view(data map[string]any) *View {
	return newView(data, m.schema.Root(), schema.Path{}, m.cfg.writeProtection)
}

// SetState merges the values produced by updater into state at the top
// level, then in order: runs the WithCallback function, fires "update", fires
// the bubbled path events, reports activity and persists the snapshot when
// connected as a provider.
//
// Calls on one manager run to completion one at a time: the updater sees the
// state left by the previous call. Listeners and callbacks must not call
// SetState on the same manager synchronously.
func (m *Manager) SetState(ctx context.Context, updater Updater, opts ...SetOption) (*View, error) {
	if updater == nil {
		return nil, ErrNilUpdater
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := applySetOptions(opts)

	m.updateMu.Lock()
	defer m.updateMu.Unlock()

	m.mu.RLock()
	snapshot := m.state
	m.mu.RUnlock()

	patch, explicit, err := updater.resolve(m.view(snapshot))
	if err != nil {
		return nil, fmt.Errorf("statekit: resolve update: %w", err)
	}
	update := plainMap(patch)

	m.mu.Lock()
	prev := m.state
	next := make(map[string]any, len(prev)+len(update))
	for key, value := range prev {
		next[key] = value
	}
	for key, value := range update {
		next[key] = value
	}
	var changed []schema.Path
	switch {
	case explicit != nil:
		changed = clonePaths(explicit)
	case len(cfg.paths) > 0:
		changed = clonePaths(cfg.paths)
	default:
		changed = diff.Paths(update, prev, m.schema)
	}
	m.state = next
	m.mu.Unlock()

	current := m.view(next)
	if cfg.callback != nil {
		cfg.callback(current)
	}
	m.emitChanges(current, changed)

	verb := activity.VerbStateUpdated
	if cfg.origin == originStorage {
		verb = activity.VerbStateRestored
	}
	m.emitActivity(ctx, verb, prev, next, changed)

	if cfg.origin != originStorage {
		if err := m.persist(ctx); err != nil {
			return current, err
		}
	}
	return current, nil
}

func (m *Manager) emitChanges(current *View, changed []schema.Path) {
	m.router.Emit(events.Event{Type: events.Update.EventKey(), State: current})
	for _, path := range events.Bubble(changed) {
		value, _ := current.Lookup(path...)
		m.router.Emit(events.Event{
			Type:  path.EventKey(),
			Path:  path,
			Value: value,
			State: current,
		})
	}
}

// AddEventListener registers fn for key: events.Update, a schema.Path, a
// path node or a literal events.Name such as "on_a_b_update".
func (m *Manager) AddEventListener(key events.Key, fn events.Listener) events.ListenerID {
	return m.router.Add(key, fn)
}

// RemoveEventListener drops the registration id under key. Unknown ids are
// ignored.
func (m *Manager) RemoveEventListener(key events.Key, id events.ListenerID) bool {
	return m.router.Remove(key, id)
}

// ListenerCount returns the number of listeners registered under key.
func (m *Manager) ListenerCount(key events.Key) int {
	return m.router.Count(key)
}

// Close disconnects storage and removes the manager from its registry.
func (m *Manager) Close() error {
	m.Disconnect()
	if m.registry != nil {
		m.registry.unregisterManager(m)
	}
	return nil
}

func clonePaths(paths []schema.Path) []schema.Path {
	out := make([]schema.Path, 0, len(paths))
	for _, path := range paths {
		if len(path) == 0 {
			continue
		}
		out = append(out, path.Clone())
	}
	return out
}
