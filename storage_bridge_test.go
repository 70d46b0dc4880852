package statekit

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-statekit/pkg/activity"
	"github.com/goliatone/go-statekit/pkg/storage"
	"github.com/goliatone/go-statekit/schema"
)

func sharedSchema(t *testing.T) *schema.Schema {
	t.Helper()
	return schema.MustNew(schema.Fields{
		{Key: "a", Value: schema.Fields{
			{Key: "b", Value: schema.Fields{
				{Key: "c", Value: ""},
				{Key: "d", Value: 0},
			}},
		}},
		{Key: "e", Value: ""},
		{Key: "f", Value: 0},
	})
}

var sharedPrivate = []schema.Path{{"e"}, {"a", "b", "c"}}

func seededState() map[string]any {
	return map[string]any{
		"a": map[string]any{"b": map[string]any{"c": "secret", "d": 1}},
		"e": "token",
		"f": 1,
	}
}

func connect(t *testing.T, m *Manager, store storage.Store, role storage.Role, id string) {
	t.Helper()
	err := m.ConnectToLocalStorage(context.Background(), StorageOptions{
		Store:        store,
		Role:         role,
		ProviderID:   id,
		PrivatePaths: sharedPrivate,
	})
	if err != nil {
		t.Fatalf("ConnectToLocalStorage(%s): %v", role, err)
	}
	t.Cleanup(m.Disconnect)
}

func TestProviderNeverPersistsPrivatePaths(t *testing.T) {
	store := storage.NewMemoryStore()
	provider := newTestManager(t, sharedSchema(t), WithInitialState(seededState()))
	connect(t, provider, store, storage.RoleProvider, "main")

	if got := provider.StorageKey(); got != "statekit:main" {
		t.Fatalf("unexpected storage key %q", got)
	}
	stored, ok, err := provider.StoredState(context.Background())
	if err != nil || !ok {
		t.Fatalf("StoredState = %v, %v", ok, err)
	}
	want := map[string]any{
		"a": map[string]any{"b": map[string]any{"d": 1}},
		"f": 1,
	}
	if diff := cmp.Diff(want, stored); diff != "" {
		t.Fatalf("persisted snapshot mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(seededState(), provider.State().ToMap()); diff != "" {
		t.Fatalf("local state lost private values (-want +got):\n%s", diff)
	}

	if _, err := provider.SetState(context.Background(), Patch{"f": 2}); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	stored, _, _ = provider.StoredState(context.Background())
	if stored["f"] != 2 {
		t.Fatalf("expected persisted f == 2, got %v", stored["f"])
	}
	if _, found := stored["e"]; found {
		t.Fatalf("private key e persisted: %v", stored)
	}
}

func TestProviderRestoresSnapshotUnderLocalPrivateValues(t *testing.T) {
	store := storage.NewMemoryStore()
	previous, err := storage.NewEnvelope(storage.RoleProvider, "main", map[string]any{
		"a": map[string]any{"b": map[string]any{"d": 5}},
		"f": 9,
	}).Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := store.Set(context.Background(), storage.Key("", "main"), previous); err != nil {
		t.Fatalf("Set: %v", err)
	}

	hook := &activity.Recorder{}
	provider := newTestManager(t, sharedSchema(t),
		WithInitialState(seededState()),
		WithActivityHooks(activity.Hooks{hook}),
	)
	connect(t, provider, store, storage.RoleProvider, "main")

	want := map[string]any{
		"a": map[string]any{"b": map[string]any{"c": "secret", "d": 5}},
		"e": "token",
		"f": 9,
	}
	if diff := cmp.Diff(want, provider.State().ToMap()); diff != "" {
		t.Fatalf("restored state mismatch (-want +got):\n%s", diff)
	}
	for _, event := range hook.Events() {
		if event.Verb != activity.VerbStateRestored {
			t.Fatalf("expected restored verb, got %q", event.Verb)
		}
	}
	if len(hook.Events()) != 2 {
		t.Fatalf("expected 2 restored paths, got %d", len(hook.Events()))
	}
}

func TestSubscriberWithoutDataReadsNothing(t *testing.T) {
	store := storage.NewMemoryStore()
	subscriber := newTestManager(t, sharedSchema(t))
	connect(t, subscriber, store, storage.RoleSubscriber, "nobody")

	stored, ok, err := subscriber.StoredState(context.Background())
	if err != nil || ok || stored != nil {
		t.Fatalf("StoredState = %v, %v, %v", stored, ok, err)
	}
	if diff := cmp.Diff(sharedSchema(t).Defaults(), subscriber.State().ToMap()); diff != "" {
		t.Fatalf("subscriber state changed (-want +got):\n%s", diff)
	}
}

func TestSubscriberFollowsProviderAndNeverWrites(t *testing.T) {
	store := storage.NewMemoryStore()
	provider := newTestManager(t, sharedSchema(t), WithInitialState(seededState()))
	connect(t, provider, store, storage.RoleProvider, "main")

	subscriber := newTestManager(t, sharedSchema(t), WithInitialState(map[string]any{"e": "mine"}))
	connect(t, subscriber, store, storage.RoleSubscriber, "main")

	if got := subscriber.State().Get("f"); got != 1 {
		t.Fatalf("expected initial snapshot f == 1, got %v", got)
	}
	if got := subscriber.State().Get("e"); got != "mine" {
		t.Fatalf("subscriber private value overwritten: %v", got)
	}

	if _, err := provider.SetState(context.Background(), Patch{"f": 3}); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	if got := subscriber.State().Get("f"); got != 3 {
		t.Fatalf("expected subscriber f == 3, got %v", got)
	}

	if _, err := subscriber.SetState(context.Background(), Patch{"f": 100}); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	stored, _, _ := provider.StoredState(context.Background())
	if stored["f"] != 3 {
		t.Fatalf("subscriber wrote to the store: %v", stored)
	}

	subscriber.Disconnect()
	if _, err := provider.SetState(context.Background(), Patch{"f": 4}); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	if got := subscriber.State().Get("f"); got != 100 {
		t.Fatalf("disconnected subscriber still follows: %v", got)
	}
}

func TestConnectWithoutProviderIDIsNoop(t *testing.T) {
	var warnings []string
	m := newTestManager(t, sharedSchema(t), WithLogger(LoggerFunc(func(e LogEvent) {
		if e.Level == LevelWarn {
			warnings = append(warnings, e.Message)
		}
	})))
	err := m.ConnectToLocalStorage(context.Background(), StorageOptions{
		Store: storage.NewMemoryStore(),
		Role:  storage.RoleProvider,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if m.StorageKey() != "" {
		t.Fatalf("manager should not be connected")
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}
}

func TestBoltSharedAcrossStores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	providerStore, err := storage.OpenBoltStore(path, storage.WithPollInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("OpenBoltStore: %v", err)
	}
	t.Cleanup(func() { providerStore.Close() })
	subscriberStore, err := storage.OpenBoltStore(path, storage.WithPollInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("OpenBoltStore: %v", err)
	}
	t.Cleanup(func() { subscriberStore.Close() })

	provider := newTestManager(t, sharedSchema(t), WithInitialState(seededState()))
	connect(t, provider, providerStore, storage.RoleProvider, "main")
	subscriber := newTestManager(t, sharedSchema(t))
	connect(t, subscriber, subscriberStore, storage.RoleSubscriber, "main")

	if got, _ := subscriber.State().Lookup("a", "b", "d"); got != 1 {
		t.Fatalf("expected restored a.b.d == 1, got %v", got)
	}
	if _, err := provider.SetState(context.Background(), Patch{"f": 7}); err != nil {
		t.Fatalf("SetState: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for subscriber.State().Get("f") != 7 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber never observed f == 7, state %v", subscriber.State())
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := subscriber.State().Get("e"); got != "" {
		t.Fatalf("private value leaked to subscriber: %v", got)
	}
}

func TestSubscriberRestoreDoesNotDropLocalUpdates(t *testing.T) {
	store := storage.NewMemoryStore()
	provider := newTestManager(t, sharedSchema(t), WithInitialState(seededState()))
	connect(t, provider, store, storage.RoleProvider, "main")

	subscriber := newTestManager(t, sharedSchema(t), WithInitialState(map[string]any{"e": "mine"}))
	connect(t, subscriber, store, storage.RoleSubscriber, "main")

	const rounds = 30
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := provider.SetState(context.Background(), UpdateFunc(func(prev *View) (Patch, error) {
				return Patch{"f": prev.Get("f").(int) + 1}, nil
			}))
			if err != nil {
				t.Errorf("provider SetState: %v", err)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := subscriber.SetState(context.Background(), UpdateFunc(func(prev *View) (Patch, error) {
				return Patch{"e": prev.Get("e").(string) + "x"}, nil
			}))
			if err != nil {
				t.Errorf("subscriber SetState: %v", err)
			}
		}
	}()
	wg.Wait()

	if got, want := subscriber.State().Get("e"), "mine"+strings.Repeat("x", rounds); got != want {
		t.Fatalf("local private updates lost: got %q, want %q", got, want)
	}
	if got := subscriber.State().Get("f"); got != 1+rounds {
		t.Fatalf("subscriber f = %v, want %d", got, 1+rounds)
	}
}

type failingWatchStore struct {
	*storage.MemoryStore
}

func (s failingWatchStore) Watch(_ context.Context, key string, fn func(storage.Change)) (func(), error) {
	fn(storage.Change{Key: key, Err: errors.New("disk unavailable")})
	return func() {}, nil
}

func TestSubscriberLogsPollErrors(t *testing.T) {
	var logged []LogEvent
	m := newTestManager(t, sharedSchema(t),
		WithLogger(LoggerFunc(func(e LogEvent) {
			if e.Level == LevelWarn {
				logged = append(logged, e)
			}
		})))
	connect(t, m, failingWatchStore{storage.NewMemoryStore()}, storage.RoleSubscriber, "main")

	if len(logged) != 1 || logged[0].Message != "storage poll failed" {
		t.Fatalf("expected one poll warning, got %+v", logged)
	}
	if got := m.State().Get("f"); got != 0 {
		t.Fatalf("failed poll must not change state: %v", got)
	}
}
