package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func waitBriefly() { time.Sleep(time.Millisecond) }

func newBoltStore(t *testing.T, opts ...BoltOption) *BoltStore {
	t.Helper()
	store, err := OpenBoltStore(filepath.Join(t.TempDir(), "shared.db"), opts...)
	if err != nil {
		t.Fatalf("open bolt store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBoltStoreGetSetRemove(t *testing.T) {
	ctx := context.Background()
	store := newBoltStore(t)

	if _, ok, err := store.Get(ctx, "statekit:main"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "statekit:main", "payload"); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok, err := store.Get(ctx, "statekit:main")
	if err != nil || !ok || value != "payload" {
		t.Fatalf("unexpected get: %q ok=%v err=%v", value, ok, err)
	}
	if err := store.Remove(ctx, "statekit:main"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "statekit:main"); ok {
		t.Fatalf("expected key removed")
	}
}

func TestBoltStoreSharedFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.db")
	writer, err := OpenBoltStore(path)
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	defer writer.Close()
	reader, err := OpenBoltStore(path)
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer reader.Close()

	if err := writer.Set(ctx, "k", "from-writer"); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok, err := reader.Get(ctx, "k")
	if err != nil || !ok || value != "from-writer" {
		t.Fatalf("reader should observe writer value, got %q ok=%v err=%v", value, ok, err)
	}
}

func TestBoltStoreWatchPollsChanges(t *testing.T) {
	ctx := context.Background()
	store := newBoltStore(t, WithPollInterval(5*time.Millisecond))
	if err := store.Set(ctx, "k", "baseline"); err != nil {
		t.Fatalf("set: %v", err)
	}

	changes := make(chan Change, 4)
	stop, err := store.Watch(ctx, "k", func(c Change) { changes <- c })
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer stop()

	if err := store.Set(ctx, "k", "next"); err != nil {
		t.Fatalf("set: %v", err)
	}
	select {
	case change := <-changes:
		if change.OldValue != "baseline" || change.Value != "next" || change.Removed {
			t.Fatalf("unexpected change %+v", change)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for poll")
	}

	if err := store.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	select {
	case change := <-changes:
		if !change.Removed {
			t.Fatalf("expected removal, got %+v", change)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for removal")
	}
}

func TestBoltStoreClosed(t *testing.T) {
	store := newBoltStore(t)
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := store.Set(context.Background(), "k", "v"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestBoltStoreWatchReportsPollErrors(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.db")
	store, err := OpenBoltStore(path, WithPollInterval(5*time.Millisecond), WithOpenTimeout(5*time.Millisecond))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	changes := make(chan Change, 8)
	stop, err := store.Watch(ctx, "k", func(c Change) {
		select {
		case changes <- c:
		default:
		}
	})
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer stop()

	holder, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		t.Fatalf("lock file: %v", err)
	}
	defer holder.Close()

	select {
	case change := <-changes:
		if change.Err == nil || change.Key != "k" {
			t.Fatalf("expected a poll error, got %+v", change)
		}
		if !errors.Is(change.Err, bolt.ErrTimeout) {
			t.Fatalf("expected a lock timeout, got %v", change.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for poll error")
	}
}
