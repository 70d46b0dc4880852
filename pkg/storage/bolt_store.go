package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	defaultBucket       = "statekit_shared_state"
	defaultPollInterval = 500 * time.Millisecond
	defaultOpenTimeout  = time.Second
)

// BoltOption configures a BoltStore.
type BoltOption func(*BoltStore)

// WithPollInterval sets how often watchers re-read their key.
func WithPollInterval(interval time.Duration) BoltOption {
	return func(s *BoltStore) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithOpenTimeout bounds how long an operation waits for the file lock.
func WithOpenTimeout(timeout time.Duration) BoltOption {
	return func(s *BoltStore) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithBucket overrides the bucket holding shared values.
func WithBucket(name string) BoltOption {
	return func(s *BoltStore) {
		if name = strings.TrimSpace(name); name != "" {
			s.bucket = []byte(name)
		}
	}
}

// BoltStore keeps shared values in a bbolt file. The database is opened for
// each operation and closed right after, so several processes can take turns
// on the same file; bbolt's file lock serializes them.
type BoltStore struct {
	path     string
	bucket   []byte
	interval time.Duration
	timeout  time.Duration

	mu       sync.Mutex
	closed   bool
	watchers map[uint64]context.CancelFunc
	next     uint64
	wg       sync.WaitGroup
}

// OpenBoltStore prepares the bucket in the file at path, creating the file
// when missing.
func OpenBoltStore(path string, opts ...BoltOption) (*BoltStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage: bolt path must not be empty")
	}
	s := &BoltStore{
		path:     path,
		bucket:   []byte(defaultBucket),
		interval: defaultPollInterval,
		timeout:  defaultOpenTimeout,
		watchers: map[uint64]context.CancelFunc{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	err := s.withDB(func(db *bolt.DB) error {
		return db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(s.bucket)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *BoltStore) Path() string { return s.path }

func (s *BoltStore) Get(_ context.Context, key string) (string, bool, error) {
	if err := validKey(key); err != nil {
		return "", false, err
	}
	var (
		value string
		found bool
	)
	err := s.withDB(func(db *bolt.DB) error {
		return db.View(func(tx *bolt.Tx) error {
			b := tx.Bucket(s.bucket)
			if b == nil {
				return nil
			}
			if v := b.Get([]byte(key)); v != nil {
				value = string(v)
				found = true
			}
			return nil
		})
	})
	return value, found, err
}

func (s *BoltStore) Set(_ context.Context, key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	return s.withDB(func(db *bolt.DB) error {
		return db.Update(func(tx *bolt.Tx) error {
			b, err := tx.CreateBucketIfNotExists(s.bucket)
			if err != nil {
				return err
			}
			return b.Put([]byte(key), []byte(value))
		})
	})
}

func (s *BoltStore) Remove(_ context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	return s.withDB(func(db *bolt.DB) error {
		return db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(s.bucket)
			if b == nil {
				return nil
			}
			return b.Delete([]byte(key))
		})
	})
}

// Watch polls key every interval and calls fn when the value changes. The
// value seen when Watch is called is the baseline. A failed poll is reported
// as a Change with Err set and polling continues.
func (s *BoltStore) Watch(ctx context.Context, key string, fn func(Change)) (func(), error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	last, present, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return nil, ErrClosed
	}
	s.next++
	id := s.next
	s.watchers[id] = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-watchCtx.Done():
				return
			case <-ticker.C:
			}
			value, ok, err := s.Get(watchCtx, key)
			if err != nil {
				if errors.Is(err, ErrClosed) {
					return
				}
				if fn != nil {
					fn(Change{Key: key, Err: fmt.Errorf("storage: poll %q: %w", key, err)})
				}
				continue
			}
			if ok == present && value == last {
				continue
			}
			change := Change{Key: key, Value: value, OldValue: last, Removed: !ok}
			last, present = value, ok
			if fn != nil {
				fn(change)
			}
		}
	}()

	stop := func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
		cancel()
	}
	return stop, nil
}

// Close stops every watcher and waits for their goroutines. Subsequent
// operations fail with ErrClosed.
func (s *BoltStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancels := make([]context.CancelFunc, 0, len(s.watchers))
	for _, cancel := range s.watchers {
		cancels = append(cancels, cancel)
	}
	s.watchers = map[uint64]context.CancelFunc{}
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	s.wg.Wait()
	return nil
}

func (s *BoltStore) withDB(fn func(*bolt.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: s.timeout})
	if err != nil {
		return fmt.Errorf("storage: open %s: %w", s.path, err)
	}
	defer db.Close()
	return fn(db)
}
