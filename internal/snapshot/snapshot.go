package snapshot

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arko-chat/hybrid/internal/cache"
	"github.com/arko-chat/hybrid/internal/logger"
	"github.com/arko-chat/hybrid/internal/surface"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

var _ surface.SnapshotStore = (*Store)(nil)

var ErrNotFound = errors.New("snapshot not found")

const keyPrefix = "snapshot/"

type Options struct {
	// Dir is the badger directory. Empty keeps everything in memory.
	Dir       string
	CacheSize int
	// TTL bounds how long persisted images live. Zero keeps them forever.
	TTL time.Duration
}

// Store keeps placeholder images of surfaces that went off screen. Images
// are served from memory right away and written to badger in the
// background.
type Store struct {
	db     *badger.DB
	cache  *cache.Cache[[]byte]
	ttl    time.Duration
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	writes sync.WaitGroup
}

func Open(opts Options, log *slog.Logger) (*Store, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 32
	}

	bopts := badger.DefaultOptions(opts.Dir).
		WithInMemory(opts.Dir == "").
		WithLogger(logger.NewPrintf(log.With("component", "badger")))

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}

	c, err := cache.New[[]byte](opts.CacheSize)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		cache:  c,
		ttl:    opts.TTL,
		logger: log,
	}, nil
}

// Persist stores image and returns its id.
func (s *Store) Persist(image []byte) string {
	id := uuid.NewString()
	img := append([]byte(nil), image...)
	s.cache.Add(id, img)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.logger.Debug("snapshot kept in memory only", "id", id)
		return id
	}

	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		if err := s.write(id, img); err != nil {
			s.logger.Warn("snapshot write failed", "id", id, "err", err)
		}
	}()
	return id
}

func (s *Store) write(id string, image []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(keyPrefix+id), image)
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return txn.SetEntry(e)
	})
}

// Retrieve returns the image stored under id.
func (s *Store) Retrieve(id string) ([]byte, bool) {
	if id == "" {
		return nil, false
	}
	img, err := s.cache.Get(id, func() ([]byte, error) {
		return s.read(id)
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("snapshot read failed", "id", id, "err", err)
		}
		return nil, false
	}
	return img, true
}

func (s *Store) read(id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrNotFound
	}

	var img []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + id))
		if err != nil {
			return err
		}
		img, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return img, err
}

// Forget drops id from memory. The persisted copy stays until its TTL.
func (s *Store) Forget(id string) {
	s.cache.Remove(id)
}

// Close waits for pending writes and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.writes.Wait()
	return s.db.Close()
}
