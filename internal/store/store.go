package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mmcdole/holocron/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketFavorites = []byte("favorites")
	bucketRecent    = []byte("recent")
	bucketPrefs     = []byte("prefs")
	bucketSession   = []byte("session")
)

var allBuckets = [][]byte{bucketFavorites, bucketRecent, bucketPrefs, bucketSession}

// Keys inside buckets
const (
	keyFavorites = "favorites"
	keyRecent    = "recently_viewed"
	keySession   = "current"
)

const writeQueueSize = 64

// writeOp is one queued disk mutation. done marks a flush barrier.
type writeOp struct {
	bucket []byte
	key    string
	data   []byte
	delete bool
	done   chan struct{}
}

// ViewStore implements domain.Store using BoltDB.
type ViewStore struct {
	db     *bolt.DB
	logger *slog.Logger

	mu    sync.RWMutex // Protects memory cache and closed
	cache map[string][]byte

	closed bool
	writes chan writeOp
	wg     sync.WaitGroup
}

// NewViewStore opens the store under dir. An empty dir keeps everything in memory.
func NewViewStore(dir string, logger *slog.Logger) (*ViewStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		// Memory-only mode (no persistence)
		return &ViewStore{cache: make(map[string][]byte), logger: logger}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "holocron.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	cache := make(map[string][]byte)
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			b, err := tx.CreateBucketIfNotExists(bucket)
			if err != nil {
				return err
			}
			// Warm the memory cache so reads never touch disk
			if err := b.ForEach(func(k, v []byte) error {
				data := make([]byte, len(v))
				copy(data, v)
				cache[cacheKey(bucket, string(k))] = data
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &ViewStore{
		db:     db,
		logger: logger,
		cache:  cache,
		writes: make(chan writeOp, writeQueueSize),
	}
	s.wg.Add(1)
	go s.writeLoop()

	return s, nil
}

func cacheKey(bucket []byte, key string) string {
	return string(bucket) + ":" + key
}

// Close drains pending writes and closes the database
func (s *ViewStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	close(s.writes)
	s.wg.Wait()
	return s.db.Close()
}

// Flush blocks until every write queued so far has reached disk
func (s *ViewStore) Flush() {
	done := make(chan struct{})
	if !s.enqueue(writeOp{done: done}) {
		return
	}
	<-done
}

// writeLoop applies queued mutations in order
func (s *ViewStore) writeLoop() {
	defer s.wg.Done()
	for op := range s.writes {
		if op.done != nil {
			close(op.done)
			continue
		}
		err := s.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(op.bucket)
			if b == nil {
				return fmt.Errorf("bucket %s missing", op.bucket)
			}
			if op.delete {
				return b.Delete([]byte(op.key))
			}
			return b.Put([]byte(op.key), op.data)
		})
		if err != nil {
			s.logger.Error("failed to persist view state", "bucket", string(op.bucket), "key", op.key, "error", err)
		}
	}
}

// enqueue hands op to the writer. Returns false in memory-only mode or after Close.
func (s *ViewStore) enqueue(op writeOp) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil || s.closed {
		return false
	}
	s.writes <- op
	return true
}

// === Generic helpers ===

func (s *ViewStore) get(bucket []byte, key string, dest interface{}) bool {
	s.mu.RLock()
	data, ok := s.cache[cacheKey(bucket, key)]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (s *ViewStore) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	// Update memory cache
	s.mu.Lock()
	s.cache[cacheKey(bucket, key)] = data
	s.mu.Unlock()

	// Disk write happens on the writer goroutine
	s.enqueue(writeOp{bucket: bucket, key: key, data: data})
	return nil
}

func (s *ViewStore) delete(bucket []byte, key string) {
	s.mu.Lock()
	delete(s.cache, cacheKey(bucket, key))
	s.mu.Unlock()

	s.enqueue(writeOp{bucket: bucket, key: key, delete: true})
}

// === Favorites ===

func (s *ViewStore) GetFavorites() ([]domain.Favorite, bool) {
	var favs []domain.Favorite
	ok := s.get(bucketFavorites, keyFavorites, &favs)
	return favs, ok
}

func (s *ViewStore) SaveFavorites(favs []domain.Favorite) error {
	return s.set(bucketFavorites, keyFavorites, favs)
}

// === Recently viewed ===

func (s *ViewStore) GetRecent() ([]domain.RecentView, bool) {
	var recent []domain.RecentView
	ok := s.get(bucketRecent, keyRecent, &recent)
	return recent, ok
}

func (s *ViewStore) SaveRecent(recent []domain.RecentView) error {
	return s.set(bucketRecent, keyRecent, recent)
}

// === Preferences (namespaced key: type:{entityType}) ===

func prefKey(t domain.EntityType) string {
	return "type:" + string(t)
}

func (s *ViewStore) GetViewPreference(t domain.EntityType) (domain.ViewPreference, bool) {
	var pref domain.ViewPreference
	ok := s.get(bucketPrefs, prefKey(t), &pref)
	return pref, ok
}

func (s *ViewStore) SaveViewPreference(t domain.EntityType, pref domain.ViewPreference) error {
	return s.set(bucketPrefs, prefKey(t), pref)
}

// === Session ===

func (s *ViewStore) GetSession() (domain.Session, bool) {
	var sess domain.Session
	ok := s.get(bucketSession, keySession, &sess)
	return sess, ok
}

func (s *ViewStore) SaveSession(sess domain.Session) error {
	return s.set(bucketSession, keySession, sess)
}

func (s *ViewStore) ClearSession() {
	s.delete(bucketSession, keySession)
}
