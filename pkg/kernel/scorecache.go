package kernel

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/dgraph-io/badger/v4"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
)

// ScoreStore persists benchmarked PerformanceScores across process
// restarts, keyed by host + kernel name, so a device doesn't have to
// re-run Registry.Benchmark on every startup. It is optional: a nil
// *ScoreStore is a valid "no persistence" configuration everywhere this
// package accepts one.
type ScoreStore struct {
	db   *badger.DB
	host string
}

// OpenScoreStore opens (creating if necessary) a badger database at dir
// for persisting benchmark scores under the given host identifier (e.g.
// "linux-amd64-avx2").
func OpenScoreStore(dir, host string) (*ScoreStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("kernel: score store requires a directory: %w", errs.ErrInvalidArgument)
	}
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("kernel: open score store at %s: %w", dir, err)
	}
	return &ScoreStore{db: db, host: host}, nil
}

// Close releases the underlying badger database.
func (s *ScoreStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *ScoreStore) key(kernelName string) []byte {
	return []byte(fmt.Sprintf("score/%s/%s", s.host, kernelName))
}

// Load returns a previously persisted score for kernelName, if any.
func (s *ScoreStore) Load(kernelName string) (float64, bool, error) {
	if s == nil {
		return 0, false, nil
	}
	var score float64
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(kernelName))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("kernel: corrupt score record for %s: %w", kernelName, errs.ErrIntegrity)
			}
			score = math.Float64frombits(binary.LittleEndian.Uint64(val))
			found = true
			return nil
		})
	})
	if err != nil {
		return 0, false, fmt.Errorf("kernel: load score for %s: %w", kernelName, err)
	}
	return score, found, nil
}

// Save persists score for kernelName.
func (s *ScoreStore) Save(kernelName string, score float64) error {
	if s == nil {
		return nil
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(score))
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key(kernelName), buf)
	})
	if err != nil {
		return fmt.Errorf("kernel: save score for %s: %w", kernelName, err)
	}
	return nil
}

// WarmFromStore loads every persisted score matching registered entries
// and applies it to the Registry, skipping entries the store has no
// record for. Call this before relying on Select scoring at startup when
// a ScoreStore is configured, instead of re-benchmarking every kernel.
func (r *Registry) WarmFromStore(store *ScoreStore) error {
	if store == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range r.order {
		score, ok, err := store.Load(name)
		if err != nil {
			return err
		}
		if ok {
			r.entries[name].PerformanceScore = score
		}
	}
	return nil
}

// PersistToStore writes every registered entry's current
// PerformanceScore to store.
func (r *Registry) PersistToStore(store *ScoreStore) error {
	if store == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.order {
		if err := store.Save(name, r.entries[name].PerformanceScore); err != nil {
			return err
		}
	}
	return nil
}
