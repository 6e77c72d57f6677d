package railswitch

import (
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Key prefixes
const (
	prefixSwitch = "sw:" // switch binary encoding
)

// ErrSwitchNotFound is returned when store has no switch with requested ID
var ErrSwitchNotFound = errors.New("switch not found")

// SwitchStore keeps switches in BadgerDB using their binary encoding
type SwitchStore struct {
	db *badger.DB
	mu sync.RWMutex
}

// OpenSwitchStore opens (or creates) store at given directory. Empty path opens in-memory store.
func OpenSwitchStore(path string) (*SwitchStore, error) {
	opts := badger.DefaultOptions(path).
		WithLoggingLevel(badger.ERROR) // Suppress INFO/WARNING logs
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "Can't open badger DB")
	}
	return &SwitchStore{db: db}, nil
}

// Close closes underlying database
func (s *SwitchStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func switchKey(id uuid.UUID) []byte {
	return append([]byte(prefixSwitch), id[:]...)
}

// Put saves switch, replacing previous record with the same ID
func (s *SwitchStore) Put(sw *TrackSwitch) error {
	data, err := sw.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "Can't encode switch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(switchKey(sw.ID), data)
	})
	if err != nil {
		return errors.Wrap(err, "Can't save switch")
	}
	return nil
}

// Get loads switch by ID. Loaded switch is not attached to any graph: call Attach or RecalculateExits
// to bind it to live topology.
func (s *SwitchStore) Get(id uuid.UUID, options ...func(*TrackSwitch)) (*TrackSwitch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sw := NewTrackSwitch(options...)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(switchKey(id))
		if err == badger.ErrKeyNotFound {
			return ErrSwitchNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return sw.UnmarshalBinary(val)
		})
	})
	if err != nil {
		return nil, errors.Wrapf(err, "Can't load switch %s", id)
	}
	return sw, nil
}

// Delete removes switch. Deleting missing switch is not an error.
func (s *SwitchStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(switchKey(id))
	})
	if err != nil {
		return errors.Wrapf(err, "Can't delete switch %s", id)
	}
	return nil
}

// All loads every stored switch ordered by ID
func (s *SwitchStore) All(options ...func(*TrackSwitch)) ([]*TrackSwitch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switches := []*TrackSwitch{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixSwitch)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			sw := NewTrackSwitch(options...)
			err := it.Item().Value(func(val []byte) error {
				return sw.UnmarshalBinary(val)
			})
			if err != nil {
				return errors.Wrapf(err, "Can't decode switch with key %x", it.Item().Key())
			}
			switches = append(switches, sw)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "Can't iterate switches")
	}
	sort.Slice(switches, func(i, j int) bool {
		return switches[i].ID.String() < switches[j].ID.String()
	})
	return switches, nil
}
