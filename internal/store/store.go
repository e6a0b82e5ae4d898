// Package store owns the per-user record files and the identity index that
// joins Telegram sender ids to user numbers. All reads and writes go through
// the Store; nothing else touches the files.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/Tanishk053/tanigpt/internal/fsstore"
)

const (
	indexFileName = "user_index.json"
	lockDirName   = ".locks"
	storeLockKey  = "user_store"
)

// ErrNotFound reports a user number with no record, or an external id with
// no index entry.
var ErrNotFound = errors.New("store: user not found")

// Store is a file-backed repository. An in-process mutex serializes handlers
// inside one process; the flock under .locks serializes the bot against the
// dashboard process sharing the same data dir.
type Store struct {
	dir       string
	indexPath string
	lockPath  string

	mu sync.Mutex
}

func Open(dir string) (*Store, error) {
	if err := fsstore.EnsureDir(dir); err != nil {
		return nil, err
	}
	lockPath, err := fsstore.BuildLockPath(filepath.Join(dir, lockDirName), storeLockKey)
	if err != nil {
		return nil, err
	}
	return &Store{
		dir:       dir,
		indexPath: filepath.Join(dir, indexFileName),
		lockPath:  lockPath,
	}, nil
}

func (s *Store) recordPath(userNumber string) string {
	return filepath.Join(s.dir, "user_"+userNumber+".json")
}

// validUserNumber gates externally supplied user numbers before they reach
// a file path. Only the digit strings Create allocates are valid.
func validUserNumber(userNumber string) bool {
	if userNumber == "" {
		return false
	}
	for i := 0; i < len(userNumber); i++ {
		if userNumber[i] < '0' || userNumber[i] > '9' {
			return false
		}
	}
	return true
}

func (s *Store) readIndex() (Index, error) {
	index := Index{}
	if _, err := fsstore.ReadJSON(s.indexPath, &index); err != nil {
		return nil, err
	}
	return index, nil
}

// Lookup resolves an external identity to its user number.
func (s *Store) Lookup(externalID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.readIndex()
	if err != nil {
		return "", false, err
	}
	entry, ok := index[externalID]
	if !ok {
		return "", false, nil
	}
	return entry.UserNumber, true, nil
}

// Get loads the record for a user number. Returns ErrNotFound when no such
// record file exists.
func (s *Store) Get(userNumber string) (UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(userNumber)
}

func (s *Store) getLocked(userNumber string) (UserRecord, error) {
	if !validUserNumber(userNumber) {
		return UserRecord{}, fmt.Errorf("%w: %s", ErrNotFound, userNumber)
	}
	var rec UserRecord
	ok, err := fsstore.ReadJSON(s.recordPath(userNumber), &rec)
	if err != nil {
		return UserRecord{}, err
	}
	if !ok {
		return UserRecord{}, fmt.Errorf("%w: %s", ErrNotFound, userNumber)
	}
	return rec, nil
}

// Put rewrites a user's record file. The index is untouched; callers mutate
// records only for users that already exist.
func (s *Store) Put(rec UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fsstore.WriteJSONAtomic(s.recordPath(rec.UserNumber), rec)
}

// Create allocates the next user number, writes the record, then adds the
// index entry. Record and index are committed together under the store
// lock: if the index write fails the record file is removed again so no
// partial signup is observable.
func (s *Store) Create(ctx context.Context, externalID, name, phone string, history []Message) (UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec UserRecord
	err := fsstore.WithLock(ctx, s.lockPath, func() error {
		index, err := s.readIndex()
		if err != nil {
			return err
		}
		if _, exists := index[externalID]; exists {
			return fmt.Errorf("store: external id %s already registered", externalID)
		}

		// count+1 as the base, but never a number whose record file
		// survived an earlier delete: a delete shrinks the count while
		// higher-numbered records remain, and reusing one of those
		// numbers would silently overwrite a live record.
		next := len(index) + 1
		userNumber := strconv.Itoa(next)
		for {
			_, statErr := os.Stat(s.recordPath(userNumber))
			if errors.Is(statErr, os.ErrNotExist) {
				break
			}
			if statErr != nil {
				return statErr
			}
			next++
			userNumber = strconv.Itoa(next)
		}

		rec = UserRecord{
			UserNumber:  userNumber,
			Name:        name,
			PhoneNumber: phone,
			ChatHistory: history,
		}
		if err := fsstore.WriteJSONAtomic(s.recordPath(userNumber), rec); err != nil {
			return err
		}

		index[externalID] = IndexEntry{UserNumber: userNumber}
		if err := fsstore.WriteJSONAtomic(s.indexPath, index); err != nil {
			_ = os.Remove(s.recordPath(userNumber))
			return err
		}
		return nil
	})
	if err != nil {
		return UserRecord{}, err
	}
	return rec, nil
}

// Delete removes the index entry (located by reverse lookup on the user
// number) and the record file together.
func (s *Store) Delete(ctx context.Context, userNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !validUserNumber(userNumber) {
		return fmt.Errorf("%w: %s", ErrNotFound, userNumber)
	}

	return fsstore.WithLock(ctx, s.lockPath, func() error {
		index, err := s.readIndex()
		if err != nil {
			return err
		}
		externalID := ""
		for id, entry := range index {
			if entry.UserNumber == userNumber {
				externalID = id
				break
			}
		}
		if externalID == "" {
			return fmt.Errorf("%w: %s", ErrNotFound, userNumber)
		}

		delete(index, externalID)
		if err := fsstore.WriteJSONAtomic(s.indexPath, index); err != nil {
			return err
		}
		if err := os.Remove(s.recordPath(userNumber)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	})
}

// List renders every indexed user, ordered by user number.
func (s *Store) List() ([]ListEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.readIndex()
	if err != nil {
		return nil, err
	}

	entries := make([]ListEntry, 0, len(index))
	for externalID, entry := range index {
		rec, err := s.getLocked(entry.UserNumber)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// Index entry pointing at a missing file; skip rather than
				// fail the whole listing.
				continue
			}
			return nil, err
		}
		entries = append(entries, ListEntry{
			UserNumber:  rec.UserNumber,
			ExternalID:  externalID,
			Name:        rec.Name,
			PhoneNumber: rec.PhoneNumber,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, _ := strconv.Atoi(entries[i].UserNumber)
		b, _ := strconv.Atoi(entries[j].UserNumber)
		return a < b
	})
	return entries, nil
}

// FindByPhone scans every record for an equal normalized phone number.
// Linear on purpose; see DESIGN.md.
func (s *Store) FindByPhone(phone string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.readIndex()
	if err != nil {
		return "", false, err
	}
	for _, entry := range index {
		rec, err := s.getLocked(entry.UserNumber)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return "", false, err
		}
		if rec.PhoneNumber == phone {
			return rec.UserNumber, true, nil
		}
	}
	return "", false, nil
}

// Count reports how many users are indexed.
func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.readIndex()
	if err != nil {
		return 0, err
	}
	return len(index), nil
}
