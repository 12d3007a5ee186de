// Package store implements the authoritative BlobID→Blob mapping. It
// enforces identifier uniqueness, mutability, and ownership integrity, and
// serializes all mutations so that concurrent operations on the same id are
// equivalent to some sequential execution.
package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kraukis/substore/internal/models"
)

// Store is the in-memory blob map. A single RWMutex guards the map: reads
// may run concurrently with each other, every mutation is exclusive. This
// gives serializable isolation per id, and owner-chain reads can never
// observe a half-completed mutation of an ancestor.
type Store struct {
	mu    sync.RWMutex
	blobs map[models.BlobID]*models.Blob
	// owned counts the live blobs owned by each id, excluding self-ownership.
	// Maintained on create/delete so the no-orphans delete check is O(1).
	owned map[models.BlobID]int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		blobs: make(map[models.BlobID]*models.Blob),
		owned: make(map[models.BlobID]int),
	}
}

// Len returns the number of live blobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Has reports whether a blob with the given id is live.
func (s *Store) Has(id models.BlobID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[id]
	return ok
}

// Create inserts a candidate blob. It fails with ErrBlobExists if the id is
// already live, and rejects candidates whose owner is neither themselves nor
// a live blob, so the ownership forest invariant holds at all times.
// Insertion is atomic: no partial state is ever observable.
func (s *Store) Create(candidate *models.Blob) error {
	if err := candidate.Validate(); err != nil {
		return fmt.Errorf("invalid candidate: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[candidate.ID]; ok {
		return ErrBlobExists
	}
	if candidate.Owner != candidate.ID {
		if _, ok := s.blobs[candidate.Owner]; !ok {
			return fmt.Errorf("owner %s: %w", candidate.Owner.Short(), ErrNotFound)
		}
	}

	s.blobs[candidate.ID] = candidate.Clone()
	if candidate.Owner != candidate.ID {
		s.owned[candidate.Owner]++
	}
	return nil
}

// CreateMaster inserts a self-owned candidate on behalf of a requester that
// must itself be a live master. The requester check and the insert happen
// under one lock, so a concurrently deleted requester can never mint a
// master.
func (s *Store) CreateMaster(requester models.BlobID, candidate *models.Blob) error {
	if err := candidate.Validate(); err != nil {
		return fmt.Errorf("invalid candidate: %w", err)
	}
	if candidate.Owner != candidate.ID {
		return fmt.Errorf("candidate %s is not self-owned", candidate.ID.Short())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[candidate.ID]; ok {
		return ErrBlobExists
	}
	r, ok := s.blobs[requester]
	if !ok {
		return fmt.Errorf("creator %s: %w", requester.Short(), ErrNotFound)
	}
	if !r.IsMaster() {
		return fmt.Errorf("only a master may create masters: %w", ErrUnauthorized)
	}

	s.blobs[candidate.ID] = candidate.Clone()
	return nil
}

// Get returns a read-only view (a deep copy) of the blob.
func (s *Store) Get(id models.BlobID) (*models.Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b.Clone(), nil
}

// Write overwrites the contents of a mutable blob. The requester must be the
// target's direct owner or its chain root. All fields other than Contents
// are left unchanged; the overwrite is atomic.
func (s *Store) Write(requester, id models.BlobID, contents []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.blobs[id]
	if !ok {
		return ErrNotFound
	}
	if b.Mutability == models.Immutable {
		return ErrImmutable
	}
	if err := s.authorizeLocked(requester, b); err != nil {
		return err
	}

	b.Contents = make([]byte, len(contents))
	copy(b.Contents, contents)
	return nil
}

// Delete removes a blob. The requester must be the target's direct owner or
// its chain root. Deleting a blob that still owns live blobs is rejected
// with ErrHasChildren — the store never cascades and never orphans.
func (s *Store) Delete(requester, id models.BlobID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.blobs[id]
	if !ok {
		return ErrNotFound
	}
	if err := s.authorizeLocked(requester, b); err != nil {
		return err
	}
	if s.owned[id] > 0 {
		return ErrHasChildren
	}

	delete(s.blobs, id)
	delete(s.owned, id)
	if b.Owner != b.ID {
		if s.owned[b.Owner]--; s.owned[b.Owner] <= 0 {
			delete(s.owned, b.Owner)
		}
	}
	return nil
}

// Snapshot returns deep copies of every live blob, sorted by id. The result
// is the enumerable (id, kind, mutability, owner, contents) sequence the
// persistence boundary consumes.
func (s *Store) Snapshot() []*models.Blob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Blob, 0, len(s.blobs))
	for _, b := range s.blobs {
		out = append(out, b.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Less(out[j].ID) })
	return out
}

// Restore replaces the store contents with the given blobs, rebuilding the
// ownership index. Every record is validated and every owner must be present
// in the restored set. Chain termination is not re-proven here; RootOf checks
// it defensively on use.
func (s *Store) Restore(blobs []*models.Blob) error {
	next := make(map[models.BlobID]*models.Blob, len(blobs))
	owned := make(map[models.BlobID]int)

	for _, b := range blobs {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("restore %s: %w", b.ID.Short(), err)
		}
		if _, ok := next[b.ID]; ok {
			return fmt.Errorf("restore %s: %w", b.ID.Short(), ErrBlobExists)
		}
		next[b.ID] = b.Clone()
	}
	for _, b := range next {
		if b.Owner == b.ID {
			continue
		}
		if _, ok := next[b.Owner]; !ok {
			return fmt.Errorf("restore %s: owner %s: %w", b.ID.Short(), b.Owner.Short(), ErrNotFound)
		}
		owned[b.Owner]++
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs = next
	s.owned = owned
	return nil
}

// authorizeLocked checks the write/delete policy: the requester must equal
// the target's direct owner or the root of its ownership chain. Callers hold
// at least a read lock.
func (s *Store) authorizeLocked(requester models.BlobID, target *models.Blob) error {
	if requester == target.Owner {
		return nil
	}
	root, err := s.rootLocked(target.ID)
	if err != nil {
		return err
	}
	if requester == root {
		return nil
	}
	return ErrUnauthorized
}
