package store

import "github.com/kraukis/substore/internal/models"

// The ownership graph is a derived, read-only view over the owner field of
// every live blob. Masters own themselves, so the relation is total and
// chain-following needs no null-owner branch.

// IsMaster reports whether the blob owns itself.
func (s *Store) IsMaster(id models.BlobID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[id]
	if !ok {
		return false, ErrNotFound
	}
	return b.Owner == b.ID, nil
}

// OwnerOf returns the direct owner of the blob (equal to id for a master).
func (s *Store) OwnerOf(id models.BlobID) (models.BlobID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[id]
	if !ok {
		return models.ZeroID, ErrNotFound
	}
	return b.Owner, nil
}

// RootOf follows owner links to the master of the blob's chain. The creation
// invariant guarantees termination; the walk is still bounded by the store
// size, and exceeding the bound reports ErrCycleDetected.
func (s *Store) RootOf(id models.BlobID) (models.BlobID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rootLocked(id)
}

// Chain returns the ownership chain from the blob up to and including its
// master.
func (s *Store) Chain(id models.BlobID) ([]models.BlobID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chain := []models.BlobID{id}
	current := id
	for hops := 0; hops <= len(s.blobs); hops++ {
		b, ok := s.blobs[current]
		if !ok {
			return nil, ErrNotFound
		}
		if b.Owner == current {
			return chain, nil
		}
		current = b.Owner
		chain = append(chain, current)
	}
	return nil, ErrCycleDetected
}

// rootLocked is RootOf with the lock already held.
func (s *Store) rootLocked(id models.BlobID) (models.BlobID, error) {
	current := id
	for hops := 0; hops <= len(s.blobs); hops++ {
		b, ok := s.blobs[current]
		if !ok {
			return models.ZeroID, ErrNotFound
		}
		if b.Owner == current {
			return current, nil
		}
		current = b.Owner
	}
	return models.ZeroID, ErrCycleDetected
}
