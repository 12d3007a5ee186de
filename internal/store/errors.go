package store

import "errors"

// Sentinel errors for expected conditions. All are surfaced to the invoking
// function as values it can branch on; none are fatal to the store except
// ErrCycleDetected, which indicates prior corruption of the ownership forest.
var (
	// ErrBlobExists is returned by Create when the candidate's id is already
	// live. Recoverable: the caller may retry with different arguments.
	ErrBlobExists = errors.New("blob already exists")

	// ErrNotFound is returned for operations on an absent BlobID.
	ErrNotFound = errors.New("blob not found")

	// ErrImmutable is returned when a write targets an immutable blob.
	ErrImmutable = errors.New("blob is immutable")

	// ErrUnauthorized is returned when the requester is neither the direct
	// owner nor the chain root of the target blob.
	ErrUnauthorized = errors.New("requester not authorized")

	// ErrCycleDetected is returned when an ownership chain fails to reach a
	// master within the store-size bound. It is a store-integrity fault.
	ErrCycleDetected = errors.New("ownership cycle detected")

	// ErrHasChildren is returned by Delete when the target still owns live
	// blobs. Deletion of owners is rejected rather than cascaded so that no
	// record is ever silently orphaned.
	ErrHasChildren = errors.New("blob still owns live blobs")
)
