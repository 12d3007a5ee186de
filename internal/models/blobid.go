// Package models defines the core data structures of the substore engine:
// blob identifiers, blobs, identifier-derivation arguments, and programs.
package models

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// IDSize is the size of a BlobID in bytes (256 bits).
const IDSize = 32

// BlobID is the 256-bit identifier of a blob. It is assigned once at
// creation and never changes for the lifetime of the blob.
type BlobID [IDSize]byte

// ZeroID is the all-zero identifier. It is not a valid blob identity; it is
// used as the derivation owner for genesis masters and as the identity of
// callers outside any program context.
var ZeroID BlobID

// ParseBlobID parses a 64-character lowercase hex string into a BlobID.
func ParseBlobID(s string) (BlobID, error) {
	var id BlobID
	if len(s) != hex.EncodedLen(IDSize) {
		return id, fmt.Errorf("invalid blob id %q: want %d hex characters", s, hex.EncodedLen(IDSize))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return id, fmt.Errorf("invalid blob id %q: %w", s, err)
	}
	return id, nil
}

// String returns the hex encoding of the identifier.
func (id BlobID) String() string {
	return hex.EncodeToString(id[:])
}

// Short returns a shortened identifier (first 8 hex characters) for display.
func (id BlobID) Short() string {
	return id.String()[:8]
}

// IsZero reports whether the identifier is the all-zero value.
func (id BlobID) IsZero() bool {
	return id == ZeroID
}

// Less reports whether id sorts before other in byte order.
func (id BlobID) Less(other BlobID) bool {
	return bytes.Compare(id[:], other[:]) < 0
}

// MarshalText implements encoding.TextMarshaler using hex encoding.
func (id BlobID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *BlobID) UnmarshalText(text []byte) error {
	parsed, err := ParseBlobID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
