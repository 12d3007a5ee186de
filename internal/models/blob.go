package models

import "fmt"

// Kind distinguishes executable program blobs from opaque data blobs.
// It is fixed at creation.
type Kind uint8

const (
	KindData Kind = iota
	KindProgram
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindProgram:
		return "program"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindData || k == KindProgram
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid blob kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "data":
		*k = KindData
	case "program":
		*k = KindProgram
	default:
		return fmt.Errorf("invalid blob kind %q", text)
	}
	return nil
}

// Mutability determines whether a blob's contents may ever be overwritten.
// It is fixed at creation.
type Mutability uint8

const (
	Mutable Mutability = iota
	Immutable
)

// String returns the lowercase name of the mutability flag.
func (m Mutability) String() string {
	switch m {
	case Mutable:
		return "mutable"
	case Immutable:
		return "immutable"
	default:
		return fmt.Sprintf("mutability(%d)", uint8(m))
	}
}

// Valid reports whether m is a known mutability flag.
func (m Mutability) Valid() bool {
	return m == Mutable || m == Immutable
}

// MarshalText implements encoding.TextMarshaler.
func (m Mutability) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid mutability %d", uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mutability) UnmarshalText(text []byte) error {
	switch string(text) {
	case "mutable":
		*m = Mutable
	case "immutable":
		*m = Immutable
	default:
		return fmt.Errorf("invalid mutability %q", text)
	}
	return nil
}

// Blob is the fundamental unit of state. ID, Kind, Mutability and Owner are
// immutable for the blob's lifetime; only the Contents of a Mutable blob may
// change, and only through an authorized write.
type Blob struct {
	ID         BlobID     `json:"id"`
	Kind       Kind       `json:"kind"`
	Mutability Mutability `json:"mutability"`
	Owner      BlobID     `json:"owner"`
	Contents   []byte     `json:"contents,omitempty"`
}

// IsMaster reports whether the blob owns itself (root of an ownership chain).
func (b *Blob) IsMaster() bool {
	return b.Owner == b.ID
}

// Clone returns a deep copy of the blob. Store reads hand out clones so that
// callers can never mutate the authoritative record.
func (b *Blob) Clone() *Blob {
	c := *b
	if b.Contents != nil {
		c.Contents = make([]byte, len(b.Contents))
		copy(c.Contents, b.Contents)
	}
	return &c
}

// Validate checks the creation-time invariants of the blob record itself.
func (b *Blob) Validate() error {
	if b.ID.IsZero() {
		return fmt.Errorf("blob id must not be zero")
	}
	if !b.Kind.Valid() {
		return fmt.Errorf("invalid blob kind %d", uint8(b.Kind))
	}
	if !b.Mutability.Valid() {
		return fmt.Errorf("invalid mutability %d", uint8(b.Mutability))
	}
	if b.Owner.IsZero() {
		return fmt.Errorf("blob owner must not be zero")
	}
	return nil
}
