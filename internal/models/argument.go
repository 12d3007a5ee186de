package models

import (
	"encoding/binary"
	"fmt"
)

// ArgKind tags an identifier-derivation argument variant. Tags are part of
// the canonical encoding and therefore pinned: renumbering them would change
// every derived BlobID.
type ArgKind uint8

const (
	// ArgRaw is an opaque byte payload.
	ArgRaw ArgKind = 1
	// ArgCounter is a caller-supplied monotonically increasing counter.
	ArgCounter ArgKind = 2
	// ArgNonce is caller-supplied randomness.
	ArgNonce ArgKind = 3
	// ArgBlobID is the identifier of a prior blob.
	ArgBlobID ArgKind = 4
)

// String returns the lowercase name of the argument kind.
func (k ArgKind) String() string {
	switch k {
	case ArgRaw:
		return "raw"
	case ArgCounter:
		return "counter"
	case ArgNonce:
		return "nonce"
	case ArgBlobID:
		return "blobid"
	default:
		return fmt.Sprintf("argkind(%d)", uint8(k))
	}
}

// Argument is one tagged input to BlobID derivation. The engine never
// interprets argument semantics; it only folds the canonical encoding of
// each argument, in order, into the identifier hash.
type Argument struct {
	Kind    ArgKind `json:"kind"`
	Raw     []byte  `json:"raw,omitempty"`
	Counter uint64  `json:"counter,omitempty"`
	Nonce   []byte  `json:"nonce,omitempty"`
	ID      BlobID  `json:"id,omitempty"`
}

// RawArg builds a raw-bytes argument.
func RawArg(b []byte) Argument { return Argument{Kind: ArgRaw, Raw: b} }

// CounterArg builds a sequence-counter argument.
func CounterArg(n uint64) Argument { return Argument{Kind: ArgCounter, Counter: n} }

// NonceArg builds a caller-randomness argument.
func NonceArg(b []byte) Argument { return Argument{Kind: ArgNonce, Nonce: b} }

// IDArg builds a prior-BlobID argument.
func IDArg(id BlobID) Argument { return Argument{Kind: ArgBlobID, ID: id} }

// Validate checks that the argument carries a known tag.
func (a Argument) Validate() error {
	switch a.Kind {
	case ArgRaw, ArgCounter, ArgNonce, ArgBlobID:
		return nil
	default:
		return fmt.Errorf("invalid argument kind %d", uint8(a.Kind))
	}
}

// AppendEncoding appends the canonical byte encoding of the argument to dst.
//
// The encoding is order-preserving and unambiguous so that identical logical
// arguments hash identically across implementations:
//
//	raw     = 0x01 || len(payload) as uint64 BE || payload
//	counter = 0x02 || counter as uint64 BE
//	nonce   = 0x03 || len(payload) as uint64 BE || payload
//	blobid  = 0x04 || 32 raw id bytes
func (a Argument) AppendEncoding(dst []byte) []byte {
	dst = append(dst, byte(a.Kind))
	switch a.Kind {
	case ArgRaw:
		dst = binary.BigEndian.AppendUint64(dst, uint64(len(a.Raw)))
		dst = append(dst, a.Raw...)
	case ArgCounter:
		dst = binary.BigEndian.AppendUint64(dst, a.Counter)
	case ArgNonce:
		dst = binary.BigEndian.AppendUint64(dst, uint64(len(a.Nonce)))
		dst = append(dst, a.Nonce...)
	case ArgBlobID:
		dst = append(dst, a.ID[:]...)
	}
	return dst
}

// String renders the argument for logs and journal records.
func (a Argument) String() string {
	switch a.Kind {
	case ArgRaw:
		return fmt.Sprintf("raw(%d bytes)", len(a.Raw))
	case ArgCounter:
		return fmt.Sprintf("counter(%d)", a.Counter)
	case ArgNonce:
		return fmt.Sprintf("nonce(%d bytes)", len(a.Nonce))
	case ArgBlobID:
		return fmt.Sprintf("blobid(%s)", a.ID.Short())
	default:
		return a.Kind.String()
	}
}
