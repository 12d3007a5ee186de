// Package ident derives blob identifiers. Derivation is a pure function of
// the owning program's identity, the blob kind, and an ordered argument list;
// any party replaying the same execution re-derives the same BlobID.
package ident

import (
	"crypto/sha256"

	"github.com/kraukis/substore/internal/models"
)

// domain is the pinned derivation prefix. The hash algorithm (SHA-256) and
// this prefix together version the identifier scheme; changing either changes
// every derived BlobID, so both are constants for a given store version.
const domain = "substore/blobid/v1"

// Derive computes the BlobID for a blob created by the given owner program
// with the given kind and argument list. It has no side effects and performs
// no collision checking; the blob store rejects colliding creates.
func Derive(owner models.BlobID, kind models.Kind, args []models.Argument) models.BlobID {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write(owner[:])
	h.Write([]byte{byte(kind)})

	var buf []byte
	for _, a := range args {
		buf = a.AppendEncoding(buf[:0])
		h.Write(buf)
	}

	var id models.BlobID
	h.Sum(id[:0])
	return id
}
