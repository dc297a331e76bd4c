// Package ident allocates ephemeral client identities: opaque ids and
// human-readable display names. Nothing here is persisted.
package ident

import (
	"crypto/rand"
	"encoding/binary"
	"strconv"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
)

// idLength matches the ids clients generate for themselves on the
// front end, so server-assigned and client-supplied ids look alike.
const idLength = 7

// NewID returns a best-effort unique identifier in base36.
func NewID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// Fallback to timestamp if crypto/rand is unavailable.
		return strconv.FormatInt(time.Now().UnixNano(), 36)[:idLength]
	}

	id := strconv.FormatUint(binary.BigEndian.Uint64(buf), 36)
	for len(id) < idLength {
		id = "0" + id
	}
	return id[:idLength]
}

// NewName returns a random two-word display name.
func NewName() string {
	return petname.Generate(2, "-")
}
