// Package idgen generates short, human-shareable room codes.
package idgen

import (
	"crypto/rand"
	"log"
)

// alphabet avoids the ambiguous characters l, o, 0 and 1. 32 symbols at 8
// characters gives 32^8 (~10^12) codes, so collisions against the handful
// of live rooms are vanishingly rare; the registry retries on a hit anyway.
const (
	alphabet   = "abcdefghijkmnpqrstuvwxyz23456789"
	codeLength = 8
)

// NewRoomCode returns a random room code like "k7mwp2ax".
func NewRoomCode() string {
	b := make([]byte, codeLength)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms.
		log.Panic("read random bytes:", err)
	}
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b)
}
