package cachestore

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Key hashes the given parts into a stable hex cache key. Each part is
// length-prefixed before hashing so ("ab", "c") and ("a", "bc") never
// collide.
func Key(parts ...string) string {
	h := sha256.New()
	var prefix [8]byte
	for _, part := range parts {
		binary.BigEndian.PutUint64(prefix[:], uint64(len(part)))
		h.Write(prefix[:])
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}
