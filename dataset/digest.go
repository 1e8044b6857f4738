package dataset

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// KeyHash fingerprints a partition key: 16 hex digits of the key's
// 64-bit xxhash. Equal keys always produce equal fingerprints, so key
// membership can be checked against stored hashes without scanning raw
// key lists.
func KeyHash(key Key) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], xxhash.Sum64String(string(key)))
	return hex.EncodeToString(buf[:])
}

// KeyHashes fingerprints each key, preserving order.
func KeyHashes(keys []Key) []string {
	if keys == nil {
		return nil
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = KeyHash(k)
	}
	return out
}
