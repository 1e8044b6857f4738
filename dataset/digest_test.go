package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyHash(t *testing.T) {
	h := KeyHash("part-001")

	assert.Len(t, h, 16)
	assert.Equal(t, h, KeyHash("part-001"))
	assert.NotEqual(t, h, KeyHash("part-002"))
}

func TestKeyHashes(t *testing.T) {
	keys := []Key{"b", "a", "c"}
	hashes := KeyHashes(keys)

	assert.Len(t, hashes, 3)
	for i, k := range keys {
		assert.Equal(t, KeyHash(k), hashes[i])
	}

	assert.Nil(t, KeyHashes(nil))
}
