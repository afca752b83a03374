package utils

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkIDs(t *testing.T) {
	assert.Nil(t, ChunkIDs(nil, 50))

	ids := make([]string, 120)
	for i := range ids {
		ids[i] = fmt.Sprintf("id%d", i)
	}
	chunks := ChunkIDs(ids, 50)
	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 50)
	assert.Len(t, chunks[2], 20)
	assert.Equal(t, "id119", chunks[2][19])

	assert.Len(t, ChunkIDs(ids[:50], 50), 1)
}

func TestUniqueIDs(t *testing.T) {
	got := UniqueIDs([]string{"b", "a", "", "b", "c", "a"})
	assert.Equal(t, []string{"b", "a", "c"}, got)
}
