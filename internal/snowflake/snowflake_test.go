package snowflake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNodeRejectsOutOfRange(t *testing.T) {
	_, err := NewNode(-1)
	assert.Error(t, err)
	_, err = NewNode(maxNodeID + 1)
	assert.Error(t, err)

	_, err = NewNode(maxNodeID)
	assert.NoError(t, err)
}

func TestGenerateIsUniqueAndIncreasing(t *testing.T) {
	n, err := NewNode(3)
	require.NoError(t, err)

	seen := make(map[ID]struct{})
	var last ID
	for i := 0; i < 10000; i++ {
		id := n.Generate()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %d", id)
		seen[id] = struct{}{}
		require.Greater(t, id, last)
		last = id
	}
}

func TestGenerateSurvivesClockRollback(t *testing.T) {
	n, err := NewNode(1)
	require.NoError(t, err)

	clock := epoch + 5000
	n.now = func() int64 { return clock }
	first := n.Generate()

	clock -= 1000
	second := n.Generate()
	assert.Greater(t, second, first)
}

func TestIDEncoding(t *testing.T) {
	n, err := NewNode(1)
	require.NoError(t, err)

	before := time.Now().Add(-time.Second)
	id := n.Generate()
	assert.WithinRange(t, id.Time(), before, time.Now().Add(time.Second))
	assert.NotEmpty(t, id.Base36())
	assert.Equal(t, id.Int64(), int64(id))
}
