package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamAccumulator(t *testing.T) {
	acc := NewStreamAccumulator()

	require.NoError(t, acc.Append("Hello"))
	require.NoError(t, acc.Append(", "))
	require.NoError(t, acc.Append("world"))
	assert.Equal(t, len("Hello, world"), acc.Len())

	assert.Equal(t, "Hello, world", acc.Finalize())

	// Finalize is terminal.
	assert.ErrorIs(t, acc.Append("more"), ErrAccumulatorFinalized)
	assert.Equal(t, "Hello, world", acc.Finalize())
}

func TestStreamAccumulatorEmpty(t *testing.T) {
	acc := NewStreamAccumulator()
	assert.Equal(t, "", acc.Finalize())
}
