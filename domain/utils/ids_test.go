package utils

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID_MonotonicAndParseable(t *testing.T) {
	prev := NewID()
	for i := 0; i < 100; i++ {
		next := NewID()
		_, err := ulid.ParseStrict(next)
		require.NoError(t, err)
		assert.Len(t, next, 26)
		assert.Less(t, prev, next)
		prev = next
	}
}
