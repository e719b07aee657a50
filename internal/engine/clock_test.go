package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock_Next_Incrementing(t *testing.T) {
	c := NewClock()

	// First change of a run is seq 1.
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(3), c.Next())
}

func TestClock_IndependentPerRun(t *testing.T) {
	a, b := NewClock(), NewClock()
	a.Next()
	a.Next()

	assert.Equal(t, int64(1), b.Next(), "each run numbers its changes from 1")
	assert.Equal(t, int64(3), a.Next())
}
