package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay_FirstAttemptIsBase(t *testing.T) {
	d := backoffDelay(1, time.Second, 10)
	assert.Equal(t, time.Second, d)
}

func TestBackoffDelay_Doubles(t *testing.T) {
	assert.Equal(t, 2*time.Second, backoffDelay(2, time.Second, 10))
	assert.Equal(t, 4*time.Second, backoffDelay(3, time.Second, 10))
	assert.Equal(t, 8*time.Second, backoffDelay(4, time.Second, 10))
}

func TestBackoffDelay_CapsAtThirtySeconds(t *testing.T) {
	d := backoffDelay(10, time.Second, 20)
	assert.Equal(t, backoffCap, d)
}

func TestBackoffDelay_TailAfterMaxAttempts(t *testing.T) {
	d := backoffDelay(21, time.Second, 20)
	assert.Equal(t, tailBackoff, d)
}

func TestBackoffDelay_NeverGivesUp(t *testing.T) {
	// far beyond max attempts, still returns the constant tail, never an error
	d := backoffDelay(10000, time.Second, 5)
	assert.Equal(t, tailBackoff, d)
}
