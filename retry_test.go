package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialBackoffRetryer(t *testing.T) {
	t.Run("doubles from the base delay", func(t *testing.T) {
		retryer := NewExponentialBackoffRetryer(time.Second, 30*time.Second, 0)

		delay, shouldRetry := retryer.NextDelay(0)
		assert.True(t, shouldRetry)
		assert.Equal(t, time.Second, delay)

		delay, shouldRetry = retryer.NextDelay(1)
		assert.True(t, shouldRetry)
		assert.Equal(t, 2*time.Second, delay)

		delay, shouldRetry = retryer.NextDelay(2)
		assert.True(t, shouldRetry)
		assert.Equal(t, 4*time.Second, delay)
	})

	t.Run("caps at the delay ceiling", func(t *testing.T) {
		retryer := NewExponentialBackoffRetryer(100*time.Millisecond, time.Second, 0)

		delay, shouldRetry := retryer.NextDelay(4)
		assert.True(t, shouldRetry)
		assert.Equal(t, time.Second, delay)

		delay, shouldRetry = retryer.NextDelay(10)
		assert.True(t, shouldRetry)
		assert.Equal(t, time.Second, delay)
	})

	t.Run("stops after max retries", func(t *testing.T) {
		retryer := NewExponentialBackoffRetryer(100*time.Millisecond, 10*time.Second, 3)

		for i := 0; i < 3; i++ {
			delay, shouldRetry := retryer.NextDelay(i)
			assert.True(t, shouldRetry, "attempt %d should retry", i)
			assert.Greater(t, delay, time.Duration(0))
		}

		delay, shouldRetry := retryer.NextDelay(3)
		assert.False(t, shouldRetry)
		assert.Equal(t, time.Duration(0), delay)
	})

	t.Run("jitter stays within bounds", func(t *testing.T) {
		retryer := NewExponentialBackoffRetryer(time.Second, 30*time.Second, 0)
		retryer.Jitter = true
		retryer.JitterFactor = 0.3

		for i := 0; i < 20; i++ {
			delay, shouldRetry := retryer.NextDelay(1)
			assert.True(t, shouldRetry)
			assert.GreaterOrEqual(t, delay, 1400*time.Millisecond)
			assert.LessOrEqual(t, delay, 2600*time.Millisecond)
		}
	})

	t.Run("reset does not affect stateless retryer", func(t *testing.T) {
		retryer := NewExponentialBackoffRetryer(time.Second, 30*time.Second, 5)

		delay1, _ := retryer.NextDelay(2)
		retryer.Reset()
		delay2, _ := retryer.NextDelay(2)

		assert.Equal(t, delay1, delay2)
	})
}
