package shortener

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsExpired(t *testing.T) {
	t.Run("future instant with zulu marker", func(t *testing.T) {
		expiry := time.Now().UTC().Add(24 * time.Hour).Format("2006-01-02T15:04:05") + "Z"

		assert.False(t, IsExpired(expiry))
	})

	t.Run("future instant with explicit offset", func(t *testing.T) {
		expiry := time.Now().UTC().Add(24 * time.Hour).Format("2006-01-02T15:04:05") + "+00:00"

		assert.False(t, IsExpired(expiry))
	})

	t.Run("future naive instant assumed utc", func(t *testing.T) {
		expiry := time.Now().UTC().Add(24 * time.Hour).Format("2006-01-02T15:04:05")

		assert.False(t, IsExpired(expiry))
	})

	t.Run("future naive instant with fractional seconds", func(t *testing.T) {
		expiry := time.Now().UTC().Add(24 * time.Hour).Format("2006-01-02T15:04:05.000000")

		assert.False(t, IsExpired(expiry))
	})

	t.Run("past instant", func(t *testing.T) {
		expiry := time.Now().UTC().Add(-24 * time.Hour).Format(time.RFC3339Nano)

		assert.True(t, IsExpired(expiry))
	})

	t.Run("malformed text", func(t *testing.T) {
		assert.True(t, IsExpired("not-a-date"))
	})

	t.Run("empty text", func(t *testing.T) {
		assert.True(t, IsExpired(""))
	})
}

func TestCalculateExpiry(t *testing.T) {
	t.Run("zero days", func(t *testing.T) {
		expiry, err := CalculateExpiry(0)

		assert.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidExpiryDays)
		assert.Empty(t, expiry)
	})

	t.Run("negative days", func(t *testing.T) {
		expiry, err := CalculateExpiry(-1)

		assert.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidExpiryDays)
		assert.Empty(t, expiry)
	})

	t.Run("success", func(t *testing.T) {
		expiry, err := CalculateExpiry(30)

		assert.NoError(t, err)

		parsed, err := time.Parse(time.RFC3339Nano, expiry)
		assert.NoError(t, err)

		want := time.Now().UTC().Add(30 * 24 * time.Hour)
		assert.WithinDuration(t, want, parsed, 5*time.Second)

		assert.False(t, IsExpired(expiry))
	})
}
