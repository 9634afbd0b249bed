package shortener

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultExpiryDays is the mapping lifetime used when the caller does not
// specify one.
const DefaultExpiryDays = 60

// ErrInvalidExpiryDays is returned when an expiry lifetime is zero or negative.
var ErrInvalidExpiryDays = errors.New("expiry days must be positive")

// expiryLayouts are tried in order when parsing stored expiry text. Values
// without an offset are treated as UTC.
var expiryLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
}

// IsExpired reports whether the mapping carrying the given expiry text is
// logically dead. It is the single source of truth for liveness: the resolve
// path and the dedup lookup both go through it. Empty or unparseable text is
// treated as expired, never as alive. Equality with the current instant is
// not expired.
func IsExpired(expiryDate string) bool {
	expiry, err := parseExpiry(expiryDate)
	if err != nil {
		return true
	}

	return time.Now().UTC().After(expiry)
}

func parseExpiry(expiryDate string) (time.Time, error) {
	if expiryDate == "" {
		return time.Time{}, errors.New("empty expiry date")
	}

	if strings.HasSuffix(expiryDate, "Z") {
		expiryDate = strings.TrimSuffix(expiryDate, "Z") + "+00:00"
	}

	var lastErr error
	for _, layout := range expiryLayouts {
		t, err := time.Parse(layout, expiryDate)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}

	return time.Time{}, lastErr
}

// CalculateExpiry returns the ISO-8601 instant lying the given number of days
// after the current UTC instant.
func CalculateExpiry(days int) (string, error) {
	if days <= 0 {
		return "", fmt.Errorf("%w, got: %d", ErrInvalidExpiryDays, days)
	}

	expiry := time.Now().UTC().Add(time.Duration(days) * 24 * time.Hour)

	return expiry.Format(time.RFC3339Nano), nil
}
