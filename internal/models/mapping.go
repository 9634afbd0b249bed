package models

import "time"

// URLMapping represents a short code bound to a long URL, together with its
// lifetime and access metadata.
type URLMapping struct {
	// ShortID is the unique short code the long URL is keyed by.
	ShortID string
	// LongURL is the original target URL.
	LongURL string
	// CreatedAt is the instant the mapping was created; set once, never updated.
	CreatedAt time.Time
	// ExpiryDate is the ISO-8601 instant after which the mapping is logically
	// dead. It is stored as text; shortener.IsExpired is the only parser.
	ExpiryDate string
	// TTLTimestamp is ExpiryDate as epoch seconds. The store uses it to
	// eventually remove the record; physical deletion may lag logical expiry.
	TTLTimestamp int64
	// ClickCount tracks successful resolves. Best effort, may under-count.
	ClickCount int64
	// LastAccessedAt is the instant of the last successful resolve, if any.
	LastAccessedAt *time.Time
}
