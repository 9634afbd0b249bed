// Package shortener contains the mapping-creation core: short id generation,
// collision retry over the store's conditional insert, deduplication of
// repeat submissions, and the logical-expiry evaluator every liveness
// decision goes through.
package shortener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hireko/url-shortener/internal/database"
	"github.com/hireko/url-shortener/internal/models"
)

// maxCreateAttempts bounds the collision retry loop.
const maxCreateAttempts = 3

var (
	// ErrCustomSuffixConflict is returned when a caller-supplied suffix is
	// already taken. Custom suffixes are never retried with a different value.
	ErrCustomSuffixConflict = errors.New("custom suffix already in use")
	// ErrMaxAttemptsExceeded is returned when every creation attempt hit a
	// short id collision.
	ErrMaxAttemptsExceeded = errors.New("unable to allocate a unique short id after maximum attempts")
	// ErrMappingExpired is returned by Resolve for a mapping that exists but
	// is logically dead. Distinct from database.ErrMappingNotFound.
	ErrMappingExpired = errors.New("url mapping expired")
)

// MappingStore is the storage contract the core relies on. Its conditional
// insert is the only cross-request synchronization primitive; the secondary
// index query may return stale rows in any order.
type MappingStore interface {
	// ConditionalInsert atomically persists the mapping if its short id is
	// absent, returning database.ErrShortIDExists on a key conflict.
	ConditionalInsert(ctx context.Context, mapping *models.URLMapping) (*models.URLMapping, error)

	// Get retrieves a mapping by short id, returning
	// database.ErrMappingNotFound when no row exists.
	Get(ctx context.Context, shortID string) (*models.URLMapping, error)

	// QueryByLongURL returns all mappings stored for the long URL, possibly
	// including logically expired ones.
	QueryByLongURL(ctx context.Context, longURL string) ([]*models.URLMapping, error)

	// IncrementClickCount bumps the click counter best-effort; false signals
	// a soft failure and is never fatal.
	IncrementClickCount(ctx context.Context, shortID string) bool

	// Delete removes a mapping by short id.
	Delete(ctx context.Context, shortID string) error
}

// Service implements create-or-get and resolve on top of a MappingStore.
// It holds no mutable state; every request is handled independently.
type Service struct {
	store      MappingStore
	logger     *slog.Logger
	expiryDays int
}

func NewService(store MappingStore, logger *slog.Logger, expiryDays int) *Service {
	if expiryDays <= 0 {
		expiryDays = DefaultExpiryDays
	}

	return &Service{
		store:      store,
		logger:     logger,
		expiryDays: expiryDays,
	}
}

// CreateOrGet returns a live mapping for the long URL, reusing an existing
// one when the dedup lookup finds it and creating a new one otherwise. The
// boolean reports whether a mapping was created.
func (s *Service) CreateOrGet(ctx context.Context, longURL, customSuffix string) (*models.URLMapping, bool, error) {
	const op = "shortener.Service.CreateOrGet"

	if !IsValidLongURL(longURL) {
		return nil, false, fmt.Errorf("%s: %w", op, ErrInvalidURL)
	}

	existing, err := s.findLive(ctx, longURL)
	if err != nil {
		return nil, false, fmt.Errorf("%s: failed to look up existing mapping: %w", op, err)
	}
	if existing != nil {
		return existing, false, nil
	}

	mapping, err := s.createUnique(ctx, longURL, customSuffix)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	return mapping, true, nil
}

// findLive scans the secondary-index candidates for the long URL and returns
// the first one the expiry evaluator considers alive. Expired duplicates
// accumulate until the store's sweep catches up, so candidates are filtered
// here rather than trusted. A nil result without error is the expected
// "no live mapping" outcome.
func (s *Service) findLive(ctx context.Context, longURL string) (*models.URLMapping, error) {
	candidates, err := s.store.QueryByLongURL(ctx, longURL)
	if err != nil {
		return nil, err
	}

	for _, candidate := range candidates {
		if !IsExpired(candidate.ExpiryDate) {
			return candidate, nil
		}
	}

	return nil, nil
}

// createUnique runs the collision retry loop. The expiry deadline is computed
// once, so every attempt of one request shares it. A custom suffix is only
// tried on the first attempt and a conflict on it fails immediately; for
// generated ids each retry mixes the attempt index and a fresh timestamp into
// the hash input. Uniqueness is enforced entirely by the store's conditional
// insert, not by any in-process lock.
func (s *Service) createUnique(ctx context.Context, longURL, customSuffix string) (*models.URLMapping, error) {
	expiryDate, err := CalculateExpiry(s.expiryDays)
	if err != nil {
		return nil, err
	}

	expiry, err := parseExpiry(expiryDate)
	if err != nil {
		return nil, fmt.Errorf("failed to derive ttl timestamp: %w", err)
	}
	ttlTimestamp := expiry.Unix()

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		var shortID string
		var err error

		if customSuffix != "" && attempt == 0 {
			shortID, err = GenerateShortID(longURL, customSuffix)
		} else {
			hashInput := longURL
			if attempt > 0 {
				hashInput = fmt.Sprintf("%s_%d_%d", longURL, attempt, time.Now().UTC().UnixNano())
			}
			shortID, err = GenerateShortID(hashInput, "")
		}
		if err != nil {
			return nil, err
		}

		mapping, err := s.store.ConditionalInsert(ctx, &models.URLMapping{
			ShortID:      shortID,
			LongURL:      longURL,
			ExpiryDate:   expiryDate,
			TTLTimestamp: ttlTimestamp,
		})
		if err != nil {
			if errors.Is(err, database.ErrShortIDExists) {
				if customSuffix != "" {
					return nil, fmt.Errorf("%w: %q", ErrCustomSuffixConflict, customSuffix)
				}

				s.logger.Warn("short id collision",
					slog.String("short_id", shortID),
					slog.Int("attempt", attempt+1))
				continue
			}

			return nil, fmt.Errorf("failed to create url mapping: %w", err)
		}

		return mapping, nil
	}

	return nil, ErrMaxAttemptsExceeded
}

// Resolve returns the live mapping for the short id, recording the access
// best-effort. A missing mapping and an expired one surface as distinct
// errors so the caller can answer "not found" vs "gone".
func (s *Service) Resolve(ctx context.Context, shortID string) (*models.URLMapping, error) {
	const op = "shortener.Service.Resolve"

	mapping, err := s.store.Get(ctx, shortID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short id: %w", op, err)
	}

	if IsExpired(mapping.ExpiryDate) {
		return nil, fmt.Errorf("%s: %w", op, ErrMappingExpired)
	}

	if ok := s.store.IncrementClickCount(ctx, shortID); !ok {
		s.logger.Warn("failed to update click count", slog.String("short_id", shortID))
	}

	return mapping, nil
}

// Stats returns the mapping for the short id without recording an access.
// Expired mappings are returned as-is; the caller reports their liveness.
func (s *Service) Stats(ctx context.Context, shortID string) (*models.URLMapping, error) {
	const op = "shortener.Service.Stats"

	mapping, err := s.store.Get(ctx, shortID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url mapping stats: %w", op, err)
	}

	return mapping, nil
}

// Delete removes the mapping for the short id.
func (s *Service) Delete(ctx context.Context, shortID string) error {
	const op = "shortener.Service.Delete"

	if err := s.store.Delete(ctx, shortID); err != nil {
		return fmt.Errorf("%s: failed to delete url mapping: %w", op, err)
	}

	return nil
}
