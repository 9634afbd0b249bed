package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hireko/url-shortener/internal/database"
	"github.com/hireko/url-shortener/internal/models"
	"github.com/jmoiron/sqlx"
)

type mappingRecord struct {
	ShortID        string       `db:"short_id"`
	LongURL        string       `db:"long_url"`
	CreatedAt      time.Time    `db:"created_at"`
	ExpiryDate     string       `db:"expiry_date"`
	TTLTimestamp   int64        `db:"ttl_timestamp"`
	ClickCount     int64        `db:"click_count"`
	LastAccessedAt sql.NullTime `db:"last_accessed_at"`
}

func (r *mappingRecord) ToURLMapping() *models.URLMapping {
	m := &models.URLMapping{
		ShortID:      r.ShortID,
		LongURL:      r.LongURL,
		CreatedAt:    r.CreatedAt,
		ExpiryDate:   r.ExpiryDate,
		TTLTimestamp: r.TTLTimestamp,
		ClickCount:   r.ClickCount,
	}

	if r.LastAccessedAt.Valid {
		t := r.LastAccessedAt.Time
		m.LastAccessedAt = &t
	}

	return m
}

// MappingStore persists URL mappings in Postgres. The unique constraint on
// short_id is the only synchronization primitive creation relies on.
type MappingStore struct {
	db *sqlx.DB
}

func NewMappingStore(db *sqlx.DB) *MappingStore {
	return &MappingStore{
		db: db,
	}
}

// ConditionalInsert atomically inserts the mapping if its short id is absent.
// Returns database.ErrShortIDExists when the key is already taken.
func (s *MappingStore) ConditionalInsert(ctx context.Context, mapping *models.URLMapping) (*models.URLMapping, error) {
	const op = "database.postgres.MappingStore.ConditionalInsert"

	rec := new(mappingRecord)
	query := `INSERT INTO url_mappings(short_id, long_url, expiry_date, ttl_timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING *`

	err := s.db.GetContext(ctx, rec, query, mapping.ShortID, mapping.LongURL, mapping.ExpiryDate, mapping.TTLTimestamp)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrShortIDExists)
		}

		return nil, fmt.Errorf("%s: failed to create url mapping: %w", op, err)
	}

	return rec.ToURLMapping(), nil
}

// Get retrieves a mapping by short id, including logically expired rows the
// sweep has not caught up with yet.
func (s *MappingStore) Get(ctx context.Context, shortID string) (*models.URLMapping, error) {
	const op = "database.postgres.MappingStore.Get"

	rec := new(mappingRecord)
	query := `SELECT * FROM url_mappings
		WHERE short_id = $1`

	err := s.db.GetContext(ctx, rec, query, shortID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrMappingNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url mapping: %w", op, err)
	}

	return rec.ToURLMapping(), nil
}

// QueryByLongURL returns every mapping stored for the long URL via the
// secondary index. Expired rows may be included and ordering carries no
// liveness meaning; callers filter with the expiry evaluator.
func (s *MappingStore) QueryByLongURL(ctx context.Context, longURL string) ([]*models.URLMapping, error) {
	const op = "database.postgres.MappingStore.QueryByLongURL"

	var recs []mappingRecord
	query := `SELECT * FROM url_mappings
		WHERE long_url = $1`

	if err := s.db.SelectContext(ctx, &recs, query, longURL); err != nil {
		return nil, fmt.Errorf("%s: failed to query url mappings: %w", op, err)
	}

	mappings := make([]*models.URLMapping, 0, len(recs))
	for i := range recs {
		mappings = append(mappings, recs[i].ToURLMapping())
	}

	return mappings, nil
}

// IncrementClickCount bumps the click counter and stamps last_accessed_at.
// It never returns an error; false signals a soft failure the caller may log.
func (s *MappingStore) IncrementClickCount(ctx context.Context, shortID string) bool {
	query := `UPDATE url_mappings
		SET click_count = click_count + 1, last_accessed_at = now()
		WHERE short_id = $1`

	res, err := s.db.ExecContext(ctx, query, shortID)
	if err != nil {
		return false
	}

	n, err := res.RowsAffected()
	return err == nil && n > 0
}

// Delete removes a mapping by short id.
func (s *MappingStore) Delete(ctx context.Context, shortID string) error {
	const op = "database.postgres.MappingStore.Delete"

	query := `DELETE FROM url_mappings
		WHERE short_id = $1`

	res, err := s.db.ExecContext(ctx, query, shortID)
	if err != nil {
		return fmt.Errorf("%s: failed to delete url mapping: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrMappingNotFound)
	}

	return nil
}

// DeleteExpired physically removes rows whose ttl has passed the given
// instant. It backs the periodic sweep; reads never depend on it having run.
func (s *MappingStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	const op = "database.postgres.MappingStore.DeleteExpired"

	query := `DELETE FROM url_mappings
		WHERE ttl_timestamp <= $1`

	res, err := s.db.ExecContext(ctx, query, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("%s: failed to delete expired url mappings: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}

	return n, nil
}
