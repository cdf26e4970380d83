package idempotency

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/store"
)

// Record is a stored response for a (key, user, endpoint) triple.
type Record struct {
	ID           uuid.UUID
	Key          string
	UserEmail    string
	Endpoint     string
	RequestHash  string
	ResponseBody json.RawMessage
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

func (r *Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

type Store struct {
	q   store.Querier
	ttl time.Duration
	now func() time.Time
}

func NewStore(q store.Querier, ttl time.Duration) *Store {
	return &Store{q: q, ttl: ttl, now: time.Now}
}

func (s *Store) WithTx(tx *sql.Tx) *Store {
	return &Store{q: tx, ttl: s.ttl, now: s.now}
}

// HashRequest returns the hex SHA-256 of the JSON encoding of req.
func HashRequest(req any) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request for hashing: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Lookup locks and returns the record for the triple, or nil when none exists.
func (s *Store) Lookup(ctx context.Context, key, email, endpoint string) (*Record, error) {
	rec := &Record{}

	err := s.q.QueryRowContext(ctx, `
		SELECT id, key, user_email, endpoint, request_hash, response_body, created_at, expires_at
		FROM idempotency_keys
		WHERE key = $1 AND user_email = $2 AND endpoint = $3
		FOR UPDATE
	`, key, email, endpoint).Scan(&rec.ID, &rec.Key, &rec.UserEmail, &rec.Endpoint,
		&rec.RequestHash, &rec.ResponseBody, &rec.CreatedAt, &rec.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup idempotency key %q: %w", key, err)
	}

	return rec, nil
}

// Replay resolves a key before the protected operation runs. It returns the
// cached response when the same request was already processed, nil when the
// operation should proceed, and ErrIdempotencyMismatch when the key was used
// for a different payload. Expired records are removed and ignored.
func (s *Store) Replay(ctx context.Context, key, email, endpoint, requestHash string) (json.RawMessage, error) {
	rec, err := s.Lookup(ctx, key, email, endpoint)
	if err != nil || rec == nil {
		return nil, err
	}

	if rec.Expired(s.now()) {
		if _, err := s.q.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE id = $1`, rec.ID); err != nil {
			return nil, fmt.Errorf("delete expired idempotency key %q: %w", key, err)
		}
		return nil, nil
	}

	if rec.RequestHash != requestHash {
		return nil, domain.ErrIdempotencyMismatch
	}

	return rec.ResponseBody, nil
}

// Save stores the response of a completed operation.
func (s *Store) Save(ctx context.Context, key, email, endpoint, requestHash string, response any) error {
	body, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("marshal idempotent response: %w", err)
	}

	now := s.now()
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO idempotency_keys (id, key, user_email, endpoint, request_hash, response_body, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.New(), key, email, endpoint, requestHash, string(body), now, now.Add(s.ttl))
	if err != nil {
		if store.IsUniqueViolation(err) {
			return domain.ErrIdempotencyMismatch
		}
		return fmt.Errorf("save idempotency key %q: %w", key, err)
	}

	return nil
}

func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.q.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE expires_at <= $1`, s.now())
	if err != nil {
		return 0, fmt.Errorf("delete expired idempotency keys: %w", err)
	}
	return result.RowsAffected()
}
