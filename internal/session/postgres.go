package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BurntNail/denim/internal/model"
)

// PostgresStore keeps sessions in the registry database. Expiry is a
// read-time comparison against the clock, so an expired row counts as
// absent until PurgeExpired removes it.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: time.Now}
}

func (s *PostgresStore) Create(ctx context.Context, record model.Session) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, data, expiry_date)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, record.ID, record.Data, record.ExpiryDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, record model.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, data, expiry_date)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data, expiry_date = excluded.expiry_date
	`, record.ID, record.Data, record.ExpiryDate)
	return err
}

func (s *PostgresStore) Load(ctx context.Context, id string) (model.Session, error) {
	var record model.Session
	row := s.pool.QueryRow(ctx, `SELECT id, data, expiry_date FROM sessions WHERE id = $1`, id)
	err := row.Scan(&record.ID, &record.Data, &record.ExpiryDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Session{}, ErrNotFound
	}
	if err != nil {
		return model.Session{}, err
	}
	if !record.ExpiryDate.After(s.now()) {
		return model.Session{}, ErrNotFound
	}
	return record, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expiry_date < $1`, s.now())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
