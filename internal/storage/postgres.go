package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yourname/sleepcoach/internal"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS sleep_entries (
	id UUID PRIMARY KEY,
	date DATE NOT NULL,
	bedtime TIMESTAMPTZ NOT NULL,
	waketime TIMESTAMPTZ NOT NULL,
	duration_minutes INT NOT NULL,
	rem_minutes INT NOT NULL,
	deep_minutes INT NOT NULL,
	core_minutes INT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(ctx context.Context, dsn string, logger internal.Logger) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	s := &PostgresStorage{pool: pool, logger: logger}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (p *PostgresStorage) ensureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, createTableSQL); err != nil {
		p.logger.Errorf("failed to ensure sleep_entries table: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) SaveSleepEntry(ctx context.Context, entry *internal.SleepEntry) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO sleep_entries (id, date, bedtime, waketime, duration_minutes, rem_minutes, deep_minutes, core_minutes, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.Date, entry.Bedtime, entry.Waketime, entry.DurationMinutes, entry.RemMinutes, entry.DeepMinutes, entry.CoreMinutes, entry.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert sleep entry: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) ListSleepEntries(ctx context.Context) ([]internal.SleepEntry, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, date::text, bedtime, waketime, duration_minutes, rem_minutes, deep_minutes, core_minutes, created_at FROM sleep_entries ORDER BY created_at DESC`)
	if err != nil {
		p.logger.Errorf("failed to query sleep entries: %v", err)
		return nil, err
	}
	defer rows.Close()

	var entries []internal.SleepEntry
	for rows.Next() {
		var e internal.SleepEntry
		err := rows.Scan(&e.ID, &e.Date, &e.Bedtime, &e.Waketime, &e.DurationMinutes, &e.RemMinutes, &e.DeepMinutes, &e.CoreMinutes, &e.CreatedAt)
		if err != nil {
			p.logger.Errorf("failed to scan sleep entry: %v", err)
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (p *PostgresStorage) Close() { p.pool.Close() }

var _ SleepEntryRepository = (*PostgresStorage)(nil)
