package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sqcb_dashboard/backend/internal/models"
)

// ErrNoRuns is returned by GetLatestRun when no sync has been recorded yet.
var ErrNoRuns = errors.New("db: no runs recorded")

const Schema = `
CREATE TABLE IF NOT EXISTS sqcb_records (
	position    INTEGER     NOT NULL PRIMARY KEY,
	sqcb_id     TEXT        NOT NULL DEFAULT '',
	plant_id    TEXT        NOT NULL DEFAULT '',
	disposition TEXT        NOT NULL DEFAULT '',
	status      TEXT        NOT NULL DEFAULT '',
	modified    TEXT        NOT NULL DEFAULT '',
	payload     JSONB       NOT NULL,
	synced_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS sqcb_records_plant_idx ON sqcb_records (plant_id);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT        PRIMARY KEY,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	status      TEXT        NOT NULL,
	summary     JSONB
);
CREATE INDEX IF NOT EXISTS runs_started_at_idx ON runs (started_at DESC);
`

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ReplaceRecords swaps the stored snapshot for records in one transaction.
// Readers see either the previous snapshot or the new one.
func (s *Store) ReplaceRecords(ctx context.Context, records []models.Record) (int64, error) {
	syncedAt := time.Now().UTC()
	rows := make([][]any, 0, len(records))
	for i, r := range records {
		payload, err := json.Marshal(r)
		if err != nil {
			return 0, fmt.Errorf("db: encode record %q: %w", r.SQCBID, err)
		}
		rows = append(rows, []any{i, r.SQCBID, r.PlantID, r.Disposition, r.Status, r.Modified, json.RawMessage(payload), syncedAt})
	}

	var copyCount int64
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE sqcb_records`); err != nil {
			return err
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"sqcb_records"},
			[]string{"position", "sqcb_id", "plant_id", "disposition", "status", "modified", "payload", "synced_at"},
			pgx.CopyFromRows(rows))
		copyCount = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("db: replace records: %w", err)
	}
	return copyCount, nil
}

// ListRecords returns the stored snapshot in upstream order.
func (s *Store) ListRecords(ctx context.Context) ([]models.Record, error) {
	rows, err := s.Pool.Query(ctx, `SELECT payload FROM sqcb_records ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Record{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var r models.Record
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, fmt.Errorf("db: decode record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) CreateRun(ctx context.Context, status string) (string, error) {
	id := uuid.NewString()
	_, err := s.Pool.Exec(ctx, `INSERT INTO runs (id, status, started_at) VALUES ($1, $2, NOW())`, id, status)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) FinishRun(ctx context.Context, runID string, status string, summary []byte) error {
	_, err := s.Pool.Exec(ctx, `UPDATE runs SET status = $1, summary = $2, finished_at = NOW() WHERE id = $3`, status, summary, runID)
	return err
}

func (s *Store) GetLatestRun(ctx context.Context) (models.Run, error) {
	row := s.Pool.QueryRow(ctx, `SELECT id, started_at, finished_at, status, summary FROM runs ORDER BY started_at DESC LIMIT 1`)
	var (
		run     models.Run
		summary []byte
	)
	if err := row.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Status, &summary); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Run{}, ErrNoRuns
		}
		return models.Run{}, err
	}
	if len(summary) > 0 {
		run.Summary = json.RawMessage(summary)
	}
	return run, nil
}
