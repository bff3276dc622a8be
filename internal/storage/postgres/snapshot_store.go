package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"equity-movers-lab/internal/domain"
	"equity-movers-lab/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
// abs_change_1d and direction are stored generated columns: they are never
// inserted, only read back.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// ReplaceForDate atomically deletes any existing rows for asOf and inserts
// the given set in a single transaction. Repeated calls for the same date
// converge on the same final row set.
func (s *SnapshotStore) ReplaceForDate(ctx context.Context, asOf time.Time, rows []*domain.MoverSnapshotRow) (int, error) {
	day := domain.Day(asOf)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM mover_snapshots WHERE as_of = $1`, day); err != nil {
		return 0, fmt.Errorf("delete snapshot rows: %w", err)
	}

	query := `
		INSERT INTO mover_snapshots (
			as_of, symbol, name, pct_change_1d, close_prev, close_now,
			volume_now, dollar_volume_now, rank_overall
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, r := range rows {
		if r == nil || r.Symbol == "" {
			return 0, storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			day,
			r.Symbol,
			r.Name,
			r.PctChange1D,
			r.ClosePrev,
			r.CloseNow,
			r.VolumeNow,
			r.DollarVolumeNow,
			r.RankOverall,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return 0, fmt.Errorf("duplicate symbol %s in snapshot set: %w", r.Symbol, storage.ErrInvalidInput)
			}
			return 0, fmt.Errorf("insert snapshot row %s: %w", r.Symbol, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	return len(rows), nil
}

// GetByDate retrieves the snapshot for asOf.
func (s *SnapshotStore) GetByDate(ctx context.Context, asOf time.Time) ([]*domain.MoverSnapshotRow, error) {
	query := `
		SELECT as_of, symbol, name, pct_change_1d, close_prev, close_now,
		       volume_now, dollar_volume_now, abs_change_1d, direction, rank_overall
		FROM mover_snapshots
		WHERE as_of = $1
		ORDER BY abs_change_1d DESC, symbol ASC
	`

	rows, err := s.pool.Query(ctx, query, domain.Day(asOf))
	if err != nil {
		return nil, fmt.Errorf("get snapshot by date: %w", err)
	}
	defer rows.Close()

	return scanSnapshotRows(rows)
}

// GetLatest retrieves the snapshot for the most recent as_of.
func (s *SnapshotStore) GetLatest(ctx context.Context) ([]*domain.MoverSnapshotRow, error) {
	query := `
		SELECT as_of, symbol, name, pct_change_1d, close_prev, close_now,
		       volume_now, dollar_volume_now, abs_change_1d, direction, rank_overall
		FROM mover_snapshots
		WHERE as_of = (SELECT max(as_of) FROM mover_snapshots)
		ORDER BY abs_change_1d DESC, symbol ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	defer rows.Close()

	return scanSnapshotRows(rows)
}

// LatestAsOf returns the most recent as_of date with a stored snapshot.
func (s *SnapshotStore) LatestAsOf(ctx context.Context) (time.Time, bool, error) {
	var max *time.Time
	err := s.pool.QueryRow(ctx, `SELECT max(as_of) FROM mover_snapshots`).Scan(&max)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("latest snapshot as_of: %w", err)
	}
	if max == nil {
		return time.Time{}, false, nil
	}
	return domain.Day(*max), true, nil
}

// scanSnapshotRows scans multiple rows into a slice of MoverSnapshotRow.
func scanSnapshotRows(rows pgx.Rows) ([]*domain.MoverSnapshotRow, error) {
	var result []*domain.MoverSnapshotRow

	for rows.Next() {
		var r domain.MoverSnapshotRow
		var direction string

		err := rows.Scan(
			&r.AsOf,
			&r.Symbol,
			&r.Name,
			&r.PctChange1D,
			&r.ClosePrev,
			&r.CloseNow,
			&r.VolumeNow,
			&r.DollarVolumeNow,
			&r.AbsChange1D,
			&direction,
			&r.RankOverall,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		r.AsOf = domain.Day(r.AsOf)
		r.Direction = domain.Direction(direction)
		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return result, nil
}
