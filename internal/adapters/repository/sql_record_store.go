package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-tracker/internal/core/domain"
)

var _ domain.RecordStore = (*SQLRecordStore)(nil)

type SQLRecordStore struct {
	db *sqlx.DB
}

func NewSQLRecordStore(db *sqlx.DB) *SQLRecordStore {
	return &SQLRecordStore{db: db}
}

type recordRow struct {
	TrackerID string `db:"tracker_id"`
	Day       string `db:"day"`
}

func (r *SQLRecordStore) Create(ctx context.Context, record domain.CompletionRecord) error {
	query := r.db.Rebind(`INSERT INTO completion_records (tracker_id, day) VALUES (?, ?)`)

	_, err := r.db.ExecContext(ctx, query, record.TrackerID, domain.DayKey(record.Date))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateCompletion
		}
		if isForeignKeyViolation(err) {
			return domain.ErrTrackerNotFound
		}
		return domain.NewStorageError("insert record", err)
	}
	return nil
}

func (r *SQLRecordStore) Delete(ctx context.Context, key domain.RecordKey) error {
	query := r.db.Rebind(`DELETE FROM completion_records WHERE tracker_id = ? AND day = ?`)

	res, err := r.db.ExecContext(ctx, query, key.TrackerID, key.Day)
	if err != nil {
		return domain.NewStorageError("delete record", err)
	}

	return expectOneRow(res, domain.ErrRecordNotFound, "delete record")
}

func (r *SQLRecordStore) DeleteByTracker(ctx context.Context, trackerID string) (int, error) {
	query := r.db.Rebind(`DELETE FROM completion_records WHERE tracker_id = ?`)

	res, err := r.db.ExecContext(ctx, query, trackerID)
	if err != nil {
		return 0, domain.NewStorageError("delete tracker records", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.NewStorageError("delete tracker records", err)
	}
	return int(n), nil
}

func (r *SQLRecordStore) Exists(ctx context.Context, key domain.RecordKey) (bool, error) {
	query := r.db.Rebind(`SELECT COUNT(*) FROM completion_records WHERE tracker_id = ? AND day = ?`)

	var n int
	if err := r.db.GetContext(ctx, &n, query, key.TrackerID, key.Day); err != nil {
		return false, domain.NewStorageError("find record", err)
	}
	return n > 0, nil
}

func (r *SQLRecordStore) List(ctx context.Context) ([]domain.CompletionRecord, error) {
	return r.query(ctx, "list records",
		`SELECT tracker_id, day FROM completion_records ORDER BY day ASC, tracker_id ASC`)
}

func (r *SQLRecordStore) ListUpTo(ctx context.Context, day time.Time) ([]domain.CompletionRecord, error) {
	return r.query(ctx, "list records",
		r.db.Rebind(`SELECT tracker_id, day FROM completion_records WHERE day <= ? ORDER BY day ASC, tracker_id ASC`),
		domain.DayKey(day))
}

func (r *SQLRecordStore) CountByTracker(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		TrackerID string `db:"tracker_id"`
		Count     int    `db:"n"`
	}

	err := r.db.SelectContext(ctx, &rows, `SELECT tracker_id, COUNT(*) AS n FROM completion_records GROUP BY tracker_id`)
	if err != nil {
		return nil, domain.NewStorageError("count records", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.TrackerID] = row.Count
	}
	return counts, nil
}

func (r *SQLRecordStore) query(ctx context.Context, op, query string, args ...interface{}) ([]domain.CompletionRecord, error) {
	var rows []recordRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, domain.NewStorageError(op, err)
	}

	records := make([]domain.CompletionRecord, 0, len(rows))
	for _, row := range rows {
		day, err := domain.ParseDay(row.Day)
		if err != nil {
			return nil, domain.NewStorageError(op, fmt.Errorf("bad day %q for %s: %w", row.Day, row.TrackerID, err))
		}
		records = append(records, domain.CompletionRecord{TrackerID: row.TrackerID, Date: day})
	}
	return records, nil
}
