package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-tracker/internal/core/domain"
)

var _ domain.TrackerStore = (*SQLTrackerStore)(nil)

// SQLTrackerStore persists trackers through sqlx. Queries are written with
// '?' placeholders and rebound for the driver in use.
type SQLTrackerStore struct {
	db *sqlx.DB
}

func NewSQLTrackerStore(db *sqlx.DB) *SQLTrackerStore {
	return &SQLTrackerStore{db: db}
}

type trackerRow struct {
	ID        string         `db:"id"`
	Label     string         `db:"label"`
	Emoji     string         `db:"emoji"`
	Color     string         `db:"color"`
	Category  string         `db:"category"`
	Schedule  sql.NullString `db:"schedule"`
	IsPinned  bool           `db:"is_pinned"`
	Position  int64          `db:"position"`
	CreatedAt string         `db:"created_at"`
	UpdatedAt string         `db:"updated_at"`
}

const trackerColumns = `id, label, emoji, color, category, schedule, is_pinned, position, created_at, updated_at`

func (row trackerRow) toDomain() (*domain.Tracker, error) {
	t := &domain.Tracker{
		ID:       row.ID,
		Label:    row.Label,
		Emoji:    row.Emoji,
		Color:    row.Color,
		Category: domain.Category{Label: row.Category},
		IsPinned: row.IsPinned,
		Position: row.Position,
	}

	if row.Schedule.Valid {
		t.Schedule = &domain.Schedule{}
		if err := json.Unmarshal([]byte(row.Schedule.String), t.Schedule); err != nil {
			return nil, fmt.Errorf("failed to unmarshal schedule of %s: %w", row.ID, err)
		}
	}

	var err error
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, row.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at of %s: %w", row.ID, err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, row.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at of %s: %w", row.ID, err)
	}

	return t, nil
}

func encodeSchedule(s *domain.Schedule) (sql.NullString, error) {
	if s == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal schedule: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (r *SQLTrackerStore) Create(ctx context.Context, t *domain.Tracker) error {
	schedule, err := encodeSchedule(t.Schedule)
	if err != nil {
		return err
	}

	query := r.db.Rebind(`
		INSERT INTO trackers (` + trackerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM trackers),
			?, ?)
		RETURNING position`)

	var position int64
	err = r.db.QueryRowxContext(ctx, query,
		t.ID, t.Label, t.Emoji, t.Color, t.Category.Label, schedule, t.IsPinned,
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	).Scan(&position)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateID
		}
		return domain.NewStorageError("insert tracker", err)
	}

	t.Position = position
	return nil
}

func (r *SQLTrackerStore) GetByID(ctx context.Context, id string) (*domain.Tracker, error) {
	var row trackerRow
	query := r.db.Rebind(`SELECT ` + trackerColumns + ` FROM trackers WHERE id = ?`)

	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTrackerNotFound
		}
		return nil, domain.NewStorageError("get tracker", err)
	}

	t, err := row.toDomain()
	if err != nil {
		return nil, domain.NewStorageError("decode tracker", err)
	}
	return t, nil
}

func (r *SQLTrackerStore) List(ctx context.Context) ([]*domain.Tracker, error) {
	var rows []trackerRow
	query := `SELECT ` + trackerColumns + ` FROM trackers ORDER BY position ASC`

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, domain.NewStorageError("list trackers", err)
	}

	trackers := make([]*domain.Tracker, 0, len(rows))
	for _, row := range rows {
		t, err := row.toDomain()
		if err != nil {
			return nil, domain.NewStorageError("decode tracker", err)
		}
		trackers = append(trackers, t)
	}
	return trackers, nil
}

func (r *SQLTrackerStore) Update(ctx context.Context, t *domain.Tracker) error {
	schedule, err := encodeSchedule(t.Schedule)
	if err != nil {
		return err
	}

	query := r.db.Rebind(`
		UPDATE trackers SET
			label = ?, emoji = ?, color = ?, category = ?, schedule = ?,
			is_pinned = ?, updated_at = ?
		WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query,
		t.Label, t.Emoji, t.Color, t.Category.Label, schedule,
		t.IsPinned, formatTime(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return domain.NewStorageError("update tracker", err)
	}

	return expectOneRow(res, domain.ErrTrackerNotFound, "update tracker")
}

func (r *SQLTrackerStore) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM trackers WHERE id = ?`), id)
	if err != nil {
		return domain.NewStorageError("delete tracker", err)
	}

	return expectOneRow(res, domain.ErrTrackerNotFound, "delete tracker")
}

func (r *SQLTrackerStore) EnsureCategory(ctx context.Context, category domain.Category) error {
	query := r.db.Rebind(`INSERT INTO categories (label) VALUES (?) ON CONFLICT (label) DO NOTHING`)

	if _, err := r.db.ExecContext(ctx, query, category.Label); err != nil {
		return domain.NewStorageError("ensure category", err)
	}
	return nil
}

func (r *SQLTrackerStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories := []domain.Category{}

	if err := r.db.SelectContext(ctx, &categories, `SELECT label FROM categories ORDER BY label ASC`); err != nil {
		return nil, domain.NewStorageError("list categories", err)
	}
	return categories, nil
}

func expectOneRow(res sql.Result, notFound error, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return domain.NewStorageError(op, err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
