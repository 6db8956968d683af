package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/nerrad567/device-inventory/internal/stamp"
)

// SQLiteRepository stores records in the history table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a history repository over an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Append inserts rec. The autoincrement seq column records append order.
func (r *SQLiteRepository) Append(ctx context.Context, rec Record) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO history (id, device_id, user, action, timestamp) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.DeviceID, rec.User, string(rec.Action), stamp.Format(rec.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("inserting history record: %w", err)
	}
	return nil
}

// ListByDevice returns the device's records in append order.
func (r *SQLiteRepository) ListByDevice(ctx context.Context, deviceID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, device_id, user, action, timestamp FROM history WHERE device_id = ? ORDER BY seq`,
		deviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// List returns a filtered page, newest first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	var conditions []string
	var args []any

	if filter.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, string(filter.Action))
	}
	if filter.User != "" {
		conditions = append(conditions, "user = ?")
		args = append(args, filter.User)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM history " + where //nolint:gosec // WHERE built from parameterised conditions
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting history: %w", err)
	}

	query := "SELECT id, device_id, user, action, timestamp FROM history " + where + //nolint:gosec // as above
		" ORDER BY timestamp DESC, seq DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}

	return &ListResult{
		Records: records,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var rec Record
		var action, ts string
		if err := rows.Scan(&rec.ID, &rec.DeviceID, &rec.User, &action, &ts); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		parsed, err := stamp.Parse(ts)
		if err != nil {
			return nil, fmt.Errorf("history %s: %w", rec.ID, err)
		}
		rec.Action = Action(action)
		rec.Timestamp = parsed
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return out, nil
}
