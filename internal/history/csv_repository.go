package history

import (
	"context"
	"fmt"

	"github.com/nerrad567/device-inventory/internal/infrastructure/csvfile"
	"github.com/nerrad567/device-inventory/internal/stamp"
)

// Columns is the history.csv header.
var Columns = []string{"id", "device_id", "user", "action", "timestamp"}

// CSVRepository stores records in a CSV file.
type CSVRepository struct {
	table *csvfile.Table
}

// NewCSVRepository opens (or initialises) the history file at path.
func NewCSVRepository(path string) (*CSVRepository, error) {
	t, err := csvfile.Open(path, Columns)
	if err != nil {
		return nil, fmt.Errorf("opening history file: %w", err)
	}
	return &CSVRepository{table: t}, nil
}

// Append adds rec to the end of the file.
func (r *CSVRepository) Append(_ context.Context, rec Record) error {
	return r.table.Append(csvfile.Row{
		"id":        rec.ID,
		"device_id": rec.DeviceID,
		"user":      rec.User,
		"action":    string(rec.Action),
		"timestamp": stamp.Format(rec.Timestamp),
	})
}

// ListByDevice returns the device's records in file order.
func (r *CSVRepository) ListByDevice(_ context.Context, deviceID string) ([]Record, error) {
	all, err := r.all()
	if err != nil {
		return nil, err
	}

	var out []Record
	for _, rec := range all {
		if rec.DeviceID == deviceID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// List returns a filtered page, newest first.
func (r *CSVRepository) List(_ context.Context, filter Filter) (*ListResult, error) {
	all, err := r.all()
	if err != nil {
		return nil, err
	}
	return page(all, filter), nil
}

func (r *CSVRepository) all() ([]Record, error) {
	rows, err := r.table.ReadAll()
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(rows))
	for i, row := range rows {
		ts, err := stamp.Parse(row["timestamp"])
		if err != nil {
			return nil, fmt.Errorf("history row %d: %w", i+1, err)
		}
		out = append(out, Record{
			ID:        row["id"],
			DeviceID:  row["device_id"],
			User:      row["user"],
			Action:    Action(row["action"]),
			Timestamp: ts,
		})
	}
	return out, nil
}
