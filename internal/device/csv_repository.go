package device

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/nerrad567/device-inventory/internal/infrastructure/csvfile"
	"github.com/nerrad567/device-inventory/internal/stamp"
)

// Columns is the devices.csv header.
var Columns = []string{
	"id", "device_type", "connectivity", "serial_number", "os_version",
	"assigned_user", "status", "usage_count", "check_out_date",
	"created_at", "last_updated",
}

// CSVRepository implements Repository over a CSV file. Each call loads or
// rewrites the whole file.
type CSVRepository struct {
	table *csvfile.Table
}

// NewCSVRepository opens (or initialises) the devices file at path.
func NewCSVRepository(path string) (*CSVRepository, error) {
	t, err := csvfile.Open(path, Columns)
	if err != nil {
		return nil, fmt.Errorf("opening devices file: %w", err)
	}
	return &CSVRepository{table: t}, nil
}

// GetByID scans the file for id.
func (r *CSVRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	devices, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range devices {
		if devices[i].ID == id {
			return &devices[i], nil
		}
	}
	return nil, ErrDeviceNotFound
}

// List returns all devices in file order.
func (r *CSVRepository) List(_ context.Context) ([]Device, error) {
	rows, err := r.table.ReadAll()
	if err != nil {
		return nil, err
	}

	devices := make([]Device, 0, len(rows))
	for i, row := range rows {
		d, err := fromRow(row)
		if err != nil {
			return nil, fmt.Errorf("devices row %d: %w", i+1, err)
		}
		devices = append(devices, *d)
	}
	return devices, nil
}

// Create appends d.
func (r *CSVRepository) Create(_ context.Context, d *Device) error {
	return r.table.Append(toRow(d))
}

// Update rewrites the row whose id matches d.ID.
func (r *CSVRepository) Update(_ context.Context, d *Device) error {
	return r.table.Update(func(rows []csvfile.Row) ([]csvfile.Row, error) {
		for i, row := range rows {
			if row["id"] == d.ID {
				rows[i] = toRow(d)
				return rows, nil
			}
		}
		return nil, ErrDeviceNotFound
	})
}

func toRow(d *Device) csvfile.Row {
	return csvfile.Row{
		"id":             d.ID,
		"device_type":    d.DeviceType,
		"connectivity":   d.Connectivity,
		"serial_number":  d.SerialNumber,
		"os_version":     d.OSVersion,
		"assigned_user":  d.AssignedUser,
		"status":         string(d.Status),
		"usage_count":    strconv.Itoa(d.UsageCount),
		"check_out_date": stamp.FormatPtr(d.CheckOutDate),
		"created_at":     stamp.Format(d.CreatedAt),
		"last_updated":   stamp.Format(d.LastUpdated),
	}
}

func fromRow(row csvfile.Row) (*Device, error) {
	d := &Device{
		ID:           row["id"],
		DeviceType:   row["device_type"],
		Connectivity: row["connectivity"],
		SerialNumber: row["serial_number"],
		OSVersion:    row["os_version"],
		AssignedUser: row["assigned_user"],
		Status:       Status(row["status"]),
	}

	var err error
	if d.UsageCount, err = parseCount(row["usage_count"]); err != nil {
		return nil, err
	}
	if d.CheckOutDate, err = stamp.ParsePtr(row["check_out_date"]); err != nil {
		return nil, err
	}
	if d.CreatedAt, err = stamp.Parse(row["created_at"]); err != nil {
		return nil, err
	}
	if d.LastUpdated, err = stamp.Parse(row["last_updated"]); err != nil {
		return nil, err
	}
	return d, nil
}

// parseCount reads usage_count. Hand-edited or spreadsheet-exported files
// may hold floats such as "3.0".
func parseCount(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid usage_count %q", s)
	}
	return int(f), nil
}
