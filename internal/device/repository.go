package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/device-inventory/internal/stamp"
)

// Repository defines the interface for device persistence operations.
// CSV and SQLite implementations are interchangeable behind it.
type Repository interface {
	// GetByID retrieves a device by its unique identifier.
	// Returns ErrDeviceNotFound if the device does not exist.
	GetByID(ctx context.Context, id string) (*Device, error)

	// List retrieves all devices in insertion order.
	List(ctx context.Context) ([]Device, error)

	// Create inserts a new device. Implementations with a unique index
	// return ErrSerialExists on a duplicate serial number.
	Create(ctx context.Context, device *Device) error

	// Update replaces an existing device.
	// Returns ErrDeviceNotFound if the device does not exist.
	Update(ctx context.Context, device *Device) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open, migrated SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectDevice = `
	SELECT id, device_type, connectivity, serial_number, os_version,
		assigned_user, status, usage_count, check_out_date, created_at, last_updated
	FROM devices`

// GetByID retrieves a device by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	row := r.db.QueryRowContext(ctx, selectDevice+" WHERE id = ?", id)
	d, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device: %w", err)
	}
	return d, nil
}

// List retrieves all devices in insertion order.
func (r *SQLiteRepository) List(ctx context.Context) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, selectDevice+" ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return devices, nil
}

// Create inserts a new device.
func (r *SQLiteRepository) Create(ctx context.Context, d *Device) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO devices (id, device_type, connectivity, serial_number, os_version,
			assigned_user, status, usage_count, check_out_date, created_at, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.DeviceType, d.Connectivity, d.SerialNumber, d.OSVersion,
		nullableString(d.AssignedUser), string(d.Status), d.UsageCount,
		nullableString(stamp.FormatPtr(d.CheckOutDate)),
		stamp.Format(d.CreatedAt), stamp.Format(d.LastUpdated),
	)
	if err != nil {
		if isSerialConflict(err) {
			return ErrSerialExists
		}
		return fmt.Errorf("inserting device: %w", err)
	}
	return nil
}

// Update replaces every mutable column of an existing device.
func (r *SQLiteRepository) Update(ctx context.Context, d *Device) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE devices SET
			device_type = ?, connectivity = ?, serial_number = ?, os_version = ?,
			assigned_user = ?, status = ?, usage_count = ?, check_out_date = ?,
			last_updated = ?
		WHERE id = ?`,
		d.DeviceType, d.Connectivity, d.SerialNumber, d.OSVersion,
		nullableString(d.AssignedUser), string(d.Status), d.UsageCount,
		nullableString(stamp.FormatPtr(d.CheckOutDate)),
		stamp.Format(d.LastUpdated),
		d.ID,
	)
	if err != nil {
		if isSerialConflict(err) {
			return ErrSerialExists
		}
		return fmt.Errorf("updating device: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(s scanner) (*Device, error) {
	var d Device
	var assigned, checkOut sql.NullString
	var status, created, updated string

	err := s.Scan(&d.ID, &d.DeviceType, &d.Connectivity, &d.SerialNumber, &d.OSVersion,
		&assigned, &status, &d.UsageCount, &checkOut, &created, &updated)
	if err != nil {
		return nil, err
	}

	d.AssignedUser = assigned.String
	d.Status = Status(status)
	if d.CheckOutDate, err = stamp.ParsePtr(checkOut.String); err != nil {
		return nil, err
	}
	if d.CreatedAt, err = stamp.Parse(created); err != nil {
		return nil, err
	}
	if d.LastUpdated, err = stamp.Parse(updated); err != nil {
		return nil, err
	}
	return &d, nil
}

// nullableString returns nil for empty strings so the column stores NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isSerialConflict(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed: devices.serial_number")
}
