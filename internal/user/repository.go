package user

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/nerrad567/device-inventory/internal/infrastructure/csvfile"
	"github.com/nerrad567/device-inventory/internal/stamp"
)

// Repository persists users.
type Repository interface {
	// List returns all users in insertion order.
	List(ctx context.Context) ([]User, error)

	// Create stores u. Implementations backed by a unique index return
	// ErrEmailExists on a duplicate email.
	Create(ctx context.Context, u User) error
}

// Columns is the users.csv header.
var Columns = []string{"id", "name", "email", "department", "role", "status", "join_date"}

// CSVRepository stores users in a CSV file.
type CSVRepository struct {
	table *csvfile.Table
}

// NewCSVRepository opens (or initialises) the users file at path.
func NewCSVRepository(path string) (*CSVRepository, error) {
	t, err := csvfile.Open(path, Columns)
	if err != nil {
		return nil, fmt.Errorf("opening users file: %w", err)
	}
	return &CSVRepository{table: t}, nil
}

// List returns all users in file order.
func (r *CSVRepository) List(_ context.Context) ([]User, error) {
	rows, err := r.table.ReadAll()
	if err != nil {
		return nil, err
	}

	users := make([]User, 0, len(rows))
	for i, row := range rows {
		joined, err := stamp.Parse(row["join_date"])
		if err != nil {
			return nil, fmt.Errorf("users row %d: %w", i+1, err)
		}
		users = append(users, User{
			ID:         row["id"],
			Name:       row["name"],
			Email:      row["email"],
			Department: row["department"],
			Role:       row["role"],
			Status:     row["status"],
			JoinDate:   joined,
		})
	}
	return users, nil
}

// Create appends u.
func (r *CSVRepository) Create(_ context.Context, u User) error {
	return r.table.Append(csvfile.Row{
		"id":         u.ID,
		"name":       u.Name,
		"email":      u.Email,
		"department": u.Department,
		"role":       u.Role,
		"status":     u.Status,
		"join_date":  stamp.Format(u.JoinDate),
	})
}

// SQLiteRepository stores users in the users table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a user repository over an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// List returns all users in insertion order.
func (r *SQLiteRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, department, role, status, join_date FROM users ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var joined string
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Department, &u.Role, &u.Status, &joined); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		if u.JoinDate, err = stamp.Parse(joined); err != nil {
			return nil, fmt.Errorf("user %s: %w", u.ID, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

// Create inserts u.
func (r *SQLiteRepository) Create(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, department, role, status, join_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.Department, u.Role, u.Status, stamp.Format(u.JoinDate),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return ErrEmailExists
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}
