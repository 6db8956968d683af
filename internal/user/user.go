// Package user keeps the registry of people devices can be checked out to.
//
// Users are created and listed; there is no update or delete. Email
// addresses are unique by exact, case-sensitive comparison.
package user

import (
	"errors"
	"time"
)

// DefaultStatus is assigned when a new user has no status.
const DefaultStatus = "active"

// Domain errors for the user package.
var (
	// ErrInvalidUser is returned when a required field is missing.
	ErrInvalidUser = errors.New("user: invalid")

	// ErrEmailExists is returned when the email is already registered.
	ErrEmailExists = errors.New("user: email already exists")

	// ErrStorage wraps repository failures.
	ErrStorage = errors.New("user: storage failure")
)

// User is a registered person.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	JoinDate   time.Time `json:"join_date"`
}

// NewUser carries the caller-supplied fields for Registry.Create.
type NewUser struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Role       string `json:"role"`
	Status     string `json:"status"`
}
