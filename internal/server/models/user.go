// Package models holds the records persisted by the server.
package models

import "time"

// User is one person known to the directory, unique by Email.
type User struct {
	ID        string
	Email     string
	Name      string
	Picture   string
	GoogleID  string
	CreatedAt time.Time
	LastLogin time.Time
	// IsActive is persisted with a default of true and is not enforced yet.
	IsActive bool
}
