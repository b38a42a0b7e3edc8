// Package models defines the persisted records of the registration portal.
package models

import "time"

// Identity is an account record. UserName and Email are globally unique;
// the database enforces both constraints atomically at insert/update time.
type Identity struct {
	ID           string
	Name         string
	UserName     string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Profile holds the one-time registration details linked to exactly one
// Identity. Owner is unique, so an Identity can never have two profiles,
// and the row is dropped together with its owner (ON DELETE CASCADE).
type Profile struct {
	ID        string
	Owner     string
	SID       int64
	DOB       time.Time
	Gender    string
	Year      string
	Branch    string
	College   string
	Address   string
	Contact   string
	CreatedAt time.Time
}
