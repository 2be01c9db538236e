// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — plain values with no
// behaviour attached beyond small derived helpers.
package model

import "time"

// User represents a registered account.
//
// Email is stored normalized (trimmed, lower-cased) and is unique — the
// database enforces that with a unique index, so two concurrent
// registrations of the same address cannot both succeed.
//
// WHY json:"-" ON PasswordHash?
// The hash must never leave the server. Tagging it with "-" means
// encoding/json skips the field entirely, so even a careless
// writeJSON(w, user) cannot leak it.
type User struct {
	ID           int64     `json:"id"        db:"id"`
	Email        string    `json:"email"     db:"email"`         // normalized: trimmed + lower-case
	PasswordHash string    `json:"-"         db:"password_hash"` // bcrypt hash, never serialized
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
