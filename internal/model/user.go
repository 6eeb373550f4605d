package model

import "time"

// User is a registered account. Emails are unique case-insensitively;
// the storage layer enforces this at the column level.
type User struct {
	CreatedAt    time.Time
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	ID           int64
}
