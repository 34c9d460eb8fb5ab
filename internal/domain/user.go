package domain

import "time"

// DefaultMonthlyLimit is applied to newly registered users.
const DefaultMonthlyLimit = 1000

// User represents a registered account. The API key is stored verbatim and
// resolved by exact match; rotating it replaces the value in place, so the
// previous key stops resolving the moment the update commits.
type User struct {
	ID             string
	Email          string
	HashedPassword string
	FullName       string
	APIKey         string
	MonthlyLimit   int
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
