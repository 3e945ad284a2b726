package models

import "time"

// SavedLocation is a delivery location remembered for a user. At most
// one location per user has IsPrimary set.
type SavedLocation struct {
	ID         string
	UserID     string
	Label      string
	Street     string
	City       string
	Latitude   *float64
	Longitude  *float64
	IsPrimary  bool
	LastUsedAt time.Time
	CreatedAt  time.Time
}
