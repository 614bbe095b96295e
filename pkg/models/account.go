package models

import "time"

// Account represents a provisioned cloud storage account. The photo
// counters and the sync timestamp are owned by the background download
// service; the admin side only reads them.
type Account struct {
	ID               int64      `db:"id"`
	Email            string     `db:"email"`             // unique account identity
	TotalPhotos      int        `db:"total_photos"`      // photos known upstream
	DownloadedPhotos int        `db:"downloaded_photos"` // photos fetched so far
	LastSync         *time.Time `db:"last_sync"`         // nil until the first sync
	Position         int        `db:"position"`          // insertion order
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}
