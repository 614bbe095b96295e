package models

import "time"

// AccountConfig holds the per-account download settings. Password is
// write-only: it is sent to the backend on save but never stored locally
// and never pre-filled on load.
type AccountConfig struct {
	Email         string    `db:"email" json:"account" validate:"required"`
	Password      string    `db:"-" json:"password"`
	FolderFormat  string    `db:"folder_format" json:"folderFormat" validate:"required"`
	RemoveDeleted bool      `db:"remove_deleted" json:"removeDeleted"`
	Concurrency   int       `db:"concurrency" json:"concurrency" validate:"min=1"`
	UpdatedAt     time.Time `db:"updated_at" json:"-"`
}
