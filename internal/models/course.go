package models

import "time"

// Course mirrors a course as known by the upstream forum. The primary key is
// assigned by the source system and never regenerated locally.
type Course struct {
	ID         int64      `db:"id" json:"id"`
	Code       string     `db:"code" json:"code"`
	Name       string     `db:"name" json:"name"`
	Year       string     `db:"year" json:"year"`
	LastSynced *time.Time `db:"last_synced" json:"last_synced,omitempty"`
}
