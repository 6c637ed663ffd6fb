package model

import (
	"time"

	"gorm.io/datatypes"
)

// Preview is one resolved loadout preview kept for the history endpoint.
// Rows holds the JSON-encoded []ResolvedRow.
type Preview struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	URL       string         `gorm:"size:512;not null" json:"url"`
	Title     string         `gorm:"size:255" json:"title"`
	Author    string         `gorm:"size:128" json:"author"`
	RowCount  int            `json:"row_count"`
	Rows      datatypes.JSON `json:"rows"`
	CreatedAt time.Time      `gorm:"index:idx_preview_created;autoCreateTime" json:"created_at"`
}
