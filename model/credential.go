package model

import "time"

// ProxyCredential stores the client id/secret issued by the parse proxy's
// register endpoint. A single row is kept per proxy base URL.
type ProxyCredential struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BaseURL   string    `gorm:"uniqueIndex;size:255;not null" json:"base_url"`
	ClientID  string    `gorm:"size:64;not null" json:"client_id"`
	Secret    string    `gorm:"size:128;not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
