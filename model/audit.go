package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records preview and apply attempts.
type AuditLog struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID    string         `gorm:"index:idx_audit_trace;size:36;not null" json:"trace_id"`
	Action     string         `gorm:"size:32;not null" json:"action"` // preview | apply
	URL        string         `gorm:"size:512" json:"url"`
	RowCount   int            `json:"row_count"`
	StatusCode int            `json:"status_code"`
	Detail     datatypes.JSON `json:"detail"`
	Error      string         `gorm:"type:text" json:"error"`
	DurationMs int            `json:"duration_ms"`
	CreatedAt  time.Time      `gorm:"index:idx_audit_created;autoCreateTime:milli" json:"created_at"`
}
