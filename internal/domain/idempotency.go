package domain

import "time"

// Idempotency records a previously processed unsafe request, keyed by
// (user_id, scope, key). Scope names the operation being deduplicated
// (e.g. "orders:create" or "orders:41:responses") so the same client key
// can be reused safely across unrelated endpoints.
type Idempotency struct {
	ID       string `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID   int64  `gorm:"not null;uniqueIndex:ux_user_scope_key,priority:1"`
	Scope    string `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_scope_key,priority:2"`
	Key      string `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_scope_key,priority:3"`
	ResultID int64  `gorm:"not null"`
	Status   int    `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	ExpiresAt time.Time `gorm:"index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
