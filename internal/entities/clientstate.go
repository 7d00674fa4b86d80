package entities

import "time"

// OverrideRecord persists a client-synthesized or client-edited entity for
// one (entity type, slug) pair. It is read on every list/get for that type
// until the server confirms the slug, and removed only by an explicit
// delete or a store clear. Deleted marks a tombstone: the slug was deleted
// locally and must never be resurrected by reconciliation.
type OverrideRecord struct {
	ID         uint   `gorm:"primaryKey"`
	EntityType string `gorm:"size:50;not null;uniqueIndex:idx_override_type_slug"`
	Slug       string `gorm:"size:255;not null;uniqueIndex:idx_override_type_slug"`
	Data       string `gorm:"type:text"`
	Deleted    bool   `gorm:"default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (OverrideRecord) TableName() string {
	return "override_records"
}

// CacheEntry is one memoized lookup result. A read after
// Timestamp+TTL is a miss and triggers recomputation.
type CacheEntry struct {
	ID        uint   `gorm:"primaryKey"`
	Key       string `gorm:"size:255;uniqueIndex"`
	Payload   string `gorm:"type:text"`
	Timestamp time.Time
}

func (CacheEntry) TableName() string {
	return "cache_entries"
}

// Token kinds stored in the client state database.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// StoredToken holds one auth token, encrypted at rest with AES-256-GCM.
type StoredToken struct {
	ID        uint   `gorm:"primaryKey"`
	Kind      string `gorm:"size:20;uniqueIndex"`
	Value     string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (StoredToken) TableName() string {
	return "stored_tokens"
}
