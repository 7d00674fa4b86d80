// Package overrides implements the local override store: a durable
// per-(entity type, slug) record of client-synthesized or client-edited
// entities, consulted whenever the server is absent or unconfirmed.
//
// Store operations never fail toward the caller. A storage or parse
// problem is logged and treated as "no override present".
package overrides

import (
	"encoding/json"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/viixen/nix-client/internal/database"
	"github.com/viixen/nix-client/internal/entities"
)

// Record is one override as seen by the reconciliation layer.
type Record struct {
	Slug      string
	Data      json.RawMessage
	UpdatedAt time.Time
}

type Store struct {
	db *database.Database
}

func New(db *database.Database) *Store {
	return &Store{db: db}
}

// Put upserts the override for (entityType, slug), stamping it with the
// current time. Writing to a tombstoned slug revives it; that only
// happens through an explicit create or update.
func (s *Store) Put(entityType, slug string, entity any) {
	data, err := json.Marshal(entity)
	if err != nil {
		log.Printf("Override store: failed to encode %s/%s: %v", entityType, slug, err)
		return
	}

	var existing entities.OverrideRecord
	result := s.db.DB.Where("entity_type = ? AND slug = ?", entityType, slug).First(&existing)
	if result.Error == gorm.ErrRecordNotFound {
		record := entities.OverrideRecord{EntityType: entityType, Slug: slug, Data: string(data)}
		if err := s.db.DB.Create(&record).Error; err != nil {
			log.Printf("Override store: failed to create %s/%s: %v", entityType, slug, err)
		}
		return
	}
	if result.Error != nil {
		log.Printf("Override store: failed to read %s/%s: %v", entityType, slug, result.Error)
		return
	}

	existing.Data = string(data)
	existing.Deleted = false
	if err := s.db.DB.Save(&existing).Error; err != nil {
		log.Printf("Override store: failed to update %s/%s: %v", entityType, slug, err)
	}
}

// Get decodes the override for (entityType, slug) into out. Returns false
// when absent, tombstoned, or unreadable.
func (s *Store) Get(entityType, slug string, out any) bool {
	var record entities.OverrideRecord
	err := s.db.DB.Where("entity_type = ? AND slug = ? AND deleted = ?", entityType, slug, false).
		First(&record).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("Override store: failed to read %s/%s: %v", entityType, slug, err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(record.Data), out); err != nil {
		log.Printf("Override store: failed to decode %s/%s: %v", entityType, slug, err)
		return false
	}
	return true
}

// List returns all live overrides of entityType in insertion order.
func (s *Store) List(entityType string) []Record {
	var rows []entities.OverrideRecord
	err := s.db.DB.Where("entity_type = ? AND deleted = ?", entityType, false).
		Order("id asc").Find(&rows).Error
	if err != nil {
		log.Printf("Override store: failed to list %s: %v", entityType, err)
		return nil
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record{
			Slug:      row.Slug,
			Data:      json.RawMessage(row.Data),
			UpdatedAt: row.UpdatedAt,
		})
	}
	return records
}

// Slugs returns the live override slugs for entityType, used by the
// background sync to find pending local edits.
func (s *Store) Slugs(entityType string) []string {
	records := s.List(entityType)
	slugs := make([]string, 0, len(records))
	for _, record := range records {
		slugs = append(slugs, record.Slug)
	}
	return slugs
}

// Clear removes the override record entirely. Used after a confirmed
// server write and by cache invalidation of the matching resource.
func (s *Store) Clear(entityType, slug string) {
	err := s.db.DB.Where("entity_type = ? AND slug = ?", entityType, slug).
		Delete(&entities.OverrideRecord{}).Error
	if err != nil {
		log.Printf("Override store: failed to clear %s/%s: %v", entityType, slug, err)
	}
}

// MarkDeleted tombstones the slug. A tombstoned slug is excluded from
// merges and lookups until an explicit write creates it again.
func (s *Store) MarkDeleted(entityType, slug string) {
	var existing entities.OverrideRecord
	result := s.db.DB.Where("entity_type = ? AND slug = ?", entityType, slug).First(&existing)
	if result.Error == gorm.ErrRecordNotFound {
		record := entities.OverrideRecord{EntityType: entityType, Slug: slug, Deleted: true}
		if err := s.db.DB.Create(&record).Error; err != nil {
			log.Printf("Override store: failed to tombstone %s/%s: %v", entityType, slug, err)
		}
		return
	}
	if result.Error != nil {
		log.Printf("Override store: failed to read %s/%s: %v", entityType, slug, result.Error)
		return
	}

	existing.Deleted = true
	existing.Data = ""
	if err := s.db.DB.Save(&existing).Error; err != nil {
		log.Printf("Override store: failed to tombstone %s/%s: %v", entityType, slug, err)
	}
}

// IsDeleted reports whether slug carries a tombstone.
func (s *Store) IsDeleted(entityType, slug string) bool {
	var count int64
	err := s.db.DB.Model(&entities.OverrideRecord{}).
		Where("entity_type = ? AND slug = ? AND deleted = ?", entityType, slug, true).
		Count(&count).Error
	if err != nil {
		log.Printf("Override store: failed to check tombstone %s/%s: %v", entityType, slug, err)
		return false
	}
	return count > 0
}

// DeletedSlugs returns the tombstoned slugs for entityType.
func (s *Store) DeletedSlugs(entityType string) map[string]bool {
	var rows []entities.OverrideRecord
	err := s.db.DB.Where("entity_type = ? AND deleted = ?", entityType, true).Find(&rows).Error
	if err != nil {
		log.Printf("Override store: failed to list tombstones for %s: %v", entityType, err)
		return nil
	}
	deleted := make(map[string]bool, len(rows))
	for _, row := range rows {
		deleted[row.Slug] = true
	}
	return deleted
}

// MergeList reconciles a server collection with override records. Server
// items come first in server order and win on slug conflict; overrides
// whose slug the server did not return are appended in insertion order.
// Tombstoned slugs never reappear.
func MergeList[T any](serverList []T, records []Record, deleted map[string]bool, slugOf func(T) string) []T {
	merged := make([]T, 0, len(serverList)+len(records))
	seen := make(map[string]bool, len(serverList))
	for _, item := range serverList {
		slug := slugOf(item)
		if deleted[slug] {
			continue
		}
		seen[slug] = true
		merged = append(merged, item)
	}

	for _, record := range records {
		if seen[record.Slug] || deleted[record.Slug] {
			continue
		}
		var item T
		if err := json.Unmarshal(record.Data, &item); err != nil {
			log.Printf("Override store: skipping undecodable override %s: %v", record.Slug, err)
			continue
		}
		merged = append(merged, item)
	}
	return merged
}
