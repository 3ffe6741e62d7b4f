package storage

import (
	"gorm.io/gorm"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

// ValidationLogStorage implements model.ValidationLogStore using GORM.
// The log is append-only; no update or delete methods exist.
type ValidationLogStorage struct {
	db *gorm.DB
}

// Append writes one log entry
func (s *ValidationLogStorage) Append(entry *model.ValidationLogEntry) error {
	return s.db.Create(entry).Error
}

// Count returns the total number of entries
func (s *ValidationLogStorage) Count() (int64, error) {
	var count int64
	if err := s.db.Model(&model.ValidationLogEntry{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Recent returns the most recent entries, newest first
func (s *ValidationLogStorage) Recent(limit int) ([]model.ValidationLogEntry, error) {
	var entries []model.ValidationLogEntry
	q := s.db.Model(&model.ValidationLogEntry{}).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ForOrchestration returns entries referencing an orchestration
func (s *ValidationLogStorage) ForOrchestration(orchestrationID uint) ([]model.ValidationLogEntry, error) {
	var entries []model.ValidationLogEntry
	if err := s.db.Where("orchestration_id = ?", orchestrationID).
		Order("id").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ForToken returns entries referencing a token id
func (s *ValidationLogStorage) ForToken(jti string) ([]model.ValidationLogEntry, error) {
	var entries []model.ValidationLogEntry
	if err := s.db.Where("token_jti = ?", jti).
		Order("id").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
