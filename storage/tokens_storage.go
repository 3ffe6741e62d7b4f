package storage

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

// TokensStorage implements model.TokenStore using GORM
type TokensStorage struct {
	db *gorm.DB
}

// Create persists the issuance record of a freshly minted token
func (s *TokensStorage) Create(record *model.IssuedTokenRecord) error {
	if err := s.db.Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.AlreadyExistsErrorFmt("token record already exists: %s", record.JTI)
		}
		return err
	}
	return nil
}

// Get returns the record for a token id
func (s *TokensStorage) Get(jti string) (*model.IssuedTokenRecord, error) {
	var r model.IssuedTokenRecord
	if err := s.db.Where("jti = ?", jti).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("token record not found: %s", jti)
		}
		return nil, err
	}
	return &r, nil
}

// List returns records newest first
func (s *TokensStorage) List(offset, limit int) ([]model.IssuedTokenRecord, error) {
	var records []model.IssuedTokenRecord
	q := s.db.Model(&model.IssuedTokenRecord{}).Order("issued_at DESC")
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Revoke marks the token revoked under a row lock. Revoking an
// already-revoked token keeps the original reason and timestamp.
func (s *TokensStorage) Revoke(jti, reason string, now int64) error {
	return s.db.Transaction(
		func(tx *gorm.DB) error {
			var r model.IssuedTokenRecord
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("jti = ?", jti).First(&r).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return model.NotFoundErrorFmt("token record not found: %s", jti)
				}
				return err
			}
			if r.Revoked {
				return nil
			}
			r.Revoked = true
			r.RevokedAt = &now
			r.RevocationReason = reason
			return tx.Save(&r).Error
		},
	)
}

// RecordUsage increments the usage counter in a single statement so that
// concurrent callers cannot lose increments.
func (s *TokensStorage) RecordUsage(jti, usedBy string, now int64) error {
	res := s.db.Model(&model.IssuedTokenRecord{}).
		Where("jti = ?", jti).
		Updates(
			map[string]any{
				"usage_count":  gorm.Expr("usage_count + 1"),
				"last_used_at": now,
				"last_used_by": usedBy,
			},
		)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("token record not found: %s", jti)
	}
	return nil
}
