package storage

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

// EntitiesStorage implements model.EntityStore using GORM
type EntitiesStorage struct {
	db *gorm.DB
}

// Create registers a new legal entity
func (s *EntitiesStorage) Create(entity *model.LegalEntity) error {
	if !entity.Tier.Valid() {
		return errors.New("invalid tier")
	}
	if err := s.db.Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.AlreadyExistsErrorFmt("entity already registered: %s", entity.Domain)
		}
		return err
	}
	return nil
}

// ByID returns an entity by its id
func (s *EntitiesStorage) ByID(id string) (*model.LegalEntity, error) {
	var e model.LegalEntity
	if err := s.db.Where("id = ?", id).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("entity not found: %s", id)
		}
		return nil, err
	}
	return &e, nil
}

// ByDomain returns an entity by its domain
func (s *EntitiesStorage) ByDomain(domain string) (*model.LegalEntity, error) {
	var e model.LegalEntity
	if err := s.db.Where("domain = ?", domain).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("entity not found: %s", domain)
		}
		return nil, err
	}
	return &e, nil
}

// List returns entities ordered by domain
func (s *EntitiesStorage) List(offset, limit int) ([]model.LegalEntity, error) {
	var entities []model.LegalEntity
	q := s.db.Model(&model.LegalEntity{}).Order("domain")
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

// ApplyVerification atomically applies a tier transition from a verification
// event. The deadline is stored as passed: tier 2 requires one, the other
// tiers clear it.
func (s *EntitiesStorage) ApplyVerification(
	id string, tier model.Tier, method string, verifiedAt int64, due *int64,
) (*model.LegalEntity, error) {
	if !tier.Valid() {
		return nil, errors.New("invalid tier")
	}
	if (tier == model.Tier2) != (due != nil) {
		return nil, errors.New("reverification deadline is required for tier 2 and forbidden otherwise")
	}
	var e model.LegalEntity
	err := s.db.Transaction(
		func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ?", id).First(&e).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return model.NotFoundErrorFmt("entity not found: %s", id)
				}
				return err
			}
			e.Tier = tier
			e.VerificationMethod = method
			e.VerifiedAt = &verifiedAt
			e.ReverificationDue = due
			return tx.Save(&e).Error
		},
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// DueForReverification returns tier-2 entities whose deadline lies before now
func (s *EntitiesStorage) DueForReverification(now int64) ([]model.LegalEntity, error) {
	var entities []model.LegalEntity
	if err := s.db.Model(&model.LegalEntity{}).
		Where("tier = ? AND reverification_due IS NOT NULL AND reverification_due < ?", model.Tier2, now).
		Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

// Downgrade moves a tier-2 entity past its deadline to tier 3 and clears the
// deadline. The condition is re-checked under a row lock, so a concurrent
// renewal or an earlier sweep run makes this a no-op.
func (s *EntitiesStorage) Downgrade(id string, now int64) (bool, error) {
	changed := false
	err := s.db.Transaction(
		func(tx *gorm.DB) error {
			var e model.LegalEntity
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ?", id).First(&e).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return model.NotFoundErrorFmt("entity not found: %s", id)
				}
				return err
			}
			if e.Tier != model.Tier2 || e.ReverificationDue == nil || *e.ReverificationDue >= now {
				return nil
			}
			e.Tier = model.Tier3
			e.ReverificationDue = nil
			if err := tx.Save(&e).Error; err != nil {
				return err
			}
			changed = true
			return nil
		},
	)
	return changed, err
}
