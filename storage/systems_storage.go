package storage

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"

	"gorm.io/gorm"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

// SystemsStorage implements model.SystemsStore using GORM
type SystemsStorage struct {
	db *gorm.DB
}

// Create registers an external system and returns the generated API key.
// Only the key's SHA-256 hash is persisted.
func (s *SystemsStorage) Create(system *model.ExternalSystem) (string, error) {
	if err := model.ValidateOperations(system.Operations); err != nil {
		return "", err
	}
	apiKey, err := newAPIKey()
	if err != nil {
		return "", err
	}
	system.APIKeyHash = hashAPIKey(apiKey)
	if err := s.db.Create(system).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", model.AlreadyExistsErrorFmt("system already registered: %s", system.Domain)
		}
		return "", err
	}
	return apiKey, nil
}

// ByDomain returns a system by domain
func (s *SystemsStorage) ByDomain(domain string) (*model.ExternalSystem, error) {
	var sys model.ExternalSystem
	if err := s.db.Where("domain = ?", domain).First(&sys).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("system not found: %s", domain)
		}
		return nil, err
	}
	return &sys, nil
}

// Authenticate returns the system matching the presented API key
func (s *SystemsStorage) Authenticate(apiKey string) (*model.ExternalSystem, error) {
	var sys model.ExternalSystem
	if err := s.db.Where("api_key_hash = ?", hashAPIKey(apiKey)).First(&sys).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundError("unknown api key")
		}
		return nil, err
	}
	return &sys, nil
}

// List returns all systems
func (s *SystemsStorage) List() ([]model.ExternalSystem, error) {
	var systems []model.ExternalSystem
	if err := s.db.Model(&model.ExternalSystem{}).Order("domain").Find(&systems).Error; err != nil {
		return nil, err
	}
	return systems, nil
}

// SetApproval flips the approved flag
func (s *SystemsStorage) SetApproval(domain string, approved bool) error {
	return s.setFlag(domain, "approved", approved)
}

// SetActive flips the active flag
func (s *SystemsStorage) SetActive(domain string, active bool) error {
	return s.setFlag(domain, "active", active)
}

func (s *SystemsStorage) setFlag(domain, column string, value bool) error {
	res := s.db.Model(&model.ExternalSystem{}).Where("domain = ?", domain).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("system not found: %s", domain)
	}
	return nil
}

// Delete soft-deletes a system
func (s *SystemsStorage) Delete(domain string) error {
	res := s.db.Where("domain = ?", domain).Delete(&model.ExternalSystem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("system not found: %s", domain)
	}
	return nil
}

func newAPIKey() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func hashAPIKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}
