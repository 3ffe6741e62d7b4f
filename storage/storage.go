package storage

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

// Storage is a GORM-based storage implementation
type Storage struct {
	db         *gorm.DB
	userParams Argon2idParams
}

var models = []any{
	&model.LegalEntity{},
	&model.IssuedTokenRecord{},
	&model.Orchestration{},
	&model.OrchestrationParticipant{},
	&model.ValidationLogEntry{},
	&model.ExternalSystem{},
	&model.KeyValue{},
	&model.User{},
}

// NewStorage creates a new GORM-based storage
func NewStorage(config Config) (*Storage, error) {
	db, err := Connect(config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto migrate the schemas
	if err = db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Fill user hash params with defaults if zero values
	params := config.UsersHash
	if params.Time == 0 {
		params = defaultArgon2idParams()
	}

	return &Storage{
		db:         db,
		userParams: params,
	}, nil
}

// EntitiesStorage returns an EntitiesStorage
func (s *Storage) EntitiesStorage() *EntitiesStorage {
	return &EntitiesStorage{db: s.db}
}

// TokensStorage returns a TokensStorage
func (s *Storage) TokensStorage() *TokensStorage {
	return &TokensStorage{db: s.db}
}

// OrchestrationsStorage returns an OrchestrationsStorage
func (s *Storage) OrchestrationsStorage() *OrchestrationsStorage {
	return &OrchestrationsStorage{db: s.db}
}

// ValidationLogStorage returns a ValidationLogStorage
func (s *Storage) ValidationLogStorage() *ValidationLogStorage {
	return &ValidationLogStorage{db: s.db}
}

// SystemsStorage returns a SystemsStorage
func (s *Storage) SystemsStorage() *SystemsStorage {
	return &SystemsStorage{db: s.db}
}

// LoadBackends initializes the storage and returns grouped backends.
func LoadBackends(cfg Config) (model.Backends, error) {
	warehouse, err := NewStorage(cfg)
	if err != nil {
		return model.Backends{}, err
	}
	return model.Backends{
		Entities:       warehouse.EntitiesStorage(),
		Tokens:         warehouse.TokensStorage(),
		Orchestrations: warehouse.OrchestrationsStorage(),
		ValidationLog:  warehouse.ValidationLogStorage(),
		Systems:        warehouse.SystemsStorage(),
		Users:          warehouse.UsersStorage(),
		KV:             warehouse.KeyValue(),
	}, nil
}
