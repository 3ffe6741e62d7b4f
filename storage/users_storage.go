package storage

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

// UsersStorage returns a UsersStorage
func (s *Storage) UsersStorage() *UsersStorage {
	return &UsersStorage{db: s.db, params: s.userParams}
}

// UsersStorage implements model.UsersStore using GORM
type UsersStorage struct {
	db     *gorm.DB
	params Argon2idParams
}

// sanitize strips the credential material before a record leaves the storage
// layer.
func sanitize(u *model.User) *model.User {
	u.PasswordHash = ""
	return u
}

func (s *UsersStorage) byUsername(username string) (*model.User, error) {
	var u model.User
	if err := s.db.Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("user not found: %s", username)
		}
		return nil, err
	}
	return &u, nil
}

// Count returns the number of users present in the store
func (s *UsersStorage) Count() (int64, error) {
	var count int64
	err := s.db.Model(&model.User{}).Count(&count).Error
	return count, err
}

// List returns all users (without password hashes)
func (s *UsersStorage) List() ([]model.User, error) {
	var users []model.User
	if err := s.db.Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		sanitize(&users[i])
	}
	return users, nil
}

// Get returns a user by username
func (s *UsersStorage) Get(username string) (*model.User, error) {
	u, err := s.byUsername(username)
	if err != nil {
		return nil, err
	}
	return sanitize(u), nil
}

// Create creates a user with an argon2id-hashed password
func (s *UsersStorage) Create(username, password, displayName string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, pkgerrors.New("username and password are required")
	}
	_, err := s.byUsername(username)
	if err == nil {
		return nil, model.AlreadyExistsErrorFmt("user already exists: %s", username)
	}
	var notFound model.NotFoundError
	if !errors.As(err, &notFound) {
		return nil, err
	}
	hash, err := hashPassword(password, s.params)
	if err != nil {
		return nil, err
	}
	u := model.User{Username: username, PasswordHash: hash, DisplayName: displayName}
	if err = s.db.Create(&u).Error; err != nil {
		return nil, err
	}
	return sanitize(&u), nil
}

// Update changes display name, password and/or the disabled flag; nil leaves
// a field untouched.
func (s *UsersStorage) Update(username string, displayName *string, newPassword *string, disabled *bool) (*model.User, error) {
	u, err := s.byUsername(username)
	if err != nil {
		return nil, err
	}
	if displayName != nil {
		u.DisplayName = *displayName
	}
	if disabled != nil {
		u.Disabled = *disabled
	}
	if newPassword != nil {
		if *newPassword == "" {
			return nil, pkgerrors.New("password cannot be empty")
		}
		if u.PasswordHash, err = hashPassword(*newPassword, s.params); err != nil {
			return nil, err
		}
	}
	if err = s.db.Save(u).Error; err != nil {
		return nil, err
	}
	return sanitize(u), nil
}

// Delete deletes a user by username
func (s *UsersStorage) Delete(username string) error {
	res := s.db.Where("username = ?", username).Delete(&model.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("user not found: %s", username)
	}
	return nil
}

// Authenticate validates username/password. When the stored hash was produced
// with different cost parameters than the configured ones, the hash is
// rewritten with the current parameters on the way through.
func (s *UsersStorage) Authenticate(username, password string) (*model.User, error) {
	u, err := s.byUsername(username)
	if err != nil {
		return nil, err
	}
	if u.Disabled {
		return nil, pkgerrors.New("user disabled")
	}
	if !verifyPassword(u.PasswordHash, password) {
		return nil, pkgerrors.New("invalid credentials")
	}
	if stored, ok := passwordParams(u.PasswordHash); ok && stored != s.params {
		if rehash, herr := hashPassword(password, s.params); herr == nil {
			_ = s.db.Model(u).Update("password_hash", rehash).Error
		}
	}
	return sanitize(u), nil
}
