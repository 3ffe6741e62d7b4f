package storage

import (
	"time"

	"github.com/pkg/errors"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

// Policy defaults applied when the key-value store holds no override.
const (
	DefaultTokenLifetime = time.Hour
	DefaultRateCeiling   = 60
)

// GetTokenLifetime returns the configured token validity window.
func GetTokenLifetime(kvStorage model.KeyValueStore) (time.Duration, error) {
	if kvStorage == nil {
		return DefaultTokenLifetime, nil
	}
	var seconds int
	found, err := kvStorage.GetAs(model.KeyValueScopePolicy, model.KeyValueKeyTokenLifetime, &seconds)
	if err != nil {
		return 0, err
	}
	if !found || seconds <= 0 {
		return DefaultTokenLifetime, nil
	}
	return time.Duration(seconds) * time.Second, nil
}

// SetTokenLifetime sets the token validity window.
func SetTokenLifetime(kvStorage model.KeyValueStore, lifetime time.Duration) error {
	if kvStorage == nil {
		return errors.New("key value store is not set")
	}
	if lifetime <= 0 {
		return errors.New("token lifetime must be positive")
	}
	return kvStorage.SetAny(model.KeyValueScopePolicy, model.KeyValueKeyTokenLifetime, int(lifetime.Seconds()))
}

// GetRateCeiling returns the default hourly issuance ceiling for systems
// without an explicit one.
func GetRateCeiling(kvStorage model.KeyValueStore) (int, error) {
	if kvStorage == nil {
		return DefaultRateCeiling, nil
	}
	var ceiling int
	found, err := kvStorage.GetAs(model.KeyValueScopePolicy, model.KeyValueKeyRateCeiling, &ceiling)
	if err != nil {
		return 0, err
	}
	if !found || ceiling <= 0 {
		return DefaultRateCeiling, nil
	}
	return ceiling, nil
}

// SetRateCeiling sets the default hourly issuance ceiling.
func SetRateCeiling(kvStorage model.KeyValueStore, ceiling int) error {
	if kvStorage == nil {
		return errors.New("key value store is not set")
	}
	if ceiling <= 0 {
		return errors.New("rate ceiling must be positive")
	}
	return kvStorage.SetAny(model.KeyValueScopePolicy, model.KeyValueKeyRateCeiling, ceiling)
}
