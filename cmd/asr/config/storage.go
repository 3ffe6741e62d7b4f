package config

import (
	log "github.com/sirupsen/logrus"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage"
	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

type storageConf struct {
	Driver  storage.DriverType `yaml:"driver"`
	DataDir string             `yaml:"data_dir"`
	DSN     string             `yaml:"dsn"`
	storage.DSNConf
	Debug bool `yaml:"debug"`
}

func (c *storageConf) validate() error {
	if c.Driver == storage.DriverSQLite {
		return nil
	}
	var err error
	if c.DSN == "" {
		c.DSN, err = storage.DSN(c.Driver, c.DSNConf)
	}
	return err
}

var defaultStorageConf = storageConf{
	Driver: storage.DriverSQLite,
	DSNConf: storage.DSNConf{
		User: "asr",
		Host: "localhost",
		DB:   "asr",
	},
	Debug: false,
}

// LoadStorageBackends loads and returns the storage backends for the passed Config
func LoadStorageBackends(c storageConf, usersHash storage.Argon2idParams) (model.Backends, error) {
	cfg := storage.Config{
		Driver:    c.Driver,
		DSN:       c.DSN,
		DataDir:   c.DataDir,
		Debug:     c.Debug,
		UsersHash: usersHash,
	}
	backs, err := storage.LoadBackends(cfg)
	if err != nil {
		return model.Backends{}, err
	}
	log.Info("Loaded storage backend")
	return backs, nil
}
