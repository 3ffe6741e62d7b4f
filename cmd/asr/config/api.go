package config

import "github.com/DeNoronha/ctn-asr-demo-sub015/storage"

// apiConf holds API-related configuration
type apiConf struct {
	Admin adminAPIConf `yaml:"admin"`
}

type adminAPIConf struct {
	Enabled        bool                   `yaml:"enabled"`
	Argon2idParams storage.Argon2idParams `yaml:"password_hashing"`
}

var defaultAPIConf = apiConf{
	Admin: adminAPIConf{
		Enabled: true,
		Argon2idParams: storage.Argon2idParams{
			Time:        1,
			MemoryKiB:   64 * 1024,
			Parallelism: 4,
			KeyLen:      64,
			SaltLen:     32,
		},
	},
}
