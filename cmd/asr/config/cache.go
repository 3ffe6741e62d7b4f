package config

// cachingConf configures the optional redis backend. When RedisAddr is set,
// issuance rate limiting is shared across registry instances.
type cachingConf struct {
	RedisAddr string `yaml:"redis_addr"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	RedisDB   int    `yaml:"redis_db"`
}
