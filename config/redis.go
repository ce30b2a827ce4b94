package config

// RedisConfig defines the connection settings for the Redis instance backing
// the tick buffer.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// ResolvePassword returns the password to use for the given environment. In
// prod the credential comes from the parameter store, same as the database.
func (cfg *RedisConfig) ResolvePassword(env string) string {
	if env == "prod" {
		if pw := getParameterStoreValue("RECORDER_REDIS_PASSWORD", true); pw != "" {
			return pw
		}
	}
	return cfg.Password
}
