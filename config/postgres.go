package config

import (
	"fmt"
	"time"
)

// PostgresConfig defines the configuration for connecting to the PostgreSQL
// database that holds the trading calendar.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (cfg *PostgresConfig) DSN(env string) string {
	return cfg.dsn(env, cfg.DBName)
}

// MaintenanceDSN connects to the server's default database, used when the
// configured database may not exist yet.
func (cfg *PostgresConfig) MaintenanceDSN(env string) string {
	return cfg.dsn(env, "postgres")
}

func (cfg *PostgresConfig) dsn(env, dbname string) string {
	host, user, password := cfg.Host, cfg.User, cfg.Password
	if env == "prod" {
		host = getParameterStoreValue("RECORDER_DB_HOST", true)
		user = getParameterStoreValue("RECORDER_DB_USER", true)
		password = getParameterStoreValue("RECORDER_DB_PASSWORD", true)
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, cfg.Port, user, password, dbname, cfg.SSLMode,
	)

	if cfg.TimeZone != "" {
		dsn += fmt.Sprintf(" TimeZone=%s", cfg.TimeZone)
	}

	return dsn
}
