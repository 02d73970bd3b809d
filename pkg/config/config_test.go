package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load("taskboard-service")
	require.NoError(t, err)

	assert.Equal(t, "taskboard-service", cfg.ServiceName)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, "5432", cfg.DB.Port)
	assert.Equal(t, "multitenant_master", cfg.DB.DBName)
	assert.Equal(t, "disable", cfg.DB.SSLMode)
	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, 1, cfg.JWT.ExpirationHours)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "taskboard-service", cfg.Metrics.Prefix)
}

func TestLoadFromEnvironment(t *testing.T) {
	os.Clearenv()
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "taskboard_prod")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_EXPIRATION_HOURS", "24")
	t.Setenv("DB_MAX_OPEN_CONNS", "50")

	cfg, err := Load("taskboard-service")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, "taskboard_prod", cfg.DB.DBName)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.Env)
	assert.Equal(t, 24, cfg.JWT.ExpirationHours)
	assert.Equal(t, 50, cfg.DB.MaxOpenConns)
}

func TestGetDSN(t *testing.T) {
	cfg := DBConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "postgres",
		Password: "postgres",
		DBName:   "multitenant_master",
		SSLMode:  "disable",
	}

	dsn := cfg.GetDSN()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "port=5432")
	assert.Contains(t, dsn, "dbname=multitenant_master")
	assert.Contains(t, dsn, "sslmode=disable")
}
