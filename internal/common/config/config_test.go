package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "kfz-api-service", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "call-transcripts", cfg.Database.Elasticsearch.Index)
	assert.Equal(t, "KFZ-001", cfg.Booking.ProjectNumber)
	assert.Equal(t, 86400, cfg.Booking.DedupeTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Address = ":9090"
	cfg.Booking.DedupeTTL = 3600
	applyDefaults(cfg)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 3600, cfg.Booking.DedupeTTL)
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.Database.Postgres.Host = "localhost"
		cfg.Database.Postgres.Database = "kfz_intake"
		return cfg
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validateConfig(base()))
	})

	t.Run("missing postgres host", func(t *testing.T) {
		cfg := base()
		cfg.Database.Postgres.Host = ""
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("ses requires office email", func(t *testing.T) {
		cfg := base()
		cfg.Integrations.AWS.SES.Enabled = true
		assert.Error(t, validateConfig(cfg))

		cfg.Booking.OfficeEmail = "buero@example.com"
		assert.NoError(t, validateConfig(cfg))
	})

	t.Run("elasticsearch requires addresses", func(t *testing.T) {
		cfg := base()
		cfg.Database.Elasticsearch.Enabled = true
		assert.Error(t, validateConfig(cfg))

		cfg.Database.Elasticsearch.Addresses = []string{"http://localhost:9200"}
		assert.NoError(t, validateConfig(cfg))
	})
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host: "db", Port: 5432, Database: "kfz_intake",
		User: "kfz", Password: "pw", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=db port=5432 user=kfz password=pw dbname=kfz_intake sslmode=disable",
		cfg.GetDSN())
}
