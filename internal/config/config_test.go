package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("INFLUXDB_URL", "http://localhost:8086")
	t.Setenv("INFLUXDB_TOKEN", "influx-token")
	t.Setenv("AIRBOX_URL", "https://pm25.example.com/airbox")
	t.Setenv("AIRBOX_TOKEN", "feed-token")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "airbox", cfg.InfluxDB.Org)
	assert.Equal(t, "airbox", cfg.InfluxDB.Bucket)
	assert.Equal(t, 30*time.Second, cfg.AirBox.Timeout)
	assert.Equal(t, 1.0, cfg.FetchIntervalMinutes)
	assert.Equal(t, "onboarding@resend.dev", cfg.Resend.FromEmail)
	assert.Equal(t, "https://api.resend.com", cfg.Resend.APIURL)
	assert.Equal(t, "airbox:alerts", cfg.Redis.AlertChannel)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Zero(t, cfg.SaveConcurrency)
	assert.False(t, cfg.Auth0.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "8080")
	t.Setenv("FETCH_INTERVAL_MINUTES", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RESEND_API_URL", "http://mail.local/")
	t.Setenv("AUTH0_DOMAIN", "tenant.eu.auth0.com")
	t.Setenv("AUTH0_AUDIENCE", "https://airbox-api")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 2.5, cfg.FetchIntervalMinutes)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, "http://mail.local", cfg.Resend.APIURL)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.True(t, cfg.Auth0.Enabled())
}

func TestLoadReportsEveryMissingKey(t *testing.T) {
	t.Setenv("INFLUXDB_URL", "")
	t.Setenv("INFLUXDB_TOKEN", "")
	t.Setenv("AIRBOX_URL", "")
	t.Setenv("AIRBOX_TOKEN", "")

	cfg, err := Load()
	require.ErrorIs(t, err, ErrConfigurationMissing)
	assert.Nil(t, cfg)
	for _, key := range []string{"INFLUXDB_URL", "INFLUXDB_TOKEN", "AIRBOX_URL", "AIRBOX_TOKEN"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestLoadRejectsInvalidInterval(t *testing.T) {
	for _, value := range []string{"0", "-1", "soon"} {
		t.Run(value, func(t *testing.T) {
			setRequired(t)
			t.Setenv("FETCH_INTERVAL_MINUTES", value)

			_, err := Load()
			require.ErrorIs(t, err, ErrConfigurationMissing)
			assert.Contains(t, err.Error(), "FETCH_INTERVAL_MINUTES")
		})
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("AIRBOX_TIMEOUT", "forever")

	_, err := Load()
	require.ErrorIs(t, err, ErrConfigurationMissing)
	assert.Contains(t, err.Error(), "AIRBOX_TIMEOUT")
}
