package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "0123456789abcdef-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.True(t, cfg.QueryStrictWorkflow)
	assert.Equal(t, 12*time.Hour, cfg.JWTTTL)
	assert.Equal(t, int64(10<<20), cfg.DocumentMaxBytes)
	assert.Equal(t, "Asia/Karachi", cfg.Location().String())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("JWT_SECRET", "short")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "0123456789abcdef-secret")
	t.Setenv("AGENCY_TIMEZONE", "Mars/Olympus")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigPermissiveWorkflow(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "0123456789abcdef-secret")
	t.Setenv("QUERY_STRICT_WORKFLOW", "false")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.QueryStrictWorkflow)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
}

func TestInTestMode(t *testing.T) {
	t.Setenv("VOYAGER_TEST_MODE", "true")
	RefreshTestMode()
	assert.True(t, InTestMode())
	t.Setenv("VOYAGER_TEST_MODE", "")
	RefreshTestMode()
	assert.False(t, InTestMode())
}

func TestDBOptionsCarryAgencyTimezone(t *testing.T) {
	cfg := &Config{PGDSN: "postgres://x@localhost/voyager", PGMaxConns: 4, AgencyTimezone: "Asia/Karachi"}
	opts := cfg.DBOptions("voyager-worker")
	assert.Equal(t, "postgres://x@localhost/voyager", opts.DSN)
	assert.Equal(t, int32(4), opts.MaxConns)
	assert.Equal(t, "voyager-worker", opts.AppName)
	assert.Equal(t, "Asia/Karachi", opts.TimeZone)
}
