package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
	t.Setenv("JWT_ACCESS_TTL", "")
	t.Setenv("STORAGE_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 15*time.Minute, cfg.JWTAccessTTL)
	require.Equal(t, 7*24*time.Hour, cfg.JWTRefreshTTL)
	require.Equal(t, StorageMemory, cfg.StorageDriver)
	require.Equal(t, "UTC", cfg.LedgerTimezone)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ServerPort:             "5100",
			RequestTimeout:         time.Second,
			StorageDriver:          StorageMemory,
			JWTAccessSecret:        "a",
			JWTRefreshSecret:       "b",
			JWTAccessTTL:           time.Minute,
			JWTRefreshTTL:          time.Hour,
			LedgerTimezone:         "UTC",
			BootstrapAdminEmail:    "admin@example.com",
			BootstrapAdminPassword: "admin123",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "valid", mutate: func(*Config) {}, ok: true},
		{name: "missing access secret", mutate: func(c *Config) { c.JWTAccessSecret = "" }},
		{name: "shared secrets", mutate: func(c *Config) { c.JWTRefreshSecret = c.JWTAccessSecret }},
		{name: "postgres without url", mutate: func(c *Config) { c.StorageDriver = StoragePostgres }},
		{name: "unknown driver", mutate: func(c *Config) { c.StorageDriver = "redis" }},
		{name: "bad timezone", mutate: func(c *Config) { c.LedgerTimezone = "Mars/Olympus" }},
		{name: "zero ttl", mutate: func(c *Config) { c.JWTAccessTTL = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestSplitCSV(t *testing.T) {
	require.Nil(t, splitCSV("  "))
	require.Equal(t, []string{"a", "b"}, splitCSV(" a, ,b "))
}
