package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-g", ":6000", "-d", "db", "-s", "access", "-rs", "refresh",
			"-t", "1", "-r", "3", "-u", "https://app.example", "-redis", "redis:6379", "-mail", "ses", "-l", "debug",
		}, expected: &Config{
			HTTPAddr:                     "127.0.0.1:9090",
			GRPCAddr:                     ":6000",
			DatabaseDSN:                  "db",
			AccessTokenSecret:            "access",
			RefreshTokenSecret:           "refresh",
			AccessTokenValidityDuration:  1 * time.Minute,
			RefreshTokenValidityDuration: 3 * time.Minute,
			AppBaseURL:                   "https://app.example",
			RedisAddr:                    "redis:6379",
			MailDriver:                   "ses",
			LogLevel:                     "debug",
		}},
		{name: "foreign flags ignored", args: []string{"cmd", "-x", "1", "-a", ":1"},
			expected: &Config{HTTPAddr: ":1"}},
		{name: "bad int", args: []string{"cmd", "-t", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old := os.Args
			t.Cleanup(func() { os.Args = old })
			os.Args = tt.args

			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
