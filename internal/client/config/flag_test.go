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
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		name      string
		args      []string
		want      *Config
		wantPanic bool
	}{
		{name: "short names", args: []string{"cmd", "-s", "http://127.0.0.1:9090", "-t", "5s"},
			want: &Config{ServerURL: "http://127.0.0.1:9090", RequestTimeout: 5 * time.Second}},
		{name: "long names", args: []string{"cmd", "--server=https://api.example.com", "-timeout", "1m"},
			want: &Config{ServerURL: "https://api.example.com", RequestTimeout: time.Minute}},
		{name: "foreign flags ignored", args: []string{"cmd", "-c", "x.json", "-s", "http://h"},
			want: &Config{ServerURL: "http://h"}},
		{name: "bare number rejected", args: []string{"cmd", "-t", "5"}, wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			cfg := &Config{}

			if tt.wantPanic {
				require.Panics(t, func() { parseFlags(cfg) })
				return
			}
			require.NotPanics(t, func() { parseFlags(cfg) })
			assert.Empty(t, cmp.Diff(tt.want, cfg))
		})
	}
}
