package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func lookupFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestApplyEnv(t *testing.T) {
	var c Config
	c.LoadDefaults()

	applyEnv(&c, lookupFrom(map[string]string{
		envServerURL:      "https://events.example.com",
		envRequestTimeout: "30s",
	}))

	assert.Equal(t, "https://events.example.com", c.ServerURL)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
}

func TestApplyEnv_EmptyKeepsDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	applyEnv(&c, lookupFrom(map[string]string{envServerURL: ""}))

	assert.Equal(t, defaultServerURL, c.ServerURL)
	assert.Equal(t, defaultRequestTimeout, c.RequestTimeout)
}

func TestApplyEnv_BadTimeoutPanics(t *testing.T) {
	var c Config
	assert.Panics(t, func() {
		applyEnv(&c, lookupFrom(map[string]string{envRequestTimeout: "soon"}))
	})
}
