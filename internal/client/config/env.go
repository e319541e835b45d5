package config

import (
	"os"
	"time"
)

const (
	envServerURL      = "EVENTPLANNER_SERVER_URL"
	envRequestTimeout = "EVENTPLANNER_REQUEST_TIMEOUT"
)

func parseEnv(cfg *Config) {
	applyEnv(cfg, os.LookupEnv)
}

// applyEnv reads EVENTPLANNER_SERVER_URL and EVENTPLANNER_REQUEST_TIMEOUT
// (a Go duration such as "15s"). A malformed timeout panics.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(envServerURL); ok && v != "" {
		cfg.ServerURL = v
	}
	if v, ok := lookup(envRequestTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic("env " + envRequestTimeout + ": " + err.Error())
		}
		cfg.RequestTimeout = d
	}
}
