// Package config loads runtime configuration for the eventplanner CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. EVENTPLANNER_SERVER_URL and EVENTPLANNER_REQUEST_TIMEOUT.
//  3. Optional JSON file selected with -c or -config.
//  4. Flags -s/-server and -t/-timeout ("5s").
//
// JSON durations go through timex.Duration, so "10s" and integer nanoseconds
// are both accepted:
//
//	{
//	  "server_url": "http://localhost:8000",
//	  "request_timeout": "10s"
//	}
package config
