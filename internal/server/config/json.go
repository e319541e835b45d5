package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/eventplanner/internal/flagx"
	"github.com/dmitrijs2005/eventplanner/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file. Duration
// fields accept "10m"-style strings or integer nanoseconds. Only fields present
// with a non-zero value override what earlier layers set.
type JsonConfig struct {
	HTTPAddr                        string         `json:"http_addr"`
	GRPCAddr                        string         `json:"grpc_addr"`
	DatabaseDSN                     string         `json:"database_dsn"`
	AccessTokenSecret               string         `json:"access_token_secret"`
	RefreshTokenSecret              string         `json:"refresh_token_secret"`
	AccessTokenValidityDuration     timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration    timex.Duration `json:"refresh_token_validity_duration"`
	ActivationTokenValidityDuration timex.Duration `json:"activation_token_validity_duration"`
	TwoFactorCodeValidityDuration   timex.Duration `json:"two_factor_code_validity_duration"`
	TwoFactorMaxAttempts            int            `json:"two_factor_max_attempts"`
	BcryptCost                      int            `json:"bcrypt_cost"`
	AppBaseURL                      string         `json:"app_base_url"`
	Environment                     string         `json:"environment"`
	AllowedOrigins                  []string       `json:"allowed_origins"`
	RedisAddr                       string         `json:"redis_addr"`
	RateLimitRequests               int            `json:"rate_limit_requests"`
	RateLimitWindow                 timex.Duration `json:"rate_limit_window"`
	MailDriver                      string         `json:"mail_driver"`
	MailFrom                        string         `json:"mail_from"`
	SESRegion                       string         `json:"ses_region"`
	SESEndpoint                     string         `json:"ses_endpoint"`
	LogDriver                       string         `json:"log_driver"`
	LogLevel                        string         `json:"log_level"`
	ShutdownTimeout                 timex.Duration `json:"shutdown_timeout"`
}

// parseJson loads the file named by -c/-config, if any, and overlays it onto
// config. Unreadable files or invalid JSON panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.applyTo(config)
}

func (c *JsonConfig) applyTo(config *Config) {
	setStr := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}
	setStr(&config.HTTPAddr, c.HTTPAddr)
	setStr(&config.GRPCAddr, c.GRPCAddr)
	setStr(&config.DatabaseDSN, c.DatabaseDSN)
	setStr(&config.AccessTokenSecret, c.AccessTokenSecret)
	setStr(&config.RefreshTokenSecret, c.RefreshTokenSecret)
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.ActivationTokenValidityDuration.Duration != 0 {
		config.ActivationTokenValidityDuration = c.ActivationTokenValidityDuration.Duration
	}
	if c.TwoFactorCodeValidityDuration.Duration != 0 {
		config.TwoFactorCodeValidityDuration = c.TwoFactorCodeValidityDuration.Duration
	}
	setInt(&config.TwoFactorMaxAttempts, c.TwoFactorMaxAttempts)
	setInt(&config.BcryptCost, c.BcryptCost)
	setStr(&config.AppBaseURL, c.AppBaseURL)
	setStr(&config.Environment, c.Environment)
	if len(c.AllowedOrigins) > 0 {
		config.AllowedOrigins = c.AllowedOrigins
	}
	setStr(&config.RedisAddr, c.RedisAddr)
	setInt(&config.RateLimitRequests, c.RateLimitRequests)
	if c.RateLimitWindow.Duration != 0 {
		config.RateLimitWindow = c.RateLimitWindow.Duration
	}
	setStr(&config.MailDriver, c.MailDriver)
	setStr(&config.MailFrom, c.MailFrom)
	setStr(&config.SESRegion, c.SESRegion)
	setStr(&config.SESEndpoint, c.SESEndpoint)
	setStr(&config.LogDriver, c.LogDriver)
	setStr(&config.LogLevel, c.LogLevel)
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
}
