package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/eventplanner/internal/flagx"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// parseEnv overlays values from process environment variables. A dotenv file
// (path from -env, else ./.env) is loaded first without overriding variables
// that are already set. A missing default file is not an error; a missing
// file named explicitly panics, as do malformed numeric values.
func parseEnv(config *Config) {
	path := flagx.EnvFileFlags()
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	applyEnv(config, os.LookupEnv)
}

// applyEnv copies every variable that lookup finds into config.
func applyEnv(config *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				panic("env " + key + ": " + err.Error())
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic("env " + key + ": " + err.Error())
			}
			*dst = d
		}
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		config.HTTPAddr = ":" + strings.TrimPrefix(v, ":")
	}
	str("GRPC_ADDR", &config.GRPCAddr)
	str("DATABASE_DSN", &config.DatabaseDSN)

	str("JWT_ACCESS_TOKEN_SECRET", &config.AccessTokenSecret)
	str("JWT_REFRESH_TOKEN_SECRET", &config.RefreshTokenSecret)
	dur("JWT_ACCESS_TOKEN_EXPIRY", &config.AccessTokenValidityDuration)
	dur("JWT_REFRESH_TOKEN_EXPIRY", &config.RefreshTokenValidityDuration)
	dur("ACTIVATION_TOKEN_EXPIRY", &config.ActivationTokenValidityDuration)
	dur("TWO_FACTOR_CODE_EXPIRY", &config.TwoFactorCodeValidityDuration)
	num("TWO_FACTOR_MAX_ATTEMPTS", &config.TwoFactorMaxAttempts)
	num("BCRYPT_COST", &config.BcryptCost)

	str("APP_BASE_URL", &config.AppBaseURL)
	str("APP_ENV", &config.Environment)
	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		config.AllowedOrigins = splitList(v)
	}

	str("REDIS_ADDR", &config.RedisAddr)
	num("RATE_LIMIT_REQUESTS", &config.RateLimitRequests)
	dur("RATE_LIMIT_WINDOW", &config.RateLimitWindow)

	str("MAIL_DRIVER", &config.MailDriver)
	str("MAIL_FROM", &config.MailFrom)
	str("AWS_REGION", &config.SESRegion)
	str("SES_ENDPOINT", &config.SESEndpoint)
	str("AWS_ACCESS_KEY_ID", &config.SESAccessKeyID)
	str("AWS_SECRET_ACCESS_KEY", &config.SESSecretAccessKey)

	str("LOG_DRIVER", &config.LogDriver)
	str("LOG_LEVEL", &config.LogLevel)
	dur("SHUTDOWN_TIMEOUT", &config.ShutdownTimeout)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
