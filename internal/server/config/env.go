package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/vidtube/internal/timex"
)

// parseEnv overlays environment settings. Values from the dotenv file are
// read without touching the process environment; real variables win over
// the file. A missing dotenv file is ignored.
func parseEnv(config *Config, dotenv string, lookup func(string) (string, bool)) error {
	file := map[string]string{}
	if dotenv != "" {
		m, err := godotenv.Read(dotenv)
		switch {
		case err == nil:
			file = m
		case errors.Is(err, fs.ErrNotExist):
		default:
			return fmt.Errorf("read %s: %w", dotenv, err)
		}
	}

	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok && v != "" {
			return v, true
		}
		v, ok := file[key]
		return v, ok && v != ""
	}

	if v, ok := get("PORT"); ok {
		config.HTTPAddr = ":" + v
	}
	if v, ok := get("HTTP_ADDR"); ok {
		config.HTTPAddr = v
	}

	text := map[string]*string{
		"GRPC_ADDR":            &config.GRPCAddr,
		"DATABASE_DSN":         &config.DatabaseDSN,
		"ACCESS_TOKEN_SECRET":  &config.AccessTokenSecret,
		"REFRESH_TOKEN_SECRET": &config.RefreshTokenSecret,
		"CORS_ORIGIN":          &config.CORSOrigin,
		"UPLOAD_DIR":           &config.UploadDir,
		"S3_ROOT_USER":         &config.S3RootUser,
		"S3_ROOT_PASSWORD":     &config.S3RootPassword,
		"S3_BUCKET":            &config.S3Bucket,
		"S3_REGION":            &config.S3Region,
		"S3_BASE_ENDPOINT":     &config.S3BaseEndpoint,
		"S3_PUBLIC_URL":        &config.S3PublicURL,
		"LOG_LEVEL":            &config.LogLevel,
	}
	for key, dst := range text {
		if v, ok := get(key); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"ACCESS_TOKEN_EXPIRY":  &config.AccessTokenTTL,
		"REFRESH_TOKEN_EXPIRY": &config.RefreshTokenTTL,
	}
	for key, dst := range durations {
		if v, ok := get(key); ok {
			d, err := timex.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}

	if v, ok := get("BCRYPT_COST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BCRYPT_COST: %w", err)
		}
		config.BcryptCost = n
	}
	if v, ok := get("UPLOAD_LIMIT"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("UPLOAD_LIMIT: %w", err)
		}
		config.UploadLimit = n
	}
	return nil
}
