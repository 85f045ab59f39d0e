package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/vidtube/internal/flagx"
	"github.com/dmitrijs2005/vidtube/internal/timex"
)

// JsonConfig is the on-disk shape of a config file. Durations accept
// strings such as "15m" or "10d" as well as integer nanoseconds.
// Fields left out of the file keep their current values.
type JsonConfig struct {
	HTTPAddr           string         `json:"http_addr"`
	GRPCAddr           string         `json:"grpc_addr"`
	DatabaseDSN        string         `json:"database_dsn"`
	AccessTokenSecret  string         `json:"access_token_secret"`
	AccessTokenTTL     timex.Duration `json:"access_token_expiry"`
	RefreshTokenSecret string         `json:"refresh_token_secret"`
	RefreshTokenTTL    timex.Duration `json:"refresh_token_expiry"`
	BcryptCost         int            `json:"bcrypt_cost"`
	CORSOrigin         string         `json:"cors_origin"`
	UploadDir          string         `json:"upload_dir"`
	UploadLimit        int64          `json:"upload_limit"`
	S3RootUser         string         `json:"s3_root_user"`
	S3RootPassword     string         `json:"s3_root_password"`
	S3Bucket           string         `json:"s3_bucket"`
	S3Region           string         `json:"s3_region"`
	S3BaseEndpoint     string         `json:"s3_base_endpoint"`
	S3PublicURL        string         `json:"s3_public_url"`
	LogLevel           string         `json:"log_level"`
}

// parseJson overlays the file named by -c/-config, if any.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.AccessTokenSecret, c.AccessTokenSecret)
	setString(&config.RefreshTokenSecret, c.RefreshTokenSecret)
	setString(&config.CORSOrigin, c.CORSOrigin)
	setString(&config.UploadDir, c.UploadDir)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicURL, c.S3PublicURL)
	setString(&config.LogLevel, c.LogLevel)

	if c.AccessTokenTTL.Duration != 0 {
		config.AccessTokenTTL = c.AccessTokenTTL.Duration
	}
	if c.RefreshTokenTTL.Duration != 0 {
		config.RefreshTokenTTL = c.RefreshTokenTTL.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.UploadLimit != 0 {
		config.UploadLimit = c.UploadLimit
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
