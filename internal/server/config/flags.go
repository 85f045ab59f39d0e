package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/flagx"
	"github.com/dmitrijs2005/vidtube/internal/timex"
)

// durationFlag lets duration flags accept the "d" unit ("-r 10d").
type durationFlag struct{ d *time.Duration }

func (f durationFlag) String() string {
	if f.d == nil {
		return ""
	}
	return f.d.String()
}

func (f durationFlag) Set(s string) error {
	v, err := timex.ParseDuration(s)
	if err != nil {
		return err
	}
	*f.d = v
	return nil
}

// parseFlags populates Config fields from the recognised short flags:
//
//	-a string    HTTP bind address (e.g. ":8000")
//	-g string    gRPC bind address
//	-d string    PostgreSQL DSN
//	-s string    access token secret
//	-S string    refresh token secret
//	-t duration  access token lifetime ("60m", "1d")
//	-r duration  refresh token lifetime
//	-o string    allowed CORS origin
//	-u string    S3 root user
//	-p string    S3 root password
//	-b string    S3 bucket
//	-e string    S3 base endpoint
//	-l string    log level
//
// Other arguments are filtered out first, so flags owned by other
// components never cause a parse error here.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-S", "-t", "-r", "-o", "-u", "-p", "-b", "-e", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AccessTokenSecret, "s", config.AccessTokenSecret, "access token secret")
	fs.StringVar(&config.RefreshTokenSecret, "S", config.RefreshTokenSecret, "refresh token secret")
	fs.Var(durationFlag{&config.AccessTokenTTL}, "t", "access token lifetime")
	fs.Var(durationFlag{&config.RefreshTokenTTL}, "r", "refresh token lifetime")
	fs.StringVar(&config.CORSOrigin, "o", config.CORSOrigin, "allowed CORS origin")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	return fs.Parse(args)
}
