// Package config loads runtime configuration for the vidtube CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string     base URL of the vidtube API, e.g. http://127.0.0.1:8000
//	-d string     path of the local session database
//	-t duration   per-request timeout
//	-i duration   online status check interval
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8000",
//	  "session_db": "vidtube-session.db",
//	  "request_timeout": "10s",
//	  "online_check_interval": "5s"
//	}
package config
