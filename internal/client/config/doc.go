// Package config loads runtime configuration for the gophwalk client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. GOPHWALK_* environment variables.
//  4. Command-line flags.
//
// # JSON schema
//
// Timeouts use timex.Duration, so they may be strings like "60s" or integer
// nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "database_path": "gophwalk.db",
//	  "data_call_timeout": "60s",
//	  "payload_call_timeout": "2m",
//	  "log_level": "info"
//	}
package config
