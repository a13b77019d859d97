package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophwalk/internal/flagx"
	"github.com/dmitrijs2005/gophwalk/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration. It uses
// timex.Duration so intervals may be written as "1h" or as nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC      *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN           *string         `json:"database_dsn"`
	SecretKey             *string         `json:"secret_key"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	LogLevel              *string         `json:"log_level"`
}

// parseJSON loads the file given by -c or -config into cfg. Without either
// flag nothing is loaded.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var c JsonConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if c.EndpointAddrGRPC != nil {
		cfg.EndpointAddrGRPC = *c.EndpointAddrGRPC
	}
	if c.DatabaseDSN != nil {
		cfg.DatabaseDSN = *c.DatabaseDSN
	}
	if c.SecretKey != nil {
		cfg.SecretKey = *c.SecretKey
	}
	if c.TokenValidityDuration != nil {
		cfg.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.LogLevel != nil {
		cfg.LogLevel = *c.LogLevel
	}
	return nil
}
