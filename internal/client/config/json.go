package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophwalk/internal/flagx"
	"github.com/dmitrijs2005/gophwalk/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Absent keys
// leave the corresponding Config field untouched.
type JsonConfig struct {
	ServerEndpointAddr *string         `json:"server_endpoint_addr"`
	DatabasePath       *string         `json:"database_path"`
	DataCallTimeout    *timex.Duration `json:"data_call_timeout"`
	PayloadCallTimeout *timex.Duration `json:"payload_call_timeout"`
	LogLevel           *string         `json:"log_level"`
}

// parseJSON overlays cfg with the file named by -c or -config, if any.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if jc.ServerEndpointAddr != nil {
		cfg.ServerEndpointAddr = *jc.ServerEndpointAddr
	}
	if jc.DatabasePath != nil {
		cfg.DatabasePath = *jc.DatabasePath
	}
	if jc.DataCallTimeout != nil {
		cfg.DataCallTimeout = jc.DataCallTimeout.Duration
	}
	if jc.PayloadCallTimeout != nil {
		cfg.PayloadCallTimeout = jc.PayloadCallTimeout.Duration
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
	return nil
}
