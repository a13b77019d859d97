package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the gophwalk client.
//
// Fields:
//   - ServerEndpointAddr: host:port of the identity service gRPC endpoint.
//   - DatabasePath: SQLite file holding identities, the session and user data.
//   - DataCallTimeout: deadline for sign-in, sign-out and token validation.
//   - PayloadCallTimeout: deadline for sign-up.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	ServerEndpointAddr string        `env:"GOPHWALK_SERVER_ADDR"`
	DatabasePath       string        `env:"GOPHWALK_DB_PATH"`
	DataCallTimeout    time.Duration `env:"GOPHWALK_DATA_TIMEOUT"`
	PayloadCallTimeout time.Duration `env:"GOPHWALK_PAYLOAD_TIMEOUT"`
	LogLevel           string        `env:"GOPHWALK_LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DatabasePath = "gophwalk.db"
	c.DataCallTimeout = 60 * time.Second
	c.PayloadCallTimeout = 120 * time.Second
	c.LogLevel = "warn"
}

// LoadConfig builds a Config from defaults, then the JSON file, then the
// environment, then command-line flags. Later sources win.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
