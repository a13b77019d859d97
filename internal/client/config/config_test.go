package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, "127.0.0.1:50051", c.ServerEndpointAddr)
	assert.Equal(t, 60*time.Second, c.DataCallTimeout)
	assert.Equal(t, 120*time.Second, c.PayloadCallTimeout)
}

func TestLoad_NoSources(t *testing.T) {
	cfg, err := load(nil)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(defaults(), cfg))
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"server_endpoint_addr": "json:1",
		"database_path":        "json.db",
		"data_call_timeout":    "5s",
		"log_level":            "info",
	})
	t.Setenv("GOPHWALK_DB_PATH", "env.db")
	t.Setenv("GOPHWALK_LOG_LEVEL", "debug")

	cfg, err := load([]string{"-c", path, "-l", "error", "-T", "3m"})
	require.NoError(t, err)

	want := &Config{
		ServerEndpointAddr: "json:1",
		DatabasePath:       "env.db",
		DataCallTimeout:    5 * time.Second,
		PayloadCallTimeout: 3 * time.Minute,
		LogLevel:           "error",
	}
	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestParseJSON_PartialFileKeepsOtherFields(t *testing.T) {
	path := writeTempJSON(t, map[string]any{"payload_call_timeout": 1_000_000_000})

	cfg := defaults()
	require.NoError(t, parseJSON(cfg, []string{"-config", path}))

	want := defaults()
	want.PayloadCallTimeout = time.Second
	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestParseJSON_Errors(t *testing.T) {
	cfg := defaults()
	require.Error(t, parseJSON(cfg, []string{"-c", filepath.Join(t.TempDir(), "missing.json")}))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"data_call_timeout": "soon"}`), 0o600))
	require.Error(t, parseJSON(cfg, []string{"-c", bad}))
}

func TestParseEnv_InvalidDuration(t *testing.T) {
	t.Setenv("GOPHWALK_DATA_TIMEOUT", "abc")
	require.Error(t, parseEnv(defaults()))
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected *Config
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "10.0.0.1:9090", "-d", "x.db", "-t", "10s", "-T", "20s", "-l", "debug"},
			expected: &Config{
				ServerEndpointAddr: "10.0.0.1:9090",
				DatabasePath:       "x.db",
				DataCallTimeout:    10 * time.Second,
				PayloadCallTimeout: 20 * time.Second,
				LogLevel:           "debug",
			},
		},
		{
			name:     "unknown flags are ignored",
			args:     []string{"-config", "cfg.json", "-x", "1"},
			expected: defaults(),
		},
		{name: "bad duration", args: []string{"-t", "abc"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			err := parseFlags(cfg, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}
