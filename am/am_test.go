package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Isolated viper instance without user/project config
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, DefaultEndpointURL, cfg.Endpoint.URL)
	assert.Equal(t, DefaultTimeoutSeconds, cfg.Endpoint.TimeoutSeconds)
	assert.True(t, cfg.Endpoint.Probe)
	assert.Equal(t, DefaultStudy, cfg.Study.Name)
	assert.Empty(t, cfg.Study.Whitelist)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "am.toml")
	content := `
[endpoint]
url = "https://sparql.example.org/query"
timeout_seconds = 30

[study]
whitelist = ["1", "2"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://sparql.example.org/query", cfg.Endpoint.URL)
	assert.Equal(t, 30, cfg.Endpoint.TimeoutSeconds)
	assert.Equal(t, []string{"1", "2"}, cfg.Study.Whitelist)
	// untouched keys keep their defaults
	assert.Equal(t, DefaultStudy, cfg.Study.Name)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("COHORT_ENDPOINT_URL", "http://sparql.internal:9999/sparql")
	t.Setenv("COHORT_DATABASE_PATH", "/tmp/override.db")
	Reset()
	t.Cleanup(Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://sparql.internal:9999/sparql", cfg.Endpoint.URL)
	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		v := viper.New()
		SetDefaults(v)
		cfg, err := LoadWithViper(v)
		require.NoError(t, err)
		return *cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty endpoint",
			mutate:  func(c *Config) { c.Endpoint.URL = "" },
			wantErr: "endpoint.url cannot be empty",
		},
		{
			name:    "non-http endpoint",
			mutate:  func(c *Config) { c.Endpoint.URL = "file:///etc/passwd" },
			wantErr: "must be http or https",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Endpoint.TimeoutSeconds = -1 },
			wantErr: "timeout_seconds",
		},
		{
			name:   "zero timeout means none",
			mutate: func(c *Config) { c.Endpoint.TimeoutSeconds = 0 },
		},
		{
			name:    "negative rate",
			mutate:  func(c *Config) { c.Endpoint.RequestsPerSecond = -0.5 },
			wantErr: "requests_per_second",
		},
		{
			name:    "empty study",
			mutate:  func(c *Config) { c.Study.Name = "" },
			wantErr: "study.name",
		},
		{
			name:    "duplicate whitelist code",
			mutate:  func(c *Config) { c.Study.Whitelist = []string{"1", "2", "1"} },
			wantErr: "duplicate code \"1\"",
		},
		{
			name:    "empty whitelist code",
			mutate:  func(c *Config) { c.Study.Whitelist = []string{"1", ""} },
			wantErr: "empty codes",
		},
		{
			name:   "empty whitelist falls back to study default",
			mutate: func(c *Config) { c.Study.Whitelist = nil },
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
