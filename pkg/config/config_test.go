package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "acsfetch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
year: 2023
state: "13"
counties: ["089", "121"]
tables:
  - code: B25003
    label: Tenure
`

func TestLoad_Minimal(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 2023, cfg.Year)
	assert.Equal(t, "13", cfg.State)
	assert.Equal(t, []string{"089", "121"}, cfg.Counties)
	require.Len(t, cfg.Tables, 1)
	assert.Equal(t, "B25003", cfg.Tables[0].Code)
	assert.Equal(t, "Tenure", cfg.Tables[0].Label)

	// Defaults
	assert.Equal(t, "acs/acs5", cfg.Dataset)
	assert.Equal(t, "https://api.census.gov", cfg.BaseURL)
	assert.Equal(t, "ARC", cfg.Region)
	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, 20, cfg.MaxChunkVars)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.InitialBackoff.Std())
	assert.Equal(t, 30*time.Second, cfg.MaxBackoff.Std())
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout.Std())
	assert.Equal(t, time.Duration(0), cfg.RequestPause.Std())
}

func TestLoad_FullConfig(t *testing.T) {
	content := `
year: 2023
dataset: acs/acs5
base_url: http://localhost:8080
api_key: abc123
region: ATL
output_dir: /tmp/out
state: "13"
counties: ["015"]
max_chunk_vars: 10
max_attempts: 3
initial_backoff: 500ms
max_backoff: 10s
request_timeout: 45s
request_pause: 250ms
tables:
  - code: B25003
    label: Tenure
    variables: [B25003_001E, B25003_001M]
  - code: B03002
    label: RaceEthnicity
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "abc123", cfg.APIKey)
	assert.Equal(t, 10, cfg.MaxChunkVars)
	assert.Equal(t, 500*time.Millisecond, cfg.InitialBackoff.Std())
	assert.Equal(t, 250*time.Millisecond, cfg.RequestPause.Std())
	assert.Equal(t, []string{"B25003_001E", "B25003_001M"}, cfg.Tables[0].Variables)
	assert.Empty(t, cfg.Tables[1].Variables)
}

func TestLoad_EnvOverridesAPIKey(t *testing.T) {
	t.Setenv(APIKeyEnv, "env-key")

	cfg, err := Load(writeConfig(t, minimalConfig+"api_key: file-key\n"))
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey)
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+"request_timeout: soon\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing year",
			mutate:  func(c *Config) { c.Year = 0 },
			wantErr: "year",
		},
		{
			name:    "missing state",
			mutate:  func(c *Config) { c.State = "" },
			wantErr: "state",
		},
		{
			name:    "no counties",
			mutate:  func(c *Config) { c.Counties = nil },
			wantErr: "county",
		},
		{
			name:    "no tables",
			mutate:  func(c *Config) { c.Tables = nil },
			wantErr: "table",
		},
		{
			name:    "table without code",
			mutate:  func(c *Config) { c.Tables[0].Code = "" },
			wantErr: "code",
		},
		{
			name:    "table without label",
			mutate:  func(c *Config) { c.Tables[0].Label = "" },
			wantErr: "label",
		},
		{
			name:    "negative chunk size",
			mutate:  func(c *Config) { c.MaxChunkVars = -1 },
			wantErr: "max_chunk_vars",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, minimalConfig))
			require.NoError(t, err)

			tt.mutate(&cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOutputPath(t *testing.T) {
	cfg := Config{Region: "ARC", OutputDir: "/data/out", Year: 2023}
	tg := TableGroup{Code: "B25003", Label: "Tenure"}

	assert.Equal(t, filepath.Join("/data/out", "ARC_Tenure_2023_BG.csv"), cfg.OutputPath(tg))
}
