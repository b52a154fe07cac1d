package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		configData  string
		envVars     map[string]string
		expectError bool
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name: "Valid config file",
			configData: `
api:
  port: 8080
auth:
  type: basic_auth
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.API.Port)
				assert.Equal(t, AuthBasic, cfg.Auth.Type)
				assert.Equal(t, "_my_session_id", cfg.Auth.SessionName)
				assert.Equal(t, DefaultExcludedPaths, cfg.Auth.ExcludedPaths)
			},
		},
		{
			name:        "Invalid config file",
			configData:  "api:\n  port: invalid\n",
			expectError: true,
		},
		{
			name:        "Unknown auth type",
			configData:  "auth:\n  type: oauth\n",
			expectError: true,
		},
		{
			name:       "Historical environment names override the file",
			configData: "api:\n  port: 8080\n",
			envVars: map[string]string{
				"API_PORT":         "9090",
				"AUTH_TYPE":        "session_exp_auth",
				"SESSION_NAME":     "_sid",
				"SESSION_DURATION": "60",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.API.Port)
				assert.Equal(t, AuthSessionExp, cfg.Auth.Type)
				assert.Equal(t, "_sid", cfg.Auth.SessionName)
				require.NotNil(t, cfg.Auth.SessionTTL())
				assert.Equal(t, time.Minute, *cfg.Auth.SessionTTL())
			},
		},
		{
			name:       "Nested keys from the environment",
			configData: "",
			envVars: map[string]string{
				"DATABASE_DRIVER":      "postgres",
				"AUTH_SESSION_BACKEND": "redis",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgres", cfg.Database.Driver)
				assert.Equal(t, BackendRedis, cfg.Auth.SessionBackend)
			},
		},
		{
			name:       "Empty AUTH_TYPE disables the gate",
			configData: "auth:\n  type: basic_auth\n",
			envVars:    map[string]string{"AUTH_TYPE": " "},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, AuthDisabled, cfg.Auth.Type)
			},
		},
		{
			name:       "Explicit auth keeps the base strategy",
			configData: "",
			envVars:    map[string]string{"AUTH_TYPE": "auth"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, AuthNone, cfg.Auth.Type)
			},
		},
		{
			name:        "Token auth without a secret",
			configData:  "auth:\n  type: token_auth\n",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.configData)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := LoadConfig(path, nil)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nonexistent.yml"), nil)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.API.Port)
	assert.Equal(t, AuthDisabled, cfg.Auth.Type)
	assert.Equal(t, "0.0.0.0:5000", cfg.API.Addr())
}

func TestLoadConfigFlags(t *testing.T) {
	flags := pflag.NewFlagSet("api", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	flags.String("auth-type", "", "")
	require.NoError(t, flags.Parse([]string{"--port", "7000", "--auth-type", "session_auth"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.API.Port)
	assert.Equal(t, AuthSession, cfg.Auth.Type)
}

func TestSessionTTL(t *testing.T) {
	tests := []struct {
		in   string
		want *time.Duration
	}{
		{"", nil},
		{"abc", nil},
		{"0", nil},
		{"-5", nil},
		{" 30 ", ptr(30 * time.Second)},
	}
	for _, tt := range tests {
		got := AuthConfig{SessionDuration: tt.in}.SessionTTL()
		if tt.want == nil {
			assert.Nil(t, got, tt.in)
			continue
		}
		require.NotNil(t, got, tt.in)
		assert.Equal(t, *tt.want, *got)
	}
}

func TestValidateStorage(t *testing.T) {
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	cfg.Storage.Driver = "s3"
	assert.Error(t, cfg.Validate())

	cfg.Storage.S3.Bucket = "users"
	assert.NoError(t, cfg.Validate())

	cfg.Auth.SessionBackend = "memcache"
	assert.Error(t, cfg.Validate())
}

func ptr[T any](v T) *T { return &v }
