package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/worktrack/internal/auth"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvBackend, EnvSQLitePath, EnvRedisAddr, EnvRedisPassword,
		EnvRedisDB, EnvPasswordPolicy,
	} {
		t.Setenv(key, "")
	}
	// t.Setenv cannot unset; restore by hand.
	prev, had := os.LookupEnv(EnvKeyPrefix)
	require.NoError(t, os.Unsetenv(EnvKeyPrefix))
	t.Cleanup(func() {
		if had {
			os.Setenv(EnvKeyPrefix, prev)
		}
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worktrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("", false)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "worktrack_", cfg.KeyPrefix)
	assert.Equal(t, auth.PolicyAny, cfg.PasswordPolicy)
}

func TestLoad_MissingOptionalFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingRequiredFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
backend: redis
key_prefix: team_a_
password_policy: role
redis:
  addr: cache:6379
  db: 2
`)

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.Backend)
	assert.Equal(t, "team_a_", cfg.KeyPrefix)
	assert.Equal(t, auth.PolicyRole, cfg.PasswordPolicy)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, DefaultSQLitePath, cfg.SQLite.Path)
}

func TestLoad_EmptyFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(writeConfig(t, "\n"), true)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_RejectsUnknownField(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, "backnd: memory\n"), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "backend: redis\nsqlite:\n  path: from-file.db\n")

	t.Setenv(EnvBackend, "sqlite")
	t.Setenv(EnvSQLitePath, "/var/lib/worktrack/data.db")
	t.Setenv(EnvRedisDB, "3")
	t.Setenv(EnvKeyPrefix, "")

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "/var/lib/worktrack/data.db", cfg.SQLite.Path)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "", cfg.KeyPrefix)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"unknown backend", map[string]string{EnvBackend: "postgres"}, "unknown backend"},
		{"bad redis db", map[string]string{EnvRedisDB: "two"}, "not an integer"},
		{"redis db out of range", map[string]string{EnvRedisDB: "16"}, "between 0 and 15"},
		{"bad policy", map[string]string{EnvPasswordPolicy: "strict"}, "invalid password policy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load("", false)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_NormalizesBackendCase(t *testing.T) {
	cfg := Default()
	cfg.Backend = "Memory"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendMemory, cfg.Backend)
}
