package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetAfterTest(t *testing.T, keys ...string) {
	t.Cleanup(func() {
		for _, key := range keys {
			os.Unsetenv(key)
		}
	})
}

func TestLoadEnvConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	config, err := LoadEnvConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", config.DBDriver)
	assert.Equal(t, ":memory:", config.DBConnectionString)
	assert.Equal(t, 5*time.Minute, config.DBConnMaxLifetime)
	assert.True(t, config.DBInitSchema)
	assert.Equal(t, "localhost:8080", config.Address())
	assert.Equal(t, "/odata", config.ServerRoutePrefix)
	assert.False(t, config.AuthEnabled())
	assert.False(t, config.LogSQL)
	assert.Empty(t, config.EnvFile)
}

func TestLoadEnvConfig_EnvFileInParentDirectory(t *testing.T) {
	root := t.TempDir()
	content := "DB_DRIVER=postgresql\nDB_CONNECTION_STRING=\"postgres://demo@localhost/demo\"\nSERVER_PORT=9090\nSERVER_ROUTE_PREFIX=api/\nLOG_SQL=true\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte(content), 0o600))
	unsetAfterTest(t, "DB_DRIVER", "DB_CONNECTION_STRING", "SERVER_PORT", "SERVER_ROUTE_PREFIX", "LOG_SQL")

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	config, err := LoadEnvConfig(NewViper())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, ".env"), config.EnvFile)
	assert.Equal(t, "postgresql", config.DBDriver)
	assert.Equal(t, "postgres://demo@localhost/demo", config.DBConnectionString)
	assert.Equal(t, 9090, config.ServerPort)
	assert.Equal(t, "/api", config.ServerRoutePrefix)
	assert.True(t, config.LogSQL)
}

func TestLoadEnvConfig_EnvironmentWins(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("SERVER_HOST=from-file\n"), 0o600))
	t.Chdir(root)
	t.Setenv("SERVER_HOST", "from-env")

	config, err := LoadEnvConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env", config.ServerHost)
}

func TestLoadEnvConfig_ViperOverride(t *testing.T) {
	t.Chdir(t.TempDir())

	v := NewViper()
	v.Set(KeyDBDriver, "mysql")
	v.Set(KeyServerPort, 7000)

	config, err := LoadEnvConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "mysql", config.DBDriver)
	assert.Equal(t, 7000, config.ServerPort)
}

func TestEnvConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		config EnvConfig
		valid  bool
	}{
		{"Valid", EnvConfig{DBDriver: "sqlite", ServerPort: 8080}, true},
		{"MissingDriver", EnvConfig{ServerPort: 8080}, false},
		{"InvalidPort", EnvConfig{DBDriver: "sqlite", ServerPort: 70000}, false},
		{"UserWithoutHash", EnvConfig{DBDriver: "sqlite", ServerPort: 8080, AuthUser: "admin"}, false},
		{"UserWithHash", EnvConfig{DBDriver: "sqlite", ServerPort: 8080, AuthUser: "admin", AuthPasswordHash: "$2a$"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
