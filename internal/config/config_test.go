package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (*Config, error) {
	t.Helper()

	var cfg Config
	parser, err := kong.New(&cfg, kong.Name("kanso-test"))
	require.NoError(t, err)

	_, err = parser.Parse(args)
	return &cfg, err
}

func TestConfig_Defaults(t *testing.T) {
	cfg, err := parse(t)

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "kanso.db", cfg.DB.DSN())
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, time.Minute, cfg.DayCheckInterval)
	assert.False(t, cfg.AuthEnabled())
	assert.False(t, cfg.RedisEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Environment(t *testing.T) {
	t.Run("Success: Postgres DSN from host fields", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "pgx")
		t.Setenv("DB_USER", "kanso_user")
		t.Setenv("DB_PASSWORD", "secret")
		t.Setenv("DB_NAME", "kanso_db")
		t.Setenv("DB_HOST", "db")

		cfg, err := parse(t)

		require.NoError(t, err)
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "postgres://kanso_user:secret@db:5432/kanso_db?sslmode=disable", cfg.DB.DSN())
	})

	t.Run("Success: Explicit URL wins", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "postgres")
		t.Setenv("DB_URL", "postgres://elsewhere/db")

		cfg, err := parse(t)

		require.NoError(t, err)
		assert.Equal(t, "postgres://elsewhere/db", cfg.DB.DSN())
	})

	t.Run("Success: Flags override the environment", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		t.Setenv("REDIS_ADDR", "localhost:6379")

		cfg, err := parse(t, "--port=9100", "--log-level=debug")

		require.NoError(t, err)
		assert.Equal(t, 9100, cfg.Port)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.True(t, cfg.RedisEnabled())
	})

	t.Run("Fail: Unknown driver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "oracle")

		_, err := parse(t)

		assert.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Run("Fail: Secret without passcode hash", func(t *testing.T) {
		cfg, err := parse(t, "--auth-jwt-secret=s3cret")
		require.NoError(t, err)

		assert.True(t, cfg.AuthEnabled())
		assert.Error(t, cfg.Validate())
	})

	t.Run("Fail: Postgres without credentials", func(t *testing.T) {
		cfg, err := parse(t, "--db-driver=pgx")
		require.NoError(t, err)

		assert.Error(t, cfg.Validate())
	})

	t.Run("Fail: Zero day check interval", func(t *testing.T) {
		cfg, err := parse(t, "--day-check-interval=0s")
		require.NoError(t, err)

		assert.Error(t, cfg.Validate())
	})
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("KANSO_DOTENV_NEW=from-file\nKANSO_DOTENV_SET=from-file\n"), 0o600))

	t.Setenv("KANSO_DOTENV_SET", "from-env")
	t.Cleanup(func() { os.Unsetenv("KANSO_DOTENV_NEW") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))

	assert.Equal(t, "from-file", os.Getenv("KANSO_DOTENV_NEW"))
	assert.Equal(t, "from-env", os.Getenv("KANSO_DOTENV_SET"))
}
