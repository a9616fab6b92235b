package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const minimalConfig = `
server:
  host: localhost
  port: 8080
auth:
  jwt_secret: "0123456789abcdef0123456789abcdef"
  internal_api_secret: "internal"
`

func TestLoad(t *testing.T) {
	t.Run("MinimalWithDefaults", func(t *testing.T) {
		cfg, err := Load(writeConfigFile(t, minimalConfig))
		require.NoError(t, err)

		assert.Equal(t, "memory", cfg.Store.Type)
		assert.Equal(t, "jwt", cfg.Auth.Mode)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, 450, cfg.Reset.ChunkSize)
		assert.Equal(t, "0 0 * * * *", cfg.Scheduler.SimulateProfits)
		assert.Equal(t, "0 0 0 1 * *", cfg.Scheduler.ResetMonthlyStats)

		assert.Equal(t, 16, cfg.Simulation.PeakStartHour)
		assert.Equal(t, 22, cfg.Simulation.PeakEndHour)
		assert.Equal(t, 1.25, cfg.Simulation.PeakMultiplier)
		assert.Contains(t, cfg.Simulation.Packages, "Standard Port")
		assert.Contains(t, cfg.Simulation.Packages, "High-Traffic Pro Port")
		assert.Equal(t, 0.30, cfg.Simulation.RegionPriceKwh["CA"])
		assert.Equal(t, 0.17, cfg.Simulation.DefaultPriceKwh)

		assert.Equal(t, "localhost:8080", cfg.GetServerAddress())
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "9999")
		t.Setenv("STORE_TYPE", "firestore")
		t.Setenv("FIREBASE_PROJECT_ID", "demo-project")
		t.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load(writeConfigFile(t, minimalConfig))
		require.NoError(t, err)
		assert.Equal(t, 9999, cfg.Server.Port)
		assert.Equal(t, "firestore", cfg.Store.Type)
		assert.Equal(t, "demo-project", cfg.Store.ProjectID)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("RejectsShortJWTSecret", func(t *testing.T) {
		_, err := Load(writeConfigFile(t, `
server:
  port: 8080
auth:
  jwt_secret: "short"
  internal_api_secret: "internal"
`))
		assert.ErrorContains(t, err, "at least 32 characters")
	})

	t.Run("FirestoreRequiresProjectID", func(t *testing.T) {
		_, err := Load(writeConfigFile(t, minimalConfig+`
store:
  type: firestore
`))
		assert.ErrorContains(t, err, "project id")
	})

	t.Run("RejectsOversizedChunk", func(t *testing.T) {
		_, err := Load(writeConfigFile(t, minimalConfig+`
reset:
  chunk_size: 500
`))
		assert.ErrorContains(t, err, "chunk size")
	})

	t.Run("RejectsUnknownStoreType", func(t *testing.T) {
		_, err := Load(writeConfigFile(t, minimalConfig+`
store:
  type: mysql
`))
		assert.ErrorContains(t, err, "unsupported store type")
	})
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Equal(t, "jwt", cfg.Auth.Mode)
	assert.Equal(t, 450, cfg.Reset.ChunkSize)
	assert.NotEmpty(t, cfg.Simulation.Packages)
}

func TestSimulationConfigValidation(t *testing.T) {
	t.Run("RejectsZeroRatedPower", func(t *testing.T) {
		_, err := Load(writeConfigFile(t, minimalConfig+`
simulation:
  packages:
    "Broken Port":
      standard: {chance: 1.0, min: 5, max: 10}
      rated_kw: 0
`))
		assert.ErrorContains(t, err, "rated power")
	})

	t.Run("RejectsInvertedTierRange", func(t *testing.T) {
		_, err := Load(writeConfigFile(t, minimalConfig+`
simulation:
  packages:
    "Broken Port":
      standard: {chance: 1.0, min: 10, max: 5}
      rated_kw: 7.2
`))
		assert.ErrorContains(t, err, "tier range")
	})
}
