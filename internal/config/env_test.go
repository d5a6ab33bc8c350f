package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/xbrlgraph/internal/testutil"
)

func TestDefaults(t *testing.T) {
	testutil.SetEnv(t, "XBRL_HOME", "/tmp/xbrl-home")
	ResetEnv()
	defer ResetEnv()

	cfg := Default()
	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4j.URI)
	assert.True(t, cfg.Validation.Tolerance.Equal(decimal.RequireFromString("0.01")))
	assert.True(t, cfg.Validation.ZeroTolerance.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, cfg.Validation.PrimaryOnly)
	assert.Equal(t, 1, cfg.Ingest.Parallel)
	assert.Equal(t, 500, cfg.Ingest.BatchSize)
	assert.Equal(t, filepath.Join("/tmp/xbrl-home", "history.db"), cfg.History.Path)
	require.NoError(t, cfg.Validate())
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "xbrlgraph.yaml", `
neo4j:
  uri: bolt://file-host:7687
  user: reader
validation:
  tolerance: "0.005"
  primary_only: false
log:
  level: debug
ingest:
  parallel: 4
  batch_size: 250
`)
	testutil.SetEnv(t, "NEO4J_URI", "bolt://env-host:7687")
	testutil.SetEnv(t, "XBRL_ZERO_TOLERANCE", "2")
	testutil.SetEnv(t, "XBRL_LOG_PRETTY", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "bolt://env-host:7687", cfg.Neo4j.URI)
	assert.Equal(t, "reader", cfg.Neo4j.User)
	assert.Equal(t, "memgraph", cfg.Neo4j.Database)
	assert.Equal(t, "0.005", cfg.Validation.Tolerance.String())
	assert.Equal(t, "2", cfg.Validation.ZeroTolerance.String())
	assert.False(t, cfg.Validation.PrimaryOnly)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, 4, cfg.Ingest.Parallel)
	assert.Equal(t, 250, cfg.Ingest.BatchSize)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{"zero tolerance", "validation:\n  tolerance: \"0\"\n", nil},
		{"negative zero threshold", "validation:\n  zero_tolerance: \"-1\"\n", nil},
		{"no parallelism", "ingest:\n  parallel: 0\n", nil},
		{"bad env decimal", "", map[string]string{"XBRL_TOLERANCE": "abc"}},
		{"bad env bool", "", map[string]string{"XBRL_LOG_PRETTY": "maybe"}},
		{"bad env int", "", map[string]string{"XBRL_PARALLEL": "many"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				testutil.SetEnv(t, k, v)
			}
			path := testutil.WriteFile(t, t.TempDir(), "c.yaml", tt.yaml)
			_, err := Load(path)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResetEnvSwitchesHome(t *testing.T) {
	testutil.SetEnv(t, "XBRL_HOME", "/srv/first")
	ResetEnv()
	defer ResetEnv()
	assert.Equal(t, "/srv/first", Home())

	testutil.SetEnv(t, "XBRL_HOME", "/srv/second")
	assert.Equal(t, "/srv/first", Home(), "cached until reset")
	ResetEnv()
	assert.Equal(t, "/srv/second", Home())
	assert.Equal(t, filepath.Join("/srv/second", "history.db"), Default().History.Path)
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	testutil.SetEnv(t, "XBRL_HOME", dir)
	ResetEnv()
	defer ResetEnv()

	assert.Equal(t, "/etc/xbrlgraph.yaml", Resolve("/etc/xbrlgraph.yaml"))
	assert.Empty(t, Resolve(""))

	path := testutil.WriteFile(t, dir, DefaultFile, "ingest:\n  parallel: 3\n")
	assert.Equal(t, path, Resolve(""))

	cfg, err := Load(Resolve(""))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Ingest.Parallel)
}

func TestPath(t *testing.T) {
	testutil.SetEnv(t, "XBRL_HOME", "/srv/xbrl")
	ResetEnv()
	defer ResetEnv()

	assert.Equal(t, "/srv/xbrl", Home())
	assert.Equal(t, filepath.Join("/srv/xbrl", "sub", "file.db"), Path("sub", "file.db"))
}
