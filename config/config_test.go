package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/miniblocks/blocks"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	f, err := Load("")
	require.NoError(t, err)

	c, err := f.EnvConfig()
	require.NoError(t, err)
	assert.Equal(t, blocks.DefaultConfig(), c)
	assert.Equal(t, ":8080", f.Server.Addr)

	timeout, err := f.Timeout()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), timeout)
}

func TestLoadMaze(t *testing.T) {
	path := writeConfig(t, `
env:
  size: 12
  layout: maze
  agent_mode: ghost
  view_size: 5
  seed: 42
  maze:
    d1: 6
    rotation: 2
experiment:
  episodes: 50
  horizon: 200
  timeout: 2s
store:
  sqlite: results/episodes.db
`)
	f, err := Load(path)
	require.NoError(t, err)

	c, err := f.EnvConfig()
	require.NoError(t, err)
	assert.Equal(t, 12, c.Size)
	assert.Equal(t, blocks.LayoutMaze, c.Layout)
	assert.Equal(t, blocks.AgentGhost, c.AgentMode)
	assert.Equal(t, 5, c.ViewSize)
	assert.Equal(t, uint64(42), c.Seed)
	require.NotNil(t, c.Maze.D1)
	assert.Equal(t, 6, *c.Maze.D1)
	assert.Nil(t, c.Maze.D2)
	assert.Equal(t, 2, *c.Maze.Rotation)
	// untouched fields keep their defaults
	assert.Equal(t, blocks.DefaultStepLimitFactor, c.StepLimitFactor)

	assert.Equal(t, 50, f.Experiment.Episodes)
	assert.Equal(t, 200, f.Experiment.Horizon)
	assert.Equal(t, "results/episodes.db", f.Store.SQLitePath)
	timeout, err := f.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, timeout)
}

func TestLoadRejectsInvalidDocument(t *testing.T) {
	cases := map[string]string{
		"unknown key":  "env:\n  colour: red\n",
		"bad layout":   "env:\n  layout: spiral\n",
		"small size":   "env:\n  size: 3\n",
		"maze range":   "env:\n  maze:\n    d2: 7\n",
		"bad timeout":  "experiment:\n  timeout: soon\n",
		"wrong type":   "experiment:\n  episodes: many\n",
		"bad gin mode": "server:\n  gin_mode: loud\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.ErrorIs(t, err, blocks.ErrConfig)
		})
	}
}

func TestLoadEmptyFile(t *testing.T) {
	f, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), f)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MINIBLOCKS_SIZE", "10")
	t.Setenv("MINIBLOCKS_SEED", "7")
	t.Setenv("MINIBLOCKS_LAYOUT", "fam")
	t.Setenv("MINIBLOCKS_EPISODES", "3")
	t.Setenv("MINIBLOCKS_REDIS_ADDR", "localhost:6379")

	f, err := Load(writeConfig(t, "env:\n  size: 9\n"))
	require.NoError(t, err)
	assert.Equal(t, 10, f.Env.Size)
	assert.Equal(t, uint64(7), f.Env.Seed)
	assert.Equal(t, "fam", f.Env.Layout)
	assert.Equal(t, 3, f.Experiment.Episodes)
	assert.Equal(t, "localhost:6379", f.Store.RedisAddr)

	t.Setenv("MINIBLOCKS_HORIZON", "lots")
	_, err = Load("")
	assert.ErrorIs(t, err, blocks.ErrConfig)
}

func TestEnvConfigValidates(t *testing.T) {
	f := Default()
	f.Env.AgentMode = "invisible"
	_, err := f.EnvConfig()
	assert.ErrorIs(t, err, blocks.ErrConfig)

	f = Default()
	f.Env.ViewSize = 4
	_, err = f.EnvConfig()
	assert.ErrorIs(t, err, blocks.ErrConfig)
}
