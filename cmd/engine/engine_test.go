package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internlee-engine/internal/config"
	"internlee-engine/internal/logging"
)

func TestBuildSourcesKeepsPublishingOrder(t *testing.T) {
	cfg := config.Default()
	cfg.Sources.Naukri.Enabled = false
	cfg.Aggregate.Parallel = true

	sources, agg := buildSources(cfg, logging.Nop())

	var names []string
	for _, s := range sources {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"unstop", "internshala", "glassdoor"}, names)
	assert.True(t, agg.Parallel)
	assert.False(t, agg.IsolateFatal)
	assert.NotNil(t, agg.Open)
}

func TestBuildSourcesNoneEnabled(t *testing.T) {
	cfg := config.Default()
	cfg.Sources.Unstop.Enabled = false
	cfg.Sources.Internshala.Enabled = false
	cfg.Sources.Naukri.Enabled = false
	cfg.Sources.Glassdoor.Enabled = false

	sources, _ := buildSources(cfg, logging.Nop())
	assert.Empty(t, sources)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConfigInitAndCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")

	out, err := execute(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")
	assert.FileExists(t, path)

	_, err = execute(t, "--config", path, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "--config", path, "config", "init", "--force")
	require.NoError(t, err)

	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("STORE_DSN", "internlee.db")
	out, err = execute(t, "--config", path, "config", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "config ok")
}

func TestConfigCheckReportsErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	_, err := execute(t, "--config", path, "config", "init")
	require.NoError(t, err)

	t.Setenv("STORE_DRIVER", "mysql")
	t.Setenv("STORE_DSN", "x")
	_, err = execute(t, "--config", path, "config", "check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
}
