package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"command-gatekeeper/internal/domain/entity"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := Defaults()
	cfg.PermissionsPath = filepath.Join(dir, "permissions.yaml")
	cfg.LogPath = filepath.Join(dir, "decisions.log")
	return cfg
}

func TestNewContainerWiresEverything(t *testing.T) {
	container, err := NewContainer(testConfig(t))
	require.NoError(t, err)

	assert.NotNil(t, container.Pipeline())
	assert.NotNil(t, container.Scanner())
	assert.NotNil(t, container.Tables())
	assert.NotNil(t, container.Logger())
	assert.Zero(t, container.Rules().Len(), "missing permissions file means no rules")
}

func TestNewContainerRejectsNilConfig(t *testing.T) {
	_, err := NewContainer(nil)
	assert.Error(t, err)
}

func TestNewContainerFailsOnBadPatterns(t *testing.T) {
	cfg := testConfig(t)
	cfg.DenyPatternsJSON = `[{"pattern": "(a+)+"}]`
	_, err := NewContainer(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom deny patterns")

	cfg = testConfig(t)
	cfg.SafePatternsJSON = `not json`
	_, err = NewContainer(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom safe patterns")
}

func TestSelectJudgeStrategies(t *testing.T) {
	cfg := Defaults()

	cfg.Strategy = StrategyAPI
	assert.Equal(t, entity.MethodAPI, selectJudge(cfg).Method())

	cfg.Strategy = StrategyCLI
	assert.Equal(t, entity.MethodCLI, selectJudge(cfg).Method())

	cfg.Strategy = StrategyAuto
	t.Setenv("ANTHROPIC_API_KEY", "")
	assert.Equal(t, entity.MethodCLI, selectJudge(cfg).Method())

	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	assert.Equal(t, entity.MethodAPI, selectJudge(cfg).Method())
}
