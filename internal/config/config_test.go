package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "advisory.observations", cfg.Kafka.Topic)
	assert.Nil(t, cfg.Authority)
}

func TestLoadYAML(t *testing.T) {
	content := `
authority:
  internal_csv: 0
  nvd: 1
  osv: 2
  corpus: 3
templates:
  UPSTREAM_FIX: "Patched in {fixed_version}."
rules:
  - id: R5
    disabled: true
  - id: R2
    priority: 7
workers: 4
sources:
  internal_csv_path: /data/overrides.csv
  osv_path: /data/osv.json
kafka:
  enabled: true
  brokers: ["broker1:9092"]
  topic: custom.topic
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Authority["nvd"])
	assert.Equal(t, "Patched in {fixed_version}.", cfg.Templates["UPSTREAM_FIX"])
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "/data/overrides.csv", cfg.Sources.InternalCSVPath)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, "custom.topic", cfg.Kafka.Topic)
	assert.Equal(t, "advisory-backend", cfg.Kafka.GroupID)

	require.Len(t, cfg.Rules, 2)
	assert.True(t, cfg.Rules[0].Disabled)
	require.NotNil(t, cfg.Rules[1].Priority)
	assert.Equal(t, 7, *cfg.Rules[1].Priority)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
