package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
transport:
  type: tcp
  device: 192.168.1.50:5000
mqtt:
  broker: tcp://broker.local:1883
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp", cfg.Transport.Type)
	assert.Equal(t, "192.168.1.50:5000", cfg.Transport.Device)
	assert.Equal(t, "tcp://broker.local:1883", cfg.MQTT.Broker)
	// Untouched defaults survive the merge.
	assert.True(t, cfg.Controller.TeachIn)
	assert.Equal(t, "EEP.xml", cfg.Controller.EEPPath)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestAppendEquipmentPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("transport:\n  type: serial\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	eq := EquipmentConfig{ID: "1", Name: "kitchen-temp", Address: "0181B744", RORG: "A5", Func: "02", Type: "05"}
	require.NoError(t, cfg.AppendEquipment(eq))

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, reloaded.Equipments, 1)
	assert.Equal(t, "kitchen-temp", reloaded.Equipments[0].Name)
}
