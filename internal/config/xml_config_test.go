package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_CreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MotionConsole.exe.config")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, "http://192.168.1.88:5000", cfg.Controller.BaseURL)
	assert.Equal(t, 1000, cfg.Polling.TelemetryIntervalMs)
	assert.True(t, cfg.History.Enabled)

	// First run writes the file so operators can edit it.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestLoadConfig_ParsesXML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "MotionConsole.exe.config")
	doc := `<?xml version="1.0"?>
<MotionConsole>
  <Server>
    <Port>9000</Port>
    <BindAddress>127.0.0.1</BindAddress>
    <BodyLimit>2M</BodyLimit>
  </Server>
  <Controller>
    <BaseURL>http://10.0.0.5:5000</BaseURL>
    <RequestTimeoutSeconds>5</RequestTimeoutSeconds>
  </Controller>
  <Polling>
    <TelemetryIntervalMs>500</TelemetryIntervalMs>
    <AutorunIntervalMs>2000</AutorunIntervalMs>
  </Polling>
  <History>
    <Enabled>true</Enabled>
    <DataDirectory>./archive</DataDirectory>
  </History>
</MotionConsole>`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.GetServerAddr())
	assert.Equal(t, "http://10.0.0.5:5000", cfg.Controller.BaseURL)
	assert.Equal(t, 500, cfg.Polling.TelemetryIntervalMs)
	assert.Equal(t, 2000, cfg.Polling.AutorunIntervalMs)

	// Relative paths resolve against the config file location.
	assert.Equal(t, filepath.Join(dir, "archive"), cfg.History.DataDirectory)
}

func TestLoadConfig_InvalidXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MotionConsole.exe.config")
	require.NoError(t, os.WriteFile(path, []byte("<MotionConsole><broken"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("CONTROLLER_URL", "http://172.16.0.9:5000")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "MotionConsole.exe.config"))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "http://172.16.0.9:5000", cfg.Controller.BaseURL)
}

func TestCameraBaseDefaultsToController(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, cfg.Controller.BaseURL, cfg.CameraBase())
	assert.Equal(t, cfg.Controller.BaseURL, cfg.MultispecBase())

	cfg.Camera.CameraBaseURL = "http://10.0.0.7:8080"
	assert.Equal(t, "http://10.0.0.7:8080", cfg.CameraBase())
}
