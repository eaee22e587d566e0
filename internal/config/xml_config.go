// Package config provides XML-based configuration management for the
// motion console server.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"MotionConsole"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Remote motion controller
	Controller ControllerConfig `xml:"Controller"`

	// Polling cadences
	Polling PollingConfig `xml:"Polling"`

	// History archive
	History HistoryConfig `xml:"History"`

	// Camera subsystems
	Camera CameraConfig `xml:"Camera"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// ControllerConfig locates the remote motion/peripheral controller.
type ControllerConfig struct {
	BaseURL        string `xml:"BaseURL"`
	RequestTimeout int    `xml:"RequestTimeoutSeconds"`
}

// PollingConfig contains the fixed poll cadences. Telemetry and autorun
// run on independent timers.
type PollingConfig struct {
	TelemetryIntervalMs int `xml:"TelemetryIntervalMs"`
	AutorunIntervalMs   int `xml:"AutorunIntervalMs"`
}

// HistoryConfig contains telemetry archive settings
type HistoryConfig struct {
	Enabled       bool   `xml:"Enabled"`
	DataDirectory string `xml:"DataDirectory"`
	DuckDBThreads int    `xml:"DuckDBThreads"`
	MemoryLimit   string `xml:"MemoryLimit"`
	RetentionDays int    `xml:"RetentionDays"`
}

// CameraConfig locates the camera and multispectral collaborators.
// Empty values fall back to the controller host.
type CameraConfig struct {
	CameraBaseURL    string `xml:"CameraBaseURL"`
	MultispecBaseURL string `xml:"MultispecBaseURL"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
	DeviceTablePath      string `xml:"DeviceTablePath"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8090,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "4M",
		},
		Controller: ControllerConfig{
			BaseURL:        "http://192.168.1.88:5000",
			RequestTimeout: 10,
		},
		Polling: PollingConfig{
			TelemetryIntervalMs: 1000,
			AutorunIntervalMs:   1000,
		},
		History: HistoryConfig{
			Enabled:       true,
			DataDirectory: "./data/history",
			DuckDBThreads: 2,
			MemoryLimit:   "256MB",
			RetentionDays: 30,
		},
		Camera: CameraConfig{
			CameraBaseURL:    "",
			MultispecBaseURL: "",
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
			DeviceTablePath:      "./data/defaults/devices.yaml",
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		config.applyEnvironmentOverrides()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.resolvePaths(filepath.Dir(configPath))
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &AppConfig{}
	if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Motion Console Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// CONTROLLER_URL override
	if url := os.Getenv("CONTROLLER_URL"); url != "" {
		c.Controller.BaseURL = url
	}

	// HISTORY_DIR override
	if dir := os.Getenv("HISTORY_DIR"); dir != "" {
		c.History.DataDirectory = dir
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.History.DataDirectory) {
		c.History.DataDirectory = filepath.Join(configDir, c.History.DataDirectory)
	}
	if c.Advanced.DeviceTablePath != "" && !filepath.IsAbs(c.Advanced.DeviceTablePath) {
		c.Advanced.DeviceTablePath = filepath.Join(configDir, c.Advanced.DeviceTablePath)
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// CameraBase returns the camera collaborator base URL, defaulting to
// the controller itself.
func (c *AppConfig) CameraBase() string {
	if c.Camera.CameraBaseURL != "" {
		return c.Camera.CameraBaseURL
	}
	return c.Controller.BaseURL
}

// MultispecBase returns the multispectral collaborator base URL,
// defaulting to the controller itself.
func (c *AppConfig) MultispecBase() string {
	if c.Camera.MultispecBaseURL != "" {
		return c.Camera.MultispecBaseURL
	}
	return c.Controller.BaseURL
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.History.DataDirectory,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
