/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/udflash/pkg/crc"
)

// Flash backends
const (
	BackendMemory = "memory"
	BackendPebble = "pebble"
)

// Config represents the udflash configuration
type Config struct {
	Flash              Flash    `yaml:"flash"`
	CRC                CRC      `yaml:"crc"`
	VerifyAfterProgram bool     `yaml:"verify_after_program"`
	Server             Server   `yaml:"server"`
	Security           Security `yaml:"security"`
	Logging            Logging  `yaml:"logging"`
}

// Flash describes the device backing the record
type Flash struct {
	Backend         string  `yaml:"backend"`
	DataDir         string  `yaml:"data_dir"`
	BaseAddress     Address `yaml:"base_address"`
	StrictWriteOnce bool    `yaml:"strict_write_once"`
}

// CRC selects the checksum engine
type CRC struct {
	Algorithm string `yaml:"algorithm"`
}

// Server contains HTTP API settings
type Server struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

// Security contains security-related configuration
type Security struct {
	APIKey string `yaml:"api_key"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// SlogLevel parses Level ("debug", "info", "warn", "error")
func (l Logging) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid logging.level %q: %w", l.Level, err)
	}
	return level, nil
}

// Address is a flash address written as hex in YAML
type Address uint32

// MarshalYAML implements yaml.Marshaler
func (a Address) MarshalYAML() (interface{}, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprintf("0x%08X", uint32(a))}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (a *Address) UnmarshalYAML(value *yaml.Node) error {
	v, err := strconv.ParseUint(value.Value, 0, 32)
	if err != nil {
		return fmt.Errorf("invalid flash address %q: %w", value.Value, err)
	}
	*a = Address(v)
	return nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Flash: Flash{
			Backend:         BackendPebble,
			DataDir:         "./data",
			BaseAddress:     0x0802FD00,
			StrictWriteOnce: true,
		},
		CRC: CRC{
			Algorithm: crc.AlgorithmSTM32,
		},
		Server: Server{
			Bind: "127.0.0.1",
			Port: 8080,
		},
		Security: Security{
			APIKey: "auto",
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// Validate checks the configuration for values the engine cannot use
func (c *Config) Validate() error {
	switch c.Flash.Backend {
	case BackendMemory:
	case BackendPebble:
		if c.Flash.DataDir == "" {
			return fmt.Errorf("flash.data_dir is required for the %s backend", BackendPebble)
		}
	default:
		return fmt.Errorf("unknown flash backend %q", c.Flash.Backend)
	}

	if c.Flash.BaseAddress%4 != 0 {
		return fmt.Errorf("flash.base_address 0x%08X is not word aligned", uint32(c.Flash.BaseAddress))
	}

	if _, err := crc.ByName(c.CRC.Algorithm); err != nil {
		return err
	}

	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}

// LoadConfig loads configuration from the specified path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with secure permissions (0600)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig creates a new configuration with a generated API key and saves it
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.Flash.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Security.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./udflash.yaml"
	}

	// For Linux/macOS, use ~/.config/udflash/config.yaml
	configDir := filepath.Join(homeDir, ".config", "udflash")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
