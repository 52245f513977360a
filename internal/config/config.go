// Package config описывает конфигурацию клиента и relay-сервера.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// ClientConfig конфигурация локального клиента.
type ClientConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	DataDir  string     `yaml:"data_dir"`
	Sync     SyncConfig `yaml:"sync"`
}

// Validate validates the client configuration.
func (c *ClientConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.DataDir, validation.Required),
	); err != nil {
		return err
	}
	return c.Sync.Validate()
}

// SnapshotPath возвращает путь файла снимка документа.
func (c *ClientConfig) SnapshotPath() string {
	return filepath.Join(c.DataDir, "document.snapshot")
}

// IdentityPath возвращает путь файла идентификатора.
func (c *ClientConfig) IdentityPath() string {
	return filepath.Join(c.DataDir, "identity")
}

// SyncStatePath возвращает путь локальной базы состояния синхронизации.
func (c *ClientConfig) SyncStatePath() string {
	return filepath.Join(c.DataDir, "sync.db")
}

// SyncConfig конфигурация подключения к relay.
type SyncConfig struct {
	RelayURL string `yaml:"relay_url"`
	Enabled  bool   `yaml:"enabled"`
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.RelayURL, validation.Required, is.RequestURL),
	); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	return nil
}

// RelayConfig конфигурация relay-сервера.
type RelayConfig struct {
	LogLevel slog.Level   `yaml:"log_level"`
	HTTP     HTTPConfig   `yaml:"http"`
	SQLite   SQLiteConfig `yaml:"sqlite"`
}

// Validate validates the relay configuration.
func (c *RelayConfig) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	return c.SQLite.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// NewDefaultClientConfig returns a client config with sensible defaults.
func NewDefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		LogLevel: slog.LevelInfo,
		DataDir:  defaultDataDir(),
		Sync: SyncConfig{
			Enabled:  false,
			RelayURL: "ws://localhost:8080/sync",
		},
	}
}

// NewDefaultRelayConfig returns a relay config with sensible defaults.
func NewDefaultRelayConfig() *RelayConfig {
	return &RelayConfig{
		LogLevel: slog.LevelInfo,
		HTTP:     HTTPConfig{Port: 8080},
		SQLite:   SQLiteConfig{Path: "./relay.db"},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./linkkeeper-data"
	}
	return filepath.Join(home, ".linkkeeper")
}
