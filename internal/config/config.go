// Package config loads config.yaml for the masquerade binary using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	fileName = "config"
	fileType = "yaml"
	fileExt  = "config.yaml"

	// CatalogFile is the starter catalog written next to config.yaml by init.
	CatalogFile = "catalog.toml"
)

// Config keys.
const (
	KeyLogLevel           = "log_level"
	KeyCatalog            = "catalog"
	KeyDefaultPermissions = "permissions.default"
	KeyPlayerPermissions  = "permissions.players"
)

// Default values.
const (
	DefaultLogLevel = "info"
)

// DefaultPermissions let every player use the base commands and change
// options. Per-entity and per-key nodes still have to be granted.
var DefaultPermissions = []string{"masquerade.mask", "masquerade.mask.option"}

// Config is the resolved configuration.
type Config struct {
	LogLevel           string
	CatalogPath        string
	DefaultPermissions []string
	PlayerPermissions  map[string][]string
}

// File is the on-disk layout written by init.
type File struct {
	LogLevel    string          `yaml:"log_level"`
	Catalog     string          `yaml:"catalog,omitempty"`
	Permissions FilePermissions `yaml:"permissions"`
}

// FilePermissions is the permissions section of config.yaml.
type FilePermissions struct {
	Default []string            `yaml:"default"`
	Players map[string][]string `yaml:"players,omitempty"`
}

// Load reads config.yaml from dir. A missing file yields the defaults.
// A relative catalog path is resolved against dir.
func Load(dir string) (Config, error) {
	v := viper.New()
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyCatalog, "")
	v.SetDefault(KeyDefaultPermissions, DefaultPermissions)
	v.SetConfigName(fileName)
	v.SetConfigType(fileType)
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		LogLevel:           v.GetString(KeyLogLevel),
		CatalogPath:        v.GetString(KeyCatalog),
		DefaultPermissions: v.GetStringSlice(KeyDefaultPermissions),
		PlayerPermissions:  v.GetStringMapStringSlice(KeyPlayerPermissions),
	}
	if cfg.CatalogPath != "" && !filepath.IsAbs(cfg.CatalogPath) {
		cfg.CatalogPath = filepath.Join(dir, cfg.CatalogPath)
	}
	return cfg, nil
}

// WriteDefault creates dir and writes a default config.yaml if none exists.
// It reports whether a file was written.
func WriteDefault(dir string, catalog string) (bool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	path := filepath.Join(dir, fileExt)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	f := File{
		LogLevel: DefaultLogLevel,
		Catalog:  catalog,
		Permissions: FilePermissions{
			Default: DefaultPermissions,
		},
	}
	data, err := yaml.Marshal(&f)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}

	header := "# masquerade configuration\n# Prefix a permission node with \"-\" to deny it.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// Normalize lowercases player names in PlayerPermissions.
func (c *Config) Normalize() {
	if len(c.PlayerPermissions) == 0 {
		return
	}
	out := make(map[string][]string, len(c.PlayerPermissions))
	for name, nodes := range c.PlayerPermissions {
		key := strings.ToLower(name)
		out[key] = append(out[key], nodes...)
	}
	c.PlayerPermissions = out
}
