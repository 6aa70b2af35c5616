package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// Config represents the global ~/.boosthub/config.toml.
type Config struct {
	DefaultSession string `toml:"default_session"`

	Auth AuthConfig `toml:"auth"`
	Blob BlobConfig `toml:"blob"`
	Geo  GeoConfig  `toml:"geo"`
}

// AuthConfig points at the identity service.
type AuthConfig struct {
	Endpoint string `toml:"endpoint" validate:"required,url"`
	APIKey   string `toml:"api_key" validate:"required"`
}

// BlobConfig holds the S3-compatible blob store credentials.
type BlobConfig struct {
	Endpoint         string `toml:"endpoint" validate:"required,url"`
	Region           string `toml:"region"`
	Bucket           string `toml:"bucket" validate:"required"`
	AccessKeyID      string `toml:"access_key_id" validate:"required"`
	SecretAccessKey  string `toml:"secret_access_key" validate:"required"`
	URLExpiryMinutes int    `toml:"url_expiry_minutes" validate:"gte=0"`
}

// GeoConfig points at the geocoding provider.
type GeoConfig struct {
	Endpoint   string `toml:"endpoint" validate:"required,url"`
	MaxResults int    `toml:"max_results" validate:"gte=0"`
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// Validate checks that every collaborator section is usable.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func (c *Config) applyDefaults() {
	if c.Blob.Region == "" {
		c.Blob.Region = "auto"
	}
	if c.Blob.URLExpiryMinutes == 0 {
		c.Blob.URLExpiryMinutes = 5
	}
	if c.Geo.MaxResults == 0 {
		c.Geo.MaxResults = 5
	}
}
