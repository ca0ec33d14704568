package core

import (
	"errors"
	"fmt"
	"os"

	"github.com/jo-hoe/gopassgen/internal/backend/database"
	"github.com/jo-hoe/gopassgen/internal/generator"
	"github.com/jo-hoe/gopassgen/internal/store"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort     = 8080
	defaultIconSize = 180
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Database struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
}

type GeneratorConfig struct {
	Length       int  `yaml:"length"`
	AllowNumbers bool `yaml:"allowNumbers"`
	AllowSymbols bool `yaml:"allowSymbols"`
	// CryptoRandom draws characters from crypto/rand instead of math/rand.
	CryptoRandom bool `yaml:"cryptoRandom"`
}

type FrontendConfig struct {
	IconSize int `yaml:"iconSize"`
}

type ServiceConfig struct {
	Port       int             `yaml:"port"`
	Database   Database        `yaml:"database"`
	StorageKey string          `yaml:"storageKey"`
	Generator  GeneratorConfig `yaml:"generator"`
	Frontend   FrontendConfig  `yaml:"frontend"`
}

// DefaultConfig returns a config with an on-disk sqlite database in the
// working directory.
func DefaultConfig() *ServiceConfig {
	return &ServiceConfig{
		Port: defaultPort,
		Database: Database{
			Type:             database.TypeSQLite,
			ConnectionString: "passwords.db",
		},
		StorageKey: store.DefaultKey,
		Generator: GeneratorConfig{
			Length: generator.DefaultLength,
		},
		Frontend: FrontendConfig{
			IconSize: defaultIconSize,
		},
	}
}

// LoadConfig loads configuration from the specified YAML file
func LoadConfig(configPath string) (*ServiceConfig, error) {
	// Read the config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Fields missing from the file keep their defaults
	config := DefaultConfig()
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *ServiceConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	switch c.Database.Type {
	case database.TypeSQLite, database.TypeRedis:
	default:
		return fmt.Errorf("%w: unsupported database type %q", ErrInvalidConfig, c.Database.Type)
	}
	if c.Database.ConnectionString == "" {
		return fmt.Errorf("%w: database connectionString is empty", ErrInvalidConfig)
	}
	if c.StorageKey == "" {
		return fmt.Errorf("%w: storageKey is empty", ErrInvalidConfig)
	}
	if err := c.Generator.Defaults().Validate(); err != nil {
		return fmt.Errorf("%w: generator %v", ErrInvalidConfig, err)
	}
	if c.Frontend.IconSize <= 0 {
		return fmt.Errorf("%w: frontend iconSize must be positive", ErrInvalidConfig)
	}
	return nil
}

// Defaults returns the generator settings shown when the service starts.
func (g GeneratorConfig) Defaults() generator.Config {
	return generator.Config{
		Length:       g.Length,
		AllowNumbers: g.AllowNumbers,
		AllowSymbols: g.AllowSymbols,
	}
}
