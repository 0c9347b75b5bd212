// Copyright 2025 The Mimir Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config loads the Mimir server configuration from YAML, with
// ${VAR} environment variable substitution, defaults, and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mimir-kb/mimir/ai"
)

// Config holds the Mimir server configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
}

// DatabaseConfig holds storage settings.
type DatabaseConfig struct {
	Path string `yaml:"path"` // badger database directory
}

// ServerConfig holds MCP server settings.
type ServerConfig struct {
	Name     string `yaml:"name"`
	LogLevel string `yaml:"log_level"` // debug, info, warn, error (default: info)
	HTTPAddr string `yaml:"http_addr"` // empty means stdio transport
}

// EmbeddingsConfig holds embedding provider settings.
type EmbeddingsConfig struct {
	Host      string `yaml:"host"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
}

// Default returns the configuration used when no config file is given.
func Default() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// Load reads configuration from a YAML file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "mimir-data"
	}
	if c.Server.Name == "" {
		c.Server.Name = "mimir"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Embeddings.Host == "" {
		c.Embeddings.Host = "http://localhost:11434/v1"
	}
	if c.Embeddings.Model == "" {
		c.Embeddings.Model = "all-minilm"
	}
	if c.Embeddings.Dimension <= 0 {
		c.Embeddings.Dimension = ai.DefaultDimension
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
		// ok
	default:
		return fmt.Errorf("server.log_level must be debug, info, warn, or error, got %q", c.Server.LogLevel)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}

// AIConfig converts the embeddings section to the provider configuration.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.Embeddings.Host),
		ai.WithEmbeddingModel(c.Embeddings.Model),
		ai.WithDimension(c.Embeddings.Dimension),
	)
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
