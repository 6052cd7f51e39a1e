// Package config keeps the CLI services configuration.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

type (
	// Config is the YAML configuration file root.
	Config struct {
		LogLevel string       `yaml:"logLevel"`
		Server   ServerConfig `yaml:"server"`
		Client   ClientConfig `yaml:"client"`
	}

	// ServerConfig configures the store RPC server.
	ServerConfig struct {
		Port        int           `yaml:"port"`
		StoreName   string        `yaml:"storeName"`
		SeedFile    string        `yaml:"seedFile"`
		BatchChSize int           `yaml:"batchChSize"`
		BatchPeriod time.Duration `yaml:"batchPeriod"`
	}

	// ClientConfig configures the store RPC client.
	ClientConfig struct {
		ServerURL  string        `yaml:"serverUrl"`
		ClientId   uint32        `yaml:"clientId"`
		PollPeriod time.Duration `yaml:"pollPeriod"`
	}
)

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel: logrus.InfoLevel.String(),
		Server: ServerConfig{
			Port:        2412,
			StoreName:   "store",
			BatchChSize: 50,
			BatchPeriod: 100 * time.Millisecond,
		},
		Client: ClientConfig{
			ServerURL:  "127.0.0.1:2412",
			PollPeriod: 200 * time.Millisecond,
		},
	}
}

// Validate checks every field and returns all the problems found.
func (c Config) Validate() error {
	var result *multierror.Error

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, fmt.Errorf("%s: %w", "logLevel", err))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("%s: must be in (0, 65535]", "server.port"))
	}
	if c.Server.StoreName == "" {
		result = multierror.Append(result, fmt.Errorf("%s: must be non-empty", "server.storeName"))
	}
	if c.Server.BatchChSize < 0 {
		result = multierror.Append(result, fmt.Errorf("%s: must be GTE 0", "server.batchChSize"))
	}
	if c.Server.BatchPeriod <= 0 {
		result = multierror.Append(result, fmt.Errorf("%s: must be GT 0", "server.batchPeriod"))
	}
	if c.Client.ServerURL == "" {
		result = multierror.Append(result, fmt.Errorf("%s: must be non-empty", "client.serverUrl"))
	}
	if c.Client.PollPeriod <= 0 {
		result = multierror.Append(result, fmt.Errorf("%s: must be GT 0", "client.pollPeriod"))
	}

	return result.ErrorOrNil()
}

// Load reads a YAML configuration on top of the defaults.
func Load(r io.Reader) (Config, error) {
	cfg := Default()

	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("reading: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("yaml.Unmarshal: %w", err)
	}

	return cfg, nil
}

// LoadFile reads a YAML configuration file (defaults only if filePath is empty).
func LoadFile(filePath string) (Config, error) {
	if filePath == "" {
		return Default(), nil
	}

	f, err := os.Open(filePath)
	if err != nil {
		return Config{}, fmt.Errorf("os.Open(%s): %w", filePath, err)
	}
	defer f.Close()

	return Load(f)
}

// String implements the stringer interface.
func (c Config) String() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}

	return string(data)
}
