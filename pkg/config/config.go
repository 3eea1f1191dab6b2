// Package config loads the server configuration from a TOML file.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/greforce/udm-devconnector/pkg/mutation"
)

const (
	StorageMemory   = "memory"
	StorageMongo    = "mongo"
	StoragePostgres = "postgres"
)

type Config struct {
	ServiceName string `toml:"serviceName"`
	HTTPAddr    string `toml:"httpAddr"`
	LogLevel    string `toml:"logLevel"`

	Storage        string `toml:"storage"`
	Policy         string `toml:"policy"`
	MaxRetries     int    `toml:"maxRetries"`
	RequireProfile bool   `toml:"requireProfile"`

	KafkaAddr  string `toml:"kafkaAddr"`
	KafkaTopic string `toml:"kafkaTopic"`
	KafkaBatch int    `toml:"kafkaBatch"`
}

// Default returns the configuration used for keys missing from the file.
func Default() Config {
	return Config{
		ServiceName: "devconnector",
		HTTPAddr:    ":8088",
		LogLevel:    "info",
		Storage:     StorageMemory,
		Policy:      "last-writer-wins",
		MaxRetries:  3,
		KafkaBatch:  1,
	}
}

// Load decodes the TOML file at path over Default.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown config keys: %v", undecoded)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if !strings.Contains(c.HTTPAddr, ":") {
		return fmt.Errorf("httpAddr %q: use ':' before port number, e.g. ':8080'", c.HTTPAddr)
	}
	switch c.Storage {
	case StorageMemory, StorageMongo, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	if _, err := c.ConcurrencyPolicy(); err != nil {
		return err
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("maxRetries must not be negative, got %d", c.MaxRetries)
	}
	if (c.KafkaAddr == "") != (c.KafkaTopic == "") {
		return fmt.Errorf("kafkaAddr and kafkaTopic must be set together")
	}
	return nil
}

// ConcurrencyPolicy parses the policy key.
func (c Config) ConcurrencyPolicy() (mutation.Policy, error) {
	switch c.Policy {
	case "", mutation.LastWriterWins.String():
		return mutation.LastWriterWins, nil
	case mutation.Optimistic.String():
		return mutation.Optimistic, nil
	}
	return 0, fmt.Errorf("unknown policy %q", c.Policy)
}

// ServiceOptions translates the mutation settings into service options.
func (c Config) ServiceOptions() ([]mutation.Option, error) {
	policy, err := c.ConcurrencyPolicy()
	if err != nil {
		return nil, err
	}

	opts := []mutation.Option{mutation.WithPolicy(policy, c.MaxRetries)}
	if c.RequireProfile {
		opts = append(opts, mutation.RequireActorProfile())
	}
	return opts, nil
}
