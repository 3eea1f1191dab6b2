package logkeeper

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

type Config struct {
	LogLevel     string   `toml:"logLevel"`
	KafkaBrokers []string `toml:"kafkaBrokers"`
	KafkaTopic   string   `toml:"kafkaTopic"`
	KafkaGroupID string   `toml:"kafkaGroupID"`

	ElasticSearchIndex string   `toml:"elasticSearchIndex"`
	ElasticSearchNodes []string `toml:"elasticSearchNodes"`

	NumWorkers int `toml:"numWorkers"`
}

// LoadConfig decodes the TOML file at path. NumWorkers defaults to 1.
func LoadConfig(path string) (Config, error) {
	cfg := Config{LogLevel: "info", NumWorkers: 1}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch {
	case len(c.KafkaBrokers) == 0:
		return fmt.Errorf("kafkaBrokers is required")
	case c.KafkaTopic == "":
		return fmt.Errorf("kafkaTopic is required")
	case c.ElasticSearchIndex == "":
		return fmt.Errorf("elasticSearchIndex is required")
	case len(c.ElasticSearchNodes) == 0:
		return fmt.Errorf("elasticSearchNodes is required")
	case c.NumWorkers <= 0:
		return fmt.Errorf("numWorkers must be positive, got %d", c.NumWorkers)
	}
	return nil
}
