package mongo

import (
	"fmt"
	"os"

	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrConfParamMissing = fmt.Errorf("configuration parameter missing")

type Config struct {
	URI    string
	Host   string
	Port   string
	DBName string
	User   string
	Pass   string
}

// NewConfig reads the connection settings from the environment. MONGO_URI,
// when set, takes precedence over the host and port variables.
func NewConfig() (*Config, error) {
	conf := new(Config)
	conf.URI = os.Getenv("MONGO_URI")
	conf.Host = os.Getenv("MONGO_HOST")
	conf.Port = os.Getenv("MONGO_PORT")
	if conf.URI == "" && conf.Host == "" {
		return nil, fmt.Errorf("%w: MONGO_HOST", ErrConfParamMissing)
	}
	if conf.URI == "" && conf.Port == "" {
		return nil, fmt.Errorf("%w: MONGO_PORT", ErrConfParamMissing)
	}
	conf.DBName = os.Getenv("MONGO_DB_NAME")
	if conf.DBName == "" {
		return nil, fmt.Errorf("%w: MONGO_DB_NAME", ErrConfParamMissing)
	}
	conf.User = os.Getenv("MONGO_USER")
	conf.Pass = os.Getenv("MONGO_PASS")

	return conf, nil
}

func (c *Config) conString() string {
	if c.URI != "" {
		return c.URI
	}
	if c.User != "" && c.Pass != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%s/", c.User, c.Pass, c.Host, c.Port)
	}
	return fmt.Sprintf("mongodb://%s:%s/", c.Host, c.Port)
}

func (c *Config) Options() *options.ClientOptions {
	return options.Client().ApplyURI(c.conString())
}
