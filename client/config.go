package client

import (
	"io/ioutil"
	"os"

	"github.com/creasty/defaults"
	"github.com/goccy/go-yaml"
	log "github.com/sirupsen/logrus"
)

// Config is the client configuration, persisted between invocations
type Config struct {
	URI        string `default:"http://localhost:8000" yaml:"uri"`
	CookieName string `default:"mySessionId" yaml:"cookie_name"`
	Session    string `yaml:"session,omitempty"`
}

// NewConfig ...
func NewConfig() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		log.WithError(err).Error("error setting client config defaults")
	}
	return cfg
}

// LoadConfig loads a client config from the given path
func LoadConfig(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := defaults.Set(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the client config to the given path
func (c *Config) Save(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	data, err := yaml.MarshalWithOptions(c, yaml.Indent(4))
	if err != nil {
		return err
	}

	if _, err = f.Write(data); err != nil {
		return err
	}

	if err = f.Sync(); err != nil {
		return err
	}

	return f.Close()
}
