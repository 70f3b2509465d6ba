package config

import (
	"github.com/kbukum/apicontract/logger"
	"github.com/kbukum/apicontract/validation"
)

// ServiceConfig holds the fields every binary of the module shares. Embed
// it with `mapstructure:",squash"` to extend it.
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string        `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults defaults to the development environment, which turns on
// debug logging unless a level is set.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	c.Debug = c.Debug || c.Environment == "development"
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	if c.Logging.Level == "" && c.Debug {
		c.Logging.Level = "debug"
	}
	c.Logging.ApplyDefaults()
}

// Validate reports every invalid service and logging field in one error.
func (c *ServiceConfig) Validate() error {
	return validation.New().Struct(c).Merge("", c.Logging.Check()).Err()
}
