package contract

import (
	"fmt"

	"github.com/kbukum/apicontract/validation"
)

// DefaultQueryParameterKey is the options key carrying query parameters
// when Config.QueryParameterKey is empty.
const DefaultQueryParameterKey = "params"

// Config configures a Factory.
type Config struct {
	// BaseURL is prepended to every contract path unless a create-time or
	// call-time base URL is given.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`

	// QueryParameterKey is the options key the query parameters are written
	// under. Defaults to "params". It is only written for contracts that
	// declare query parameters; for any other contract, defaults and
	// overrides stored under this key pass through untouched.
	QueryParameterKey string `yaml:"query_parameter_key" mapstructure:"query_parameter_key" validate:"required"`

	// DefaultOptions are merged into every request first.
	DefaultOptions Options `yaml:"default_options" mapstructure:"default_options"`

	// StrictPathParameters fails calls whose path still has an unresolved
	// ":name" placeholder after substitution. When false the placeholder is
	// left in the URL as is.
	StrictPathParameters bool `yaml:"strict_path_parameters" mapstructure:"strict_path_parameters"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.QueryParameterKey == "" {
		c.QueryParameterKey = DefaultQueryParameterKey
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("contract: invalid config: %w", err)
	}
	return nil
}
