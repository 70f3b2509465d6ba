package logger

import "github.com/kbukum/apicontract/validation"

// Config contains logging configuration.
type Config struct {
	// ServiceName tags every entry; the config package fills it from the
	// service name.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	Level       string `yaml:"level" mapstructure:"level"`
	Format      string `yaml:"format" mapstructure:"format"`
	Output      string `yaml:"output" mapstructure:"output"`
	NoColor     bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp   bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller      bool   `yaml:"caller" mapstructure:"caller"`
}

var (
	levels  = []string{"trace", "debug", "info", "warn", "error", "disabled"}
	formats = []string{FormatJSON, FormatConsole, FormatPretty}
	outputs = []string{"stdout", "stderr"}
)

// ApplyDefaults fills in info level console output on stderr.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
	c.Timestamp = true
}

// Check returns the failures of the logging section with fields under
// "logging.".
func (c *Config) Check() *validation.Validator {
	v := validation.New()
	for _, f := range []struct {
		name, value string
		allowed     []string
	}{
		{"logging.level", c.Level, levels},
		{"logging.format", c.Format, formats},
		{"logging.output", c.Output, outputs},
	} {
		v.Required(f.name, f.value).OneOf(f.name, f.value, f.allowed)
	}
	return v
}

func (c *Config) Validate() error { return c.Check().Err() }
