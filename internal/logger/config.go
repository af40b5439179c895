package logger

// Config contains logging configuration.
type Config struct {
	Level   string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error fatal"`
	Format  string `mapstructure:"format" validate:"omitempty,oneof=json console"`
	Output  string `mapstructure:"output" validate:"omitempty,oneof=stdout stderr"`
	NoColor bool   `mapstructure:"no_color"`
	Caller  bool   `mapstructure:"caller"`
}

// ApplyDefaults fills in unset values.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
}
