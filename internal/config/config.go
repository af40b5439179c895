// Package config loads gateway configuration from an optional YAML file, an
// optional .env file and the environment, and validates it.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"ocrgateway/internal/logger"
)

// Config is the full gateway configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      logger.Config  `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	OCRSpace OCRSpaceConfig `mapstructure:"ocrspace"`
	Baidu    BaiduConfig    `mapstructure:"baidu"`
	YDOCR    YDOCRConfig    `mapstructure:"ydocr"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port string `mapstructure:"port" validate:"required,numeric"`
	// Mode selects the gin mode; "prod" and "release" disable debug output.
	Mode            string        `mapstructure:"mode" validate:"oneof=debug release prod test"`
	APIKey          string        `mapstructure:"api_key"`
	MaxUploadMB     int64         `mapstructure:"max_upload_mb" validate:"gte=1"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// MetricsConfig configures the OTLP metric exporter.
type MetricsConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Endpoint    string        `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure    bool          `mapstructure:"insecure"`
	Interval    time.Duration `mapstructure:"interval" validate:"gte=0"`
	ServiceName string        `mapstructure:"service_name"`
}

// FetchConfig bounds image downloads for URL recognition.
type FetchConfig struct {
	Timeout  time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MaxBytes int64         `mapstructure:"max_bytes" validate:"gte=0"`
	// AllowPrivate permits downloads from loopback and private networks.
	AllowPrivate bool `mapstructure:"allow_private"`
}

// OCRSpaceConfig holds the interchangeable OCR.space API keys.
type OCRSpaceConfig struct {
	Keys     []string      `mapstructure:"keys"`
	Endpoint string        `mapstructure:"endpoint" validate:"omitempty,url"`
	Language string        `mapstructure:"language"`
	Engine   int           `mapstructure:"engine" validate:"omitempty,oneof=1 2 3"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// BaiduConfig holds the Baidu application credentials.
type BaiduConfig struct {
	AppID         string        `mapstructure:"app_id"`
	APIKey        string        `mapstructure:"api_key" validate:"required_with=SecretKey"`
	SecretKey     string        `mapstructure:"secret_key" validate:"required_with=APIKey"`
	Endpoint      string        `mapstructure:"endpoint" validate:"omitempty,url"`
	TokenEndpoint string        `mapstructure:"token_endpoint" validate:"omitempty,url"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gte=0"`
	TokenTimeout  time.Duration `mapstructure:"token_timeout" validate:"gte=0"`
}

// YDOCRConfig holds the YDOCR user credentials.
type YDOCRConfig struct {
	UserID          string        `mapstructure:"user_id" validate:"required_with=UserKey"`
	UserKey         string        `mapstructure:"user_key" validate:"required_with=UserID"`
	Endpoint        string        `mapstructure:"endpoint" validate:"omitempty,url"`
	BalanceEndpoint string        `mapstructure:"balance_endpoint" validate:"omitempty,url"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// Enabled reports whether Baidu credentials are configured.
func (c BaiduConfig) Enabled() bool { return c.APIKey != "" && c.SecretKey != "" }

// Enabled reports whether YDOCR credentials are configured.
func (c YDOCRConfig) Enabled() bool { return c.UserID != "" && c.UserKey != "" }

// ErrNoProviders is returned when no OCR provider has credentials.
var ErrNoProviders = errors.New("no OCR provider configured: set OCRSPACE_KEYS, BAIDU_API_KEY/BAIDU_SECRET_KEY or YDOCR_USER_ID/YDOCR_USER_KEY")

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}

// Normalize trims credential lists and fills log defaults.
func (c *Config) Normalize() {
	keys := c.OCRSpace.Keys[:0]
	for _, k := range c.OCRSpace.Keys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	c.OCRSpace.Keys = keys
	c.Log.ApplyDefaults()
}

// Validate checks struct constraints and that at least one provider is usable.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if len(c.OCRSpace.Keys) == 0 && !c.Baidu.Enabled() && !c.YDOCR.Enabled() {
		return ErrNoProviders
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())
