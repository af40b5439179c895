package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoaderConfig holds optional file overrides.
type LoaderConfig struct {
	ConfigFile string
	EnvFile    string
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

var configSearchPaths = []string{
	"./config.yml",
	"./config/config.yml",
	"./cmd/server/config.yml",
}

var envSearchPaths = []string{
	"./.env",
	"./config/.env",
	"./cmd/server/.env",
}

// defaults lists every key so environment overrides reach Unmarshal.
var defaults = map[string]any{
	"server.port":             "8080",
	"server.mode":             "debug",
	"server.api_key":          "",
	"server.max_upload_mb":    20,
	"server.shutdown_timeout": 10 * time.Second,

	"log.level":    "info",
	"log.format":   "console",
	"log.output":   "stdout",
	"log.no_color": false,
	"log.caller":   false,

	"metrics.enabled":      false,
	"metrics.endpoint":     "",
	"metrics.insecure":     true,
	"metrics.interval":     15 * time.Second,
	"metrics.service_name": "ocrgateway",

	"fetch.timeout":       15 * time.Second,
	"fetch.max_bytes":     20 << 20,
	"fetch.allow_private": false,

	"ocrspace.keys":     []string{},
	"ocrspace.endpoint": "",
	"ocrspace.language": "chs",
	"ocrspace.engine":   2,
	"ocrspace.timeout":  15 * time.Second,

	"baidu.app_id":         "",
	"baidu.api_key":        "",
	"baidu.secret_key":     "",
	"baidu.endpoint":       "",
	"baidu.token_endpoint": "",
	"baidu.timeout":        15 * time.Second,
	"baidu.token_timeout":  10 * time.Second,

	"ydocr.user_id":          "",
	"ydocr.user_key":         "",
	"ydocr.endpoint":         "",
	"ydocr.balance_endpoint": "",
	"ydocr.timeout":          15 * time.Second,
}

// legacyEnv keeps the single-word variables older deployments used.
var legacyEnv = map[string]string{
	"server.port":    "PORT",
	"server.api_key": "API_KEY",
	"server.mode":    "MODE",
}

// Load resolves config.yml and .env, binds environment variables
// (server.api_key <- SERVER_API_KEY), then unmarshals and validates.
func Load(opts ...LoaderOption) (*Config, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}

	if lc.EnvFile == "" {
		lc.EnvFile = firstExisting(envSearchPaths)
	}
	if lc.EnvFile != "" {
		if err := godotenv.Load(lc.EnvFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", lc.EnvFile, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), legacy); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if lc.ConfigFile == "" {
		lc.ConfigFile = firstExisting(configSearchPaths)
	}
	if lc.ConfigFile != "" {
		v.SetConfigFile(lc.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", lc.ConfigFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
