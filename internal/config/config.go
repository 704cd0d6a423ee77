package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment variables read by Load.
const (
	EnvEndpoint        = "AWS_URL"
	EnvAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvRegion          = "AWS_DEFAULT_REGION"
	EnvListAllPages    = "S3SEARCH_LIST_ALL_PAGES"
	EnvLogLevel        = "S3SEARCH_LOG_LEVEL"
)

// ErrConfiguration is wrapped by every error returned from Load and FromMap.
var ErrConfiguration = errors.New("invalid configuration")

// Config holds the connection settings for the object store
type Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string

	// ListAllPages makes listings follow continuation tokens instead of
	// stopping after the first response.
	ListAllPages bool

	LogLevel string
}

// Load reads configuration from the process environment. Variables from
// envFiles (or ./.env when none are given) are loaded first without
// overriding variables that are already set.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		// .env is optional
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("%w: failed to load env file: %v", ErrConfiguration, err)
	}

	v := newViper()
	v.AutomaticEnv()

	return fromViper(v)
}

// FromMap builds a Config from explicit key/value pairs keyed by the
// environment variable names. Missing keys fall back to the same defaults
// Load uses.
func FromMap(values map[string]string) (*Config, error) {
	v := newViper()

	m := make(map[string]any, len(values))
	for key, value := range values {
		m[key] = value
	}
	if err := v.MergeConfigMap(m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return fromViper(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(EnvListAllPages, false)
	v.SetDefault(EnvLogLevel, "info")
	return v
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Endpoint:        strings.TrimSpace(v.GetString(EnvEndpoint)),
		AccessKeyID:     v.GetString(EnvAccessKeyID),
		SecretAccessKey: v.GetString(EnvSecretAccessKey),
		Region:          strings.TrimSpace(v.GetString(EnvRegion)),
		ListAllPages:    v.GetBool(EnvListAllPages),
		LogLevel:        strings.ToLower(strings.TrimSpace(v.GetString(EnvLogLevel))),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every required value is present and the endpoint is
// a usable URL.
func (c *Config) Validate() error {
	var missing []string
	if c.Endpoint == "" {
		missing = append(missing, EnvEndpoint)
	}
	if c.AccessKeyID == "" {
		missing = append(missing, EnvAccessKeyID)
	}
	if c.SecretAccessKey == "" {
		missing = append(missing, EnvSecretAccessKey)
	}
	if c.Region == "" {
		missing = append(missing, EnvRegion)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required environment variables: %s",
			ErrConfiguration, strings.Join(missing, ", "))
	}

	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s must be an http or https URL, got %q",
			ErrConfiguration, EnvEndpoint, c.Endpoint)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %s must be one of debug, info, warn, error, got %q",
			ErrConfiguration, EnvLogLevel, c.LogLevel)
	}

	return nil
}
