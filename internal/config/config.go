// Package config loads the process-wide settings once at startup: the base
// address every composer shares and the defaults for its transport.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/restcompose/internal/constants"
	"github.com/fivetwenty-io/restcompose/internal/natsrpc"
	"github.com/fivetwenty-io/restcompose/pkg/compose"
	"github.com/fivetwenty-io/restcompose/pkg/rest"
)

// Static errors for err113 compliance.
var (
	ErrUnsupportedTransport = errors.New("unsupported transport")
	ErrNegativeTimeout      = errors.New("timeout must not be negative")
	ErrNegativeRetryMax     = errors.New("retry_max must not be negative")
)

// Configuration keys.
const (
	KeyBaseURL       = "base_url"
	KeyTransport     = "transport"
	KeyTimeout       = "timeout"
	KeyUserAgent     = "user_agent"
	KeyRetryMax      = "retry_max"
	KeyDebug         = "debug"
	KeySubjectPrefix = "subject_prefix"
	KeyHeaders       = "headers"
)

// Settings is the loaded configuration.
type Settings struct {
	BaseURL       string            `json:"base_url"                 mapstructure:"base_url"       yaml:"base_url"`
	Transport     string            `json:"transport"                mapstructure:"transport"      yaml:"transport"`
	Timeout       time.Duration     `json:"timeout"                  mapstructure:"timeout"        yaml:"timeout"`
	UserAgent     string            `json:"user_agent,omitempty"     mapstructure:"user_agent"     yaml:"user_agent,omitempty"`
	RetryMax      int               `json:"retry_max"                mapstructure:"retry_max"      yaml:"retry_max"`
	Debug         bool              `json:"debug"                    mapstructure:"debug"          yaml:"debug"`
	SubjectPrefix string            `json:"subject_prefix,omitempty" mapstructure:"subject_prefix" yaml:"subject_prefix,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"        mapstructure:"headers"        yaml:"headers,omitempty"`
}

// New returns a viper instance with defaults and COMPOSE_* environment
// binding applied.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyBaseURL, "")
	v.SetDefault(KeyTransport, constants.TransportHTTP)
	v.SetDefault(KeyTimeout, constants.DefaultHTTPTimeout)
	v.SetDefault(KeyUserAgent, "")
	v.SetDefault(KeyRetryMax, 0)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeySubjectPrefix, constants.DefaultSubjectPrefix)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads file (or the default config file when file is empty and one
// exists) into v and decodes the result.
func Load(v *viper.Viper, file string) (*Settings, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		path, err := DefaultPath()
		if err == nil {
			v.AddConfigPath(filepath.Dir(path))
		}

		v.SetConfigType("yml")
		v.SetConfigName(constants.ConfigFileName)
	}

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return Decode(v)
}

// Decode unmarshals and validates the settings held by v.
func Decode(v *viper.Viper) (*Settings, error) {
	var settings Settings

	err := v.Unmarshal(&settings)
	if err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	err = settings.Validate()
	if err != nil {
		return nil, err
	}

	return &settings, nil
}

// Validate checks the settings for values no transport accepts.
func (s *Settings) Validate() error {
	switch s.Transport {
	case constants.TransportHTTP, constants.TransportNATS:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedTransport, s.Transport)
	}

	if s.Timeout < 0 {
		return ErrNegativeTimeout
	}

	if s.RetryMax < 0 {
		return ErrNegativeRetryMax
	}

	return nil
}

// Factory returns the transport factory selected by Transport.
func (s *Settings) Factory() rest.TransportFactory {
	if s.Transport == constants.TransportNATS {
		return natsrpc.New
	}

	return compose.DefaultTransportFactory
}

// Environment builds the process-wide environment shared by composers.
func (s *Settings) Environment() *compose.Environment {
	return &compose.Environment{
		BaseAddress: s.BaseURL,
		Factory:     s.Factory(),
	}
}

// TransportConfig builds a full transport configuration from the settings.
func (s *Settings) TransportConfig(logger rest.Logger) *rest.TransportConfig {
	config := &rest.TransportConfig{
		BaseURL:       s.BaseURL,
		Timeout:       s.Timeout,
		UserAgent:     s.UserAgent,
		RetryMax:      s.RetryMax,
		Debug:         s.Debug,
		Logger:        logger,
		SubjectPrefix: s.SubjectPrefix,
	}

	if len(s.Headers) > 0 {
		config.Headers = make(map[string]string, len(s.Headers))
		for key, value := range s.Headers {
			config.Headers[key] = value
		}
	}

	return config
}

// DefaultPath returns the config file read when none is given.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, constants.ConfigDirName, constants.ConfigFileName+".yml"), nil
}

// Save writes the settings as YAML to file, or to DefaultPath when file is
// empty, and returns the path written.
func (s *Settings) Save(file string) (string, error) {
	if file == "" {
		var err error

		file, err = DefaultPath()
		if err != nil {
			return "", err
		}
	}

	err := os.MkdirAll(filepath.Dir(file), constants.ConfigDirPerm)
	if err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	// Durations are written in their string form so the file stays editable.
	document := map[string]interface{}{
		KeyBaseURL:   s.BaseURL,
		KeyTransport: s.Transport,
		KeyTimeout:   s.Timeout.String(),
		KeyRetryMax:  s.RetryMax,
		KeyDebug:     s.Debug,
	}

	if s.UserAgent != "" {
		document[KeyUserAgent] = s.UserAgent
	}

	if s.SubjectPrefix != "" {
		document[KeySubjectPrefix] = s.SubjectPrefix
	}

	if len(s.Headers) > 0 {
		document[KeyHeaders] = s.Headers
	}

	data, err := yaml.Marshal(document)
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}

	err = os.WriteFile(file, data, constants.ConfigFilePerm)
	if err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return file, nil
}
