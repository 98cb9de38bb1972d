package constants

import "time"

// Version is the module version reported in the default User-Agent.
const Version = "0.1.0"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry settings handed to the transport when retries are enabled.
const (
	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Request headers.
const (
	// DefaultUserAgent is sent when no User-Agent is configured.
	DefaultUserAgent = "restcompose/" + Version

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"
)

// Message transport settings.
const (
	// DefaultSubjectPrefix namespaces subjects used by the NATS transport.
	DefaultSubjectPrefix = "api"

	// DefaultNATSClientName identifies the connection on the NATS server.
	DefaultNATSClientName = "restcompose"
)

// Transport kinds selectable from configuration.
const (
	// TransportHTTP selects the HTTP transport.
	TransportHTTP = "http"

	// TransportNATS selects the NATS request/reply transport.
	TransportNATS = "nats"
)

// Format constants.
const (
	// FormatTable for table output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatRaw writes response bodies unchanged.
	FormatRaw = "raw"
)

// Configuration file settings.
const (
	// ConfigDirName is the directory under $HOME holding the config file.
	ConfigDirName = ".restcompose"

	// ConfigFileName is the config file name without extension.
	ConfigFileName = "config"

	// EnvPrefix prefixes environment variables read by the config loader.
	EnvPrefix = "COMPOSE"
)
