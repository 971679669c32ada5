// Package am loads cohort configuration ("I am") from defaults, TOML files
// and COHORT_* environment variables.
package am

// Config represents the cohort pipeline configuration
type Config struct {
	Endpoint EndpointConfig `mapstructure:"endpoint" toml:"endpoint" yaml:"endpoint" json:"endpoint"`
	Study    StudyConfig    `mapstructure:"study" toml:"study" yaml:"study" json:"study"`
	Database DatabaseConfig `mapstructure:"database" toml:"database" yaml:"database" json:"database"`
	Server   ServerConfig   `mapstructure:"server" toml:"server" yaml:"server" json:"server"`
	Log      LogConfig      `mapstructure:"log" toml:"log" yaml:"log" json:"log"`
}

// EndpointConfig configures the SPARQL endpoint records are fetched from
type EndpointConfig struct {
	URL               string  `mapstructure:"url" toml:"url" yaml:"url" json:"url"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" toml:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"`             // 0 = no timeout
	RequestsPerSecond float64 `mapstructure:"requests_per_second" toml:"requests_per_second" yaml:"requests_per_second" json:"requests_per_second"` // 0 = unlimited
	BlockPrivateIP    bool    `mapstructure:"block_private_ip" toml:"block_private_ip" yaml:"block_private_ip" json:"block_private_ip"`
	Probe             bool    `mapstructure:"probe" toml:"probe" yaml:"probe" json:"probe"` // run the connectivity probe on connect
}

// StudyConfig selects the cohort query template and metric whitelist
type StudyConfig struct {
	Name            string   `mapstructure:"name" toml:"name" yaml:"name" json:"name"`
	Whitelist       []string `mapstructure:"whitelist" toml:"whitelist" yaml:"whitelist" json:"whitelist"` // empty = study default
	DefinitionsFile string   `mapstructure:"definitions_file" toml:"definitions_file" yaml:"definitions_file" json:"definitions_file"`
}

// DatabaseConfig configures the SQLite snapshot database
type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path" yaml:"path" json:"path"`
}

// ServerConfig configures the read-only catalog HTTP API
type ServerConfig struct {
	Port           int      `mapstructure:"port" toml:"port" yaml:"port" json:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" toml:"allowed_origins" yaml:"allowed_origins" json:"allowed_origins"`
}

// LogConfig configures logging output
type LogConfig struct {
	JSON bool `mapstructure:"json" toml:"json" yaml:"json" json:"json"`
}

// Defaults
const (
	DefaultEndpointURL    = "http://localhost:8080/sparql"
	DefaultTimeoutSeconds = 300
	DefaultStudy          = "UPittSSRI"
	DefaultDatabasePath   = "cohort.db"
	DefaultServerPort     = 8787
)

// File system constants
const (
	DefaultDirPermissions = 0755 // Standard directory permissions (rwxr-xr-x)
)
