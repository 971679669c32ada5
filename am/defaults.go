package am

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Endpoint defaults
	v.SetDefault("endpoint.url", DefaultEndpointURL)
	v.SetDefault("endpoint.timeout_seconds", DefaultTimeoutSeconds)
	v.SetDefault("endpoint.requests_per_second", 0)
	v.SetDefault("endpoint.block_private_ip", false) // the reference endpoint is reached through a local port forward
	v.SetDefault("endpoint.probe", true)

	// Study defaults
	v.SetDefault("study.name", DefaultStudy)
	v.SetDefault("study.whitelist", []string{}) // empty: the study's own default applies
	v.SetDefault("study.definitions_file", "")

	// Database defaults
	v.SetDefault("database.path", DefaultDatabasePath)

	// Server defaults
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"http://127.0.0.1",
	})

	v.SetDefault("log.json", false)
}

// BindEnvVars explicitly binds the settings most often overridden per shell
func BindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("endpoint.url", "COHORT_ENDPOINT_URL")
	_ = v.BindEnv("database.path", "COHORT_DATABASE_PATH")
	_ = v.BindEnv("study.name", "COHORT_STUDY")
}
