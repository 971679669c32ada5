package am

import (
	"os"
	"sort"
	"strings"

	"github.com/teranos/qntx-cohort/errors"
)

// ConfigSource is where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceUser        ConfigSource = "user"        // ~/.cohort/am.toml
	SourceProject     ConfigSource = "project"     // am.toml found from the working directory up
	SourceEnvironment ConfigSource = "environment" // COHORT_* env vars
)

// SettingInfo is one effective setting with its origin
type SettingInfo struct {
	Key        string       `json:"key"`
	Value      interface{}  `json:"value"`
	Source     ConfigSource `json:"source"`
	SourcePath string       `json:"source_path,omitempty"` // file path or env var name
}

// SourceInfo records which file last set a key during loading
type SourceInfo struct {
	Source ConfigSource
	Path   string
}

// configSources is filled by initViper as files are merged
var configSources = map[string]SourceInfo{}

// recordSources marks every leaf key in settings as coming from src
func recordSources(settings map[string]interface{}, prefix string, src SourceInfo) {
	for key, value := range settings {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			recordSources(nested, full, src)
			continue
		}
		configSources[full] = src
	}
}

// Introspect lists every effective setting, sorted by key, with the source
// that won
func Introspect() ([]SettingInfo, error) {
	if _, err := Load(); err != nil {
		return nil, errors.Wrap(err, "failed to load config for introspection")
	}
	var out []SettingInfo
	flatten(GetViper().AllSettings(), "", &out)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func flatten(settings map[string]interface{}, prefix string, out *[]SettingInfo) {
	for key, value := range settings {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			flatten(nested, full, out)
			continue
		}

		src := SourceInfo{Source: SourceDefault, Path: "built-in default"}
		if si, ok := configSources[full]; ok {
			src = si
		}
		if env := envVarFor(full); os.Getenv(env) != "" {
			src = SourceInfo{Source: SourceEnvironment, Path: env}
		}

		*out = append(*out, SettingInfo{
			Key:        full,
			Value:      value,
			Source:     src.Source,
			SourcePath: src.Path,
		})
	}
}

// envVarFor is the COHORT_* variable that overrides key
func envVarFor(key string) string {
	return "COHORT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
