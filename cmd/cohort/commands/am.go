package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/qntx-cohort/am"
	"github.com/teranos/qntx-cohort/cohort"
	"github.com/teranos/qntx-cohort/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Show or validate configuration",
	Long: `am: cohort configuration ("I am")

Configuration sources (in order of precedence):
1. Environment variables (COHORT_* prefix, e.g. COHORT_ENDPOINT_URL)
2. Project config (./am.toml, searched upward from the working directory)
3. User config (~/.cohort/am.toml)
4. Default values

Examples:
  cohort am show                  # Show merged configuration as TOML
  cohort am show --format json    # ...as JSON
  cohort am validate              # Validate configuration and study definitions
  cohort am where                 # Show which source set each value`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runAmShow,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show which file or variable set each setting",
	RunE:  runAmWhere,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
}

// marshalConfig renders cfg in one of the supported formats
func marshalConfig(cfg *am.Config, format string) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return "", errors.Wrap(err, "failed to marshal config to JSON")
		}
		return string(data) + "\n", nil
	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return "", errors.Wrap(err, "failed to marshal config to YAML")
		}
		return "# cohort configuration\n" + string(data), nil
	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return "", errors.Wrap(err, "failed to marshal config to TOML")
		}
		return "# cohort configuration\n" + string(data), nil
	default:
		return "", errors.NewInvalidRequestError("unsupported format: %s (supported: toml, json, yaml)", format)
	}
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	out, err := marshalConfig(cfg, configFormat)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	study, err := cohort.LookupStudy(cfg.Study.Name)
	if err != nil {
		return err
	}
	if len(cfg.Study.Whitelist) > 0 {
		if _, err := cohort.NewMetricSlotMap(cfg.Study.Whitelist, study.MetricPrefix); err != nil {
			return errors.Wrap(err, "study.whitelist")
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	settings, err := am.Introspect()
	if err != nil {
		return err
	}
	if jsonFlag(cmd) {
		return printJSON(cmd.OutOrStdout(), settings)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration files (lowest precedence first):")
	for _, path := range am.ConfigPaths() {
		status := "missing"
		if _, err := os.Stat(path); err == nil {
			status = "loaded"
		}
		fmt.Fprintf(out, "  %-8s %s\n", status, path)
	}
	fmt.Fprintln(out)

	data := pterm.TableData{{"Key", "Value", "Source", "From"}}
	for _, s := range settings {
		data = append(data, []string{s.Key, fmt.Sprint(s.Value), string(s.Source), s.SourcePath})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(out).WithData(data).Render()
}
