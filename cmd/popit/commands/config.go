package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/popit/internal/constants"
	"github.com/fivetwenty-io/popit/pkg/popit"
)

// Config represents the CLI configuration stored in ~/.popit/config.yml.
type Config struct {
	InstanceName    string        `json:"instance_name"               yaml:"instance_name"`
	HostName        string        `json:"host_name,omitempty"         yaml:"host_name,omitempty"`
	Port            int           `json:"port,omitempty"              yaml:"port,omitempty"`
	APIVersion      string        `json:"api_version,omitempty"       yaml:"api_version,omitempty"`
	UseTLS          bool          `json:"use_tls"                     yaml:"use_tls"`
	Username        string        `json:"username,omitempty"          yaml:"username,omitempty"`
	Password        string        `json:"password,omitempty"          yaml:"password,omitempty"`
	APIKey          string        `json:"api_key,omitempty"           yaml:"api_key,omitempty"`
	APIKeyPlacement string        `json:"api_key_placement,omitempty" yaml:"api_key_placement,omitempty"`
	MaxRetries      int           `json:"max_retries"                 yaml:"max_retries"`
	RetryUnit       time.Duration `json:"retry_unit,omitempty"        yaml:"retry_unit,omitempty"`
	Envelope        string        `json:"envelope,omitempty"          yaml:"envelope,omitempty"`
	RateLimit       float64       `json:"rate_limit,omitempty"        yaml:"rate_limit,omitempty"`
	Output          string        `json:"output,omitempty"            yaml:"output,omitempty"`
}

// configSetters validate and apply "config set" values.
var configSetters = map[string]func(*Config, string) error{
	"instance_name": func(c *Config, v string) error { c.InstanceName = v; return nil },
	"host_name":     func(c *Config, v string) error { c.HostName = v; return nil },
	"api_version":   func(c *Config, v string) error { c.APIVersion = v; return nil },
	"username":      func(c *Config, v string) error { c.Username = v; return nil },
	"password":      func(c *Config, v string) error { c.Password = v; return nil },
	"api_key":       func(c *Config, v string) error { c.APIKey = v; return nil },
	"port": func(c *Config, v string) error {
		port, err := cast.ToIntE(v)
		c.Port = port

		return err
	},
	"use_tls": func(c *Config, v string) error {
		useTLS, err := cast.ToBoolE(v)
		c.UseTLS = useTLS

		return err
	},
	"max_retries": func(c *Config, v string) error {
		retries, err := cast.ToIntE(v)
		c.MaxRetries = retries

		return err
	},
	"retry_unit": func(c *Config, v string) error {
		unit, err := cast.ToDurationE(v)
		c.RetryUnit = unit

		return err
	},
	"rate_limit": func(c *Config, v string) error {
		limit, err := cast.ToFloat64E(v)
		c.RateLimit = limit

		return err
	},
	"api_key_placement": func(c *Config, v string) error { c.APIKeyPlacement = v; return nil },
	"envelope":          func(c *Config, v string) error { c.Envelope = v; return nil },
	"output": func(c *Config, v string) error {
		switch v {
		case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
			c.Output = v

			return nil
		default:
			return constants.ErrInvalidOutputFormat
		}
	},
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the PopIt CLI configuration stored in ~/.popit/config.yml",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration after flags and POPIT_* environment variables are applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}

			return showConfig(cmd.OutOrStdout(), maskedConfig(loadConfig()), format)
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value and save it to the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadFileConfig()
			if err != nil {
				return err
			}

			err = setConfigValue(config, args[0], args[1])
			if err != nil {
				return err
			}

			err = saveConfig(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])

			return nil
		},
	}
}

// loadConfig reads the effective configuration from viper.
func loadConfig() *Config {
	return configFrom(viper.GetViper())
}

// loadFileConfig reads only what the config file holds, so that values from
// flags and POPIT_* variables are not written back when the file is saved.
// A missing file yields an empty configuration.
func loadFileConfig() (*Config, error) {
	configFile, err := configFilePath()
	if err != nil {
		return nil, err
	}

	fileViper := viper.New()
	fileViper.SetConfigFile(configFile)
	fileViper.SetConfigType("yaml")

	err = fileViper.ReadInConfig()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return configFrom(fileViper), nil
}

func configFrom(v *viper.Viper) *Config {
	return &Config{
		InstanceName:    v.GetString("instance_name"),
		HostName:        v.GetString("host_name"),
		Port:            v.GetInt("port"),
		APIVersion:      v.GetString("api_version"),
		UseTLS:          v.GetBool("use_tls"),
		Username:        v.GetString("username"),
		Password:        v.GetString("password"),
		APIKey:          v.GetString("api_key"),
		APIKeyPlacement: v.GetString("api_key_placement"),
		MaxRetries:      v.GetInt("max_retries"),
		RetryUnit:       v.GetDuration("retry_unit"),
		Envelope:        v.GetString("envelope"),
		RateLimit:       v.GetFloat64("rate_limit"),
		Output:          v.GetString("output"),
	}
}

func setConfigValue(config *Config, key, value string) error {
	setter, ok := configSetters[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	err := setter(config, value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	return nil
}

// configFilePath returns the file in use, or ~/.popit/config.yml.
func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".popit", "config.yml"), nil
}

func saveConfig(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func maskedConfig(config *Config) *Config {
	masked := *config
	masked.Password = maskSecret(config.Password)
	masked.APIKey = maskSecret(config.APIKey)

	return &masked
}

func showConfig(out io.Writer, config *Config, format string) error {
	switch format {
	case OutputFormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")

		return encoder.Encode(config)
	case OutputFormatYAML:
		return yaml.NewEncoder(out).Encode(config)
	}

	table := tablewriter.NewWriter(out)
	table.Header("Property", "Value")

	_ = table.Append("Instance", config.InstanceName)
	_ = table.Append("Base URL", baseURLFor(config))
	_ = table.Append("Username", config.Username)
	_ = table.Append("Password", config.Password)
	_ = table.Append("API Key", config.APIKey)
	_ = table.Append("API Key Placement", config.APIKeyPlacement)
	_ = table.Append("Max Retries", cast.ToString(config.MaxRetries))
	_ = table.Append("Retry Unit", config.RetryUnit.String())
	_ = table.Append("Envelope", config.Envelope)
	_ = table.Append("Rate Limit", cast.ToString(config.RateLimit))
	_ = table.Append("Output", config.Output)

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func baseURLFor(config *Config) string {
	if config.InstanceName == "" {
		return ""
	}

	return popit.Config{
		InstanceName: config.InstanceName,
		HostName:     config.HostName,
		Port:         config.Port,
		Version:      config.APIVersion,
		UseTLS:       config.UseTLS,
	}.WithDefaults().BaseURL()
}
