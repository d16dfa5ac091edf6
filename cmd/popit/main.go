package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/popit/cmd/popit/commands"
	"github.com/fivetwenty-io/popit/internal/constants"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "popit",
	Short: "PopIt API CLI",
	Long: `A command-line interface for the PopIt API.

Resources are addressed by path segments, so "popit get persons abc" reads
/api/v1/persons/abc on the configured instance. Settings come from flags,
POPIT_* environment variables and $HOME/.popit/config.yml, in that order.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// flagKeys maps persistent flags onto configuration keys.
var flagKeys = map[string]string{
	"instance":          "instance_name",
	"host":              "host_name",
	"port":              "port",
	"api-version":       "api_version",
	"tls":               "use_tls",
	"username":          "username",
	"password":          "password",
	"api-key":           "api_key",
	"api-key-placement": "api_key_placement",
	"max-retries":       "max_retries",
	"retry-unit":        "retry_unit",
	"envelope":          "envelope",
	"rate-limit":        "rate_limit",
	"output":            "output",
	"verbose":           "verbose",
	"no-color":          "no_color",
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.popit/config.yml)")
	flags.StringP("instance", "i", "", "PopIt instance name")
	flags.String("host", constants.DefaultHostName, "PopIt host name")
	flags.Int("port", 0, "port, omitted from URLs when 0")
	flags.String("api-version", constants.DefaultAPIVersion, "API version")
	flags.Bool("tls", false, "use https")
	flags.StringP("username", "u", "", "username for basic authentication")
	flags.StringP("password", "p", "", "password for basic authentication")
	flags.String("api-key", "", "API key, instead of username and password")
	flags.String("api-key-placement", "header", "send the API key as a header or query parameter")
	flags.Int("max-retries", 0, "retries for service unavailable responses")
	flags.Duration("retry-unit", constants.DefaultRetryUnit, "unit of the square retry backoff")
	flags.String("envelope", "auto", "result envelope handling (auto, none, version)")
	flags.Float64("rate-limit", 0, "maximum requests per second, 0 for no limit")
	flags.StringP("output", "o", "table", "output format (table, json, yaml)")
	flags.BoolP("verbose", "v", false, "log requests and responses to stderr")
	flags.Bool("no-color", false, "disable colored log output")

	// Bind flags to viper
	for flag, key := range flagKeys {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	_ = viper.BindPFlag("config", flags.Lookup("config"))

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewLoginCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewGetCommand())
	rootCmd.AddCommand(commands.NewPostCommand())
	rootCmd.AddCommand(commands.NewPutCommand())
	rootCmd.AddCommand(commands.NewDeleteCommand())
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in ~/.popit/config.yml
		viper.AddConfigPath(filepath.Join(home, ".popit"))
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match, e.g. POPIT_INSTANCE_NAME
	viper.SetEnvPrefix("POPIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err == nil && viper.GetBool("verbose") {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
