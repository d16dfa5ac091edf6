package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/popit/internal/constants"
	"github.com/fivetwenty-io/popit/pkg/popit"
	"github.com/fivetwenty-io/popit/pkg/popitclient"
)

// Output formats.
const (
	OutputFormatTable = "table"
	OutputFormatJSON  = "json"
	OutputFormatYAML  = "yaml"

	defaultJSONIndent = 2

	Masked = "***"
)

// transport carries every request the commands send when set. Nil keeps the
// library's pooled transport.
var transport http.RoundTripper

// transportClient wraps transport, or returns nil when none is set.
func transportClient(timeout time.Duration) *http.Client {
	if transport == nil {
		return nil
	}

	return &http.Client{Transport: transport, Timeout: timeout}
}

// clientConfig builds the library configuration from viper, which merges
// flags, POPIT_* environment variables and the config file.
func clientConfig() (*popit.Config, error) {
	settings := loadConfig()

	if settings.InstanceName == "" {
		return nil, constants.ErrNoInstanceConfigured
	}

	config := &popit.Config{
		InstanceName:    settings.InstanceName,
		HostName:        settings.HostName,
		Port:            settings.Port,
		Version:         settings.APIVersion,
		UseTLS:          settings.UseTLS,
		Username:        settings.Username,
		Password:        settings.Password,
		APIKey:          settings.APIKey,
		APIKeyPlacement: popit.APIKeyPlacement(settings.APIKeyPlacement),
		MaxRetries:      settings.MaxRetries,
		RetryUnit:       settings.RetryUnit,
		Envelope:        popit.EnvelopeMode(settings.Envelope),
		RateLimit:       settings.RateLimit,
		HTTPClient:      transportClient(constants.DefaultHTTPTimeout),
	}

	if viper.GetBool("verbose") {
		config.Debug = true
		config.Logger = popit.NewZerologLogger(setupLogger(zerolog.DebugLevel))
	} else {
		config.Logger = popit.NewZerologLogger(setupLogger(zerolog.WarnLevel))
	}

	return config, nil
}

// createClient builds a client from the merged CLI configuration.
func createClient() (popit.Client, error) {
	config, err := clientConfig()
	if err != nil {
		return nil, err
	}

	client, err := popitclient.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

// commandContext returns the command's context, or Background when the
// command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		return context.Background()
	}

	return ctx
}

// setupLogger writes human-readable logs to stderr so stdout stays parseable.
func setupLogger(level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    viper.GetBool("no_color"),
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// outputFormat returns the validated --output value.
func outputFormat() (string, error) {
	format := strings.ToLower(viper.GetString("output"))

	switch format {
	case "", OutputFormatTable:
		return OutputFormatTable, nil
	case OutputFormatJSON, OutputFormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %q", constants.ErrInvalidOutputFormat, format)
	}
}

// parseKeyValues turns ["a=1", "b=x"] into options. Repeated keys collect
// into a list, which GET and DELETE send as repeated query parameters.
func parseKeyValues(pairs []string) (popit.Options, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	opts := popit.Options{}

	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("%w, got %q", constants.ErrInvalidKeyValue, pair)
		}

		switch existing := opts[key].(type) {
		case nil:
			opts[key] = value
		case []any:
			opts[key] = append(existing, value)
		default:
			opts[key] = []any{existing, value}
		}
	}

	return opts, nil
}

// readBody returns the request body from exactly one of --data (JSON),
// --file (JSON or YAML) and --set (key=value pairs).
func readBody(data, file string, pairs []string) (popit.Options, error) {
	given := 0

	for _, present := range []bool{data != "", file != "", len(pairs) > 0} {
		if present {
			given++
		}
	}

	if given > 1 {
		return nil, constants.ErrBodyConflict
	}

	switch {
	case data != "":
		return decodeBody([]byte(data))
	case file != "":
		content, err := readInput(file)
		if err != nil {
			return nil, err
		}

		return decodeBody(content)
	default:
		return parseKeyValues(pairs)
	}
}

func readInput(file string) ([]byte, error) {
	if file == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}

		return content, nil
	}

	// #nosec G304 -- the path is supplied by the user running the CLI
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return content, nil
}

// decodeBody accepts JSON or YAML; JSON is a subset of YAML, so one decoder
// serves both.
func decodeBody(content []byte) (popit.Options, error) {
	var body map[string]any

	err := yaml.Unmarshal(content, &body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", constants.ErrBodyNotObject, err)
	}

	if body == nil {
		return nil, constants.ErrBodyNotObject
	}

	return popit.Options(body), nil
}

// printValue writes a response value in the selected format.
func printValue(out io.Writer, value any, format string) error {
	switch format {
	case OutputFormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", strings.Repeat(" ", defaultJSONIndent))

		return encoder.Encode(value)
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(out)
		defer func() { _ = encoder.Close() }()

		return encoder.Encode(value)
	default:
		return printTable(out, value)
	}
}

func printTable(out io.Writer, value any) error {
	table := tablewriter.NewWriter(out)

	switch typed := value.(type) {
	case nil:
		_, err := fmt.Fprintln(out, "OK")

		return err
	case map[string]any:
		table.Header("Property", "Value")

		for _, key := range sortedKeys(typed) {
			_ = table.Append(key, formatCell(typed[key]))
		}
	case []any:
		columns := listColumns(typed)
		if len(columns) == 0 {
			for _, item := range typed {
				_ = table.Append(formatCell(item))
			}

			break
		}

		header := make([]any, 0, len(columns))
		for _, column := range columns {
			header = append(header, strings.ToUpper(column))
		}

		table.Header(header...)

		for _, item := range typed {
			record, _ := item.(map[string]any)
			row := make([]any, 0, len(columns))

			for _, column := range columns {
				row = append(row, formatCell(record[column]))
			}

			_ = table.Append(row...)
		}
	default:
		_, err := fmt.Fprintln(out, formatCell(typed))

		return err
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// listColumns returns the keys holding scalar values across all records,
// with "id" and "name" first.
func listColumns(items []any) []string {
	seen := map[string]bool{}

	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			continue
		}

		for key, value := range record {
			switch value.(type) {
			case map[string]any, []any:
			default:
				seen[key] = true
			}
		}
	}

	columns := make([]string, 0, len(seen))

	for _, key := range []string{"id", "name"} {
		if seen[key] {
			columns = append(columns, key)
			delete(seen, key)
		}
	}

	remaining := make([]string, 0, len(seen))
	for key := range seen {
		remaining = append(remaining, key)
	}

	sort.Strings(remaining)

	return append(columns, remaining...)
}

func sortedKeys(record map[string]any) []string {
	keys := make([]string, 0, len(record))
	for key := range record {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// formatCell renders scalars as text and nested values as compact JSON.
func formatCell(value any) string {
	switch value.(type) {
	case nil:
		return ""
	case map[string]any, []any:
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}

		return string(data)
	default:
		return cast.ToString(value)
	}
}

// maskSecret hides all but the presence of a secret value.
func maskSecret(value string) string {
	if value == "" {
		return ""
	}

	return Masked
}
