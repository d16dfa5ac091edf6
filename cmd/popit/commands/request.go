package commands

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/popit/internal/constants"
	"github.com/fivetwenty-io/popit/pkg/popit"
)

// pathArgs converts positional arguments into chain segments.
func pathArgs(args []string) []any {
	segments := make([]any, 0, len(args))
	for _, arg := range args {
		segments = append(segments, arg)
	}

	return segments
}

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	var query []string

	cmd := &cobra.Command{
		Use:   "get SEGMENT...",
		Short: "Fetch a resource",
		Long: `Send a GET request. Each argument is one path segment, so
"popit get persons abc" fetches /api/v1/persons/abc.`,
		Example: `  popit get persons
  popit get persons abc123 --output json
  popit get organizations --query name="Labour Party"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := parseKeyValues(query)
			if err != nil {
				return err
			}

			return runVerb(cmd, http.MethodGet, args, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "query parameter as key=value (repeatable)")

	return cmd
}

// NewPostCommand creates the post command.
func NewPostCommand() *cobra.Command {
	return newBodyCommand(http.MethodPost, "post", "Create a resource",
		`  popit post persons --set name="John Smith"
  popit post organizations --file org.yml`)
}

// NewPutCommand creates the put command.
func NewPutCommand() *cobra.Command {
	return newBodyCommand(http.MethodPut, "put", "Update a resource",
		`  popit put persons abc123 --data '{"name":"Jane Doe"}'`)
}

func newBodyCommand(method, use, short, example string) *cobra.Command {
	var (
		data  string
		file  string
		pairs []string
	)

	cmd := &cobra.Command{
		Use:   use + " SEGMENT...",
		Short: short,
		Long: fmt.Sprintf(`Send an authenticated %s request with a JSON body taken from
--data, --file (JSON or YAML, "-" for stdin) or --set key=value pairs.`, method),
		Example: example,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(data, file, pairs)
			if err != nil {
				return err
			}

			return runVerb(cmd, method, args, body)
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "request body as JSON")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the request body from a JSON or YAML file")
	cmd.Flags().StringArrayVar(&pairs, "set", nil, "body field as key=value (repeatable)")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand() *cobra.Command {
	var (
		ids         []string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "delete SEGMENT...",
		Short: "Delete resources",
		Long: `Send an authenticated DELETE request. With --ids, one request is sent per
id under the given path, several at a time.`,
		Example: `  popit delete persons abc123
  popit delete persons --ids abc,def,ghi`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(ids) == 0 {
				return runVerb(cmd, http.MethodDelete, args, nil)
			}

			return runBatchDelete(cmd, args, ids, concurrency)
		},
	}

	cmd.Flags().StringSliceVar(&ids, "ids", nil, "delete each of these ids under the given path")
	cmd.Flags().IntVar(&concurrency, "concurrency", constants.DefaultConcurrencyLimit, "maximum parallel deletes")

	return cmd
}

func runVerb(cmd *cobra.Command, method string, args []string, opts popit.Options) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	client, err := createClient()
	if err != nil {
		return err
	}

	chain := client.Path(pathArgs(args)...)
	ctx := commandContext(cmd)

	var value any

	switch method {
	case http.MethodGet:
		value, err = chain.Get(ctx, opts)
	case http.MethodPost:
		value, err = chain.Post(ctx, opts)
	case http.MethodPut:
		value, err = chain.Put(ctx, opts)
	default:
		value, err = chain.Delete(ctx, opts)
	}

	if err != nil {
		return fmt.Errorf("%s %s: %w", method, chain, err)
	}

	return printValue(cmd.OutOrStdout(), value, format)
}

func runBatchDelete(cmd *cobra.Command, args []string, ids []string, concurrency int) error {
	client, err := createClient()
	if err != nil {
		return err
	}

	base := client.Path(pathArgs(args)...)
	operations := make([]popit.Operation, 0, len(ids))

	for _, id := range ids {
		path, err := base.Append(id).Path()
		if err != nil {
			return err
		}

		operations = append(operations, popit.Operation{ID: id, Method: http.MethodDelete, Path: path})
	}

	results := client.Batch(commandContext(cmd), operations, concurrency)

	return printBatchResults(cmd, results)
}

func printBatchResults(cmd *cobra.Command, results []popit.BatchResult) error {
	out := cmd.OutOrStdout()
	failed := 0

	for _, result := range results {
		if result.Success() {
			_, _ = fmt.Fprintf(out, "deleted %s (%s)\n", result.ID, result.Duration.Round(time.Millisecond))

			continue
		}

		failed++

		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "failed %s: %v\n", result.ID, result.Err)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", constants.ErrBatchFailed, failed, len(results))
	}

	return nil
}
