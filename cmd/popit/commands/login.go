package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fivetwenty-io/popit/internal/constants"
	"github.com/fivetwenty-io/popit/pkg/popit"
	"github.com/fivetwenty-io/popit/pkg/popitclient"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save credentials for a PopIt instance",
		Long: `Store the instance name and either a username/password or an API key in the
config file. Values come from --instance, --username, --password and --api-key
when given and are prompted for otherwise. Credentials are only sent with
requests that change data.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			reader := bufio.NewReader(in)
			out := cmd.OutOrStdout()

			config, err := loadFileConfig()
			if err != nil {
				return err
			}

			applyLogin(config, loadConfig())

			if config.InstanceName == "" {
				config.InstanceName = prompt(reader, out, "Instance name: ")
			}

			if config.InstanceName == "" {
				return constants.ErrNoInstanceConfigured
			}

			if config.APIKey != "" {
				config.Username = ""
				config.Password = ""
			} else {
				if config.Username == "" {
					config.Username = prompt(reader, out, "Username: ")
				}

				if config.Password == "" {
					password, err := readPassword(in, reader, out)
					if err != nil {
						return err
					}

					config.Password = password
				}
			}

			if verify {
				err := checkInstance(cmd, config)
				if err != nil {
					return err
				}
			}

			err = saveConfig(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintf(out, "Saved credentials for %s\n", baseURLFor(config))

			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", true, "check that the instance answers before saving")

	return cmd
}

// applyLogin copies the instance address and credentials from the merged
// settings onto the file configuration. Other settings given as flags or
// environment variables stay out of the file.
func applyLogin(config, merged *Config) {
	config.InstanceName = merged.InstanceName
	config.HostName = merged.HostName
	config.Port = merged.Port
	config.APIVersion = merged.APIVersion
	config.UseTLS = merged.UseTLS
	config.Username = merged.Username
	config.Password = merged.Password
	config.APIKey = merged.APIKey
}

func prompt(reader *bufio.Reader, out io.Writer, label string) string {
	_, _ = fmt.Fprint(out, label)
	line, _ := reader.ReadString('\n')

	return strings.TrimSpace(line)
}

// readPassword reads without echo when in is a terminal, or a plain line from
// reader otherwise. reader must wrap in.
func readPassword(in io.Reader, reader *bufio.Reader, out io.Writer) (string, error) {
	_, _ = fmt.Fprint(out, "Password: ")

	if file, ok := in.(*os.File); ok {
		fd := int(file.Fd()) // #nosec G115 -- file descriptors fit in int
		if term.IsTerminal(fd) {
			bytePassword, err := term.ReadPassword(fd)
			_, _ = fmt.Fprintln(out)

			if err != nil {
				return "", fmt.Errorf("failed to read password: %w", err)
			}

			return string(bytePassword), nil
		}
	}

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	return strings.TrimSpace(line), nil
}

// checkInstance fetches one person to confirm the instance exists. Reads are
// never authenticated, so this cannot validate the credentials themselves.
func checkInstance(cmd *cobra.Command, config *Config) error {
	client, err := popitclient.New(&popit.Config{
		InstanceName: config.InstanceName,
		HostName:     config.HostName,
		Port:         config.Port,
		Version:      config.APIVersion,
		UseTLS:       config.UseTLS,
		HTTPTimeout:  constants.ShortHTTPTimeout,
		HTTPClient:   transportClient(constants.ShortHTTPTimeout),
	})
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	_, err = client.Persons().Get(commandContext(cmd), popit.Options{"per_page": 1})
	if err != nil {
		return fmt.Errorf("failed to reach instance %s: %w", config.InstanceName, err)
	}

	return nil
}
