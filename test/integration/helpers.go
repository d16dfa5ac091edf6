//go:build integration

package integration

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/popit/pkg/popit"
)

// TestConfig holds the live instance settings for integration tests.
type TestConfig struct {
	InstanceName string `yaml:"instance_name"`
	HostName     string `yaml:"host_name"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	APIKey       string `yaml:"api_key"`
}

// LoadTestConfig reads the YAML file named by POPIT_AUTH_FILE, then applies
// POPIT_INSTANCE_NAME, POPIT_USERNAME, POPIT_PASSWORD and POPIT_API_KEY.
func LoadTestConfig() (*TestConfig, error) {
	config := &TestConfig{InstanceName: "tttest"}

	if file := os.Getenv("POPIT_AUTH_FILE"); file != "" {
		// #nosec G304 -- test configuration path chosen by the developer
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}

		err = yaml.Unmarshal(data, config)
		if err != nil {
			return nil, err
		}
	}

	for env, target := range map[string]*string{
		"POPIT_INSTANCE_NAME": &config.InstanceName,
		"POPIT_USERNAME":      &config.Username,
		"POPIT_PASSWORD":      &config.Password,
		"POPIT_API_KEY":       &config.APIKey,
	} {
		if value := os.Getenv(env); value != "" {
			*target = value
		}
	}

	return config, nil
}

// HasCredentials reports whether writes can be attempted.
func (c *TestConfig) HasCredentials() bool {
	return c.Username != "" || c.APIKey != ""
}

// ClientConfig returns a library configuration. Credentials are left out
// unless authenticated is set.
func (c *TestConfig) ClientConfig(authenticated bool) *popit.Config {
	config := &popit.Config{
		InstanceName: c.InstanceName,
		HostName:     c.HostName,
		Port:         c.Port,
		MaxRetries:   2,
	}

	if authenticated {
		config.Username = c.Username
		config.Password = c.Password
		config.APIKey = c.APIKey
	}

	return config
}
