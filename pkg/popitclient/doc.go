// Package popitclient provides the primary entry point for constructing a
// PopIt API client that implements the popit.Client interface.
//
// It layers configuration defaults, HTTP transport, authentication, retries,
// and envelope handling on top of the types defined in the popit package.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/popit/pkg/popit"
//	  "github.com/fivetwenty-io/popit/pkg/popitclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // Read-only: just an instance name.
//	  cli, err := popitclient.New(&popit.Config{InstanceName: "tttest"})
//	  if err != nil { log.Fatal(err) }
//
//	  // Writes need credentials, either username/password...
//	  cli, err = popitclient.New(&popit.Config{
//	    InstanceName: "tttest",
//	    Username:     "user",
//	    Password:     "pass",
//	    MaxRetries:   2, // retry 503s, waiting 0s then 1s
//	  })
//
//	  // ...or an API key.
//	  cli, err = popitclient.NewWithAPIKey("tttest", "secret")
//	  if err != nil { log.Fatal(err) }
//
//	  person, err := cli.Persons().Post(ctx, popit.Options{"name": "John Smith"})
//	  if err != nil { log.Fatal(err) }
//	  _ = person
//	}
//
// # Hosts
//
// HostName may be given as a bare host or as a URL. "https://" enables TLS,
// "http://" is ignored, and a trailing slash is dropped, so
// "https://popit.example.org/" and "popit.example.org" with UseTLS are the
// same configuration.
//
// # Helpers
//
// The package also provides convenience constructors NewWithInstance,
// NewWithPassword, and NewWithAPIKey that wrap New with the appropriate
// configuration.
package popitclient
