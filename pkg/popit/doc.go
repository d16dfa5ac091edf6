// Package popit provides types, interfaces, and helpers for working with a
// PopIt instance's REST API.
//
// # Overview
//
// The popit package defines the client configuration, the error taxonomy, and
// the Chain path builder. A concrete client is provided by the popitclient
// package, which wires configuration, transport, authentication, and retries.
// Most consumers should import popitclient to construct a client and then
// address resources either with a literal path or with a Chain.
//
// Getting a client
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
//	  cli, err := popitclient.New(&popit.Config{InstanceName: "za-peoples-assembly"})
//	  if err != nil { log.Fatal(err) }
//
//	  // Both calls address /api/v1/persons/abc123
//	  person, err := cli.Persons("abc123").Get(ctx, nil)
//	  person, err = cli.Get(ctx, "persons/abc123", nil)
//	  _ = person
//	}
//
// # Paths
//
// Client.Path starts a Chain from any number of segments and Chain.Append adds
// more. Segments may be strings, integers, or anything spf13/cast can turn
// into a string. Chains are never mutated once built, so a partially built
// chain can be reused as a prefix:
//
//	people := cli.Path("persons")
//	a, err := people.Append("abc").Get(ctx, nil)
//	b, err := people.Append("def").Get(ctx, nil)
//
// # Responses
//
// Verbs return the decoded JSON value (map[string]any, []any, or a scalar)
// with any {"result": ...} or {"results": [...]} envelope removed. A response
// without a body yields nil. Decode maps a returned value onto a struct.
//
// # Errors
//
// Failed requests return *Error with one of four kinds: KindPageNotFound
// (404), KindNotAuthenticated (401), KindServiceUnavailable (503), or
// KindGeneric. Helpers such as IsNotFound make branching easy, and the
// sentinel values (ErrPageNotFound, ...) work with errors.Is.
//
// # Retries
//
// Only 503 responses are retried, and only when Config.MaxRetries is above
// zero. The delay before retry n (counting from zero) is n² × RetryUnit.
package popit
