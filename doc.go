// Package arangorest provides a Go client for the ArangoDB HTTP API.
//
// The root package is the transport core every operation funnels through:
// database-scoped URL routing, query-string encoding, authentication,
// JSON encoding and error normalization, plus the AQL cursor protocol and
// the stream-transaction helper. Resource wrappers (databases,
// collections, documents, indexes, graphs, users, views, analyzers, admin
// and Foxx) live under services/ and only use the Requester interface.
//
// # Quick Start
//
//	client, err := arangorest.New(
//	    arangorest.WithEndpoint("http://localhost:8529"),
//	    arangorest.WithBasicAuth("root", "secret"),
//	    arangorest.WithDatabase("shop"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	rows, err := client.QueryAll(ctx, "FOR p IN products RETURN p", nil, nil)
//
// # Routing
//
// Paths are scoped to a database: "/_api/collection" is sent as
// "/_db/<database>/_api/collection". Server-global endpoints (version,
// engine, database management, user management, /_admin and /_open) are
// never prefixed. The database is the client's current one (see
// UseDatabase) unless a call passes InDatabase.
//
// # Authentication
//
// Exactly one scheme is chosen in New: WithBearerToken, WithJWTSecret
// (mints a bearer token) or WithBasicAuth. A client without credentials
// cannot be constructed.
//
// # Cursors
//
// Query returns the first batch. QueryAll drains every batch; QueryIter
// returns a lazy iterator that fetches the next batch only when needed:
//
//	for row, err := range client.QueryIter(ctx, "FOR d IN logs RETURN d", nil, nil) {
//	    if err != nil {
//	        return err
//	    }
//	    process(row)
//	}
//
// # Transactions
//
// RunTransaction begins a stream transaction, runs a callback and commits,
// aborting if the callback fails:
//
//	err := client.RunTransaction(ctx,
//	    arangorest.TransactionCollections{Write: []string{"orders"}},
//	    func(ctx context.Context, id string) error {
//	        _, err := client.Post(ctx, "/_api/document/orders", order,
//	            arangorest.WithTransaction(id))
//	        return err
//	    }, nil)
//
// # Error Handling
//
// Failures are one of four types: *ConfigError (rejected before any
// request), *ConnectionError (no response), *ApplicationError (the server
// returned an error body with errorNum) and *TransportError (HTTP status
// >= 400 without an error body). Helpers such as IsNotFound, IsConflict
// and IsRetryable classify them:
//
//	_, err := client.Get(ctx, "/_api/document/users/alice")
//	if arangorest.IsNotFound(err) {
//	    // Handle missing document
//	}
//
// The client never retries. Retry wraps idempotent calls with exponential
// backoff when the caller wants it.
//
// # Thread Safety
//
// The Client is safe for concurrent use from multiple goroutines.
// UseDatabase is not ordered against concurrent calls; pass InDatabase
// when a call must target a specific database.
package arangorest
