package arangorest

import "context"

// Requester is the contract resource wrappers consume. Wrappers never
// build URLs or touch authentication; they pass a path and options.
type Requester interface {
	Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error)
	Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error)
	Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error)
	Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error)
	Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error)
}

// Doer can send arbitrary methods such as HEAD. Wrappers type-assert a
// Requester to Doer when they need it and fall back to Get otherwise.
type Doer interface {
	Request(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error)
}

// Querier runs AQL queries.
type Querier interface {
	// Query creates a cursor and returns its first batch.
	Query(ctx context.Context, query string, bindVars map[string]any, opts *QueryOptions, reqOpts ...RequestOption) (*Cursor, error)

	// CursorNext fetches the batch following the one last returned for id.
	CursorNext(ctx context.Context, id string, reqOpts ...RequestOption) (*Cursor, error)
}

// Transactor runs stream transactions.
type Transactor interface {
	BeginTransaction(ctx context.Context, cols TransactionCollections, opts *TransactionOptions, reqOpts ...RequestOption) (*Transaction, error)
	CommitTransaction(ctx context.Context, id string, reqOpts ...RequestOption) (*Transaction, error)
	AbortTransaction(ctx context.Context, id string, reqOpts ...RequestOption) (*Transaction, error)
}

// DatabaseScoper exposes the database a Requester targets by default.
type DatabaseScoper interface {
	Database() string
}

// Ensure Client implements all interfaces.
var (
	_ Requester      = (*Client)(nil)
	_ Doer           = (*Client)(nil)
	_ Querier        = (*Client)(nil)
	_ Transactor     = (*Client)(nil)
	_ DatabaseScoper = (*Client)(nil)
)
