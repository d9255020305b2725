package arangorest

import (
	"context"
	"encoding/json"
	"fmt"
)

// TransactionStatus is the server-side state of a stream transaction.
type TransactionStatus string

const (
	TransactionRunning   TransactionStatus = "running"
	TransactionCommitted TransactionStatus = "committed"
	TransactionAborted   TransactionStatus = "aborted"
)

// TransactionCollections declares the collections a transaction locks.
type TransactionCollections struct {
	Read      []string `json:"read,omitempty"`
	Write     []string `json:"write,omitempty"`
	Exclusive []string `json:"exclusive,omitempty"`
}

// TransactionOptions configures BeginTransaction. Zero fields are not sent.
type TransactionOptions struct {
	WaitForSync        bool    `json:"waitForSync,omitempty"`
	AllowImplicit      *bool   `json:"allowImplicit,omitempty"`
	LockTimeout        float64 `json:"lockTimeout,omitempty"`
	MaxTransactionSize int64   `json:"maxTransactionSize,omitempty"`
	SkipFastLockRound  bool    `json:"skipFastLockRound,omitempty"`
}

// Transaction is a stream transaction handle.
type Transaction struct {
	ID     string            `json:"id"`
	Status TransactionStatus `json:"status"`
}

// BeginTransaction starts a stream transaction.
func (c *Client) BeginTransaction(ctx context.Context, cols TransactionCollections, opts *TransactionOptions, reqOpts ...RequestOption) (*Transaction, error) {
	body := struct {
		Collections TransactionCollections `json:"collections"`
		*TransactionOptions
	}{cols, opts}

	resp, err := c.Post(ctx, "/_api/transaction/begin", body, reqOpts...)
	if err != nil {
		return nil, err
	}
	return decodeTransaction(resp)
}

// CommitTransaction commits a running transaction.
func (c *Client) CommitTransaction(ctx context.Context, id string, reqOpts ...RequestOption) (*Transaction, error) {
	if err := RequireArg("transaction id", id); err != nil {
		return nil, err
	}
	resp, err := c.Put(ctx, "/_api/transaction/"+PathEscape(id), nil, reqOpts...)
	if err != nil {
		return nil, err
	}
	return decodeTransaction(resp)
}

// AbortTransaction aborts a running transaction.
func (c *Client) AbortTransaction(ctx context.Context, id string, reqOpts ...RequestOption) (*Transaction, error) {
	if err := RequireArg("transaction id", id); err != nil {
		return nil, err
	}
	resp, err := c.Delete(ctx, "/_api/transaction/"+PathEscape(id), reqOpts...)
	if err != nil {
		return nil, err
	}
	return decodeTransaction(resp)
}

// GetTransaction returns the status of a transaction.
func (c *Client) GetTransaction(ctx context.Context, id string, reqOpts ...RequestOption) (*Transaction, error) {
	if err := RequireArg("transaction id", id); err != nil {
		return nil, err
	}
	resp, err := c.Get(ctx, "/_api/transaction/"+PathEscape(id), reqOpts...)
	if err != nil {
		return nil, err
	}
	return decodeTransaction(resp)
}

// ListTransactions returns the stream transactions known to the database.
func (c *Client) ListTransactions(ctx context.Context, reqOpts ...RequestOption) ([]Transaction, error) {
	resp, err := c.Get(ctx, "/_api/transaction", reqOpts...)
	if err != nil {
		return nil, err
	}

	var list []struct {
		ID    string            `json:"id"`
		State TransactionStatus `json:"state"`
	}
	if err := resp.UnmarshalPath("transactions", &list); err != nil {
		return nil, err
	}

	out := make([]Transaction, 0, len(list))
	for _, t := range list {
		out = append(out, Transaction{ID: t.ID, Status: t.State})
	}
	return out, nil
}

func decodeTransaction(resp *Response) (*Transaction, error) {
	var t Transaction
	if err := resp.UnmarshalPath("result", &t); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	return &t, nil
}

// JSTransaction is a single-request transaction executed by a server-side
// JavaScript function.
type JSTransaction struct {
	Collections        TransactionCollections `json:"collections"`
	Action             string                 `json:"action"`
	Params             any                    `json:"params,omitempty"`
	WaitForSync        bool                   `json:"waitForSync,omitempty"`
	LockTimeout        float64                `json:"lockTimeout,omitempty"`
	MaxTransactionSize int64                  `json:"maxTransactionSize,omitempty"`
}

// ExecuteJSTransaction runs a JavaScript transaction and returns its result.
func (c *Client) ExecuteJSTransaction(ctx context.Context, trx JSTransaction, reqOpts ...RequestOption) (json.RawMessage, error) {
	if err := RequireArg("action", trx.Action); err != nil {
		return nil, err
	}
	resp, err := c.Post(ctx, "/_api/transaction", trx, reqOpts...)
	if err != nil {
		return nil, err
	}
	var out json.RawMessage
	if err := resp.UnmarshalPath("result", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RunTransaction begins a stream transaction, calls fn with its id and
// commits when fn succeeds. If fn fails or panics the transaction is
// aborted and fn's error (or panic) is propagated; an abort failure is only
// logged. A failed commit is returned after a best-effort abort. Requests
// inside fn must carry WithTransaction(id).
//
// Example:
//
//	total, err := arangorest.RunTransaction(ctx, client,
//	    arangorest.TransactionCollections{Write: []string{"accounts"}},
//	    func(ctx context.Context, id string) (int, error) {
//	        _, err := client.Post(ctx, "/_api/document/accounts", acct,
//	            arangorest.WithTransaction(id))
//	        return 1, err
//	    }, nil)
func RunTransaction[T any](ctx context.Context, c *Client, cols TransactionCollections, fn func(ctx context.Context, id string) (T, error), opts *TransactionOptions, reqOpts ...RequestOption) (result T, err error) {
	trx, err := c.BeginTransaction(ctx, cols, opts, reqOpts...)
	if err != nil {
		return result, fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		// Abort must run even when ctx is already cancelled.
		abortCtx := context.WithoutCancel(ctx)
		if _, abortErr := c.AbortTransaction(abortCtx, trx.ID, reqOpts...); abortErr != nil {
			c.logger.WarnContext(ctx, "arangorest transaction abort failed",
				"transaction", trx.ID, "error", abortErr)
		}
	}()

	result, err = fn(ctx, trx.ID)
	if err != nil {
		var zero T
		return zero, err
	}

	if _, err := c.CommitTransaction(ctx, trx.ID, reqOpts...); err != nil {
		var zero T
		return zero, fmt.Errorf("commit transaction %s: %w", trx.ID, err)
	}
	committed = true
	return result, nil
}

// RunTransaction is the package-level RunTransaction for callbacks that
// return no value.
func (c *Client) RunTransaction(ctx context.Context, cols TransactionCollections, fn func(ctx context.Context, id string) error, opts *TransactionOptions, reqOpts ...RequestOption) error {
	_, err := RunTransaction(ctx, c, cols, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, fn(ctx, id)
	}, opts, reqOpts...)
	return err
}
