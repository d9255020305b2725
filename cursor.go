package arangorest

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
)

// QueryOptions configures cursor creation. Zero fields are not sent.
type QueryOptions struct {
	Count       bool               `json:"count,omitempty"`       // Return the total count
	BatchSize   int                `json:"batchSize,omitempty"`   // Rows per batch
	TTL         int                `json:"ttl,omitempty"`         // Server-side cursor lifetime in seconds
	Cache       *bool              `json:"cache,omitempty"`       // Use the query results cache
	MemoryLimit int64              `json:"memoryLimit,omitempty"` // Bytes
	Options     *QueryExtraOptions `json:"options,omitempty"`
}

// QueryExtraOptions are the nested "options" of a cursor request.
type QueryExtraOptions struct {
	FullCount                   bool     `json:"fullCount,omitempty"`
	Stream                      bool     `json:"stream,omitempty"`
	MaxRuntime                  float64  `json:"maxRuntime,omitempty"`
	Profile                     int      `json:"profile,omitempty"`
	FailOnWarning               *bool    `json:"failOnWarning,omitempty"`
	MaxWarningCount             int      `json:"maxWarningCount,omitempty"`
	SkipInaccessibleCollections bool     `json:"skipInaccessibleCollections,omitempty"`
	OptimizerRules              []string `json:"-"`
	// AllowRetry asks the server to keep the last batch so a failed batch
	// fetch can be repeated. The client itself never retries.
	AllowRetry bool `json:"allowRetry,omitempty"`
}

// MarshalJSON nests OptimizerRules as {"optimizer":{"rules":[...]}}.
func (o QueryExtraOptions) MarshalJSON() ([]byte, error) {
	type plain QueryExtraOptions
	type optimizer struct {
		Rules []string `json:"rules"`
	}
	out := struct {
		plain
		Optimizer *optimizer `json:"optimizer,omitempty"`
	}{plain: plain(o)}
	if len(o.OptimizerRules) > 0 {
		out.Optimizer = &optimizer{Rules: o.OptimizerRules}
	}
	return json.Marshal(out)
}

type cursorRequest struct {
	Query    string         `json:"query"`
	BindVars map[string]any `json:"bindVars,omitempty"`
	*QueryOptions
}

// Cursor is a server-side paginated query result. Result holds the rows of
// the current batch not yet consumed by Rows.
type Cursor struct {
	ID      string            `json:"id"`
	Result  []json.RawMessage `json:"result"`
	HasMore bool              `json:"hasMore"`
	Count   *int64            `json:"count"`
	Cached  bool              `json:"cached"`
	Extra   json.RawMessage   `json:"extra"`

	client *Client
	scope  []RequestOption
}

// Query executes an AQL query and returns a cursor holding the first batch.
//
// Example:
//
//	cur, err := client.Query(ctx, "FOR u IN users FILTER u.age > @age RETURN u",
//	    map[string]any{"age": 21}, &arangorest.QueryOptions{BatchSize: 100})
func (c *Client) Query(ctx context.Context, query string, bindVars map[string]any, opts *QueryOptions, reqOpts ...RequestOption) (*Cursor, error) {
	if err := RequireArg("query", query); err != nil {
		return nil, err
	}

	body := cursorRequest{Query: query, BindVars: bindVars, QueryOptions: opts}
	resp, err := c.Post(ctx, "/_api/cursor", body, reqOpts...)
	if err != nil {
		return nil, err
	}
	return c.decodeCursor(resp, reqOpts)
}

// CursorNext fetches the next batch of cursor id. Callers must stop once a
// returned cursor has HasMore false: the server has discarded it.
func (c *Client) CursorNext(ctx context.Context, id string, reqOpts ...RequestOption) (*Cursor, error) {
	if err := RequireArg("cursor id", id); err != nil {
		return nil, err
	}

	resp, err := c.Put(ctx, "/_api/cursor/"+PathEscape(id), nil, reqOpts...)
	if err != nil {
		return nil, err
	}
	return c.decodeCursor(resp, reqOpts)
}

// DeleteCursor discards a cursor that still has batches on the server.
func (c *Client) DeleteCursor(ctx context.Context, id string, reqOpts ...RequestOption) error {
	if err := RequireArg("cursor id", id); err != nil {
		return err
	}
	_, err := c.Delete(ctx, "/_api/cursor/"+PathEscape(id), reqOpts...)
	return err
}

// QueryAll executes a query and drains every batch into one slice.
// Memory use grows with the result; use QueryIter for bounded memory.
func (c *Client) QueryAll(ctx context.Context, query string, bindVars map[string]any, opts *QueryOptions, reqOpts ...RequestOption) ([]json.RawMessage, error) {
	cur, err := c.Query(ctx, query, bindVars, opts, reqOpts...)
	if err != nil {
		return nil, err
	}
	defer c.releaseCursor(ctx, cur)
	return cur.All(ctx)
}

// QueryIter executes a query and returns a lazy single-pass sequence of
// rows. The next batch is fetched only when the current one is used up.
// A failure is yielded once as the final element. When iteration stops
// before the last batch (break, error or cancelled ctx) the server cursor
// is deleted.
//
// Example:
//
//	for row, err := range client.QueryIter(ctx, "FOR d IN logs RETURN d", nil, nil) {
//	    if err != nil {
//	        return err
//	    }
//	    handle(row)
//	}
func (c *Client) QueryIter(ctx context.Context, query string, bindVars map[string]any, opts *QueryOptions, reqOpts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	return func(yield func(json.RawMessage, error) bool) {
		cur, err := c.Query(ctx, query, bindVars, opts, reqOpts...)
		if err != nil {
			yield(nil, err)
			return
		}
		defer c.releaseCursor(ctx, cur)
		for row, err := range cur.Rows(ctx) {
			if !yield(row, err) {
				return
			}
		}
	}
}

// releaseCursor closes cur if batches remain. The delete runs on a
// context that ignores cancellation so an interrupted caller still frees
// the server cursor.
func (c *Client) releaseCursor(ctx context.Context, cur *Cursor) {
	if err := cur.Close(context.WithoutCancel(ctx)); err != nil {
		c.logger.WarnContext(ctx, "arangorest cursor release failed",
			"cursor", cur.ID, "error", err)
	}
}

func (c *Client) decodeCursor(resp *Response, reqOpts []RequestOption) (*Cursor, error) {
	cur := &Cursor{}
	if err := resp.Unmarshal(cur); err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	cur.client = c
	cur.scope = newRequestConfig(reqOpts).replay()
	return cur, nil
}

// Next replaces the current batch with the following one.
// It returns ErrCursorExhausted once HasMore is false.
func (cur *Cursor) Next(ctx context.Context) error {
	if !cur.HasMore || cur.ID == "" {
		return ErrCursorExhausted
	}

	next, err := cur.client.CursorNext(ctx, cur.ID, cur.scope...)
	if err != nil {
		return err
	}

	cur.Result = next.Result
	cur.HasMore = next.HasMore
	cur.Cached = next.Cached
	if next.ID != "" {
		cur.ID = next.ID
	}
	if next.Count != nil {
		cur.Count = next.Count
	}
	if len(next.Extra) > 0 {
		cur.Extra = next.Extra
	}
	return nil
}

// Rows yields every remaining row, fetching batches on demand. Rows are
// consumed as they are yielded, so the sequence cannot be restarted.
func (cur *Cursor) Rows(ctx context.Context) iter.Seq2[json.RawMessage, error] {
	return func(yield func(json.RawMessage, error) bool) {
		for {
			for len(cur.Result) > 0 {
				row := cur.Result[0]
				cur.Result = cur.Result[1:]
				if !yield(row, nil) {
					return
				}
			}
			if !cur.HasMore || cur.ID == "" {
				return
			}
			if err := cur.Next(ctx); err != nil {
				yield(nil, err)
				return
			}
		}
	}
}

// All drains the remaining rows of the cursor.
func (cur *Cursor) All(ctx context.Context) ([]json.RawMessage, error) {
	var rows []json.RawMessage
	if cur.Count != nil && *cur.Count > 0 {
		rows = make([]json.RawMessage, 0, *cur.Count)
	}
	for row, err := range cur.Rows(ctx) {
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Close discards the server-side cursor if batches remain.
func (cur *Cursor) Close(ctx context.Context) error {
	if !cur.HasMore || cur.ID == "" {
		return nil
	}
	if err := cur.client.DeleteCursor(ctx, cur.ID, cur.scope...); err != nil {
		return err
	}
	cur.HasMore = false
	cur.Result = nil
	return nil
}

// CollectAs drains a cursor, decoding each row into T.
func CollectAs[T any](ctx context.Context, cur *Cursor) ([]T, error) {
	var out []T
	for row, err := range cur.Rows(ctx) {
		if err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal(row, &v); err != nil {
			return nil, fmt.Errorf("decode row %d: %w", len(out), err)
		}
		out = append(out, v)
	}
	return out, nil
}

// QueryWarning is a warning attached to a query result or plan.
type QueryWarning struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ExplainResult describes the execution plan of a query.
type ExplainResult struct {
	Plan      json.RawMessage   `json:"plan,omitempty"`
	Plans     []json.RawMessage `json:"plans,omitempty"`
	Warnings  []QueryWarning    `json:"warnings"`
	Cacheable bool              `json:"cacheable"`
}

// ExplainQuery returns the optimizer's plan for a query without running it.
func (c *Client) ExplainQuery(ctx context.Context, query string, bindVars map[string]any, opts *QueryExtraOptions, reqOpts ...RequestOption) (*ExplainResult, error) {
	if err := RequireArg("query", query); err != nil {
		return nil, err
	}

	body := struct {
		Query    string             `json:"query"`
		BindVars map[string]any     `json:"bindVars,omitempty"`
		Options  *QueryExtraOptions `json:"options,omitempty"`
	}{query, bindVars, opts}

	resp, err := c.Post(ctx, "/_api/explain", body, reqOpts...)
	if err != nil {
		return nil, err
	}

	var out ExplainResult
	if err := resp.Unmarshal(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ParsedQuery is the syntax check result of a query.
type ParsedQuery struct {
	Collections []string        `json:"collections"`
	BindVars    []string        `json:"bindVars"`
	AST         json.RawMessage `json:"ast"`
}

// ParseQuery validates query syntax without executing it.
func (c *Client) ParseQuery(ctx context.Context, query string, reqOpts ...RequestOption) (*ParsedQuery, error) {
	if err := RequireArg("query", query); err != nil {
		return nil, err
	}

	resp, err := c.Post(ctx, "/_api/query", map[string]string{"query": query}, reqOpts...)
	if err != nil {
		return nil, err
	}

	var out ParsedQuery
	if err := resp.Unmarshal(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
