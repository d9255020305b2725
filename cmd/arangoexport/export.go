package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"

	"github.com/arangorest/arangorest-go"
)

// rowSource streams query results. *arangorest.Client implements it.
type rowSource interface {
	QueryIter(ctx context.Context, query string, bindVars map[string]any, opts *arangorest.QueryOptions, reqOpts ...arangorest.RequestOption) iter.Seq2[json.RawMessage, error]
}

// exportRows writes every row of query to w as newline-delimited JSON and
// returns the number of rows written. A write error stops the query; the
// row source releases the server cursor when iteration stops early.
func exportRows(ctx context.Context, src rowSource, query string, bindVars map[string]any, batchSize int, w io.Writer) (int, error) {
	opts := &arangorest.QueryOptions{
		BatchSize: batchSize,
		Options:   &arangorest.QueryExtraOptions{Stream: true},
	}

	n := 0
	line := make([]byte, 0, 512)
	for row, err := range src.QueryIter(ctx, query, bindVars, opts) {
		if err != nil {
			return n, fmt.Errorf("row %d: %w", n, err)
		}
		line = append(append(line[:0], row...), '\n')
		if _, err := w.Write(line); err != nil {
			return n, fmt.Errorf("write row %d: %w", n, err)
		}
		n++
	}
	return n, nil
}

// parseBindVars decodes the -bind flag, a JSON object.
func parseBindVars(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var vars map[string]any
	if err := json.Unmarshal([]byte(raw), &vars); err != nil {
		return nil, &arangorest.ConfigError{Field: "bind", Message: "must be a JSON object", Err: err}
	}
	if vars == nil {
		return nil, &arangorest.ConfigError{Field: "bind", Message: "must be a JSON object, got null"}
	}
	return vars, nil
}
