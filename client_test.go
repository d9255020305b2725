package arangorest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
		field   string
	}{
		{
			name: "valid",
			opts: []Option{WithEndpoint("http://localhost:8529"), WithBasicAuth("root", "")},
		},
		{
			name:    "missing endpoint",
			opts:    []Option{WithBasicAuth("root", "")},
			wantErr: true,
			field:   "endpoint",
		},
		{
			name:    "bad scheme",
			opts:    []Option{WithEndpoint("tcp://localhost:8529"), WithBasicAuth("root", "")},
			wantErr: true,
			field:   "endpoint",
		},
		{
			name:    "empty database",
			opts:    []Option{WithEndpoint("http://localhost:8529"), WithBasicAuth("root", ""), WithDatabase("")},
			wantErr: true,
			field:   "database",
		},
		{
			name:    "negative timeout",
			opts:    []Option{WithEndpoint("http://localhost:8529"), WithBasicAuth("root", ""), WithTimeout(-time.Second)},
			wantErr: true,
			field:   "timeout",
		},
		{
			name:    "negative pool",
			opts:    []Option{WithEndpoint("http://localhost:8529"), WithBasicAuth("root", ""), WithPoolSize(-1)},
			wantErr: true,
			field:   "pool size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				client.Close()
				return
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("error = %T, want *ConfigError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

func TestEndpointTrailingSlash(t *testing.T) {
	client := MustNew(WithEndpoint("http://localhost:8529/"), WithBasicAuth("root", ""))
	if client.Endpoint() != "http://localhost:8529" {
		t.Errorf("Endpoint() = %q", client.Endpoint())
	}
}

func TestMustNewPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustNew() did not panic")
		}
	}()
	MustNew()
}

func TestRequestHeaders(t *testing.T) {
	fs := newFakeServer(t, okHandler)
	client := newTestClient(t, fs)
	ctx := context.Background()

	_, err := client.Post(ctx, "/_api/document/users", map[string]string{"name": "alice"},
		WithHeader("x-arango-async", "store"),
		WithTransaction("trx-1"),
	)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}

	req := fs.last(t)
	if got := req.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := req.Header.Get("Accept"); got != "application/json" {
		t.Errorf("Accept = %q", got)
	}
	if got := req.Header.Get("x-arango-async"); got != "store" {
		t.Errorf("x-arango-async = %q", got)
	}
	if got := req.Header.Get(TransactionHeader); got != "trx-1" {
		t.Errorf("%s = %q", TransactionHeader, got)
	}
	if string(req.Body) != `{"name":"alice"}` {
		t.Errorf("body = %s", req.Body)
	}

	// Caller headers win over defaults.
	_, err = client.Get(ctx, "/_api/version", WithHeaders(map[string]string{
		"Authorization": "bearer override",
		"Accept":        "text/plain",
	}))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	req = fs.last(t)
	if got := req.Header.Get("Authorization"); got != "bearer override" {
		t.Errorf("Authorization = %q, want caller value", got)
	}
	if got := req.Header.Get("Accept"); got != "text/plain" {
		t.Errorf("Accept = %q, want caller value", got)
	}
}

func TestRawBody(t *testing.T) {
	fs := newFakeServer(t, okHandler)
	client := newTestClient(t, fs)
	ctx := context.Background()

	lines := []byte("{\"_key\":\"a\"}\n{\"_key\":\"b\"}\n")
	_, err := client.Post(ctx, "/_api/import", nil,
		WithRawBody(lines, "application/x-ndjson"),
		WithQuery("collection", "users"),
	)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}

	req := fs.last(t)
	if string(req.Body) != string(lines) {
		t.Errorf("body = %q", req.Body)
	}
	if got := req.Header.Get("Content-Type"); got != "application/x-ndjson" {
		t.Errorf("Content-Type = %q", got)
	}

	before := len(fs.Requests())
	_, err = client.Post(ctx, "/_api/import", map[string]any{"a": 1}, WithRawBody(lines, "text/plain"))
	if !IsConfig(err) {
		t.Errorf("both bodies error = %v, want *ConfigError", err)
	}
	if len(fs.Requests()) != before {
		t.Error("request sent despite config error")
	}
}

func TestNoBodyNoContentType(t *testing.T) {
	fs := newFakeServer(t, okHandler)
	client := newTestClient(t, fs)

	if _, err := client.Delete(context.Background(), "/_api/collection/users"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	req := fs.last(t)
	if req.Method != http.MethodDelete {
		t.Errorf("Method = %q", req.Method)
	}
	if len(req.Body) != 0 {
		t.Errorf("body = %q, want empty", req.Body)
	}
	if ct := req.Header.Get("Content-Type"); ct != "" {
		t.Errorf("Content-Type = %q, want none", ct)
	}
}

func TestResponseBodies(t *testing.T) {
	fs := newFakeServer(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		switch r.URL.Path {
		case "/_admin/metrics/v2":
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprint(w, "arangodb_client_connection_statistics_total 3\n")
		case "/_db/_system/_api/document/users/a":
			w.Header().Set("Etag", `"_abc"`)
			writeJSON(w, http.StatusOK, map[string]any{"_key": "a", "name": "alice"})
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	client := newTestClient(t, fs)
	ctx := context.Background()

	text, err := client.Get(ctx, "/_admin/metrics/v2")
	if err != nil {
		t.Fatalf("Get(metrics) error = %v", err)
	}
	if text.IsJSON() {
		t.Error("IsJSON() = true for text body")
	}
	if v, _ := text.Value().(string); !strings.HasPrefix(v, "arangodb_client") {
		t.Errorf("Value() = %v", text.Value())
	}

	doc, err := client.Get(ctx, "/_api/document/users/a")
	if err != nil {
		t.Fatalf("Get(document) error = %v", err)
	}
	if doc.ETag() != "_abc" {
		t.Errorf("ETag() = %q", doc.ETag())
	}
	if doc.Get("name").String() != "alice" {
		t.Errorf("Get(name) = %q", doc.Get("name").String())
	}
	var out struct {
		Key string `json:"_key"`
	}
	if err := doc.UnmarshalResult(&out); err != nil || out.Key != "a" {
		t.Errorf("UnmarshalResult() = %+v, %v", out, err)
	}

	empty, err := client.Delete(ctx, "/_api/anything")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if empty.Value() != nil || empty.StatusCode != http.StatusNoContent {
		t.Errorf("empty response = %d %v", empty.StatusCode, empty.Value())
	}
}

func TestRequiredPath(t *testing.T) {
	fs := newFakeServer(t, okHandler)
	client := newTestClient(t, fs)

	if _, err := client.Get(context.Background(), ""); !IsConfig(err) {
		t.Errorf("Get(\"\") error = %v, want *ConfigError", err)
	}
	if len(fs.Requests()) != 0 {
		t.Error("request sent for empty path")
	}
}
