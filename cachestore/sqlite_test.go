package cachestore

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/arangorest/arangorest-go"
	"github.com/arangorest/arangorest-go/arangoresttest"
	"github.com/arangorest/arangorest-go/services/document"
)

func etagResponse(t *testing.T, tag, body string) *arangorest.Response {
	t.Helper()
	h := http.Header{}
	if tag != "" {
		h.Set("Etag", `"`+tag+`"`)
	}
	resp, err := arangorest.NewResponse(http.StatusOK, h, []byte(body))
	if err != nil {
		t.Fatalf("NewResponse() error = %v", err)
	}
	return resp
}

func openStore(t *testing.T, config arangorest.CacheConfig) *SQLite {
	t.Helper()
	store, err := OpenSQLite(":memory:", config)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenSQLiteRequiresDSN(t *testing.T) {
	_, err := OpenSQLite("", arangorest.DefaultCacheConfig())
	if !arangorest.IsConfig(err) {
		t.Errorf("OpenSQLite(\"\") error = %v, want ConfigError", err)
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	store := openStore(t, arangorest.CacheConfig{TTL: time.Minute})

	store.Set("untagged", etagResponse(t, "", `{}`))
	if _, ok := store.Get("untagged"); ok {
		t.Error("response without ETag was stored")
	}

	store.Set("db/users/alice", etagResponse(t, "_r1", `{"_key":"alice","name":"Alice"}`))
	got, ok := store.Get("db/users/alice")
	if !ok {
		t.Fatal("Get() missed a stored response")
	}
	if got.ETag() != "_r1" {
		t.Errorf("ETag() = %q, want _r1", got.ETag())
	}
	if name := got.Get("name").String(); name != "Alice" {
		t.Errorf("name = %q, want Alice", name)
	}

	store.Set("db/users/alice", etagResponse(t, "_r2", `{"_key":"alice","name":"Alicia"}`))
	got, _ = store.Get("db/users/alice")
	if got.ETag() != "_r2" {
		t.Errorf("ETag() after overwrite = %q, want _r2", got.ETag())
	}

	store.Delete("db/users/alice")
	if _, ok := store.Get("db/users/alice"); ok {
		t.Error("Get() after Delete found entry")
	}

	store.Set("a", etagResponse(t, "1", `{}`))
	store.Set("b", etagResponse(t, "2", `{}`))
	store.Clear()
	if n, err := store.Len(); err != nil || n != 0 {
		t.Errorf("Len() after Clear = %d, %v", n, err)
	}
}

func TestSQLiteExpiryAndEviction(t *testing.T) {
	store := openStore(t, arangorest.CacheConfig{MaxEntries: 2, TTL: time.Minute})
	now := time.Unix(1000, 0)
	store.now = func() time.Time { return now }

	store.Set("a", etagResponse(t, "1", `{}`))
	now = now.Add(time.Second)
	store.Set("b", etagResponse(t, "2", `{}`))
	now = now.Add(time.Second)
	store.Set("c", etagResponse(t, "3", `{}`))

	if _, ok := store.Get("a"); ok {
		t.Error("oldest entry was not evicted")
	}
	if n, _ := store.Len(); n != 2 {
		t.Errorf("Len() = %d, want 2", n)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := store.Get("c"); ok {
		t.Error("expired entry was returned")
	}
}

func TestDocumentReadCachedWithSQLite(t *testing.T) {
	store := openStore(t, arangorest.DefaultCacheConfig())
	path := "/_api/document/users/alice"
	fake := arangoresttest.New().
		RespondWithHeader(http.MethodGet, path, http.StatusOK, http.Header{"Etag": {`"_r1"`}},
			map[string]any{"_key": "alice", "name": "Alice"}).
		Respond(http.MethodGet, path, http.StatusNotModified, nil)
	docs := document.NewClient(fake, document.WithCache(store))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		var u struct {
			Name string `json:"name"`
		}
		if err := docs.ReadCached(ctx, "users", "alice", &u); err != nil {
			t.Fatalf("ReadCached() #%d error = %v", i, err)
		}
		if u.Name != "Alice" {
			t.Errorf("ReadCached() #%d name = %q", i, u.Name)
		}
	}
	if n, _ := store.Len(); n != 1 {
		t.Errorf("Len() = %d, want 1", n)
	}
	call, _ := fake.LastCall()
	if h := call.Request.Header.Get("If-None-Match"); h != `"_r1"` {
		t.Errorf("revalidation If-None-Match = %q", h)
	}
}

func TestSQLiteGetLogsStorageErrors(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	store, err := OpenSQLite(":memory:", arangorest.DefaultCacheConfig(), WithLogger(logger))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}

	if _, ok := store.Get("absent"); ok {
		t.Fatal("Get(absent) hit")
	}
	if logs.Len() != 0 {
		t.Errorf("plain miss was logged: %s", logs.String())
	}

	store.Close()
	if _, ok := store.Get("absent"); ok {
		t.Fatal("Get() on closed store hit")
	}
	if !strings.Contains(logs.String(), "cachestore: get") {
		t.Errorf("storage error not logged, logs = %q", logs.String())
	}
}
