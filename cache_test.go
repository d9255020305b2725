package arangorest

import (
	"net/http"
	"testing"
	"time"
)

func etagResponse(tag string) *Response {
	h := http.Header{}
	if tag != "" {
		h.Set("Etag", `"`+tag+`"`)
	}
	return &Response{StatusCode: http.StatusOK, Header: h, Body: []byte(`{}`)}
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache(CacheConfig{MaxEntries: 2, TTL: time.Minute})

	cache.Set("a", etagResponse("1"))
	cache.Set("untagged", etagResponse(""))
	if _, ok := cache.Get("untagged"); ok {
		t.Error("response without ETag was cached")
	}

	got, ok := cache.Get("a")
	if !ok || got.ETag() != "1" {
		t.Fatalf("Get(a) = %v, %v", got, ok)
	}

	cache.Delete("a")
	if _, ok := cache.Get("a"); ok {
		t.Error("Get(a) after Delete found entry")
	}

	cache.Set("b", etagResponse("2"))
	cache.Clear()
	if _, ok := cache.Get("b"); ok {
		t.Error("Get(b) after Clear found entry")
	}
}

func TestMemoryCacheExpiryAndEviction(t *testing.T) {
	now := time.Unix(0, 0)
	c := NewMemoryCache(CacheConfig{MaxEntries: 2, TTL: time.Minute}).(*memoryCache)
	c.now = func() time.Time { return now }

	c.Set("a", etagResponse("1"))
	now = now.Add(time.Second)
	c.Set("b", etagResponse("2"))
	now = now.Add(time.Second)
	c.Set("c", etagResponse("3"))

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry was not evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("newest entry missing")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("b"); ok {
		t.Error("expired entry returned")
	}
}

func TestNoCache(t *testing.T) {
	c := NoCache()
	c.Set("a", etagResponse("1"))
	if _, ok := c.Get("a"); ok {
		t.Error("NoCache stored an entry")
	}
}
