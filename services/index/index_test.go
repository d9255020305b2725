package index

import (
	"context"
	"net/http"
	"testing"

	arangorest "github.com/arangorest/arangorest-go"
	"github.com/arangorest/arangorest-go/arangoresttest"
)

func TestEnsure(t *testing.T) {
	created := map[string]any{"id": "users/1", "name": "idx_1", "type": "persistent", "fields": []string{"email"}, "unique": true, "isNewlyCreated": true}

	tests := []struct {
		name string
		call func(*Client) (*Index, error)
		want string
	}{
		{
			name: "persistent",
			call: func(c *Client) (*Index, error) {
				return c.EnsurePersistent(context.Background(), "users", []string{"email"}, &PersistentOptions{Unique: true})
			},
			want: `{"type":"persistent","fields":["email"],"unique":true}`,
		},
		{
			name: "ttl",
			call: func(c *Client) (*Index, error) {
				return c.EnsureTTL(context.Background(), "users", "createdAt", 3600, nil)
			},
			want: `{"type":"ttl","fields":["createdAt"],"expireAfter":3600}`,
		},
		{
			name: "geo",
			call: func(c *Client) (*Index, error) {
				return c.EnsureGeo(context.Background(), "users", []string{"location"}, &GeoOptions{GeoJSON: true})
			},
			want: `{"type":"geo","fields":["location"],"geoJson":true}`,
		},
		{
			name: "inverted",
			call: func(c *Client) (*Index, error) {
				return c.EnsureInverted(context.Background(), "users",
					[]InvertedField{{Name: "bio", Analyzer: "text_en"}}, &InvertedOptions{Name: "search"})
			},
			want: `{"type":"inverted","fields":[{"name":"bio","analyzer":"text_en"}],"name":"search"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := arangoresttest.New().Respond(http.MethodPost, "/_api/index", http.StatusCreated, created)
			idx, err := tt.call(NewClient(fake))
			if err != nil {
				t.Fatalf("ensure error = %v", err)
			}
			if idx.ID != "users/1" || !idx.IsNewlyCreated {
				t.Errorf("index = %+v", idx)
			}

			call, _ := fake.LastCall()
			if got := call.JSONBody(); got != tt.want {
				t.Errorf("body = %s, want %s", got, tt.want)
			}
			if call.Request.Query["collection"] != "users" {
				t.Errorf("query = %v", call.Request.Query)
			}
		})
	}
}

func TestListDecodesFieldShapes(t *testing.T) {
	fake := arangoresttest.New().
		Respond(http.MethodGet, "/_api/index", http.StatusOK, map[string]any{
			"error": false,
			"indexes": []any{
				map[string]any{"id": "users/0", "type": "primary", "fields": []string{"_key"}},
				map[string]any{"id": "users/2", "type": "inverted", "fields": []any{map[string]any{"name": "bio"}}},
			},
		})

	list, err := NewClient(fake).List(context.Background(), "users")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List() = %d indexes, want 2", len(list))
	}
	if list[0].Fields[0] != "_key" || list[1].Fields[0] != "bio" {
		t.Errorf("fields = %v, %v", list[0].Fields, list[1].Fields)
	}
	if len(list[1].Raw) == 0 {
		t.Error("raw definition not kept")
	}
}

func TestGetAndDelete(t *testing.T) {
	fake := arangoresttest.New().
		Respond(http.MethodGet, "/_api/index/users/7", http.StatusOK, map[string]any{"id": "users/7", "type": "ttl", "expireAfter": 60}).
		Respond(http.MethodDelete, "/_api/index/users/7", http.StatusOK, map[string]any{"id": "users/7"}).
		Respond(http.MethodDelete, "/_api/index/users/8", http.StatusNotFound,
			arangoresttest.Error(404, arangorest.ErrNumIndexNotFound, "index not found"))
	indexes := NewClient(fake)
	ctx := context.Background()

	idx, err := indexes.Get(ctx, "users/7")
	if err != nil || idx.ExpireAfter != 60 {
		t.Errorf("Get() = %+v, %v", idx, err)
	}
	if err := indexes.Delete(ctx, "users/7"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if err := indexes.Delete(ctx, "users/8"); !arangorest.IsNotFound(err) {
		t.Errorf("Delete(missing) error = %v, want not found", err)
	}
}
