package collection

import (
	"context"
	"errors"
	"net/http"
	"testing"

	arangorest "github.com/arangorest/arangorest-go"
	"github.com/arangorest/arangorest-go/arangoresttest"
)

func TestCreate(t *testing.T) {
	fake := arangoresttest.New().
		Respond(http.MethodPost, "/_api/collection", http.StatusOK, map[string]any{
			"error": false, "code": 200, "id": "42", "name": "edges", "type": 3, "status": 3,
			"waitForSync": true, "keyOptions": map[string]any{"type": "uuid"},
		})

	props, err := NewClient(fake).Create(context.Background(), "edges", &CreateOptions{
		Type:       TypeEdge,
		KeyOptions: &KeyOptions{Type: "uuid"},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if props.Name != "edges" || props.Type != TypeEdge || props.KeyOptions.Type != "uuid" {
		t.Errorf("Create() = %+v", props)
	}

	call, _ := fake.LastCall()
	want := `{"name":"edges","type":3,"keyOptions":{"type":"uuid"}}`
	if got := call.JSONBody(); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestList(t *testing.T) {
	fake := arangoresttest.New().
		Respond(http.MethodGet, "/_api/collection", http.StatusOK, arangoresttest.Result([]map[string]any{
			{"id": "1", "name": "users", "type": 2, "isSystem": false},
		}))

	cols, err := NewClient(fake).List(context.Background(), true)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(cols) != 1 || cols[0].Name != "users" || cols[0].Type != TypeDocument {
		t.Errorf("List() = %+v", cols)
	}
	call, _ := fake.LastCall()
	if call.Request.Query["excludeSystem"] != true {
		t.Errorf("query = %v", call.Request.Query)
	}
}

func TestReadEndpoints(t *testing.T) {
	fake := arangoresttest.New().
		Respond(http.MethodGet, "/_api/collection/users/count", http.StatusOK, map[string]any{"count": 7}).
		Respond(http.MethodGet, "/_api/collection/users/revision", http.StatusOK, map[string]any{"revision": "_rev1"}).
		Respond(http.MethodGet, "/_api/collection/users/figures", http.StatusOK, map[string]any{"figures": map[string]any{"documentsSize": 10}}).
		Respond(http.MethodGet, "/_api/collection/users/checksum", http.StatusOK, map[string]any{"checksum": "123", "revision": "_rev1"}).
		Respond(http.MethodGet, "/_api/collection/users/properties", http.StatusOK, map[string]any{"name": "users", "waitForSync": true})
	cols := NewClient(fake)
	ctx := context.Background()

	if n, err := cols.Count(ctx, "users"); err != nil || n != 7 {
		t.Errorf("Count() = %d, %v", n, err)
	}
	if rev, err := cols.Revision(ctx, "users"); err != nil || rev != "_rev1" {
		t.Errorf("Revision() = %q, %v", rev, err)
	}
	if fig, err := cols.Figures(ctx, "users"); err != nil || string(fig) != `{"documentsSize":10}` {
		t.Errorf("Figures() = %s, %v", fig, err)
	}
	sum, err := cols.Checksum(ctx, "users", &ChecksumOptions{WithData: true})
	if err != nil || sum.Checksum != "123" {
		t.Errorf("Checksum() = %+v, %v", sum, err)
	}
	call, _ := fake.LastCall()
	if call.Request.Query["withData"] != true || call.Request.Query["withRevisions"] != nil {
		t.Errorf("checksum query = %v", call.Request.Query)
	}
	props, err := cols.Properties(ctx, "users")
	if err != nil || !props.WaitForSync {
		t.Errorf("Properties() = %+v, %v", props, err)
	}
}

func TestMutations(t *testing.T) {
	fake := arangoresttest.New().
		Respond(http.MethodPut, "/_api/collection/users/properties", http.StatusOK, map[string]any{"name": "users", "waitForSync": true}).
		Respond(http.MethodPut, "/_api/collection/users/rename", http.StatusOK, map[string]any{"name": "people"}).
		Respond(http.MethodPut, "/_api/collection/users/truncate", http.StatusOK, map[string]any{"name": "users"}).
		Respond(http.MethodDelete, "/_api/collection/_jobs", http.StatusOK, map[string]any{"id": "9"})
	cols := NewClient(fake)
	ctx := context.Background()

	sync := true
	if _, err := cols.SetProperties(ctx, "users", SetPropertiesOptions{WaitForSync: &sync}); err != nil {
		t.Fatalf("SetProperties() error = %v", err)
	}
	call, _ := fake.LastCall()
	if call.JSONBody() != `{"waitForSync":true}` {
		t.Errorf("properties body = %s", call.JSONBody())
	}

	info, err := cols.Rename(ctx, "users", "people")
	if err != nil || info.Name != "people" {
		t.Errorf("Rename() = %+v, %v", info, err)
	}
	if err := cols.Truncate(ctx, "users"); err != nil {
		t.Errorf("Truncate() error = %v", err)
	}
	if err := cols.Drop(ctx, "_jobs", true); err != nil {
		t.Errorf("Drop() error = %v", err)
	}
	call, _ = fake.LastCall()
	if call.Request.Query["isSystem"] != true {
		t.Errorf("drop query = %v", call.Request.Query)
	}

	if _, err := cols.Rename(ctx, "users", ""); !arangorest.IsConfig(err) {
		t.Errorf("Rename to empty error = %v, want *ConfigError", err)
	}
}

func TestExists(t *testing.T) {
	fake := arangoresttest.New().
		Respond(http.MethodGet, "/_api/collection/users", http.StatusOK, map[string]any{"name": "users"}).
		Respond(http.MethodGet, "/_api/collection/ghost", http.StatusNotFound,
			arangoresttest.Error(404, arangorest.ErrNumDataSourceNotFound, "collection or view not found")).
		Fail(http.MethodGet, "/_api/collection/flaky", errors.New("reset"))
	cols := NewClient(fake)
	ctx := context.Background()

	if ok, err := cols.Exists(ctx, "users"); !ok || err != nil {
		t.Errorf("Exists(users) = %v, %v", ok, err)
	}
	if ok, err := cols.Exists(ctx, "ghost"); ok || err != nil {
		t.Errorf("Exists(ghost) = %v, %v", ok, err)
	}
	if _, err := cols.Exists(ctx, "flaky"); !arangorest.IsConnection(err) {
		t.Errorf("Exists(flaky) error = %v, want connection error", err)
	}
}
