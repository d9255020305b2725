package arangorest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
)

// cursorServer serves a fixed sequence of batches for one cursor.
type cursorServer struct {
	mu      sync.Mutex
	id      string
	batches [][]int
	next    int
	puts    int
	deletes int
}

func newCursorServer(batches ...[]int) *cursorServer {
	return &cursorServer{id: uuid.NewString(), batches: batches}
}

func (cs *cursorServer) handle(w http.ResponseWriter, r *http.Request, _ []byte) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/_api/cursor"):
		cs.next = 0
	case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/_api/cursor/"+cs.id):
		cs.puts++
	case r.Method == http.MethodDelete:
		cs.deletes++
		writeJSON(w, http.StatusAccepted, map[string]any{"error": false, "code": 202, "id": cs.id})
		return
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"error": true, "code": 404, "errorNum": ErrNumCursorNotFound, "errorMessage": "cursor not found"})
		return
	}

	if cs.next >= len(cs.batches) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": true, "code": 404, "errorNum": ErrNumCursorNotFound, "errorMessage": "cursor not found"})
		return
	}

	batch := cs.batches[cs.next]
	cs.next++
	hasMore := cs.next < len(cs.batches)
	body := map[string]any{
		"error":   false,
		"code":    201,
		"result":  batch,
		"hasMore": hasMore,
		"cached":  false,
	}
	if hasMore {
		body["id"] = cs.id
	}
	writeJSON(w, http.StatusCreated, body)
}

func (cs *cursorServer) counts() (puts, deletes int) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.puts, cs.deletes
}

func decodeInts(t *testing.T, rows []json.RawMessage) []int {
	t.Helper()
	out := make([]int, 0, len(rows))
	for _, row := range rows {
		var n int
		if err := json.Unmarshal(row, &n); err != nil {
			t.Fatalf("decode row %s: %v", row, err)
		}
		out = append(out, n)
	}
	return out
}

func TestQueryAllDrainsBatches(t *testing.T) {
	cs := newCursorServer([]int{1, 2}, []int{3, 4}, []int{5})
	fs := newFakeServer(t, cs.handle)
	client := newTestClient(t, fs)

	rows, err := client.QueryAll(context.Background(), "FOR i IN 1..5 RETURN i", nil, &QueryOptions{BatchSize: 2})
	if err != nil {
		t.Fatalf("QueryAll() error = %v", err)
	}

	got := decodeInts(t, rows)
	want := []int{1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rows = %v, want %v", got, want)
		}
	}

	if puts, _ := cs.counts(); puts != 2 {
		t.Errorf("continuation calls = %d, want 2", puts)
	}

	first := fs.Requests()[0]
	var body map[string]any
	if err := json.Unmarshal(first.Body, &body); err != nil {
		t.Fatalf("decode cursor request: %v", err)
	}
	if body["query"] != "FOR i IN 1..5 RETURN i" || body["batchSize"] != float64(2) {
		t.Errorf("cursor request = %v", body)
	}
	if _, ok := body["bindVars"]; ok {
		t.Error("empty bindVars sent")
	}
}

func TestQueryEmptyResult(t *testing.T) {
	cs := newCursorServer([]int{})
	fs := newFakeServer(t, cs.handle)
	client := newTestClient(t, fs)

	rows, err := client.QueryAll(context.Background(), "FOR d IN empty RETURN d", nil, nil)
	if err != nil {
		t.Fatalf("QueryAll() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %v, want none", rows)
	}
	if n := len(fs.Requests()); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}
}

func TestQueryIterIsLazy(t *testing.T) {
	cs := newCursorServer([]int{1, 2}, []int{3, 4}, []int{5})
	fs := newFakeServer(t, cs.handle)
	client := newTestClient(t, fs)

	seq := client.QueryIter(context.Background(), "FOR i IN 1..5 RETURN i", nil, nil)
	if n := len(fs.Requests()); n != 0 {
		t.Fatalf("requests before iteration = %d, want 0", n)
	}

	var got []int
	for row, err := range seq {
		if err != nil {
			t.Fatalf("iteration error = %v", err)
		}
		var n int
		json.Unmarshal(row, &n)
		got = append(got, n)

		if n == 2 {
			if puts, _ := cs.counts(); puts != 0 {
				t.Errorf("second batch fetched before first was consumed")
			}
		}
		if n == 3 {
			break
		}
	}

	if len(got) != 3 {
		t.Errorf("rows = %v, want [1 2 3]", got)
	}
	puts, deletes := cs.counts()
	if puts != 1 {
		t.Errorf("continuation calls = %d, want 1", puts)
	}
	if deletes != 1 {
		t.Errorf("cursor deletes after break = %d, want 1", deletes)
	}
}

func TestQueryIterReleasesCursorOnCancel(t *testing.T) {
	cs := newCursorServer([]int{1, 2}, []int{3, 4})
	fs := newFakeServer(t, cs.handle)
	client := newTestClient(t, fs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var rows, errs int
	for _, err := range client.QueryIter(ctx, "FOR i IN 1..4 RETURN i", nil, nil) {
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				t.Errorf("error = %v, want context.Canceled", err)
			}
			errs++
			continue
		}
		rows++
		if rows == 2 {
			cancel()
		}
	}

	if rows != 2 || errs != 1 {
		t.Errorf("rows = %d, errors = %d, want 2 and 1", rows, errs)
	}
	last := fs.last(t)
	if last.Method != http.MethodDelete || !strings.HasSuffix(last.Path, "/_api/cursor/"+cs.id) {
		t.Errorf("last request = %s %s, want DELETE of the cursor", last.Method, last.Path)
	}
	if puts, deletes := cs.counts(); puts != 0 || deletes != 1 {
		t.Errorf("puts = %d, deletes = %d, want 0 and 1", puts, deletes)
	}
}

func TestQueryIterDrainedCursorNotDeleted(t *testing.T) {
	cs := newCursorServer([]int{1}, []int{2})
	fs := newFakeServer(t, cs.handle)
	client := newTestClient(t, fs)

	for _, err := range client.QueryIter(context.Background(), "FOR i IN 1..2 RETURN i", nil, nil) {
		if err != nil {
			t.Fatalf("iteration error = %v", err)
		}
	}
	if _, deletes := cs.counts(); deletes != 0 {
		t.Errorf("deletes after full drain = %d, want 0", deletes)
	}
}

func TestQueryIterYieldsError(t *testing.T) {
	fs := newFakeServer(t, func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": true, "code": 400, "errorNum": 1501, "errorMessage": "syntax error",
		})
	})
	client := newTestClient(t, fs)

	var errs int
	for row, err := range client.QueryIter(context.Background(), "FOR", nil, nil) {
		if err == nil {
			t.Fatalf("unexpected row %s", row)
		}
		var app *ApplicationError
		if !errors.As(err, &app) || app.ErrorNum != 1501 {
			t.Errorf("error = %v, want errorNum 1501", err)
		}
		errs++
	}
	if errs != 1 {
		t.Errorf("errors yielded = %d, want 1", errs)
	}
}

func TestCursorNextAndClose(t *testing.T) {
	cs := newCursorServer([]int{1}, []int{2}, []int{3})
	fs := newFakeServer(t, cs.handle)
	client := newTestClient(t, fs, WithDatabase("shop"))
	ctx := context.Background()

	cur, err := client.Query(ctx, "FOR i IN 1..3 RETURN i", nil, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !cur.HasMore || cur.ID != cs.id {
		t.Fatalf("cursor = %+v", cur)
	}

	if err := cur.Next(ctx); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if got := decodeInts(t, cur.Result); len(got) != 1 || got[0] != 2 {
		t.Errorf("second batch = %v", got)
	}
	if path := fs.last(t).Path; path != "/_db/shop/_api/cursor/"+cs.id {
		t.Errorf("continuation path = %q", path)
	}

	if err := cur.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, deletes := cs.counts(); deletes != 1 {
		t.Errorf("deletes = %d, want 1", deletes)
	}
	if err := cur.Next(ctx); !errors.Is(err, ErrCursorExhausted) {
		t.Errorf("Next() after Close error = %v, want ErrCursorExhausted", err)
	}
}

func TestCursorKeepsDatabaseOverride(t *testing.T) {
	cs := newCursorServer([]int{1}, []int{2})
	fs := newFakeServer(t, cs.handle)
	client := newTestClient(t, fs)

	_, err := client.QueryAll(context.Background(), "RETURN 1", nil, nil, InDatabase("reports"))
	if err != nil {
		t.Fatalf("QueryAll() error = %v", err)
	}
	for _, req := range fs.Requests() {
		if !strings.HasPrefix(req.Path, "/_db/reports/") {
			t.Errorf("request %s %s not scoped to reports", req.Method, req.Path)
		}
	}
}

func TestCollectAs(t *testing.T) {
	cs := newCursorServer([]int{10, 20}, []int{30})
	fs := newFakeServer(t, cs.handle)
	client := newTestClient(t, fs)
	ctx := context.Background()

	cur, err := client.Query(ctx, "RETURN 1", nil, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	nums, err := CollectAs[int](ctx, cur)
	if err != nil {
		t.Fatalf("CollectAs() error = %v", err)
	}
	if len(nums) != 3 || nums[2] != 30 {
		t.Errorf("CollectAs() = %v", nums)
	}
}

func TestQueryExtraOptionsJSON(t *testing.T) {
	opts := QueryExtraOptions{FullCount: true, OptimizerRules: []string{"-all", "+use-indexes"}}
	data, err := json.Marshal(opts)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"fullCount":true,"optimizer":{"rules":["-all","+use-indexes"]}}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestQueryRequiresText(t *testing.T) {
	fs := newFakeServer(t, okHandler)
	client := newTestClient(t, fs)
	if _, err := client.Query(context.Background(), "", nil, nil); !IsConfig(err) {
		t.Errorf("Query(\"\") error = %v, want *ConfigError", err)
	}
}
