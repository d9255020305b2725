// Package arangoresttest provides an in-memory Requester for testing code
// built on arangorest without a server.
package arangoresttest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	arangorest "github.com/arangorest/arangorest-go"
)

// Call is one request received by a Requester.
type Call struct {
	Method  string
	Path    string
	Body    any
	Request arangorest.RequestInfo
}

// JSONBody re-encodes the structured body of the call.
func (c Call) JSONBody() string {
	if c.Body == nil {
		return ""
	}
	data, err := json.Marshal(c.Body)
	if err != nil {
		return fmt.Sprintf("!marshal: %v", err)
	}
	return string(data)
}

type reply struct {
	status int
	header http.Header
	body   []byte
	err    error
}

// Requester records calls and answers them with canned replies keyed by
// method and path. Several replies on one route are served in order and
// the last one repeats. Unknown routes answer HTTP 404.
type Requester struct {
	mu       sync.Mutex
	calls    []Call
	routes   map[string][]reply
	database string
}

// New creates an empty Requester whose default database is "_system".
func New() *Requester {
	return &Requester{
		routes:   make(map[string][]reply),
		database: arangorest.DefaultDatabase,
	}
}

// Ensure Requester implements the client contracts wrappers consume.
var (
	_ arangorest.Requester      = (*Requester)(nil)
	_ arangorest.Doer           = (*Requester)(nil)
	_ arangorest.DatabaseScoper = (*Requester)(nil)
)

func routeKey(method, path string) string {
	return method + " " + path
}

// Respond queues a reply. body may be nil, []byte or string (sent as is),
// or any other value (JSON-encoded).
func (r *Requester) Respond(method, path string, status int, body any) *Requester {
	return r.RespondWithHeader(method, path, status, nil, body)
}

// RespondWithHeader queues a reply carrying response headers.
func (r *Requester) RespondWithHeader(method, path string, status int, header http.Header, body any) *Requester {
	var data []byte
	switch b := body.(type) {
	case nil:
	case []byte:
		data = b
	case string:
		data = []byte(b)
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			panic(fmt.Sprintf("arangoresttest: encode reply: %v", err))
		}
		data = encoded
	}
	if header == nil {
		header = http.Header{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	key := routeKey(method, path)
	r.routes[key] = append(r.routes[key], reply{status: status, header: header, body: data})
	return r
}

// Fail makes a route return err as a *arangorest.ConnectionError.
func (r *Requester) Fail(method, path string, err error) *Requester {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := routeKey(method, path)
	r.routes[key] = append(r.routes[key], reply{err: err})
	return r
}

// SetDatabase sets the value reported by Database.
func (r *Requester) SetDatabase(name string) {
	r.mu.Lock()
	r.database = name
	r.mu.Unlock()
}

// Database implements arangorest.DatabaseScoper.
func (r *Requester) Database() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.database
}

// Calls returns every call received so far.
func (r *Requester) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// LastCall returns the most recent call, or false if there is none.
func (r *Requester) LastCall() (Call, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return Call{}, false
	}
	return r.calls[len(r.calls)-1], true
}

func (r *Requester) Get(ctx context.Context, path string, opts ...arangorest.RequestOption) (*arangorest.Response, error) {
	return r.Request(ctx, http.MethodGet, path, nil, opts...)
}

func (r *Requester) Post(ctx context.Context, path string, body any, opts ...arangorest.RequestOption) (*arangorest.Response, error) {
	return r.Request(ctx, http.MethodPost, path, body, opts...)
}

func (r *Requester) Put(ctx context.Context, path string, body any, opts ...arangorest.RequestOption) (*arangorest.Response, error) {
	return r.Request(ctx, http.MethodPut, path, body, opts...)
}

func (r *Requester) Patch(ctx context.Context, path string, body any, opts ...arangorest.RequestOption) (*arangorest.Response, error) {
	return r.Request(ctx, http.MethodPatch, path, body, opts...)
}

func (r *Requester) Delete(ctx context.Context, path string, opts ...arangorest.RequestOption) (*arangorest.Response, error) {
	return r.Request(ctx, http.MethodDelete, path, nil, opts...)
}

// Request records the call and serves the next reply for its route.
func (r *Requester) Request(ctx context.Context, method, path string, body any, opts ...arangorest.RequestOption) (*arangorest.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, &arangorest.ConnectionError{Method: method, URL: path, Err: err}
	}

	r.mu.Lock()
	r.calls = append(r.calls, Call{
		Method:  method,
		Path:    path,
		Body:    body,
		Request: arangorest.ResolveRequestOptions(opts...),
	})
	key := routeKey(method, path)
	queue := r.routes[key]
	var rep reply
	switch {
	case len(queue) == 0:
		rep = reply{status: http.StatusNotFound, body: []byte("no route for " + key)}
	case len(queue) == 1:
		rep = queue[0]
	default:
		rep = queue[0]
		r.routes[key] = queue[1:]
	}
	r.mu.Unlock()

	if rep.err != nil {
		return nil, &arangorest.ConnectionError{Method: method, URL: path, Err: rep.err}
	}
	return arangorest.NewResponse(rep.status, rep.header.Clone(), rep.body)
}

// Result wraps v in the {"error":false,"code":200,"result":v} envelope
// most endpoints answer with.
func Result(v any) map[string]any {
	return map[string]any{"error": false, "code": http.StatusOK, "result": v}
}

// Error builds an application error body.
func Error(code, errorNum int, message string) map[string]any {
	return map[string]any{"error": true, "code": code, "errorNum": errorNum, "errorMessage": message}
}
