package arangorest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Response is a successful server response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	value any
	json  bool
}

// NewResponse builds a Response from raw parts exactly as the client does,
// returning the same typed errors. Fake Requesters use it in tests.
func NewResponse(status int, header http.Header, body []byte) (*Response, error) {
	if header == nil {
		header = http.Header{}
	}
	return parseResponse(status, header, body)
}

// parseResponse normalizes a raw response into a *Response or one of the
// typed errors. An error-shaped JSON body wins over the HTTP status.
func parseResponse(status int, header http.Header, body []byte) (*Response, error) {
	resp := &Response{
		StatusCode: status,
		Header:     header,
		Body:       body,
	}

	if len(body) > 0 {
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			resp.value = v
			resp.json = true
		} else {
			resp.value = string(body)
		}
	}

	if resp.json {
		if obj, ok := resp.value.(map[string]any); ok && truthy(obj["error"]) {
			return nil, applicationError(status, body)
		}
	}

	if status >= http.StatusBadRequest {
		return nil, &TransportError{StatusCode: status, Message: bestEffortMessage(resp)}
	}

	return resp, nil
}

func applicationError(status int, body []byte) *ApplicationError {
	res := gjson.GetManyBytes(body, "code", "errorNum", "errorMessage")
	e := &ApplicationError{
		Code:         int(res[0].Int()),
		ErrorNum:     int(res[1].Int()),
		ErrorMessage: res[2].String(),
	}
	if e.Code == 0 {
		e.Code = status
	}
	return e
}

// truthy follows JSON truthiness: false, null, 0 and "" are false.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val != ""
	default:
		return true
	}
}

func bestEffortMessage(resp *Response) string {
	if resp.json {
		if msg := gjson.GetBytes(resp.Body, "errorMessage"); msg.Exists() {
			return msg.String()
		}
		if msg := gjson.GetBytes(resp.Body, "message"); msg.Exists() {
			return msg.String()
		}
	}
	msg := strings.TrimSpace(string(resp.Body))
	if len(msg) > 256 {
		msg = msg[:256]
	}
	return msg
}

// Value returns the decoded JSON body, the raw text when the body is not
// JSON, or nil for an empty body.
func (r *Response) Value() any {
	return r.value
}

// IsJSON reports whether the body decoded as JSON.
func (r *Response) IsJSON() bool {
	return r.json
}

// Get returns the value at a gjson path, e.g. "result.0._key".
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

// Unmarshal decodes the whole body into v.
func (r *Response) Unmarshal(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("json unmarshal: empty body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}
	return nil
}

// UnmarshalPath decodes the value at a gjson path into v.
// A missing path is an error.
func (r *Response) UnmarshalPath(path string, v any) error {
	res := r.Get(path)
	if !res.Exists() {
		return fmt.Errorf("json unmarshal: %q not present in response", path)
	}
	if err := json.Unmarshal([]byte(res.Raw), v); err != nil {
		return fmt.Errorf("json unmarshal %s: %w", path, err)
	}
	return nil
}

// UnmarshalResult decodes the "result" envelope when present, and the
// whole body otherwise.
func (r *Response) UnmarshalResult(v any) error {
	if r.Get("result").Exists() {
		return r.UnmarshalPath("result", v)
	}
	return r.Unmarshal(v)
}

// ETag returns the entity tag without surrounding quotes.
func (r *Response) ETag() string {
	return strings.Trim(r.Header.Get("Etag"), `"`)
}

// String returns the raw body as a string.
func (r *Response) String() string {
	return string(r.Body)
}
