package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// HTTP implements Transport over net/http.
// Connection pooling and keepalive are handled by http.Transport.
type HTTP struct {
	endpoint   string
	httpClient *http.Client
}

// HTTPOption configures an HTTP transport.
type HTTPOption func(*httpConfig)

type httpConfig struct {
	timeout            time.Duration
	keepAlive          time.Duration
	poolSize           int
	insecureSkipVerify bool
	httpClient         *http.Client
}

// WithTimeout sets the per-request timeout (default: 60s).
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *httpConfig) {
		c.timeout = d
	}
}

// WithKeepAlive sets how long idle connections are kept (default: 60s).
func WithKeepAlive(d time.Duration) HTTPOption {
	return func(c *httpConfig) {
		c.keepAlive = d
	}
}

// WithPoolSize sets the number of idle connections kept per host (default: 10).
func WithPoolSize(n int) HTTPOption {
	return func(c *httpConfig) {
		c.poolSize = n
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify(skip bool) HTTPOption {
	return func(c *httpConfig) {
		c.insecureSkipVerify = skip
	}
}

// WithHTTPClient uses a caller supplied client as is.
// Timeout, keepalive, pool size and TLS options are ignored.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *httpConfig) {
		c.httpClient = client
	}
}

// NewHTTP creates an HTTP transport for the given endpoint.
func NewHTTP(endpoint string, opts ...HTTPOption) *HTTP {
	cfg := &httpConfig{
		timeout:   60 * time.Second,
		keepAlive: 60 * time.Second,
		poolSize:  10,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client := cfg.httpClient
	if client == nil {
		tr := &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   cfg.timeout,
				KeepAlive: cfg.keepAlive,
			}).DialContext,
			MaxIdleConns:        cfg.poolSize,
			MaxIdleConnsPerHost: cfg.poolSize,
			IdleConnTimeout:     cfg.keepAlive,
		}
		if cfg.insecureSkipVerify {
			tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		}
		client = &http.Client{
			Timeout:   cfg.timeout,
			Transport: tr,
		}
	}

	return &HTTP{
		endpoint:   endpoint,
		httpClient: client,
	}
}

func (h *HTTP) Name() string { return "http" }

func (h *HTTP) IsEncrypted() bool {
	return strings.HasPrefix(strings.ToLower(h.endpoint), "https://")
}

// Close drops idle pooled connections.
func (h *HTTP) Close() error {
	h.httpClient.CloseIdleConnections()
	return nil
}

// Do sends the request and reads the whole body.
func (h *HTTP) Do(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for name, values := range req.Header {
		httpReq.Header[name] = values
	}

	resp, err := h.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
