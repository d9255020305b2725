package arangorest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/arangorest/arangorest-go/transport"
)

// DefaultDatabase is used when no database is configured.
const DefaultDatabase = "_system"

// Option configures a Client.
type Option func(*clientConfig)

// clientConfig holds client configuration.
type clientConfig struct {
	endpoint           string
	username           string
	password           string
	token              string
	jwtSecret          string
	database           string
	timeout            time.Duration
	keepAlive          time.Duration
	poolSize           int
	insecureSkipVerify bool
	httpClient         *http.Client
	transport          transport.Transport
	logger             *slog.Logger
}

// defaultConfig returns the default client configuration.
func defaultConfig() *clientConfig {
	return &clientConfig{
		database:  DefaultDatabase,
		timeout:   60 * time.Second,
		keepAlive: 60 * time.Second,
		poolSize:  10,
	}
}

// WithEndpoint sets the server base URL, e.g. "http://localhost:8529".
// A trailing slash is stripped.
func WithEndpoint(url string) Option {
	return func(c *clientConfig) {
		c.endpoint = url
	}
}

// WithBasicAuth authenticates every request with HTTP Basic credentials.
func WithBasicAuth(username, password string) Option {
	return func(c *clientConfig) {
		c.username = username
		c.password = password
	}
}

// WithBearerToken authenticates every request with a bearer token.
// It takes precedence over WithBasicAuth.
func WithBearerToken(token string) Option {
	return func(c *clientConfig) {
		c.token = token
	}
}

// WithJWTSecret mints a superuser bearer token from the server's JWT secret
// once, in New. It takes precedence over WithBasicAuth and is ignored when
// WithBearerToken is also given.
func WithJWTSecret(secret string) Option {
	return func(c *clientConfig) {
		c.jwtSecret = secret
	}
}

// WithDatabase sets the default database (default: "_system").
func WithDatabase(name string) Option {
	return func(c *clientConfig) {
		c.database = name
	}
}

// WithTimeout sets the request timeout (default: 60s).
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithKeepAlive sets how long idle pooled connections live (default: 60s).
func WithKeepAlive(d time.Duration) Option {
	return func(c *clientConfig) {
		c.keepAlive = d
	}
}

// WithPoolSize sets the idle connection pool size (default: 10).
func WithPoolSize(n int) Option {
	return func(c *clientConfig) {
		c.poolSize = n
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
// Only use this against development servers with self-signed certificates.
func WithInsecureSkipVerify() Option {
	return func(c *clientConfig) {
		c.insecureSkipVerify = true
	}
}

// WithHTTPClient sets a custom HTTP client. Timeout, keepalive, pool size
// and TLS options are then the caller's responsibility.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTransport replaces the HTTP transport entirely.
func WithTransport(t transport.Transport) Option {
	return func(c *clientConfig) {
		c.transport = t
	}
}

// WithLogger sets the logger used for request tracing (default: slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// RequestOption configures a single request.
type RequestOption func(*requestConfig)

// requestConfig holds per-request configuration.
type requestConfig struct {
	params      Params
	header      http.Header
	rawBody     []byte
	rawType     string
	hasRawBody  bool
	database    string
	transaction string
}

func newRequestConfig(opts []RequestOption) *requestConfig {
	rc := &requestConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(rc)
		}
	}
	return rc
}

// WithQuery adds one query parameter. The value may be a scalar (string,
// bool, integer, float) or a slice of scalars, which is encoded as
// repeated key=value pairs.
func WithQuery(key string, value any) RequestOption {
	return func(c *requestConfig) {
		if c.params == nil {
			c.params = Params{}
		}
		c.params[key] = value
	}
}

// WithParams merges a parameter mapping into the query string.
func WithParams(params Params) RequestOption {
	return func(c *requestConfig) {
		if c.params == nil {
			c.params = Params{}
		}
		for k, v := range params {
			c.params[k] = v
		}
	}
}

// WithHeader sets a request header. Caller headers override the client's
// defaults, including Authorization and Content-Type.
func WithHeader(name, value string) RequestOption {
	return func(c *requestConfig) {
		if c.header == nil {
			c.header = http.Header{}
		}
		c.header.Set(name, value)
	}
}

// WithHeaders sets several request headers.
func WithHeaders(headers map[string]string) RequestOption {
	return func(c *requestConfig) {
		if c.header == nil {
			c.header = http.Header{}
		}
		for k, v := range headers {
			c.header.Set(k, v)
		}
	}
}

// WithRawBody sends data as-is with the given content type instead of a
// JSON-encoded body. Passing a structured body as well is a *ConfigError.
func WithRawBody(data []byte, contentType string) RequestOption {
	return func(c *requestConfig) {
		c.rawBody = data
		c.rawType = contentType
		c.hasRawBody = true
	}
}

// InDatabase overrides the client's current database for this request.
func InDatabase(name string) RequestOption {
	return func(c *requestConfig) {
		c.database = name
	}
}

// WithTransaction tags the request with a stream transaction id.
func WithTransaction(id string) RequestOption {
	return func(c *requestConfig) {
		c.transaction = id
	}
}

// RequestInfo is the resolved form of a set of RequestOptions.
type RequestInfo struct {
	Query       Params
	Header      http.Header
	Database    string
	Transaction string
	RawBody     []byte
	ContentType string
	HasRawBody  bool
}

// ResolveRequestOptions applies opts and reports what they ask for.
// Fake Requesters use it to inspect calls made by resource wrappers.
func ResolveRequestOptions(opts ...RequestOption) RequestInfo {
	rc := newRequestConfig(opts)
	return RequestInfo{
		Query:       rc.params,
		Header:      rc.header,
		Database:    rc.database,
		Transaction: rc.transaction,
		RawBody:     rc.rawBody,
		ContentType: rc.rawType,
		HasRawBody:  rc.hasRawBody,
	}
}

// replay returns options that reproduce the database and transaction
// scope of rc, used for cursor continuation calls.
func (rc *requestConfig) replay() []RequestOption {
	var opts []RequestOption
	if rc.database != "" {
		opts = append(opts, InDatabase(rc.database))
	}
	if rc.transaction != "" {
		opts = append(opts, WithTransaction(rc.transaction))
	}
	return opts
}
