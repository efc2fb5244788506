// Package gateway performs authenticated HTTP calls against one helpdesk
// tenant. A Client runs in exactly one AuthMode, chosen at construction:
// a static API key, or a login session bound to a CSRF token.
package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrTransport wraps every network-level failure (dial, TLS, read).
	ErrTransport = errors.New("gateway: transport failure")

	// ErrMissingDomain is returned when no tenant domain is configured.
	ErrMissingDomain = errors.New("gateway: domain is required")

	// ErrMissingAPIKey is returned by NewAPIKeyClient when the key is blank.
	ErrMissingAPIKey = errors.New("gateway: api key is required")

	// ErrMissingSessionCredentials is returned by NewSessionClient when the
	// email or password is blank.
	ErrMissingSessionCredentials = errors.New("gateway: email and password are required")
)

// AuthMode selects the authentication contract of a Client.
type AuthMode string

const (
	ModeAPIKey  AuthMode = "api_key"
	ModeSession AuthMode = "session"
)

// IsValid checks if the mode is one of the supported modes.
func (m AuthMode) IsValid() bool {
	return m == ModeAPIKey || m == ModeSession
}

// APIPrefix is the versioned prefix of the public REST API.
const APIPrefix = "/api/v2"

// PrivatePrefix marks endpoints served from the private base URL.
const PrivatePrefix = "/api/_/"

// privatePrefixes lists every path prefix routed to the private base URL:
// internal APIs plus the admin surface used for roles and form fields.
var privatePrefixes = []string{PrivatePrefix, "/api/admin/", "/admin/"}

// IsPrivatePath reports whether path is served from the private base URL.
func IsPrivatePath(path string) bool {
	for _, prefix := range privatePrefixes {
		if strings.HasPrefix(path, prefix) || path == strings.TrimSuffix(prefix, "/") {
			return true
		}
	}
	return false
}

// BootstrapPath is fetched once in session mode to obtain the CSRF token.
const BootstrapPath = "/api/_/bootstrap/me"

// CSRFHeader carries the session CSRF token once the bootstrap obtained it.
const CSRFHeader = "X-CSRF-Token"

// DefaultPrivateHost is the host suffix serving the private endpoints.
const DefaultPrivateHost = "freshcmdb.com"

// DefaultTimeout bounds every call made by a Client.
const DefaultTimeout = 30 * time.Second

// Config describes the target tenant.
type Config struct {
	// Domain is the tenant identifier, e.g. "acme" for acme.freshservice.com.
	Domain string
	// Host is the public service host suffix.
	Host string
	// PrivateHost is the host suffix for private (workspace/role/admin) endpoints.
	PrivateHost string
	Timeout     time.Duration
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = "freshservice.com"
	}
	if c.PrivateHost == "" {
		c.PrivateHost = DefaultPrivateHost
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// BaseURL returns https://{domain}.{host}/api/v2.
func (c Config) BaseURL() string {
	c = c.withDefaults()
	return fmt.Sprintf("https://%s.%s%s", c.Domain, c.Host, APIPrefix)
}

// PrivateBaseURL returns https://{domain}.{privateHost}.
func (c Config) PrivateBaseURL() string {
	c = c.withDefaults()
	return fmt.Sprintf("https://%s.%s", c.Domain, c.PrivateHost)
}

// Response is the raw outcome of one HTTP call. Non-2xx statuses are
// returned as responses, never as errors.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// IsSuccess reports whether the status is in [200,300).
func (r *Response) IsSuccess() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Observer is notified after every call. status is 0 on transport failure.
type Observer interface {
	ObserveRequest(mode AuthMode, method string, status int, elapsed time.Duration)
}

// Scheme is the Authorization header format used in API-key mode.
type Scheme string

const (
	// SchemeBasic sends "Basic base64(key:X)".
	SchemeBasic Scheme = "basic"
	// SchemeToken sends "Token token=<key>".
	SchemeToken Scheme = "token"
)

type options struct {
	baseURL        string
	privateBaseURL string
	httpClient     *http.Client
	observer       Observer
	scheme         Scheme
}

// Option customizes a Client.
type Option func(*options)

// WithBaseURL overrides the public base URL derived from Config.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithPrivateBaseURL overrides the private base URL derived from Config.
func WithPrivateBaseURL(u string) Option {
	return func(o *options) { o.privateBaseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithObserver registers a per-call observer.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithScheme selects the API-key Authorization format.
func WithScheme(s Scheme) Option {
	return func(o *options) { o.scheme = s }
}
