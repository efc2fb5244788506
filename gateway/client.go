package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/hairizuan-noorazman/helpdesk-pilot/logger"
)

// Client performs authenticated calls against one tenant. Session state is
// owned by the instance and never shared.
type Client struct {
	httpClient     *http.Client
	mode           AuthMode
	baseURL        string
	privateBaseURL string
	authorization  string
	csrfToken      string
	observer       Observer
	logger         logger.Logger
}

func newClient(cfg Config, mode AuthMode, log logger.Logger, o options) *Client {
	cfg = cfg.withDefaults()
	if o.privateBaseURL == "" {
		if o.baseURL != "" {
			o.privateBaseURL = strings.TrimSuffix(o.baseURL, APIPrefix)
		} else {
			o.privateBaseURL = cfg.PrivateBaseURL()
		}
	}
	if o.baseURL == "" {
		o.baseURL = cfg.BaseURL()
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		httpClient:     o.httpClient,
		mode:           mode,
		baseURL:        o.baseURL,
		privateBaseURL: o.privateBaseURL,
		observer:       o.observer,
		logger:         log.WithFields(map[string]interface{}{"component": "gateway", "auth_mode": string(mode)}),
	}
}

// NewAPIKeyClient builds a stateless client. No network call is made.
func NewAPIKeyClient(cfg Config, apiKey string, log logger.Logger, opts ...Option) (*Client, error) {
	o := applyOptions(opts)
	if strings.TrimSpace(cfg.Domain) == "" && o.baseURL == "" {
		return nil, ErrMissingDomain
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	c := newClient(cfg, ModeAPIKey, log, o)
	switch o.scheme {
	case SchemeToken:
		c.authorization = "Token token=" + apiKey
	default:
		c.authorization = basicAuth(apiKey, "X")
	}

	c.logger.Debug(context.Background(), "api key client initialized", map[string]interface{}{
		"base_url": c.baseURL,
	})
	return c, nil
}

// NewSessionClient builds a session client and performs the CSRF bootstrap.
// A failed bootstrap is logged and the client continues without CSRF.
func NewSessionClient(ctx context.Context, cfg Config, email, password string, log logger.Logger, opts ...Option) (*Client, error) {
	o := applyOptions(opts)
	if strings.TrimSpace(cfg.Domain) == "" && o.baseURL == "" {
		return nil, ErrMissingDomain
	}
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrMissingSessionCredentials
	}

	c := newClient(cfg, ModeSession, log, o)
	c.authorization = basicAuth(email, password)
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err == nil {
			// Copy so a caller-supplied client is not mutated.
			hc := *c.httpClient
			hc.Jar = jar
			c.httpClient = &hc
		}
	}

	c.bootstrap(ctx)
	return c, nil
}

func applyOptions(opts []Option) options {
	o := options{scheme: SchemeBasic}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func basicAuth(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func (c *Client) bootstrap(ctx context.Context) {
	resp, err := c.do(ctx, http.MethodGet, c.privateBaseURL+BootstrapPath, nil)
	if err != nil {
		c.logger.Error(ctx, "session bootstrap failed, continuing without csrf", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if !resp.IsSuccess() {
		c.logger.Error(ctx, "session bootstrap rejected, continuing without csrf", map[string]interface{}{
			"status": resp.StatusCode,
		})
		return
	}

	var payload struct {
		Meta struct {
			CSRFToken string `json:"csrf_token"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil || payload.Meta.CSRFToken == "" {
		c.logger.Warn(ctx, "csrf token not found in bootstrap response", nil)
		return
	}

	c.csrfToken = payload.Meta.CSRFToken
	c.logger.Debug(ctx, "csrf token obtained", nil)
}

// Mode returns the authentication mode.
func (c *Client) Mode() AuthMode { return c.mode }

// BaseURL returns the public base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// PrivateBaseURL returns the base URL used for private endpoints.
func (c *Client) PrivateBaseURL() string { return c.privateBaseURL }

// HasCSRF reports whether the session bootstrap produced a CSRF token.
func (c *Client) HasCSRF() bool { return c.csrfToken != "" }

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, c.resolve(path), nil)
}

// Post performs a POST request. body may be nil, []byte, string,
// json.RawMessage, url.Values (sent form-encoded) or any JSON-marshalable
// value.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.do(ctx, http.MethodPost, c.resolve(path), body)
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.do(ctx, http.MethodPut, c.resolve(path), body)
}

// Delete performs a DELETE request with an optional body.
func (c *Client) Delete(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.do(ctx, http.MethodDelete, c.resolve(path), body)
}

// resolve maps a request path onto the right base URL. Private paths go
// to the private base; a leading API prefix already present in the base is
// stripped so it is never duplicated.
func (c *Client) resolve(path string) string {
	path = NormalizePath(path)
	if IsPrivatePath(path) {
		return c.privateBaseURL + path
	}
	if strings.HasSuffix(c.baseURL, APIPrefix) {
		if path == APIPrefix {
			path = "/"
		} else if strings.HasPrefix(path, APIPrefix+"/") || strings.HasPrefix(path, APIPrefix+"?") {
			path = NormalizePath(strings.TrimPrefix(path, APIPrefix))
		}
	}
	return c.baseURL + path
}

// NormalizePath ensures path starts with "/". Empty becomes "/".
func NormalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

func encodeBody(body interface{}) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return bytes.NewReader(b), contentTypeJSON, nil
	case json.RawMessage:
		return bytes.NewReader(b), contentTypeJSON, nil
	case string:
		return strings.NewReader(b), contentTypeJSON, nil
	case url.Values:
		return strings.NewReader(b.Encode()), contentTypeForm, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("gateway: failed to marshal request body: %w", err)
		}
		return bytes.NewReader(data), contentTypeJSON, nil
	}
}

func (c *Client) do(ctx context.Context, method, url string, body interface{}) (*Response, error) {
	bodyReader, contentType, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("gateway: failed to create request: %w", err)
	}

	req.Header.Set("Authorization", c.authorization)
	req.Header.Set("Accept", "application/json")
	if bodyReader != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if c.csrfToken != "" {
		req.Header.Set(CSRFHeader, c.csrfToken)
	}

	c.logger.Debug(ctx, "sending request", map[string]interface{}{
		"method": method,
		"url":    url,
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, 0, start)
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(method, 0, start)
		return nil, fmt.Errorf("%w: reading %s %s: %v", ErrTransport, method, url, err)
	}
	c.observe(method, resp.StatusCode, start)

	c.logger.Debug(ctx, "received response", map[string]interface{}{
		"method": method,
		"url":    url,
		"status": resp.StatusCode,
	})

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       data,
		Header:     resp.Header,
	}, nil
}

func (c *Client) observe(method string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRequest(c.mode, method, status, time.Since(start))
	}
}
