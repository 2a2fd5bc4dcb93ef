package scada

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"codeberg.org/mutker/scadactl/internal/errors"
	"codeberg.org/mutker/scadactl/internal/logger"
)

const bodyPreviewLen = 200

// Client is a stateful session wrapper around the SCADA-LTS REST API.
// Reads and writes address points by XID; logical names are translated
// through the configured Resolver. A transport-level failure marks the
// client disconnected so the next call attempts to reconnect.
type Client struct {
	cfg      Config
	resolver Resolver

	mu        sync.Mutex
	http      *http.Client
	connected bool
	lastError string
}

type passthroughResolver struct{}

func (passthroughResolver) Resolve(name string) string { return name }

func NewClient(cfg Config, resolver Resolver) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if resolver == nil {
		resolver = passthroughResolver{}
	}

	return &Client{
		cfg:      cfg,
		resolver: resolver,
	}, nil
}

// Connect establishes a session with the SCADA-LTS endpoint.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.connectLocked()
}

func (c *Client) connectLocked() error {
	errFactory := errors.New()

	jar, err := cookiejar.New(nil)
	if err != nil {
		return errFactory.Wrap(ErrConnectFailed, err)
	}

	c.http = &http.Client{
		Jar:     jar,
		Timeout: c.cfg.Timeout,
	}

	resp, err := c.http.Get(c.cfg.loginURL())
	if err != nil {
		c.connected = false
		c.lastError = fmt.Sprintf("could not connect to %s: %v", c.cfg.BaseURL, err)
		return errFactory.WithMessage(ErrConnectFailed, c.lastError)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		c.connected = false
		c.lastError = fmt.Sprintf("login failed with status %d", resp.StatusCode)
		return errFactory.WithMessage(ErrConnectFailed, c.lastError)
	}

	c.connected = true
	c.lastError = ""
	logger.Info().Str("url", c.cfg.BaseURL).Msg("Connected to SCADA-LTS")

	return nil
}

// Disconnect drops the session.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.http = nil
	c.connected = false
	logger.Info().Msg("Disconnected from SCADA-LTS")
}

// IsConnected reports whether the client currently holds a session.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.connected
}

// LastError returns the most recent error message, or empty.
func (c *Client) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastError
}

func (c *Client) ensureConnectedLocked() error {
	if c.connected && c.http != nil {
		return nil
	}

	logger.Warn().Msg("Not connected. Attempting to reconnect...")

	return c.connectLocked()
}

// session returns the HTTP client for an established session,
// reconnecting first when needed. The lock is released before the
// caller issues its request so in-flight remote I/O never blocks
// status queries or other callers.
func (c *Client) session() (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureConnectedLocked(); err != nil {
		return nil, err
	}

	return c.http, nil
}

// markFailure records an error message. Transport failures also drop
// the session so the next call attempts a reconnect.
func (c *Client) markFailure(msg string, transport bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if transport {
		c.connected = false
	}
	c.lastError = msg
}

// ReadPoint reads the current value of a point addressed by logical name
// or XID.
func (c *Client) ReadPoint(nameOrXID string) (*PointValue, error) {
	errFactory := errors.New()

	httpClient, err := c.session()
	if err != nil {
		return nil, errFactory.Wrap(ErrNotConnected, err)
	}

	xid := c.resolver.Resolve(nameOrXID)

	resp, err := httpClient.Get(c.cfg.readURL(xid))
	if err != nil {
		msg := fmt.Sprintf("request error reading %s: %v", xid, err)
		c.markFailure(msg, true)
		logger.Warn().Msg(msg)
		return nil, errFactory.WithMessage(ErrReadPoint, msg)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		msg := fmt.Sprintf("request error reading %s: %v", xid, err)
		c.markFailure(msg, true)
		logger.Warn().Msg(msg)
		return nil, errFactory.WithMessage(ErrReadPoint, msg)
	}

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("error reading %s: status %d", xid, resp.StatusCode)
		c.markFailure(msg, false)
		logger.Warn().Msg(msg)
		return nil, errFactory.WithMessage(ErrReadPoint, msg)
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		preview := strings.ReplaceAll(string(body[:min(len(body), bodyPreviewLen)]), "\n", " ")
		msg := fmt.Sprintf("malformed response for %s: %v. Body: %s...", xid, err, preview)
		c.markFailure(msg, false)
		logger.Warn().Msg(msg)
		return nil, errFactory.WithMessage(ErrMalformedBody, msg)
	}

	// A null value is reported as 0.0 by the upstream API contract.
	value := 0.0
	if v, ok := raw["value"].(float64); ok {
		value = v
	}

	return &PointValue{
		XID:       xid,
		Value:     value,
		Timestamp: time.Now(),
		Raw:       raw,
	}, nil
}

// ReadMultiple reads several points, returning one entry per requested
// name. Failed reads map to nil; a failure never aborts the remaining
// reads.
func (c *Client) ReadMultiple(names []string) map[string]*PointValue {
	results := make(map[string]*PointValue, len(names))
	for _, name := range names {
		point, err := c.ReadPoint(name)
		if err != nil {
			results[name] = nil
			continue
		}
		results[name] = point
	}

	return results
}

// WritePoint writes a value to a point addressed by logical name or XID.
func (c *Client) WritePoint(nameOrXID string, value float64, dataType int) error {
	errFactory := errors.New()

	httpClient, err := c.session()
	if err != nil {
		return errFactory.Wrap(ErrNotConnected, err)
	}

	xid := c.resolver.Resolve(nameOrXID)

	resp, err := httpClient.Post(c.cfg.writeURL(xid, dataType, value), "application/json", http.NoBody)
	if err != nil {
		msg := fmt.Sprintf("request error writing %s: %v", xid, err)
		c.markFailure(msg, true)
		logger.Warn().Msg(msg)
		return errFactory.WithMessage(ErrWritePoint, msg)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("error writing %s: status %d", xid, resp.StatusCode)
		c.markFailure(msg, false)
		logger.Warn().Msg(msg)
		return errFactory.WithMessage(ErrWritePoint, msg)
	}

	logger.Info().Str("xid", xid).Float64("value", value).Msg("Point written")

	return nil
}

// PointDiagnostic is the outcome of probing a single point.
type PointDiagnostic struct {
	XID   string  `json:"xid"`
	Value float64 `json:"value,omitempty"`
	OK    bool    `json:"ok"`
	Error string  `json:"error,omitempty"`
}

// Diagnostic is the outcome of a full connection test.
type Diagnostic struct {
	URL       string                     `json:"url"`
	Connected bool                       `json:"connected"`
	Points    map[string]PointDiagnostic `json:"points_readable"`
	Errors    []string                   `json:"errors"`
}

// TestConnection probes the endpoint and every named point, returning a
// per-component diagnostic instead of failing on the first error.
func (c *Client) TestConnection(names []string) Diagnostic {
	diag := Diagnostic{
		URL:    c.cfg.BaseURL,
		Points: make(map[string]PointDiagnostic, len(names)),
	}

	if err := c.Connect(); err != nil {
		diag.Errors = append(diag.Errors, c.LastError())
		return diag
	}
	diag.Connected = true

	for _, name := range names {
		xid := c.resolver.Resolve(name)
		point, err := c.ReadPoint(name)
		if err != nil {
			diag.Points[name] = PointDiagnostic{XID: xid, OK: false, Error: c.LastError()}
			diag.Errors = append(diag.Errors, fmt.Sprintf("%s: %s", name, c.LastError()))
			continue
		}
		diag.Points[name] = PointDiagnostic{XID: xid, Value: point.Value, OK: true}
	}

	return diag
}
