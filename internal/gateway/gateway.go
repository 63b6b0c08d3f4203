// Package gateway wraps the single outbound call pattern used against the
// Slack web API: method + endpoint + query parameters + bearer token, with a
// fixed timeout and a parsed ok/error envelope. Callers decide whether to
// retry; the gateway never does.
package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ewholloway/slackline/pkg/logger"
	"github.com/ewholloway/slackline/pkg/metrics"
)

const (
	// DefaultBaseURL is the root of the Slack web API.
	DefaultBaseURL = "https://slack.com/api/"

	// DefaultTimeout bounds a single request; a trigger blocks the host
	// dispatch thread for at most this long.
	DefaultTimeout = 5 * time.Second
)

// ErrNoCredential is returned when no token is configured. It is a soft
// condition: the plugin is inert, not broken.
var ErrNoCredential = errors.New("no slack token configured")

// HTTPClient represents the functionality we need from an *http.Client, or
// similar.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Client issues requests against the Slack web API. The token is mutable at
// runtime; with an empty token every call returns ErrNoCredential without
// touching the network.
type Client struct {
	c       HTTPClient
	baseURL string
	timeout time.Duration
	token   string

	log logger.Logger
	m   *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c HTTPClient) Option {
	return func(g *Client) { g.c = c }
}

// WithBaseURL replaces the API base URL.
func WithBaseURL(u string) Option {
	return func(g *Client) { g.baseURL = u }
}

// WithTimeout replaces the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Client) { g.timeout = d }
}

// WithMetrics attaches request counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Client) { g.m = m }
}

// New returns a Client with the given token. An empty token is valid and
// leaves the client in its disabled state.
func New(token string, log logger.Logger, opts ...Option) *Client {
	g := &Client{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		token:   token,
		log:     log,
	}
	for _, opt := range opts {
		opt(g)
	}
	// The default client is built after the options so its own timeout
	// matches a WithTimeout override rather than capping it at the default.
	if g.c == nil {
		g.c = &http.Client{Timeout: g.timeout}
	}
	return g
}

// SetToken replaces the credential. The next call picks it up; in-flight
// state does not exist since calls are synchronous.
func (g *Client) SetToken(token string) {
	g.token = token
}

// HasCredential reports whether a token is configured.
func (g *Client) HasCredential() bool {
	return g.token != ""
}

type envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Call performs a single request against endpoint (e.g. "channels.history"),
// appending params and the token as query parameters regardless of method,
// which is the convention of this API. On success the response body is
// unmarshalled into out when out is non-nil. Failures are logged here as well
// as returned; there is exactly one attempt per call.
func (g *Client) Call(ctx context.Context, method, endpoint string, params map[string]string, out any) error {
	if !g.HasCredential() {
		return ErrNoCredential
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := g.newRequest(ctx, method, endpoint, params)
	if err != nil {
		return err
	}

	if g.m != nil {
		g.m.IncrementAPIRequest(endpoint)
	}

	resp, err := g.c.Do(req)
	if err != nil {
		terr := &TransportError{Endpoint: endpoint, Err: err}
		g.logFailure(terr)
		return terr
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		terr := &TransportError{Endpoint: endpoint, Status: resp.StatusCode, Err: err}
		g.logFailure(terr)
		return terr
	}

	if resp.StatusCode != http.StatusOK {
		terr := &TransportError{
			Endpoint: endpoint,
			Status:   resp.StatusCode,
			Message:  http.StatusText(resp.StatusCode),
		}
		g.logFailure(terr)
		return terr
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		terr := &TransportError{Endpoint: endpoint, Status: resp.StatusCode, Err: errors.Wrap(err, "parsing response body")}
		g.logFailure(terr)
		return terr
	}

	if !env.OK {
		rerr := &RemoteError{Endpoint: endpoint, Code: env.Error}
		g.logFailure(rerr)
		return rerr
	}

	if g.m != nil {
		g.m.IncrementAPIOutcome(metrics.OutcomeOK)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return errors.Wrapf(err, "decoding %s response", endpoint)
		}
	}

	return nil
}

func (g *Client) newRequest(ctx context.Context, method, endpoint string, params map[string]string) (*http.Request, error) {
	u := g.baseURL + strings.TrimPrefix(endpoint, "/")

	vals := url.Values{}
	for k, v := range params {
		vals.Set(k, v)
	}
	vals.Set("token", g.token)

	req, err := http.NewRequestWithContext(ctx, method, u+"?"+vals.Encode(), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "building %s request", endpoint)
	}

	return req, nil
}

func (g *Client) logFailure(err error) {
	if g.m != nil {
		switch err.(type) {
		case *RemoteError:
			g.m.IncrementAPIOutcome(metrics.OutcomeRemoteError)
		default:
			g.m.IncrementAPIOutcome(metrics.OutcomeTransportError)
		}
	}
	g.log.Error("slack api call failed", logger.ErrorField(err))
}
