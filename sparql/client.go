// Package sparql is a minimal SPARQL 1.1 protocol client: it posts SELECT
// queries to an HTTP endpoint and decodes the JSON result bindings.
package sparql

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/qntx-cohort/errors"
	"github.com/teranos/qntx-cohort/internal/httpclient"
	"github.com/teranos/qntx-cohort/version"
)

// ProbeQuery is the lightweight query used to check an endpoint answers
const ProbeQuery = `SELECT DISTINCT ?Concept WHERE { [] a ?Concept } LIMIT 1`

// maxErrorBody bounds how much of a failed response is kept for the error message
const maxErrorBody = 512

// Options configures a Client
type Options struct {
	URL               string
	Timeout           time.Duration // 0 = none
	RequestsPerSecond float64       // 0 = unlimited
	BlockPrivateIP    bool

	// HTTPClient overrides the transport built from the fields above
	HTTPClient *httpclient.SaferClient
	Logger     *zap.SugaredLogger
}

// Client talks to one SPARQL endpoint
type Client struct {
	url     string
	http    *httpclient.SaferClient
	limiter *rate.Limiter
	logger  *zap.SugaredLogger
}

// NewClient validates opts and builds a client without contacting the endpoint
func NewClient(opts Options) (*Client, error) {
	hc := opts.HTTPClient
	if hc == nil {
		block := opts.BlockPrivateIP
		hc = httpclient.NewWithOptions(opts.Timeout, httpclient.Options{BlockPrivateIP: &block})
	}

	if _, err := hc.ValidateURL(opts.URL); err != nil {
		return nil, errors.MarkEndpoint(err, "endpoint URL rejected")
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	c := &Client{
		url:    opts.URL,
		http:   hc,
		logger: log,
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return c, nil
}

// Connect builds a client and verifies the endpoint answers ProbeQuery.
// Any failure is an endpoint error.
func Connect(ctx context.Context, opts Options) (*Client, error) {
	c, err := NewClient(opts)
	if err != nil {
		return nil, err
	}
	if err := c.Probe(ctx); err != nil {
		return nil, errors.WithHint(err, "check that the SPARQL endpoint (or its port forward) is running")
	}
	return c, nil
}

// URL returns the endpoint address
func (c *Client) URL() string {
	return c.url
}

// Probe runs ProbeQuery and discards the result
func (c *Client) Probe(ctx context.Context) error {
	if _, err := c.Query(ctx, ProbeQuery); err != nil {
		return errors.Wrap(err, "probe")
	}
	return nil
}

// Query posts a SELECT query and returns its bindings
func (c *Client) Query(ctx context.Context, query string) ([]Binding, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.MarkEndpoint(err, "rate limit wait")
		}
	}

	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.MarkEndpoint(err, "build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", ResultsMediaType)
	req.Header.Set("User-Agent", version.UserAgent())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.MarkEndpoint(err, "query endpoint")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err := errors.Newf("endpoint returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
		return nil, errors.Mark(err, errors.ErrEndpoint)
	}

	res, err := DecodeResults(resp.Body)
	if err != nil {
		return nil, errors.MarkEndpoint(err, "read endpoint response")
	}

	bindings := res.Bindings()
	c.logger.Debugw("SPARQL query complete",
		"endpoint", c.url,
		"bindings", len(bindings),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return bindings, nil
}
