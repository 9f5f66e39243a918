package dictionary

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/japaniel/mywords/pkg/errs"
)

const (
	// DefaultBaseURL is the upstream English/Turkish dictionary.
	DefaultBaseURL = "https://tureng.com/en/turkish-english/"

	// DefaultUserAgent mimics a desktop browser; the upstream tends to block bare clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// DefaultMaxBodyBytes bounds how much HTML is read from one response.
	DefaultMaxBodyBytes = 10 * 1024 * 1024
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig configures the upstream lookup.
type ClientConfig struct {
	BaseURL      string
	UserAgent    string
	Timeout      time.Duration // zero means no client-side timeout
	MaxBodyBytes int64
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP transport, e.g. with a test server client.
func WithHTTPClient(d Doer) ClientOption {
	return func(c *Client) { c.http = d }
}

// Client fetches the upstream page for a word and extracts its meanings.
// It never retries: the upstream is best-effort and the caller is a person.
type Client struct {
	baseURL   string
	userAgent string
	maxBody   int64
	http      Doer
	log       *zap.Logger
}

// NewClient creates a Client. Empty config fields fall back to the defaults above;
// a nil log discards output.
func NewClient(cfg ClientConfig, log *zap.Logger, opts ...ClientOption) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		maxBody:   cfg.MaxBodyBytes,
		http:      &http.Client{Timeout: cfg.Timeout},
		log:       log.With(zap.String("component", "lookup")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup fetches and extracts the definition of word.
// Blank input returns errs.ErrNotFound without touching the network.
// Transport failures and non-2xx statuses return errs.ErrNetwork.
func (c *Client) Lookup(ctx context.Context, word string) (*Definition, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, fmt.Errorf("empty query: %w", errs.ErrNotFound)
	}

	reqURL := c.baseURL + url.PathEscape(word)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: create request: %v: %w", word, err, errs.ErrNetwork)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	c.log.Debug("lookup request", zap.String("word", word), zap.String("url", reqURL))

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("lookup transport failure", zap.String("word", word), zap.Error(err))
		return nil, fmt.Errorf("lookup %s: %v: %w", word, err, errs.ErrNetwork)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("lookup unexpected status", zap.String("word", word), zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("lookup %s: status %d: %w", word, resp.StatusCode, errs.ErrNetwork)
	}

	if resp.ContentLength > c.maxBody {
		return nil, fmt.Errorf("lookup %s: content length %d exceeds %d bytes: %w", word, resp.ContentLength, c.maxBody, errs.ErrNetwork)
	}
	// Read one byte past the limit so an oversized body is detected rather than truncated.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("lookup %s: read body: %v: %w", word, err, errs.ErrNetwork)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("lookup %s: body exceeds %d bytes: %w", word, c.maxBody, errs.ErrNetwork)
	}

	def, err := ExtractHTML(bytes.NewReader(body), word)
	if err != nil {
		c.log.Debug("lookup no result", zap.String("word", word))
		return nil, err
	}

	c.log.Debug("lookup result", zap.String("word", word), zap.Int("meanings", len(def.Meanings)))
	return def, nil
}
