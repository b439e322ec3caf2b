// Package shortener wraps the ouo.io link shortening API. Every failure
// degrades to the original URL.
package shortener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Digital-Shane/quickfill/internal/ratelimit"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL  = "https://ouo.io/api"
	DefaultTimeout  = 10 * time.Second
	DefaultThrottle = 500 * time.Millisecond
	DefaultCacheTTL = 7 * 24 * time.Hour
)

// Options configures a Client. Zero Throttle means no pause between
// calls; use DefaultOptions for the usual behavior.
type Options struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	Throttle   time.Duration
	CacheTTL   time.Duration
	HTTPClient *http.Client
	Limiter    *ratelimit.Limiter
	Logger     logrus.FieldLogger
	// OnResult observes every network attempt.
	OnResult func(original, short string, err error)
}

// DefaultOptions returns the documented timeout, throttle and memo TTL.
func DefaultOptions(apiKey string) Options {
	return Options{
		APIKey:   apiKey,
		BaseURL:  DefaultBaseURL,
		Timeout:  DefaultTimeout,
		Throttle: DefaultThrottle,
		CacheTTL: DefaultCacheTTL,
	}
}

// Client shortens URLs, memoizing results by API key and URL. It is safe
// for concurrent use.
type Client struct {
	apiKey   string
	baseURL  string
	timeout  time.Duration
	throttle time.Duration
	http     *http.Client
	limiter  *ratelimit.Limiter
	memo     *cache.Cache
	log      logrus.FieldLogger
	onResult func(original, short string, err error)
}

// New builds a Client, filling unset options with defaults.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}

	return &Client{
		apiKey:   strings.TrimSpace(opts.APIKey),
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		timeout:  opts.Timeout,
		throttle: opts.Throttle,
		http:     opts.HTTPClient,
		limiter:  opts.Limiter,
		memo:     cache.New(opts.CacheTTL, opts.CacheTTL*2),
		log:      opts.Logger.WithField("component", "shortener"),
		onResult: opts.OnResult,
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

func (c *Client) memoKey(rawURL string) string {
	return c.apiKey + "\x00" + rawURL
}

// Shorten returns the short form of rawURL, or rawURL itself when no key
// is configured or the single attempt fails.
func (c *Client) Shorten(ctx context.Context, rawURL string) string {
	if !c.Enabled() || strings.TrimSpace(rawURL) == "" {
		return rawURL
	}

	key := c.memoKey(rawURL)
	if v, found := c.memo.Get(key); found {
		return v.(string)
	}

	short, err := c.fetch(ctx, rawURL)
	if c.onResult != nil {
		c.onResult(rawURL, short, err)
	}
	if err != nil {
		c.log.WithError(err).WithField("url", rawURL).Debug("shortening failed, keeping original")
		return rawURL
	}

	c.memo.Set(key, short, cache.DefaultExpiration)
	c.pause(ctx)
	return short
}

func (c *Client) fetch(ctx context.Context, rawURL string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/" + url.PathEscape(c.apiKey) + "?s=" + url.QueryEscape(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build shortener request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("shortener request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("shortener returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("failed to read shortener response: %w", err)
	}
	short := strings.TrimSpace(string(body))
	if !strings.HasPrefix(short, "http") {
		return "", fmt.Errorf("unexpected shortener response %q", short)
	}
	return short, nil
}

func (c *Client) pause(ctx context.Context) {
	if c.throttle <= 0 {
		return
	}
	timer := time.NewTimer(c.throttle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// SaveCache writes memoized links to path.
func (c *Client) SaveCache(path string) error {
	if err := c.memo.SaveFile(path); err != nil {
		return fmt.Errorf("failed to save shortener cache: %w", err)
	}
	return nil
}

// LoadCache merges memoized links from path. A missing file is not an
// error.
func (c *Client) LoadCache(path string) error {
	if err := c.memo.LoadFile(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load shortener cache: %w", err)
	}
	return nil
}
