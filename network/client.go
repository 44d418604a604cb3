// Package network loads the bytes behind image, script and font sources:
// data: URLs, local files and HTTP(S) resources.
package network

import (
	"compress/gzip"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// DefaultUserAgent is sent when no WithUserAgent option is given.
const DefaultUserAgent = "canvashim/1.0"

// Client is an HTTP client with a cookie jar and redirect limit.
type Client struct {
	httpClient   *http.Client
	cookieJar    http.CookieJar
	timeout      time.Duration
	maxRedirects int
	userAgent    string
	maxBodySize  int64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithMaxRedirects sets the maximum number of redirects to follow.
func WithMaxRedirects(n int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = n
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxBodySize limits how many bytes of a response body are read.
// Larger bodies fail with ErrBodyTooLarge.
func WithMaxBodySize(n int64) ClientOption {
	return func(c *Client) {
		c.maxBodySize = n
	}
}

// NewClient creates a new HTTP client with the given options.
func NewClient(opts ...ClientOption) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	c := &Client{
		cookieJar:    jar,
		timeout:      30 * time.Second,
		maxRedirects: 10,
		userAgent:    DefaultUserAgent,
		maxBodySize:  64 << 20,
	}
	for _, opt := range opts {
		opt(c)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	c.httpClient = &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   c.timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= c.maxRedirects {
				return fmt.Errorf("stopped after %d redirects", c.maxRedirects)
			}
			return nil
		},
	}
	return c, nil
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode  int
	Headers     http.Header
	Body        []byte
	ContentType string
	// URL is the final URL after redirects.
	URL *url.URL
}

// ErrBodyTooLarge is returned when a response exceeds the client's body limit.
var ErrBodyTooLarge = errors.New("response body too large")

// Get fetches urlStr and reads the whole body.
func (c *Client) Get(ctx context.Context, urlStr string) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "image/*,*/*;q=0.8")
	httpReq.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader
	}

	body, err := io.ReadAll(io.LimitReader(reader, c.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > c.maxBodySize {
		return nil, fmt.Errorf("%s: %w", urlStr, ErrBodyTooLarge)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		Headers:     resp.Header,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		URL:         resp.Request.URL,
	}, nil
}

// Cookies returns the cookies stored for u.
func (c *Client) Cookies(u *url.URL) []*http.Cookie {
	return c.cookieJar.Cookies(u)
}

// ParseContentType splits a Content-Type header into media type and charset.
func ParseContentType(contentType string) (mediaType string, charset string) {
	if contentType == "" {
		return "application/octet-stream", ""
	}

	parts := strings.Split(contentType, ";")
	mediaType = strings.ToLower(strings.TrimSpace(parts[0]))
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(strings.ToLower(part), "charset=") {
			charset = strings.ToLower(strings.Trim(part[8:], `"`))
			break
		}
	}
	return mediaType, charset
}

// IsImageContentType reports whether contentType names an image.
func IsImageContentType(contentType string) bool {
	mediaType, _ := ParseContentType(contentType)
	return strings.HasPrefix(mediaType, "image/")
}
