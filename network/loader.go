package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ResourceType is what a resource is loaded for.
type ResourceType int

const (
	ResourceTypeUnknown ResourceType = iota
	ResourceTypeImage
	ResourceTypeScript
	ResourceTypeFont
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeImage:
		return "image"
	case ResourceTypeScript:
		return "script"
	case ResourceTypeFont:
		return "font"
	}
	return "unknown"
}

// Resource is a loaded resource.
type Resource struct {
	URL         string
	Type        ResourceType
	Content     []byte
	ContentType string
	StatusCode  int
	Error       error
	Cached      bool
}

// IsSuccess returns true if the resource was loaded successfully.
func (r *Resource) IsSuccess() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Err returns the load error, or a *StatusError for unsuccessful HTTP
// statuses, or nil.
func (r *Resource) Err() error {
	if r.Error != nil {
		return r.Error
	}
	if !r.IsSuccess() {
		return &StatusError{URL: r.URL, StatusCode: r.StatusCode}
	}
	return nil
}

// StatusError reports an HTTP response with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// ErrNoSource is returned when loading an empty URL.
var ErrNoSource = errors.New("empty resource URL")

// ErrUnsupportedScheme is returned for URLs no loader path can serve.
var ErrUnsupportedScheme = errors.New("unsupported URL scheme")

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLocalPath sets the directory relative paths and file:// URLs are read
// from.
func WithLocalPath(path string) LoaderOption {
	return func(l *Loader) {
		l.localPath = path
	}
}

// WithBaseURL sets the URL relative references resolve against.
func WithBaseURL(baseURL string) LoaderOption {
	return func(l *Loader) {
		l.baseURL = baseURL
	}
}

// WithCache replaces the default cache.
func WithCache(cache *Cache) LoaderOption {
	return func(l *Loader) {
		l.cache = cache
	}
}

// Loader fetches resources from data: URLs, the local filesystem or HTTP.
// It is safe for concurrent use.
type Loader struct {
	client    *Client
	cache     *Cache
	localPath string
	baseURL   string

	mu sync.RWMutex
}

// NewLoader creates a resource loader. client may be nil, in which case
// HTTP sources fail with ErrUnsupportedScheme.
func NewLoader(client *Client, opts ...LoaderOption) *Loader {
	l := &Loader{
		client: client,
		cache:  NewCache(0),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetBaseURL sets the base URL for resolving relative URLs.
func (l *Loader) SetBaseURL(baseURL string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.baseURL = baseURL
}

// BaseURL returns the current base URL.
func (l *Loader) BaseURL() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.baseURL
}

// SetLocalPath sets the local root directory.
func (l *Loader) SetLocalPath(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.localPath = path
}

// Load loads urlStr. The returned resource is never nil; failures are
// reported through Resource.Err.
func (l *Loader) Load(ctx context.Context, urlStr string, resourceType ResourceType) *Resource {
	if urlStr == "" {
		return &Resource{Type: resourceType, Error: ErrNoSource}
	}
	if IsDataURL(urlStr) {
		return l.loadDataURL(urlStr, resourceType)
	}

	l.mu.RLock()
	baseURL := l.baseURL
	localPath := l.localPath
	l.mu.RUnlock()

	if baseURL != "" && !IsAbsoluteURL(urlStr) {
		resolved, err := ResolveURL(baseURL, urlStr)
		if err != nil {
			return &Resource{
				URL:   urlStr,
				Type:  resourceType,
				Error: fmt.Errorf("failed to resolve URL: %w", err),
			}
		}
		urlStr = resolved
	}

	if res, ok := l.cache.Get(urlStr); ok {
		cached := *res
		cached.Type = resourceType
		cached.Cached = true
		return &cached
	}

	var res *Resource
	switch {
	case IsHTTPURL(urlStr):
		res = l.loadFromHTTP(ctx, urlStr, resourceType)
	case IsFileURL(urlStr) || !IsAbsoluteURL(urlStr):
		res = l.loadFromLocal(urlStr, localPath, resourceType)
		if res.Error == nil {
			l.cache.Set(urlStr, res, nil)
		}
	default:
		res = &Resource{
			URL:   urlStr,
			Type:  resourceType,
			Error: fmt.Errorf("%s: %w", urlStr, ErrUnsupportedScheme),
		}
	}
	return res
}

// LoadImage loads an encoded image.
func (l *Loader) LoadImage(ctx context.Context, urlStr string) *Resource {
	return l.Load(ctx, urlStr, ResourceTypeImage)
}

// LoadScript loads a JavaScript file.
func (l *Loader) LoadScript(ctx context.Context, urlStr string) *Resource {
	return l.Load(ctx, urlStr, ResourceTypeScript)
}

// LoadFont loads a TrueType or OpenType font file.
func (l *Loader) LoadFont(ctx context.Context, urlStr string) *Resource {
	return l.Load(ctx, urlStr, ResourceTypeFont)
}

func (l *Loader) loadDataURL(urlStr string, resourceType ResourceType) *Resource {
	dataURL, err := ParseDataURL(urlStr)
	if err != nil {
		return &Resource{
			URL:   urlStr,
			Type:  resourceType,
			Error: err,
		}
	}
	return &Resource{
		URL:         urlStr,
		Type:        resourceType,
		Content:     dataURL.Data,
		ContentType: dataURL.MediaType,
		StatusCode:  http.StatusOK,
	}
}

// loadFromLocal reads a file:// URL or a path under basePath. Absolute
// file:// paths are read as is.
func (l *Loader) loadFromLocal(urlStr string, basePath string, resourceType ResourceType) *Resource {
	var localPath string
	if IsFileURL(urlStr) {
		localPath = filepath.FromSlash(ExtractPath(urlStr))
		if !filepath.IsAbs(localPath) && basePath != "" {
			localPath = filepath.Join(basePath, localPath)
		}
	} else {
		localPath = filepath.FromSlash(urlStr)
		if basePath != "" && !(filepath.IsAbs(localPath) && strings.HasPrefix(localPath, basePath)) {
			// Relative paths may not climb out of basePath.
			localPath = filepath.Join(basePath, filepath.Clean(string(filepath.Separator)+localPath))
		}
	}

	content, err := os.ReadFile(localPath)
	if err != nil {
		return &Resource{
			URL:   urlStr,
			Type:  resourceType,
			Error: err,
		}
	}
	return &Resource{
		URL:         urlStr,
		Type:        resourceType,
		Content:     content,
		ContentType: GuessContentType(urlStr),
		StatusCode:  http.StatusOK,
	}
}

func (l *Loader) loadFromHTTP(ctx context.Context, urlStr string, resourceType ResourceType) *Resource {
	if l.client == nil {
		return &Resource{
			URL:   urlStr,
			Type:  resourceType,
			Error: fmt.Errorf("%s: %w", urlStr, ErrUnsupportedScheme),
		}
	}
	resp, err := l.client.Get(ctx, urlStr)
	if err != nil {
		return &Resource{
			URL:   urlStr,
			Type:  resourceType,
			Error: err,
		}
	}

	mediaType, _ := ParseContentType(resp.ContentType)
	if mediaType == "application/octet-stream" {
		mediaType = GuessContentType(urlStr)
	}
	res := &Resource{
		URL:         urlStr,
		Type:        resourceType,
		Content:     resp.Body,
		ContentType: mediaType,
		StatusCode:  resp.StatusCode,
	}
	if res.IsSuccess() {
		l.cache.Set(urlStr, res, resp.Headers)
	}
	return res
}
