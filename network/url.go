package network

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ResolveURL resolves ref against base. Absolute references and data: URLs
// are returned unchanged.
func ResolveURL(base, ref string) (string, error) {
	if ref == "" {
		return base, nil
	}
	if IsDataURL(ref) {
		return ref, nil
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid reference URL: %w", err)
	}
	if refURL.IsAbs() {
		return refURL.String(), nil
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	return baseURL.ResolveReference(refURL).String(), nil
}

// IsAbsoluteURL returns true if the URL has a scheme.
func IsAbsoluteURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	return u.IsAbs()
}

// IsDataURL returns true if the URL is a data URL.
func IsDataURL(urlStr string) bool {
	return len(urlStr) >= 5 && strings.EqualFold(urlStr[:5], "data:")
}

// IsFileURL returns true if the URL uses the file scheme.
func IsFileURL(urlStr string) bool {
	return len(urlStr) >= 7 && strings.EqualFold(urlStr[:7], "file://")
}

// IsHTTPURL returns true for http and https URLs.
func IsHTTPURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// DataURL is a parsed data: URL.
type DataURL struct {
	MediaType string
	Charset   string
	Base64    bool
	Data      []byte
}

var errNotDataURL = errors.New("not a data URL")

// ParseDataURL parses data:[<mediatype>][;base64],<data>.
func ParseDataURL(urlStr string) (*DataURL, error) {
	if !IsDataURL(urlStr) {
		return nil, errNotDataURL
	}
	metadata, data, ok := strings.Cut(urlStr[5:], ",")
	if !ok {
		return nil, fmt.Errorf("invalid data URL: missing comma")
	}

	result := &DataURL{
		MediaType: "text/plain",
		Charset:   "US-ASCII",
	}
	for i, part := range strings.Split(metadata, ";") {
		switch {
		case strings.EqualFold(part, "base64"):
			result.Base64 = true
		case strings.HasPrefix(strings.ToLower(part), "charset="):
			result.Charset = part[8:]
		case i == 0 && part != "":
			result.MediaType = strings.ToLower(part)
		}
	}

	if result.Base64 {
		// Base64 payloads are often line wrapped or percent-escaped.
		unescaped, err := url.PathUnescape(data)
		if err != nil {
			return nil, fmt.Errorf("failed to unescape data URL: %w", err)
		}
		unescaped = strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
				return -1
			}
			return r
		}, unescaped)
		decoded, err := base64.StdEncoding.DecodeString(unescaped)
		if err != nil {
			decoded, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(unescaped, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 data: %w", err)
		}
		result.Data = decoded
		return result, nil
	}

	decoded, err := url.PathUnescape(data)
	if err != nil {
		return nil, fmt.Errorf("failed to URL-decode data: %w", err)
	}
	result.Data = []byte(decoded)
	return result, nil
}

// ExtractPath returns the path component of a URL.
func ExtractPath(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Path
}

// ExtractExtension returns the lower-cased file extension of a URL path,
// without the dot.
func ExtractExtension(urlStr string) string {
	p := ExtractPath(urlStr)
	if p == "" || strings.HasSuffix(p, "/") {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
}

// GuessContentType guesses the content type of a URL from its extension.
func GuessContentType(urlStr string) string {
	switch ExtractExtension(urlStr) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "bmp":
		return "image/bmp"
	case "tif", "tiff":
		return "image/tiff"
	case "js", "mjs":
		return "text/javascript"
	case "ttf":
		return "font/ttf"
	case "otf":
		return "font/otf"
	default:
		return "application/octet-stream"
	}
}
