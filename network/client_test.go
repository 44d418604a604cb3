package network

import (
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	client, err := NewClient()
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client.timeout != 30*time.Second {
		t.Errorf("default timeout = %v, want %v", client.timeout, 30*time.Second)
	}
	if client.maxRedirects != 10 {
		t.Errorf("default maxRedirects = %v, want %v", client.maxRedirects, 10)
	}
	if client.userAgent != DefaultUserAgent {
		t.Errorf("default userAgent = %q, want %q", client.userAgent, DefaultUserAgent)
	}
}

func TestClientOptions(t *testing.T) {
	client, err := NewClient(
		WithTimeout(60*time.Second),
		WithMaxRedirects(5),
		WithUserAgent("TestAgent/1.0"),
		WithMaxBodySize(1024),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client.timeout != 60*time.Second {
		t.Errorf("timeout = %v, want %v", client.timeout, 60*time.Second)
	}
	if client.maxRedirects != 5 {
		t.Errorf("maxRedirects = %v, want %v", client.maxRedirects, 5)
	}
	if client.userAgent != "TestAgent/1.0" {
		t.Errorf("userAgent = %v, want %v", client.userAgent, "TestAgent/1.0")
	}
	if client.maxBodySize != 1024 {
		t.Errorf("maxBodySize = %v, want 1024", client.maxBodySize)
	}
}

func TestClientGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != DefaultUserAgent {
			t.Errorf("User-Agent = %q", got)
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("pixels"))
	}))
	defer server.Close()

	client, _ := NewClient()
	resp, err := client.Get(context.Background(), server.URL+"/a.png")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", resp.StatusCode)
	}
	if string(resp.Body) != "pixels" {
		t.Errorf("Body = %q", resp.Body)
	}
	if resp.ContentType != "image/png" {
		t.Errorf("ContentType = %q", resp.ContentType)
	}
}

func TestClientGzip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte("compressed"))
		gz.Close()
	}))
	defer server.Close()

	client, _ := NewClient()
	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(resp.Body) != "compressed" {
		t.Errorf("Body = %q", resp.Body)
	}
}

func TestClientBodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer server.Close()

	client, _ := NewClient(WithMaxBodySize(10))
	_, err := client.Get(context.Background(), server.URL)
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Errorf("Get() error = %v, want ErrBodyTooLarge", err)
	}
}

func TestClientTooManyRedirects(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+"/again", http.StatusFound)
	}))
	defer server.Close()

	client, _ := NewClient(WithMaxRedirects(3))
	if _, err := client.Get(context.Background(), server.URL); err == nil {
		t.Error("expected redirect loop to fail")
	}
}

func TestClientCookies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc"})
	}))
	defer server.Close()

	client, _ := NewClient()
	if _, err := client.Get(context.Background(), server.URL); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	u, _ := url.Parse(server.URL)
	cookies := client.Cookies(u)
	if len(cookies) != 1 || cookies[0].Value != "abc" {
		t.Errorf("Cookies = %v", cookies)
	}
}

func TestParseContentType(t *testing.T) {
	tests := []struct {
		in          string
		wantType    string
		wantCharset string
	}{
		{"", "application/octet-stream", ""},
		{"image/PNG", "image/png", ""},
		{`text/javascript; charset="UTF-8"`, "text/javascript", "utf-8"},
	}
	for _, tt := range tests {
		gotType, gotCharset := ParseContentType(tt.in)
		if gotType != tt.wantType || gotCharset != tt.wantCharset {
			t.Errorf("ParseContentType(%q) = %q, %q", tt.in, gotType, gotCharset)
		}
	}
	if !IsImageContentType("image/webp") || IsImageContentType("text/plain") {
		t.Error("IsImageContentType misclassified")
	}
}
