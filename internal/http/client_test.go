package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func fastOptions() Options {
	opts := DefaultOptions()
	opts.RetryBackoff = 10 * time.Millisecond
	opts.RetryMaxBackoff = 50 * time.Millisecond
	return opts
}

func TestGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("ETag", `"abc123"`)
		w.Write([]byte("hello"))
	}))
	defer server.Close()

	resp, err := NewClient(DefaultOptions()).Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(body) != "hello" {
		t.Errorf("expected 'hello', got %q", body)
	}
	if resp.ETag != "abc123" {
		t.Errorf("expected ETag 'abc123', got %s", resp.ETag)
	}
	if resp.ContentType != "text/plain" {
		t.Errorf("expected content-type 'text/plain', got %s", resp.ContentType)
	}
}

func TestGetNotFound(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewClient(fastOptions()).Get(context.Background(), server.URL)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("client errors must not be retried, got %d attempts", attempts)
	}
}

func TestRetryOnServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	resp, err := NewClient(fastOptions()).Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()

	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryGivesUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	opts := fastOptions()
	opts.RetryAttempts = 2
	_, err := NewClient(opts).Get(context.Background(), server.URL)
	if !errors.Is(err, ErrServerError) {
		t.Errorf("expected ErrServerError, got %v", err)
	}
}

func TestFetch(t *testing.T) {
	data := []byte("image bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("ETag", `W/"v42"`)
		w.Write(data)
	}))
	defer server.Close()

	dir := t.TempDir()
	fetched, err := NewClient(DefaultOptions()).Fetch(context.Background(), server.URL+"/images/cat.jpg?size=large", dir)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if fetched.Path != filepath.Join(dir, "cat.jpg") {
		t.Errorf("unexpected local path %s", fetched.Path)
	}
	if fetched.ETag != "v42" {
		t.Errorf("expected ETag 'v42', got %q", fetched.ETag)
	}
	if fetched.Size != int64(len(data)) {
		t.Errorf("expected size %d, got %d", len(data), fetched.Size)
	}

	got, err := os.ReadFile(fetched.Path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("expected %q, got %q", data, got)
	}
}

func TestFetchNotFoundLeavesNoFile(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	dir := t.TempDir()
	_, err := NewClient(fastOptions()).Fetch(context.Background(), server.URL+"/missing.txt", dir)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty dir, got %d entries", len(entries))
	}
}

func TestLocalName(t *testing.T) {
	tests := []struct {
		url         string
		contentType string
		expected    string
	}{
		{"https://example.com/a/photo.jpg", "", "photo.jpg"},
		{"https://example.com/a/photo.jpg", "image/png", "photo.jpg"},
		{"https://example.com/", "", "download"},
		{"https://example.com", "", "download"},
		{"https://example.com/report", "application/pdf", "report.pdf"},
		{"https://example.com/report", "application/x-unknown-thing", "report"},
	}

	for _, tt := range tests {
		got, err := localName(tt.url, tt.contentType)
		if err != nil {
			t.Errorf("localName(%q): %v", tt.url, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("localName(%q, %q) = %q, want %q", tt.url, tt.contentType, got, tt.expected)
		}
	}
}

func TestIsRemote(t *testing.T) {
	tests := map[string]bool{
		"http://example.com/a.jpg":  true,
		"https://example.com/a.jpg": true,
		"/tmp/a.jpg":                false,
		"a.jpg":                     false,
		"s3://bucket/a.jpg":         false,
	}
	for src, want := range tests {
		if got := IsRemote(src); got != want {
			t.Errorf("IsRemote(%q) = %v, want %v", src, got, want)
		}
	}
}

func TestCleanETag(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"abc123"`, "abc123"},
		{`W/"abc123"`, "abc123"},
		{"abc123", "abc123"},
		{`""`, ""},
	}

	for _, tt := range tests {
		result := cleanETag(tt.input)
		if result != tt.expected {
			t.Errorf("cleanETag(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(DefaultOptions()).Get(ctx, server.URL)
	if err == nil {
		t.Error("expected error due to context cancellation")
	}
}
