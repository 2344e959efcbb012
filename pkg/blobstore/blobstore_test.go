package blobstore

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/suteetoe/perftrack/pkg/config"
	"go.uber.org/zap"
)

func TestUploadReturnsProviderURL(t *testing.T) {
	var gotPath, gotContentType, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"url":"https://blobs.example.com/perftrack-documents/abc"}`))
	}))
	defer server.Close()

	client := NewClient(&config.BlobConfig{
		BaseURL: server.URL,
		Bucket:  "perftrack-documents",
		Timeout: 5 * time.Second,
	}, zap.NewNop())

	url, err := client.Upload("abc", "text/plain", strings.NewReader("document body"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if url != "https://blobs.example.com/perftrack-documents/abc" {
		t.Fatalf("unexpected URL %q", url)
	}
	if gotPath != "/buckets/perftrack-documents/objects/abc" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotContentType != "text/plain" {
		t.Fatalf("unexpected content type %q", gotContentType)
	}
	if gotBody != "document body" {
		t.Fatalf("unexpected body %q", gotBody)
	}
}

func TestUploadSurfacesProviderErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bucket not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(&config.BlobConfig{BaseURL: server.URL, Bucket: "missing", Timeout: 5 * time.Second}, zap.NewNop())

	if _, err := client.Upload("abc", "text/plain", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error from provider failure")
	}
}
