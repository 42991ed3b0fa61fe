package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestDownloader() *Downloader {
	return NewDownloader(5*time.Second, 1024*1024)
}

func TestFetch_Success(t *testing.T) {
	var gotUserAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("fake-video-bytes"))
	}))
	defer srv.Close()

	data, mimeType, err := newTestDownloader().Fetch(context.Background(), srv.URL+"/video.mp4")
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}

	if string(data) != "fake-video-bytes" {
		t.Errorf("Expected body 'fake-video-bytes', got %q", data)
	}
	if mimeType != "video/mp4" {
		t.Errorf("Expected mime 'video/mp4', got %q", mimeType)
	}
	if !strings.Contains(gotUserAgent, "Mozilla/5.0") {
		t.Errorf("Expected browser-like User-Agent, got %q", gotUserAgent)
	}
}

func TestFetch_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, _, err := newTestDownloader().Fetch(context.Background(), srv.URL+"/missing.mp4")

	if KindOf(err) != ErrKindDownload {
		t.Fatalf("Expected download error kind, got %v", err)
	}

	var pe *PipelineError
	if !errors.As(err, &pe) || pe.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404 on the error, got %+v", err)
	}
}

func TestFetch_TransportError(t *testing.T) {
	// Closed server → connection refused
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, _, err := newTestDownloader().Fetch(context.Background(), url)

	if KindOf(err) != ErrKindDownload {
		t.Fatalf("Expected download error kind, got %v", err)
	}
}

func TestFetch_SizeCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	d := NewDownloader(5*time.Second, 16)
	_, _, err := d.Fetch(context.Background(), srv.URL)

	if KindOf(err) != ErrKindDownload {
		t.Fatalf("Expected download error for oversized body, got %v", err)
	}
	if !strings.Contains(err.Error(), "limit") {
		t.Errorf("Expected size limit message, got %q", err.Error())
	}
}

func TestFetch_DefaultMimeType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	_, mimeType, err := newTestDownloader().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if mimeType != "video/mp4" {
		t.Errorf("Expected fallback mime 'video/mp4', got %q", mimeType)
	}
}
