package oem

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetcherSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleXML))
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, testLogger())
	data, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != sampleXML {
		t.Errorf("fetched body does not match served body (%d bytes)", len(data))
	}
}

func TestFetcherHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, testLogger())
	if _, err := f.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for 503 response")
	} else if !strings.Contains(err.Error(), "503") {
		t.Errorf("error should mention status code: %v", err)
	}
}

func TestFetcherBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Stream past the cap without allocating the whole body.
		chunk := make([]byte, 1024*1024)
		for i := 0; i < 51; i++ {
			if _, err := w.Write(chunk); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, testLogger())
	if _, err := f.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for oversized response")
	} else if !strings.Contains(err.Error(), "byte limit") {
		t.Errorf("error should mention byte limit: %v", err)
	}
}

func TestFetcherContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(srv.URL, testLogger())
	if _, err := f.Fetch(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestFetcherDefaultURL(t *testing.T) {
	f := NewFetcher("", testLogger())
	if !strings.Contains(f.SourceURL(), "ISS.OEM_J2K_EPH.xml") {
		t.Errorf("default URL = %q, want the NASA OEM feed", f.SourceURL())
	}
}
