// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     models
// Description: Tests for the model downloader
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package models

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

// fakeWeights is a minimal payload passing the verify stage: ggml
// magic followed by padding past the truncation threshold
func fakeWeights() []byte {
	buf := make([]byte, 2<<20)
	copy(buf, []byte("lmgg"))
	return buf
}

type fakeLoader struct {
	err     error
	gotPath string
}

func (f *fakeLoader) Load(_ context.Context, modelPath string) error {
	f.gotPath = modelPath
	return f.err
}

// testDownloader points the catalog URL at a local server by seeding
// the cache; downloads themselves go through the injected client
func newServedDownloader(t *testing.T, handler http.Handler) (*Downloader, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	d := NewDownloader(t.TempDir())
	d.client = srv.Client()
	// Rewrite all requests to the test server regardless of URL
	d.client.Transport = rewriteTransport{base: srv.URL, inner: srv.Client().Transport}
	return d, srv
}

type rewriteTransport struct {
	base  string
	inner http.RoundTripper
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	rewritten, err := http.NewRequestWithContext(req.Context(), req.Method, rt.base+req.URL.Path, req.Body)
	if err != nil {
		return nil, err
	}
	rewritten.Header = clone.Header
	return rt.inner.RoundTrip(rewritten)
}

func TestEnsureDownloadsAndLoads(t *testing.T) {
	d, _ := newServedDownloader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(fakeWeights())
	}))

	tr := NewTracker(true)
	loader := &fakeLoader{}
	if err := d.Ensure(context.Background(), "base", tr, loader); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	if !tr.IsReady() {
		t.Errorf("tracker status = %v, want ready", tr.Status())
	}
	if loader.gotPath != Path(d.dir, "base") {
		t.Errorf("loader path = %q, want %q", loader.gotPath, Path(d.dir, "base"))
	}
	if !IsDownloaded(d.dir, "base") {
		t.Error("weights not cached")
	}
}

func TestEnsureUnknownModel(t *testing.T) {
	d := NewDownloader(t.TempDir())
	tr := NewTracker(true)

	err := d.Ensure(context.Background(), "no-such-model", tr, nil)
	var de *DownloadError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want DownloadError", err)
	}
	if tr.Status().Kind != StatusError {
		t.Errorf("tracker status = %v, want error", tr.Status())
	}
}

func TestEnsureDownloadFailureTyped(t *testing.T) {
	d, _ := newServedDownloader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))

	tr := NewTracker(true)
	err := d.Ensure(context.Background(), "base", tr, nil)

	var de *DownloadError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want DownloadError", err)
	}
	if IsDownloaded(d.dir, "base") {
		t.Error("failed download left a cache entry")
	}
}

func TestEnsureVerifyFailureTyped(t *testing.T) {
	d := NewDownloader(t.TempDir())

	// Seed the cache with a corrupt file large enough to skip download
	bad := bytes.Repeat([]byte("x"), 2<<20)
	if err := os.WriteFile(Path(d.dir, "base"), bad, 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tr := NewTracker(true)
	err := d.Ensure(context.Background(), "base", tr, nil)

	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want CompileError", err)
	}
}

func TestEnsureLoadFailureTyped(t *testing.T) {
	d := NewDownloader(t.TempDir())
	if err := os.WriteFile(Path(d.dir, "base"), fakeWeights(), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tr := NewTracker(true)
	loader := &fakeLoader{err: errors.New("binary missing")}
	err := d.Ensure(context.Background(), "base", tr, loader)

	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("error = %v, want LoadError", err)
	}
	st := tr.Status()
	if st.Kind != StatusError || st.Reason == "" {
		t.Errorf("tracker status = %v, want error with reason", st)
	}
}

func TestEnsureCachedSkipsDownload(t *testing.T) {
	requests := 0
	d, _ := newServedDownloader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write(fakeWeights())
	}))

	if err := os.WriteFile(Path(d.dir, "base"), fakeWeights(), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tr := NewTracker(true)
	if err := d.Ensure(context.Background(), "base", tr, nil); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if requests != 0 {
		t.Errorf("cached model still downloaded %d times", requests)
	}
	if !tr.IsReady() {
		t.Errorf("tracker status = %v, want ready", tr.Status())
	}
}

func TestCatalogHelpers(t *testing.T) {
	if FileName("large-v3") != "ggml-large-v3.bin" {
		t.Errorf("FileName = %q", FileName("large-v3"))
	}
	if _, ok := LookupEntry("large-v3-turbo"); !ok {
		t.Error("large-v3-turbo missing from catalog")
	}

	dir := t.TempDir()
	if IsDownloaded(dir, "small") {
		t.Error("empty cache reports downloaded")
	}
	if err := os.WriteFile(Path(dir, "small"), []byte("data"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if CacheSize(dir, "small") != 4 {
		t.Errorf("CacheSize = %d, want 4", CacheSize(dir, "small"))
	}
	if err := Delete(dir, "small"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if IsDownloaded(dir, "small") {
		t.Error("deleted model still reported")
	}
	if err := Delete(dir, "small"); err != nil {
		t.Errorf("Delete of absent model: %v", err)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{1_500, "2 KB"},
		{1_500_000, "1.5 MB"},
		{3_100_000_000, "3.1 GB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
