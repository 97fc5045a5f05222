// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     models
// Description: Whisper model download with staged readiness reporting
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package models

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/msto63/cicero/pkg/core/logging"
)

// Typed stage failures. The session layer maps them to distinct
// user-facing messages.
type DownloadError struct{ Err error }

func (e *DownloadError) Error() string { return fmt.Sprintf("model download failed: %v", e.Err) }
func (e *DownloadError) Unwrap() error { return e.Err }

type CompileError struct{ Err error }

func (e *CompileError) Error() string { return fmt.Sprintf("model verification failed: %v", e.Err) }
func (e *CompileError) Unwrap() error { return e.Err }

type LoadError struct{ Err error }

func (e *LoadError) Error() string { return fmt.Sprintf("model load failed: %v", e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// Loader makes downloaded weights usable, typically by probing the
// whisper.cpp binary against the file. Implemented by the stt package.
type Loader interface {
	Load(ctx context.Context, modelPath string) error
}

// Downloader fetches ggml weights, verifies them and hands them to the
// loader, driving a Tracker through the full status sequence.
type Downloader struct {
	dir    string
	client *http.Client
	logger *logging.Logger
}

// NewDownloader creates a downloader caching weights under dir
func NewDownloader(dir string) *Downloader {
	return &Downloader{
		dir:    dir,
		client: &http.Client{},
		logger: logging.New("models"),
	}
}

// Ensure brings the variant to Ready: download when absent, verify,
// then load. All status and progress reporting goes through the
// tracker; the returned error carries the typed stage failure.
func (d *Downloader) Ensure(ctx context.Context, id string, tracker *Tracker, loader Loader) error {
	entry, ok := LookupEntry(id)
	if !ok {
		err := fmt.Errorf("unknown model %q", id)
		tracker.Fail(err.Error())
		return &DownloadError{Err: err}
	}

	path := Path(d.dir, id)

	if !IsDownloaded(d.dir, id) {
		tracker.SetStatus(Status{Kind: StatusDownloading})
		if err := d.download(ctx, entry, path, tracker); err != nil {
			tracker.Fail(err.Error())
			return &DownloadError{Err: err}
		}
	} else {
		// Cached weights skip the download sub-range entirely
		tracker.SetStatus(Status{Kind: StatusDownloading})
		tracker.StageProgress(1, 0, 0, 0)
	}

	tracker.SetStatus(Status{Kind: StatusCompiling})
	if err := d.verify(path, entry); err != nil {
		tracker.Fail(err.Error())
		return &CompileError{Err: err}
	}
	tracker.StageProgress(1, 0, 0, 0)

	tracker.SetStatus(Status{Kind: StatusLoading})
	if loader != nil {
		if err := loader.Load(ctx, path); err != nil {
			tracker.Fail(err.Error())
			return &LoadError{Err: err}
		}
	}

	tracker.SetStatus(Status{Kind: StatusDownloaded})
	tracker.SetStatus(Status{Kind: StatusReady})
	d.logger.Info("model ready", "model", id, "path", path)
	return nil
}

// download streams the weights to a temp file and renames on success,
// so a cancelled download never leaves a half-written cache entry
func (d *Downloader) download(ctx context.Context, entry CatalogEntry, path string, tracker *Tracker) error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model dir: %w", err)
	}

	url := DownloadURL(entry.ID)
	d.logger.Info("downloading model", "model", entry.ID, "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = entry.ApproxBytes
	}

	tmp := path + ".partial"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		out.Close()
		os.Remove(tmp)
	}()

	var completed int64
	lastReport := time.Now()
	var lastBytes int64

	buf := make([]byte, 1<<20)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return fmt.Errorf("write failed: %w", werr)
			}
			completed += int64(n)

			if elapsed := time.Since(lastReport); elapsed > 500*time.Millisecond {
				speed := float64(completed-lastBytes) / elapsed.Seconds()
				frac := 0.0
				if total > 0 {
					frac = float64(completed) / float64(total)
				}
				tracker.StageProgress(frac, completed, total, speed)
				lastReport = time.Now()
				lastBytes = completed
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return fmt.Errorf("read failed: %w", rerr)
		}
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("close failed: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename failed: %w", err)
	}

	tracker.StageProgress(1, completed, total, 0)
	d.logger.Info("download complete", "model", entry.ID, "bytes", completed)
	return nil
}

// verify is the compile stage: the weights must exist, be non-trivial
// in size and carry the ggml magic
func (d *Downloader) verify(path string, entry CatalogEntry) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("weights missing: %w", err)
	}
	if info.Size() < 1<<20 {
		return fmt.Errorf("weights truncated: %d bytes", info.Size())
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open weights: %w", err)
	}
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	// ggml files start with "lmgg" ("ggml" little-endian)
	if string(magic) != "lmgg" {
		return fmt.Errorf("not a ggml file: %s", filepath.Base(path))
	}
	return nil
}
