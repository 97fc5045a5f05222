// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     models
// Description: Curated whisper.cpp model catalog and cache inspection
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package models

import (
	"fmt"
	"os"
	"path/filepath"
)

// CatalogEntry describes one downloadable whisper.cpp model
type CatalogEntry struct {
	// ID is the ggml variant name, also the file stem on disk
	ID string

	DisplayName string
	Hint        string

	// ApproxBytes is the published weight size, used for progress when
	// the server omits Content-Length
	ApproxBytes int64
}

// downloadBaseURL is where ggerganov publishes the converted weights
const downloadBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// Catalog is the curated model list, best first
var Catalog = []CatalogEntry{
	{ID: "large-v3", DisplayName: "Large v3", Hint: "beste Qualität", ApproxBytes: 3_095_000_000},
	{ID: "large-v3-turbo", DisplayName: "Large v3 Turbo", Hint: "empfohlen", ApproxBytes: 1_624_000_000},
	{ID: "medium", DisplayName: "Medium", Hint: "ausgewogen", ApproxBytes: 1_533_000_000},
	{ID: "small", DisplayName: "Small", Hint: "schnell", ApproxBytes: 488_000_000},
	{ID: "base", DisplayName: "Base", Hint: "am kleinsten", ApproxBytes: 148_000_000},
}

// LookupEntry finds a catalog entry by ID
func LookupEntry(id string) (CatalogEntry, bool) {
	for _, e := range Catalog {
		if e.ID == id {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

// FileName returns the on-disk file name for a variant
func FileName(id string) string {
	return "ggml-" + id + ".bin"
}

// Path returns the cache path of a variant under the model directory
func Path(dir, id string) string {
	return filepath.Join(dir, FileName(id))
}

// DownloadURL returns the upstream URL for a variant
func DownloadURL(id string) string {
	return downloadBaseURL + "/" + FileName(id)
}

// CacheSize returns the on-disk size of a variant, 0 when absent
func CacheSize(dir, id string) int64 {
	info, err := os.Stat(Path(dir, id))
	if err != nil {
		return 0
	}
	return info.Size()
}

// IsDownloaded reports whether a variant is present in the cache
func IsDownloaded(dir, id string) bool {
	return CacheSize(dir, id) > 0
}

// Delete removes a variant from the cache
func Delete(dir, id string) error {
	err := os.Remove(Path(dir, id))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// FormatBytes renders a byte count for status lines
func FormatBytes(bytes int64) string {
	switch {
	case bytes >= 1_000_000_000:
		return fmt.Sprintf("%.1f GB", float64(bytes)/1e9)
	case bytes >= 1_000_000:
		return fmt.Sprintf("%.1f MB", float64(bytes)/1e6)
	case bytes >= 1_000:
		return fmt.Sprintf("%.0f KB", float64(bytes)/1e3)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
