// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     screen
// Description: Screen capture and OCR for rewrite context
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package screen

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/msto63/cicero/pkg/core/logging"
)

// DefaultMaxLength caps the amount of OCR text fed into the rewrite
// prompt.
const DefaultMaxLength = 2000

// Capturer grabs the main screen and extracts visible text. Every
// failure mode, from a missing tool to denied permission, degrades to an
// empty result so a recording never fails because of the screen.
type Capturer struct {
	maxLength int
	languages string
	logger    *logging.Logger

	// hooks, replaced in tests
	captureScreen func(ctx context.Context, path string) error
	recognize     func(ctx context.Context, imagePath string) (string, error)
}

// NewCapturer creates a capturer for the given prompt languages.
// Languages are tesseract codes joined with "+", e.g. "chi_sim+eng".
func NewCapturer(languages string) *Capturer {
	if languages == "" {
		languages = "chi_sim+chi_tra+eng"
	}
	c := &Capturer{
		maxLength: DefaultMaxLength,
		languages: languages,
		logger:    logging.New("screen"),
	}
	c.captureScreen = c.platformCapture
	c.recognize = c.tesseract
	return c
}

// Available reports whether both a screenshot tool and an OCR engine are
// installed.
func (c *Capturer) Available() bool {
	if _, err := exec.LookPath("tesseract"); err != nil {
		return false
	}
	switch runtime.GOOS {
	case "darwin":
		_, err := exec.LookPath("screencapture")
		return err == nil
	case "linux":
		for _, tool := range []string{"grim", "scrot", "import"} {
			if _, err := exec.LookPath(tool); err == nil {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// CaptureAndRecognize takes a screenshot of the main display, runs OCR
// and returns the extracted text truncated to the configured length. Any
// failure returns "".
func (c *Capturer) CaptureAndRecognize(ctx context.Context) string {
	imagePath := filepath.Join(os.TempDir(), fmt.Sprintf("cicero_screen_%d.png", time.Now().UnixNano()))
	defer os.Remove(imagePath)

	if err := c.captureScreen(ctx, imagePath); err != nil {
		c.logger.Info("Bildschirmaufnahme fehlgeschlagen", "error", err)
		return ""
	}

	text, err := c.recognize(ctx, imagePath)
	if err != nil {
		c.logger.Info("Texterkennung fehlgeschlagen", "error", err)
		return ""
	}

	text = strings.TrimSpace(text)
	c.logger.Info("Bildschirmtext erkannt", "chars", len(text))
	return truncate(text, c.maxLength)
}

// truncate cuts at maxLength runes, never mid-rune.
func truncate(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	return string(runes[:maxLength])
}

func (c *Capturer) platformCapture(ctx context.Context, path string) error {
	switch runtime.GOOS {
	case "darwin":
		// -x: no shutter sound, main display only
		return runCapture(ctx, "screencapture", "-x", "-m", path)
	case "linux":
		if _, err := exec.LookPath("grim"); err == nil {
			return runCapture(ctx, "grim", path)
		}
		if _, err := exec.LookPath("scrot"); err == nil {
			return runCapture(ctx, "scrot", "--overwrite", path)
		}
		if _, err := exec.LookPath("import"); err == nil {
			return runCapture(ctx, "import", "-window", "root", path)
		}
		return fmt.Errorf("kein Screenshot-Werkzeug gefunden")
	default:
		return fmt.Errorf("Bildschirmaufnahme auf %s nicht unterstützt", runtime.GOOS)
	}
}

func (c *Capturer) tesseract(ctx context.Context, imagePath string) (string, error) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		return "", fmt.Errorf("tesseract nicht gefunden")
	}
	// "stdout" makes tesseract print the recognized text instead of
	// writing a file
	out, err := exec.CommandContext(ctx, "tesseract", imagePath, "stdout",
		"-l", c.languages, "--psm", "3").Output()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil
}

func runCapture(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w (%s)", name, err, string(out))
	}
	return nil
}
