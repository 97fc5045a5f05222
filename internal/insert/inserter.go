// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     insert
// Description: Inserts finished text at the cursor of the active application
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package insert

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/atotto/clipboard"

	"github.com/msto63/cicero/pkg/core/logging"
)

// Result reports how an insertion went. Insertion works through the
// clipboard and a synthesized paste keystroke, so hard failure is rarely
// observable. ProbablyFailed means the keystroke was issued but there is
// reason to doubt it reached the target.
type Result struct {
	ProbablyFailed bool
	Reason         string
}

// Success is the happy-path result.
func Success() Result { return Result{} }

// Failed builds a probably-failed result with a user-facing reason.
func Failed(reason string) Result {
	return Result{ProbablyFailed: true, Reason: reason}
}

const (
	// settleDelay gives the clipboard daemon time to pick up our write
	// before the paste keystroke fires
	settleDelay = 50 * time.Millisecond

	// pasteDelay gives the target application time to consume the
	// clipboard before we restore the previous contents
	pasteDelay = 300 * time.Millisecond

	// activatePollInterval and activatePollCount bound how long we wait
	// for a target application to come to the foreground
	activatePollInterval = 50 * time.Millisecond
	activatePollCount    = 30
)

// Inserter pastes text at the cursor via clipboard and a synthesized
// keystroke. The previous clipboard contents are restored afterwards,
// unless another program changed the clipboard in the meantime.
type Inserter struct {
	logger *logging.Logger

	// hooks, replaced in tests
	readClipboard  func() (string, error)
	writeClipboard func(string) error
	sendPaste      func(ctx context.Context) error
	activate       func(ctx context.Context, app string) error
	sleep          func(d time.Duration)
}

// New creates an inserter using the platform paste mechanism.
func New() *Inserter {
	ins := &Inserter{
		logger:         logging.New("insert"),
		readClipboard:  clipboard.ReadAll,
		writeClipboard: clipboard.WriteAll,
		sleep:          time.Sleep,
	}
	ins.sendPaste = ins.platformPaste
	ins.activate = ins.platformActivate
	return ins
}

// Insert places text at the cursor of the frontmost application. When
// targetApp is non-empty the application is activated first and polled
// until it holds focus. The returned Result is probably-failed when the
// paste keystroke could not be issued or the target never activated.
func (ins *Inserter) Insert(ctx context.Context, text, targetApp string) Result {
	activated := true
	if targetApp != "" {
		if err := ins.activate(ctx, targetApp); err != nil {
			ins.logger.Warn("Zielanwendung nicht aktivierbar", "app", targetApp, "error", err)
			activated = false
		}
	}

	pasted, err := ins.insertViaClipboard(ctx, text)
	if err != nil {
		ins.logger.Error("Einfügen fehlgeschlagen", "error", err)
		return Failed("Einfügen fehlgeschlagen: " + err.Error())
	}

	if !activated {
		return Failed("Zielanwendung konnte nicht aktiviert werden")
	}
	if !pasted {
		return Failed("Einfügebefehl hat das Ziel möglicherweise nicht erreicht")
	}
	return Success()
}

// insertViaClipboard swaps the clipboard, sends the paste keystroke and
// restores the previous contents. Restoration only happens when the
// clipboard still holds our text, so a concurrent copy by the user wins.
func (ins *Inserter) insertViaClipboard(ctx context.Context, text string) (bool, error) {
	previous, prevErr := ins.readClipboard()

	if err := ins.writeClipboard(text); err != nil {
		return false, fmt.Errorf("clipboard write: %w", err)
	}
	ins.sleep(settleDelay)

	pasteOK := true
	if err := ins.sendPaste(ctx); err != nil {
		ins.logger.Warn("Paste-Tastendruck fehlgeschlagen", "error", err)
		pasteOK = false
	}

	ins.sleep(pasteDelay)

	current, err := ins.readClipboard()
	if err == nil && current == text && prevErr == nil {
		if restoreErr := ins.writeClipboard(previous); restoreErr != nil {
			ins.logger.Warn("Zwischenablage nicht wiederhergestellt", "error", restoreErr)
		}
	}

	if !pasteOK {
		return false, nil
	}
	return true, nil
}

// CopyToClipboard places text on the clipboard without pasting, as a
// manual fallback after a probably-failed insertion.
func (ins *Inserter) CopyToClipboard(text string) error {
	return ins.writeClipboard(text)
}

// platformPaste synthesizes the paste keystroke for the current OS.
func (ins *Inserter) platformPaste(ctx context.Context) error {
	switch runtime.GOOS {
	case "darwin":
		script := `tell application "System Events" to keystroke "v" using command down`
		return runCommand(ctx, "osascript", "-e", script)
	case "linux":
		if _, err := exec.LookPath("xdotool"); err == nil {
			return runCommand(ctx, "xdotool", "key", "--clearmodifiers", "ctrl+v")
		}
		if _, err := exec.LookPath("ydotool"); err == nil {
			return runCommand(ctx, "ydotool", "key", "29:1", "47:1", "47:0", "29:0")
		}
		return fmt.Errorf("weder xdotool noch ydotool gefunden")
	default:
		return fmt.Errorf("Einfügen auf %s nicht unterstützt", runtime.GOOS)
	}
}

// platformActivate brings the named application to the foreground and
// polls until it reports focus.
func (ins *Inserter) platformActivate(ctx context.Context, app string) error {
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`tell application %q to activate`, app)
		if err := runCommand(ctx, "osascript", "-e", script); err != nil {
			return err
		}
		check := `tell application "System Events" to get name of first process whose frontmost is true`
		for i := 0; i < activatePollCount; i++ {
			ins.sleep(activatePollInterval)
			out, err := exec.CommandContext(ctx, "osascript", "-e", check).Output()
			if err == nil && string(trimNewline(out)) == app {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		return fmt.Errorf("%s kam nicht in den Vordergrund", app)
	case "linux":
		if _, err := exec.LookPath("xdotool"); err != nil {
			return fmt.Errorf("xdotool nicht gefunden")
		}
		if err := runCommand(ctx, "xdotool", "search", "--name", app, "windowactivate"); err != nil {
			return err
		}
		ins.sleep(activatePollInterval)
		return nil
	default:
		return fmt.Errorf("Aktivierung auf %s nicht unterstützt", runtime.GOOS)
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w (%s)", name, err, string(out))
	}
	return nil
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
