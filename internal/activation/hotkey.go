// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     activation
// Description: System-wide hotkey source built on golang.design/x/hotkey
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package activation

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.design/x/hotkey"
)

// HotkeySource delivers key-state samples from a registered system-wide
// hotkey. Registration requires input-monitoring privileges on some
// platforms; when it fails the caller falls back to a ManualSource.
type HotkeySource struct {
	mods []hotkey.Modifier
	key  hotkey.Key

	hk   *hotkey.Hotkey
	ch   chan Sample
	done chan struct{}

	mu      sync.Mutex
	stopped bool
}

// NewHotkeySource parses a shortcut like "ctrl+shift+m" or "f13" and
// prepares a source for it
func NewHotkeySource(shortcut string) (*HotkeySource, error) {
	mods, key, err := parseShortcut(shortcut)
	if err != nil {
		return nil, err
	}
	return &HotkeySource{
		mods: mods,
		key:  key,
		ch:   make(chan Sample, 16),
		done: make(chan struct{}),
	}, nil
}

// Start registers the hotkey and begins delivering samples.
// Registration on macOS crashes inside the Objective-C runtime under
// some CGO configurations, so it is refused there and the menu bar or
// TUI activation is used instead.
func (s *HotkeySource) Start() error {
	if runtime.GOOS == "darwin" {
		return fmt.Errorf("system-wide hotkey not supported on macOS, use tray or TUI activation")
	}

	s.hk = hotkey.New(s.mods, s.key)
	if err := s.hk.Register(); err != nil {
		return fmt.Errorf("failed to register hotkey: %w", err)
	}

	go func() {
		for {
			select {
			case <-s.done:
				return
			case <-s.hk.Keydown():
				s.deliver(true)
			case <-s.hk.Keyup():
				s.deliver(false)
			}
		}
	}()
	return nil
}

// Samples returns the sample channel
func (s *HotkeySource) Samples() <-chan Sample { return s.ch }

// Stop unregisters the hotkey and closes the sample channel
func (s *HotkeySource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.done)
	if s.hk != nil {
		s.hk.Unregister()
	}
	close(s.ch)
}

func (s *HotkeySource) deliver(pressed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	select {
	case s.ch <- Sample{Pressed: pressed, At: time.Now()}:
	default:
	}
}

// parseShortcut splits "ctrl+shift+m" into modifiers and the final key
func parseShortcut(shortcut string) ([]hotkey.Modifier, hotkey.Key, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(shortcut)), "+")
	if len(parts) == 0 || parts[0] == "" {
		return nil, 0, fmt.Errorf("empty shortcut")
	}

	var mods []hotkey.Modifier
	for _, p := range parts[:len(parts)-1] {
		switch strings.TrimSpace(p) {
		case "ctrl", "control":
			mods = append(mods, hotkey.ModCtrl)
		case "shift":
			mods = append(mods, hotkey.ModShift)
		case "alt", "option":
			// The library names this modifier differently per platform,
			// modAlt comes from the matching hotkey_mods_*.go file
			mods = append(mods, modAlt)
		default:
			return nil, 0, fmt.Errorf("unknown modifier %q in shortcut %q", p, shortcut)
		}
	}

	key, ok := keyByName[strings.TrimSpace(parts[len(parts)-1])]
	if !ok {
		return nil, 0, fmt.Errorf("unknown key %q in shortcut %q", parts[len(parts)-1], shortcut)
	}
	return mods, key, nil
}

var keyByName = map[string]hotkey.Key{
	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD,
	"e": hotkey.KeyE, "f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH,
	"i": hotkey.KeyI, "j": hotkey.KeyJ, "k": hotkey.KeyK, "l": hotkey.KeyL,
	"m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO, "p": hotkey.KeyP,
	"q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX,
	"y": hotkey.KeyY, "z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,
	"space":  hotkey.KeySpace,
	"return": hotkey.KeyReturn, "enter": hotkey.KeyReturn,
	"escape": hotkey.KeyEscape, "esc": hotkey.KeyEscape,
	"tab": hotkey.KeyTab,
	"f1":  hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3,
	"f4": hotkey.KeyF4, "f5": hotkey.KeyF5, "f6": hotkey.KeyF6,
	"f7": hotkey.KeyF7, "f8": hotkey.KeyF8, "f9": hotkey.KeyF9,
	"f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,
	"f13": hotkey.KeyF13, "f14": hotkey.KeyF14, "f15": hotkey.KeyF15,
	"f16": hotkey.KeyF16, "f17": hotkey.KeyF17, "f18": hotkey.KeyF18,
	"f19": hotkey.KeyF19, "f20": hotkey.KeyF20,
}
