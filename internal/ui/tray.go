// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     ui
// Description: System tray with session status using fyne.io/systray
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"fyne.io/systray"

	"github.com/msto63/cicero/internal/session"
)

// IconState selects the tray icon color
type IconState string

const (
	IconStateIdle       IconState = "idle"       // White - ready
	IconStateRecording  IconState = "recording"  // Red - microphone open
	IconStateProcessing IconState = "processing" // Blue - transcribing or rewriting
	IconStateError      IconState = "error"      // Orange - last session failed
	IconStateOffline    IconState = "offline"    // Gray - model not ready
)

// TrayCallbacks holds the tray menu actions
type TrayCallbacks struct {
	OnToggle func() // start or stop a dictation
	OnCancel func()
	OnQuit   func()
}

// Tray is the system tray application
type Tray struct {
	onToggle func()
	onCancel func()
	onQuit   func()

	menuStatus   *systray.MenuItem
	menuModel    *systray.MenuItem
	menuActivate *systray.MenuItem
	menuCancel   *systray.MenuItem
	menuQuit     *systray.MenuItem

	currentStatus string
	currentModel  string
	shortcut      string
	currentIcon   IconState
}

// NewTray creates the tray application
func NewTray(callbacks TrayCallbacks, model, shortcut string) *Tray {
	return &Tray{
		onToggle:      callbacks.OnToggle,
		onCancel:      callbacks.OnCancel,
		onQuit:        callbacks.OnQuit,
		currentStatus: "Bereit",
		currentModel:  model,
		shortcut:      shortcut,
		currentIcon:   IconStateOffline,
	}
}

// Run starts the tray loop. Blocking; must run on the main thread on
// macOS.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(textIconBytes(t.currentIcon))
	systray.SetTitle("")
	systray.SetTooltip("Cicero Sprachdiktat")

	t.menuStatus = systray.AddMenuItem("Status: "+t.currentStatus, "Aktueller Status")
	t.menuStatus.Disable()

	t.menuModel = systray.AddMenuItem("Modell: "+t.currentModel, "Aktuelles Sprachmodell")
	t.menuModel.Disable()

	systray.AddSeparator()

	t.menuActivate = systray.AddMenuItem("Diktat starten/stoppen ("+t.shortcut+")", "Aufnahme umschalten")
	t.menuCancel = systray.AddMenuItem("Abbrechen", "Laufende Sitzung verwerfen")

	systray.AddSeparator()

	t.menuQuit = systray.AddMenuItem("Beenden", "Anwendung beenden")

	go t.handleClicks()
}

func (t *Tray) handleClicks() {
	for {
		select {
		case <-t.menuActivate.ClickedCh:
			if t.onToggle != nil {
				t.onToggle()
			}
		case <-t.menuCancel.ClickedCh:
			if t.onCancel != nil {
				t.onCancel()
			}
		case <-t.menuQuit.ClickedCh:
			if t.onQuit != nil {
				t.onQuit()
			}
			systray.Quit()
			return
		}
	}
}

func (t *Tray) onExit() {}

// Apply mirrors a session state change into the tray
func (t *Tray) Apply(st session.State) {
	t.SetStatus(st.Message)
	switch st.Phase {
	case session.PhaseRecording:
		t.SetIconState(IconStateRecording)
	case session.PhaseTranscribing, session.PhaseProcessing, session.PhaseInserting, session.PhaseDownloading:
		t.SetIconState(IconStateProcessing)
	case session.PhaseError:
		t.SetIconState(IconStateError)
	default:
		t.SetIconState(IconStateIdle)
	}
}

// SetStatus updates the status line
func (t *Tray) SetStatus(status string) {
	t.currentStatus = status
	if t.menuStatus != nil {
		t.menuStatus.SetTitle("Status: " + status)
	}
}

// SetModel updates the model line
func (t *Tray) SetModel(model string) {
	t.currentModel = model
	if t.menuModel != nil {
		t.menuModel.SetTitle("Modell: " + model)
	}
}

// SetIconState recolors the tray icon
func (t *Tray) SetIconState(state IconState) {
	if state == t.currentIcon {
		return
	}
	t.currentIcon = state
	systray.SetIcon(textIconBytes(state))
}

// Quit stops the tray loop
func (t *Tray) Quit() {
	systray.Quit()
}

// textIconBytes renders a "Ci" glyph PNG in the state color
func textIconBytes(state IconState) []byte {
	width := 32
	height := 22
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	var c color.RGBA
	switch state {
	case IconStateIdle:
		c = color.RGBA{255, 255, 255, 255}
	case IconStateRecording:
		c = color.RGBA{255, 59, 48, 255}
	case IconStateProcessing:
		c = color.RGBA{0, 122, 255, 255}
	case IconStateError:
		c = color.RGBA{255, 149, 0, 255}
	default:
		c = color.RGBA{128, 128, 128, 255}
	}

	drawText(img, "Ci", 2, 4, c)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return minimalPNG()
	}
	return buf.Bytes()
}

// Bitmap font, 5x7 pixels per character
var bitmapFont = map[rune][]byte{
	'C': {
		0b01110,
		0b10001,
		0b10000,
		0b10000,
		0b10000,
		0b10001,
		0b01110,
	},
	'i': {
		0b00100,
		0b00000,
		0b01100,
		0b00100,
		0b00100,
		0b00100,
		0b01110,
	},
}

func drawText(img *image.RGBA, text string, startX, startY int, c color.RGBA) {
	x := startX
	charWidth := 6
	charHeight := 7
	scale := 2

	for _, ch := range text {
		if pattern, ok := bitmapFont[ch]; ok {
			for row := 0; row < charHeight; row++ {
				for col := 0; col < 5; col++ {
					if pattern[row]&(1<<(4-col)) != 0 {
						for sy := 0; sy < scale; sy++ {
							for sx := 0; sx < scale; sx++ {
								px := x + col*scale + sx
								py := startY + row*scale + sy
								if px >= 0 && px < img.Bounds().Max.X && py >= 0 && py < img.Bounds().Max.Y {
									img.SetRGBA(px, py, c)
								}
							}
						}
					}
				}
			}
		}
		x += charWidth * scale
	}
}

func minimalPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}
