// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     activation
// Description: macOS modifier constant for the Alt key
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

//go:build darwin

package activation

import "golang.design/x/hotkey"

// macOS calls the Alt key Option
const modAlt = hotkey.ModOption
