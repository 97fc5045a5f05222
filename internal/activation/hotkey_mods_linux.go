// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     activation
// Description: X11 modifier constant for the Alt key
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

//go:build linux

package activation

import "golang.design/x/hotkey"

// X11 calls the Alt modifier Mod1
const modAlt = hotkey.Mod1
