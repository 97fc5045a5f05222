// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     activation
// Description: Windows modifier constant for the Alt key
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

//go:build windows

package activation

import "golang.design/x/hotkey"

const modAlt = hotkey.ModAlt
