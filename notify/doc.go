// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package notify implements the election Notifier hook as a structured-log
// recorder.
package notify
