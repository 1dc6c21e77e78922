// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package models defines the domain types, status constants, result-log
// structures, and HTTP request/response types shared across the service.
package models
