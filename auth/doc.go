// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package auth provides HMAC admin keys for election management and random
// secret slugs for candidate respond links and ballot voting links.
package auth
