// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package directory stores people, teams, and memberships. It backs the
// election package's TeamService and Identities interfaces.
package directory
