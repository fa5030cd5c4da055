package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour

	// SessionTimeout is the default session timeout (24 hours)
	SessionTimeout = 24 * time.Hour
)

// Task generation constants
const (
	// TaskOrderBound is the exclusive upper bound for the random display
	// order assigned to generated tasks
	TaskOrderBound = 1_000_000

	// TaskInsertChunkSize caps rows per insert statement to stay under the
	// SQLite per-statement parameter limit
	TaskInsertChunkSize = 50
)
