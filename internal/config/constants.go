package config

import "time"

const (
	// Gateway request timeout for chat turns
	RequestTimeout = 90 * time.Second

	// Freshness window for idempotent reads (session list, system status)
	FreshnessTTL = 30 * time.Second

	// Fallback wait window when a 429 carries no Retry-After hint
	RetryAfterFallback = 30 * time.Second

	// Page snapshot fetch timeout
	SnapshotTimeout = 30 * time.Second

	// Session list defaults
	DefaultSessionLimit = 20
	SessionsPerPage     = 5

	// Telegram limits
	MaxTelegramMessageLen = 4096

	// Rate limits (messages per minute per chat)
	RateLimitPerMinute = 6
)

// Roles recognized by the gateway.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)
