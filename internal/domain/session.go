package domain

import (
	"strings"
	"time"
)

// EphemeralIDPrefix marks sessions created locally that the gateway has not
// acknowledged yet. The first successful turn replaces the id with the real one.
const EphemeralIDPrefix = "local-"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Session struct {
	ID           string
	OwnerID      string
	Title        string
	Messages     []Message
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastActivity time.Time
	IsActive     bool
	Pinned       bool
}

// IsEphemeral reports whether the session only exists client-side.
func (s *Session) IsEphemeral() bool {
	return strings.HasPrefix(s.ID, EphemeralIDPrefix)
}

type Message struct {
	ID        string
	Role      string
	Content   string
	Timestamp time.Time
	AgentName string
	Meta      MessageMeta
}

type MessageMeta struct {
	AgentsInvolved []string
	ResponseTimeMs int64
	Action         string
	Success        bool
}
