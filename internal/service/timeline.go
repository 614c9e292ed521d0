package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/scuti-ai/seocanvas/internal/domain"
)

// DeriveMessages unpacks a session's raw interaction log into display
// messages. Each interaction bundles one user input and one agent result;
// the two sides are probed independently, so an interaction may yield a
// user message, an assistant message, both, or neither.
func DeriveMessages(rawInteractions []any) []domain.Message {
	messages := make([]domain.Message, 0, len(rawInteractions)*2)

	for _, item := range rawInteractions {
		interaction := asMap(item)
		if interaction == nil {
			continue
		}

		ts := timeAt(interaction, "timestamp", "createdAt", "created_at")

		if text := userTextOf(interaction); text != "" {
			messages = append(messages, domain.Message{
				ID:        uuid.NewString(),
				Role:      domain.RoleUser,
				Content:   text,
				Timestamp: ts,
			})
		}

		if text := assistantTextOf(interaction); text != "" {
			msg := domain.Message{
				ID:        uuid.NewString(),
				Role:      domain.RoleAssistant,
				Content:   text,
				Timestamp: ts,
				AgentName: firstString(interaction, "agent", "agentName"),
			}
			if ms, ok := firstNumber(interaction, "durationMs", "duration", "responseTimeMs"); ok {
				msg.Meta.ResponseTimeMs = int64(ms)
			}
			msg.Meta.Success = boolAt(interaction, "success")
			messages = append(messages, msg)
		}
	}

	return messages
}

// userTextOf probes the user side of an interaction: conversational message,
// conversational command, nested task command, bare command, bare message.
func userTextOf(interaction map[string]any) string {
	if conv := childMap(interaction, "conversational"); conv != nil {
		if s := firstString(conv, "message", "command"); s != "" {
			return s
		}
	}
	if task := childMap(interaction, "task"); task != nil {
		if s := firstString(task, "command"); s != "" {
			return s
		}
	}
	return firstString(interaction, "command", "message")
}

// assistantTextOf probes the result side through its own candidate fields:
// direct agent response, direct message, double-nested message, response,
// data-wrapped message.
func assistantTextOf(interaction map[string]any) string {
	result := childMap(interaction, "result")
	if result == nil {
		return ""
	}
	if s := firstString(result, "agentResponse", "message"); s != "" {
		return s
	}
	if inner := childMap(result, "result"); inner != nil {
		if s := firstString(inner, "message"); s != "" {
			return s
		}
	}
	if s := firstString(result, "response"); s != "" {
		return s
	}
	if data := childMap(result, "data"); data != nil {
		if s := firstString(data, "message"); s != "" {
			return s
		}
	}
	return ""
}

// sessionFromRaw transforms a raw gateway session into the Session shape.
// Title preference: explicit goal label, then project label, then a
// synthesized "Chat <date>" fallback.
func sessionFromRaw(raw map[string]any, ownerID string) domain.Session {
	createdAt := timeAt(raw, "createdAt", "created_at")
	updatedAt := timeAt(raw, "updatedAt", "updated_at")
	lastActivity := timeAt(raw, "lastActivity", "last_activity")
	if lastActivity.IsZero() {
		lastActivity = updatedAt
	}

	title := firstString(raw, "goal", "projectName", "project")
	if title == "" {
		date := createdAt
		if date.IsZero() {
			date = time.Now()
		}
		title = "Chat " + date.Format("Jan 2 15:04")
	}

	active := true
	if status := firstString(raw, "status"); status == "completed" || status == "archived" {
		active = false
	}
	if v, ok := raw["isActive"].(bool); ok {
		active = v
	}

	owner := firstString(raw, "ownerId", "owner_id", "userId")
	if owner == "" {
		owner = ownerID
	}

	return domain.Session{
		ID:           firstString(raw, "sessionId", "session_id", "id", "_id"),
		OwnerID:      owner,
		Title:        title,
		Messages:     DeriveMessages(asSlice(raw["interactions"])),
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
		LastActivity: lastActivity,
		IsActive:     active,
		Pinned:       boolAt(raw, "pinned"),
	}
}
