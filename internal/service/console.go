package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/scuti-ai/seocanvas/internal/domain"
)

// AnonymousOwnerID is used when no identity is available. The widget
// variant of the console runs unauthenticated; turns still go through.
const AnonymousOwnerID = "anonymous"

// Console ties one chat surface together: its session store, its canvas
// state and the turn round-trip against the gateway. One console exists per
// chat; a second turn is rejected while one is outstanding.
type Console struct {
	mu     sync.Mutex
	gw     Gateway
	store  *SessionStore
	canvas CanvasState

	ownerID  string
	role     string
	panel    string
	inFlight bool
}

// NewConsole creates a console for one owner. panel distinguishes the full
// console from the floating-widget variant in the outgoing context.
func NewConsole(gw Gateway, store *SessionStore, ownerID, role, panel string) *Console {
	if ownerID == "" {
		ownerID = AnonymousOwnerID
	}
	return &Console{
		gw:      gw,
		store:   store,
		ownerID: ownerID,
		role:    role,
		panel:   panel,
	}
}

func (c *Console) Store() *SessionStore { return c.store }

func (c *Console) Canvas() CanvasState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canvas
}

// CloseCanvas hides the panel. Draft-flow context ends; the active blog
// reference survives.
func (c *Console) CloseCanvas() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.canvas = c.canvas.Close()
}

// SendTurn runs one chat round-trip: optimistic user-message append, the
// gateway call, then assistant append plus canvas transition on success, or
// an exact rollback of the optimistic message on failure.
func (c *Console) SendTurn(ctx context.Context, text string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyMessage
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return nil, domain.ErrTurnInFlight
	}
	c.inFlight = true

	if IsTopicChange(text) {
		c.canvas = c.canvas.ClearActiveBlog()
	}
	params := c.buildContext()
	c.mu.Unlock()

	sess := c.store.Active()
	if sess == nil {
		sess = c.store.NewEphemeral(c.ownerID)
	}

	userMsg := domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	}
	// The append must be visible before the gateway call goes out.
	if err := c.store.AppendMessage(sess.ID, userMsg); err != nil {
		c.finish()
		return nil, err
	}

	sessionID := ""
	if !sess.IsEphemeral() {
		sessionID = sess.ID
	}

	start := time.Now()
	raw, err := c.gw.Coordinate(ctx, text, sessionID, params)
	if err != nil {
		// Exact rollback by message identity, never truncation: a
		// concurrent append could have landed behind ours.
		c.store.RemoveMessage(sess.ID, userMsg.ID)
		c.finish()
		return nil, fmt.Errorf("send turn: %w", err)
	}

	turn := Normalize(raw, sess.ID)

	assistant := domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Content:   turn.ResponseText,
		Timestamp: time.Now(),
		AgentName: turn.AgentName,
		Meta: domain.MessageMeta{
			AgentsInvolved: turn.AgentsInvolved,
			ResponseTimeMs: time.Since(start).Milliseconds(),
			Action:         turn.Action,
			Success:        turn.Success,
		},
	}
	if err := c.store.AppendMessage(sess.ID, assistant); err != nil {
		slog.Error("append assistant message", "error", err, "session", sess.ID)
	}

	// Promote ephemeral to persisted once the gateway assigned a real id.
	if sess.IsEphemeral() && turn.SessionID != "" && turn.SessionID != sess.ID {
		c.store.Promote(sess.ID, turn.SessionID)
	}

	c.mu.Lock()
	c.canvas = ApplyTurn(c.canvas, turn)
	c.inFlight = false
	c.mu.Unlock()

	return &assistant, nil
}

func (c *Console) finish() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

// buildContext assembles the outgoing request context: caller flags always,
// sticky fields only when set. Caller must hold c.mu.
func (c *Console) buildContext() map[string]any {
	params := map[string]any{
		"userId": c.ownerID,
		"role":   c.role,
		"panel":  c.panel,
	}
	if blog := c.canvas.Sticky.ActiveBlog; blog != nil {
		params["activeBlogId"] = blog.ID
		if blog.Title != "" {
			params["activeBlogTitle"] = blog.Title
		}
		if blog.Slug != "" {
			params["activeBlogSlug"] = blog.Slug
		}
	}
	if c.canvas.Sticky.DraftSessionID != "" {
		params["draftSessionId"] = c.canvas.Sticky.DraftSessionID
	}
	if c.canvas.Sticky.ConversationMode != "" {
		params["conversationMode"] = c.canvas.Sticky.ConversationMode
	}
	return params
}
