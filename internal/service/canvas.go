package service

import (
	"strings"
	"time"

	"github.com/scuti-ai/seocanvas/internal/domain"
)

// CanvasState is the secondary content panel plus the conversation's sticky
// context. Transitions are pure: ApplyTurn and Close return new states, the
// console decides when to commit them.
type CanvasState struct {
	Visible bool
	Content *domain.CanvasContent
	Sticky  domain.StickyContext
}

// topicChangePhrases clear the active blog before the next request context
// is built. The backend answers in Spanish, so the Spanish variants come
// first.
var topicChangePhrases = []string{
	"cambiar blog",
	"otro blog",
	"cambiar tema",
	"nuevo tema",
	"change topic",
	"different blog",
}

// IsTopicChange reports whether the user's message asks to move on from the
// blog currently being discussed.
func IsTopicChange(text string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))
	for _, phrase := range topicChangePhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

// ApplyTurn drives the canvas transition for one normalized turn.
//
// No payload means no transition: the panel's visibility and content are
// left untouched. A payload always replaces the content wholesale and makes
// the panel visible, and may update the sticky context depending on kind.
func ApplyTurn(state CanvasState, turn NormalizedTurn) CanvasState {
	payload := turn.Canvas
	if payload == nil {
		return state
	}

	kind := firstString(payload, "type", "kind")
	data := payload["data"]
	if kind == "" {
		if _, ok := itemsOf(data); ok {
			kind = domain.CanvasKindList
		} else {
			kind = domain.CanvasKindPreview
		}
	}

	content := &domain.CanvasContent{
		Kind:  kind,
		Title: firstString(payload, "title"),
		Data:  data,
		Meta: domain.CanvasMeta{
			AgentName:        turn.AgentName,
			ProducedAt:       time.Now(),
			Action:           turn.Action,
			RelatedBlogID:    blogIDOf(payload),
			RelatedServiceID: firstString(payload, "serviceId", "relatedServiceId"),
			RelatedSessionID: turn.SessionID,
		},
	}
	if items, ok := itemsOf(data); ok {
		content.Meta.ItemCount = len(items)
	}

	state.Visible = true
	state.Content = content

	switch kind {
	case domain.CanvasKindBlogCreation:
		state.Sticky.DraftSessionID = firstString(payload, "draftSessionId", "sessionId")
		mode := firstString(payload, "conversationMode", "mode")
		if mode == "" {
			mode = domain.CanvasKindBlogCreation
		}
		state.Sticky.ConversationMode = mode

	case domain.CanvasKindBlogPreview:
		blog := childMap(payload, "blog")
		if blog == nil {
			blog = asMap(data)
		}
		state.Sticky.ActiveBlog = mergeBlogRef(state.Sticky.ActiveBlog,
			firstString(blog, "id", "_id", "blogId"),
			firstString(blog, "title", "name"),
			firstString(blog, "slug"),
		)

	case domain.CanvasKindSEOAnalysis:
		// The analysis names the blog without resending the full record;
		// title and slug fall back to what the conversation already knows.
		if id := blogIDOf(payload); id != "" {
			blog := childMap(payload, "blog")
			title := firstString(payload, "blogTitle")
			if title == "" {
				title = firstString(blog, "title")
			}
			slug := firstString(payload, "blogSlug")
			if slug == "" {
				slug = firstString(blog, "slug")
			}
			state.Sticky.ActiveBlog = mergeBlogRef(state.Sticky.ActiveBlog, id, title, slug)
		}
	}

	return state
}

// Close hides the panel and ends any guided flow. ActiveBlog survives:
// canvas visibility is per-turn UI state, blog stickiness is
// conversation-level.
func (s CanvasState) Close() CanvasState {
	s.Visible = false
	s.Content = nil
	s.Sticky.DraftSessionID = ""
	s.Sticky.ConversationMode = ""
	return s
}

// ClearActiveBlog drops the sticky blog reference, keeping everything else.
func (s CanvasState) ClearActiveBlog() CanvasState {
	s.Sticky.ActiveBlog = nil
	return s
}

func blogIDOf(payload map[string]any) string {
	if id := firstString(payload, "blogId", "relatedBlogId"); id != "" {
		return id
	}
	if data := asMap(payload["data"]); data != nil {
		return firstString(data, "blogId", "relatedBlogId")
	}
	return ""
}

// mergeBlogRef overwrites the active blog from payload fields, falling back
// to already-known values for anything the payload omits.
func mergeBlogRef(prev *domain.BlogRef, id, title, slug string) *domain.BlogRef {
	ref := domain.BlogRef{ID: id, Title: title, Slug: slug}
	if prev != nil {
		if ref.ID == "" {
			ref.ID = prev.ID
		}
		if ref.Title == "" {
			ref.Title = prev.Title
		}
		if ref.Slug == "" {
			ref.Slug = prev.Slug
		}
	}
	if ref.ID == "" && ref.Title == "" && ref.Slug == "" {
		return prev
	}
	return &ref
}
