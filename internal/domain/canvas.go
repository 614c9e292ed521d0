package domain

import "time"

// Canvas content kinds. BlogCreation marks the guided creation flow,
// BlogPreview a single blog entity, SEOAnalysis an analysis result.
// List and Preview are the defaults when the payload declares no kind.
const (
	CanvasKindPreview      = "preview"
	CanvasKindList         = "list"
	CanvasKindBlogPreview  = "blog_preview"
	CanvasKindBlogCreation = "blog_creation"
	CanvasKindSEOAnalysis  = "seo_analysis"
)

// CanvasContent is the current payload of the secondary content panel.
// It is replaced wholesale on every turn that carries a canvas payload.
type CanvasContent struct {
	Kind  string
	Title string
	Data  any
	Meta  CanvasMeta
}

type CanvasMeta struct {
	AgentName        string
	ProducedAt       time.Time
	Action           string
	ItemCount        int
	RelatedBlogID    string
	RelatedServiceID string
	RelatedSessionID string
}

// BlogRef identifies the blog currently under discussion.
type BlogRef struct {
	ID    string
	Title string
	Slug  string
}

// StickyContext is conversation-level state that survives across turns.
// It is not part of any single session: ActiveBlog lives for the whole
// conversation, the draft fields only for a guided blog-creation flow.
type StickyContext struct {
	ActiveBlog       *BlogRef
	DraftSessionID   string
	ConversationMode string
}
