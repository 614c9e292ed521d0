package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/scuti-ai/seocanvas/internal/config"
	"github.com/scuti-ai/seocanvas/internal/domain"
)

// SEOService runs the analysis task family. Unlike chat turns, these calls
// are cancel-on-new-request: starting an analysis aborts any in-flight one
// of the same kind, so a slow prior response cannot overwrite a newer one.
type SEOService struct {
	tasks      TaskExecutor
	httpClient *http.Client

	mu       sync.Mutex
	inFlight map[string]*taskSlot
}

type taskSlot struct {
	cancel context.CancelFunc
}

func NewSEOService(tasks TaskExecutor) *SEOService {
	return &SEOService{
		tasks:      tasks,
		httpClient: &http.Client{Timeout: config.SnapshotTimeout},
		inFlight:   make(map[string]*taskSlot),
	}
}

// PageSnapshot is the on-page data scraped before an analysis request, so
// the analysis agent does not have to fetch the page itself.
type PageSnapshot struct {
	URL             string
	Title           string
	MetaDescription string
	H1              []string
	WordCount       int
	InternalLinks   int
	ExternalLinks   int
	Images          int
	MissingAlt      int
}

// AnalyzePage runs an SEO analysis for a page. The role check happens
// before any network call; viewers get a permission error without touching
// the gateway.
func (s *SEOService) AnalyzePage(ctx context.Context, role, pageURL string) (map[string]any, error) {
	if role != config.RoleAdmin && role != config.RoleEditor {
		return nil, fmt.Errorf("%w: analysis requires editor role", domain.ErrPermission)
	}

	ctx, done := s.begin(ctx, "seo_analysis")
	defer done()

	req := TaskRequest{
		Type: "seo_analysis",
		URL:  pageURL,
	}

	// Best effort: the analysis still runs when the page cannot be fetched.
	if snap, err := s.FetchSnapshot(ctx, pageURL); err == nil {
		req.Title = snap.Title
		req.Params = map[string]any{
			"metaDescription": snap.MetaDescription,
			"h1":              snap.H1,
			"wordCount":       snap.WordCount,
			"internalLinks":   snap.InternalLinks,
			"externalLinks":   snap.ExternalLinks,
			"images":          snap.Images,
			"missingAlt":      snap.MissingAlt,
		}
	}

	result, err := s.tasks.ExecuteTask(ctx, req)
	if err != nil {
		if ctx.Err() == context.Canceled {
			return nil, fmt.Errorf("analysis superseded by a newer request")
		}
		return nil, fmt.Errorf("execute analysis: %w", err)
	}
	return result, nil
}

// AnalyzeContent scores draft content that has no public URL yet.
func (s *SEOService) AnalyzeContent(ctx context.Context, role, title, content string) (map[string]any, error) {
	if role != config.RoleAdmin && role != config.RoleEditor {
		return nil, fmt.Errorf("%w: analysis requires editor role", domain.ErrPermission)
	}

	ctx, done := s.begin(ctx, "content_analysis")
	defer done()

	result, err := s.tasks.ExecuteTask(ctx, TaskRequest{
		Type:    "content_analysis",
		Title:   title,
		Content: content,
	})
	if err != nil {
		if ctx.Err() == context.Canceled {
			return nil, fmt.Errorf("analysis superseded by a newer request")
		}
		return nil, fmt.Errorf("execute analysis: %w", err)
	}
	return result, nil
}

// FetchSnapshot downloads and parses the page for the on-page signals the
// analysis request carries along.
func (s *SEOService) FetchSnapshot(ctx context.Context, pageURL string) (*PageSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("page returned %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	snap := &PageSnapshot{URL: pageURL}
	snap.Title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find(`meta[name="description"]`).Each(func(_ int, sel *goquery.Selection) {
		if content, ok := sel.Attr("content"); ok {
			snap.MetaDescription = strings.TrimSpace(content)
		}
	})

	doc.Find("h1").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			snap.H1 = append(snap.H1, text)
		}
	})

	snap.WordCount = len(strings.Fields(doc.Find("body").Text()))

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if strings.HasPrefix(href, "http") && !strings.Contains(href, hostOf(pageURL)) {
			snap.ExternalLinks++
		} else {
			snap.InternalLinks++
		}
	})

	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		snap.Images++
		if alt, ok := sel.Attr("alt"); !ok || strings.TrimSpace(alt) == "" {
			snap.MissingAlt++
		}
	})

	return snap, nil
}

// begin cancels any in-flight task of the same kind, registers this call's
// slot and returns a cleanup that only releases the slot if it still owns it
// (a newer request may already have taken over).
func (s *SEOService) begin(ctx context.Context, kind string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	slot := &taskSlot{cancel: cancel}

	s.mu.Lock()
	if prior := s.inFlight[kind]; prior != nil {
		prior.cancel()
	}
	s.inFlight[kind] = slot
	s.mu.Unlock()

	return ctx, func() {
		s.mu.Lock()
		if s.inFlight[kind] == slot {
			delete(s.inFlight, kind)
		}
		s.mu.Unlock()
		cancel()
	}
}

func hostOf(pageURL string) string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(pageURL, "https://"), "http://")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return trimmed[:i]
	}
	return trimmed
}
