package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/scuti-ai/seocanvas/internal/domain"
)

type fakeExecutor struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, req TaskRequest) (map[string]any, error)
}

func (e *fakeExecutor) ExecuteTask(ctx context.Context, req TaskRequest) (map[string]any, error) {
	e.mu.Lock()
	e.calls++
	n := e.calls
	fn := e.fn
	e.mu.Unlock()
	if fn == nil {
		return map[string]any{"score": float64(n)}, nil
	}
	return fn(ctx, req)
}

func (e *fakeExecutor) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func TestAnalysisRequiresEditorRole(t *testing.T) {
	exec := &fakeExecutor{}
	s := NewSEOService(exec)

	_, err := s.AnalyzePage(context.Background(), "viewer", "http://example.com")
	if !errors.Is(err, domain.ErrPermission) {
		t.Fatalf("err = %v, want ErrPermission", err)
	}
	_, err = s.AnalyzeContent(context.Background(), "viewer", "t", "c")
	if !errors.Is(err, domain.ErrPermission) {
		t.Fatalf("err = %v, want ErrPermission", err)
	}
	if exec.callCount() != 0 {
		t.Error("the role check must happen before any network call")
	}
}

func TestAnalyzeContentForEditorAndAdmin(t *testing.T) {
	exec := &fakeExecutor{}
	s := NewSEOService(exec)

	for _, role := range []string{"editor", "admin"} {
		if _, err := s.AnalyzeContent(context.Background(), role, "t", "c"); err != nil {
			t.Errorf("role %s: %v", role, err)
		}
	}
	if exec.callCount() != 2 {
		t.Errorf("calls = %d", exec.callCount())
	}
}

func TestNewerAnalysisSupersedesOlder(t *testing.T) {
	firstEntered := make(chan struct{})
	exec := &fakeExecutor{}
	exec.fn = func(ctx context.Context, req TaskRequest) (map[string]any, error) {
		exec.mu.Lock()
		first := exec.calls == 1
		exec.mu.Unlock()
		if first {
			close(firstEntered)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return map[string]any{"score": 90.0}, nil
	}
	s := NewSEOService(exec)

	firstDone := make(chan error, 1)
	go func() {
		_, err := s.AnalyzeContent(context.Background(), "editor", "viejo", "c")
		firstDone <- err
	}()

	<-firstEntered
	result, err := s.AnalyzeContent(context.Background(), "editor", "nuevo", "c")
	if err != nil {
		t.Fatal(err)
	}
	if result["score"] != 90.0 {
		t.Errorf("result = %v, want the newer analysis", result)
	}

	err = <-firstDone
	if err == nil || !strings.Contains(err.Error(), "superseded") {
		t.Errorf("first call err = %v, want superseded", err)
	}
}

func TestBeginSlotOwnership(t *testing.T) {
	s := NewSEOService(&fakeExecutor{})

	ctx1, done1 := s.begin(context.Background(), "k")
	ctx2, done2 := s.begin(context.Background(), "k")

	if ctx1.Err() == nil {
		t.Error("starting a second task must cancel the first")
	}
	if ctx2.Err() != nil {
		t.Error("the new task's context must be live")
	}

	// the superseded call's cleanup must not disturb the newer slot
	done1()
	if ctx2.Err() != nil {
		t.Error("stale cleanup canceled the newer task")
	}
	done2()

	// kinds do not interfere
	ctxA, doneA := s.begin(context.Background(), "a")
	ctxB, doneB := s.begin(context.Background(), "b")
	if ctxA.Err() != nil || ctxB.Err() != nil {
		t.Error("different kinds must not cancel each other")
	}
	doneA()
	doneB()
}

func TestFetchSnapshot(t *testing.T) {
	var pageHTML string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(pageHTML))
	}))
	defer ts.Close()

	pageHTML = fmt.Sprintf(`<html>
<head><title> Mi Página </title><meta name="description" content="descripción corta"></head>
<body>
<h1>Encabezado</h1>
<p>uno dos tres</p>
<a href="/interno">a</a>
<a href="%s/otro">b</a>
<a href="http://externo.example.net/x">c</a>
<img src="x.png" alt="ok">
<img src="y.png">
<img src="z.png" alt="  ">
</body></html>`, ts.URL)

	s := NewSEOService(&fakeExecutor{})
	snap, err := s.FetchSnapshot(context.Background(), ts.URL+"/pagina")
	if err != nil {
		t.Fatal(err)
	}

	if snap.Title != "Mi Página" {
		t.Errorf("Title = %q", snap.Title)
	}
	if snap.MetaDescription != "descripción corta" {
		t.Errorf("MetaDescription = %q", snap.MetaDescription)
	}
	if len(snap.H1) != 1 || snap.H1[0] != "Encabezado" {
		t.Errorf("H1 = %v", snap.H1)
	}
	if snap.InternalLinks != 2 || snap.ExternalLinks != 1 {
		t.Errorf("links internal=%d external=%d, want 2/1", snap.InternalLinks, snap.ExternalLinks)
	}
	if snap.Images != 3 || snap.MissingAlt != 2 {
		t.Errorf("images=%d missingAlt=%d, want 3/2", snap.Images, snap.MissingAlt)
	}
	if snap.WordCount == 0 {
		t.Error("WordCount = 0")
	}
}

func TestFetchSnapshotBadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	s := NewSEOService(&fakeExecutor{})
	if _, err := s.FetchSnapshot(context.Background(), ts.URL); err == nil {
		t.Error("want error on non-2xx page")
	}
}

func TestAnalyzePageCarriesSnapshot(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Landing</title></head><body><h1>Hola</h1></body></html>`))
	}))
	defer ts.Close()

	var gotReq TaskRequest
	exec := &fakeExecutor{fn: func(_ context.Context, req TaskRequest) (map[string]any, error) {
		gotReq = req
		return map[string]any{"score": 75.0}, nil
	}}
	s := NewSEOService(exec)

	result, err := s.AnalyzePage(context.Background(), "editor", ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	if result["score"] != 75.0 {
		t.Errorf("result = %v", result)
	}
	if gotReq.Type != "seo_analysis" || gotReq.URL != ts.URL {
		t.Errorf("req = %+v", gotReq)
	}
	if gotReq.Title != "Landing" {
		t.Errorf("Title = %q, want the scraped page title", gotReq.Title)
	}
	if gotReq.Params["wordCount"] == nil {
		t.Errorf("Params = %v, want on-page signals", gotReq.Params)
	}
}

func TestAnalyzePageRunsWithoutSnapshot(t *testing.T) {
	exec := &fakeExecutor{}
	s := NewSEOService(exec)

	// unreachable page: the analysis still goes out, just without signals
	if _, err := s.AnalyzePage(context.Background(), "editor", "http://127.0.0.1:1/nope"); err != nil {
		t.Fatal(err)
	}
	if exec.callCount() != 1 {
		t.Error("analysis must run even when the page fetch fails")
	}
}

func TestHostOf(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://example.com/a/b", "example.com"},
		{"http://example.com", "example.com"},
		{"example.com/x", "example.com"},
	}
	for _, tc := range cases {
		if got := hostOf(tc.in); got != tc.want {
			t.Errorf("hostOf(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
