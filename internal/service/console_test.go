package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/scuti-ai/seocanvas/internal/domain"
)

func newTestConsole(gw *fakeGateway) *Console {
	store := newTestStore(gw, newFakeClock())
	return NewConsole(gw, store, "owner-1", "editor", "console")
}

func TestSendTurnEmptyMessage(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestConsole(gw)

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := c.SendTurn(context.Background(), text); !errors.Is(err, domain.ErrEmptyMessage) {
			t.Errorf("SendTurn(%q) err = %v, want ErrEmptyMessage", text, err)
		}
	}
	if _, _, _, _, coord := gw.calls(); coord != 0 {
		t.Error("empty input must never reach the gateway")
	}
}

func TestSendTurnHappyPath(t *testing.T) {
	gw := &fakeGateway{
		coordinateFn: func(command, sessionID string, params map[string]any) (any, error) {
			return map[string]any{
				"sessionId": "real-9",
				"agent":     "blog-agent",
				"message":   "aquí están tus blogs",
				"success":   true,
			}, nil
		},
	}
	c := newTestConsole(gw)

	msg, err := c.SendTurn(context.Background(), "  muéstrame los blogs  ")
	if err != nil {
		t.Fatal(err)
	}
	if msg.Role != domain.RoleAssistant || msg.Content != "aquí están tus blogs" {
		t.Errorf("assistant = %+v", msg)
	}
	if msg.AgentName != "blog-agent" || !msg.Meta.Success {
		t.Errorf("assistant meta = %+v", msg.Meta)
	}

	active := c.Store().Active()
	if active == nil {
		t.Fatal("no active session after a turn")
	}
	if len(active.Messages) != 2 {
		t.Fatalf("messages = %d, want user+assistant", len(active.Messages))
	}
	if active.Messages[0].Content != "muéstrame los blogs" {
		t.Errorf("user message = %q, want trimmed input", active.Messages[0].Content)
	}
}

func TestSendTurnPromotesEphemeralSession(t *testing.T) {
	var sentSessionID string
	gw := &fakeGateway{
		coordinateFn: func(command, sessionID string, params map[string]any) (any, error) {
			sentSessionID = sessionID
			return map[string]any{"sessionId": "real-9", "message": "hola"}, nil
		},
	}
	c := newTestConsole(gw)

	if _, err := c.SendTurn(context.Background(), "hola"); err != nil {
		t.Fatal(err)
	}
	if sentSessionID != "" {
		t.Errorf("ephemeral session id %q leaked to the gateway, want empty", sentSessionID)
	}

	active := c.Store().Active()
	if active.ID != "real-9" {
		t.Errorf("active id = %q, want the gateway-assigned id", active.ID)
	}
	if active.IsEphemeral() {
		t.Error("session must no longer be ephemeral after promotion")
	}
	if len(active.Messages) != 2 {
		t.Errorf("promotion must keep the timeline: %d messages", len(active.Messages))
	}

	// second turn reuses the promoted id
	if _, err := c.SendTurn(context.Background(), "sigue"); err != nil {
		t.Fatal(err)
	}
	if sentSessionID != "real-9" {
		t.Errorf("second turn sent session id %q, want real-9", sentSessionID)
	}
}

func TestSendTurnRollbackByIdentity(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestConsole(gw)
	store := c.Store()

	sess := store.NewEphemeral("owner-1")
	for _, id := range []string{"a", "b"} {
		if err := store.AppendMessage(sess.ID, domain.Message{ID: id, Content: id}); err != nil {
			t.Fatal(err)
		}
	}

	gw.coordinateFn = func(command, sessionID string, params map[string]any) (any, error) {
		// a message lands behind the optimistic one while the call is out
		interim := domain.Message{ID: "interim", Role: domain.RoleAssistant, Content: "interim"}
		if err := store.AppendMessage(store.Active().ID, interim); err != nil {
			t.Error(err)
		}
		return nil, errors.New("gateway down")
	}

	_, err := c.SendTurn(context.Background(), "se va a caer")
	if err == nil {
		t.Fatal("want error from the failed turn")
	}

	var ids []string
	for _, m := range store.Active().Messages {
		ids = append(ids, m.ID)
	}
	want := []string{"a", "b", "interim"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v: rollback must remove exactly the optimistic message", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

func TestSendTurnRejectsWhileInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var enteredOnce sync.Once
	gw := &fakeGateway{
		coordinateFn: func(command, sessionID string, params map[string]any) (any, error) {
			enteredOnce.Do(func() { close(entered) })
			<-release
			return map[string]any{"message": "tardó"}, nil
		},
	}
	c := newTestConsole(gw)

	done := make(chan error, 1)
	go func() {
		_, err := c.SendTurn(context.Background(), "primera")
		done <- err
	}()

	<-entered
	if _, err := c.SendTurn(context.Background(), "segunda"); !errors.Is(err, domain.ErrTurnInFlight) {
		t.Errorf("err = %v, want ErrTurnInFlight", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	// and the guard resets once the first turn lands
	if _, err := c.SendTurn(context.Background(), "tercera"); err != nil {
		t.Errorf("turn after completion failed: %v", err)
	}
}

func TestSendTurnGuardResetsAfterFailure(t *testing.T) {
	gw := &fakeGateway{
		coordinateFn: func(string, string, map[string]any) (any, error) {
			return nil, errors.New("boom")
		},
	}
	c := newTestConsole(gw)

	if _, err := c.SendTurn(context.Background(), "hola"); err == nil {
		t.Fatal("want error")
	}

	gw.mu.Lock()
	gw.coordinateFn = nil
	gw.mu.Unlock()
	if _, err := c.SendTurn(context.Background(), "hola otra vez"); err != nil {
		t.Errorf("turn after a failed one must go through: %v", err)
	}
}

func TestSendTurnContextCarriesStickyFields(t *testing.T) {
	var lastParams map[string]any
	gw := &fakeGateway{
		coordinateFn: func(command, sessionID string, params map[string]any) (any, error) {
			lastParams = params
			return map[string]any{
				"message": "vista previa",
				"canvasData": map[string]any{
					"type": domain.CanvasKindBlogPreview,
					"blog": map[string]any{"id": "42", "title": "T", "slug": "t"},
				},
			}, nil
		},
	}
	c := newTestConsole(gw)

	if _, err := c.SendTurn(context.Background(), "muestra el blog 42"); err != nil {
		t.Fatal(err)
	}
	if lastParams["userId"] != "owner-1" || lastParams["role"] != "editor" || lastParams["panel"] != "console" {
		t.Errorf("caller flags missing: %v", lastParams)
	}
	if _, ok := lastParams["activeBlogId"]; ok {
		t.Error("first turn has no sticky blog yet")
	}

	// the next turn carries the blog picked up from the canvas payload
	if _, err := c.SendTurn(context.Background(), "analiza su seo"); err != nil {
		t.Fatal(err)
	}
	if lastParams["activeBlogId"] != "42" || lastParams["activeBlogTitle"] != "T" {
		t.Errorf("sticky blog not in context: %v", lastParams)
	}

	// a topic change clears the blog before the request context is built
	if _, err := c.SendTurn(context.Background(), "quiero cambiar blog"); err != nil {
		t.Fatal(err)
	}
	if _, ok := lastParams["activeBlogId"]; ok {
		t.Errorf("topic change must clear the blog from the outgoing context: %v", lastParams)
	}
}

func TestSendTurnCanvasTransitionCommitted(t *testing.T) {
	gw := &fakeGateway{
		coordinateFn: func(string, string, map[string]any) (any, error) {
			return map[string]any{
				"message": "3 resultados",
				"canvasData": map[string]any{
					"type": domain.CanvasKindList,
					"data": map[string]any{"items": []any{1.0, 2.0, 3.0}},
				},
			}, nil
		},
	}
	c := newTestConsole(gw)

	if _, err := c.SendTurn(context.Background(), "lista los blogs"); err != nil {
		t.Fatal(err)
	}
	canvas := c.Canvas()
	if !canvas.Visible || canvas.Content == nil || canvas.Content.Kind != domain.CanvasKindList {
		t.Errorf("canvas = %+v", canvas)
	}

	c.CloseCanvas()
	if c.Canvas().Visible {
		t.Error("CloseCanvas must hide the panel")
	}
}

func TestAnonymousOwnerFallback(t *testing.T) {
	gw := &fakeGateway{}
	store := newTestStore(gw, newFakeClock())
	c := NewConsole(gw, store, "", "viewer", "widget")

	var lastParams map[string]any
	gw.coordinateFn = func(command, sessionID string, params map[string]any) (any, error) {
		lastParams = params
		return map[string]any{"message": "hola"}, nil
	}

	if _, err := c.SendTurn(context.Background(), "hola"); err != nil {
		t.Fatal(err)
	}
	if lastParams["userId"] != AnonymousOwnerID {
		t.Errorf("userId = %v, want anonymous fallback", lastParams["userId"])
	}
	if store.Active().OwnerID != AnonymousOwnerID {
		t.Errorf("session owner = %q", store.Active().OwnerID)
	}
}

func TestSendTurnResponseTimeRecorded(t *testing.T) {
	gw := &fakeGateway{
		coordinateFn: func(string, string, map[string]any) (any, error) {
			time.Sleep(5 * time.Millisecond)
			return map[string]any{"message": "ok"}, nil
		},
	}
	c := newTestConsole(gw)

	msg, err := c.SendTurn(context.Background(), "hola")
	if err != nil {
		t.Fatal(err)
	}
	if msg.Meta.ResponseTimeMs < 5 {
		t.Errorf("ResponseTimeMs = %d, want at least the gateway latency", msg.Meta.ResponseTimeMs)
	}
}
