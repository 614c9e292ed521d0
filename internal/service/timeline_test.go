package service

import (
	"testing"

	"github.com/scuti-ai/seocanvas/internal/domain"
)

func TestDeriveMessagesBothSides(t *testing.T) {
	raw := []any{
		map[string]any{
			"timestamp":      "2026-01-10T10:00:00Z",
			"conversational": map[string]any{"message": "hola"},
			"agent":          "blog-agent",
			"durationMs":     420.0,
			"result":         map[string]any{"agentResponse": "aquí tienes"},
		},
	}

	msgs := DeriveMessages(raw)
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	if msgs[0].Role != domain.RoleUser || msgs[0].Content != "hola" {
		t.Errorf("user message = %+v", msgs[0])
	}
	if msgs[1].Role != domain.RoleAssistant || msgs[1].Content != "aquí tienes" {
		t.Errorf("assistant message = %+v", msgs[1])
	}
	if msgs[1].AgentName != "blog-agent" || msgs[1].Meta.ResponseTimeMs != 420 {
		t.Errorf("assistant metadata = %+v", msgs[1].Meta)
	}
	if msgs[0].ID == "" || msgs[0].ID == msgs[1].ID {
		t.Error("message ids must be unique and non-empty")
	}
}

func TestDeriveMessagesPartialInteractions(t *testing.T) {
	raw := []any{
		// user side only
		map[string]any{"command": "crear blog"},
		// assistant side only, double-nested message
		map[string]any{"result": map[string]any{"result": map[string]any{"message": "listo"}}},
		// neither side recognizable
		map[string]any{"meta": map[string]any{"x": 1.0}},
		// not even an object
		"garbage",
		nil,
	}

	msgs := DeriveMessages(raw)
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(msgs), msgs)
	}
	if msgs[0].Role != domain.RoleUser || msgs[0].Content != "crear blog" {
		t.Errorf("msgs[0] = %+v", msgs[0])
	}
	if msgs[1].Role != domain.RoleAssistant || msgs[1].Content != "listo" {
		t.Errorf("msgs[1] = %+v", msgs[1])
	}
}

func TestDeriveMessagesUserProbeOrder(t *testing.T) {
	cases := []struct {
		name string
		in   map[string]any
		want string
	}{
		{"conversational message first", map[string]any{
			"conversational": map[string]any{"message": "a", "command": "b"},
			"command":        "c",
		}, "a"},
		{"conversational command", map[string]any{
			"conversational": map[string]any{"command": "b"},
			"command":        "c",
		}, "b"},
		{"task command", map[string]any{
			"task":    map[string]any{"command": "t"},
			"message": "m",
		}, "t"},
		{"bare message last", map[string]any{"message": "m"}, "m"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msgs := DeriveMessages([]any{tc.in})
			if len(msgs) != 1 || msgs[0].Content != tc.want {
				t.Errorf("got %+v, want one user message %q", msgs, tc.want)
			}
		})
	}
}

func TestDeriveMessagesPreservesOrder(t *testing.T) {
	raw := []any{
		map[string]any{"command": "uno", "result": map[string]any{"message": "r1"}},
		map[string]any{"command": "dos", "result": map[string]any{"response": "r2"}},
		map[string]any{"command": "tres"},
	}

	msgs := DeriveMessages(raw)
	contents := make([]string, len(msgs))
	for i, m := range msgs {
		contents[i] = m.Content
	}
	want := []string{"uno", "r1", "dos", "r2", "tres"}
	if len(contents) != len(want) {
		t.Fatalf("contents = %v, want %v", contents, want)
	}
	for i := range want {
		if contents[i] != want[i] {
			t.Fatalf("contents = %v, want %v", contents, want)
		}
	}
}

func TestSessionFromRawTitlePreference(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]any
		want string
	}{
		{"goal wins", map[string]any{"goal": "Lanzar el blog", "projectName": "ACME"}, "Lanzar el blog"},
		{"project fallback", map[string]any{"projectName": "ACME"}, "ACME"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sess := sessionFromRaw(tc.raw, "owner-1")
			if sess.Title != tc.want {
				t.Errorf("Title = %q, want %q", sess.Title, tc.want)
			}
		})
	}

	sess := sessionFromRaw(map[string]any{"createdAt": "2026-02-03T09:30:00Z"}, "owner-1")
	if sess.Title != "Chat Feb 3 09:30" {
		t.Errorf("synthesized title = %q", sess.Title)
	}
	if sess.OwnerID != "owner-1" {
		t.Errorf("OwnerID = %q", sess.OwnerID)
	}
}

func TestSessionFromRawStatus(t *testing.T) {
	sess := sessionFromRaw(map[string]any{"sessionId": "s1", "status": "completed"}, "")
	if sess.IsActive {
		t.Error("completed session should be inactive")
	}
	sess = sessionFromRaw(map[string]any{"sessionId": "s2"}, "")
	if !sess.IsActive {
		t.Error("session without status should default to active")
	}
}
