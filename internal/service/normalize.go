package service

import "strings"

// The coordinator occasionally answers for an agent with this generic
// placeholder instead of the agent's own message. It is skipped when a
// better message exists anywhere in the multi-agent result list.
const placeholderMessage = "task coordinated successfully"

// defaultResponseText is returned when no recognizable message field is
// present anywhere in the payload.
const defaultResponseText = "task completed"

// NormalizedTurn is the flat, stable shape the rest of the console works
// with. The gateway's payload varies depending on which internal agent
// handled the request; all of that variability is absorbed here.
type NormalizedTurn struct {
	ResponseText   string
	AgentName      string
	AgentsInvolved []string
	Canvas         map[string]any
	SessionID      string
	Action         string
	Success        bool
}

// Normalize reduces a raw gateway payload to a NormalizedTurn. It never
// panics on missing fields: ResponseText always holds a string (possibly
// the fixed fallback) and AgentsInvolved is always non-nil.
func Normalize(raw any, fallbackSessionID string) NormalizedTurn {
	turn := NormalizedTurn{
		ResponseText:   defaultResponseText,
		AgentsInvolved: []string{},
		SessionID:      fallbackSessionID,
	}

	m := asMap(raw)
	if m == nil {
		return turn
	}

	turn.Action = firstString(m, "action")
	turn.Success = boolAt(m, "success")

	if sid := sessionIDOf(m); sid != "" {
		turn.SessionID = sid
	}

	if results := asSlice(m["results"]); len(results) > 0 {
		normalizeMultiAgent(&turn, m, results)
	} else {
		turn.AgentName = firstString(m, "agent", "agentName")
		if text := probeMessage(m); text != "" {
			turn.ResponseText = text
		}
		if turn.AgentName != "" {
			turn.AgentsInvolved = append(turn.AgentsInvolved, turn.AgentName)
		}
	}

	turn.Canvas = canvasPayloadOf(m)
	return turn
}

// normalizeMultiAgent handles the coordinated shape: one result entry per
// agent plus an optional top-level summary. Every agent name is collected;
// the response text is the first inner message that is not the generic
// placeholder, then the summary, then the fixed default.
func normalizeMultiAgent(turn *NormalizedTurn, m map[string]any, results []any) {
	for _, item := range results {
		entry := asMap(item)
		if entry == nil {
			continue
		}

		name := firstString(entry, "agent", "agentName", "name")
		if name != "" {
			turn.AgentsInvolved = append(turn.AgentsInvolved, name)
		}

		if turn.ResponseText != defaultResponseText {
			continue
		}

		text := probeMessage(childMap(entry, "result"))
		if text == "" {
			text = probeMessage(entry)
		}
		if text != "" && !isPlaceholder(text) {
			turn.ResponseText = text
			turn.AgentName = name
		}
	}

	if turn.ResponseText == defaultResponseText {
		if summary := firstString(m, "summary", "message"); summary != "" {
			turn.ResponseText = summary
		}
	}
}

// probeMessage scans the ordered list of candidate message fields on a
// single-result object, including the result/data wrapper variants.
func probeMessage(m map[string]any) string {
	if m == nil {
		return ""
	}
	if s := firstString(m, "message", "response", "content", "text"); s != "" {
		return s
	}
	for _, wrapper := range []string{"result", "data"} {
		if inner := childMap(m, wrapper); inner != nil {
			if s := firstString(inner, "message", "response", "content", "text"); s != "" {
				return s
			}
		}
	}
	return ""
}

// canvasPayloadOf reads the side-channel canvas payload. Two field-name
// conventions are in use on the backend; absence is not an error.
func canvasPayloadOf(m map[string]any) map[string]any {
	if c := childMap(m, "canvasData", "canvas_data"); c != nil {
		return c
	}
	for _, wrapper := range []string{"result", "data"} {
		if inner := childMap(m, wrapper); inner != nil {
			if c := childMap(inner, "canvasData", "canvas_data"); c != nil {
				return c
			}
		}
	}
	return nil
}

func sessionIDOf(m map[string]any) string {
	if sid := firstString(m, "sessionId", "session_id"); sid != "" {
		return sid
	}
	for _, wrapper := range []string{"result", "data"} {
		if inner := childMap(m, wrapper); inner != nil {
			if sid := firstString(inner, "sessionId", "session_id"); sid != "" {
				return sid
			}
		}
	}
	return ""
}

func isPlaceholder(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), placeholderMessage)
}
