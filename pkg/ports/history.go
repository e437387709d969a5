package ports

import "strings"

// TurnRecord is one entry of the host's conversation history. A record may
// carry a tool result; ToolName is set when it does.
type TurnRecord struct {
	Role       string `json:"role"` // "user", "assistant", "tool"
	Content    string `json:"content,omitempty"`
	ToolName   string `json:"tool_name,omitempty"`
	ToolResult string `json:"tool_result,omitempty"`
}

// TurnHistory exposes the host's ordered turn records, oldest first.
// Recording turns is the host's concern; the engine only scans backward.
type TurnHistory interface {
	Turns() []TurnRecord
}

// Transcript is a trivial in-memory TurnHistory.
type Transcript []TurnRecord

// Turns implements TurnHistory.
func (t Transcript) Turns() []TurnRecord { return t }

// LastToolOutput scans the history backward for the most recent tool result.
// Absence is a valid "no output yet" signal, reported via ok=false.
func LastToolOutput(h TurnHistory) (output string, ok bool) {
	if h == nil {
		return "", false
	}
	turns := h.Turns()
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].ToolName != "" {
			return turns[i].ToolResult, true
		}
	}
	return "", false
}

// LastUserMessage scans the history backward for the most recent user turn,
// returning it trimmed and lower-cased as the matcher expects.
func LastUserMessage(h TurnHistory) (message string, ok bool) {
	if h == nil {
		return "", false
	}
	turns := h.Turns()
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == "user" {
			return strings.ToLower(strings.TrimSpace(turns[i].Content)), true
		}
	}
	return "", false
}
