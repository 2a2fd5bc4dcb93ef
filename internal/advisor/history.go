package advisor

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	historyWindow = 10
	summaryWindow = 5
	previewMaxLen = 100
)

type message struct {
	Role      string
	Content   string
	Timestamp time.Time
}

// history holds the conversation between operator and advisor. Only the
// last historyWindow messages are replayed to the model.
type history struct {
	mu       sync.Mutex
	messages []message
}

func (h *history) append(role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages, message{Role: role, Content: content, Timestamp: time.Now()})
}

// window returns a copy of the most recent messages for the API payload.
func (h *history) window() []message {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := 0
	if len(h.messages) > historyWindow {
		start = len(h.messages) - historyWindow
	}

	out := make([]message, len(h.messages)-start)
	copy(out, h.messages[start:])

	return out
}

// dropLast removes the most recent message. Used to unwind a user turn
// that never received a reply, keeping the replayed roles alternating.
func (h *history) dropLast() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.messages) > 0 {
		h.messages = h.messages[:len(h.messages)-1]
	}
}

func (h *history) clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = nil
}

func (h *history) summary() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.messages) == 0 {
		return "No conversation yet."
	}

	lines := []string{fmt.Sprintf("Total messages: %d", len(h.messages))}

	start := 0
	if len(h.messages) > summaryWindow {
		start = len(h.messages) - summaryWindow
	}

	for _, msg := range h.messages[start:] {
		preview := msg.Content
		if len(preview) > previewMaxLen {
			preview = preview[:previewMaxLen] + "..."
		}
		lines = append(lines, fmt.Sprintf("[%s] %s", msg.Role, preview))
	}

	return strings.Join(lines, "\n")
}
