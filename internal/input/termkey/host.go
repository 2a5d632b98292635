package termkey

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keyhive/internal/input/key"
)

// ScreenHost delivers passed keys and bells to a tcell screen.
type ScreenHost struct {
	mu     sync.Mutex
	screen tcell.Screen
	passed []key.Event
	limit  int
	onPass func(key.Event)
}

// NewScreenHost returns a host that remembers the last limit passed keys.
func NewScreenHost(screen tcell.Screen, limit int) *ScreenHost {
	if limit <= 0 {
		limit = 32
	}
	return &ScreenHost{screen: screen, limit: limit}
}

// OnPass sets a callback invoked for each passed key.
func (h *ScreenHost) OnPass(fn func(key.Event)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onPass = fn
}

// PassKey records a key dispatch handed back to the application.
func (h *ScreenHost) PassKey(ev key.Event) {
	h.mu.Lock()
	h.passed = append(h.passed, ev)
	if len(h.passed) > h.limit {
		h.passed = h.passed[len(h.passed)-h.limit:]
	}
	fn := h.onPass
	h.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// Passed returns the retained passed keys in notation.
func (h *ScreenHost) Passed() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return key.Stringify(h.passed)
}

// Beep rings the terminal bell.
func (h *ScreenHost) Beep() {
	_ = h.screen.Beep() // best-effort; terminal may not support beep
}
