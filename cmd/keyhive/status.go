package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// statusLine renders the session state: passed keys on the first row,
// the mode, recording slot and pending keys on the last.
type statusLine struct {
	mu        sync.Mutex
	screen    tcell.Screen
	pending   string
	recording rune
	err       string
}

func newStatusLine(screen tcell.Screen) *statusLine {
	return &statusLine{screen: screen}
}

func (s *statusLine) setPending(keys string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = keys
}

func (s *statusLine) setRecording(slot rune, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		s.recording = slot
	} else {
		s.recording = 0
	}
}

func (s *statusLine) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err.Error()
}

// draw repaints the screen. It clears the last error.
func (s *statusLine) draw(modeName, passed string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.screen.Clear()
	w, h := s.screen.Size()
	if w == 0 || h == 0 {
		return
	}

	plain := tcell.StyleDefault
	bar := plain.Reverse(true)

	putString(s.screen, 0, 0, w, "passed: "+passed, plain)
	if s.err != "" && h > 2 {
		putString(s.screen, 0, h-2, w, s.err, plain.Foreground(tcell.ColorRed))
		s.err = ""
	}

	left := fmt.Sprintf("-- %s --", strings.ToUpper(modeName))
	if s.recording != 0 {
		left += fmt.Sprintf("  recording @%c", s.recording)
	}
	line := left
	if pad := w - len([]rune(left)) - len([]rune(s.pending)); pad > 0 {
		line += strings.Repeat(" ", pad) + s.pending
	}
	for x := range w {
		s.screen.SetContent(x, h-1, ' ', nil, bar)
	}
	putString(s.screen, 0, h-1, w, line, bar)
	s.screen.Show()
}

func putString(screen tcell.Screen, x, y, width int, text string, style tcell.Style) {
	for _, r := range text {
		if x >= width {
			return
		}
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}
