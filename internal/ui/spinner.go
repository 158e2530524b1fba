package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a one-line "waiting" indicator while the assistant
// thinks.
type Spinner struct {
	out      io.Writer
	frames   []string
	interval time.Duration
	colored  bool
	style    lipgloss.Style
	msgStyle lipgloss.Style

	mu      sync.Mutex
	message string
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// NewSpinner creates a spinner that draws on out in f's palette.
func NewSpinner(out io.Writer, f *Formatter) *Spinner {
	p := f.Palette()
	return &Spinner{
		out:      out,
		frames:   spinnerFrames,
		interval: 80 * time.Millisecond,
		colored:  f.Colored(),
		style:    lipgloss.NewStyle().Foreground(p.Primary),
		msgStyle: lipgloss.NewStyle().Foreground(p.Muted).Italic(true),
	}
}

// Start begins the animation. Calling Start on a running spinner only
// changes its message.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.message = message
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})

	go s.animate(s.stopCh, s.done)
}

// Stop ends the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()

	<-done
	fmt.Fprint(s.out, "\r\033[K")
}

func (s *Spinner) animate(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	frame := 0
	for {
		s.mu.Lock()
		msg := s.message
		s.mu.Unlock()
		s.render(frame, msg)
		frame = (frame + 1) % len(s.frames)

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

func (s *Spinner) render(frame int, message string) {
	spinChar := s.frames[frame]
	if s.colored {
		fmt.Fprintf(s.out, "\r\033[K%s %s", s.style.Render(spinChar), s.msgStyle.Render(message))
		return
	}
	fmt.Fprintf(s.out, "\r\033[K%s %s", spinChar, message)
}
