package ui

import (
	"fmt"
	"io"
)

// StatusLine redraws a single terminal line in place.
type StatusLine struct {
	out     io.Writer
	shown   bool
	enabled bool
}

func NewStatusLine(out io.Writer, enabled bool) *StatusLine {
	return &StatusLine{out: out, enabled: enabled}
}

// Update replaces the current line with message. When the line cannot be
// redrawn each message goes on its own line.
func (s *StatusLine) Update(message string) {
	if !s.enabled {
		fmt.Fprintln(s.out, message)
		return
	}
	fmt.Fprint(s.out, "\r\033[K"+message)
	s.shown = true
}

// Done moves past the status line.
func (s *StatusLine) Done() {
	if s.enabled && s.shown {
		fmt.Fprintln(s.out)
	}
	s.shown = false
}
