package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ErrCancelled is returned when the user aborts a selection.
var ErrCancelled = errors.New("cancelled")

// SelectorOption is a single option in the selector.
type SelectorOption struct {
	Label       string
	Description string
}

// Selector is an arrow-key menu for picking one option, such as a dosing
// frequency or a language. Without a terminal it falls back to a numbered
// list.
type Selector struct {
	question string
	options  []SelectorOption
	selected int
	colored  bool

	In  io.Reader
	Out io.Writer

	cursorStyle   lipgloss.Style
	selectedStyle lipgloss.Style
	optionStyle   lipgloss.Style
	questionStyle lipgloss.Style
	hintStyle     lipgloss.Style
}

func NewSelector(question string, options []SelectorOption, f *Formatter) *Selector {
	p := f.Palette()
	return &Selector{
		question: question,
		options:  options,
		colored:  f.Colored(),
		In:       os.Stdin,
		Out:      os.Stdout,

		cursorStyle:   lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
		selectedStyle: lipgloss.NewStyle().Foreground(p.Success).Bold(true),
		optionStyle:   lipgloss.NewStyle().Foreground(p.Text),
		questionStyle: lipgloss.NewStyle().Foreground(p.Primary).Bold(true),
		hintStyle:     lipgloss.NewStyle().Foreground(p.Muted).Italic(true),
	}
}

// Preselect moves the cursor to the option with label, if present.
func (s *Selector) Preselect(label string) {
	for i, opt := range s.options {
		if opt.Label == label {
			s.selected = i
			return
		}
	}
}

// Run displays the menu and returns the index of the chosen option.
func (s *Selector) Run() (int, error) {
	if len(s.options) == 0 {
		return 0, errors.New("no options to select from")
	}

	f, ok := s.In.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return s.runSimple()
	}
	fd := int(f.Fd())

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return s.runSimple()
	}
	defer func() {
		term.Restore(fd, oldState)
		fmt.Fprint(s.Out, "\033[?25h") // Show cursor
	}()

	fmt.Fprint(s.Out, "\033[?25l") // Hide cursor

	totalLines := len(s.options) + 3
	s.printMenu()

	reader := bufio.NewReader(s.In)
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return 0, err
		}

		switch b {
		case 13, 10, ' ': // Enter, Space
			s.clearMenu(totalLines)
			return s.selected, nil
		case 3, 'q': // Ctrl+C
			s.clearMenu(totalLines)
			return 0, ErrCancelled
		case 'j':
			s.moveDown()
		case 'k':
			s.moveUp()
		case 27: // Escape sequence
			b2, _ := reader.ReadByte()
			if b2 == '[' {
				b3, _ := reader.ReadByte()
				switch b3 {
				case 'A':
					s.moveUp()
				case 'B':
					s.moveDown()
				}
			}
		default:
			if b >= '1' && b <= '9' {
				if idx := int(b - '1'); idx < len(s.options) {
					s.selected = idx
					s.clearMenu(totalLines)
					return s.selected, nil
				}
			}
		}

		s.clearMenu(totalLines)
		s.printMenu()
	}
}

func (s *Selector) paint(st lipgloss.Style, text string) string {
	if !s.colored {
		return text
	}
	return st.Render(text)
}

func (s *Selector) printMenu() {
	var sb strings.Builder

	sb.WriteString(s.paint(s.questionStyle, s.question))
	sb.WriteString("\r\n")
	sb.WriteString(s.paint(s.hintStyle, "[j/k or arrows] move  [enter] select  [q] cancel"))
	sb.WriteString("\r\n\r\n")

	for i, opt := range s.options {
		label := opt.Label
		if opt.Description != "" {
			label += " - " + opt.Description
		}

		if i == s.selected {
			sb.WriteString(s.paint(s.cursorStyle, "> "))
			sb.WriteString(s.paint(s.selectedStyle, label))
		} else {
			sb.WriteString("  ")
			sb.WriteString(s.paint(s.optionStyle, label))
		}
		sb.WriteString("\r\n")
	}

	fmt.Fprint(s.Out, sb.String())
}

func (s *Selector) clearMenu(lines int) {
	for i := 0; i < lines; i++ {
		fmt.Fprint(s.Out, "\033[A\033[2K\r")
	}
}

// runSimple reads a number from In. An empty answer keeps the current
// selection.
func (s *Selector) runSimple() (int, error) {
	fmt.Fprintln(s.Out, s.question)
	for i, opt := range s.options {
		label := opt.Label
		if opt.Description != "" {
			label += " - " + opt.Description
		}
		fmt.Fprintf(s.Out, "  [%d] %s\n", i+1, label)
	}
	fmt.Fprintf(s.Out, "Enter number [%d]: ", s.selected+1)

	input, err := bufio.NewReader(s.In).ReadString('\n')
	input = strings.TrimSpace(input)
	if err != nil && input == "" {
		if errors.Is(err, io.EOF) {
			return 0, ErrCancelled
		}
		return 0, err
	}
	if input == "" {
		return s.selected, nil
	}

	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > len(s.options) {
		return 0, fmt.Errorf("invalid choice %q", input)
	}
	return n - 1, nil
}

func (s *Selector) moveUp() {
	if s.selected > 0 {
		s.selected--
	} else {
		s.selected = len(s.options) - 1
	}
}

func (s *Selector) moveDown() {
	if s.selected < len(s.options)-1 {
		s.selected++
	} else {
		s.selected = 0
	}
}
