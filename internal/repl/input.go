package repl

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// lineReader is the part of *readline.Instance the REPL reads from.
type lineReader interface {
	Readline() (string, error)
	ReadPassword(prompt string) ([]byte, error)
	SetPrompt(prompt string)
}

func (r *REPL) readInput() (string, error) {
	line, err := r.in.Readline()
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

// prompt asks for one line labelled with a translated key.
func (r *REPL) prompt(key string) (string, error) {
	r.in.SetPrompt(r.formatter.FormatLabelPrompt(key))
	return r.readInput()
}

func (r *REPL) readPassword(key string) (string, error) {
	b, err := r.in.ReadPassword(r.formatter.FormatLabelPrompt(key))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *REPL) parseCommand(input string) (bool, string, string) {
	if !strings.HasPrefix(input, "/") {
		return false, "", ""
	}

	parts := strings.SplitN(input, " ", 2)
	command := strings.ToLower(parts[0])

	args := ""
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}

	return true, command, args
}

// splitFields splits "a | b | c" and trims every field.
func splitFields(args string) []string {
	parts := strings.Split(args, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// parseAssignments parses "key=value ..." where a value runs until the next
// known key, so values may contain spaces.
func parseAssignments(args string, known map[string]bool) (map[string]string, error) {
	out := make(map[string]string)
	current := ""

	for _, tok := range strings.Fields(args) {
		if k, v, ok := strings.Cut(tok, "="); ok {
			key := strings.ToLower(k)
			if known[key] {
				current = key
				out[current] = v
				continue
			}
			if isKeyword(key) {
				return nil, fmt.Errorf("unknown key %q", k)
			}
		}
		if current == "" {
			return nil, fmt.Errorf("expected key=value, got %q", tok)
		}
		if out[current] == "" {
			out[current] = tok
		} else {
			out[current] += " " + tok
		}
	}

	if len(out) == 0 {
		return nil, errors.New("nothing to change")
	}
	return out, nil
}

// isKeyword reports whether s looks like a key name rather than free text.
func isKeyword(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && r != '_' {
			return false
		}
	}
	return true
}

func setupReadline() (*readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:              "> ",
		HistoryFile:         "",
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})

	return rl, err
}

func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt)
}
