package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/chzyer/readline"
	"github.com/jmhodges/clock"

	"github.com/notexe/med-reminder/internal/account"
	"github.com/notexe/med-reminder/internal/assistant"
	"github.com/notexe/med-reminder/internal/config"
	"github.com/notexe/med-reminder/internal/intake"
	"github.com/notexe/med-reminder/internal/preferences"
	"github.com/notexe/med-reminder/internal/reminder"
	"github.com/notexe/med-reminder/internal/scheduler"
	"github.com/notexe/med-reminder/internal/ui"
)

var (
	errQuit   = errors.New("quit")
	errLogout = errors.New("logout")
)

// Deps are the services the REPL drives.
type Deps struct {
	Config    *config.Config
	Reminders *reminder.Store
	Accounts  *account.Store
	Journal   *intake.Journal // optional
	Prefs     *preferences.Manager
	Responder assistant.Responder
	Clock     clock.Clock
}

type REPL struct {
	config    *config.Config
	reminders *reminder.Store
	accounts  *account.Store
	journal   *intake.Journal
	prefs     *preferences.Manager
	responder assistant.Responder
	clk       clock.Clock

	rl        *readline.Instance
	in        lineReader
	choose    chooser
	formatter *ui.Formatter
	unbind    func()

	user string

	// out is guarded by mu so the watcher can print between prompts.
	mu      sync.Mutex
	out     io.Writer
	paused  bool
	pending []string
}

func NewREPL(deps Deps) (*REPL, error) {
	rl, err := setupReadline()
	if err != nil {
		return nil, fmt.Errorf("failed to setup readline: %w", err)
	}

	r := newREPL(deps, rl, rl.Stdout())
	r.rl = rl
	r.choose = r.chooseWithSelector
	return r, nil
}

func newREPL(deps Deps, in lineReader, out io.Writer) *REPL {
	clk := deps.Clock
	if clk == nil {
		clk = clock.New()
	}
	if deps.Responder == nil {
		deps.Responder = assistant.NewKeywordResponder()
	}

	formatter := ui.NewFormatter(deps.Config.UI.ColoredOutput, deps.Config.UI.WordWrap)

	r := &REPL{
		config:    deps.Config,
		reminders: deps.Reminders,
		accounts:  deps.Accounts,
		journal:   deps.Journal,
		prefs:     deps.Prefs,
		responder: deps.Responder,
		clk:       clk,
		in:        in,
		formatter: formatter,
		out:       out,
	}
	r.unbind = formatter.Bind(deps.Prefs)
	return r
}

// Start runs login and the command loop until the user quits or input ends.
func (r *REPL) Start(ctx context.Context) error {
	defer func() { r.rl.Close() }()
	return r.run(ctx)
}

func (r *REPL) run(ctx context.Context) error {
	defer r.unbind()

	saveOnChange := r.prefs.Subscribe(func(preferences.Change) {
		if err := r.prefs.Save(r.config.PrefsPath()); err != nil {
			log.Printf("[repl] Error: failed to save preferences: %v", err)
		}
	})
	defer saveOnChange()

	for {
		if err := r.login(); err != nil {
			if errors.Is(err, errQuit) || isEOF(err) {
				r.println("\nGoodbye!")
				return nil
			}
			return err
		}

		err := r.session(ctx)
		switch {
		case errors.Is(err, errLogout):
			r.user = ""
			r.resetAssistant()
			continue
		case errors.Is(err, errQuit), err == nil:
			r.println("\nGoodbye!")
			return nil
		default:
			return err
		}
	}
}

// session runs the command loop for the logged-in user with the due-dose
// watcher in the background.
func (r *REPL) session(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watcher := scheduler.NewWatcher(r.reminders, r.clk, scheduler.FuncNotifier(r.notifyDue), r.config.RefreshInterval())
	watcher.Translate = r.prefs.T
	watcher.Enabled = func() bool { return r.prefs.Current().Notifications }
	go watcher.Run(ctx)

	r.displayWelcome()
	r.in.SetPrompt(r.formatter.FormatPrompt(r.user))

	for {
		input, err := r.readInput()
		if err != nil {
			if isEOF(err) {
				return errQuit
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		if input == "" {
			continue
		}

		if err := r.handleInput(ctx, input); err != nil {
			if errors.Is(err, errQuit) || errors.Is(err, errLogout) {
				return err
			}
			r.displayError(err)
		}
		r.in.SetPrompt(r.formatter.FormatPrompt(r.user))
	}
}

// handleInput dispatches one line to a command or the assistant.
func (r *REPL) handleInput(ctx context.Context, input string) error {
	isCommand, command, args := r.parseCommand(input)
	if isCommand {
		return r.handleCommand(ctx, command, args)
	}
	return r.handleMessage(ctx, input)
}

func (r *REPL) Stop() {
	r.rl.Close()
}

func (r *REPL) resetAssistant() {
	if resetter, ok := r.responder.(interface{ Reset() }); ok {
		resetter.Reset()
	}
}

// notifyDue prints a due-dose notification between prompts.
func (r *REPL) notifyDue(_ context.Context, msg scheduler.Message) error {
	line := r.formatter.FormatDue(msg.Title, msg.Body)
	if r.config.UI.ShowTimestamps {
		line = r.formatter.FormatStatus(r.clk.Now().Local().Format("[15:04] ")) + line
	}
	if r.prefs.Current().Sound {
		line += "\a"
	}
	r.printAsync(line)
	return nil
}

// pause holds background output while the terminal is used by something
// other than readline.
func (r *REPL) pause() {
	r.mu.Lock()
	r.paused = true
	r.mu.Unlock()
}

func (r *REPL) resume() {
	r.mu.Lock()
	r.paused = false
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	for _, line := range pending {
		r.println(line)
	}
}

func (r *REPL) printAsync(line string) {
	r.mu.Lock()
	if r.paused {
		r.pending = append(r.pending, line)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	r.println(line)
}

func (r *REPL) println(a ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, a...)
}

func (r *REPL) print(a ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.out, a...)
}

// reopen replaces the readline instance after it was closed for a raw-mode
// selector.
func (r *REPL) reopen() error {
	rl, err := setupReadline()
	if err != nil {
		return fmt.Errorf("failed to setup readline: %w", err)
	}

	r.mu.Lock()
	r.rl = rl
	r.in = rl
	r.out = rl.Stdout()
	r.mu.Unlock()
	return nil
}
