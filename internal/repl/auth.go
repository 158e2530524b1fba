package repl

import (
	"fmt"
	"strings"
)

const guestUser = "guest"

// login blocks until a user is logged in. It returns errQuit when the user
// chooses to leave.
func (r *REPL) login() error {
	if !r.config.Auth.Required {
		r.user = guestUser
		return nil
	}

	for {
		r.in.SetPrompt(r.formatter.FormatInfo(fmt.Sprintf("[l] %s  [r] %s  [q] quit > ",
			r.formatter.T("login"), r.formatter.T("register"))))
		choice, err := r.readInput()
		if err != nil {
			return err
		}

		switch strings.ToLower(choice) {
		case "", "l", "login", "/login":
			err = r.loginUser()
			if err == nil {
				return nil
			}
		case "r", "register", "/register":
			err = r.registerUser()
		case "q", "quit", "/quit", "exit", "/exit":
			return errQuit
		default:
			err = fmt.Errorf("unknown choice %q", choice)
		}

		if err != nil {
			if isEOF(err) {
				return err
			}
			r.displayError(err)
		}
	}
}

func (r *REPL) loginUser() error {
	username, err := r.prompt("username")
	if err != nil {
		return err
	}
	password, err := r.readPassword("password")
	if err != nil {
		return err
	}

	if err := r.accounts.Verify(username, password); err != nil {
		return err
	}

	r.user = strings.TrimSpace(username)
	r.displaySuccess(r.formatter.T("login_ok"))
	return nil
}

// registerUser creates an account; the user logs in afterwards.
func (r *REPL) registerUser() error {
	username, err := r.prompt("username")
	if err != nil {
		return err
	}
	password, err := r.readPassword("password")
	if err != nil {
		return err
	}
	confirm, err := r.readPassword("confirm_password")
	if err != nil {
		return err
	}

	if err := r.accounts.Register(username, password, confirm); err != nil {
		return err
	}

	r.displaySuccess(r.formatter.T("register_ok"))
	return nil
}
