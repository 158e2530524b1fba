// Package account stores login credentials.
package account

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jmhodges/clock"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmptyFields      = errors.New("username and password are required")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrUserExists       = errors.New("username already exists")
	ErrUnknownUser      = errors.New("username not found")
	ErrWrongPassword    = errors.New("incorrect password")
)

// User is one users.json entry.
type User struct {
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store is a users.json file of bcrypt password hashes.
type Store struct {
	mu    sync.Mutex
	path  string
	cost  int
	clk   clock.Clock
	users map[string]User
	// locked is set when a corrupt file could not be moved aside; writes
	// are refused so the original is not overwritten.
	locked error
}

// OpenStore loads the users file at path. A missing file yields an empty
// store; a corrupt one is moved aside to path+".corrupt" and the store
// starts empty. Entries written by older
// versions as bare plaintext strings are hashed and rewritten.
func OpenStore(path string, cost int, clk clock.Clock) *Store {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if clk == nil {
		clk = clock.New()
	}
	s := &Store{
		path:  path,
		cost:  cost,
		clk:   clk,
		users: make(map[string]User),
	}
	s.load()
	return s
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		log.Printf("[account] Error reading %s: %v", s.path, err)
		s.locked = fmt.Errorf("users file %s could not be read: %w", s.path, err)
		return
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		backup := s.path + ".corrupt"
		if rerr := os.Rename(s.path, backup); rerr != nil {
			log.Printf("[account] Corrupt users file %s: %v (backup failed: %v)", s.path, err, rerr)
			s.locked = fmt.Errorf("users file %s is corrupt and could not be backed up: %w", s.path, err)
			return
		}
		log.Printf("[account] Corrupt users file %s backed up to %s: %v", s.path, backup, err)
		return
	}

	migrated := 0
	for name, value := range raw {
		var u User
		if err := json.Unmarshal(value, &u); err == nil && u.PasswordHash != "" {
			s.users[name] = u
			continue
		}

		var plain string
		if err := json.Unmarshal(value, &plain); err != nil {
			log.Printf("[account] Skipping malformed entry for %q", name)
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(plain), s.cost)
		if err != nil {
			log.Printf("[account] Failed to hash legacy password for %q: %v", name, err)
			continue
		}
		s.users[name] = User{PasswordHash: string(hash), CreatedAt: s.clk.Now().UTC()}
		migrated++
	}

	if migrated > 0 {
		if err := s.save(); err != nil {
			log.Printf("[account] Failed to rewrite %d legacy password(s): %v", migrated, err)
			return
		}
		log.Printf("[account] Migrated %d legacy plaintext password(s)", migrated)
	}
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.users, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode users: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(s.path), err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write users: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write users: %w", err)
	}
	return nil
}

// Register adds a user. Surrounding whitespace in the username is ignored.
func (s *Store) Register(username, password, confirm string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrEmptyFields
	}
	if password != confirm {
		return ErrPasswordMismatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked != nil {
		return s.locked
	}
	if _, ok := s.users[username]; ok {
		return ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	s.users[username] = User{PasswordHash: string(hash), CreatedAt: s.clk.Now().UTC()}
	if err := s.save(); err != nil {
		delete(s.users, username)
		return err
	}
	return nil
}

// Verify checks a username and password.
func (s *Store) Verify(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrEmptyFields
	}

	s.mu.Lock()
	u, ok := s.users[username]
	s.mu.Unlock()

	if !ok {
		return ErrUnknownUser
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrWrongPassword
		}
		return fmt.Errorf("failed to verify password: %w", err)
	}
	return nil
}

// Exists reports whether username is registered.
func (s *Store) Exists(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[strings.TrimSpace(username)]
	return ok
}
