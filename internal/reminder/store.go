package reminder

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmhodges/clock"
)

var (
	// ErrSave marks a failed write. The in-memory change is kept.
	ErrSave = errors.New("failed to save reminders")
	// ErrNotFound is returned by lookups that need a single reminder.
	ErrNotFound = errors.New("reminder not found")
	// ErrAmbiguous is returned by Resolve when a prefix matches several ids.
	ErrAmbiguous = errors.New("reminder id prefix is ambiguous")
	// ErrNotDue is matched by *NotDueError.
	ErrNotDue = errors.New("dose is not due yet")
)

// NotDueError is returned by TakeDueDose while the cooldown is running.
type NotDueError struct {
	Medication string
	Remaining  time.Duration
}

func (e *NotDueError) Error() string {
	return fmt.Sprintf("next dose of %s is not due for %s", e.Medication, FormatRemaining(e.Remaining))
}

func (e *NotDueError) Is(target error) bool {
	return target == ErrNotDue
}

// Store keeps reminders in memory and rewrites a JSON file on every mutation.
// Every operation first re-reads the file, so several processes can share
// it without dropping each other's writes.
type Store struct {
	mu        sync.Mutex
	path      string
	clk       clock.Clock
	reminders map[string]*Reminder
	// dirty is set while the last save failed; memory is then newer than
	// the file and is not replaced by it.
	dirty bool
}

// OpenStore loads the reminders file at path. A missing file gives an empty
// store; a corrupt file is moved aside to path+".corrupt" and also gives an
// empty store.
func OpenStore(path string, clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.New()
	}
	s := &Store{
		path:      path,
		clk:       clk,
		reminders: make(map[string]*Reminder),
	}
	s.load()
	return s
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		log.Printf("[store] Error reading %s: %v", s.path, err)
		return
	}

	reminders, err := decodeFile(data)
	if err != nil {
		backup := s.path + ".corrupt"
		if rerr := os.Rename(s.path, backup); rerr != nil {
			log.Printf("[store] Corrupt reminders file %s: %v (backup failed: %v)", s.path, err, rerr)
			return
		}
		log.Printf("[store] Corrupt reminders file %s backed up to %s: %v", s.path, backup, err)
		return
	}
	s.reminders = reminders
}

// Reload replaces the in-memory reminders with the file contents, picking up
// writes from another process. A missing file empties the store; a file that
// cannot be read or decoded leaves memory untouched.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reminders, err := s.readFile()
	if os.IsNotExist(err) {
		s.reminders = make(map[string]*Reminder)
		return nil
	}
	if err != nil {
		return err
	}
	s.reminders = reminders
	return nil
}

func (s *Store) readFile() (map[string]*Reminder, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read reminders: %w", err)
	}

	reminders, err := decodeFile(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode reminders: %w", err)
	}
	return reminders, nil
}

// refresh picks up changes written by other processes and must be called
// with mu held. Memory is kept when the file is missing or unreadable, and
// while it holds unsaved changes.
func (s *Store) refresh() {
	if s.dirty {
		return
	}
	reminders, err := s.readFile()
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		log.Printf("[store] Keeping in-memory reminders: %v", err)
		return
	}
	s.reminders = reminders
}

// save must be called with mu held.
func (s *Store) save() error {
	data, err := encodeFile(s.reminders)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSave, err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("%w: creating %s: %v", ErrSave, dir, err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("%w: writing temp file: %v", ErrSave, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: renaming temp file: %v", ErrSave, err)
	}
	return nil
}

func (s *Store) persist() error {
	err := s.save()
	s.dirty = err != nil
	if err != nil {
		log.Printf("[store] %v", err)
	}
	return err
}

func (s *Store) now() time.Time {
	return s.clk.Now().UTC()
}

// Add creates a reminder that is ready immediately and returns its id.
// A non-nil error only reports that the file could not be written.
func (s *Store) Add(in NewReminder) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	id := uuid.NewString()
	s.reminders[id] = &Reminder{
		ID:             id,
		MedicationName: in.MedicationName,
		Dosage:         in.Dosage,
		Frequency:      in.Frequency,
		Duration:       in.Duration,
		Notes:          in.Notes,
		CreatedAt:      s.now(),
		IsActive:       true,
	}
	return id, s.persist()
}

// Update merges the provided fields into an existing reminder. NextTime is
// recomputed from LastTaken whenever a dose has been taken, so a frequency
// change moves the next dose too.
func (s *Store) Update(id string, f UpdateFields) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	r, ok := s.reminders[id]
	if !ok {
		return false, nil
	}

	if f.MedicationName != nil {
		r.MedicationName = *f.MedicationName
	}
	if f.Dosage != nil {
		r.Dosage = *f.Dosage
	}
	if f.Frequency != nil {
		r.Frequency = *f.Frequency
	}
	if f.Duration != nil {
		r.Duration = *f.Duration
	}
	if f.Notes != nil {
		r.Notes = *f.Notes
	}
	if f.IsActive != nil {
		r.IsActive = *f.IsActive
	}
	if f.DosesTaken != nil {
		r.DosesTaken = *f.DosesTaken
	}
	if f.LastTaken != nil {
		taken := f.LastTaken.UTC()
		r.LastTaken = &taken
	}
	if r.LastTaken != nil {
		next := DoseTaken(*r.LastTaken, r.Frequency)
		r.NextTime = &next
	}

	return true, s.persist()
}

// TakeDose records a dose at the current time and starts the cooldown.
func (s *Store) TakeDose(id string) (Reminder, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	r, ok := s.reminders[id]
	if !ok {
		return Reminder{}, false, nil
	}
	s.take(r)

	err := s.persist()
	return r.clone(), true, err
}

// TakeDueDose is TakeDose that refuses with a *NotDueError while the
// cooldown is running. The check and the write happen under one lock on
// the freshly read file.
func (s *Store) TakeDueDose(id string) (Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	r, ok := s.reminders[id]
	if !ok {
		return Reminder{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if st := StatusAt(s.now(), r.NextTime); st.State == CountingDown {
		return r.clone(), &NotDueError{Medication: r.MedicationName, Remaining: st.Remaining}
	}
	s.take(r)

	err := s.persist()
	return r.clone(), err
}

func (s *Store) take(r *Reminder) {
	now := s.now()
	next := DoseTaken(now, r.Frequency)
	r.LastTaken = &now
	r.NextTime = &next
	r.DosesTaken++
}

// Delete removes a reminder permanently.
func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	if _, ok := s.reminders[id]; !ok {
		return false, nil
	}
	delete(s.reminders, id)
	return true, s.persist()
}

// Get returns a copy of the reminder with the given id.
func (s *Store) Get(id string) (Reminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	r, ok := s.reminders[id]
	if !ok {
		return Reminder{}, false
	}
	return r.clone(), true
}

// ListActive returns active reminders, most recently created first.
func (s *Store) ListActive() []Reminder {
	return s.list(true)
}

// List returns every reminder, most recently created first.
func (s *Store) List() []Reminder {
	return s.list(false)
}

func (s *Store) list(activeOnly bool) []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	out := make([]Reminder, 0, len(s.reminders))
	for _, r := range s.reminders {
		if activeOnly && !r.IsActive {
			continue
		}
		out = append(out, r.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Resolve expands a unique id prefix to a full id.
func (s *Store) Resolve(prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	if _, ok := s.reminders[prefix]; ok {
		return prefix, nil
	}

	var found string
	for id := range s.reminders {
		if strings.HasPrefix(id, prefix) {
			if found != "" {
				return "", fmt.Errorf("%w: %s", ErrAmbiguous, prefix)
			}
			found = id
		}
	}
	if found == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, prefix)
	}
	return found, nil
}
