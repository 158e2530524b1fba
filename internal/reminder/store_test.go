package reminder_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notexe/med-reminder/internal/reminder"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newStore(t *testing.T) (*reminder.Store, clock.FakeClock) {
	t.Helper()
	clk := clock.NewFake()
	clk.Set(t0)
	path := filepath.Join(t.TempDir(), "medication_reminders.json")
	return reminder.OpenStore(path, clk), clk
}

func amoxicillin() reminder.NewReminder {
	return reminder.NewReminder{
		MedicationName: "Amoxicillin",
		Dosage:         "500mg",
		Frequency:      reminder.FrequencyTwiceDaily,
		Duration:       7,
		Notes:          "after meals",
	}
}

func TestAddThenGet(t *testing.T) {
	s, _ := newStore(t)

	id, err := s.Add(amoxicillin())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	r, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, id, r.ID)
	assert.Equal(t, "Amoxicillin", r.MedicationName)
	assert.Equal(t, "500mg", r.Dosage)
	assert.Equal(t, reminder.FrequencyTwiceDaily, r.Frequency)
	assert.Equal(t, 7, r.Duration)
	assert.Equal(t, "after meals", r.Notes)
	assert.True(t, r.CreatedAt.Equal(t0))
	assert.Nil(t, r.NextTime)
	assert.Nil(t, r.LastTaken)
	assert.True(t, r.IsActive)
	assert.Zero(t, r.DosesTaken)
}

func TestGetReturnsCopy(t *testing.T) {
	s, _ := newStore(t)
	id, err := s.Add(amoxicillin())
	require.NoError(t, err)

	r, _ := s.Get(id)
	r.MedicationName = "changed"

	again, _ := s.Get(id)
	assert.Equal(t, "Amoxicillin", again.MedicationName)
}

func TestDelete(t *testing.T) {
	s, _ := newStore(t)
	id, err := s.Add(amoxicillin())
	require.NoError(t, err)

	ok, err := s.Delete("missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, s.List(), 1)

	ok, err = s.Delete(id)
	require.NoError(t, err)
	assert.True(t, ok)

	_, found := s.Get(id)
	assert.False(t, found)

	reloaded := reminder.OpenStore(s.Path(), clock.NewFake())
	assert.Empty(t, reloaded.List())
}

func TestUpdate(t *testing.T) {
	s, _ := newStore(t)
	id, err := s.Add(amoxicillin())
	require.NoError(t, err)

	ok, err := s.Update("missing", reminder.UpdateFields{})
	require.NoError(t, err)
	assert.False(t, ok)

	dosage := "250mg"
	ok, err = s.Update(id, reminder.UpdateFields{Dosage: &dosage})
	require.NoError(t, err)
	require.True(t, ok)

	r, _ := s.Get(id)
	assert.Equal(t, "250mg", r.Dosage)
	assert.Equal(t, "Amoxicillin", r.MedicationName)
	assert.Equal(t, "after meals", r.Notes)
}

func TestUpdateLastTakenKeepsCooldownInvariant(t *testing.T) {
	s, _ := newStore(t)
	id, err := s.Add(amoxicillin())
	require.NoError(t, err)

	taken := t0.Add(time.Hour)
	_, err = s.Update(id, reminder.UpdateFields{LastTaken: &taken})
	require.NoError(t, err)

	r, _ := s.Get(id)
	require.NotNil(t, r.NextTime)
	assert.True(t, r.NextTime.Equal(taken.Add(12*time.Hour)))
}

func TestUpdateFrequencyMovesNextDose(t *testing.T) {
	s, _ := newStore(t)
	id, err := s.Add(amoxicillin())
	require.NoError(t, err)

	taken, _, err := s.TakeDose(id)
	require.NoError(t, err)
	require.NotNil(t, taken.LastTaken)

	daily := reminder.FrequencyOnceDaily
	_, err = s.Update(id, reminder.UpdateFields{Frequency: &daily})
	require.NoError(t, err)

	r, _ := s.Get(id)
	require.NotNil(t, r.NextTime)
	assert.True(t, r.NextTime.Equal(r.LastTaken.Add(24*time.Hour)), "next_time = %v", r.NextTime)

	reopened := reminder.OpenStore(s.Path(), clock.NewFake())
	got, ok := reopened.Get(id)
	require.True(t, ok)
	assert.True(t, got.NextTime.Equal(got.LastTaken.Add(24*time.Hour)))
}

func TestUpdateFrequencyBeforeFirstDoseStaysReady(t *testing.T) {
	s, _ := newStore(t)
	id, err := s.Add(amoxicillin())
	require.NoError(t, err)

	daily := reminder.FrequencyOnceDaily
	_, err = s.Update(id, reminder.UpdateFields{Frequency: &daily})
	require.NoError(t, err)

	r, _ := s.Get(id)
	assert.Nil(t, r.NextTime)
}

func TestTakeDoseScenario(t *testing.T) {
	s, clk := newStore(t)
	id, err := s.Add(amoxicillin())
	require.NoError(t, err)

	r, _ := s.Get(id)
	assert.Equal(t, reminder.Ready, reminder.StatusAt(clk.Now(), r.NextTime).State)

	r, ok, err := s.TakeDose(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, r.NextTime)
	assert.True(t, r.NextTime.Equal(t0.Add(720*time.Minute)))
	assert.True(t, r.LastTaken.Equal(t0))
	assert.Equal(t, 1, r.DosesTaken)

	clk.Add(719 * time.Minute)
	st := reminder.StatusAt(clk.Now(), r.NextTime)
	assert.Equal(t, reminder.CountingDown, st.State)
	assert.Equal(t, time.Minute, st.Remaining)

	clk.Add(time.Minute)
	assert.Equal(t, reminder.Ready, reminder.StatusAt(clk.Now(), r.NextTime).State)

	_, ok, err = s.TakeDose("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListActiveOrderAndFilter(t *testing.T) {
	s, clk := newStore(t)

	first, err := s.Add(reminder.NewReminder{MedicationName: "A", Frequency: reminder.FrequencyOnceDaily})
	require.NoError(t, err)
	clk.Add(time.Minute)
	second, err := s.Add(reminder.NewReminder{MedicationName: "B", Frequency: reminder.FrequencyOnceDaily})
	require.NoError(t, err)
	clk.Add(time.Minute)
	third, err := s.Add(reminder.NewReminder{MedicationName: "C", Frequency: reminder.FrequencyOnceDaily})
	require.NoError(t, err)

	inactive := false
	_, err = s.Update(second, reminder.UpdateFields{IsActive: &inactive})
	require.NoError(t, err)

	active := s.ListActive()
	require.Len(t, active, 2)
	assert.Equal(t, third, active[0].ID)
	assert.Equal(t, first, active[1].ID)

	assert.Len(t, s.List(), 3)
}

func TestRoundTrip(t *testing.T) {
	s, _ := newStore(t)
	id1, err := s.Add(amoxicillin())
	require.NoError(t, err)
	_, err = s.Add(reminder.NewReminder{MedicationName: "Vitamin D", Dosage: "1 tablet", Frequency: reminder.FrequencyOnceDaily})
	require.NoError(t, err)
	_, _, err = s.TakeDose(id1)
	require.NoError(t, err)

	reloaded := reminder.OpenStore(s.Path(), clock.NewFake())

	want := s.List()
	got := reloaded.List()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].MedicationName, got[i].MedicationName)
		assert.Equal(t, want[i].Dosage, got[i].Dosage)
		assert.Equal(t, want[i].Frequency, got[i].Frequency)
		assert.Equal(t, want[i].Duration, got[i].Duration)
		assert.Equal(t, want[i].Notes, got[i].Notes)
		assert.Equal(t, want[i].IsActive, got[i].IsActive)
		assert.Equal(t, want[i].DosesTaken, got[i].DosesTaken)
		assert.True(t, want[i].CreatedAt.Equal(got[i].CreatedAt))
		assertTimePtrEqual(t, want[i].LastTaken, got[i].LastTaken)
		assertTimePtrEqual(t, want[i].NextTime, got[i].NextTime)
	}
}

func assertTimePtrEqual(t *testing.T, want, got *time.Time) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got)
		return
	}
	require.NotNil(t, got)
	assert.True(t, want.Equal(*got), "want %v, got %v", *want, *got)
}

func TestLoadInvalidDateTreatedAsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medication_reminders.json")
	data := `{
  "r1": {
    "id": "r1",
    "medication_name": "Amoxicillin",
    "dosage": "500mg",
    "frequency": "Twice daily",
    "notes": "",
    "created_at": "2025-05-01T10:15:30.123456",
    "last_taken": "not-a-date",
    "next_time": "2025-05-01T22:15:30.123456",
    "doses_taken": 3
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	s := reminder.OpenStore(path, clock.NewFake())
	r, ok := s.Get("r1")
	require.True(t, ok)
	assert.Nil(t, r.LastTaken)
	require.NotNil(t, r.NextTime)
	assert.Equal(t, 22, r.NextTime.Hour())
	assert.Equal(t, 2025, r.CreatedAt.Year())
	assert.True(t, r.IsActive, "missing is_active defaults to true")
	assert.Equal(t, 3, r.DosesTaken)
}

func TestLoadCorruptFileDegradesToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medication_reminders.json")
	require.NoError(t, os.WriteFile(path, []byte("{bad json"), 0o600))

	s := reminder.OpenStore(path, clock.NewFake())
	assert.Empty(t, s.List())

	_, err := os.Stat(path + ".corrupt")
	assert.NoError(t, err, "corrupt file should be backed up")
}

func TestLoadMissingFile(t *testing.T) {
	s := reminder.OpenStore(filepath.Join(t.TempDir(), "nope.json"), nil)
	assert.Empty(t, s.List())
}

func TestSaveFailureKeepsMemoryState(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	s := reminder.OpenStore(filepath.Join(blocker, "reminders.json"), clock.NewFake())
	id, err := s.Add(amoxicillin())
	require.Error(t, err)
	assert.ErrorIs(t, err, reminder.ErrSave)

	r, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, "Amoxicillin", r.MedicationName)
}

func TestResolve(t *testing.T) {
	s, _ := newStore(t)
	id, err := s.Add(amoxicillin())
	require.NoError(t, err)

	got, err := s.Resolve(id[:8])
	require.NoError(t, err)
	assert.Equal(t, id, got)

	got, err = s.Resolve(id)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = s.Resolve("zzzz")
	assert.ErrorIs(t, err, reminder.ErrNotFound)

	_, err = s.Resolve("")
	assert.ErrorIs(t, err, reminder.ErrNotFound)
}

func TestReloadPicksUpOtherWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medication_reminders.json")
	clk := clock.NewFake()
	clk.Set(t0)

	reader := reminder.OpenStore(path, clk)
	writer := reminder.OpenStore(path, clk)

	id, err := writer.Add(amoxicillin())
	require.NoError(t, err)

	require.NoError(t, reader.Reload())
	got, ok := reader.Get(id)
	require.True(t, ok)
	assert.Equal(t, "Amoxicillin", got.MedicationName)

	require.NoError(t, os.WriteFile(path, []byte("{bad json"), 0o600))
	assert.Error(t, reader.Reload())
	assert.Len(t, reader.List(), 1, "bad file leaves memory untouched")

	require.NoError(t, os.Remove(path))
	require.NoError(t, reader.Reload())
	assert.Empty(t, reader.List())
}

func TestTwoStoresOnOnePathKeepEachOthersWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medication_reminders.json")
	clk := clock.NewFake()
	clk.Set(t0)

	app := reminder.OpenStore(path, clk)
	tools := reminder.OpenStore(path, clk)

	first, err := app.Add(amoxicillin())
	require.NoError(t, err)

	second, err := tools.Add(reminder.NewReminder{
		MedicationName: "Ibuprofen",
		Dosage:         "200mg",
		Frequency:      reminder.FrequencyThriceDaily,
	})
	require.NoError(t, err)

	_, ok, err := app.TakeDose(second)
	require.NoError(t, err)
	require.True(t, ok, "app sees the reminder added by the other store")

	ok, err = tools.Delete(first)
	require.NoError(t, err)
	require.True(t, ok)

	final := reminder.OpenStore(path, clk)
	all := final.List()
	require.Len(t, all, 1)
	assert.Equal(t, second, all[0].ID)
	assert.Equal(t, 1, all[0].DosesTaken)
}

func TestFailedSaveIsNotOverwrittenByFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "medication_reminders.json")
	s := reminder.OpenStore(path, clock.NewFake())

	first, err := s.Add(amoxicillin())
	require.NoError(t, err)

	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o700) })
	if f, err := os.Create(filepath.Join(dir, "write-check")); err == nil {
		f.Close()
		t.Skip("directory still writable (running as root)")
	}

	second, err := s.Add(amoxicillin())
	require.ErrorIs(t, err, reminder.ErrSave)

	require.NoError(t, os.Chmod(dir, 0o700))
	_, err = s.Delete(first)
	require.NoError(t, err)

	_, ok := reminder.OpenStore(path, clock.NewFake()).Get(second)
	assert.True(t, ok, "unsaved reminder survives the next mutation")
}

func TestReadsSeeOtherWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medication_reminders.json")
	clk := clock.NewFake()
	clk.Set(t0)

	reader := reminder.OpenStore(path, clk)
	writer := reminder.OpenStore(path, clk)

	id, err := writer.Add(amoxicillin())
	require.NoError(t, err)
	assert.Len(t, reader.ListActive(), 1)

	resolved, err := reader.Resolve(id[:8])
	require.NoError(t, err)
	assert.Equal(t, id, resolved)

	_, _, err = writer.TakeDose(id)
	require.NoError(t, err)
	got, ok := reader.Get(id)
	require.True(t, ok)
	assert.Equal(t, 1, got.DosesTaken)
}

func TestTakeDueDose(t *testing.T) {
	s, clk := newStore(t)
	id, err := s.Add(amoxicillin())
	require.NoError(t, err)

	r, err := s.TakeDueDose(id)
	require.NoError(t, err)
	assert.Equal(t, 1, r.DosesTaken)

	clk.Add(2 * time.Hour)
	r, err = s.TakeDueDose(id)
	require.ErrorIs(t, err, reminder.ErrNotDue)
	assert.EqualError(t, err, "next dose of Amoxicillin is not due for 10h 00m")
	assert.Equal(t, 1, r.DosesTaken)

	var notDue *reminder.NotDueError
	require.ErrorAs(t, err, &notDue)
	assert.Equal(t, 10*time.Hour, notDue.Remaining)

	clk.Add(10 * time.Hour)
	r, err = s.TakeDueDose(id)
	require.NoError(t, err)
	assert.Equal(t, 2, r.DosesTaken)

	_, err = s.TakeDueDose("missing")
	assert.ErrorIs(t, err, reminder.ErrNotFound)
}

func TestTakeDueDoseSeesDoseFromOtherProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medication_reminders.json")
	clk := clock.NewFake()
	clk.Set(t0)

	app := reminder.OpenStore(path, clk)
	tools := reminder.OpenStore(path, clk)

	id, err := app.Add(amoxicillin())
	require.NoError(t, err)
	_, ok := tools.Get(id)
	require.True(t, ok)

	_, err = app.TakeDueDose(id)
	require.NoError(t, err)

	_, err = tools.TakeDueDose(id)
	assert.ErrorIs(t, err, reminder.ErrNotDue, "the other process already took this dose")
}
