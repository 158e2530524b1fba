package intake

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "intake.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndList(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	first, err := j.Record(ctx, Event{ReminderID: "r1", Medication: "Amoxicillin", Kind: KindTaken, At: t0})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	_, err = j.Record(ctx, Event{ReminderID: "r1", Medication: "Amoxicillin", Kind: KindSkipped, At: t0.Add(12 * time.Hour)})
	require.NoError(t, err)
	_, err = j.Record(ctx, Event{ReminderID: "r2", Medication: "Vitamin D", Kind: KindTaken, At: t0})
	require.NoError(t, err)

	events, err := j.List(ctx, "r1", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, KindSkipped, events[0].Kind)
	assert.True(t, events[1].At.Equal(t0))

	events, err = j.List(ctx, "r1", 1)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestRecordValidation(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	_, err := j.Record(ctx, Event{ReminderID: "r1", Kind: "forgot"})
	assert.Error(t, err)

	_, err = j.Record(ctx, Event{Kind: KindTaken})
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, kind := range []string{KindTaken, KindTaken, KindSkipped, KindTaken} {
		_, err := j.Record(ctx, Event{ReminderID: "r1", Medication: "Amoxicillin", Kind: kind, At: t0.Add(time.Duration(i) * 12 * time.Hour)})
		require.NoError(t, err)
	}
	_, err := j.Record(ctx, Event{ReminderID: "r2", Medication: "Vitamin D", Kind: KindTaken, At: t0.Add(-48 * time.Hour)})
	require.NoError(t, err)

	summary, err := j.Summary(ctx, t0)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, "Amoxicillin", summary[0].Medication)
	assert.Equal(t, 3, summary[0].Taken)
	assert.Equal(t, 1, summary[0].Skipped)
	assert.InDelta(t, 0.75, summary[0].Ratio(), 1e-9)

	assert.InDelta(t, 1.0, Adherence{}.Ratio(), 1e-9)
}

func TestDeleteReminder(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	_, err := j.Record(ctx, Event{ReminderID: "r1", Kind: KindTaken, At: time.Now()})
	require.NoError(t, err)
	require.NoError(t, j.DeleteReminder(ctx, "r1"))

	events, err := j.List(ctx, "r1", 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}
