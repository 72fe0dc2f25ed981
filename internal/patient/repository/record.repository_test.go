package repository

import (
	"sync"
	"testing"
	"time"

	"carenest/internal/patient/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureIsIdempotent(t *testing.T) {
	repo := NewRecordRepository()

	first := repo.Ensure("rajat")
	first.Update(func(d *model.Data) { d.Tasks = append(d.Tasks, model.Task{ID: "x", Title: "Extra"}) })
	second := repo.Ensure("rajat")

	assert.Same(t, first, second)
	assert.Len(t, second.Snapshot().Tasks, 3, "second Ensure must not reseed")
	assert.Equal(t, 1, repo.Len())
}

func TestEnsureConcurrent(t *testing.T) {
	repo := NewRecordRepository()

	var wg sync.WaitGroup
	recs := make([]*model.Record, 20)
	for i := range recs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			recs[i] = repo.Ensure("rajat")
		}(i)
	}
	wg.Wait()

	for _, rec := range recs {
		assert.Same(t, recs[0], rec)
	}
	assert.Equal(t, 1, repo.Len())
}

func TestLookupDoesNotCreate(t *testing.T) {
	repo := NewRecordRepository()
	_, ok := repo.Lookup("ghost")
	assert.False(t, ok)
	assert.Equal(t, 0, repo.Len())

	repo.Ensure("zoe")
	repo.Ensure("amir")
	assert.Equal(t, []string{"amir", "zoe"}, repo.Usernames())
}

func TestSeedData(t *testing.T) {
	now := time.Date(2030, time.March, 31, 8, 0, 0, 0, time.Local)
	repo := NewRecordRepository()
	repo.now = func() time.Time { return now }

	data := repo.Ensure("rajat").Snapshot()
	assert.Equal(t, "rajat", data.Username)
	assert.Equal(t, model.MoodOkay, data.Mood)

	require.Len(t, data.Tasks, 2)
	assert.Equal(t, "Morning walk", data.Tasks[0].Title)
	assert.False(t, data.Tasks[0].Done)
	assert.Equal(t, "Call family", data.Tasks[1].Title)

	require.Len(t, data.Meds, 1)
	assert.Equal(t, "Vitamin D", data.Meds[0].Name)
	assert.Equal(t, "09:00", data.Meds[0].Time)

	require.Len(t, data.Reminders, 1)
	assert.Equal(t, "2030-04-01T10:00", data.Reminders[0].Datetime)
	assert.Equal(t, "appointment", data.Reminders[0].Kind)
	assert.True(t, data.Reminders[0].Active)

	require.Len(t, data.Activities, 2)
	assert.Equal(t, "Breathing exercise", data.Activities[0].Title)
	assert.Equal(t, "Read 10 pages", data.Activities[1].Title)

	assert.NotNil(t, data.Notes)
	assert.Empty(t, data.Notes)
	assert.Empty(t, data.Appointments)
	assert.Empty(t, data.Files)

	ids := map[string]bool{}
	for _, id := range []string{data.Tasks[0].ID, data.Tasks[1].ID, data.Meds[0].ID, data.Reminders[0].ID, data.Activities[0].ID, data.Activities[1].ID} {
		assert.NotEmpty(t, id)
		assert.False(t, ids[id], "ids must be unique")
		ids[id] = true
	}
}
