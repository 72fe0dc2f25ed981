package service

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"carenest/internal/patient/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlobs struct {
	removed []string
	err     error
}

func (f *fakeBlobs) Remove(username, name string) error {
	f.removed = append(f.removed, username+"/"+name)
	return f.err
}

func newTestRecord() *model.Record {
	return model.NewRecord(model.Data{
		Username:     "rajat",
		Tasks:        []model.Task{{ID: "t1", Title: "Morning walk"}},
		Meds:         []model.Medication{{ID: "m1", Name: "Vitamin D", Time: "09:00"}},
		Notes:        []model.Note{},
		Appointments: []model.Appointment{},
		Files:        []model.File{{Name: "abc_scan.pdf"}},
		Mood:         model.MoodOkay,
		Reminders:    []model.Reminder{{ID: "r1", Title: "Check-up", Datetime: "2030-01-01T10:00", Kind: "appointment", Active: true}},
		Activities:   []model.Activity{{ID: "a1", Title: "Breathing exercise"}},
	})
}

func TestAddActionsGrowByOne(t *testing.T) {
	d := NewDispatcher(nil)
	tests := []struct {
		action model.Action
		length func(model.Data) int
	}{
		{model.AddTask{Title: "Call family"}, func(d model.Data) int { return len(d.Tasks) }},
		{model.AddMedication{Name: "Aspirin", Time: "13:00"}, func(d model.Data) int { return len(d.Meds) }},
		{model.AddNote{Mood: "Calm", Text: "Slept well"}, func(d model.Data) int { return len(d.Notes) }},
		{model.AddAppointment{Title: "GP", Datetime: "2030-02-01T09:30"}, func(d model.Data) int { return len(d.Appointments) }},
		{model.AddReminder{Title: "Refill", Datetime: "2030-02-01T09:30"}, func(d model.Data) int { return len(d.Reminders) }},
		{model.AddActivity{Title: "Stretching"}, func(d model.Data) int { return len(d.Activities) }},
	}
	for _, tt := range tests {
		t.Run(tt.action.Tag(), func(t *testing.T) {
			rec := newTestRecord()
			before := tt.length(rec.Snapshot())
			out := d.Apply(rec, tt.action)
			assert.Equal(t, before+1, tt.length(rec.Snapshot()))
			assert.Equal(t, DefaultRedirect(tt.action.Tag()), out.Redirect)
			assert.Empty(t, out.Notice)
		})
	}
}

func TestAddActionsIgnoreBlankInput(t *testing.T) {
	d := NewDispatcher(nil)
	actions := []model.Action{
		model.AddTask{Title: "   "},
		model.AddMedication{Name: "Aspirin"},
		model.AddMedication{Time: "08:00"},
		model.AddNote{Mood: "Calm", Text: " \t"},
		model.AddAppointment{Title: "GP"},
		model.AddAppointment{Datetime: "2030-02-01T09:30"},
		model.AddReminder{Title: " ", Datetime: "2030-02-01T09:30"},
		model.AddActivity{},
	}
	for _, action := range actions {
		rec := newTestRecord()
		before := rec.Snapshot()
		d.Apply(rec, action)
		assert.Equal(t, before, rec.Snapshot(), "%#v", action)
	}
}

func TestAddGeneratesUniqueIDs(t *testing.T) {
	d := NewDispatcher(nil)
	rec := newTestRecord()
	for i := 0; i < 20; i++ {
		d.Apply(rec, model.AddTask{Title: "Task"})
	}
	seen := map[string]bool{}
	for _, task := range rec.Snapshot().Tasks {
		require.False(t, seen[task.ID], "duplicate id %s", task.ID)
		seen[task.ID] = true
	}
}

func TestAddNoteSetsMoodAndPrepends(t *testing.T) {
	at := time.Date(2030, 1, 1, 12, 0, 0, 0, time.Local)
	restore := now
	now = func() time.Time { return at }
	defer func() { now = restore }()

	d := NewDispatcher(nil)
	rec := newTestRecord()
	d.Apply(rec, model.AddNote{Mood: "Cheerful", Text: "first"})
	d.Apply(rec, model.AddNote{Mood: "not-a-mood", Text: "second"})

	data := rec.Snapshot()
	require.Len(t, data.Notes, 2)
	assert.Equal(t, "second", data.Notes[0].Text)
	assert.Equal(t, model.MoodCheerful, data.Notes[0].Mood, "invalid mood falls back to current mood")
	assert.Equal(t, "first", data.Notes[1].Text)
	assert.Equal(t, at, data.Notes[1].Timestamp)
	assert.Equal(t, model.MoodCheerful, data.Mood)
}

func TestSetMood(t *testing.T) {
	d := NewDispatcher(nil)
	rec := newTestRecord()

	d.Apply(rec, model.SetMood{Mood: "Tired"})
	assert.Equal(t, model.MoodTired, rec.Snapshot().Mood)

	out := d.Apply(rec, model.SetMood{Mood: "Ecstatic"})
	assert.Equal(t, model.MoodTired, rec.Snapshot().Mood)
	assert.Equal(t, "/patient", out.Redirect)
}

func TestAddReminderDefaults(t *testing.T) {
	d := NewDispatcher(nil)
	rec := newTestRecord()
	d.Apply(rec, model.AddReminder{Title: "Refill", Datetime: "2030-02-01T09:30"})

	first := rec.Snapshot().Reminders[0]
	assert.Equal(t, "Refill", first.Title)
	assert.Equal(t, "general", first.Kind)
	assert.True(t, first.Active)
}

func TestUnparsableDatesAreKeptWithNotice(t *testing.T) {
	d := NewDispatcher(nil)
	rec := newTestRecord()

	out := d.Apply(rec, model.AddAppointment{Title: "GP", Datetime: "next tuesday"})
	assert.NotEmpty(t, out.Notice)
	assert.Len(t, rec.Snapshot().Appointments, 1)

	out = d.Apply(rec, model.AddReminder{Title: "Refill", Datetime: "soon"})
	assert.NotEmpty(t, out.Notice)

	out = d.Apply(rec, model.AddMedication{Name: "Aspirin", Time: "noon"})
	assert.NotEmpty(t, out.Notice)
	assert.Len(t, rec.Snapshot().Meds, 2)
}

func TestDateOnlyAppointmentSortsAsMidnight(t *testing.T) {
	d := NewDispatcher(nil)
	rec := newTestRecord()

	later, err := model.ParseAction(url.Values{"action": {"add_appointment"}, "title": {"Dentist"}, "datetime": {"2031-01-01T09:00"}})
	require.NoError(t, err)
	assert.Empty(t, d.Apply(rec, later).Notice)

	dateOnly, err := model.ParseAction(url.Values{"action": {"add_appointment"}, "title": {"GP"}, "date": {"2030-06-11"}})
	require.NoError(t, err)
	assert.Empty(t, d.Apply(rec, dateOnly).Notice)

	dash := Summarize(rec.Snapshot(), at(8, 0))
	require.Len(t, dash.UpcomingAppointments, 2)
	assert.Equal(t, "GP", dash.UpcomingAppointments[0].Title)
	assert.Equal(t, "Tue 11 Jun 2030, 00:00", dash.UpcomingAppointments[0].When)
	assert.Equal(t, "Dentist", dash.UpcomingAppointments[1].Title)
}

func TestToggleInvertsOnlyTheFlag(t *testing.T) {
	d := NewDispatcher(nil)
	rec := newTestRecord()
	before := rec.Snapshot()

	d.Apply(rec, model.ToggleTask{ID: "t1"})
	d.Apply(rec, model.ToggleMedication{ID: "m1"})
	d.Apply(rec, model.ToggleReminder{ID: "r1"})
	d.Apply(rec, model.ToggleActivity{ID: "a1"})
	after := rec.Snapshot()

	want := before
	want.Tasks = []model.Task{{ID: "t1", Title: "Morning walk", Done: true}}
	want.Meds = []model.Medication{{ID: "m1", Name: "Vitamin D", Time: "09:00", TakenToday: true}}
	want.Reminders = []model.Reminder{{ID: "r1", Title: "Check-up", Datetime: "2030-01-01T10:00", Kind: "appointment", Active: false}}
	want.Activities = []model.Activity{{ID: "a1", Title: "Breathing exercise", DoneToday: true}}
	assert.Equal(t, want, after)

	d.Apply(rec, model.ToggleTask{ID: "t1"})
	assert.False(t, rec.Snapshot().Tasks[0].Done)
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	d := NewDispatcher(nil)
	actions := []model.Action{
		model.ToggleTask{ID: "nope"},
		model.DeleteTask{ID: "nope"},
		model.ToggleMedication{},
		model.DeleteMedication{ID: "nope"},
		model.DeleteNote{ID: "nope"},
		model.DeleteAppointment{ID: "nope"},
		model.ToggleReminder{ID: "nope"},
		model.DeleteReminder{ID: "nope"},
		model.ToggleActivity{ID: "nope"},
		model.DeleteActivity{ID: "nope"},
		model.DeleteFile{Name: "nope.pdf"},
	}
	for _, action := range actions {
		rec := newTestRecord()
		before := rec.Snapshot()
		d.Apply(rec, action)
		assert.Equal(t, before, rec.Snapshot(), action.Tag())
	}
}

func TestDeleteRemovesOne(t *testing.T) {
	d := NewDispatcher(nil)
	rec := newTestRecord()
	d.Apply(rec, model.AddTask{Title: "Second"})

	d.Apply(rec, model.DeleteTask{ID: "t1"})
	d.Apply(rec, model.DeleteMedication{ID: "m1"})
	d.Apply(rec, model.DeleteReminder{ID: "r1"})
	d.Apply(rec, model.DeleteActivity{ID: "a1"})

	data := rec.Snapshot()
	require.Len(t, data.Tasks, 1)
	assert.Equal(t, "Second", data.Tasks[0].Title)
	assert.Empty(t, data.Meds)
	assert.Empty(t, data.Reminders)
	assert.Empty(t, data.Activities)
}

func TestDeleteFileIsIdempotent(t *testing.T) {
	blobs := &fakeBlobs{err: errors.New("no such file")}
	d := NewDispatcher(blobs)
	rec := newTestRecord()

	out := d.Apply(rec, model.DeleteFile{Name: "abc_scan.pdf"})
	assert.Empty(t, rec.Snapshot().Files, "metadata is removed even when the blob is missing")
	assert.Equal(t, "/patient/files", out.Redirect)
	assert.Equal(t, []string{"rajat/abc_scan.pdf"}, blobs.removed)

	d.Apply(rec, model.DeleteFile{Name: "abc_scan.pdf"})
	assert.Empty(t, rec.Snapshot().Files)
	assert.Len(t, blobs.removed, 1, "storage is only touched for listed files")
}

func TestDefaultRedirect(t *testing.T) {
	assert.Equal(t, "/patient/medications", DefaultRedirect(model.TagToggleMedication))
	assert.Equal(t, "/patient", DefaultRedirect(model.TagSetMood))
	assert.Equal(t, "/patient", DefaultRedirect("bogus"))
}
