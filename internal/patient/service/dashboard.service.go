package service

import (
	"math"
	"slices"
	"time"

	"carenest/internal/patient/model"
)

const (
	upcomingLimit = 3
	whenLayout    = "Mon 02 Jan 2006, 15:04"
)

var (
	adherenceBaseline = []float64{72, 81, 65, 90, 76, 84}
	moodBaseline      = []int{3, 4, 3, 5, 2, 4}

	datetimeLayouts = []string{
		"2006-01-02T15:04",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
		time.RFC3339,
		"2006-01-02",
	}

	// unparsable datetimes sort after every real one
	farFuture = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)
)

// ParseDatetime accepts the formats produced by HTML date/time widgets and
// RFC 3339. Values without a zone are read in local time, and a bare date
// means local midnight.
func ParseDatetime(s string) (time.Time, bool) {
	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseClock returns minutes since midnight for an "HH:MM" value.
func parseClock(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// Summarize computes the dashboard for a record snapshot as of now. It has
// no side effects and never fails; malformed dates are treated as missing.
func Summarize(data model.Data, now time.Time) model.Dashboard {
	dash := model.Dashboard{
		Username:          data.Username,
		TasksTotal:        len(data.Tasks),
		MedsTotal:         len(data.Meds),
		NotesCount:        len(data.Notes),
		AppointmentsCount: len(data.Appointments),
		FilesCount:        len(data.Files),
		Record:            data,
	}

	for _, t := range data.Tasks {
		if t.Done {
			dash.TasksDone++
		}
	}
	for _, m := range data.Meds {
		if m.TakenToday {
			dash.MedsTaken++
		}
	}
	for _, r := range data.Reminders {
		if r.Active {
			dash.RemindersActiveCount++
		}
	}
	for _, a := range data.Activities {
		if a.DoneToday {
			dash.ActivitiesDoneCount++
		}
	}

	dash.NextMedication = nextMedication(data.Meds, now)
	dash.UpcomingAppointments = upcomingAppointments(data.Appointments)
	dash.UpcomingReminders = upcomingReminders(data.Reminders)

	dash.AdherenceToday = adherence(dash.MedsTaken, dash.MedsTotal)
	dash.AdherenceTrend = append(slices.Clone(adherenceBaseline), dash.AdherenceToday)
	dash.MoodTrend = append(slices.Clone(moodBaseline), data.Mood.Score())

	y, m, d := now.Date()
	for _, n := range data.Notes {
		ny, nm, nd := n.Timestamp.In(now.Location()).Date()
		if ny == y && nm == m && nd == d {
			dash.NotesToday++
		}
	}
	return dash
}

// Overview condenses a snapshot for the caretaker's patient list.
func Overview(data model.Data, now time.Time) model.PatientOverview {
	dash := Summarize(data, now)
	return model.PatientOverview{
		Username:       dash.Username,
		Mood:           data.Mood,
		TasksDone:      dash.TasksDone,
		TasksTotal:     dash.TasksTotal,
		MedsTaken:      dash.MedsTaken,
		MedsTotal:      dash.MedsTotal,
		AdherenceToday: dash.AdherenceToday,
		NextMedication: dash.NextMedication,
	}
}

func adherence(taken, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return math.Round(1000*float64(taken)/float64(total)) / 10
}

// nextMedication picks the earliest untaken dose still ahead today. It does
// not wrap around to tomorrow.
func nextMedication(meds []model.Medication, now time.Time) *model.Medication {
	current := now.Hour()*60 + now.Minute()
	var next *model.Medication
	best := math.MaxInt
	for i := range meds {
		if meds[i].TakenToday {
			continue
		}
		at, ok := parseClock(meds[i].Time)
		if !ok || at < current {
			continue
		}
		if at < best {
			best = at
			med := meds[i]
			next = &med
		}
	}
	return next
}

func sortKey(s string) time.Time {
	if t, ok := ParseDatetime(s); ok {
		return t
	}
	return farFuture
}

func formatWhen(s string) string {
	if t, ok := ParseDatetime(s); ok {
		return t.In(time.Local).Format(whenLayout)
	}
	return ""
}

func upcomingAppointments(items []model.Appointment) []model.UpcomingAppointment {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b model.Appointment) int {
		return sortKey(a.Datetime).Compare(sortKey(b.Datetime))
	})
	out := make([]model.UpcomingAppointment, 0, upcomingLimit)
	for _, a := range sorted[:min(len(sorted), upcomingLimit)] {
		out = append(out, model.UpcomingAppointment{Appointment: a, When: formatWhen(a.Datetime)})
	}
	return out
}

func upcomingReminders(items []model.Reminder) []model.UpcomingReminder {
	active := make([]model.Reminder, 0, len(items))
	for _, r := range items {
		if r.Active {
			active = append(active, r)
		}
	}
	slices.SortStableFunc(active, func(a, b model.Reminder) int {
		return sortKey(a.Datetime).Compare(sortKey(b.Datetime))
	})
	out := make([]model.UpcomingReminder, 0, upcomingLimit)
	for _, r := range active[:min(len(active), upcomingLimit)] {
		out = append(out, model.UpcomingReminder{Reminder: r, When: formatWhen(r.Datetime)})
	}
	return out
}
