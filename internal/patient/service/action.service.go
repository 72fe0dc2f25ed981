package service

import (
	"slices"
	"strings"

	"carenest/internal/patient/model"
	"carenest/pkg/logger"
)

const defaultReminderKind = "general"

var defaultRedirects = map[string]string{
	model.TagAddTask:           "/patient/tasks",
	model.TagToggleTask:        "/patient/tasks",
	model.TagDeleteTask:        "/patient/tasks",
	model.TagAddMedication:     "/patient/medications",
	model.TagToggleMedication:  "/patient/medications",
	model.TagDeleteMedication:  "/patient/medications",
	model.TagAddNote:           "/patient/notes",
	model.TagDeleteNote:        "/patient/notes",
	model.TagSetMood:           "/patient",
	model.TagAddAppointment:    "/patient/appointments",
	model.TagDeleteAppointment: "/patient/appointments",
	model.TagAddReminder:       "/patient/reminders",
	model.TagToggleReminder:    "/patient/reminders",
	model.TagDeleteReminder:    "/patient/reminders",
	model.TagAddActivity:       "/patient/activities",
	model.TagToggleActivity:    "/patient/activities",
	model.TagDeleteActivity:    "/patient/activities",
	model.TagDeleteFile:        "/patient/files",
}

// DefaultRedirect is the page an action returns to when the request carried
// no usable referrer.
func DefaultRedirect(tag string) string {
	if target, ok := defaultRedirects[tag]; ok {
		return target
	}
	return "/patient"
}

// BlobRemover deletes the stored artifact behind a file entry.
type BlobRemover interface {
	Remove(username, name string) error
}

// Dispatcher applies actions to patient records. Invalid input and unknown
// ids are no-ops; nothing here returns an error.
type Dispatcher struct {
	Blobs BlobRemover
}

func NewDispatcher(blobs BlobRemover) *Dispatcher {
	return &Dispatcher{Blobs: blobs}
}

func (d *Dispatcher) Apply(rec *model.Record, action model.Action) model.Outcome {
	out := model.Outcome{Redirect: DefaultRedirect(action.Tag())}

	switch a := action.(type) {
	case model.AddTask:
		title := strings.TrimSpace(a.Title)
		if title == "" {
			return out
		}
		rec.Update(func(data *model.Data) {
			data.Tasks = append(data.Tasks, model.Task{ID: model.NewID(), Title: title})
		})
	case model.ToggleTask:
		rec.Update(func(data *model.Data) {
			if i := indexOf(data.Tasks, a.ID, func(t model.Task) string { return t.ID }); i >= 0 {
				data.Tasks[i].Done = !data.Tasks[i].Done
			}
		})
	case model.DeleteTask:
		rec.Update(func(data *model.Data) {
			data.Tasks = removeByID(data.Tasks, a.ID, func(t model.Task) string { return t.ID })
		})

	case model.AddMedication:
		name, at := strings.TrimSpace(a.Name), strings.TrimSpace(a.Time)
		if name == "" || at == "" {
			return out
		}
		rec.Update(func(data *model.Data) {
			data.Meds = append(data.Meds, model.Medication{ID: model.NewID(), Name: name, Time: at})
		})
		if _, ok := parseClock(at); !ok {
			out.Notice = "Medication saved, but the time was not recognised (use HH:MM)."
		}
	case model.ToggleMedication:
		rec.Update(func(data *model.Data) {
			if i := indexOf(data.Meds, a.ID, func(m model.Medication) string { return m.ID }); i >= 0 {
				data.Meds[i].TakenToday = !data.Meds[i].TakenToday
			}
		})
	case model.DeleteMedication:
		rec.Update(func(data *model.Data) {
			data.Meds = removeByID(data.Meds, a.ID, func(m model.Medication) string { return m.ID })
		})

	case model.AddNote:
		text := strings.TrimSpace(a.Text)
		if text == "" {
			return out
		}
		mood, valid := model.ParseMood(strings.TrimSpace(a.Mood))
		rec.Update(func(data *model.Data) {
			if !valid {
				mood = data.Mood
			} else {
				data.Mood = mood
			}
			note := model.Note{ID: model.NewID(), Mood: mood, Text: text, Timestamp: now()}
			data.Notes = slices.Insert(data.Notes, 0, note)
		})
	case model.DeleteNote:
		rec.Update(func(data *model.Data) {
			data.Notes = removeByID(data.Notes, a.ID, func(n model.Note) string { return n.ID })
		})
	case model.SetMood:
		mood, ok := model.ParseMood(strings.TrimSpace(a.Mood))
		if !ok {
			return out
		}
		rec.Update(func(data *model.Data) { data.Mood = mood })

	case model.AddAppointment:
		title, when := strings.TrimSpace(a.Title), strings.TrimSpace(a.Datetime)
		if title == "" || when == "" {
			return out
		}
		rec.Update(func(data *model.Data) {
			data.Appointments = append(data.Appointments, model.Appointment{ID: model.NewID(), Title: title, Datetime: when})
		})
		if _, ok := ParseDatetime(when); !ok {
			out.Notice = "Appointment saved, but the date was not recognised."
		}
	case model.DeleteAppointment:
		rec.Update(func(data *model.Data) {
			data.Appointments = removeByID(data.Appointments, a.ID, func(ap model.Appointment) string { return ap.ID })
		})

	case model.AddReminder:
		title, when := strings.TrimSpace(a.Title), strings.TrimSpace(a.Datetime)
		if title == "" || when == "" {
			return out
		}
		kind := strings.TrimSpace(a.Kind)
		if kind == "" {
			kind = defaultReminderKind
		}
		rec.Update(func(data *model.Data) {
			rem := model.Reminder{ID: model.NewID(), Title: title, Datetime: when, Kind: kind, Active: true}
			data.Reminders = slices.Insert(data.Reminders, 0, rem)
		})
		if _, ok := ParseDatetime(when); !ok {
			out.Notice = "Reminder saved, but the date was not recognised."
		}
	case model.ToggleReminder:
		rec.Update(func(data *model.Data) {
			if i := indexOf(data.Reminders, a.ID, func(r model.Reminder) string { return r.ID }); i >= 0 {
				data.Reminders[i].Active = !data.Reminders[i].Active
			}
		})
	case model.DeleteReminder:
		rec.Update(func(data *model.Data) {
			data.Reminders = removeByID(data.Reminders, a.ID, func(r model.Reminder) string { return r.ID })
		})

	case model.AddActivity:
		title := strings.TrimSpace(a.Title)
		if title == "" {
			return out
		}
		rec.Update(func(data *model.Data) {
			data.Activities = append(data.Activities, model.Activity{ID: model.NewID(), Title: title})
		})
	case model.ToggleActivity:
		rec.Update(func(data *model.Data) {
			if i := indexOf(data.Activities, a.ID, func(ac model.Activity) string { return ac.ID }); i >= 0 {
				data.Activities[i].DoneToday = !data.Activities[i].DoneToday
			}
		})
	case model.DeleteActivity:
		rec.Update(func(data *model.Data) {
			data.Activities = removeByID(data.Activities, a.ID, func(ac model.Activity) string { return ac.ID })
		})

	case model.DeleteFile:
		var removed bool
		rec.Update(func(data *model.Data) {
			before := len(data.Files)
			data.Files = removeByID(data.Files, a.Name, func(f model.File) string { return f.Name })
			removed = len(data.Files) < before
		})
		if removed && d.Blobs != nil {
			if err := d.Blobs.Remove(rec.Username(), a.Name); err != nil {
				logger.Sugar.Debugf("Ignoring failure to delete stored file %s for %s: %v", a.Name, rec.Username(), err)
			}
		}

	default:
		logger.Sugar.Warnf("Dispatcher: no handler for action %T", action)
	}
	return out
}

func indexOf[T any](items []T, id string, key func(T) string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(items, func(item T) bool { return key(item) == id })
}

func removeByID[T any](items []T, id string, key func(T) string) []T {
	if i := indexOf(items, id, key); i >= 0 {
		return slices.Delete(items, i, i+1)
	}
	return items
}
