package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrUnknownAction = errors.New("unknown action")

const (
	TagAddTask           = "add_task"
	TagToggleTask        = "toggle_task"
	TagDeleteTask        = "delete_task"
	TagAddMedication     = "add_med"
	TagToggleMedication  = "toggle_med"
	TagDeleteMedication  = "delete_med"
	TagAddNote           = "add_note"
	TagDeleteNote        = "delete_note"
	TagSetMood           = "set_mood"
	TagAddAppointment    = "add_appointment"
	TagDeleteAppointment = "delete_appointment"
	TagAddReminder       = "add_reminder"
	TagToggleReminder    = "toggle_reminder"
	TagDeleteReminder    = "delete_reminder"
	TagAddActivity       = "add_activity"
	TagToggleActivity    = "toggle_activity"
	TagDeleteActivity    = "delete_activity"
	TagDeleteFile        = "delete_file"
)

// Action is a mutation of a patient record. The set of implementations is
// closed: only the types in this file satisfy it.
type Action interface {
	Tag() string
	isAction()
}

type AddTask struct{ Title string }
type ToggleTask struct{ ID string }
type DeleteTask struct{ ID string }

type AddMedication struct{ Name, Time string }
type ToggleMedication struct{ ID string }
type DeleteMedication struct{ ID string }

type AddNote struct{ Mood, Text string }
type DeleteNote struct{ ID string }
type SetMood struct{ Mood string }

type AddAppointment struct{ Title, Datetime string }
type DeleteAppointment struct{ ID string }

type AddReminder struct{ Title, Datetime, Kind string }
type ToggleReminder struct{ ID string }
type DeleteReminder struct{ ID string }

type AddActivity struct{ Title string }
type ToggleActivity struct{ ID string }
type DeleteActivity struct{ ID string }

type DeleteFile struct{ Name string }

func (AddTask) Tag() string           { return TagAddTask }
func (ToggleTask) Tag() string        { return TagToggleTask }
func (DeleteTask) Tag() string        { return TagDeleteTask }
func (AddMedication) Tag() string     { return TagAddMedication }
func (ToggleMedication) Tag() string  { return TagToggleMedication }
func (DeleteMedication) Tag() string  { return TagDeleteMedication }
func (AddNote) Tag() string           { return TagAddNote }
func (DeleteNote) Tag() string        { return TagDeleteNote }
func (SetMood) Tag() string           { return TagSetMood }
func (AddAppointment) Tag() string    { return TagAddAppointment }
func (DeleteAppointment) Tag() string { return TagDeleteAppointment }
func (AddReminder) Tag() string       { return TagAddReminder }
func (ToggleReminder) Tag() string    { return TagToggleReminder }
func (DeleteReminder) Tag() string    { return TagDeleteReminder }
func (AddActivity) Tag() string       { return TagAddActivity }
func (ToggleActivity) Tag() string    { return TagToggleActivity }
func (DeleteActivity) Tag() string    { return TagDeleteActivity }
func (DeleteFile) Tag() string        { return TagDeleteFile }

func (AddTask) isAction()           {}
func (ToggleTask) isAction()        {}
func (DeleteTask) isAction()        {}
func (AddMedication) isAction()     {}
func (ToggleMedication) isAction()  {}
func (DeleteMedication) isAction()  {}
func (AddNote) isAction()           {}
func (DeleteNote) isAction()        {}
func (SetMood) isAction()           {}
func (AddAppointment) isAction()    {}
func (DeleteAppointment) isAction() {}
func (AddReminder) isAction()       {}
func (ToggleReminder) isAction()    {}
func (DeleteReminder) isAction()    {}
func (AddActivity) isAction()       {}
func (ToggleActivity) isAction()    {}
func (DeleteActivity) isAction()    {}
func (DeleteFile) isAction()        {}

// ParseAction decodes a submitted action form. The discriminator is the
// "action" field; the remaining fields depend on it.
func ParseAction(form url.Values) (Action, error) {
	get := func(key string) string { return strings.TrimSpace(form.Get(key)) }
	// Date pickers post "date", the datetime widgets post "datetime".
	when := get("datetime")
	if when == "" {
		when = get("date")
	}

	switch tag := get("action"); tag {
	case TagAddTask:
		return AddTask{Title: get("title")}, nil
	case TagToggleTask:
		return ToggleTask{ID: get("id")}, nil
	case TagDeleteTask:
		return DeleteTask{ID: get("id")}, nil
	case TagAddMedication:
		name := get("name")
		if name == "" {
			name = get("title")
		}
		return AddMedication{Name: name, Time: get("time")}, nil
	case TagToggleMedication:
		return ToggleMedication{ID: get("id")}, nil
	case TagDeleteMedication:
		return DeleteMedication{ID: get("id")}, nil
	case TagAddNote:
		return AddNote{Mood: get("mood"), Text: get("text")}, nil
	case TagDeleteNote:
		return DeleteNote{ID: get("id")}, nil
	case TagSetMood:
		return SetMood{Mood: get("mood")}, nil
	case TagAddAppointment:
		return AddAppointment{Title: get("title"), Datetime: when}, nil
	case TagDeleteAppointment:
		return DeleteAppointment{ID: get("id")}, nil
	case TagAddReminder:
		return AddReminder{Title: get("title"), Datetime: when, Kind: get("kind")}, nil
	case TagToggleReminder:
		return ToggleReminder{ID: get("id")}, nil
	case TagDeleteReminder:
		return DeleteReminder{ID: get("id")}, nil
	case TagAddActivity:
		return AddActivity{Title: get("title")}, nil
	case TagToggleActivity:
		return ToggleActivity{ID: get("id")}, nil
	case TagDeleteActivity:
		return DeleteActivity{ID: get("id")}, nil
	case TagDeleteFile:
		name := get("name")
		if name == "" {
			name = get("id")
		}
		return DeleteFile{Name: name}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, tag)
	}
}

// Outcome tells the caller where to send the browser next and, optionally,
// what to tell the user.
type Outcome struct {
	Redirect string
	Notice   string
}
