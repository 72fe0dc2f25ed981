package service

import (
	"encoding/json"
	"errors"
	"io"
	"slices"
	"time"

	"carenest/internal/patient/model"
	"carenest/internal/patient/repository"
	"carenest/pkg/logger"
	"carenest/socket"
)

var ErrUnknownSection = errors.New("unknown section")

// now is the clock used for note timestamps and dashboards.
var now = time.Now

// Sections are the per-collection pages under /patient.
var Sections = []string{"tasks", "medications", "notes", "appointments", "files", "reminders", "activities"}

// Broadcaster delivers live updates to whoever watches a patient.
type Broadcaster interface {
	Publish(msg socket.Message)
}

type PatientService struct {
	Records    *repository.RecordRepository
	Uploads    *repository.UploadRepository
	Dispatcher *Dispatcher
	Hub        Broadcaster
}

func NewPatientService(records *repository.RecordRepository, uploads *repository.UploadRepository, hub Broadcaster) *PatientService {
	return &PatientService{
		Records:    records,
		Uploads:    uploads,
		Dispatcher: NewDispatcher(uploads),
		Hub:        hub,
	}
}

func (s *PatientService) Dashboard(username string) model.Dashboard {
	return Summarize(s.Records.Ensure(username).Snapshot(), now())
}

// DashboardJSON is the snapshot source for the live feed.
func (s *PatientService) DashboardJSON(username string) (json.RawMessage, error) {
	return json.Marshal(s.Dashboard(username))
}

// Section returns one collection of the patient's record.
func (s *PatientService) Section(username, section string) (any, error) {
	data := s.Records.Ensure(username).Snapshot()
	switch section {
	case "tasks":
		return data.Tasks, nil
	case "medications":
		return data.Meds, nil
	case "notes":
		return data.Notes, nil
	case "appointments":
		return data.Appointments, nil
	case "files":
		return data.Files, nil
	case "reminders":
		return data.Reminders, nil
	case "activities":
		return data.Activities, nil
	default:
		return nil, ErrUnknownSection
	}
}

// Apply runs action against the patient's record and notifies watchers.
func (s *PatientService) Apply(username string, action model.Action) model.Outcome {
	return s.apply(s.Records.Ensure(username), action)
}

// ApplyExisting is Apply for callers acting on someone else's record; it
// never creates one.
func (s *PatientService) ApplyExisting(username string, action model.Action) (model.Outcome, bool) {
	rec, ok := s.Records.Lookup(username)
	if !ok {
		return model.Outcome{}, false
	}
	return s.apply(rec, action), true
}

func (s *PatientService) apply(rec *model.Record, action model.Action) model.Outcome {
	out := s.Dispatcher.Apply(rec, action)
	logger.Sugar.Debugf("Applied %s for %s", action.Tag(), rec.Username())
	s.publish(rec.Username())
	return out
}

// Upload stores a file for the patient and lists it first in their files.
func (s *PatientService) Upload(username, filename string, src io.Reader) (string, error) {
	name, err := s.Uploads.Save(username, filename, src)
	if err != nil {
		return "", err
	}
	s.Records.Ensure(username).Update(func(data *model.Data) {
		data.Files = slices.Insert(data.Files, 0, model.File{Name: name})
	})
	s.publish(username)
	return name, nil
}

// FilePath resolves a stored upload that is still listed in the record.
func (s *PatientService) FilePath(username, name string) (string, bool) {
	data := s.Records.Ensure(username).Snapshot()
	if !slices.ContainsFunc(data.Files, func(f model.File) bool { return f.Name == name }) {
		return "", false
	}
	path, err := s.Uploads.Path(username, name)
	if err != nil {
		return "", false
	}
	return path, true
}

func (s *PatientService) Patients() []string {
	return s.Records.Usernames()
}

// Overviews summarises every known patient for the caretaker page.
func (s *PatientService) Overviews() []model.PatientOverview {
	t := now()
	names := s.Records.Usernames()
	out := make([]model.PatientOverview, 0, len(names))
	for _, name := range names {
		rec, ok := s.Records.Lookup(name)
		if !ok {
			continue
		}
		out = append(out, Overview(rec.Snapshot(), t))
	}
	return out
}

func (s *PatientService) publish(username string) {
	if s.Hub == nil {
		return
	}
	payload, err := s.DashboardJSON(username)
	if err != nil {
		logger.Sugar.Errorf("Failed to encode dashboard for %s: %v", username, err)
		return
	}
	s.Hub.Publish(socket.Message{Type: socket.RecordUpdateType, Patient: username, Payload: payload})
}

// Find returns the dashboard of an existing patient without creating one.
func (s *PatientService) Find(username string) (model.Dashboard, bool) {
	rec, ok := s.Records.Lookup(username)
	if !ok {
		return model.Dashboard{}, false
	}
	return Summarize(rec.Snapshot(), now()), true
}
