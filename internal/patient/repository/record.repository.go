package repository

import (
	"sort"
	"sync"
	"time"

	"carenest/internal/patient/model"
	"carenest/pkg/logger"
)

// RecordRepository keeps patient records in memory for the life of the
// process. Records are created on first reference and never removed.
type RecordRepository struct {
	mu      sync.RWMutex
	records map[string]*model.Record
	now     func() time.Time
}

func NewRecordRepository() *RecordRepository {
	return &RecordRepository{
		records: make(map[string]*model.Record),
		now:     time.Now,
	}
}

// Ensure returns the record for username, creating a seeded one if needed.
// Repeated calls return the same *Record.
func (r *RecordRepository) Ensure(username string) *model.Record {
	r.mu.RLock()
	rec, ok := r.records[username]
	r.mu.RUnlock()
	if ok {
		return rec
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[username]; ok {
		return rec
	}
	rec = model.NewRecord(seedData(username, r.now()))
	r.records[username] = rec
	logger.Sugar.Infof("Created patient record for %s", username)
	return rec
}

func (r *RecordRepository) Lookup(username string) (*model.Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[username]
	return rec, ok
}

func (r *RecordRepository) Usernames() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.records))
	for name := range r.records {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

func (r *RecordRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func seedData(username string, now time.Time) model.Data {
	tomorrow := now.AddDate(0, 0, 1)
	checkup := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 10, 0, 0, 0, now.Location())

	return model.Data{
		Username: username,
		Tasks: []model.Task{
			{ID: model.NewID(), Title: "Morning walk"},
			{ID: model.NewID(), Title: "Call family"},
		},
		Meds: []model.Medication{
			{ID: model.NewID(), Name: "Vitamin D", Time: "09:00"},
		},
		Notes:        []model.Note{},
		Appointments: []model.Appointment{},
		Files:        []model.File{},
		Mood:         model.MoodOkay,
		Reminders: []model.Reminder{
			{ID: model.NewID(), Title: "Doctor check-up", Datetime: checkup.Format("2006-01-02T15:04"), Kind: "appointment", Active: true},
		},
		Activities: []model.Activity{
			{ID: model.NewID(), Title: "Breathing exercise"},
			{ID: model.NewID(), Title: "Read 10 pages"},
		},
	}
}
