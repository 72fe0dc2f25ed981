package model

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Mood string

const (
	MoodCheerful Mood = "Cheerful"
	MoodCalm     Mood = "Calm"
	MoodOkay     Mood = "Okay"
	MoodTired    Mood = "Tired"
	MoodLow      Mood = "Low"
)

// Moods lists the accepted labels, happiest first.
var Moods = []Mood{MoodCheerful, MoodCalm, MoodOkay, MoodTired, MoodLow}

var moodScores = map[Mood]int{
	MoodCheerful: 5,
	MoodCalm:     4,
	MoodOkay:     3,
	MoodTired:    2,
	MoodLow:      1,
}

// ParseMood reports whether s is one of the enumerated mood labels.
func ParseMood(s string) (Mood, bool) {
	m := Mood(s)
	_, ok := moodScores[m]
	return m, ok
}

// Score maps a mood onto the 1-5 trend scale. Unknown labels score 3.
func (m Mood) Score() int {
	if s, ok := moodScores[m]; ok {
		return s
	}
	return 3
}

type Task struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

type Medication struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Time       string `json:"time"` // HH:MM, 24h
	TakenToday bool   `json:"taken_today"`
}

type Note struct {
	ID        string    `json:"id"`
	Mood      Mood      `json:"mood"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type Appointment struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Datetime string `json:"datetime"`
}

type File struct {
	Name string `json:"name"`
}

type Reminder struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Datetime string `json:"datetime"`
	Kind     string `json:"kind"`
	Active   bool   `json:"active"`
}

type Activity struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	DoneToday bool   `json:"done_today"`
}

// Data is the content of a patient record. Notes, files and reminders are
// kept newest first.
type Data struct {
	Username     string        `json:"username"`
	Tasks        []Task        `json:"tasks"`
	Meds         []Medication  `json:"meds"`
	Notes        []Note        `json:"notes"`
	Appointments []Appointment `json:"appointments"`
	Files        []File        `json:"files"`
	Mood         Mood          `json:"mood"`
	Reminders    []Reminder    `json:"reminders"`
	Activities   []Activity    `json:"activities"`
}

func (d Data) clone() Data {
	d.Tasks = slices.Clone(d.Tasks)
	d.Meds = slices.Clone(d.Meds)
	d.Notes = slices.Clone(d.Notes)
	d.Appointments = slices.Clone(d.Appointments)
	d.Files = slices.Clone(d.Files)
	d.Reminders = slices.Clone(d.Reminders)
	d.Activities = slices.Clone(d.Activities)
	return d
}

// Record owns one patient's data. All access is serialised by the record's
// own lock so concurrent requests for the same patient cannot interleave.
type Record struct {
	mu   sync.Mutex
	data Data
}

func NewRecord(data Data) *Record {
	return &Record{data: data.clone()}
}

func (r *Record) Username() string {
	return r.data.Username
}

// Update runs fn with exclusive access to the record's data.
func (r *Record) Update(fn func(d *Data)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.data)
}

// Snapshot returns a copy that shares no slices with the record.
func (r *Record) Snapshot() Data {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data.clone()
}

func NewID() string {
	return uuid.NewString()
}
