package model

type UpcomingAppointment struct {
	Appointment
	When string `json:"when"`
}

type UpcomingReminder struct {
	Reminder
	When string `json:"when"`
}

// Dashboard is the read-only summary shown on a patient's home page.
type Dashboard struct {
	Username string `json:"username"`

	TasksDone            int `json:"tasks_done"`
	TasksTotal           int `json:"tasks_total"`
	MedsTaken            int `json:"meds_taken"`
	MedsTotal            int `json:"meds_total"`
	NotesCount           int `json:"notes_count"`
	AppointmentsCount    int `json:"appointments_count"`
	RemindersActiveCount int `json:"reminders_active_count"`
	ActivitiesDoneCount  int `json:"activities_done_count"`

	NextMedication       *Medication           `json:"next_medication"`
	UpcomingAppointments []UpcomingAppointment `json:"upcoming_appointments"`
	UpcomingReminders    []UpcomingReminder    `json:"upcoming_reminders"`

	AdherenceToday float64   `json:"adherence_today"`
	AdherenceTrend []float64 `json:"adherence_trend"`
	MoodTrend      []int     `json:"mood_trend"`

	NotesToday int `json:"notes_today"`
	FilesCount int `json:"files_count"`

	Record Data `json:"record"`
}

// PatientOverview is the one-line view of a patient on the caretaker page.
type PatientOverview struct {
	Username       string      `json:"username"`
	Mood           Mood        `json:"mood"`
	TasksDone      int         `json:"tasks_done"`
	TasksTotal     int         `json:"tasks_total"`
	MedsTaken      int         `json:"meds_taken"`
	MedsTotal      int         `json:"meds_total"`
	AdherenceToday float64     `json:"adherence_today"`
	NextMedication *Medication `json:"next_medication"`
}
