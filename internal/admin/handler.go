package handler

import (
	"net/http"

	"carenest/internal/patient/service"
	"carenest/middleware"
	"carenest/pkg/view"
	"carenest/socket"
)

type Overview struct {
	PatientCount int      `json:"patient_count"`
	Patients     []string `json:"patients"`
	LiveWatchers int      `json:"live_watchers"`
}

type AdminHandler struct {
	Patients *service.PatientService
	Hub      *socket.Hub
}

func NewAdminHandler(patients *service.PatientService, hub *socket.Hub) *AdminHandler {
	return &AdminHandler{Patients: patients, Hub: hub}
}

func (h *AdminHandler) Index(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r)
	patients := h.Patients.Patients()
	view.Render(w, r, http.StatusOK, user.Username, user.Role, Overview{
		PatientCount: len(patients),
		Patients:     patients,
		LiveWatchers: h.Hub.WatcherCount(),
	})
}
