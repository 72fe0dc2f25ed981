package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	authModel "carenest/internal/auth/model"
	"carenest/internal/patient/model"
	"carenest/internal/patient/repository"
	"carenest/internal/patient/service"
	"carenest/middleware"
	"carenest/pkg/flash"
	"carenest/pkg/logger"
	"carenest/pkg/view"
	"carenest/socket"

	"github.com/go-chi/chi/v5"
)

type PatientHandler struct {
	Service *service.PatientService
	Hub     *socket.Hub
}

func NewPatientHandler(service *service.PatientService, hub *socket.Hub) *PatientHandler {
	return &PatientHandler{Service: service, Hub: hub}
}

func (h *PatientHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r)
	view.Render(w, r, http.StatusOK, user.Username, user.Role, h.Service.Dashboard(user.Username))
}

func (h *PatientHandler) Section(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r)
	data, err := h.Service.Section(user.Username, chi.URLParam(r, "section"))
	if errors.Is(err, service.ErrUnknownSection) {
		http.NotFound(w, r)
		return
	}
	view.Render(w, r, http.StatusOK, user.Username, user.Role, data)
}

// Action applies a submitted action to the patient's own record and
// redirects back.
func (h *PatientHandler) Action(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r)
	action, ok := h.parseAction(w, r)
	if !ok {
		http.Redirect(w, r, redirectTarget(r, "/patient"), http.StatusSeeOther)
		return
	}

	out := h.Service.Apply(user.Username, action)
	if out.Notice != "" {
		flash.Add(w, r, flash.Info, out.Notice)
	}
	http.Redirect(w, r, redirectTarget(r, out.Redirect), http.StatusSeeOther)
}

func (h *PatientHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r)
	target := redirectTarget(r, service.DefaultRedirect(model.TagDeleteFile))

	r.Body = http.MaxBytesReader(w, r.Body, repository.DefaultMaxUploadBytes+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		flash.Add(w, r, flash.Warning, "Please choose a file to upload.")
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	defer file.Close()

	name, err := h.Service.Upload(user.Username, header.Filename, file)
	switch {
	case errors.Is(err, repository.ErrExtensionNotAllowed):
		flash.Add(w, r, flash.Warning, "That file type is not allowed.")
	case errors.Is(err, repository.ErrFileTooLarge):
		flash.Add(w, r, flash.Warning, "That file is too large.")
	case errors.Is(err, repository.ErrInvalidFileName):
		flash.Add(w, r, flash.Warning, "That file name cannot be used.")
	case err != nil:
		logger.Sugar.Errorf("Handler: upload for %s failed: %v", user.Username, err)
		flash.Add(w, r, flash.Danger, "Upload failed. Please try again.")
	default:
		logger.Sugar.Infof("User %s uploaded %s", user.Username, name)
		flash.Add(w, r, flash.Success, "File uploaded.")
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// File serves one of the patient's own uploads.
func (h *PatientHandler) File(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r)
	path, ok := h.Service.FilePath(user.Username, chi.URLParam(r, "name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

func (h *PatientHandler) CaretakerIndex(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r)
	view.Render(w, r, http.StatusOK, user.Username, user.Role, h.Service.Overviews())
}

func (h *PatientHandler) CaretakerDashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r)
	dash, ok := h.Service.Find(chi.URLParam(r, "username"))
	if !ok {
		http.Error(w, "Patient not found", http.StatusNotFound)
		return
	}
	view.Render(w, r, http.StatusOK, user.Username, user.Role, dash)
}

// CaretakerAction applies an action to a patient's record on their behalf.
func (h *PatientHandler) CaretakerAction(w http.ResponseWriter, r *http.Request) {
	patient := chi.URLParam(r, "username")
	home := "/caretaker/patients/" + url.PathEscape(patient)

	action, ok := h.parseAction(w, r)
	if !ok {
		http.Redirect(w, r, redirectTarget(r, home), http.StatusSeeOther)
		return
	}

	out, found := h.Service.ApplyExisting(patient, action)
	if !found {
		http.Error(w, "Patient not found", http.StatusNotFound)
		return
	}
	if out.Notice != "" {
		flash.Add(w, r, flash.Info, out.Notice)
	}
	http.Redirect(w, r, redirectTarget(r, home), http.StatusSeeOther)
}

// LiveFeed subscribes the caller to a patient's dashboard updates. Patients
// may only watch themselves.
func (h *PatientHandler) LiveFeed(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r)
	patient := chi.URLParam(r, "username")

	if user.Role == authModel.RolePatient && user.Username != patient {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if user.Role != authModel.RolePatient {
		if _, ok := h.Service.Records.Lookup(patient); !ok {
			http.Error(w, "Patient not found", http.StatusNotFound)
			return
		}
	}
	socket.ServeWs(h.Hub, w, r, patient, user.Username, user.Role)
}

func (h *PatientHandler) parseAction(w http.ResponseWriter, r *http.Request) (model.Action, bool) {
	if err := r.ParseForm(); err != nil {
		flash.Add(w, r, flash.Warning, "The form could not be read.")
		return nil, false
	}
	action, err := model.ParseAction(r.PostForm)
	if err != nil {
		logger.Sugar.Warnf("Rejected action: %v", err)
		flash.Add(w, r, flash.Warning, "Unknown action.")
		return nil, false
	}
	return action, true
}

// redirectTarget prefers the referring page when it is on this site.
func redirectTarget(r *http.Request, fallback string) string {
	ref := r.Referer()
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) {
		return fallback
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return fallback
	}
	return u.RequestURI()
}
