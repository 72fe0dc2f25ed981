package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"carenest/internal/auth/model"

	"github.com/stretchr/testify/assert"
)

type stubTokens map[string]model.User

func (s stubTokens) Parse(token string) (model.User, error) {
	if user, ok := s[token]; ok {
		return user, nil
	}
	return model.User{}, errors.New("bad token")
}

var tokens = stubTokens{
	"patient-token":   {Username: "rajat", Role: model.RolePatient},
	"caretaker-token": {Username: "carol", Role: model.RoleCaretaker},
}

func whoami() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(r)
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.Write([]byte(user.Username + ":" + user.Role))
	})
}

func TestAuthMiddlewareTokenSources(t *testing.T) {
	h := AuthMiddleware(tokens)(whoami())

	fromCookie := httptest.NewRequest(http.MethodGet, "/patient", nil)
	fromCookie.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "patient-token"})

	fromHeader := httptest.NewRequest(http.MethodGet, "/patient", nil)
	fromHeader.Header.Set("Authorization", "Bearer caretaker-token")

	fromQuery := httptest.NewRequest(http.MethodGet, "/ws/patients/rajat?token=patient-token", nil)

	for name, tt := range map[string]struct {
		req  *http.Request
		want string
	}{
		"cookie": {fromCookie, "rajat:patient"},
		"header": {fromHeader, "carol:caretaker"},
		"query":  {fromQuery, "rajat:patient"},
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, tt.req)
		assert.Equal(t, http.StatusOK, rec.Code, name)
		assert.Equal(t, tt.want, rec.Body.String(), name)
	}
}

func TestAuthMiddlewareRedirectsBrowsers(t *testing.T) {
	h := AuthMiddleware(tokens)(whoami())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/patient", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/patient", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "forged"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "a rejected session cookie is cleared")
}

func TestAuthMiddlewareRejectsAPIClients(t *testing.T) {
	h := AuthMiddleware(tokens)(whoami())

	api := httptest.NewRequest(http.MethodGet, "/patient", nil)
	api.Header.Set("Accept", "application/json")

	bearer := httptest.NewRequest(http.MethodGet, "/patient", nil)
	bearer.Header.Set("Authorization", "Bearer forged")

	ws := httptest.NewRequest(http.MethodGet, "/ws/patients/rajat", nil)
	ws.Header.Set("Upgrade", "websocket")

	for _, req := range []*http.Request{api, bearer, ws} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(model.RoleCaretaker, model.RoleAdmin)(whoami())

	tests := []struct {
		user *model.User
		want int
	}{
		{&model.User{Username: "carol", Role: model.RoleCaretaker}, http.StatusOK},
		{&model.User{Username: "root", Role: model.RoleAdmin}, http.StatusOK},
		{&model.User{Username: "rajat", Role: model.RolePatient}, http.StatusForbidden},
		{nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/caretaker", nil)
		if tt.user != nil {
			req = req.WithContext(WithUser(req.Context(), *tt.user))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tt.want, rec.Code, "%+v", tt.user)
	}
}

func TestSessionCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSession(rec, "abc", 3600)
	c := rec.Result().Cookies()[0]
	assert.Equal(t, SessionCookieName, c.Name)
	assert.Equal(t, "abc", c.Value)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, 3600, c.MaxAge)
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware("https://app.example")(whoami())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/patient", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	CORSMiddleware("")(whoami()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
