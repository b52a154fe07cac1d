package api

import (
	"errors"
	"net/http"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/auth"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/models"
)

// serviceCookie carries the single per-user session of the root service.
const serviceCookie = "session_id"

type messageResponse struct {
	Email   string `json:"email,omitempty"`
	Message string `json:"message"`
}

func (api *Api) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Bienvenue"})
}

func (api *Api) RegisterUser(w http.ResponseWriter, r *http.Request) {
	creds, ok := api.readCredentials(w, r)
	if !ok {
		return
	}
	if _, err := api.accounts.RegisterUser(r.Context(), creds.Email, creds.Password); err != nil {
		if errors.Is(err, auth.ErrDuplicateRegistration) {
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: "email already registered"})
			return
		}
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Email: creds.Email, Message: "user created"})
}

func (api *Api) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Wrong format")
		return
	}
	email := r.PostForm.Get("email")
	if !api.accounts.ValidLogin(r.Context(), email, r.PostForm.Get("password")) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	sessionID, err := api.accounts.CreateSession(r.Context(), email)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	api.metrics.SessionEvent("created")

	http.SetCookie(w, &http.Cookie{
		Name:     serviceCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   api.Config.Auth.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, messageResponse{Email: email, Message: "logged in"})
}

// sessionUser resolves the service session cookie, writing 403 when it
// names nobody.
func (api *Api) sessionUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	var sessionID string
	if c, err := r.Cookie(serviceCookie); err == nil {
		sessionID = c.Value
	}
	u, err := api.accounts.GetUserFromSessionID(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, auth.ErrNoIdentity) {
			writeError(w, http.StatusForbidden, "Forbidden")
		} else {
			api.fail(w, r, err)
		}
		return nil, false
	}
	return u, true
}

func (api *Api) Logout(w http.ResponseWriter, r *http.Request) {
	u, ok := api.sessionUser(w, r)
	if !ok {
		return
	}
	if err := api.accounts.DestroySession(r.Context(), u.ID); err != nil {
		api.fail(w, r, err)
		return
	}
	api.metrics.SessionEvent("destroyed")
	http.SetCookie(w, &http.Cookie{Name: serviceCookie, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (api *Api) Profile(w http.ResponseWriter, r *http.Request) {
	u, ok := api.sessionUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": u.Email})
}

func (api *Api) GetResetPasswordToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Wrong format")
		return
	}
	email := r.PostForm.Get("email")
	token, err := api.accounts.GetResetPasswordToken(r.Context(), email)
	if err != nil {
		if errors.Is(err, auth.ErrNoIdentity) {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": email, "reset_token": token})
}

func (api *Api) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Wrong format")
		return
	}
	email := r.PostForm.Get("email")
	err := api.accounts.UpdatePassword(r.Context(), r.PostForm.Get("reset_token"), r.PostForm.Get("new_password"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidResetToken) {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Email: email, Message: "Password updated"})
}
