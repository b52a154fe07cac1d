package api

import (
	"errors"
	"net/http"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/auth"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/models"
)

type credentials struct {
	Email    string `form:"email" validate:"required"`
	Password string `form:"password" validate:"required"`
}

var (
	errNoUserForEmail = errors.New("no user found for this email")
	errWrongPassword  = errors.New("wrong password")
)

// readCredentials parses the email/password form. On failure it has
// already written the response.
func (api *Api) readCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Wrong format")
		return credentials{}, false
	}
	creds := credentials{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	}
	if err := api.validate.Struct(creds); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return credentials{}, false
	}
	return creds, true
}

// checkCredentials finds the user for a login form.
func (api *Api) checkCredentials(r *http.Request, creds credentials) (*models.User, error) {
	users, err := api.users.Find(r.Context(), models.Query{models.AttrEmail: creds.Email})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, errNoUserForEmail
	}
	for _, u := range users {
		if api.hasher.Verify(creds.Password, u.HashedPassword) {
			return u, nil
		}
	}
	return nil, errWrongPassword
}

// loginFailed writes the response for a checkCredentials error.
func (api *Api) loginFailed(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errNoUserForEmail):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errWrongPassword):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		api.fail(w, r, err)
	}
}

// SessionLogin checks the form credentials, starts a session and sets the
// session cookie. Strategies without sessions answer 404.
func (api *Api) SessionLogin(w http.ResponseWriter, r *http.Request) {
	sessions, ok := api.auth.(auth.SessionStarter)
	if !ok {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	creds, ok := api.readCredentials(w, r)
	if !ok {
		return
	}
	u, err := api.checkCredentials(r, creds)
	if err != nil {
		api.loginFailed(w, r, err)
		return
	}

	sessionID, err := sessions.CreateSession(r.Context(), u.ID)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	api.metrics.SessionEvent("created")

	http.SetCookie(w, &http.Cookie{
		Name:     sessions.CookieName(),
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   api.Config.Auth.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, u)
}

func (api *Api) SessionLogout(w http.ResponseWriter, r *http.Request) {
	sessions, ok := api.auth.(auth.SessionStarter)
	if !ok {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	destroyed, err := sessions.DestroySession(r.Context(), r)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	if !destroyed {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	api.metrics.SessionEvent("destroyed")
	writeJSON(w, http.StatusOK, map[string]any{})
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// TokenLogin exchanges form credentials for a bearer token.
func (api *Api) TokenLogin(w http.ResponseWriter, r *http.Request) {
	issuer, ok := api.auth.(auth.TokenIssuer)
	if !ok {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	creds, ok := api.readCredentials(w, r)
	if !ok {
		return
	}
	u, err := api.checkCredentials(r, creds)
	if err != nil {
		api.loginFailed(w, r, err)
		return
	}

	token, err := issuer.IssueToken(u)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "Bearer"})
}
