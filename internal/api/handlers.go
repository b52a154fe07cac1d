package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/auth"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/models"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/store"
)

func (api *Api) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (api *Api) Stats(w http.ResponseWriter, r *http.Request) {
	n, err := api.users.Count(r.Context())
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"users": n})
}

// Unauthorized always answers 401; it exists to exercise the error body.
func (api *Api) Unauthorized(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusUnauthorized, "Unauthorized")
}

func (api *Api) Forbidden(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusForbidden, "Forbidden")
}

func (api *Api) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := api.users.Find(r.Context(), nil)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// GetUser serves /users/{id}; the id "me" names the authenticated user.
func (api *Api) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "me" {
		u, ok := auth.UserFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		writeJSON(w, http.StatusOK, u)
		return
	}

	u, err := api.users.Get(r.Context(), userID)
	if err != nil {
		api.notFoundOr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type createUserRequest struct {
	Email     string `json:"email" validate:"required,max=254"`
	Password  string `json:"password" validate:"required,max=72"`
	FirstName string `json:"first_name" validate:"max=255"`
	LastName  string `json:"last_name" validate:"max=255"`
}

func (api *Api) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Wrong format")
		return
	}
	if err := api.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	digest, err := api.hasher.Hash(req.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Can't create User: "+err.Error())
		return
	}
	u := &models.User{
		Email:          req.Email,
		HashedPassword: digest,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
	}
	if err := api.users.Add(r.Context(), u); err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			api.fail(w, r, err)
			return
		}
		writeError(w, http.StatusBadRequest, "Can't create User: "+err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

type updateUserRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=255"`
	LastName  *string `json:"last_name" validate:"omitempty,max=255"`
}

func (api *Api) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if _, err := api.users.Get(r.Context(), userID); err != nil {
		api.notFoundOr(w, r, err)
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Wrong format")
		return
	}
	if err := api.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	changes := models.Changes{}
	if req.FirstName != nil {
		changes[models.AttrFirstName] = *req.FirstName
	}
	if req.LastName != nil {
		changes[models.AttrLastName] = *req.LastName
	}
	u, err := api.users.Update(r.Context(), userID, changes)
	if err != nil {
		api.notFoundOr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (api *Api) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := api.users.Remove(r.Context(), chi.URLParam(r, "userID")); err != nil {
		api.notFoundOr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{})
}

// notFoundOr answers lookup misses with the plain "Not found" body.
func (api *Api) notFoundOr(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	api.fail(w, r, err)
}
