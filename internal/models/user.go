package models

import (
	"encoding/json"
	"time"
)

// TimestampFormat is the layout used whenever a user is rendered as JSON.
const TimestampFormat = "2006-01-02T15:04:05"

// Attr names a queryable user attribute.
type Attr string

const (
	AttrID             Attr = "id"
	AttrEmail          Attr = "email"
	AttrHashedPassword Attr = "hashed_password"
	AttrFirstName      Attr = "first_name"
	AttrLastName       Attr = "last_name"
	AttrSessionID      Attr = "session_id"
	AttrResetToken     Attr = "reset_token"
)

// Attrs lists every queryable attribute in column order.
var Attrs = []Attr{
	AttrID,
	AttrEmail,
	AttrHashedPassword,
	AttrFirstName,
	AttrLastName,
	AttrSessionID,
	AttrResetToken,
}

// Valid reports whether a is one of the known attributes.
func (a Attr) Valid() bool {
	switch a {
	case AttrID, AttrEmail, AttrHashedPassword, AttrFirstName, AttrLastName, AttrSessionID, AttrResetToken:
		return true
	}
	return false
}

// User represents a user in the system
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // never sent to clients
	FirstName      string    `json:"first_name,omitempty"`
	LastName       string    `json:"last_name,omitempty"`
	SessionID      string    `json:"-"`
	ResetToken     string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MarshalJSON renders timestamps in UTC with second precision.
func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	return json.Marshal(struct {
		plain
		CreatedAt string `json:"created_at"`
		UpdatedAt string `json:"updated_at"`
	}{
		plain:     plain(u),
		CreatedAt: u.CreatedAt.UTC().Format(TimestampFormat),
		UpdatedAt: u.UpdatedAt.UTC().Format(TimestampFormat),
	})
}

// Get returns the value of attribute a.
func (u *User) Get(a Attr) (string, bool) {
	switch a {
	case AttrID:
		return u.ID, true
	case AttrEmail:
		return u.Email, true
	case AttrHashedPassword:
		return u.HashedPassword, true
	case AttrFirstName:
		return u.FirstName, true
	case AttrLastName:
		return u.LastName, true
	case AttrSessionID:
		return u.SessionID, true
	case AttrResetToken:
		return u.ResetToken, true
	}
	return "", false
}

// Set assigns value to attribute a. The id is immutable once assigned.
func (u *User) Set(a Attr, value string) bool {
	switch a {
	case AttrEmail:
		u.Email = value
	case AttrHashedPassword:
		u.HashedPassword = value
	case AttrFirstName:
		u.FirstName = value
	case AttrLastName:
		u.LastName = value
	case AttrSessionID:
		u.SessionID = value
	case AttrResetToken:
		u.ResetToken = value
	default:
		return false
	}
	return true
}

// Matches reports whether every attribute in q equals the user's value.
// An empty query matches every user.
func (u *User) Matches(q Query) bool {
	for a, want := range q {
		got, ok := u.Get(a)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// Clone returns a copy that callers can mutate freely.
func (u *User) Clone() *User {
	c := *u
	return &c
}

// DisplayName picks the best human readable name for the user.
func (u *User) DisplayName() string {
	switch {
	case u.Email == "" && u.FirstName == "" && u.LastName == "":
		return ""
	case u.FirstName == "" && u.LastName == "":
		return u.Email
	case u.LastName == "":
		return u.FirstName
	case u.FirstName == "":
		return u.LastName
	}
	return u.FirstName + " " + u.LastName
}

// Query is an attribute-equality filter, ANDed across entries.
type Query map[Attr]string

// Changes is a set of attribute assignments applied by an update.
type Changes map[Attr]string
