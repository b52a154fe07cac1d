package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserAttributes(t *testing.T) {
	u := &User{ID: "u-1", Email: "bob@hbtn.io"}

	assert.True(t, u.Set(AttrFirstName, "Bob"))
	assert.False(t, u.Set(AttrID, "other"), "id must be immutable")
	assert.False(t, u.Set(Attr("is_admin"), "true"))

	got, ok := u.Get(AttrFirstName)
	assert.True(t, ok)
	assert.Equal(t, "Bob", got)

	_, ok = u.Get(Attr("nope"))
	assert.False(t, ok)
	assert.Equal(t, "u-1", u.ID)
}

func TestUserMatches(t *testing.T) {
	u := &User{ID: "u-1", Email: "bob@hbtn.io", FirstName: "Bob"}

	assert.True(t, u.Matches(nil))
	assert.True(t, u.Matches(Query{AttrEmail: "bob@hbtn.io"}))
	assert.True(t, u.Matches(Query{AttrEmail: "bob@hbtn.io", AttrFirstName: "Bob"}))
	assert.False(t, u.Matches(Query{AttrEmail: "bob@hbtn.io", AttrFirstName: "Alice"}))
	assert.False(t, u.Matches(Query{Attr("unknown"): ""}))
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"empty", User{}, ""},
		{"email only", User{Email: "bob@hbtn.io"}, "bob@hbtn.io"},
		{"first only", User{Email: "bob@hbtn.io", FirstName: "Bob"}, "Bob"},
		{"last only", User{Email: "bob@hbtn.io", LastName: "Dylan"}, "Dylan"},
		{"full", User{FirstName: "Bob", LastName: "Dylan"}, "Bob Dylan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.DisplayName())
		})
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	zero := time.Duration(0)
	hour := time.Hour

	s := &Session{CreatedAt: now}
	assert.False(t, s.Expired(now.Add(100*time.Hour)), "nil duration never expires")

	s.Duration = &zero
	assert.True(t, s.Expired(now))

	s.Duration = &hour
	assert.False(t, s.Expired(now.Add(time.Hour)))
	assert.True(t, s.Expired(now.Add(time.Hour+time.Second)))
}

func TestUserJSON(t *testing.T) {
	created := time.Date(2017, 9, 25, 1, 55, 17, 123456789, time.UTC)
	u := &User{
		ID:             "u-1",
		Email:          "bob@hbtn.io",
		HashedPassword: "digest",
		SessionID:      "s-1",
		CreatedAt:      created,
		UpdatedAt:      created.Add(time.Minute),
	}

	data, err := json.Marshal(u)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "2017-09-25T01:55:17", body["created_at"])
	assert.Equal(t, "2017-09-25T01:56:17", body["updated_at"])
	assert.Equal(t, "bob@hbtn.io", body["email"])
	assert.NotContains(t, body, "hashed_password")
	assert.NotContains(t, body, "session_id")
	assert.NotContains(t, body, "first_name")
}
