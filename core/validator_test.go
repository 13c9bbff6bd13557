package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsStrongPassword(t *testing.T) {
	tcs := []struct {
		password string
		ok       bool
	}{
		{password: "Secret#123", ok: true},
		{password: "Sec#12a", ok: false},
		{password: "secret#123", ok: false},
		{password: "SECRET#123", ok: false},
		{password: "Secret1234", ok: false},
		{password: "Secret#abc", ok: false},
		{password: "Secret#123" + string(make([]byte, 31)), ok: false},
	}
	for _, tc := range tcs {
		assert.Equal(t, tc.ok, IsStrongPassword(tc.password), tc.password)
	}
}

func TestIsSearchTerm(t *testing.T) {
	assert.True(t, IsSearchTerm("Mary-Jane Smith"))
	assert.False(t, IsSearchTerm(""))
	assert.False(t, IsSearchTerm("bob1"))
	assert.False(t, IsSearchTerm("bob@example.com"))
}

func TestValidate(t *testing.T) {
	tcs := []struct {
		name string
		v    interface{ Validate() error }
		msg  string
	}{
		{
			name: "missing login input",
			v:    Credentials{Email: "a@b.com"},
			msg:  "Must enter email and password",
		},
		{
			name: "bad email",
			v:    Credentials{Email: "nope", Password: "Secret#123"},
			msg:  "Must enter valid email",
		},
		{
			name: "weak password",
			v:    Registration{FirstName: "Ann", LastName: "Lee", Email: "a@b.com", Password: "password"},
			msg:  "Password isn't strong enough (One upper, one lower, one special, one number, 8 to 40 characters long)",
		},
		{
			name: "short first name",
			v:    Registration{FirstName: "A", LastName: "Lee", Email: "a@b.com", Password: "Secret#123"},
			msg:  "first name must be at least 2 characters long",
		},
		{
			name: "last name with digits",
			v:    Registration{FirstName: "Ann", LastName: "Lee2", Email: "a@b.com", Password: "Secret#123"},
			msg:  "last name must only contain letters",
		},
		{
			name: "empty update",
			v:    ProfileUpdate{},
			msg:  "Nothing to update.",
		},
		{
			name: "negative page",
			v:    Page{Offset: -1},
			msg:  "Limit and offset must not be negative.",
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.v.Validate()
			require.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, tc.msg, err.Error())
		})
	}

	assert.NoError(t, Registration{FirstName: "Ann", LastName: "Lee", Email: "a@b.com", Password: "Secret#123"}.Validate())
	name := "Annie"
	assert.NoError(t, ProfileUpdate{FirstName: &name}.Validate())
}

func TestSearchQuery_Validate(t *testing.T) {
	q := SearchQuery{Term: "  ann  ", Page: Page{Limit: 10}}
	require.NoError(t, q.Validate())
	assert.Equal(t, "ann", q.Term)

	q = SearchQuery{Term: "   "}
	err := q.Validate()
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Please enter something before searching.", err.Error())

	q = SearchQuery{Term: "ann", Page: Page{Limit: -1}}
	assert.ErrorIs(t, q.Validate(), ErrValidation)
}
