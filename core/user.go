package core

import "strings"

// User is a member, contact, search result or message author.
type User struct {
	ID        int    `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
}

// DisplayName returns "First Last".
func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Profile is the account of a user as returned by GET /user/{id}.
type Profile = User

// ProfileUpdate holds the changed fields of a profile. Nil fields are not sent.
type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,alpha,min=2,max=20"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,alpha,min=2,max=40"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Password  *string `json:"password,omitempty" validate:"omitempty,password"`
}

// Empty reports whether no field is set.
func (p ProfileUpdate) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.Password == nil
}

// Diff returns an update with only the fields of next that differ from prev.
// A non-empty password is always included since the current one is never known.
func Diff(prev Profile, next Profile, password string) ProfileUpdate {
	var u ProfileUpdate
	if next.FirstName != prev.FirstName {
		u.FirstName = &next.FirstName
	}
	if next.LastName != prev.LastName {
		u.LastName = &next.LastName
	}
	if next.Email != prev.Email {
		u.Email = &next.Email
	}
	if password != "" {
		u.Password = &password
	}
	return u
}

// Credentials is the body of POST /login.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

// LoginResult is the response of POST /login.
type LoginResult struct {
	UserID int    `json:"id"`
	Token  string `json:"token"`
}

// Registration is the body of POST /user.
type Registration struct {
	FirstName string `json:"first_name" validate:"required,alpha,min=2,max=20"`
	LastName  string `json:"last_name" validate:"required,alpha,min=2,max=40"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,password"`
}

// SearchQuery is the input of GET /search. The search scope is always "all".
type SearchQuery struct {
	Term string `validate:"required,searchterm"`
	Page Page
}

// SearchResult is an entry of GET /search. The search endpoint names the user
// given_name and family_name instead of first_name and last_name.
type SearchResult struct {
	ID         int    `json:"user_id"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Email      string `json:"email,omitempty"`
}

func NewSearchResult(u User) SearchResult {
	return SearchResult{ID: u.ID, GivenName: u.FirstName, FamilyName: u.LastName, Email: u.Email}
}

func (r SearchResult) User() User {
	return User{ID: r.ID, FirstName: r.GivenName, LastName: r.FamilyName, Email: r.Email}
}

// Photo is a profile picture.
type Photo struct {
	ContentType string
	Data        []byte
}
