package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/putto11262002/whatsthat/core"
)

type registerResponse struct {
	UserID int `json:"user_id"`
}

func userPath(userID int) string {
	return fmt.Sprintf("/user/%d", userID)
}

var profileMessages = map[int]string{
	http.StatusNotFound: "User not found. Please try again with a valid user ID.",
}

// GetProfile returns the profile of a user.
func (c *Client) GetProfile(ctx context.Context, userID int) (*core.Profile, error) {
	var p core.Profile
	if err := c.doJSON(ctx, call{
		op:       "get profile",
		method:   http.MethodGet,
		path:     userPath(userID),
		expect:   http.StatusOK,
		messages: profileMessages,
	}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Me returns the profile of the session user.
func (c *Client) Me(ctx context.Context) (*core.Profile, error) {
	id, err := c.session.UserID(ctx)
	if err != nil {
		return nil, err
	}
	return c.GetProfile(ctx, id)
}

// UpdateProfile sends the changed fields of the profile of userID.
func (c *Client) UpdateProfile(ctx context.Context, userID int, update core.ProfileUpdate) error {
	if err := update.Validate(); err != nil {
		return err
	}
	return c.exec(ctx, call{
		op:     "update profile",
		method: http.MethodPatch,
		path:   userPath(userID),
		body:   update,
		expect: http.StatusOK,
		messages: map[int]string{
			http.StatusBadRequest: "Bad request. Please try again with valid profile data.",
			http.StatusForbidden:  "Forbidden. You do not have permission to update this user.",
			http.StatusNotFound:   "User not found. Please try again with a valid user ID.",
		},
	})
}

// Login exchanges credentials for a session and stores it.
func (c *Client) Login(ctx context.Context, creds core.Credentials) (*core.LoginResult, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	var res core.LoginResult
	if err := c.doJSON(ctx, call{
		op:        "login",
		method:    http.MethodPost,
		path:      "/login",
		body:      creds,
		anonymous: true,
		expect:    http.StatusOK,
		messages: map[int]string{
			http.StatusBadRequest: "Invalid email or password.",
		},
	}, &res); err != nil {
		return nil, err
	}
	if err := c.session.SetSession(ctx, res.Token, res.UserID); err != nil {
		return nil, err
	}
	return &res, nil
}

// Logout ends the session. The local session is cleared even when the backend
// already considers the token invalid.
func (c *Client) Logout(ctx context.Context) error {
	err := c.exec(ctx, call{
		op:     "logout",
		method: http.MethodPost,
		path:   "/logout",
		expect: http.StatusOK,
	})
	if err != nil && !errors.Is(err, core.ErrUnauthorized) {
		return err
	}
	return c.session.ClearSession(ctx)
}

// Register creates an account and returns its user id.
func (c *Client) Register(ctx context.Context, reg core.Registration) (int, error) {
	if err := reg.Validate(); err != nil {
		return 0, err
	}
	var res registerResponse
	if err := c.doJSON(ctx, call{
		op:        "register",
		method:    http.MethodPost,
		path:      "/user",
		body:      reg,
		anonymous: true,
		expect:    http.StatusCreated,
		messages: map[int]string{
			http.StatusBadRequest: "Bad request. The email may already be in use or the password is too weak.",
		},
	}, &res); err != nil {
		return 0, err
	}
	return res.UserID, nil
}

// UploadPhoto replaces the profile picture of the session user.
// The content type is detected from the data and must be an image.
func (c *Client) UploadPhoto(ctx context.Context, r io.Reader) error {
	id, err := c.session.UserID(ctx)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read photo: %w", err)
	}
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return core.NewErrorf(core.ErrValidation, "The photo must be an image, got %s.", mtype.String())
	}
	return c.exec(ctx, call{
		op:          "upload photo",
		method:      http.MethodPost,
		path:        userPath(id) + "/photo",
		raw:         data,
		contentType: mtype.String(),
		expect:      http.StatusOK,
		messages: map[int]string{
			http.StatusBadRequest: "Bad request. The photo could not be uploaded.",
			http.StatusNotFound:   "User not found. Please try again with a valid user ID.",
		},
	})
}

// FetchPhoto returns the profile picture of a user.
func (c *Client) FetchPhoto(ctx context.Context, userID int) (*core.Photo, error) {
	res, err := c.do(ctx, call{
		op:       "fetch photo",
		method:   http.MethodGet,
		path:     userPath(userID) + "/photo",
		expect:   http.StatusOK,
		messages: profileMessages,
	})
	if err != nil {
		return nil, err
	}
	ct := res.header.Get("Content-Type")
	if ct == "" {
		ct = mimetype.Detect(res.body).String()
	}
	return &core.Photo{ContentType: ct, Data: res.body}, nil
}
