package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/putto11262002/whatsthat/core"
)

type userIDPayload struct {
	UserID int `json:"user_id"`
}

func contactPath(userID int) string {
	return fmt.Sprintf("/user/%d/contact", userID)
}

func blockPath(userID int) string {
	return fmt.Sprintf("/user/%d/block", userID)
}

var contactMessages = map[int]string{
	http.StatusBadRequest: "You can't add yourself as a contact.",
	http.StatusNotFound:   "User not found. Please try again with a valid user ID.",
}

// ListContacts returns the contacts of the session user.
func (c *Client) ListContacts(ctx context.Context) ([]core.User, error) {
	contacts := []core.User{}
	if err := c.doJSON(ctx, call{
		op:     "list contacts",
		method: http.MethodGet,
		path:   "/contacts",
		expect: http.StatusOK,
	}, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// AddContact adds a user to the contacts and returns the reply of the backend,
// "OK" or "Already a contact".
func (c *Client) AddContact(ctx context.Context, userID int) (string, error) {
	res, err := c.do(ctx, call{
		op:       "add contact",
		method:   http.MethodPost,
		path:     contactPath(userID),
		body:     userIDPayload{UserID: userID},
		expect:   http.StatusOK,
		messages: contactMessages,
	})
	if err != nil {
		return "", err
	}
	return string(res.body), nil
}

func (c *Client) DeleteContact(ctx context.Context, userID int) error {
	return c.exec(ctx, call{
		op:     "delete contact",
		method: http.MethodDelete,
		path:   contactPath(userID),
		expect: http.StatusOK,
		messages: map[int]string{
			http.StatusBadRequest: "You can't remove yourself as a contact.",
			http.StatusNotFound:   "User not found. Please try again with a valid user ID.",
		},
	})
}

func (c *Client) BlockContact(ctx context.Context, userID int) error {
	return c.exec(ctx, call{
		op:     "block contact",
		method: http.MethodPost,
		path:   blockPath(userID),
		body:   userIDPayload{UserID: userID},
		expect: http.StatusOK,
		messages: map[int]string{
			http.StatusBadRequest: "You can't block yourself.",
			http.StatusNotFound:   "User not found. Please try again with a valid user ID.",
		},
	})
}

func (c *Client) UnblockContact(ctx context.Context, userID int) error {
	return c.exec(ctx, call{
		op:     "unblock contact",
		method: http.MethodDelete,
		path:   blockPath(userID),
		expect: http.StatusOK,
		messages: map[int]string{
			http.StatusBadRequest: "You can't unblock yourself.",
			http.StatusNotFound:   "User not found. Please try again with a valid user ID.",
		},
	})
}

// ListBlocked returns the users blocked by the session user.
func (c *Client) ListBlocked(ctx context.Context) ([]core.User, error) {
	blocked := []core.User{}
	if err := c.doJSON(ctx, call{
		op:     "list blocked",
		method: http.MethodGet,
		path:   "/blocked",
		expect: http.StatusOK,
	}, &blocked); err != nil {
		return nil, err
	}
	return blocked, nil
}

// SearchUsers searches all users. The search scope is always "all".
func (c *Client) SearchUsers(ctx context.Context, q core.SearchQuery) ([]core.User, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	query := pageQuery(q.Page)
	query.Set("q", q.Term)
	query.Set("search_in", "all")

	results := []core.SearchResult{}
	if err := c.doJSON(ctx, call{
		op:     "search users",
		method: http.MethodGet,
		path:   "/search",
		query:  query,
		expect: http.StatusOK,
		messages: map[int]string{
			http.StatusBadRequest: "Bad request. Please check the search term, limit and offset.",
		},
	}, &results); err != nil {
		return nil, err
	}
	users := make([]core.User, 0, len(results))
	for _, r := range results {
		users = append(users, r.User())
	}
	return users, nil
}
