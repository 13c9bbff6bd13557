package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/putto11262002/whatsthat/core"
)

type chatNamePayload struct {
	Name string `json:"name"`
}

type createChatResponse struct {
	ID int `json:"chat_id"`
}

type messagePayload struct {
	Message string `json:"message"`
}

var (
	chatMessages = map[int]string{
		http.StatusForbidden: "Forbidden. You are not a member of this chat.",
		http.StatusNotFound:  "Chat not found. It may have been deleted.",
	}
	messageMessages = map[int]string{
		http.StatusBadRequest: "Bad request. The message could not be saved.",
		http.StatusForbidden:  "Forbidden. You can only change your own messages.",
		http.StatusNotFound:   "Message not found. It may have been deleted.",
	}
	memberMessages = map[int]string{
		http.StatusBadRequest: "Bad request. The user could not be added or removed.",
		http.StatusNotFound:   "Chat or user not found.",
	}
)

func chatPath(chatID int) string {
	return fmt.Sprintf("/chat/%d", chatID)
}

func messagePath(chatID, messageID int) string {
	return fmt.Sprintf("/chat/%d/message/%d", chatID, messageID)
}

func memberPath(chatID, userID int) string {
	return fmt.Sprintf("/chat/%d/user/%d", chatID, userID)
}

func validateChatName(name string) error {
	if strings.TrimSpace(name) == "" {
		return core.NewValidationError("Chat name cannot be empty. Please enter a chat name.")
	}
	return nil
}

func validateMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return core.NewValidationError("Message cannot be empty.")
	}
	return nil
}

// ListChats returns the chats of the session user.
func (c *Client) ListChats(ctx context.Context) ([]core.ChatSummary, error) {
	chats := []core.ChatSummary{}
	err := c.doJSON(ctx, call{
		op:     "list chats",
		method: http.MethodGet,
		path:   "/chat",
		expect: http.StatusOK,
		messages: map[int]string{
			http.StatusInternalServerError: "An error occurred while fetching chats. Please try again.",
		},
	}, &chats)
	if err != nil {
		return nil, err
	}
	return chats, nil
}

// CreateChat creates a chat owned by the session user and returns its id.
func (c *Client) CreateChat(ctx context.Context, name string) (int, error) {
	if err := validateChatName(name); err != nil {
		return 0, err
	}
	var res createChatResponse
	err := c.doJSON(ctx, call{
		op:     "create chat",
		method: http.MethodPost,
		path:   "/chat",
		body:   chatNamePayload{Name: name},
		expect: http.StatusCreated,
	}, &res)
	if err != nil {
		return 0, err
	}
	return res.ID, nil
}

func (c *Client) RenameChat(ctx context.Context, chatID int, name string) error {
	if err := validateChatName(name); err != nil {
		return err
	}
	return c.exec(ctx, call{
		op:       "rename chat",
		method:   http.MethodPatch,
		path:     chatPath(chatID),
		body:     chatNamePayload{Name: name},
		expect:   http.StatusOK,
		messages: chatMessages,
	})
}

// GetChat returns the messages and members of a chat.
// The page is passed to the backend untouched.
func (c *Client) GetChat(ctx context.Context, chatID int, page core.Page) (*core.Conversation, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	var conv core.Conversation
	err := c.doJSON(ctx, call{
		op:       "get chat",
		method:   http.MethodGet,
		path:     chatPath(chatID),
		query:    pageQuery(page),
		expect:   http.StatusOK,
		messages: chatMessages,
	}, &conv)
	if err != nil {
		return nil, err
	}
	conv.ID = chatID
	return &conv, nil
}

func (c *Client) SendMessage(ctx context.Context, chatID int, text string) error {
	if err := validateMessage(text); err != nil {
		return err
	}
	return c.exec(ctx, call{
		op:     "send message",
		method: http.MethodPost,
		path:   chatPath(chatID) + "/message",
		body:   messagePayload{Message: text},
		expect: http.StatusOK,
		messages: map[int]string{
			http.StatusForbidden: "Forbidden. You are not a member of this chat.",
			http.StatusNotFound:  "Chat not found. It may have been deleted.",
		},
	})
}

func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int) error {
	return c.exec(ctx, call{
		op:       "delete message",
		method:   http.MethodDelete,
		path:     messagePath(chatID, messageID),
		expect:   http.StatusOK,
		messages: messageMessages,
	})
}

func (c *Client) UpdateMessage(ctx context.Context, chatID, messageID int, text string) error {
	if err := validateMessage(text); err != nil {
		return err
	}
	return c.exec(ctx, call{
		op:       "update message",
		method:   http.MethodPatch,
		path:     messagePath(chatID, messageID),
		body:     messagePayload{Message: text},
		expect:   http.StatusOK,
		messages: messageMessages,
	})
}

// AddMember adds a user to a chat.
func (c *Client) AddMember(ctx context.Context, chatID, userID int) error {
	return c.exec(ctx, call{
		op:       "add member",
		method:   http.MethodPost,
		path:     memberPath(chatID, userID),
		expect:   http.StatusOK,
		messages: memberMessages,
	})
}

// RemoveMember removes a user from a chat. Removing the session user is allowed.
func (c *Client) RemoveMember(ctx context.Context, chatID, userID int) error {
	return c.exec(ctx, call{
		op:       "remove member",
		method:   http.MethodDelete,
		path:     memberPath(chatID, userID),
		expect:   http.StatusOK,
		messages: memberMessages,
	})
}
