package stub

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/putto11262002/whatsthat/core"
	"github.com/putto11262002/whatsthat/pkg/router"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type chatNamePayload struct {
	Name string `json:"name" validate:"required"`
}

type createChatResponse struct {
	ID int `json:"chat_id"`
}

type messagePayload struct {
	Message string `json:"message" validate:"required"`
}

// pageFromQuery reads limit and offset. Missing values take the defaults.
func pageFromQuery(r *http.Request) (core.Page, error) {
	page := core.Page{Limit: defaultLimit}
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > maxLimit {
			return page, router.NewJsonError(http.StatusBadRequest, "invalid limit")
		}
		page.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return page, router.NewJsonError(http.StatusBadRequest, "invalid offset")
		}
		page.Offset = offset
	}
	return page, nil
}

func decodeChatName(r *http.Request) (string, error) {
	var payload chatNamePayload
	if err := decode(r, &payload); err != nil {
		return "", err
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if err := core.Validate(payload); err != nil {
		return "", err
	}
	return payload.Name, nil
}

func decodeMessage(r *http.Request) (string, error) {
	var payload messagePayload
	if err := decode(r, &payload); err != nil {
		return "", err
	}
	if strings.TrimSpace(payload.Message) == "" {
		return "", router.NewJsonError(http.StatusBadRequest, "message is a required field")
	}
	return payload.Message, nil
}

func (s *Server) listChatsHandler(w http.ResponseWriter, r *http.Request) error {
	sess := sessionFromRequest(r)
	return writeJSON(w, http.StatusOK, s.store.Chats(sess.userID))
}

func (s *Server) createChatHandler(w http.ResponseWriter, r *http.Request) error {
	sess := sessionFromRequest(r)
	name, err := decodeChatName(r)
	if err != nil {
		return err
	}
	id, err := s.store.CreateChat(sess.userID, name)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, createChatResponse{ID: id})
}

func (s *Server) getChatHandler(w http.ResponseWriter, r *http.Request) error {
	sess := sessionFromRequest(r)
	chatID, err := pathInt(r, "chatID")
	if err != nil {
		return err
	}
	page, err := pageFromQuery(r)
	if err != nil {
		return err
	}
	conv, err := s.store.Conversation(chatID, sess.userID, page)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, conv)
}

func (s *Server) renameChatHandler(w http.ResponseWriter, r *http.Request) error {
	sess := sessionFromRequest(r)
	chatID, err := pathInt(r, "chatID")
	if err != nil {
		return err
	}
	name, err := decodeChatName(r)
	if err != nil {
		return err
	}
	if err := s.store.RenameChat(chatID, sess.userID, name); err != nil {
		return err
	}
	w.WriteHeader(http.StatusOK)
	return nil
}

func (s *Server) sendMessageHandler(w http.ResponseWriter, r *http.Request) error {
	sess := sessionFromRequest(r)
	chatID, err := pathInt(r, "chatID")
	if err != nil {
		return err
	}
	text, err := decodeMessage(r)
	if err != nil {
		return err
	}
	if _, err := s.store.SendMessage(chatID, sess.userID, text); err != nil {
		return err
	}
	w.WriteHeader(http.StatusOK)
	return nil
}

func (s *Server) updateMessageHandler(w http.ResponseWriter, r *http.Request) error {
	sess := sessionFromRequest(r)
	chatID, err := pathInt(r, "chatID")
	if err != nil {
		return err
	}
	messageID, err := pathInt(r, "messageID")
	if err != nil {
		return err
	}
	text, err := decodeMessage(r)
	if err != nil {
		return err
	}
	if err := s.store.UpdateMessage(chatID, messageID, sess.userID, text); err != nil {
		return err
	}
	w.WriteHeader(http.StatusOK)
	return nil
}

func (s *Server) deleteMessageHandler(w http.ResponseWriter, r *http.Request) error {
	sess := sessionFromRequest(r)
	chatID, err := pathInt(r, "chatID")
	if err != nil {
		return err
	}
	messageID, err := pathInt(r, "messageID")
	if err != nil {
		return err
	}
	if err := s.store.DeleteMessage(chatID, messageID, sess.userID); err != nil {
		return err
	}
	w.WriteHeader(http.StatusOK)
	return nil
}

func (s *Server) addMemberHandler(w http.ResponseWriter, r *http.Request) error {
	sess := sessionFromRequest(r)
	chatID, err := pathInt(r, "chatID")
	if err != nil {
		return err
	}
	userID, err := pathInt(r, "userID")
	if err != nil {
		return err
	}
	if err := s.store.AddMember(chatID, sess.userID, userID); err != nil {
		return err
	}
	w.WriteHeader(http.StatusOK)
	return nil
}

func (s *Server) removeMemberHandler(w http.ResponseWriter, r *http.Request) error {
	sess := sessionFromRequest(r)
	chatID, err := pathInt(r, "chatID")
	if err != nil {
		return err
	}
	userID, err := pathInt(r, "userID")
	if err != nil {
		return err
	}
	if err := s.store.RemoveMember(chatID, sess.userID, userID); err != nil {
		return err
	}
	w.WriteHeader(http.StatusOK)
	return nil
}
