package stub

import (
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/putto11262002/whatsthat/core"
	"github.com/putto11262002/whatsthat/pkg/router"
)

const maxPhotoSize = 5 << 20

type registerResponse struct {
	UserID int `json:"user_id"`
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) error {
	var creds core.Credentials
	if err := decode(r, &creds); err != nil {
		return err
	}
	if creds.Email == "" || creds.Password == "" {
		return errBadCredentials
	}
	id, err := s.store.Authenticate(creds.Email, creds.Password)
	if err != nil {
		return err
	}
	token, err := NewToken(id, s.tokenTTL, s.secret)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, core.LoginResult{UserID: id, Token: token})
}

func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) error {
	var reg core.Registration
	if err := decode(r, &reg); err != nil {
		return err
	}
	if err := reg.Validate(); err != nil {
		return err
	}
	id, err := s.store.Register(reg)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, registerResponse{UserID: id})
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) error {
	sess := sessionFromRequest(r)
	s.store.Revoke(sess.tokenID)
	w.WriteHeader(http.StatusOK)
	return nil
}

func (s *Server) listContactsHandler(w http.ResponseWriter, r *http.Request) error {
	sess := sessionFromRequest(r)
	contacts, err := s.store.Contacts(sess.userID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, contacts)
}

func (s *Server) listBlockedHandler(w http.ResponseWriter, r *http.Request) error {
	sess := sessionFromRequest(r)
	blocked, err := s.store.Blocked(sess.userID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, blocked)
}

func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) error {
	sess := sessionFromRequest(r)
	page, err := pageFromQuery(r)
	if err != nil {
		return err
	}
	var contactsOnly bool
	switch r.URL.Query().Get("search_in") {
	case "", "all":
	case "contacts":
		contactsOnly = true
	default:
		return router.NewJsonError(http.StatusBadRequest, "search_in must be all or contacts")
	}
	users, err := s.store.Search(sess.userID, r.URL.Query().Get("q"), contactsOnly, page)
	if err != nil {
		return err
	}
	results := make([]core.SearchResult, 0, len(users))
	for _, u := range users {
		results = append(results, core.NewSearchResult(u))
	}
	return writeJSON(w, http.StatusOK, results)
}

func (s *Server) addContactHandler(w http.ResponseWriter, r *http.Request) error {
	sess := sessionFromRequest(r)
	userID, err := pathInt(r, "userID")
	if err != nil {
		return err
	}
	reply, err := s.store.AddContact(sess.userID, userID)
	if err != nil {
		return err
	}
	return writeText(w, reply)
}

func (s *Server) removeContactHandler(w http.ResponseWriter, r *http.Request) error {
	sess := sessionFromRequest(r)
	userID, err := pathInt(r, "userID")
	if err != nil {
		return err
	}
	if err := s.store.RemoveContact(sess.userID, userID); err != nil {
		return err
	}
	return writeText(w, "OK")
}

func (s *Server) blockHandler(w http.ResponseWriter, r *http.Request) error {
	sess := sessionFromRequest(r)
	userID, err := pathInt(r, "userID")
	if err != nil {
		return err
	}
	if err := s.store.Block(sess.userID, userID); err != nil {
		return err
	}
	return writeText(w, "OK")
}

func (s *Server) unblockHandler(w http.ResponseWriter, r *http.Request) error {
	sess := sessionFromRequest(r)
	userID, err := pathInt(r, "userID")
	if err != nil {
		return err
	}
	if err := s.store.Unblock(sess.userID, userID); err != nil {
		return err
	}
	return writeText(w, "OK")
}

func (s *Server) getUserHandler(w http.ResponseWriter, r *http.Request) error {
	userID, err := pathInt(r, "userID")
	if err != nil {
		return err
	}
	u, err := s.store.User(userID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, u)
}

// selfOnly checks that the user in the path exists and is the session user.
func (s *Server) selfOnly(r *http.Request) (int, error) {
	sess := sessionFromRequest(r)
	userID, err := pathInt(r, "userID")
	if err != nil {
		return 0, err
	}
	if _, err := s.store.User(userID); err != nil {
		return 0, err
	}
	if userID != sess.userID {
		return 0, core.NewError(core.ErrForbidden, "you can only change your own profile")
	}
	return userID, nil
}

func (s *Server) updateUserHandler(w http.ResponseWriter, r *http.Request) error {
	userID, err := s.selfOnly(r)
	if err != nil {
		return err
	}
	var update core.ProfileUpdate
	if err := decode(r, &update); err != nil {
		return err
	}
	if err := update.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateUser(userID, update); err != nil {
		return err
	}
	w.WriteHeader(http.StatusOK)
	return nil
}

func (s *Server) uploadPhotoHandler(w http.ResponseWriter, r *http.Request) error {
	userID, err := s.selfOnly(r)
	if err != nil {
		return err
	}
	defer r.Body.Close()
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPhotoSize))
	if err != nil {
		return router.NewJsonError(http.StatusBadRequest, "photo too large")
	}
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return router.NewJsonError(http.StatusBadRequest, "photo must be an image")
	}
	if err := s.store.SetPhoto(userID, mtype.String(), data); err != nil {
		return err
	}
	w.WriteHeader(http.StatusOK)
	return nil
}

func (s *Server) getPhotoHandler(w http.ResponseWriter, r *http.Request) error {
	userID, err := pathInt(r, "userID")
	if err != nil {
		return err
	}
	contentType, data, err := s.store.Photo(userID)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(data)
	return err
}
