package stub

import (
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/putto11262002/whatsthat/core"
)

var (
	errUserNotFound    = core.NewError(core.ErrNotFound, "user not found")
	errChatNotFound    = core.NewError(core.ErrNotFound, "chat not found")
	errMessageNotFound = core.NewError(core.ErrNotFound, "message not found")
	errNotMember       = core.NewError(core.ErrForbidden, "not a member of this chat")
	errNotAuthor       = core.NewError(core.ErrForbidden, "not the author of this message")
	errBadCredentials  = core.NewError(core.ErrBadRequest, "invalid email or password")
	errEmailTaken      = core.NewError(core.ErrBadRequest, "email already in use")
)

type user struct {
	core.User
	password  []byte
	contacts  map[int]bool
	blocked   map[int]bool
	photo     []byte
	photoType string
}

type chat struct {
	id      int
	name    string
	creator int
	// members in join order
	members []int
	// messages oldest first
	messages []core.Message
}

func (c *chat) isMember(userID int) bool {
	for _, id := range c.members {
		if id == userID {
			return true
		}
	}
	return false
}

// Store is the in-memory state of the backend. It is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	users  map[int]*user
	emails map[string]int
	chats  map[int]*chat
	// revoked holds the ids of tokens ended by logout.
	revoked map[string]bool

	nextUserID    int
	nextChatID    int
	nextMessageID int

	cost int
	now  func() time.Time
}

type StoreOption func(*Store)

// WithPasswordCost sets the bcrypt cost of password hashes.
func WithPasswordCost(cost int) StoreOption {
	return func(s *Store) {
		s.cost = cost
	}
}

// WithClock sets the clock used to stamp messages.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		users:   make(map[int]*user),
		emails:  make(map[string]int),
		chats:   make(map[int]*chat),
		revoked: make(map[string]bool),
		cost:    bcrypt.DefaultCost,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user and returns its id.
func (s *Store) Register(reg core.Registration) (int, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(reg.Email)
	if _, ok := s.emails[email]; ok {
		return 0, errEmailTaken
	}
	s.nextUserID++
	u := &user{
		User: core.User{
			ID:        s.nextUserID,
			FirstName: reg.FirstName,
			LastName:  reg.LastName,
			Email:     reg.Email,
		},
		password: hash,
		contacts: make(map[int]bool),
		blocked:  make(map[int]bool),
	}
	s.users[u.ID] = u
	s.emails[email] = u.ID
	return u.ID, nil
}

// Authenticate returns the id of the user with the given credentials.
func (s *Store) Authenticate(email, password string) (int, error) {
	s.mu.Lock()
	id, ok := s.emails[strings.ToLower(email)]
	var hash []byte
	if ok {
		hash = s.users[id].password
	}
	s.mu.Unlock()
	if !ok {
		return 0, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return 0, errBadCredentials
	}
	return id, nil
}

func (s *Store) Revoke(tokenID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = true
}

func (s *Store) Revoked(tokenID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revoked[tokenID]
}

func (s *Store) user(id int) (*user, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, errUserNotFound
	}
	return u, nil
}

func (s *Store) User(id int) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(id)
	if err != nil {
		return core.User{}, err
	}
	return u.User, nil
}

// UpdateUser applies the set fields of update to the user.
func (s *Store) UpdateUser(id int, update core.ProfileUpdate) error {
	var hash []byte
	if update.Password != nil {
		var err error
		if hash, err = bcrypt.GenerateFromPassword([]byte(*update.Password), s.cost); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(id)
	if err != nil {
		return err
	}
	if update.Email != nil {
		email := strings.ToLower(*update.Email)
		if other, ok := s.emails[email]; ok && other != id {
			return errEmailTaken
		}
		delete(s.emails, strings.ToLower(u.Email))
		s.emails[email] = id
		u.Email = *update.Email
	}
	if update.FirstName != nil {
		u.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		u.LastName = *update.LastName
	}
	if hash != nil {
		u.password = hash
	}
	return nil
}

func (s *Store) SetPhoto(id int, contentType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(id)
	if err != nil {
		return err
	}
	u.photo = data
	u.photoType = contentType
	return nil
}

func (s *Store) Photo(id int) (string, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(id)
	if err != nil {
		return "", nil, err
	}
	if u.photo == nil {
		return "", nil, core.NewError(core.ErrNotFound, "no photo")
	}
	return u.photoType, u.photo, nil
}

// publicUsers returns the records of ids, sorted by id.
func (s *Store) publicUsers(ids map[int]bool) []core.User {
	res := make([]core.User, 0, len(ids))
	for id := range ids {
		if u, ok := s.users[id]; ok {
			res = append(res, u.User)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// AddContact returns "OK", or "Already a contact" when nothing changed.
func (s *Store) AddContact(id, contactID int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, c, err := s.pair(id, contactID, "You can't add yourself as a contact")
	if err != nil {
		return "", err
	}
	if u.contacts[c.ID] {
		return "Already a contact", nil
	}
	u.contacts[c.ID] = true
	return "OK", nil
}

func (s *Store) RemoveContact(id, contactID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, c, err := s.pair(id, contactID, "You can't remove yourself as a contact")
	if err != nil {
		return err
	}
	delete(u.contacts, c.ID)
	return nil
}

// Block moves a user from the contacts to the blocked list.
func (s *Store) Block(id, blockedID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, b, err := s.pair(id, blockedID, "You can't block yourself")
	if err != nil {
		return err
	}
	delete(u.contacts, b.ID)
	u.blocked[b.ID] = true
	return nil
}

func (s *Store) Unblock(id, blockedID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, b, err := s.pair(id, blockedID, "You can't unblock yourself")
	if err != nil {
		return err
	}
	delete(u.blocked, b.ID)
	return nil
}

// pair looks up two distinct users. self is the message when both ids are equal.
func (s *Store) pair(id, otherID int, self string) (*user, *user, error) {
	u, err := s.user(id)
	if err != nil {
		return nil, nil, err
	}
	other, err := s.user(otherID)
	if err != nil {
		return nil, nil, err
	}
	if id == otherID {
		return nil, nil, core.NewError(core.ErrBadRequest, self)
	}
	return u, other, nil
}

func (s *Store) Contacts(id int) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(id)
	if err != nil {
		return nil, err
	}
	return s.publicUsers(u.contacts), nil
}

func (s *Store) Blocked(id int) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(id)
	if err != nil {
		return nil, err
	}
	return s.publicUsers(u.blocked), nil
}

// Search returns the users whose name or email contains term, ignoring case.
// With contactsOnly only the contacts of id are searched.
func (s *Store) Search(id int, term string, contactsOnly bool, page core.Page) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(id)
	if err != nil {
		return nil, err
	}
	candidates := make(map[int]bool)
	for uid := range s.users {
		if !contactsOnly || u.contacts[uid] {
			candidates[uid] = true
		}
	}
	term = strings.ToLower(term)
	matches := []core.User{}
	for _, c := range s.publicUsers(candidates) {
		haystack := strings.ToLower(c.FirstName + " " + c.LastName + " " + c.Email)
		if strings.Contains(haystack, term) {
			matches = append(matches, c)
		}
	}
	return paginate(matches, page), nil
}

func paginate[T any](items []T, page core.Page) []T {
	if page.Offset >= len(items) {
		return []T{}
	}
	items = items[page.Offset:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}

// CreateChat creates a chat with the creator as its only member.
func (s *Store) CreateChat(creator int, name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.user(creator); err != nil {
		return 0, err
	}
	s.nextChatID++
	s.chats[s.nextChatID] = &chat{
		id:      s.nextChatID,
		name:    name,
		creator: creator,
		members: []int{creator},
	}
	return s.nextChatID, nil
}

// memberChat returns the chat if userID is one of its members.
func (s *Store) memberChat(chatID, userID int) (*chat, error) {
	c, ok := s.chats[chatID]
	if !ok {
		return nil, errChatNotFound
	}
	if !c.isMember(userID) {
		return nil, errNotMember
	}
	return c, nil
}

func (s *Store) Chats(userID int) []core.ChatSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := []core.ChatSummary{}
	ids := make([]int, 0, len(s.chats))
	for id := range s.chats {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		c := s.chats[id]
		if !c.isMember(userID) {
			continue
		}
		summary := core.ChatSummary{ID: c.id, Name: c.name, Creator: s.author(c.creator)}
		if n := len(c.messages); n > 0 {
			last := c.messages[n-1]
			summary.LastMessage = &last
		}
		res = append(res, summary)
	}
	return res
}

func (s *Store) author(id int) *core.User {
	u, ok := s.users[id]
	if !ok {
		return &core.User{ID: id}
	}
	a := u.User
	a.Email = ""
	return &a
}

func (s *Store) RenameChat(chatID, userID int, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.memberChat(chatID, userID)
	if err != nil {
		return err
	}
	c.name = name
	return nil
}

// Conversation returns the chat with its messages newest first.
func (s *Store) Conversation(chatID, userID int, page core.Page) (*core.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.memberChat(chatID, userID)
	if err != nil {
		return nil, err
	}
	conv := &core.Conversation{
		ID:       c.id,
		Name:     c.name,
		Creator:  s.author(c.creator),
		Members:  make([]core.User, 0, len(c.members)),
		Messages: make([]core.Message, 0, len(c.messages)),
	}
	for _, id := range c.members {
		conv.Members = append(conv.Members, *s.author(id))
	}
	for i := len(c.messages) - 1; i >= 0; i-- {
		conv.Messages = append(conv.Messages, c.messages[i])
	}
	conv.Messages = paginate(conv.Messages, page)
	return conv, nil
}

func (s *Store) SendMessage(chatID, userID int, text string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.memberChat(chatID, userID)
	if err != nil {
		return 0, err
	}
	s.nextMessageID++
	c.messages = append(c.messages, core.Message{
		ID:        s.nextMessageID,
		Timestamp: s.now().UnixMilli(),
		Body:      text,
		Author:    *s.author(userID),
	})
	return s.nextMessageID, nil
}

// ownMessage returns the index of a message of userID in the chat.
func (s *Store) ownMessage(c *chat, messageID, userID int) (int, error) {
	for i, m := range c.messages {
		if m.ID != messageID {
			continue
		}
		if m.Author.ID != userID {
			return 0, errNotAuthor
		}
		return i, nil
	}
	return 0, errMessageNotFound
}

func (s *Store) UpdateMessage(chatID, messageID, userID int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.memberChat(chatID, userID)
	if err != nil {
		return err
	}
	i, err := s.ownMessage(c, messageID, userID)
	if err != nil {
		return err
	}
	c.messages[i].Body = text
	return nil
}

func (s *Store) DeleteMessage(chatID, messageID, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.memberChat(chatID, userID)
	if err != nil {
		return err
	}
	i, err := s.ownMessage(c, messageID, userID)
	if err != nil {
		return err
	}
	c.messages = append(c.messages[:i], c.messages[i+1:]...)
	return nil
}

// AddMember adds memberID to the chat on behalf of userID.
func (s *Store) AddMember(chatID, userID, memberID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.memberChat(chatID, userID)
	if err != nil {
		return err
	}
	if _, err := s.user(memberID); err != nil {
		return err
	}
	if c.isMember(memberID) {
		return core.NewError(core.ErrBadRequest, "already a member")
	}
	c.members = append(c.members, memberID)
	return nil
}

// RemoveMember removes memberID from the chat. Members may remove themselves.
func (s *Store) RemoveMember(chatID, userID, memberID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.memberChat(chatID, userID)
	if err != nil {
		return err
	}
	if _, err := s.user(memberID); err != nil {
		return err
	}
	for i, id := range c.members {
		if id == memberID {
			c.members = append(c.members[:i], c.members[i+1:]...)
			return nil
		}
	}
	return core.NewError(core.ErrBadRequest, "not a member")
}
