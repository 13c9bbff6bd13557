package stub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/putto11262002/whatsthat/core"
)

func newTestStore(t *testing.T) (*Store, int, int) {
	t.Helper()
	store := NewStore(WithPasswordCost(bcrypt.MinCost), WithClock(func() time.Time {
		return time.UnixMilli(1700000000000)
	}))
	alice, err := store.Register(core.Registration{FirstName: "Alice", LastName: "Smith", Email: "alice@example.com", Password: "Secret#123"})
	require.NoError(t, err)
	bob, err := store.Register(core.Registration{FirstName: "Bob", LastName: "Jones", Email: "bob@example.com", Password: "Secret#123"})
	require.NoError(t, err)
	return store, alice, bob
}

func TestStore_Authenticate(t *testing.T) {
	store, alice, _ := newTestStore(t)

	id, err := store.Authenticate("ALICE@example.com", "Secret#123")
	require.NoError(t, err)
	assert.Equal(t, alice, id)

	_, err = store.Authenticate("alice@example.com", "wrong")
	assert.ErrorIs(t, err, core.ErrBadRequest)

	_, err = store.Register(core.Registration{FirstName: "Al", LastName: "Smith", Email: "alice@example.com", Password: "Secret#123"})
	assert.ErrorIs(t, err, core.ErrBadRequest)
}

func TestStore_Conversation(t *testing.T) {
	store, alice, bob := newTestStore(t)

	chatID, err := store.CreateChat(alice, "Team")
	require.NoError(t, err)

	_, err = store.Conversation(chatID, bob, core.Page{})
	assert.ErrorIs(t, err, core.ErrForbidden)
	_, err = store.Conversation(chatID+1, alice, core.Page{})
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, store.AddMember(chatID, alice, bob))
	assert.ErrorIs(t, store.AddMember(chatID, alice, bob), core.ErrBadRequest)

	first, err := store.SendMessage(chatID, alice, "first")
	require.NoError(t, err)
	second, err := store.SendMessage(chatID, bob, "second")
	require.NoError(t, err)

	conv, err := store.Conversation(chatID, alice, core.Page{})
	require.NoError(t, err)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, second, conv.Messages[0].ID)
	assert.Equal(t, first, conv.Messages[1].ID)
	assert.Equal(t, int64(1700000000000), conv.Messages[0].Timestamp)
	assert.Len(t, conv.Members, 2)

	conv, err = store.Conversation(chatID, alice, core.Page{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "first", conv.Messages[0].Body)

	assert.ErrorIs(t, store.UpdateMessage(chatID, second, alice, "edit"), core.ErrForbidden)
	assert.ErrorIs(t, store.DeleteMessage(chatID, 99, alice), core.ErrNotFound)
	require.NoError(t, store.DeleteMessage(chatID, first, alice))

	// members may leave on their own
	require.NoError(t, store.RemoveMember(chatID, bob, bob))
	_, err = store.Conversation(chatID, bob, core.Page{})
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestStore_Contacts(t *testing.T) {
	store, alice, bob := newTestStore(t)

	reply, err := store.AddContact(alice, bob)
	require.NoError(t, err)
	assert.Equal(t, "OK", reply)
	reply, err = store.AddContact(alice, bob)
	require.NoError(t, err)
	assert.Equal(t, "Already a contact", reply)

	_, err = store.AddContact(alice, alice)
	assert.ErrorIs(t, err, core.ErrBadRequest)
	_, err = store.AddContact(alice, 99)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, store.Block(alice, alice), core.ErrBadRequest)

	require.NoError(t, store.Block(alice, bob))
	contacts, err := store.Contacts(alice)
	require.NoError(t, err)
	assert.Empty(t, contacts)
	blocked, err := store.Blocked(alice)
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, bob, blocked[0].ID)
}

func TestStore_Search(t *testing.T) {
	store, alice, bob := newTestStore(t)

	users, err := store.Search(alice, "jo", false, core.Page{Limit: 20})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, bob, users[0].ID)

	users, err = store.Search(alice, "", false, core.Page{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, bob, users[0].ID)

	users, err = store.Search(alice, "bob", true, core.Page{Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, users)
}
