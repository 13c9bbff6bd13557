package whatsthat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/putto11262002/whatsthat/core"
	"github.com/putto11262002/whatsthat/pkg/api"
	"github.com/putto11262002/whatsthat/pkg/chat"
)

var (
	errNoChat   = core.NewValidationError("Open a chat first.")
	errNoUserID = core.NewValidationError("Please enter a user ID.")
	errEditing  = core.NewValidationError("Finish editing the current message first.")
)

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, args string) error
}

// Shell is a line oriented front end. Each line is a command followed by its arguments.
type Shell struct {
	client  *api.Client
	session core.SessionProvider
	drafts  *core.DraftStore
	out     io.Writer
	logger  *slog.Logger
	page    core.Page
	loc     *time.Location

	me       int
	chat     *chat.Session
	commands map[string]command
}

type ShellOption func(*Shell)

func WithShellLogger(logger *slog.Logger) ShellOption {
	return func(s *Shell) {
		s.logger = logger
	}
}

// WithPageLimit sets the number of messages fetched per chat.
func WithPageLimit(limit int) ShellOption {
	return func(s *Shell) {
		s.page = core.Page{Limit: limit}
	}
}

// WithLocation sets the time zone message times are shown in.
func WithLocation(loc *time.Location) ShellOption {
	return func(s *Shell) {
		s.loc = loc
	}
}

func NewShell(client *api.Client, session core.SessionProvider, drafts *core.DraftStore, out io.Writer, opts ...ShellOption) *Shell {
	s := &Shell{
		client:  client,
		session: session,
		drafts:  drafts,
		out:     out,
		logger:  slog.Default(),
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.commands = s.register()
	return s
}

func (s *Shell) register() map[string]command {
	return map[string]command{
		"help":     {"help", "list commands", s.help},
		"register": {"register <first> <last> <email> <password>", "create an account", s.registerUser},
		"login":    {"login <email> <password>", "log in", s.login},
		"logout":   {"logout", "log out", s.logout},
		"profile":  {"profile [user id]", "show a profile, yours by default", s.profile},
		"update":   {"update first=<name> last=<name> email=<email> password=<password>", "change your profile", s.updateProfile},
		"photo":    {"photo <file>", "upload a profile photo", s.uploadPhoto},
		"getphoto": {"getphoto <user id> <file>", "save the profile photo of a user", s.fetchPhoto},

		"chats":    {"chats", "list your chats", s.listChats},
		"newchat":  {"newchat <name>", "create a chat", s.createChat},
		"rename":   {"rename <name>", "rename the open chat", s.renameChat},
		"open":     {"open <chat id>", "open a chat", s.openChat},
		"close":    {"close", "close the open chat", s.closeChat},
		"show":     {"show", "refresh and show the open chat", s.show},
		"reload":   {"reload", "reload the open chat", s.reload},
		"type":     {"type <text>", "replace the message being written", s.input},
		"send":     {"send [text]", "send text, or the message being written", s.send},
		"edit":     {"edit <message id>", "edit one of your messages", s.beginEdit},
		"save":     {"save", "save the message being edited", s.saveEdit},
		"cancel":   {"cancel", "stop editing", s.cancelEdit},
		"delete":   {"delete <message id>", "delete one of your messages", s.deleteMessage},
		"click":    {"click <message id>", "click a message, twice to show its controls", s.click},
		"members":  {"members", "list the members of the open chat", s.members},
		"add":      {"add <user id>", "add a user to the open chat", s.addMember},
		"remove":   {"remove <user id>", "remove a user from the open chat", s.removeMember},
		"draft":    {"draft", "save the message being written as a draft", s.saveDraft},
		"drafts":   {"drafts", "list the drafts of the open chat", s.listDrafts},
		"usedraft": {"usedraft <n>", "copy draft n into the message being written", s.loadDraft},
		"rmdraft":  {"rmdraft <n>", "delete draft n", s.deleteDraft},

		"contacts":   {"contacts", "list your contacts", s.listContacts},
		"addcontact": {"addcontact <user id>", "add a contact", s.addContact},
		"rmcontact":  {"rmcontact <user id>", "remove a contact", s.removeContact},
		"block":      {"block <user id>", "block a user", s.block},
		"unblock":    {"unblock <user id>", "unblock a user", s.unblock},
		"blocked":    {"blocked", "list blocked users", s.listBlocked},
		"search":     {"search <term>", "search all users", s.search},
	}
}

// Run reads commands from in until it is exhausted, "quit" is read or ctx is done.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	if id, err := s.session.UserID(ctx); err == nil {
		s.me = id
	}
	defer func() {
		if s.chat != nil {
			s.chat.Close()
		}
	}()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, args, _ := strings.Cut(line, " ")
		if name == "quit" || name == "exit" {
			return nil
		}
		cmd, ok := s.commands[name]
		if !ok {
			s.printf("Unknown command %q. Type help for a list of commands.\n", name)
			continue
		}
		if err := cmd.run(ctx, strings.TrimSpace(args)); err != nil {
			s.report(name, err)
		}
	}
	return scanner.Err()
}

func (s *Shell) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) report(name string, err error) {
	s.logger.Debug("command failed", slog.String("command", name), slog.Any("error", err))
	s.printf("Error: %s\n", core.ErrorMessage(err))
	if errors.Is(err, core.ErrUnauthorized) {
		s.printf("Use login <email> <password> to start a new session.\n")
	}
}

func (s *Shell) help(context.Context, string) error {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		s.printf("  %-70s %s\n", s.commands[name].usage, s.commands[name].help)
	}
	s.printf("  %-70s %s\n", "quit", "leave")
	return nil
}

func intArg(args string, missing error) (int, error) {
	if args == "" {
		return 0, missing
	}
	n, err := strconv.Atoi(strings.Fields(args)[0])
	if err != nil {
		return 0, core.NewErrorf(core.ErrValidation, "%q is not a number.", args)
	}
	return n, nil
}

func (s *Shell) name(u core.User) string {
	if s.me != 0 && u.ID == s.me {
		return "Me"
	}
	return u.DisplayName()
}

func (s *Shell) printUsers(users []core.User) {
	if len(users) == 0 {
		s.printf("No users.\n")
		return
	}
	for _, u := range users {
		s.printf("  [%d] %s\n", u.ID, u.DisplayName())
	}
}

func (s *Shell) registerUser(ctx context.Context, args string) error {
	f := strings.Fields(args)
	if len(f) != 4 {
		return core.NewValidationError("Usage: register <first> <last> <email> <password>")
	}
	id, err := s.client.Register(ctx, core.Registration{FirstName: f[0], LastName: f[1], Email: f[2], Password: f[3]})
	if err != nil {
		return err
	}
	s.printf("Registered as user %d. You can now log in.\n", id)
	return nil
}

func (s *Shell) login(ctx context.Context, args string) error {
	f := strings.Fields(args)
	creds := core.Credentials{}
	if len(f) > 0 {
		creds.Email = f[0]
	}
	if len(f) > 1 {
		creds.Password = f[1]
	}
	res, err := s.client.Login(ctx, creds)
	if err != nil {
		return err
	}
	s.me = res.UserID
	s.printf("Logged in as user %d.\n", res.UserID)
	return nil
}

func (s *Shell) logout(ctx context.Context, _ string) error {
	s.closeChat(ctx, "")
	if err := s.client.Logout(ctx); err != nil {
		return err
	}
	s.me = 0
	s.printf("Logged out.\n")
	return nil
}

func (s *Shell) profile(ctx context.Context, args string) error {
	var (
		p   *core.Profile
		err error
	)
	if args == "" {
		p, err = s.client.Me(ctx)
	} else {
		var id int
		if id, err = intArg(args, errNoUserID); err != nil {
			return err
		}
		p, err = s.client.GetProfile(ctx, id)
	}
	if err != nil {
		return err
	}
	s.printf("[%d] %s <%s>\n", p.ID, p.DisplayName(), p.Email)
	return nil
}

func (s *Shell) updateProfile(ctx context.Context, args string) error {
	prev, err := s.client.Me(ctx)
	if err != nil {
		return err
	}
	next := *prev
	var password string
	for _, field := range strings.Fields(args) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return core.NewErrorf(core.ErrValidation, "Expected field=value, got %q.", field)
		}
		switch key {
		case "first":
			next.FirstName = value
		case "last":
			next.LastName = value
		case "email":
			next.Email = value
		case "password":
			password = value
		default:
			return core.NewErrorf(core.ErrValidation, "Unknown field %q.", key)
		}
	}
	if err := s.client.UpdateProfile(ctx, prev.ID, core.Diff(*prev, next, password)); err != nil {
		return err
	}
	s.printf("Profile updated.\n")
	return nil
}

func (s *Shell) uploadPhoto(ctx context.Context, args string) error {
	if args == "" {
		return core.NewValidationError("Please enter the path of a photo.")
	}
	f, err := os.Open(args)
	if err != nil {
		return core.NewErrorf(core.ErrValidation, "Cannot open %s.", args).WithCause(err)
	}
	defer f.Close()
	if err := s.client.UploadPhoto(ctx, f); err != nil {
		return err
	}
	s.printf("Photo uploaded.\n")
	return nil
}

func (s *Shell) fetchPhoto(ctx context.Context, args string) error {
	f := strings.Fields(args)
	if len(f) != 2 {
		return core.NewValidationError("Usage: getphoto <user id> <file>")
	}
	id, err := intArg(f[0], errNoUserID)
	if err != nil {
		return err
	}
	photo, err := s.client.FetchPhoto(ctx, id)
	if err != nil {
		return err
	}
	if err := os.WriteFile(f[1], photo.Data, 0o644); err != nil {
		return fmt.Errorf("write photo: %w", err)
	}
	s.printf("Saved %s (%s, %d bytes).\n", f[1], photo.ContentType, len(photo.Data))
	return nil
}

func (s *Shell) listChats(ctx context.Context, _ string) error {
	chats, err := s.client.ListChats(ctx)
	if err != nil {
		return err
	}
	if len(chats) == 0 {
		s.printf("No chats.\n")
		return nil
	}
	for _, c := range chats {
		s.printf("  [%d] %s", c.ID, c.Name)
		if m := c.LastMessage; m != nil {
			s.printf(": %s: %s", s.name(m.Author), m.Body)
		}
		s.printf("\n")
	}
	return nil
}

func (s *Shell) createChat(ctx context.Context, args string) error {
	id, err := s.client.CreateChat(ctx, args)
	if err != nil {
		return err
	}
	s.printf("Created chat %d.\n", id)
	return nil
}

func (s *Shell) renameChat(ctx context.Context, args string) error {
	if s.chat == nil {
		return errNoChat
	}
	if err := s.client.RenameChat(ctx, s.chat.State().ChatID, args); err != nil {
		return err
	}
	return s.dispatchAndRender(ctx, chat.Reload{})
}

func (s *Shell) openChat(ctx context.Context, args string) error {
	id, err := intArg(args, core.NewValidationError("Please enter a chat ID."))
	if err != nil {
		return err
	}
	s.closeChat(ctx, "")
	s.chat = chat.NewSession(s.client, s.drafts, chat.WithLogger(s.logger), chat.WithPage(s.page))
	if err := s.chat.Open(ctx, id, ""); err != nil {
		s.chat.Dispatch(ctx, chat.DismissError{})
		return err
	}
	s.render()
	return nil
}

func (s *Shell) closeChat(context.Context, string) error {
	if s.chat != nil {
		s.chat.Close()
		s.chat = nil
	}
	return nil
}

func (s *Shell) show(ctx context.Context, _ string) error {
	if s.chat == nil {
		return errNoChat
	}
	if err := s.chat.Focus(ctx); err != nil {
		s.chat.Dispatch(ctx, chat.DismissError{})
		return err
	}
	s.render()
	return nil
}

func (s *Shell) reload(ctx context.Context, _ string) error {
	return s.dispatchAndRender(ctx, chat.Reload{})
}

// dispatch sends in to the open chat. A failure is returned once and then cleared from the state.
func (s *Shell) dispatch(ctx context.Context, in chat.Intent) error {
	if s.chat == nil {
		return errNoChat
	}
	if err := s.chat.Dispatch(ctx, in); err != nil {
		s.chat.Dispatch(ctx, chat.DismissError{})
		return err
	}
	return nil
}

func (s *Shell) dispatchAndRender(ctx context.Context, in chat.Intent) error {
	if err := s.dispatch(ctx, in); err != nil {
		return err
	}
	s.render()
	return nil
}

func (s *Shell) input(ctx context.Context, args string) error {
	return s.dispatchAndRender(ctx, chat.Input{Text: args})
}

func (s *Shell) send(ctx context.Context, args string) error {
	if s.chat == nil {
		return errNoChat
	}
	if _, editing := s.chat.State().Composition.Editing(); editing {
		return errEditing
	}
	if args != "" {
		if err := s.dispatch(ctx, chat.Input{Text: args}); err != nil {
			return err
		}
	}
	return s.dispatchAndRender(ctx, chat.Send{Text: s.chat.State().Buffer})
}

func (s *Shell) beginEdit(ctx context.Context, args string) error {
	if s.chat == nil {
		return errNoChat
	}
	id, err := intArg(args, core.NewValidationError("Please enter a message ID."))
	if err != nil {
		return err
	}
	m, ok := s.chat.State().Message(id)
	if !ok {
		return core.NewErrorf(core.ErrValidation, "There is no message %d in this chat.", id)
	}
	if err := s.dispatch(ctx, chat.BeginEdit{MessageID: id, Text: m.Body}); err != nil {
		return err
	}
	s.printf("Editing message %d. Use type to change it, then save or cancel.\n", id)
	return nil
}

func (s *Shell) saveEdit(ctx context.Context, _ string) error {
	return s.dispatchAndRender(ctx, chat.SaveEdit{})
}

func (s *Shell) cancelEdit(ctx context.Context, _ string) error {
	return s.dispatchAndRender(ctx, chat.CancelEdit{})
}

func (s *Shell) deleteMessage(ctx context.Context, args string) error {
	id, err := intArg(args, core.NewValidationError("Please enter a message ID."))
	if err != nil {
		return err
	}
	return s.dispatchAndRender(ctx, chat.Delete{MessageID: id})
}

func (s *Shell) click(ctx context.Context, args string) error {
	id, err := intArg(args, core.NewValidationError("Please enter a message ID."))
	if err != nil {
		return err
	}
	return s.dispatchAndRender(ctx, chat.Click{MessageID: id})
}

func (s *Shell) members(context.Context, string) error {
	if s.chat == nil {
		return errNoChat
	}
	s.printUsers(s.chat.State().Members)
	return nil
}

func (s *Shell) addMember(ctx context.Context, args string) error {
	id, err := intArg(args, errNoUserID)
	if err != nil {
		return err
	}
	return s.dispatchAndRender(ctx, chat.AddMember{UserID: id})
}

func (s *Shell) removeMember(ctx context.Context, args string) error {
	id, err := intArg(args, errNoUserID)
	if err != nil {
		return err
	}
	return s.dispatchAndRender(ctx, chat.RemoveMember{UserID: id})
}

func (s *Shell) saveDraft(ctx context.Context, _ string) error {
	if err := s.dispatch(ctx, chat.SaveDraft{}); err != nil {
		return err
	}
	return s.listDrafts(ctx, "")
}

func (s *Shell) listDrafts(context.Context, string) error {
	if s.chat == nil {
		return errNoChat
	}
	drafts := s.chat.State().Drafts
	if len(drafts) == 0 {
		s.printf("No drafts.\n")
		return nil
	}
	for i, d := range drafts {
		s.printf("  %d) %s\n", i+1, d)
	}
	return nil
}

func (s *Shell) loadDraft(ctx context.Context, args string) error {
	n, err := intArg(args, core.NewValidationError("Please enter a draft number."))
	if err != nil {
		return err
	}
	if err := s.dispatch(ctx, chat.LoadDraft{Index: n - 1}); err != nil {
		return err
	}
	s.printf("Writing: %s\n", s.chat.State().Buffer)
	return nil
}

func (s *Shell) deleteDraft(ctx context.Context, args string) error {
	n, err := intArg(args, core.NewValidationError("Please enter a draft number."))
	if err != nil {
		return err
	}
	if err := s.dispatch(ctx, chat.DeleteDraft{Index: n - 1}); err != nil {
		return err
	}
	return s.listDrafts(ctx, "")
}

func (s *Shell) listContacts(ctx context.Context, _ string) error {
	users, err := s.client.ListContacts(ctx)
	if err != nil {
		return err
	}
	s.printUsers(users)
	return nil
}

func (s *Shell) listBlocked(ctx context.Context, _ string) error {
	users, err := s.client.ListBlocked(ctx)
	if err != nil {
		return err
	}
	s.printUsers(users)
	return nil
}

func (s *Shell) addContact(ctx context.Context, args string) error {
	id, err := intArg(args, errNoUserID)
	if err != nil {
		return err
	}
	reply, err := s.client.AddContact(ctx, id)
	if err != nil {
		return err
	}
	s.printf("%s\n", reply)
	return nil
}

// userAction runs a contact operation that has no result.
func (s *Shell) userAction(ctx context.Context, args string, fn func(context.Context, int) error) error {
	id, err := intArg(args, errNoUserID)
	if err != nil {
		return err
	}
	if err := fn(ctx, id); err != nil {
		return err
	}
	s.printf("Done.\n")
	return nil
}

func (s *Shell) removeContact(ctx context.Context, args string) error {
	return s.userAction(ctx, args, s.client.DeleteContact)
}

func (s *Shell) block(ctx context.Context, args string) error {
	return s.userAction(ctx, args, s.client.BlockContact)
}

func (s *Shell) unblock(ctx context.Context, args string) error {
	return s.userAction(ctx, args, s.client.UnblockContact)
}

func (s *Shell) search(ctx context.Context, args string) error {
	users, err := s.client.SearchUsers(ctx, core.SearchQuery{Term: args})
	if err != nil {
		return err
	}
	s.printUsers(users)
	return nil
}

// render prints the open chat, oldest message first.
func (s *Shell) render() {
	if s.chat == nil {
		return
	}
	st := s.chat.State()
	s.printf("== %s (chat %d) ==\n", st.Name, st.ChatID)
	if st.Phase == chat.PhaseLoading {
		s.printf("Loading...\n")
		return
	}
	if len(st.Messages) == 0 {
		s.printf("No messages yet.\n")
	}
	for _, m := range slices.Backward(st.Messages) {
		s.printf("  [%d] %s %s: %s", m.ID, s.name(m.Author), m.Time().In(s.loc).Format("3:04 PM"), m.Body)
		if st.Click.ControlsVisible(m.ID) {
			s.printf("  (edit %d | delete %d)", m.ID, m.ID)
		}
		s.printf("\n")
	}
	if id, editing := st.Composition.Editing(); editing {
		s.printf("Editing message %d: %s\n", id, st.Buffer)
	} else if st.Buffer != "" {
		s.printf("Writing: %s\n", st.Buffer)
	}
	if st.DraftPending {
		s.printf("Use draft to keep this message for later.\n")
	}
}
