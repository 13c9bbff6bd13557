// Command whatsthat-stub serves an in-memory whatsthat backend for local development.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/putto11262002/whatsthat/core"
	"github.com/putto11262002/whatsthat/internal/stub"
	"github.com/putto11262002/whatsthat/pkg/server"
)

func main() {
	flags := pflag.NewFlagSet("whatsthat-stub", pflag.ContinueOnError)
	addr := flags.String("addr", ":3333", "address to listen on")
	secret := flags.String("secret", "whatsthat", "secret used to sign session tokens")
	ttl := flags.Duration("token-ttl", 24*time.Hour, "lifetime of a session token")
	seed := flags.Bool("seed", false, "create two demo users, ashley@example.com and bailey@example.com, with the password Secret#123")
	debug := flags.Bool("debug", false, "log at debug level")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		failed(err)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	store := stub.NewStore()
	if *seed {
		if err := seedStore(store); err != nil {
			failed(err)
		}
	}

	api := stub.New(store,
		stub.WithLogger(logger),
		stub.WithSecret([]byte(*secret)),
		stub.WithTokenTTL(*ttl))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	defer stop()

	srv := &server.Server{
		Server: &http.Server{Addr: *addr, Handler: api.Handler()},
		Logger: logger,
	}
	if err := srv.Start(ctx); err != nil {
		failed(err)
	}
}

func seedStore(store *stub.Store) error {
	users := []core.Registration{
		{FirstName: "Ashley", LastName: "Smith", Email: "ashley@example.com", Password: "Secret#123"},
		{FirstName: "Bailey", LastName: "Jones", Email: "bailey@example.com", Password: "Secret#123"},
	}
	ids := make([]int, 0, len(users))
	for _, u := range users {
		id, err := store.Register(u)
		if err != nil {
			return fmt.Errorf("seed %s: %w", u.Email, err)
		}
		ids = append(ids, id)
	}
	if _, err := store.AddContact(ids[0], ids[1]); err != nil {
		return err
	}
	chatID, err := store.CreateChat(ids[0], "General")
	if err != nil {
		return err
	}
	if err := store.AddMember(chatID, ids[0], ids[1]); err != nil {
		return err
	}
	_, err = store.SendMessage(chatID, ids[0], "Welcome to whatsthat!")
	return err
}

func failed(err error) {
	fmt.Fprintf(os.Stderr, "whatsthat-stub: %v\n", err)
	os.Exit(1)
}
