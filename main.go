package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	whatsthat "github.com/putto11262002/whatsthat/app"
)

func main() {
	flags := whatsthat.Flags()
	envFile := flags.String("env-file", ".env", "file to load environment variables from")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		failed(err)
	}

	loader := &whatsthat.EnvConfigLoader{Files: []string{*envFile}, Flags: flags}
	config, err := loader.Load()
	if err != nil {
		failed(err)
	}

	app, err := whatsthat.New(config)
	if err != nil {
		failed(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	defer stop()

	runErr := app.Run(ctx, os.Stdin, os.Stdout)

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	app.Close(closeCtx)

	if runErr != nil {
		failed(runErr)
	}
}

func failed(err error) {
	fmt.Fprintf(os.Stderr, "whatsthat: %v\n", err)
	os.Exit(1)
}
