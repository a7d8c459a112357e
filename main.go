package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/anicoll/fleetsync/cmd"
)

//go:generate go tool oapi-codegen --config=./gen/config.yaml ./gen/api.yaml

func main() {
	app := &cli.App{
		Name:   "fleetsync",
		Usage:  "keeps a live mirror of a fleet server's devices, tags and locations",
		Action: cmd.SyncCommand,
		Flags:  cmd.Flags(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
