package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/eventhub/internal/ctl"
	"github.com/dmitrijs2005/eventhub/internal/logging"
	"github.com/dmitrijs2005/eventhub/internal/server"
	"github.com/dmitrijs2005/eventhub/internal/server/auth"
	"github.com/dmitrijs2005/eventhub/internal/server/config"
	"github.com/dmitrijs2005/eventhub/internal/server/services"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.New(cfg.LogFormat, io.Discard)

	repos, err := server.OpenRepositories(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer repos.Close(ctx)

	users := services.NewUserService(repos,
		auth.NewTokenService([]byte(cfg.SecretKey), cfg.TokenValidityDuration),
		auth.NewPasswordHasher(), logger)

	if err := ctl.Run(ctx, users, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	return 0
}
