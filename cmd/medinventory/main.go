package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/careloop/medinventory/config"
	"github.com/careloop/medinventory/internal/api"
	"github.com/careloop/medinventory/internal/app"
	"github.com/careloop/medinventory/internal/webserver"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	cfile   = flag.String("c", "", "config file")
	initdb  = flag.Bool("initdb", false, "drop and recreate the database schema, then exit")
	showVer = flag.Bool("v", false, "show version and exit")
)

var version = "dev"

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println("medinventory", version)
		os.Exit(0)
	}

	cfg := config.LoadConfig(*cfile)

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.S().Info("database schema recreated")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	webserver.Init(application)
	api.InitRouter()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return webserver.Listen(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zap.S().Fatalf("server error: %v", err)
	}
	zap.S().Info("medinventory stopped")
}
