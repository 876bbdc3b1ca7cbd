package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/hydrotrack/internal/buildinfo"
	"github.com/dmitrijs2005/hydrotrack/internal/logging"
	"github.com/dmitrijs2005/hydrotrack/internal/server"
	"github.com/dmitrijs2005/hydrotrack/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.NewStdoutLogger(cfg.LogLevel)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		os.Exit(1)
	}
}
