package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/hydrotrack/internal/buildinfo"
	"github.com/dmitrijs2005/hydrotrack/internal/client/cli"
	"github.com/dmitrijs2005/hydrotrack/internal/client/config"
	"github.com/dmitrijs2005/hydrotrack/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger, closer := logging.NewFileLogger(cfg.LogFile, cfg.LogLevel)
	defer closer.Close()

	ctx := context.Background()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
