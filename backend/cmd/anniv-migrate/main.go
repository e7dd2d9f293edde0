package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/itchan-dev/anniv/backend/internal/storage/pg"
	"github.com/itchan-dev/anniv/shared/config"
	"github.com/itchan-dev/anniv/shared/logger"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: anniv-migrate [-config_folder dir] up|down|status|version|redo|reset|up-to VERSION|down-to VERSION")
	flag.PrintDefaults()
}

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "backend/config", "path to folder with configs")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.LogLevel(), cfg.Public.Server.LogJSON)

	ctx := context.Background()
	db, err := pg.Connect(ctx, cfg)
	if err != nil {
		logger.Log.Error("failed to connect", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := pg.Migrate(ctx, db, flag.Arg(0), flag.Args()[1:]...); err != nil {
		logger.Log.Error("migration failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}
