package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/stockkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/stockkeeper/internal/devserver"
	"github.com/dmitrijs2005/stockkeeper/internal/devserver/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg := config.LoadConfig()
	app := devserver.NewApp(cfg)

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}

}
