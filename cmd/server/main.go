package main

import (
	"context"
	"log"

	"github.com/ar1701/demo-tedx/internal/server"
	"github.com/ar1701/demo-tedx/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
