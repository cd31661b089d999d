package main

import (
	"context"
	"log"

	// Report ranges are computed in a named zone; ship the zone database
	// so minimal container images work.
	_ "time/tzdata"

	"github.com/dalemusser/templehub/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
