package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/lommaks/researchdigest/internal/logging"
)

func runPublish() {
	fs := flag.NewFlagSet("publish", flag.ExitOnError)
	configPath := fs.String("config", "digest.yaml", "Path to config file")
	verbose := fs.Bool("v", false, "Debug logging")
	fs.Parse(os.Args[1:])

	logging.Init(*verbose)
	defer logging.Close()

	cfg := loadConfig(*configPath)
	pipeline, cleanup := newPipeline(cfg)
	defer cleanup()

	res, err := pipeline.Publish(context.Background())
	if err != nil {
		logging.Fatal("publish failed", "error", err)
	}

	fmt.Printf("Published. Clean: %d. Raw total: %d\n", res.Clean, res.Raw)
}
