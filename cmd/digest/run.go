package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/lommaks/researchdigest/internal/logging"
)

func runRun() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "digest.yaml", "Path to config file")
	verbose := fs.Bool("v", false, "Debug logging")
	logDir := fs.String("log-dir", "", "Write logs to a dated file under this directory")
	fs.Parse(os.Args[1:])

	logging.Init(*verbose)
	if *logDir != "" {
		if err := logging.InitFile(*logDir, *verbose); err != nil {
			logging.Warn("file logging unavailable, using stderr", "error", err)
		}
	}
	defer logging.Close()

	cfg := loadConfig(*configPath)
	if cfg.OpenAI.APIKey == "" {
		logging.Warn("OPENAI_API_KEY not set; run will produce no new hypotheses")
	}

	pipeline, cleanup := newPipeline(cfg)
	defer cleanup()

	res, err := pipeline.Run(context.Background())
	if err != nil {
		logging.Fatal("run failed", "error", err)
	}

	fmt.Printf("Done. Appended: %d. Clean: %d. Raw total: %d\n", res.Appended, res.Clean, res.Raw)
}
