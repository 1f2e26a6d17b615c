package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lommaks/researchdigest/internal/logging"
)

func runPrune() {
	fs := flag.NewFlagSet("prune", flag.ExitOnError)
	configPath := fs.String("config", "digest.yaml", "Path to config file")
	verbose := fs.Bool("v", false, "Debug logging")
	confirm := fs.Bool("yes", false, "Actually rewrite the store (dry run without it)")
	fs.Parse(os.Args[1:])

	logging.Init(*verbose)
	defer logging.Close()

	cfg := loadConfig(*configPath)
	pipeline, cleanup := newPipeline(cfg)
	defer cleanup()

	if !*confirm {
		raw, err := pipeline.Store.Load()
		if err != nil {
			logging.Fatal("load failed", "error", err)
		}
		clean := pipeline.CleanView(raw)
		fmt.Printf("Dry run: would keep %d of %d rows. Re-run with -yes to rewrite.\n", len(clean), len(raw))
		return
	}

	kept, dropped, err := pipeline.Prune()
	if err != nil {
		logging.Fatal("prune failed", "error", err)
	}
	fmt.Printf("Pruned. Kept: %d. Dropped: %d.\n", kept, dropped)
}
