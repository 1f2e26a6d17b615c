package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/lommaks/researchdigest/internal/logging"
)

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", "digest.yaml", "Path to config file")
	fs.Parse(os.Args[1:])

	logging.Init(false)
	defer logging.Close()

	cfg := loadConfig(*configPath)
	pipeline, cleanup := newPipeline(cfg)
	defer cleanup()

	raw, err := pipeline.Store.Load()
	if err != nil {
		logging.Fatal("load failed", "error", err)
	}
	clean := pipeline.CleanView(raw)

	fmt.Printf("Raw total:     %d\n", len(raw))
	fmt.Printf("Relevant:      %d\n", len(clean))

	bySection := map[string]int{}
	byCategory := map[string]int{}
	for _, rec := range raw {
		bySection[rec.Section]++
		byCategory[rec.Category]++
	}

	fmt.Println("\nBy section:")
	printCounts(bySection)
	fmt.Println("\nBy category:")
	printCounts(byCategory)
}

func printCounts(counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		label := k
		if label == "" {
			label = "(none)"
		}
		fmt.Printf("  %-24s %d\n", label, counts[k])
	}
}
