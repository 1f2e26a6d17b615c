// Command digest runs the scheduled content-digest pipeline.
//
// Usage:
//
//	digest                  Show help
//	digest run              Full pipeline: fetch, extract, gate, append, publish
//	digest publish          Re-render site + chat digest from the existing store
//	digest prune            Rewrite the store keeping only relevance-passing rows
//	digest stats            Store totals per section and category
package main

import (
	"fmt"
	"os"
)

const usage = `digest — scheduled content-digest pipeline

Usage:
  digest <command> [flags]

Commands:
  run         Full pipeline: fetch feeds, extract hypotheses, append, publish
  publish     Re-render site and chat digest from the existing store (no ingest)
  prune       Maintenance: rewrite the store keeping only relevant rows
  stats       Store totals per section and category

Environment:
  OPENAI_API_KEY   OpenAI API key (required for run)
  TG_BOT_TOKEN     Telegram bot token (optional; disables chat delivery if unset)
  TG_CHAT_ID       Telegram chat ID (optional)

Run 'digest <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "run":
		runRun()
	case "publish":
		runPublish()
	case "prune":
		runPrune()
	case "stats":
		runStats()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "digest: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
