// Command placectl runs the place tagging and hours engines offline and
// manages the database schema.
//
//	placectl classify payload.json       # provider payload -> aiTags + meta
//	placectl hours hours.json            # opening hours -> weekly schedule
//	placectl rules --rules custom.json   # dump the active rule table
//	placectl migrate up                  # apply pending migrations
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
