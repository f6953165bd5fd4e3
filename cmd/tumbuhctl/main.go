/*
Package main is the entry point for the tumbuhctl CLI.

Usage:

	tumbuhctl [command]

Available Commands:

	recommend   Recommend fertilizer doses for a commodity and province
	import      Validate a dataset and copy it into SQLite
	export      Validate a dataset and write it as an XLSX workbook
	version     Show version information
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/tumbuh/backend/internal/cli"
)

// version is set via ldflags during build
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCmd(version).ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
