// Command ledgerctl runs ledger operations from the shell: minting API
// tokens, triggering the scheduled jobs and exporting statements.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Operate a ledgerly deployment",
	Long: `ledgerctl talks to the ledger database directly with the same
configuration as the server (config.toml, .env and LEDGER_* variables).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "ledgerctl: %v\n", err)
		os.Exit(1)
	}
}
