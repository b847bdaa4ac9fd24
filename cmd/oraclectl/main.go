// Command oraclectl is the operator CLI: schema migrations and offline scoring
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "oraclectl",
		Short:         "Oracle operator tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newScoreCmd(), newDetectCmd())
	return root
}

func main() {
	_ = godotenv.Load()
	if err := newRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "oraclectl:", err)
		os.Exit(1)
	}
}
