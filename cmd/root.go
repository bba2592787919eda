package cmd

import (
	"fmt"
	"github.com/ValentinKolb/kLock/cmd/bench"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "klock",
		Short: "in-process keyed mutual-exclusion manager",
		Long: fmt.Sprintf(`kLock (v%s)

An in-process keyed mutual-exclusion manager for Go:
per-key locking with timeouts, cancellation and capped
exponential backoff, without blocking unrelated keys.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kLock",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kLock v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(bench.BenchCommands)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
