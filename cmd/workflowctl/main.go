// workflowctl inspects the editorial workflow and operates on a local store.
//
// Usage:
//
//	workflowctl states
//	workflowctl transitions <STATE>
//	workflowctl apply --db PATH --id N --action A --expect S [--feedback ..] [--scheduled-at RFC3339] [--flag] [--stage S] [--role R]
//	workflowctl history --db PATH --id N
//	workflowctl report --db PATH --out FILE.xlsx
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	dbPath     string
	policyPath string
	verbose    bool
}

var rootCmd = &cobra.Command{
	Use:   "workflowctl",
	Short: "Inspect and drive the newsroom editorial workflow",
	Long:  "workflowctl lists workflow states and legal actions, applies transitions\nto articles in a workflow database, and exports status reports.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.dbPath, "db", os.Getenv("WORKFLOW_DB_PATH"), "SQLite database path (default $WORKFLOW_DB_PATH)")
	pf.StringVar(&rootFlags.policyPath, "policy", "", "role policy YAML (default built-in policy)")
	pf.BoolVarP(&rootFlags.verbose, "verbose", "v", false, "log store activity to stderr")

	rootCmd.AddCommand(statesCmd)
	rootCmd.AddCommand(transitionsCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
