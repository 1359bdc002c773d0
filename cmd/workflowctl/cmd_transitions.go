package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/garyjia/newsroom-workflow/internal/application/policy"
	"github.com/garyjia/newsroom-workflow/internal/domain/workflow"
)

var transitionsFlags struct {
	role string
}

var transitionsCmd = &cobra.Command{
	Use:   "transitions <STATE>",
	Short: "List the actions legal from a state",
	Args:  cobra.ExactArgs(1),
	RunE:  runTransitions,
}

func init() {
	transitionsCmd.Flags().StringVar(&transitionsFlags.role, "role", "", "only show actions this role may request")
}

func runTransitions(cmd *cobra.Command, args []string) error {
	state, err := workflow.ParseState(strings.ToUpper(strings.TrimSpace(args[0])))
	if err != nil {
		return err
	}

	actions := workflow.NewEngine().ListTransitionsFor(state)
	if transitionsFlags.role != "" {
		rolePolicy := policy.Default()
		if rootFlags.policyPath != "" {
			if rolePolicy, err = policy.Load(rootFlags.policyPath); err != nil {
				return err
			}
		}
		actions = rolePolicy.Filter(transitionsFlags.role, actions)
	}

	out := cmd.OutOrStdout()
	for _, a := range actions {
		fmt.Fprintln(out, a)
	}
	return nil
}
