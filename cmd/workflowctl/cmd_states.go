package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/garyjia/newsroom-workflow/internal/domain/workflow"
	httpapi "github.com/garyjia/newsroom-workflow/internal/interfaces/http"
)

var statesCmd = &cobra.Command{
	Use:   "states",
	Short: "List every workflow state with its classification",
	Args:  cobra.NoArgs,
	RunE:  runStates,
}

func runStates(cmd *cobra.Command, _ []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATE\tLABEL\tWORKFLOW\tREVIEW\tPUBLISH\tSCHEDULE\tATTENTION\tTERMINAL")
	for _, s := range workflow.AllStates() {
		c := workflow.Classify(s)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s, httpapi.StatusLabel(s),
			yesNo(c.InWorkflow), yesNo(c.Reviewable), yesNo(c.Publishable),
			yesNo(c.Schedulable), yesNo(c.NeedsAttention), yesNo(c.Terminal))
	}
	return w.Flush()
}
