package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyFlags struct {
	id int64
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the transition history of an article",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().Int64Var(&historyFlags.id, "id", 0, "article ID (required)")
	_ = historyCmd.MarkFlagRequired("id")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	records, err := s.workflow.History(cmd.Context(), historyFlags.id)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AT\tACTION\tFROM\tTO\tACTOR\tFEEDBACK")
	for _, r := range records {
		from := r.FromStatus
		if from == "" {
			from = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s/%s\t%s\n",
			r.CreatedAt.UTC().Format("2006-01-02 15:04:05"), r.Action, from, r.ToStatus, r.ActorRole, r.ActorID, r.Feedback)
	}
	return w.Flush()
}
