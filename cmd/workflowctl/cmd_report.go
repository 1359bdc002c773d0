package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var reportFlags struct {
	out string
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export article counts per status as a spreadsheet",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportFlags.out, "out", "o", "", "output .xlsx file (required)")
	_ = reportCmd.MarkFlagRequired("out")
}

func runReport(cmd *cobra.Command, _ []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	f, err := os.Create(reportFlags.out)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err := s.reports.Export(cmd.Context(), f); err != nil {
		f.Close()
		os.Remove(reportFlags.out)
		return fmt.Errorf("export report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report file: %w", err)
	}

	rep, err := s.reports.StatusReport(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d articles)\n", reportFlags.out, rep.Total)
	return nil
}
