package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/garyjia/newsroom-workflow/internal/application/policy"
	appworkflow "github.com/garyjia/newsroom-workflow/internal/application/workflow"
	"github.com/garyjia/newsroom-workflow/internal/domain/entity"
	"github.com/garyjia/newsroom-workflow/internal/domain/workflow"
	"github.com/garyjia/newsroom-workflow/pkg/utils"
)

var applyFlags struct {
	id          int64
	action      string
	expect      string
	feedback    string
	scheduledAt string
	flag        bool
	stage       string
	role        string
	actorID     string
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply one workflow action to an article",
	Args:  cobra.NoArgs,
	RunE:  runApply,
}

func init() {
	f := applyCmd.Flags()
	f.Int64Var(&applyFlags.id, "id", 0, "article ID (required)")
	f.StringVar(&applyFlags.action, "action", "", "workflow action, e.g. APPROVE (required)")
	f.StringVar(&applyFlags.expect, "expect", "", "status the article must currently have (required)")
	f.StringVar(&applyFlags.feedback, "feedback", "", "reviewer feedback, or the reason for REJECT and RETRACT")
	f.StringVar(&applyFlags.scheduledAt, "scheduled-at", "", "publication time for SCHEDULE (RFC 3339)")
	f.BoolVar(&applyFlags.flag, "flag", false, "value for SET_FEATURED and SET_TRENDING")
	f.StringVar(&applyFlags.stage, "stage", "", "review desk for ROUTE")
	f.StringVar(&applyFlags.role, "role", "ADMIN", "role the action is performed as")
	f.StringVar(&applyFlags.actorID, "actor-id", "workflowctl", "actor recorded in the history")

	_ = applyCmd.MarkFlagRequired("id")
	_ = applyCmd.MarkFlagRequired("action")
	_ = applyCmd.MarkFlagRequired("expect")
}

func runApply(cmd *cobra.Command, _ []string) error {
	role := strings.ToUpper(strings.TrimSpace(applyFlags.role))
	if role == policy.RoleSystem {
		return fmt.Errorf("role %s is reserved for the scheduled publisher", policy.RoleSystem)
	}

	scheduledAt, err := utils.ParseTimestamp(applyFlags.scheduledAt)
	if err != nil {
		return err
	}

	inputs := workflow.Inputs{
		Feedback:    applyFlags.feedback,
		ScheduledAt: scheduledAt,
		Stage:       workflow.State(strings.ToUpper(strings.TrimSpace(applyFlags.stage))),
	}
	if cmd.Flags().Changed("flag") {
		v := applyFlags.flag
		inputs.Flag = &v
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.workflow.ApplyTransition(cmd.Context(), appworkflow.TransitionRequest{
		ArticleID: applyFlags.id,
		Action:    workflow.Action(strings.ToUpper(strings.TrimSpace(applyFlags.action))),
		Actor: entity.Actor{
			ID:   applyFlags.actorID,
			Role: role,
		},
		Inputs:         inputs,
		ExpectedStatus: workflow.State(strings.ToUpper(strings.TrimSpace(applyFlags.expect))),
	})
	if err != nil {
		if reason := workflow.ReasonOf(err); reason != "" {
			return fmt.Errorf("%s (%s): %w", workflow.KindOf(err), reason, err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Article #%d: %s -> %s via %s (version %d)\n",
		result.Article.ID, result.From, result.To, result.Action, result.Article.Version)
	if result.Article.ScheduledAt != nil {
		fmt.Fprintf(out, "Scheduled at: %s\n", result.Article.ScheduledAt.UTC().Format(time.RFC3339))
	}
	if result.Article.PublishedAt != nil {
		fmt.Fprintf(out, "Published at: %s\n", result.Article.PublishedAt.UTC().Format(time.RFC3339))
	}
	if result.Article.Feedback != "" {
		fmt.Fprintf(out, "Feedback: %s\n", result.Article.Feedback)
	}
	return nil
}
