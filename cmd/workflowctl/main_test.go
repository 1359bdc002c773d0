package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	appworkflow "github.com/garyjia/newsroom-workflow/internal/application/workflow"
	"github.com/garyjia/newsroom-workflow/internal/domain/entity"
	"github.com/garyjia/newsroom-workflow/internal/domain/workflow"
)

// execute runs the root command with fresh flag state and returns stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	rootFlags.dbPath = ""
	rootFlags.policyPath = ""
	rootFlags.verbose = false
	transitionsFlags.role = ""
	applyFlags.feedback = ""
	applyFlags.scheduledAt = ""
	applyFlags.stage = ""
	applyFlags.role = "ADMIN"
	applyFlags.actorID = "workflowctl"

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// seedArticle creates one DRAFT article in a fresh database
func seedArticle(t *testing.T) (string, int64) {
	t.Helper()

	rootFlags.dbPath = filepath.Join(t.TempDir(), "cli.db")
	s, err := openStore()
	require.NoError(t, err)
	defer s.Close()

	article, err := s.workflow.Create(context.Background(), appworkflow.CreateRequest{
		Title:    "Harbour bridge reopens",
		AuthorID: "writer-1",
		Actor:    entity.Actor{ID: "admin", Role: "ADMIN"},
	})
	require.NoError(t, err)
	return rootFlags.dbPath, article.ID
}

func TestStatesCommand(t *testing.T) {
	out, err := execute(t, "states")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(workflow.AllStates())+1)
	assert.Contains(t, lines[0], "STATE")
	assert.Contains(t, lines[1], "DRAFT")
	assert.Contains(t, lines[1], "Draft")
	assert.Contains(t, out, "READY_FOR_REVIEW")
}

func TestTransitionsCommand(t *testing.T) {
	out, err := execute(t, "transitions", "published")
	require.NoError(t, err)

	got := strings.Fields(out)
	want := []string{"UNPUBLISH", "RETRACT", "ARCHIVE"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}
}

func TestTransitionsCommand_FilteredByRole(t *testing.T) {
	out, err := execute(t, "transitions", "APPROVED", "--role", "EDITOR")
	require.NoError(t, err)

	got := strings.Fields(out)
	assert.Contains(t, got, "SCHEDULE")
	assert.NotContains(t, got, "PUBLISH")
	assert.NotContains(t, got, "REJECT")
}

func TestTransitionsCommand_UnknownState(t *testing.T) {
	_, err := execute(t, "transitions", "LIMBO")
	require.Error(t, err)
	assert.Equal(t, "unknown_status", workflow.ReasonOf(err))
}

func TestApplyCommand(t *testing.T) {
	dbPath, id := seedArticle(t)
	idArg := strconv.FormatInt(id, 10)

	out, err := execute(t, "apply", "--db", dbPath, "--id", idArg, "--action", "submit_for_review", "--expect", "DRAFT")
	require.NoError(t, err)
	assert.Contains(t, out, "DRAFT -> READY_FOR_REVIEW via SUBMIT_FOR_REVIEW (version 2)")

	_, err = execute(t, "apply", "--db", dbPath, "--id", idArg, "--action", "APPROVE", "--expect", "DRAFT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status_mismatch")

	when := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	_, err = execute(t, "apply", "--db", dbPath, "--id", idArg, "--action", "APPROVE", "--expect", "READY_FOR_REVIEW")
	require.NoError(t, err)
	out, err = execute(t, "apply", "--db", dbPath, "--id", idArg, "--action", "SCHEDULE", "--expect", "APPROVED", "--scheduled-at", when)
	require.NoError(t, err)
	assert.Contains(t, out, "APPROVED -> SCHEDULED")
	assert.Contains(t, out, "Scheduled at: "+when)

	out, err = execute(t, "history", "--db", dbPath, "--id", idArg)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 5)
	assert.Contains(t, lines[len(lines)-1], "SCHEDULE")
}

func TestApplyCommand_RoleDenied(t *testing.T) {
	dbPath, id := seedArticle(t)

	_, err := execute(t, "apply", "--db", dbPath, "--id", strconv.FormatInt(id, 10), "--action", "REJECT", "--expect", "DRAFT",
		"--feedback", "off topic", "--role", "EDITOR")
	require.Error(t, err)
	assert.True(t, appworkflow.IsForbidden(err))
}

func TestApplyCommand_SystemRoleReserved(t *testing.T) {
	dbPath, id := seedArticle(t)
	idArg := strconv.FormatInt(id, 10)

	_, err := execute(t, "apply", "--db", dbPath, "--id", idArg, "--action", "ARCHIVE", "--expect", "DRAFT", "--role", "system")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserved")

	s, err := openStore()
	require.NoError(t, err)
	defer s.Close()
	history, err := s.workflow.History(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestApplyCommand_NeedsDatabase(t *testing.T) {
	t.Setenv("WORKFLOW_DB_PATH", "")

	_, err := execute(t, "apply", "--id", "1", "--action", "ARCHIVE", "--expect", "DRAFT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--db is required")
}

func TestReportCommand(t *testing.T) {
	dbPath, _ := seedArticle(t)
	target := filepath.Join(t.TempDir(), "status.xlsx")

	out, err := execute(t, "report", "--db", dbPath, "--out", target)
	require.NoError(t, err)
	assert.Contains(t, out, "(1 articles)")

	f, err := excelize.OpenFile(target)
	require.NoError(t, err)
	defer f.Close()
	assert.NotEmpty(t, f.GetSheetList())
}
