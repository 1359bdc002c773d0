package http

import "github.com/garyjia/newsroom-workflow/internal/domain/workflow"

var statusLabels = map[workflow.State]string{
	workflow.StateDraft:            "Draft",
	workflow.StateInProgress:       "In Progress",
	workflow.StateAssigned:         "Assigned",
	workflow.StateUnassigned:       "Unassigned",
	workflow.StateReadyForReview:   "Ready for Review",
	workflow.StateUnderReview:      "Under Review",
	workflow.StateFactChecking:     "Fact Checking",
	workflow.StateLegalReview:      "Legal Review",
	workflow.StateCopyEdit:         "Copy Edit",
	workflow.StateProofreading:     "Proofreading",
	workflow.StateNeedsRevision:    "Needs Revision",
	workflow.StateReturnedToWriter: "Returned to Writer",
	workflow.StateOnHold:           "On Hold",
	workflow.StateOverdue:          "Overdue",
	workflow.StateRush:             "Rush",
	workflow.StatePendingApproval:  "Pending Approval",
	workflow.StateApproved:         "Approved",
	workflow.StateScheduled:        "Scheduled",
	workflow.StatePublished:        "Published",
	workflow.StateRejected:         "Rejected",
	workflow.StateArchived:         "Archived",
	workflow.StateRetracted:        "Retracted",
	workflow.StateUnpublished:      "Unpublished",
	workflow.StateExpired:          "Expired",
	workflow.StateUpdated:          "Updated",
}

// dashboard chart colors; states without one use defaultStatusColor
var statusColors = map[workflow.State]string{
	workflow.StateDraft:            "#6b7280",
	workflow.StateInProgress:       "#6366f1",
	workflow.StateReadyForReview:   "#fbbf24",
	workflow.StateUnderReview:      "#3b82f6",
	workflow.StateNeedsRevision:    "#f59e0b",
	workflow.StatePendingApproval:  "#8b5cf6",
	workflow.StateApproved:         "#10b981",
	workflow.StateScheduled:        "#06b6d4",
	workflow.StatePublished:        "#059669",
	workflow.StateRejected:         "#ef4444",
	workflow.StateReturnedToWriter: "#ec4899",
	workflow.StateOnHold:           "#f59e0b",
	workflow.StateFactChecking:     "#8b5cf6",
	workflow.StateLegalReview:      "#f43f5e",
	workflow.StateCopyEdit:         "#0ea5e9",
	workflow.StateProofreading:     "#14b8a6",
	workflow.StateAssigned:         "#84cc16",
	workflow.StateUnassigned:       "#78716c",
	workflow.StateOverdue:          "#dc2626",
	workflow.StateRush:             "#ea580c",
	workflow.StateArchived:         "#9ca3af",
}

const defaultStatusColor = "#6b7280"

// StatusLabel returns the display name of a status, or the raw value if it has none
func StatusLabel(s workflow.State) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return s.String()
}

// StatusColor returns the dashboard color of a status
func StatusColor(s workflow.State) string {
	if color, ok := statusColors[s]; ok {
		return color
	}
	return defaultStatusColor
}
