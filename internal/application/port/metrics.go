package port

// Outcome labels recorded by WorkflowMetrics
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// WorkflowMetrics records workflow activity for monitoring
type WorkflowMetrics interface {
	ObserveTransition(from, to, action string)
	ObserveRejected(action, kind string)
	ObserveBulkItem(action, outcome string)
	ObserveScheduledPublish(outcome string)
}

// NopMetrics discards every observation
type NopMetrics struct{}

func (NopMetrics) ObserveTransition(from, to, action string) {}
func (NopMetrics) ObserveRejected(action, kind string)       {}
func (NopMetrics) ObserveBulkItem(action, outcome string)    {}
func (NopMetrics) ObserveScheduledPublish(outcome string)    {}
