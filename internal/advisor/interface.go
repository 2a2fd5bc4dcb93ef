package advisor

import (
	"context"

	"codeberg.org/mutker/scadactl/internal/collector"
)

// ResultKind discriminates the two advisor outcomes.
type ResultKind string

const (
	KindText   ResultKind = "text"
	KindAction ResultKind = "action"
)

// ActionRequest is a proposed write the operator must approve before it
// reaches the endpoint.
type ActionRequest struct {
	Tag     string  `json:"tag"`
	Value   float64 `json:"value"`
	Thought string  `json:"thought"`
}

// Result carries either plain analysis text or a proposed action. Kind
// is the discriminant; Action is non-nil only for KindAction.
type Result struct {
	Kind   ResultKind     `json:"kind"`
	Text   string         `json:"text"`
	Action *ActionRequest `json:"action,omitempty"`
}

// DataSource is the slice of the collector the advisor reads when
// building context for a question.
type DataSource interface {
	GetLatest() *collector.Snapshot
	GetStatus() collector.Status
	AllStatistics() (map[string]collector.PointStats, error)
}

// Advisor answers operator questions about the monitored process.
type Advisor interface {
	Ask(ctx context.Context, question string) (Result, error)
	AnalyzeCurrentState(ctx context.Context) (Result, error)
	DiagnoseIssue(ctx context.Context, symptom string) (Result, error)
	SuggestOptimization(ctx context.Context) (Result, error)
	ExplainBehavior(ctx context.Context, observation string) (Result, error)
	ClearHistory()
	HistorySummary() string
}
