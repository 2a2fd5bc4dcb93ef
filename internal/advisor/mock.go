package advisor

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"codeberg.org/mutker/scadactl/internal/collector"
)

// writeIntentRe matches imperative write requests such as
// "set freq1 to 45" or "write 2.5 to cv".
var writeIntentRe = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:set|adjust|change)\s+(\w+)\s+to\s+(-?\d+(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)\bwrite\s+(-?\d+(?:\.\d+)?)\s+to\s+(\w+)`),
}

type mockAdvisor struct {
	source  DataSource
	history *history
}

// NewMock returns a canned advisor for operation without an API key.
// Responses are keyword driven; write intents produce a tagged action.
func NewMock(source DataSource) Advisor {
	return &mockAdvisor{source: source, history: &history{}}
}

func (a *mockAdvisor) Ask(_ context.Context, question string) (Result, error) {
	a.history.append("user", question)

	result := a.respond(question)

	a.history.append("assistant", result.Text)

	return result, nil
}

func (a *mockAdvisor) respond(question string) Result {
	if action := detectWriteIntent(question); action != nil {
		return Result{Kind: KindAction, Text: action.Thought, Action: action}
	}

	lower := strings.ToLower(question)

	var text string
	switch {
	case strings.Contains(lower, "status") || strings.Contains(lower, "current"):
		text = a.statusResponse()
	case strings.Contains(lower, "problem") || strings.Contains(lower, "error") || strings.Contains(lower, "symptom"):
		text = mockDiagnosticResponse
	case strings.Contains(lower, "pressure"):
		text = mockPressureResponse
	case strings.Contains(lower, "flow"):
		text = mockFlowResponse
	default:
		text = mockGenericResponse
	}

	return Result{Kind: KindText, Text: text}
}

// detectWriteIntent parses a write request out of free text, or nil.
func detectWriteIntent(question string) *ActionRequest {
	if m := writeIntentRe[0].FindStringSubmatch(question); m != nil {
		if value, err := strconv.ParseFloat(m[2], 64); err == nil {
			return &ActionRequest{
				Tag:     strings.ToLower(m[1]),
				Value:   value,
				Thought: fmt.Sprintf("[MOCK] Operator requested setting %s to %v. Awaiting approval.", strings.ToLower(m[1]), value),
			}
		}
	}

	if m := writeIntentRe[1].FindStringSubmatch(question); m != nil {
		if value, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &ActionRequest{
				Tag:     strings.ToLower(m[2]),
				Value:   value,
				Thought: fmt.Sprintf("[MOCK] Operator requested setting %s to %v. Awaiting approval.", strings.ToLower(m[2]), value),
			}
		}
	}

	return nil
}

func (a *mockAdvisor) statusResponse() string {
	if a.source == nil {
		return "[MOCK] System operating normally. Connect to the endpoint for live data."
	}

	snapshot := a.source.GetLatest()
	if snapshot == nil {
		return "[MOCK] System operating normally. Connect to the endpoint for live data."
	}

	get := func(name string) float64 {
		v, ok := snapshot.Values[name]
		if !ok || collector.IsMissing(v) {
			return 0
		}
		return v
	}

	return fmt.Sprintf(`[MOCK] Current state analysis:

Sensors show operation within normal parameters.
- Flow (ft1): %.2f - OK
- Pressures: PT1=%.2f, PT2=%.2f
- Pressure differential: %.2f

No anomalies detected at this time.`,
		get("ft1"), get("pt1"), get("pt2"), get("pt2")-get("pt1"))
}

const mockDiagnosticResponse = `[MOCK] Diagnosis:

Possible causes for typical problems:
1. Pressure drop: check for leaks or obstructions
2. Unstable flow: check drive frequency and valve position
3. Sensor noise: check wiring and grounding

Review the endpoint logs for more detail.`

const mockPressureResponse = "[MOCK] System pressure depends on flow and head losses. Monitor PT1 and PT2 for a complete picture."

const mockFlowResponse = "[MOCK] Flow is governed mainly by the drive frequency and the CV valve position."

const mockGenericResponse = "[MOCK] This is a simulated response. Configure an Anthropic API key for real analysis."

func (a *mockAdvisor) AnalyzeCurrentState(ctx context.Context) (Result, error) {
	return a.Ask(ctx, analyzePrompt())
}

func (a *mockAdvisor) DiagnoseIssue(ctx context.Context, symptom string) (Result, error) {
	return a.Ask(ctx, diagnosePrompt(symptom))
}

func (a *mockAdvisor) SuggestOptimization(ctx context.Context) (Result, error) {
	return a.Ask(ctx, optimizePrompt())
}

func (a *mockAdvisor) ExplainBehavior(ctx context.Context, observation string) (Result, error) {
	return a.Ask(ctx, explainPrompt(observation))
}

func (a *mockAdvisor) ClearHistory() {
	a.history.clear()
}

func (a *mockAdvisor) HistorySummary() string {
	return a.history.summary()
}
