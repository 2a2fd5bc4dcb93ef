package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"codeberg.org/mutker/scadactl/internal/config"
	"codeberg.org/mutker/scadactl/internal/errors"
	"codeberg.org/mutker/scadactl/internal/logger"
)

const (
	anthropicEndpoint = "https://api.anthropic.com/v1/messages"
	anthropicVersion  = "2023-06-01"
	requestTimeout    = 60 * time.Second

	setPointTool = "set_point"
)

type claudeAdvisor struct {
	cfg      config.LLMConfig
	source   DataSource
	client   *http.Client
	history  *history
	endpoint string
}

// NewClaude returns an advisor backed by the Anthropic Messages API.
func NewClaude(cfg config.LLMConfig, source DataSource) (Advisor, error) {
	errFactory := errors.New()

	if cfg.APIKey == "" {
		return nil, errFactory.WithMessage(errors.ErrMissingConfig, "llm api key is required")
	}

	return &claudeAdvisor{
		cfg:      cfg,
		source:   source,
		client:   &http.Client{Timeout: requestTimeout},
		history:  &history{},
		endpoint: anthropicEndpoint,
	}, nil
}

// Request/response shapes for the Messages API. Only the fields the
// advisor reads are declared.
type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system"`
	Messages  []apiMessage `json:"messages"`
	Tools     []apiTool    `json:"tools,omitempty"`
}

type apiContentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type apiResponse struct {
	Content    []apiContentBlock `json:"content"`
	StopReason string            `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type setPointInput struct {
	Tag     string  `json:"tag"`
	Value   float64 `json:"value"`
	Thought string  `json:"thought"`
}

func setPointSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tag": map[string]any{
				"type":        "string",
				"description": "Point name to write, e.g. freq1 or cv",
			},
			"value": map[string]any{
				"type":        "number",
				"description": "Value to write to the point",
			},
			"thought": map[string]any{
				"type":        "string",
				"description": "Reasoning behind the proposed adjustment",
			},
		},
		"required": []string{"tag", "value", "thought"},
	}
}

func (a *claudeAdvisor) Ask(ctx context.Context, question string) (Result, error) {
	a.history.append("user", wrapQuestion(a.source, question))

	result, err := a.complete(ctx)
	if err != nil {
		a.history.dropLast()
		return Result{}, err
	}

	a.history.append("assistant", result.Text)

	return result, nil
}

func (a *claudeAdvisor) complete(ctx context.Context) (Result, error) {
	errFactory := errors.New()

	window := a.history.window()
	messages := make([]apiMessage, 0, len(window))
	for _, msg := range window {
		messages = append(messages, apiMessage{Role: msg.Role, Content: msg.Content})
	}

	payload := apiRequest{
		Model:     a.cfg.Model,
		MaxTokens: a.cfg.MaxTokens,
		System:    systemPrompt,
		Messages:  messages,
		Tools: []apiTool{{
			Name:        setPointTool,
			Description: "Propose writing a value to a controllable point. The operator must approve before execution.",
			InputSchema: setPointSchema(),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, errFactory.Wrap(errors.ErrAdvisorRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, errFactory.Wrap(errors.ErrAdvisorRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.client.Do(req)
	if err != nil {
		return Result{}, errFactory.Wrap(errors.ErrAdvisorRequest, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, errFactory.Wrap(errors.ErrAdvisorRequest, err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{}, errFactory.WithMessage(errors.ErrAdvisorRequest,
			fmt.Sprintf("unexpected response (status %d)", resp.StatusCode))
	}

	if parsed.Error != nil {
		return Result{}, errFactory.WithMessage(errors.ErrAdvisorRequest,
			fmt.Sprintf("%s: %s", parsed.Error.Type, parsed.Error.Message))
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, errFactory.WithData(errors.ErrAdvisorRequest, resp.StatusCode)
	}

	return a.interpret(parsed)
}

// interpret maps API content blocks onto a Result. A tool_use block for
// set_point wins over plain text; the text blocks become the thought
// fallback when the tool input carries none.
func (a *claudeAdvisor) interpret(parsed apiResponse) (Result, error) {
	errFactory := errors.New()

	var text string
	var action *ActionRequest

	for _, block := range parsed.Content {
		switch block.Type {
		case "text":
			if text != "" {
				text += "\n"
			}
			text += block.Text
		case "tool_use":
			if block.Name != setPointTool {
				logger.Warn().Str("tool", block.Name).Msg("Ignoring unknown tool request")
				continue
			}

			var input setPointInput
			if err := json.Unmarshal(block.Input, &input); err != nil {
				return Result{}, errFactory.Wrap(errors.ErrAdvisorRequest, err)
			}

			action = &ActionRequest{Tag: input.Tag, Value: input.Value, Thought: input.Thought}
		}
	}

	if action != nil {
		if action.Thought == "" {
			action.Thought = text
		}

		return Result{Kind: KindAction, Text: action.Thought, Action: action}, nil
	}

	if text == "" {
		return Result{}, errFactory.WithMessage(errors.ErrAdvisorRequest, "empty completion")
	}

	return Result{Kind: KindText, Text: text}, nil
}

func (a *claudeAdvisor) AnalyzeCurrentState(ctx context.Context) (Result, error) {
	return a.Ask(ctx, analyzePrompt())
}

func (a *claudeAdvisor) DiagnoseIssue(ctx context.Context, symptom string) (Result, error) {
	return a.Ask(ctx, diagnosePrompt(symptom))
}

func (a *claudeAdvisor) SuggestOptimization(ctx context.Context) (Result, error) {
	return a.Ask(ctx, optimizePrompt())
}

func (a *claudeAdvisor) ExplainBehavior(ctx context.Context, observation string) (Result, error) {
	return a.Ask(ctx, explainPrompt(observation))
}

func (a *claudeAdvisor) ClearHistory() {
	a.history.clear()
	logger.Info().Msg("Conversation history cleared")
}

func (a *claudeAdvisor) HistorySummary() string {
	return a.history.summary()
}
