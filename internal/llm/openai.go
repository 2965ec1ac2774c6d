package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/teemow/inboxagent/internal/instrumentation"
	"github.com/teemow/inboxagent/internal/logging"
)

// Config holds the OpenAI client configuration.
type Config struct {
	APIKey          string
	Model           string
	DistillModel    string
	MaxOutputTokens int64
}

// Defaults applied when the corresponding Config field is empty. The
// distillation model is deliberately separate from the main model: the
// profile rewrite is a cheaper, more constrained task.
const (
	DefaultModel        = "gpt-4o"
	DefaultDistillModel = "gpt-4.1"
)

// Client implements Classifier, Generator and Distiller against the
// OpenAI Responses API.
type Client struct {
	api          *openai.Client
	model        string
	distillModel string
	maxTokens    int64
	logger       *slog.Logger
	metrics      *instrumentation.Metrics
}

// verdictPayload mirrors the router's structured output schema.
type verdictPayload struct {
	Reasoning      string `json:"reasoning" jsonschema_description:"Step-by-step reasoning behind the classification."`
	Classification string `json:"classification" jsonschema:"enum=ignore,enum=notify,enum=respond" jsonschema_description:"The classification of an email: 'ignore' for irrelevant emails, 'notify' for important information that doesn't need a response, 'respond' for emails that need a reply"`
}

var verdictSchema = GenerateSchema[verdictPayload]()
var profileSchema = GenerateSchema[ProfileUpdate]()

// NewClient creates an OpenAI-backed client. A nil logger falls back to
// slog.Default().
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	distillModel := cfg.DistillModel
	if distillModel == "" {
		distillModel = DefaultDistillModel
	}
	maxTokens := cfg.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = 2500
	}
	api := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Client{
		api:          &api,
		model:        model,
		distillModel: distillModel,
		maxTokens:    maxTokens,
		logger:       logger,
	}
}

// WithMetrics attaches a metrics recorder for per-request counters and
// latency. A nil recorder disables recording.
func (c *Client) WithMetrics(m *instrumentation.Metrics) *Client {
	c.metrics = m
	return c
}

// call wraps callWithRetry with a span and request metrics.
func (c *Client) call(ctx context.Context, op, model string, params responses.ResponseNewParams) (*responses.Response, error) {
	ctx, span := instrumentation.StartLLMSpan(ctx, op, model)
	defer span.End()

	start := time.Now()
	resp, err := callWithRetry(ctx, c.api, params)
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordLLMRequest(ctx, op, model, status, time.Since(start))
	return resp, err
}

// Classify implements Classifier via structured output.
func (c *Client) Classify(ctx context.Context, systemPrompt, userPrompt string) (Verdict, error) {
	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(c.maxTokens),
		Temperature:     openai.Float(0),
		Instructions:    openai.String(systemPrompt),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(userPrompt, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "TriageVerdict",
					Schema:      verdictSchema,
					Strict:      openai.Bool(true),
					Description: openai.String("Classification verdict for an inbound email"),
					Type:        "json_schema",
				},
			},
		},
	}

	resp, err := c.call(ctx, "classify", c.model, params)
	if err != nil {
		return Verdict{}, &GenerationError{Op: "classify", Err: err}
	}

	var out verdictPayload
	if err := decodeModelJSON(resp.OutputText(), &out); err != nil {
		return Verdict{}, &GenerationError{Op: "classify", Err: fmt.Errorf("unmarshal verdict: %w", err)}
	}
	return Verdict{Classification: out.Classification, Rationale: out.Reasoning}, nil
}

// Generate implements Generator. The returned assistant message carries
// at most one tool call; extra calls from the model are dropped to
// uphold the single-call-per-turn convention.
func (c *Client) Generate(ctx context.Context, systemPrompt string, msgs []Message, tools []ToolSchema) (Message, error) {
	input := make([]responses.ResponseInputItemUnionParam, 0, len(msgs)+2)
	for _, msg := range msgs {
		input = append(input, conversationItems(msg)...)
	}

	toolParams := make([]responses.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		toolParams = append(toolParams, responses.ToolUnionParam{
			OfFunction: &responses.FunctionToolParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  tool.Parameters,
				Strict:      openai.Bool(true),
			},
		})
	}

	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(c.maxTokens),
		Temperature:     openai.Float(0),
		Instructions:    openai.String(systemPrompt),
		Input:           responses.ResponseNewParamsInputUnion{OfInputItemList: input},
		Tools:           toolParams,
		// The agent loop expects a tool call every turn.
		ToolChoice: responses.ResponseNewParamsToolChoiceUnion{
			OfToolChoiceMode: openai.Opt(responses.ToolChoiceOptionsRequired),
		},
	}

	resp, err := c.call(ctx, "generate", c.model, params)
	if err != nil {
		return Message{}, &GenerationError{Op: "generate", Err: err}
	}

	msg := Message{Role: RoleAssistant, Content: resp.OutputText()}
	for _, item := range resp.Output {
		if item.Type != "function_call" {
			continue
		}
		fc := item.AsFunctionCall()
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{
			ID:        fc.CallID,
			Name:      fc.Name,
			Arguments: json.RawMessage(fc.Arguments),
		})
	}
	if len(msg.ToolCalls) > 1 {
		c.logger.Debug("model returned multiple tool calls, keeping first",
			logging.Tool(msg.ToolCalls[0].Name),
			slog.Int("dropped", len(msg.ToolCalls)-1))
		msg.ToolCalls = msg.ToolCalls[:1]
	}
	return msg, nil
}

// Distill implements Distiller via structured output. Feedback
// messages are flattened to text so the distillation call needs no
// tool context.
func (c *Client) Distill(ctx context.Context, systemPrompt string, msgs []Message) (ProfileUpdate, error) {
	input := make([]responses.ResponseInputItemUnionParam, 0, len(msgs))
	for _, msg := range msgs {
		role := responses.EasyInputMessageRoleUser
		if msg.Role == RoleAssistant {
			role = responses.EasyInputMessageRoleAssistant
		}
		input = append(input, responses.ResponseInputItemParamOfMessage(flattenForDistill(msg), role))
	}

	params := responses.ResponseNewParams{
		Model:           c.distillModel,
		MaxOutputTokens: openai.Int(c.maxTokens),
		Temperature:     openai.Float(0),
		Instructions:    openai.String(systemPrompt),
		Input:           responses.ResponseNewParamsInputUnion{OfInputItemList: input},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "UserPreferences",
					Schema:      profileSchema,
					Strict:      openai.Bool(true),
					Description: openai.String("Updated preference profile"),
					Type:        "json_schema",
				},
			},
		},
	}

	resp, err := c.call(ctx, "distill", c.distillModel, params)
	if err != nil {
		return ProfileUpdate{}, &GenerationError{Op: "distill", Err: err}
	}

	var out ProfileUpdate
	if err := decodeModelJSON(resp.OutputText(), &out); err != nil {
		return ProfileUpdate{}, &GenerationError{Op: "distill", Err: fmt.Errorf("unmarshal profile: %w", err)}
	}
	return out, nil
}

// conversationItems translates one conversation message into Responses
// API input items. Assistant tool calls and their tool results become
// function call / output items so the model sees the real call graph.
func conversationItems(msg Message) []responses.ResponseInputItemUnionParam {
	switch msg.Role {
	case RoleTool:
		return []responses.ResponseInputItemUnionParam{
			responses.ResponseInputItemParamOfFunctionCallOutput(msg.ToolCallID, msg.Content),
		}
	case RoleAssistant:
		items := make([]responses.ResponseInputItemUnionParam, 0, len(msg.ToolCalls)+1)
		if msg.Content != "" {
			items = append(items, responses.ResponseInputItemParamOfMessage(msg.Content, responses.EasyInputMessageRoleAssistant))
		}
		for _, call := range msg.ToolCalls {
			items = append(items, responses.ResponseInputItemParamOfFunctionCall(string(call.Arguments), call.ID, call.Name))
		}
		return items
	default:
		return []responses.ResponseInputItemUnionParam{
			responses.ResponseInputItemParamOfMessage(msg.Content, responses.EasyInputMessageRoleUser),
		}
	}
}

// flattenForDistill renders a message as plain text, inlining any tool
// calls so the distiller sees what the assistant proposed.
func flattenForDistill(msg Message) string {
	if len(msg.ToolCalls) == 0 && msg.Role != RoleTool {
		return msg.Content
	}
	var b strings.Builder
	if msg.Role == RoleTool {
		fmt.Fprintf(&b, "Tool result: %s", msg.Content)
		return b.String()
	}
	if msg.Content != "" {
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	for _, call := range msg.ToolCalls {
		fmt.Fprintf(&b, "Proposed %s with arguments: %s", call.Name, string(call.Arguments))
	}
	return b.String()
}

func decodeModelJSON(text string, out any) error {
	return json.Unmarshal([]byte(strings.TrimSpace(text)), out)
}

func callWithRetry(ctx context.Context, client *openai.Client, params responses.ResponseNewParams) (*responses.Response, error) {
	const maxRetries = 3
	rateLimitWaitTimes := []time.Duration{65 * time.Second, 100 * time.Second, 135 * time.Second}
	serverErrorWaitTimes := []time.Duration{5 * time.Second, 30 * time.Second, 60 * time.Second}

	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := client.Responses.New(ctx, params)
		if err != nil {
			if isRateLimitError(err) {
				if attempt < maxRetries-1 {
					if sleepErr := sleepCtx(ctx, rateLimitWaitTimes[attempt]); sleepErr != nil {
						return nil, sleepErr
					}
					continue
				}
			} else if isServerError(err) {
				if attempt < maxRetries-1 {
					if sleepErr := sleepCtx(ctx, serverErrorWaitTimes[attempt]); sleepErr != nil {
						return nil, sleepErr
					}
					continue
				}
			}
			return nil, err
		}
		return resp, nil
	}
	return nil, fmt.Errorf("failed after %d attempts due to OpenAI API issues", maxRetries)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "server_error")
}
