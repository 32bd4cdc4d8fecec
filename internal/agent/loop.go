package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/gmsas95/agentcord/internal/errors"
	"github.com/gmsas95/agentcord/internal/llm"
	"github.com/gmsas95/agentcord/internal/metrics"
	"github.com/gmsas95/agentcord/internal/tools"
)

// fallbackText is returned whenever the loop cannot produce a real answer.
const fallbackText = "I could not generate a response."

// ChatClient is the slice of the completion client the loop needs.
type ChatClient interface {
	ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
	Model() string
	Temperature() float64
}

// Loop drives the multi-round exchange with the model. Each Run is fully
// sequential; concurrent runs share only the immutable registry and the
// stateless clients.
type Loop struct {
	client    ChatClient
	logger    *zap.Logger
	metrics   *metrics.Metrics
	maxRounds int
}

func NewLoop(client ChatClient, logger *zap.Logger, m *metrics.Metrics, maxRounds int) *Loop {
	if maxRounds <= 0 {
		maxRounds = 8
	}
	return &Loop{
		client:    client,
		logger:    logger,
		metrics:   m,
		maxRounds: maxRounds,
	}
}

// Run executes one agent-loop run over the normalized history. A nil
// toolset disables tool calling entirely; the request then carries no
// tool declarations at all. The returned error is the unrecovered-fault
// path: a tool's own internals failed, and the caller must log it and
// deliver a generic apology instead of the reply.
func (l *Loop) Run(ctx context.Context, history []llm.Message, ac *Context, ts *tools.Toolset) (string, error) {
	runID := uuid.NewString()
	log := l.logger.With(zap.String("run_id", runID))

	conversation := make([]llm.Message, 0, len(history)+1)
	conversation = append(conversation, llm.Message{
		Role:    llm.RoleSystem,
		Content: SystemPrompt(ac),
	})
	conversation = append(conversation, history...)

	var declarations []llm.Tool
	if ts != nil && ts.Len() > 0 {
		declarations = ts.Declarations()
	}

	for round := 1; round <= l.maxRounds; round++ {
		req := llm.ChatRequest{
			Model:       l.client.Model(),
			Temperature: l.client.Temperature(),
			Messages:    conversation,
		}
		if len(declarations) > 0 {
			req.Tools = declarations
			req.ToolChoice = "auto"
		}

		resp, err := l.client.ChatCompletion(ctx, req)
		l.recordLLM(err == nil)
		if err != nil {
			l.recordRun(metrics.OutcomeFault, round)
			return "", apperrors.Wrap(err, apperrors.ErrModelUnavailable.Code, "chat completion failed")
		}

		if len(resp.Choices) == 0 {
			log.Warn("Model returned no choices", zap.Int("round", round))
			l.recordRun(metrics.OutcomeAborted, round)
			return fallbackText, nil
		}

		message := resp.Choices[0].Message

		if len(message.ToolCalls) > 0 && ts != nil && ts.Len() > 0 {
			// Single-call policy: only the first requested call is
			// dispatched, additional calls in the same turn are ignored.
			call := message.ToolCalls[0]

			extended, err := l.dispatchToolCall(ctx, log, conversation, message, call, ts)
			if err != nil {
				l.recordRun(metrics.OutcomeFault, round)
				return "", err
			}
			if extended == nil {
				l.recordRun(metrics.OutcomeAborted, round)
				return fallbackText, nil
			}

			conversation = extended
			continue
		}

		content := strings.TrimSpace(message.Content)
		if content == "" {
			l.recordRun(metrics.OutcomeAborted, round)
			return fallbackText, nil
		}

		log.Info("Agent run answered", zap.Int("rounds", round))
		l.recordRun(metrics.OutcomeAnswered, round)
		return content, nil
	}

	log.Warn("Agent run exceeded round limit", zap.Int("max_rounds", l.maxRounds))
	l.recordRun(metrics.OutcomeAborted, l.maxRounds)
	return fallbackText, nil
}

// dispatchToolCall resolves, validates, and executes one requested tool
// call, returning the conversation extended with the assistant turn and
// the tool-result turn. A nil conversation with nil error means the run
// must abort with fallback text. A non-nil error is a tool fault and
// propagates to the caller untouched by the loop.
func (l *Loop) dispatchToolCall(
	ctx context.Context,
	log *zap.Logger,
	conversation []llm.Message,
	assistant llm.Message,
	call llm.ToolCall,
	ts *tools.Toolset,
) ([]llm.Message, error) {
	name := call.Function.Name

	tool, ok := ts.Lookup(name)
	if !ok {
		log.Warn("Model requested unknown tool", zap.String("tool", name))
		return nil, nil
	}

	args := tools.ParseArguments(call.Function.Arguments)

	if err := ts.Validate(name, args); err != nil {
		log.Warn("Tool arguments failed validation",
			zap.String("tool", name),
			zap.Error(err))
		return nil, nil
	}

	result, err := tool.Execute(ctx, ts.Context, args)
	if err != nil {
		l.recordTool(name, false)
		return nil, err
	}
	l.recordTool(name, result.Status == tools.StatusSuccess)

	log.Info("Tool dispatched",
		zap.String("tool", name),
		zap.String("status", result.Status))

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal.Code, "encoding tool result")
	}

	extended := append(conversation,
		llm.Message{
			Role:      llm.RoleAssistant,
			Content:   assistant.Content,
			ToolCalls: assistant.ToolCalls,
		},
		llm.Message{
			Role:       llm.RoleTool,
			ToolCallID: call.ID,
			Content:    string(payload),
		},
	)

	return extended, nil
}

func (l *Loop) recordRun(outcome string, rounds int) {
	if l.metrics != nil {
		l.metrics.RecordRun(outcome, rounds)
	}
}

func (l *Loop) recordLLM(success bool) {
	if l.metrics != nil {
		l.metrics.RecordLLMRequest(success)
	}
}

func (l *Loop) recordTool(name string, success bool) {
	if l.metrics != nil {
		l.metrics.RecordToolCall(name, success)
	}
}
