package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/gmsas95/agentcord/internal/llm"
	"github.com/gmsas95/agentcord/internal/tools"
)

type scriptedClient struct {
	responses []*llm.ChatResponse
	errs      []error
	requests  []llm.ChatRequest
}

func (c *scriptedClient) ChatCompletion(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	i := len(c.requests)
	c.requests = append(c.requests, req)

	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	if i < len(c.responses) {
		return c.responses[i], nil
	}
	return c.responses[len(c.responses)-1], nil
}

func (c *scriptedClient) Model() string        { return "test-model" }
func (c *scriptedClient) Temperature() float64 { return 0.3 }

type echoTool struct {
	result   tools.Result
	fault    error
	executed []map[string]any
}

func (e *echoTool) Name() string        { return "echo" }
func (e *echoTool) Description() string { return "Echoes the provided value." }

func (e *echoTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"value": map[string]any{"type": "string"},
		},
		"additionalProperties": false,
	}
}

func (e *echoTool) CanUse(*tools.Context) bool { return true }

func (e *echoTool) Execute(_ context.Context, _ *tools.Context, args map[string]any) (tools.Result, error) {
	e.executed = append(e.executed, args)
	if e.fault != nil {
		return tools.Result{}, e.fault
	}
	return e.result, nil
}

func newToolset(t *testing.T, tool tools.Tool) *tools.Toolset {
	t.Helper()

	reg := tools.NewRegistry()
	if err := reg.Register(tool); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	ts := reg.Resolve(&tools.Context{})
	if ts == nil {
		t.Fatal("expected a usable toolset")
	}
	return ts
}

func textResponse(text string) *llm.ChatResponse {
	return &llm.ChatResponse{
		Choices: []llm.Choice{{
			Message:      llm.Message{Role: llm.RoleAssistant, Content: text},
			FinishReason: "stop",
		}},
	}
}

func toolCallResponse(calls ...llm.ToolCall) *llm.ChatResponse {
	return &llm.ChatResponse{
		Choices: []llm.Choice{{
			Message:      llm.Message{Role: llm.RoleAssistant, ToolCalls: calls},
			FinishReason: "tool_calls",
		}},
	}
}

func echoCall(id, arguments string) llm.ToolCall {
	return llm.ToolCall{
		ID:   id,
		Type: "function",
		Function: llm.ToolCallFunction{
			Name:      "echo",
			Arguments: arguments,
		},
	}
}

func history() []llm.Message {
	return []llm.Message{{Role: llm.RoleUser, Content: "Alice: hello"}}
}

func TestRunPlainAnswer(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatResponse{textResponse("Done.")}}
	loop := NewLoop(client, zap.NewNop(), nil, 8)

	reply, err := loop.Run(context.Background(), history(), nil, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if reply != "Done." {
		t.Errorf("reply = %q, want %q", reply, "Done.")
	}

	if len(client.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(client.requests))
	}

	req := client.requests[0]
	if len(req.Tools) != 0 || req.ToolChoice != "" {
		t.Error("request must omit tool declarations when no toolset is present")
	}
	if req.Messages[0].Role != llm.RoleSystem {
		t.Error("first message must be the system turn")
	}
	if !strings.Contains(req.Messages[0].Content, "channel-aware assistant") {
		t.Error("system turn missing base prompt")
	}
	if req.Messages[1].Content != "Alice: hello" {
		t.Errorf("history not forwarded: %+v", req.Messages[1])
	}
}

func TestRunNoChoicesAborts(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatResponse{{}}}
	loop := NewLoop(client, zap.NewNop(), nil, 8)

	reply, err := loop.Run(context.Background(), history(), nil, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if reply != fallbackText {
		t.Errorf("reply = %q, want fallback", reply)
	}
}

func TestRunEmptyContentAborts(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatResponse{textResponse("   ")}}
	loop := NewLoop(client, zap.NewNop(), nil, 8)

	reply, err := loop.Run(context.Background(), history(), nil, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if reply != fallbackText {
		t.Errorf("reply = %q, want fallback", reply)
	}
}

func TestRunToolRoundTrip(t *testing.T) {
	tool := &echoTool{result: tools.Result{Status: tools.StatusSuccess, Message: `{"echoed":"hi"}`}}
	client := &scriptedClient{responses: []*llm.ChatResponse{
		toolCallResponse(echoCall("call_1", `{"value":"hi"}`)),
		textResponse("It said hi."),
	}}
	loop := NewLoop(client, zap.NewNop(), nil, 8)

	reply, err := loop.Run(context.Background(), history(), nil, newToolset(t, tool))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if reply != "It said hi." {
		t.Errorf("reply = %q", reply)
	}

	if len(tool.executed) != 1 {
		t.Fatalf("tool executed %d times, want 1", len(tool.executed))
	}
	if tool.executed[0]["value"] != "hi" {
		t.Errorf("tool args = %v", tool.executed[0])
	}

	if len(client.requests) != 2 {
		t.Fatalf("expected 2 rounds, got %d", len(client.requests))
	}

	second := client.requests[1].Messages
	assistant := second[len(second)-2]
	result := second[len(second)-1]

	if assistant.Role != llm.RoleAssistant || len(assistant.ToolCalls) != 1 {
		t.Errorf("assistant turn not preserved: %+v", assistant)
	}
	if result.Role != llm.RoleTool || result.ToolCallID != "call_1" {
		t.Errorf("tool result turn malformed: %+v", result)
	}

	var decoded tools.Result
	if err := json.Unmarshal([]byte(result.Content), &decoded); err != nil {
		t.Fatalf("tool result content not JSON: %v", err)
	}
	if decoded.Status != tools.StatusSuccess {
		t.Errorf("tool result status = %q", decoded.Status)
	}
}

func TestRunSingleCallPolicy(t *testing.T) {
	tool := &echoTool{result: tools.Result{Status: tools.StatusSuccess, Message: "{}"}}
	client := &scriptedClient{responses: []*llm.ChatResponse{
		toolCallResponse(
			echoCall("call_1", `{"value":"first"}`),
			echoCall("call_2", `{"value":"second"}`),
		),
		textResponse("done"),
	}}
	loop := NewLoop(client, zap.NewNop(), nil, 8)

	if _, err := loop.Run(context.Background(), history(), nil, newToolset(t, tool)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(tool.executed) != 1 {
		t.Fatalf("expected exactly one dispatch, got %d", len(tool.executed))
	}
	if tool.executed[0]["value"] != "first" {
		t.Errorf("wrong call dispatched: %v", tool.executed[0])
	}

	toolTurns := 0
	for _, msg := range client.requests[1].Messages {
		if msg.Role == llm.RoleTool {
			toolTurns++
		}
	}
	if toolTurns != 1 {
		t.Errorf("second request carries %d tool-result turns, want 1", toolTurns)
	}
}

func TestRunUnknownToolAborts(t *testing.T) {
	tool := &echoTool{result: tools.Result{Status: tools.StatusSuccess, Message: "{}"}}
	client := &scriptedClient{responses: []*llm.ChatResponse{
		toolCallResponse(llm.ToolCall{
			ID:       "call_1",
			Type:     "function",
			Function: llm.ToolCallFunction{Name: "missing_tool", Arguments: "{}"},
		}),
	}}
	loop := NewLoop(client, zap.NewNop(), nil, 8)

	reply, err := loop.Run(context.Background(), history(), nil, newToolset(t, tool))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if reply != fallbackText {
		t.Errorf("reply = %q, want fallback", reply)
	}
	if len(tool.executed) != 0 {
		t.Error("no tool should have executed")
	}
	if len(client.requests) != 1 {
		t.Errorf("no further round should be attempted, got %d requests", len(client.requests))
	}
}

func TestRunValidationFailureAborts(t *testing.T) {
	tool := &echoTool{result: tools.Result{Status: tools.StatusSuccess, Message: "{}"}}
	client := &scriptedClient{responses: []*llm.ChatResponse{
		toolCallResponse(echoCall("call_1", `{"value":42}`)),
	}}
	loop := NewLoop(client, zap.NewNop(), nil, 8)

	reply, err := loop.Run(context.Background(), history(), nil, newToolset(t, tool))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if reply != fallbackText {
		t.Errorf("reply = %q, want fallback", reply)
	}
	if len(tool.executed) != 0 {
		t.Error("tool must never see invalid arguments")
	}
}

func TestRunMalformedArgsDefaultToEmpty(t *testing.T) {
	tool := &echoTool{result: tools.Result{Status: tools.StatusSuccess, Message: "{}"}}
	client := &scriptedClient{responses: []*llm.ChatResponse{
		toolCallResponse(echoCall("call_1", "not json at all")),
		textResponse("recovered"),
	}}
	loop := NewLoop(client, zap.NewNop(), nil, 8)

	reply, err := loop.Run(context.Background(), history(), nil, newToolset(t, tool))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if reply != "recovered" {
		t.Errorf("reply = %q", reply)
	}
	if len(tool.executed) != 1 || len(tool.executed[0]) != 0 {
		t.Errorf("tool should run with empty args, got %v", tool.executed)
	}
}

func TestRunToolFaultPropagates(t *testing.T) {
	fault := errors.New("filesystem exploded")
	tool := &echoTool{fault: fault}
	client := &scriptedClient{responses: []*llm.ChatResponse{
		toolCallResponse(echoCall("call_1", `{"value":"x"}`)),
	}}
	loop := NewLoop(client, zap.NewNop(), nil, 8)

	reply, err := loop.Run(context.Background(), history(), nil, newToolset(t, tool))
	if !errors.Is(err, fault) {
		t.Fatalf("expected the tool fault to propagate, got %v", err)
	}
	if reply != "" {
		t.Errorf("no reply expected on fault, got %q", reply)
	}
}

func TestRunMaxRoundsGuard(t *testing.T) {
	tool := &echoTool{result: tools.Result{Status: tools.StatusSuccess, Message: "{}"}}
	client := &scriptedClient{responses: []*llm.ChatResponse{
		toolCallResponse(echoCall("call_1", `{"value":"loop"}`)),
	}}
	loop := NewLoop(client, zap.NewNop(), nil, 3)

	reply, err := loop.Run(context.Background(), history(), nil, newToolset(t, tool))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if reply != fallbackText {
		t.Errorf("reply = %q, want fallback after round cap", reply)
	}
	if len(client.requests) != 3 {
		t.Errorf("expected 3 rounds, got %d", len(client.requests))
	}
}

func TestRunClientErrorPropagates(t *testing.T) {
	upstream := errors.New("connection refused")
	client := &scriptedClient{errs: []error{upstream}, responses: []*llm.ChatResponse{{}}}
	loop := NewLoop(client, zap.NewNop(), nil, 8)

	_, err := loop.Run(context.Background(), history(), nil, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, upstream) {
		t.Errorf("cause not preserved: %v", err)
	}
}

func TestRunIgnoresToolCallsWithoutToolset(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatResponse{
		toolCallResponse(echoCall("call_1", "{}")),
	}}
	loop := NewLoop(client, zap.NewNop(), nil, 8)

	reply, err := loop.Run(context.Background(), history(), nil, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if reply != fallbackText {
		t.Errorf("reply = %q, want fallback", reply)
	}
}
