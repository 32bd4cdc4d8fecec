// Package metrics tracks agent run outcomes and exposes them both as a
// JSON snapshot for the status API and in Prometheus text format.
package metrics

import (
	"bytes"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Run outcome labels.
const (
	OutcomeAnswered = "answered"
	OutcomeAborted  = "aborted"
	OutcomeFault    = "fault"
)

type Metrics struct {
	startTime time.Time
	registry  *prometheus.Registry

	runsTotal   *prometheus.CounterVec
	runRounds   prometheus.Histogram
	llmRequests *prometheus.CounterVec
	toolCalls   *prometheus.CounterVec
	messages    prometheus.Counter
	replies     prometheus.Counter

	runsAnswered atomic.Int64
	runsAborted  atomic.Int64
	runsFaulted  atomic.Int64

	llmSuccess atomic.Int64
	llmFailed  atomic.Int64

	messagesHandled atomic.Int64
	repliesSent     atomic.Int64

	toolCounts map[string]*atomic.Int64
	toolLock   sync.Mutex
}

func New() *Metrics {
	m := &Metrics{
		startTime:  time.Now(),
		registry:   prometheus.NewRegistry(),
		toolCounts: make(map[string]*atomic.Int64),
	}

	m.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentcord_runs_total",
		Help: "Agent loop runs by outcome.",
	}, []string{"outcome"})

	m.runRounds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "agentcord_run_rounds",
		Help:    "Model round-trips per agent run.",
		Buckets: []float64{1, 2, 3, 4, 6, 8, 10},
	})

	m.llmRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentcord_llm_requests_total",
		Help: "Chat completion requests by status.",
	}, []string{"status"})

	m.toolCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentcord_tool_calls_total",
		Help: "Tool invocations by tool and status.",
	}, []string{"tool", "status"})

	m.messages = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "agentcord_messages_handled_total",
		Help: "Triggering messages that started an agent run.",
	})

	m.replies = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "agentcord_replies_sent_total",
		Help: "Replies delivered back to the channel.",
	})

	m.registry.MustRegister(m.runsTotal, m.runRounds, m.llmRequests, m.toolCalls, m.messages, m.replies)

	return m
}

func (m *Metrics) RecordRun(outcome string, rounds int) {
	m.runsTotal.WithLabelValues(outcome).Inc()
	m.runRounds.Observe(float64(rounds))

	switch outcome {
	case OutcomeAnswered:
		m.runsAnswered.Add(1)
	case OutcomeAborted:
		m.runsAborted.Add(1)
	case OutcomeFault:
		m.runsFaulted.Add(1)
	}
}

func (m *Metrics) RecordLLMRequest(success bool) {
	if success {
		m.llmRequests.WithLabelValues("success").Inc()
		m.llmSuccess.Add(1)
	} else {
		m.llmRequests.WithLabelValues("error").Inc()
		m.llmFailed.Add(1)
	}
}

func (m *Metrics) RecordToolCall(tool string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.toolCalls.WithLabelValues(tool, status).Inc()

	m.toolLock.Lock()
	if m.toolCounts[tool] == nil {
		m.toolCounts[tool] = &atomic.Int64{}
	}
	m.toolCounts[tool].Add(1)
	m.toolLock.Unlock()
}

func (m *Metrics) RecordMessage() {
	m.messages.Inc()
	m.messagesHandled.Add(1)
}

func (m *Metrics) RecordReply() {
	m.replies.Inc()
	m.repliesSent.Add(1)
}

type Snapshot struct {
	Uptime          string           `json:"uptime"`
	RunsAnswered    int64            `json:"runs_answered"`
	RunsAborted     int64            `json:"runs_aborted"`
	RunsFaulted     int64            `json:"runs_faulted"`
	LLMSuccess      int64            `json:"llm_requests_success"`
	LLMFailed       int64            `json:"llm_requests_failed"`
	MessagesHandled int64            `json:"messages_handled"`
	RepliesSent     int64            `json:"replies_sent"`
	ToolCalls       map[string]int64 `json:"tool_calls"`
}

func (m *Metrics) Snapshot() *Snapshot {
	s := &Snapshot{
		Uptime:          time.Since(m.startTime).Round(time.Second).String(),
		RunsAnswered:    m.runsAnswered.Load(),
		RunsAborted:     m.runsAborted.Load(),
		RunsFaulted:     m.runsFaulted.Load(),
		LLMSuccess:      m.llmSuccess.Load(),
		LLMFailed:       m.llmFailed.Load(),
		MessagesHandled: m.messagesHandled.Load(),
		RepliesSent:     m.repliesSent.Load(),
		ToolCalls:       make(map[string]int64),
	}

	m.toolLock.Lock()
	for name, count := range m.toolCounts {
		s.ToolCalls[name] = count.Load()
	}
	m.toolLock.Unlock()

	return s
}

// Render produces the Prometheus text exposition of all registered
// collectors.
func (m *Metrics) Render() (string, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := enc.Encode(family); err != nil {
			return "", err
		}
	}

	return buf.String(), nil
}
