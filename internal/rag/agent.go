package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/pdfqa/internal/config"
	"github.com/akolanti/pdfqa/internal/domain/commonModels"
	"github.com/akolanti/pdfqa/internal/metrics"
	"github.com/akolanti/pdfqa/internal/rag/llm"
	"github.com/akolanti/pdfqa/pkg/logger_i"
	"github.com/tmc/langchaingo/agents"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/tools"
)

const (
	finalAnswerMarker    = "Final Answer:"
	forcedFinalSuffix    = "Thought: I now know the final answer\n" + finalAnswerMarker
	intermediateStepsKey = "intermediateSteps"
	invalidFormatMessage = "Invalid Format: reply with 'Action:' and 'Action Input:' lines, or with 'Final Answer:'"
)

// Agent runs a bounded ReAct loop over a single tool.
type Agent struct {
	provider      llm.Provider
	maxIterations int
	timeout       time.Duration
	logger        *logger_i.Logger
}

func NewAgent(provider llm.Provider, maxIterations int, timeout time.Duration) *Agent {
	if maxIterations < 1 {
		maxIterations = config.MaxAgentIterations
	}
	if timeout <= 0 {
		timeout = config.AgentTimeout
	}
	return &Agent{
		provider:      provider,
		maxIterations: maxIterations,
		timeout:       timeout,
		logger:        logger_i.NewLogger("Agent"),
	}
}

// Answer returns the agent's final answer, possibly blank. Every generation shares one
// deadline of a.timeout.
func (a *Agent) Answer(ctx context.Context, mode AnsweringMode, question string, model string, temperature float32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var answer string
	var err error
	switch m := mode.(type) {
	case ToolAugmented:
		answer, err = a.react(ctx, m.Tool, question, model, temperature)
	default:
		answer, err = a.generate(ctx, llm.GenerateRequest{
			Model:       model,
			Prompt:      buildDirectPrompt(question),
			Temperature: temperature,
		})
	}
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w: agent ran out of time after %v: %v", commonModels.ErrGenerationService, a.timeout, err)
	}
	return answer, err
}

func (a *Agent) react(ctx context.Context, tool Tool, question string, model string, temperature float32) (string, error) {
	log := a.logger.WithTrace(ctx, config.TRACE_ID_KEY)
	lm := &providerModel{agent: a}
	prompt := buildReActPrompt(tool)

	executor := agents.NewExecutor(
		agents.NewOneShotAgent(lm, []tools.Tool{agentTool{tool: tool, logger: log}}, agents.WithPrompt(prompt)),
		agents.WithMaxIterations(a.maxIterations),
		agents.WithReturnIntermediateSteps(),
		agents.WithParserErrorHandler(agents.NewParserErrorHandler(func(string) string {
			return invalidFormatMessage
		})),
	)

	out, err := chains.Call(ctx, executor, map[string]any{"input": question},
		chains.WithModel(model),
		chains.WithTemperature(float64(temperature)),
	)
	if err == nil {
		log.Debug("agent finished", "iterations", lm.calls)
		metrics.CaptureAgentIterations(lm.calls)
		answer, _ := out["output"].(string)
		return answer, nil
	}
	if !errors.Is(err, agents.ErrNotFinished) {
		return "", err
	}

	log.Warn("agent hit iteration limit, forcing final answer", "limit", a.maxIterations)
	metrics.CaptureAgentIterations(a.maxIterations)
	steps, _ := out[intermediateStepsKey].([]schema.AgentStep)
	forced, err := prompt.Format(map[string]any{
		"input":            question,
		"agent_scratchpad": scratchpad(steps) + forcedFinalSuffix,
	})
	if err != nil {
		return "", err
	}
	output, err := a.generate(ctx, llm.GenerateRequest{
		Model:       model,
		Prompt:      forced,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if idx := strings.LastIndex(output, finalAnswerMarker); idx >= 0 {
		output = output[idx+len(finalAnswerMarker):]
	}
	return output, nil
}

func (a *Agent) generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()
	return a.provider.Generate(ctx, req)
}

// scratchpad renders finished steps the way the executor feeds them back to the model.
func scratchpad(steps []schema.AgentStep) string {
	var b strings.Builder
	for _, step := range steps {
		b.WriteString("\n" + step.Action.Log)
		b.WriteString("\nObservation: " + step.Observation + "\n")
	}
	return b.String()
}

// providerModel lets the langchaingo executor drive an llm.Provider. One instance serves
// one answer, calls are sequential.
type providerModel struct {
	agent *Agent
	calls int
}

func (m *providerModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, opt := range options {
		opt(&opts)
	}

	var prompt strings.Builder
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				prompt.WriteString(text.Text)
			}
		}
	}

	m.calls++
	output, err := m.agent.generate(ctx, llm.GenerateRequest{
		Model:       opts.Model,
		Prompt:      prompt.String(),
		Temperature: float32(opts.Temperature),
		Stop:        opts.StopWords,
	})
	if err != nil {
		return nil, err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: output}}}, nil
}

func (m *providerModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

type agentTool struct {
	tool   Tool
	logger *logger_i.Logger
}

func (t agentTool) Name() string        { return t.tool.Name }
func (t agentTool) Description() string { return t.tool.Description }

func (t agentTool) Call(ctx context.Context, input string) (string, error) {
	input = strings.Trim(strings.TrimSpace(input), `"`)
	t.logger.Debug("agent calls tool", "tool", t.tool.Name, "input", input)
	return t.tool.Run(ctx, input)
}
