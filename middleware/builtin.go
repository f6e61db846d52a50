package middleware

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/memory"
	"github.com/hupe1980/agentgraph/model"
)

// Token accounting thresholds and summarization bounds.
const (
	// TokenWarningThreshold and TokenCriticalThreshold drive the token
	// warning flag surfaced in the system prompt.
	TokenWarningThreshold  = 6000
	TokenCriticalThreshold = 7000

	// SummarizationThreshold is the estimated context size above which the
	// history is compressed.
	SummarizationThreshold = 135000

	summaryTemperature = 0.3
	summaryMaxTokens   = 2000
)

// MemoryLoader injects stored conversation memory at turn start: retrieved
// snippets relevant to the user request are prepended as a system message.
type MemoryLoader struct {
	Base

	store memory.Store
	limit int
}

// NewMemoryLoader creates the loader over the given store.
func NewMemoryLoader(store memory.Store) *MemoryLoader {
	return &MemoryLoader{store: store, limit: 5}
}

// Name implements Middleware.
func (m *MemoryLoader) Name() string { return "memory_loader" }

// BeforeAgent implements Middleware.
func (m *MemoryLoader) BeforeAgent(ctx context.Context, state *core.AgentState) (core.Patch, error) {
	if m.store == nil {
		return core.Patch{}, nil
	}

	last := state.LastUserMessage()
	if last == nil {
		return core.Patch{}, nil
	}

	results, err := m.store.Search(state.ConversationID, last.Content, m.limit)
	if err != nil {
		return core.Patch{}, fmt.Errorf("memory search: %w", err)
	}

	if len(results) == 0 {
		return core.Patch{}, nil
	}

	var b strings.Builder
	b.WriteString("Relevant context from previous conversations:\n")

	for _, r := range results {
		b.WriteString("- ")
		b.WriteString(r.Content)
		b.WriteString("\n")
	}

	msg := core.NewMessage(core.RoleSystem, b.String())
	messages := append([]core.Message{msg}, state.Messages...)

	return core.Patch{SetMessages: &messages}, nil
}

// TokenTracker watches cumulative token usage after each model call and
// flags the state when it crosses the warning or critical threshold. The
// flag is consumed by the prompt builder, which instructs the model to wrap
// up succinctly.
type TokenTracker struct {
	Base

	warning  int
	critical int
	logger   logging.Logger
}

// TokenTrackerOptions configure a TokenTracker.
type TokenTrackerOptions struct {
	WarningThreshold  int
	CriticalThreshold int
	Logger            logging.Logger
}

// NewTokenTracker creates a tracker with the default thresholds.
func NewTokenTracker(optFns ...func(o *TokenTrackerOptions)) *TokenTracker {
	opts := TokenTrackerOptions{
		WarningThreshold:  TokenWarningThreshold,
		CriticalThreshold: TokenCriticalThreshold,
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &TokenTracker{
		warning:  opts.WarningThreshold,
		critical: opts.CriticalThreshold,
		logger:   opts.Logger,
	}
}

// Name implements Middleware.
func (t *TokenTracker) Name() string { return "token_tracker" }

// AfterModel implements Middleware.
func (t *TokenTracker) AfterModel(ctx context.Context, state *core.AgentState) (core.Patch, error) {
	total := state.Usage.TotalTokens

	switch {
	case total >= t.critical:
		t.logger.Warn("tokens.critical", "total", total, "threshold", t.critical)
		return core.Patch{SetFlags: map[string]any{core.FlagTokenWarning: "critical"}}, nil
	case total >= t.warning:
		t.logger.Info("tokens.warning", "total", total, "threshold", t.warning)
		return core.Patch{SetFlags: map[string]any{core.FlagTokenWarning: "warning"}}, nil
	default:
		return core.Patch{}, nil
	}
}

// Summarizer compresses the conversation history before a model call when
// the estimated context size exceeds the threshold. The compressed history
// keeps the original system messages, inserts one summary message and
// retains the most recent exchanges verbatim.
type Summarizer struct {
	Base

	model     model.Model
	threshold int
	keepLast  int
	logger    logging.Logger
}

// SummarizerOptions configure a Summarizer.
type SummarizerOptions struct {
	Threshold int
	KeepLast  int // Most recent messages kept verbatim
	Logger    logging.Logger
}

// NewSummarizer creates a summarizer using the given model for compression.
func NewSummarizer(m model.Model, optFns ...func(o *SummarizerOptions)) *Summarizer {
	opts := SummarizerOptions{
		Threshold: SummarizationThreshold,
		KeepLast:  4,
		Logger:    logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Summarizer{
		model:     m,
		threshold: opts.Threshold,
		keepLast:  opts.KeepLast,
		logger:    opts.Logger,
	}
}

// Name implements Middleware.
func (s *Summarizer) Name() string { return "summarizer" }

// BeforeModel implements Middleware.
func (s *Summarizer) BeforeModel(ctx context.Context, state *core.AgentState) (core.Patch, error) {
	if s.model == nil || EstimateTokens(state.Messages) < s.threshold {
		return core.Patch{}, nil
	}

	keep := s.keepLast
	if keep > len(state.Messages) {
		keep = len(state.Messages)
	}

	var (
		system []core.Message
		older  []core.Message
	)

	for _, msg := range state.Messages[:len(state.Messages)-keep] {
		if msg.Role == core.RoleSystem {
			system = append(system, msg)
			continue
		}

		older = append(older, msg)
	}

	if len(older) == 0 {
		return core.Patch{}, nil
	}

	summary, err := s.summarize(ctx, older)
	if err != nil {
		return core.Patch{}, fmt.Errorf("summarize history: %w", err)
	}

	messages := append([]core.Message{}, system...)
	messages = append(messages, core.NewMessage(core.RoleSystem, "Summary of earlier conversation:\n"+summary))
	messages = append(messages, state.Messages[len(state.Messages)-keep:]...)

	s.logger.Info("summarizer.compressed", "before", len(state.Messages), "after", len(messages))

	return core.Patch{SetMessages: &messages}, nil
}

func (s *Summarizer) summarize(ctx context.Context, messages []core.Message) (string, error) {
	var b strings.Builder

	for _, msg := range messages {
		b.WriteString(string(msg.Role))
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}

	temperature := summaryTemperature

	resp, err := s.model.Invoke(ctx, model.Request{
		System:      "Summarize the following conversation, preserving decisions, open questions and facts the assistant will need later. Be concise.",
		Messages:    []core.Message{core.NewUserMessage(b.String())},
		Temperature: &temperature,
		MaxTokens:   summaryMaxTokens,
	})
	if err != nil {
		return "", err
	}

	return resp.Content, nil
}

// EstimateTokens gives a cheap character-based token estimate (4 chars per
// token) over a message slice. Good enough for threshold checks; exact
// counts come from provider usage metadata.
func EstimateTokens(messages []core.Message) int {
	chars := 0
	for _, msg := range messages {
		chars += len(msg.Content)
	}

	return chars / 4
}

// PII patterns applied by PIIScan.
var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\d{3}[-.]?\d{3}[-.]?\d{4}`)
)

// PIIScan redacts email addresses and phone numbers from the most recent
// assistant message after each model call.
type PIIScan struct {
	Base

	logger logging.Logger
}

// NewPIIScan creates the scanner.
func NewPIIScan(optFns ...func(o *ChainOptions)) *PIIScan {
	opts := ChainOptions{Logger: logging.NoOpLogger{}}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &PIIScan{logger: opts.Logger}
}

// Name implements Middleware.
func (p *PIIScan) Name() string { return "pii_scan" }

// AfterModel implements Middleware.
func (p *PIIScan) AfterModel(ctx context.Context, state *core.AgentState) (core.Patch, error) {
	last := state.LastMessage()
	if last == nil || last.Role != core.RoleAssistant {
		return core.Patch{}, nil
	}

	redacted := Redact(last.Content)
	if redacted == last.Content {
		return core.Patch{}, nil
	}

	p.logger.Info("pii.redacted", "message_id", last.ID)

	messages := append([]core.Message{}, state.Messages...)
	messages[len(messages)-1].Content = redacted

	return core.Patch{SetMessages: &messages}, nil
}

// Redact replaces email addresses and phone numbers with placeholders.
func Redact(text string) string {
	redacted := emailPattern.ReplaceAllString(text, "[EMAIL REDACTED]")
	return phonePattern.ReplaceAllString(redacted, "[PHONE REDACTED]")
}
