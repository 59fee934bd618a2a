// Package explain turns a finished analysis into a short natural-language
// summary through an LLM provider. The summary is decorative: any failure
// degrades to an empty string and the analysis ships without it.
package explain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tkaraxa/sibyl/internal/core"
	"github.com/tkaraxa/sibyl/internal/llm"
)

const systemPrompt = `You are a trading analysis writer. Given a JSON trading analysis,
write a concise 2-4 sentence plain-English summary of the recommendation and
the main factors behind it. Do not add disclaimers or financial advice
warnings. Do not invent numbers that are not in the input.`

// Narrator produces analysis summaries.
type Narrator struct {
	provider  llm.Provider
	maxTokens int
	logger    *zap.Logger
}

// New creates a Narrator. A nil provider yields a disabled narrator whose
// Narrate always returns an empty summary.
func New(provider llm.Provider, logger *zap.Logger) *Narrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Narrator{
		provider:  provider,
		maxTokens: 300,
		logger:    logger,
	}
}

// Enabled reports whether a provider is configured.
func (n *Narrator) Enabled() bool {
	return n != nil && n.provider != nil
}

// Narrate returns a natural-language summary of the analysis, or an empty
// string when the narrator is disabled or the provider fails.
func (n *Narrator) Narrate(ctx context.Context, analysis core.Analysis) string {
	if !n.Enabled() {
		return ""
	}

	payload, err := json.Marshal(analysis)
	if err != nil {
		return ""
	}

	resp, err := n.provider.Chat(ctx, llm.ChatRequest{
		SystemPrompt: systemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: fmt.Sprintf("Summarize this analysis:\n%s", payload)},
		},
		MaxTokens: n.maxTokens,
	})
	if err != nil {
		n.logger.Warn("summary generation failed",
			zap.String("asset", analysis.Asset),
			zap.String("provider", n.provider.Name()),
			zap.Error(err))
		return ""
	}

	return strings.TrimSpace(resp.Content)
}
