package analyzer

import (
	"context"
	"fmt"

	"github.com/xhad/seogap/pkg/processor"
)

// DefaultPromptMaxChars caps each page text embedded in a gap prompt.
const DefaultPromptMaxChars = 3000

// Completer sends one prompt to a chat model.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// LLMGapAnalyzer builds the gap prompt and asks the chat model.
type LLMGapAnalyzer struct {
	chat     Completer
	maxChars int
	prompts  promptSet
}

func NewGapAnalyzer(chat Completer, maxChars int, language string) *LLMGapAnalyzer {
	if maxChars <= 0 {
		maxChars = DefaultPromptMaxChars
	}
	return &LLMGapAnalyzer{
		chat:     chat,
		maxChars: maxChars,
		prompts:  promptsFor(language),
	}
}

// Analyze returns the model's critique of what myText lacks compared to competitorText.
func (g *LLMGapAnalyzer) Analyze(ctx context.Context, myText, competitorText, keyword string) (string, error) {
	prompt := g.prompts.gapPrompt(
		processor.Truncate(myText, g.maxChars),
		processor.Truncate(competitorText, g.maxChars),
		keyword,
	)

	out, err := g.chat.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("gap analysis: %w", err)
	}
	return out, nil
}
