package analyzer

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// LLMKeywordExpander asks the chat model for keyword variants, entities and intents.
type LLMKeywordExpander struct {
	chat    Completer
	prompts promptSet
	log     *zap.Logger
}

func NewKeywordExpander(chat Completer, language string, log *zap.Logger) *LLMKeywordExpander {
	if log == nil {
		log = zap.NewNop()
	}
	return &LLMKeywordExpander{
		chat:    chat,
		prompts: promptsFor(language),
		log:     log,
	}
}

// Expand never fails: provider errors come back as a readable fallback message.
// An empty keyword yields an empty string without calling the model.
func (k *LLMKeywordExpander) Expand(ctx context.Context, keyword string) string {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return ""
	}

	out, err := k.chat.Complete(ctx, k.prompts.keywordPrompt(keyword))
	if err != nil {
		k.log.Warn("keyword expansion failed", zap.String("keyword", keyword), zap.Error(err))
		return k.prompts.fallback(err)
	}
	return out
}
