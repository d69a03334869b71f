package gateway

import (
	"context"
	"strings"

	"github.com/inkwell-ai/inkgate/pkg/models"
)

// ContextProvider supplies project context (genre, tone, characters, recent
// text) merged into prompts before dispatch.
type ContextProvider interface {
	BuildContext(ctx context.Context, projectID string) (models.ContextBlock, error)
}

// approximate characters per token, good enough for budget truncation
const charsPerToken = 4

// renderContext flattens a context block into prompt text, truncated against
// the token budget. Recent text is the first thing sacrificed: it is
// rendered last and cut mid-stream when the budget runs out.
func renderContext(block models.ContextBlock, tokenBudget int) string {
	var b strings.Builder
	if block.Genre != "" {
		b.WriteString("Genre: " + block.Genre + "\n")
	}
	if block.Tone != "" {
		b.WriteString("Tone: " + block.Tone + "\n")
	}
	if len(block.Characters) > 0 {
		b.WriteString("Characters: " + strings.Join(block.Characters, ", ") + "\n")
	}
	if block.RecentText != "" {
		b.WriteString("Recent text:\n" + block.RecentText + "\n")
	}

	out := b.String()
	if tokenBudget <= 0 {
		return out
	}
	limit := tokenBudget * charsPerToken
	if len(out) <= limit {
		return out
	}

	// Cut on a rune boundary.
	runes := []rune(out)
	if len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes)
}
