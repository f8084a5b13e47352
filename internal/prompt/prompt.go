// Package prompt builds the chat messages for the recommendation answer.
// Both synthesis backends share it so the wording stays identical.
package prompt

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/moviesearch/internal/domain/search/result"
)

// DefaultSystem is the critic persona used when no system prompt is configured.
const DefaultSystem = "You are a movie critic and a famous director. " +
	"Analyze the movies that the user has provided in the context and recommend the 5 most optimized movies for this user. " +
	"When recommending, please provide the title and a brief description. " +
	"Please respond by applying HTML tags including line breaks so that each recommended movie can be displayed on its own line. " +
	"And at the very beginning, please include the following sentence: The following movies are the most recommended to you."

// Role is a chat message author.
type Role string

// Chat roles.
const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one provider-neutral chat turn.
type Message struct {
	Role    Role
	Content string
}

// Builder renders the system instruction and the user turns for a query.
type Builder struct {
	system string
}

// New creates a Builder. An empty system prompt selects DefaultSystem.
func New(system string) *Builder {
	if strings.TrimSpace(system) == "" {
		system = DefaultSystem
	}
	return &Builder{system: system}
}

// System returns the configured system instruction.
func (b *Builder) System() string { return b.system }

// Build returns the system turn followed by the question, the numbered context and the final ask.
func (b *Builder) Build(query string, ranked []result.Ranked) []Message {
	return []Message{
		{Role: RoleSystem, Content: b.system},
		{Role: RoleUser, Content: "Original Question: " + query},
		{Role: RoleUser, Content: "Context:\n" + Context(ranked)},
		{Role: RoleUser, Content: "Based on the context, answer the question: " + query},
	}
}

// Context renders ranked movies as "[i] title - plot" lines, numbered from 1.
func Context(ranked []result.Ranked) string {
	var sb strings.Builder
	for i := range ranked {
		if i > 0 {
			sb.WriteByte('\n')
		}
		m := ranked[i].Movie()
		fmt.Fprintf(&sb, "[%d] %s - %s", i+1, m.Title(), m.Plot())
	}
	return sb.String()
}
