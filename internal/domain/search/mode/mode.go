package mode

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/moviesearch/internal/domain"
)

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Lexical ranks by full-text relevance only.
	Lexical Mode = "lexical"
	// Hybrid merges full-text relevance with plot similarity, lexical weighted higher.
	Hybrid Mode = "hybrid"
	// RAG merges like Hybrid with vector weighted higher, then summarizes the top results.
	RAG Mode = "rag"
)

// aliasAugmented is the legacy name of RAG.
const aliasAugmented = "augmented"

// All lists the supported modes in a stable order.
func All() []Mode {
	return []Mode{Lexical, Hybrid, RAG}
}

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Lexical || m == Hybrid || m == RAG
}

// NeedsVector reports whether the mode requires a query embedding.
func (m Mode) NeedsVector() bool {
	return m == Hybrid || m == RAG
}

// NeedsAnswer reports whether the mode attaches a synthesized answer.
func (m Mode) NeedsAnswer() bool {
	return m == RAG
}

// Parse converts a client-supplied mode name. Matching is case-sensitive.
func Parse(s string) (Mode, error) {
	if s == aliasAugmented {
		return RAG, nil
	}
	m := Mode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: invalid search mode %q", domain.ErrValidation, s)
	}
	return m, nil
}

// String implements fmt.Stringer.
func (m Mode) String() string { return string(m) }

// Names returns the supported mode names joined for help texts.
func Names() string {
	names := make([]string, 0, len(All()))
	for _, m := range All() {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}
