package weights

import (
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/mode"
)

func TestDefault(t *testing.T) {
	h := Default(mode.Hybrid)
	if h.Lexical != 0.6 || h.Vector != 0.4 || h.Normalize != None {
		t.Errorf("unexpected hybrid weights %+v", h)
	}
	r := Default(mode.RAG)
	if r.Lexical != 0.4 || r.Vector != 0.6 || r.Normalize != None {
		t.Errorf("unexpected rag weights %+v", r)
	}
}

func TestNew_DefaultsStrategy(t *testing.T) {
	w, err := New(0.5, 0.5, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Normalize != None {
		t.Errorf("expected none, got %q", w.Normalize)
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		lex, vec float64
		norm     Strategy
	}{
		{"negative", -0.1, 0.5, None},
		{"nan", math.NaN(), 0.5, None},
		{"inf", 0.5, math.Inf(1), None},
		{"both zero", 0, 0, None},
		{"bad strategy", 0.5, 0.5, "zscore"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.lex, tc.vec, tc.norm)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}
