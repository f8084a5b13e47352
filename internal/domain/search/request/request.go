package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultLimit   = 10
	MaxLimit       = 100
)

// Request is a validated search query.
type Request struct {
	query      string
	searchMode mode.Mode
	limit      int
}

// New validates and normalizes search parameters.
// Query and mode are required; limit <= 0 falls back to DefaultLimit and is capped at MaxLimit.
func New(query string, m mode.Mode, limit int) (Request, error) {
	if strings.TrimSpace(query) == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrValidation, MaxQueryLength)
	}
	if m == "" {
		return Request{}, fmt.Errorf("%w: mode is required", domain.ErrValidation)
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("%w: invalid search mode %q", domain.ErrValidation, m)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Request{query: query, searchMode: m, limit: limit}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }
