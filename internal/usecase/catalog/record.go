package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/moviesearch/internal/domain"
)

// Record is one line of a sample_mflix embedded_movies JSONL export.
// Unknown fields (cast, genres, year, ...) are ignored.
type Record struct {
	ID            json.RawMessage `json:"_id"`
	Title         string          `json:"title"`
	Plot          string          `json:"plot"`
	FullPlot      string          `json:"fullplot"`
	PlotEmbedding []float32       `json:"plot_embedding"`
}

// MovieID returns the identifier, accepting both a plain string and
// MongoDB extended JSON ({"$oid": "..."}).
func (r *Record) MovieID() (string, error) {
	raw := bytes.TrimSpace(r.ID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("%w: _id is required", domain.ErrValidation)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var oid struct {
		OID string `json:"$oid"`
	}
	if err := json.Unmarshal(raw, &oid); err == nil && oid.OID != "" {
		return oid.OID, nil
	}
	return "", fmt.Errorf("%w: unsupported _id %s", domain.ErrValidation, raw)
}

var errEmptyLine = errors.New("empty line")

func parseRecord(line []byte) (Record, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Record{}, errEmptyLine
	}
	var rec Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return Record{}, fmt.Errorf("%w: decode record: %w", domain.ErrValidation, err)
	}
	return rec, nil
}
