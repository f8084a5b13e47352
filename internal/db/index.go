package db

import (
	"errors"
	"strconv"
)

// StorageType defines the document storage backend for FT indexes.
type StorageType string

// StorageHash stores documents as Redis hashes; the only layout movies use.
const StorageHash StorageType = "HASH"

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

const (
	// DistanceL2 is Euclidean distance.
	DistanceL2 DistanceMetric = "L2"
	// DistanceIP is inner product distance.
	DistanceIP DistanceMetric = "IP"
	// DistanceCosine is cosine distance (1 - cosine similarity).
	DistanceCosine DistanceMetric = "COSINE"
)

// ParseDistance maps a config value (case-insensitive) to a metric.
func ParseDistance(s string) (DistanceMetric, error) {
	switch s {
	case "cosine", "COSINE":
		return DistanceCosine, nil
	case "l2", "L2":
		return DistanceL2, nil
	case "ip", "IP":
		return DistanceIP, nil
	}
	return "", errors.New("unknown distance metric: " + s)
}

// VectorAlgorithm selects the indexing algorithm for vector fields in FT.CREATE.
type VectorAlgorithm string

const (
	// VectorHNSW uses the HNSW algorithm.
	VectorHNSW VectorAlgorithm = "HNSW"
	// VectorFlat uses the FLAT (brute-force) algorithm.
	VectorFlat VectorAlgorithm = "FLAT"
)

// ParseAlgorithm maps a config value (case-insensitive) to an algorithm.
func ParseAlgorithm(s string) (VectorAlgorithm, error) {
	switch s {
	case "hnsw", "HNSW":
		return VectorHNSW, nil
	case "flat", "FLAT":
		return VectorFlat, nil
	}
	return "", errors.New("unknown vector algorithm: " + s)
}

// IndexFieldType enumerates the FT field types the movie index uses.
type IndexFieldType int

const (
	// IndexFieldText is a full-text field scored by BM25.
	IndexFieldText IndexFieldType = iota + 1
	// IndexFieldVector is a FLOAT32 vector field.
	IndexFieldVector
)

// VectorSpec configures a VECTOR field.
type VectorSpec struct {
	Algorithm VectorAlgorithm // default HNSW
	Dim       int
	Distance  DistanceMetric // default COSINE
	// HNSW only; 0 keeps the server default.
	M           int
	EFConstruct int
}

// IndexField describes a single field in an FT index schema.
type IndexField struct {
	Name string
	Type IndexFieldType
	// Weight scales TEXT matches; 0 means the server default (1.0).
	Weight float64
	// Vector is set for IndexFieldVector.
	Vector *VectorSpec
}

// IndexDefinition is a complete FT index definition used by FT.CREATE.
type IndexDefinition struct {
	Name        string
	StorageType StorageType
	Prefixes    []string
	Fields      []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return errors.New("index name contains invalid characters")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]bool)
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return errors.New("field name is required at index " + strconv.Itoa(i))
		}
		key := f.Name
		if seen[key] {
			return errors.New("duplicate field name: " + key)
		}
		seen[key] = true

		switch f.Type {
		case IndexFieldText:
			if f.Weight < 0 {
				return errors.New("text field weight must not be negative: " + key)
			}
		case IndexFieldVector:
			if f.Vector == nil || f.Vector.Dim <= 0 {
				return errors.New("vector field requires positive DIM: " + key)
			}
		default:
			return errors.New("unknown field type for " + key)
		}
	}

	return nil
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
