package db

import (
	"strconv"
	"strings"
)

// IndexBuilder is a fluent builder for FT index definitions over hashes.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts building an FT index definition.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{
		def: IndexDefinition{
			Name:        name,
			StorageType: StorageHash,
		},
	}
}

// Prefix restricts the index to keys with the given prefixes.
func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

// Text adds a TEXT field with the default weight.
func (b *IndexBuilder) Text(name string) *IndexBuilder {
	return b.TextWeighted(name, 0)
}

// TextWeighted adds a TEXT field whose term matches count weight times.
func (b *IndexBuilder) TextWeighted(name string, weight float64) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Name: name, Type: IndexFieldText, Weight: weight})
	return b
}

// Vector adds a VECTOR field.
func (b *IndexBuilder) Vector(name string, spec VectorSpec) *IndexBuilder {
	if spec.Algorithm == "" {
		spec.Algorithm = VectorHNSW
	}
	if spec.Distance == "" {
		spec.Distance = DistanceCosine
	}
	b.def.Fields = append(b.def.Fields, IndexField{Name: name, Type: IndexFieldVector, Vector: &spec})
	return b
}

// Build validates and returns the index definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	return &def, nil
}

// String renders a short FT.CREATE-like form for logs.
func (idx *IndexDefinition) String() string {
	var sb strings.Builder
	sb.WriteString("FT.CREATE " + idx.Name)
	if idx.StorageType != "" {
		sb.WriteString(" ON " + string(idx.StorageType))
	}
	if len(idx.Prefixes) > 0 {
		sb.WriteString(" PREFIX " + strings.Join(idx.Prefixes, " "))
	}
	sb.WriteString(" SCHEMA")
	for i := range idx.Fields {
		f := &idx.Fields[i]
		sb.WriteString(" " + f.Name)
		switch f.Type {
		case IndexFieldText:
			sb.WriteString(" TEXT")
			if f.Weight > 0 {
				sb.WriteString(" WEIGHT " + strconv.FormatFloat(f.Weight, 'g', -1, 64))
			}
		case IndexFieldVector:
			sb.WriteString(" VECTOR " + string(f.Vector.Algorithm) + " DIM " + strconv.Itoa(f.Vector.Dim))
		}
	}
	return sb.String()
}
