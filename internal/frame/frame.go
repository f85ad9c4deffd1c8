package frame

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Kind identifies the logical type of a column.
type Kind int

// Supported column kinds.
const (
	KindString Kind = iota
	KindInt64
	KindFloat64
	KindBool
	KindTimestamp
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindBool:
		return "bool"
	case KindTimestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column describes one column of a tabular frame.
type Column struct {
	Name string
	Type Kind
}

// Schema is the ordered column list shared by every row of a frame.
type Schema []Column

// Lookup returns the column with the given name, if present.
func (s Schema) Lookup(name string) (Column, bool) {
	for _, c := range s {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Validate checks the schema for empty or duplicate column names.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("schema has no columns")
	}
	seen := make(map[string]struct{}, len(s))
	for i, c := range s {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("schema column %d has an empty name", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("schema has duplicate column '%s'", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Equal reports whether two schemas have the same columns in the same order.
func (s Schema) Equal(other Schema) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Frame is an in-memory table: a schema plus one map per row.
// Row maps may omit keys; a missing key is a null value for that column.
type Frame struct {
	schema  Schema
	records []map[string]interface{}
}

// New creates a Frame after validating the schema. The records slice is
// retained, not copied.
func New(schema Schema, records []map[string]interface{}) (*Frame, error) {
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid frame schema: %w", err)
	}
	if records == nil {
		records = []map[string]interface{}{}
	}
	return &Frame{schema: schema, records: records}, nil
}

// Schema returns the frame's column schema.
func (f *Frame) Schema() Schema {
	return f.schema
}

// Records returns the frame's rows. Callers must not mutate the slice.
func (f *Frame) Records() []map[string]interface{} {
	return f.records
}

// NumRows returns the row count.
func (f *Frame) NumRows() int {
	return len(f.records)
}

// PartitionedFrame is an ordered set of independent partitions sharing a schema.
type PartitionedFrame struct {
	schema Schema
	parts  []*Frame
}

// NewPartitioned creates a PartitionedFrame from ordered partitions.
// Every partition must carry the given schema.
func NewPartitioned(schema Schema, parts []*Frame) (*PartitionedFrame, error) {
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid partitioned frame schema: %w", err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("partitioned frame requires at least one partition")
	}
	for i, p := range parts {
		if p == nil {
			return nil, fmt.Errorf("partition %d is nil", i)
		}
		if !p.Schema().Equal(schema) {
			return nil, fmt.Errorf("partition %d schema does not match the partitioned frame schema", i)
		}
	}
	return &PartitionedFrame{schema: schema, parts: parts}, nil
}

// Schema returns the shared column schema.
func (pf *PartitionedFrame) Schema() Schema {
	return pf.schema
}

// NumPartitions returns the partition count.
func (pf *PartitionedFrame) NumPartitions() int {
	return len(pf.parts)
}

// Partition returns partition i.
func (pf *PartitionedFrame) Partition(i int) *Frame {
	return pf.parts[i]
}

// TotalRows returns the row count summed across all partitions.
func (pf *PartitionedFrame) TotalRows() int {
	total := 0
	for _, p := range pf.parts {
		total += p.NumRows()
	}
	return total
}

// ChunkReader yields successive in-memory frames from a source too large to
// hold at once. Next returns io.EOF after the final chunk. Readers are finite,
// forward-only and restartable only from the source; callers must not assume
// more than one chunk is buffered at a time.
type ChunkReader interface {
	// Schema returns the column schema shared by every chunk.
	Schema() Schema
	// Next returns the next chunk, or io.EOF when the source is exhausted.
	Next() (*Frame, error)
	// Close releases the underlying resources. Idempotent.
	Close() error
}

// InferSchema derives a schema from record contents. Columns are the union of
// all keys, sorted by name for deterministic order, typed by the first non-nil
// value seen. Unknown value types fall back to string.
func InferSchema(records []map[string]interface{}) Schema {
	kinds := make(map[string]Kind)
	typed := make(map[string]bool)
	for _, rec := range records {
		for k, v := range rec {
			if _, seen := kinds[k]; !seen {
				kinds[k] = KindString
			}
			if typed[k] || v == nil {
				continue
			}
			kinds[k] = kindOf(v)
			typed[k] = true
		}
	}

	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	sort.Strings(names)

	schema := make(Schema, 0, len(names))
	for _, name := range names {
		schema = append(schema, Column{Name: name, Type: kinds[name]})
	}
	return schema
}

// kindOf maps a Go value to the closest column kind.
func kindOf(v interface{}) Kind {
	switch v.(type) {
	case string:
		return KindString
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInt64
	case float32, float64:
		return KindFloat64
	case bool:
		return KindBool
	case time.Time:
		return KindTimestamp
	default:
		return KindString
	}
}
