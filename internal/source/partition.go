package source

import (
	"fmt"

	"datasink/internal/frame"
	"datasink/internal/logging"

	"github.com/Knetic/govaluate"
)

// PartitionByExpression splits an in-memory frame into partitions keyed by the
// result of evaluating expr (govaluate syntax) against each record. Records
// sharing a result value land in the same partition; partitions are ordered by
// first appearance of their key so the split is deterministic for a given
// record order. maxParts bounds the number of distinct keys.
func PartitionByExpression(f *frame.Frame, expr string, maxParts int) (*frame.PartitionedFrame, error) {
	evalExpr, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid partition expression '%s': %w", expr, err)
	}

	buckets := make(map[string][]map[string]interface{})
	var keyOrder []string
	for i, rec := range f.Records() {
		result, err := evalExpr.Evaluate(rec)
		if err != nil {
			return nil, fmt.Errorf("partition expression '%s' failed on record %d: %w", expr, i, err)
		}
		key := fmt.Sprintf("%v", result)
		if _, seen := buckets[key]; !seen {
			if len(keyOrder) >= maxParts {
				return nil, fmt.Errorf("partition expression '%s' produced more than %d distinct keys", expr, maxParts)
			}
			keyOrder = append(keyOrder, key)
		}
		buckets[key] = append(buckets[key], rec)
	}

	if len(keyOrder) == 0 {
		// An empty frame still yields one (empty) partition.
		empty, err := frame.New(f.Schema(), nil)
		if err != nil {
			return nil, err
		}
		return frame.NewPartitioned(f.Schema(), []*frame.Frame{empty})
	}

	parts := make([]*frame.Frame, 0, len(keyOrder))
	for _, key := range keyOrder {
		part, err := frame.New(f.Schema(), buckets[key])
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}

	logging.Logf(logging.Debug, "Partitioned %d records into %d partitions by expression '%s'", f.NumRows(), len(parts), expr)
	return frame.NewPartitioned(f.Schema(), parts)
}

// PartitionRoundRobin splits an in-memory frame into n partitions of
// near-equal size, preserving record order within each partition.
func PartitionRoundRobin(f *frame.Frame, n int) (*frame.PartitionedFrame, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid partition count %d: must be positive", n)
	}

	bucketRecords := make([][]map[string]interface{}, n)
	for i, rec := range f.Records() {
		idx := i % n
		bucketRecords[idx] = append(bucketRecords[idx], rec)
	}

	parts := make([]*frame.Frame, 0, n)
	for _, records := range bucketRecords {
		part, err := frame.New(f.Schema(), records)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}

	logging.Logf(logging.Debug, "Partitioned %d records into %d round-robin partitions", f.NumRows(), n)
	return frame.NewPartitioned(f.Schema(), parts)
}
