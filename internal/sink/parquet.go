package sink

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"datasink/internal/config"
	"datasink/internal/frame"
	"datasink/internal/logging"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"
)

// Part files of directory outputs: four-digit zero padding keeps
// lexicographic filename order equal to partition order.
const partFileFormat = "part-%04d.parquet"

// writePartFileFunc allows overriding the part-file serializer for testing
// (e.g. simulating a disk-full failure on one partition).
var writePartFileFunc = writeFrameFile

// codecFor maps a configured compression name onto a parquet codec.
func codecFor(name string) (compress.Codec, error) {
	switch strings.ToLower(name) {
	case config.CompressionNone:
		return &parquet.Uncompressed, nil
	case "", config.CompressionSnappy:
		return &parquet.Snappy, nil
	case config.CompressionGzip:
		return &parquet.Gzip, nil
	case config.CompressionZstd:
		return &parquet.Zstd, nil
	default:
		return nil, fmt.Errorf("unsupported compression codec '%s'", name)
	}
}

// parquetNode maps a column kind onto its parquet node. Every column is
// optional so that null values survive the round trip.
func parquetNode(k frame.Kind) parquet.Node {
	var n parquet.Node
	switch k {
	case frame.KindInt64:
		n = parquet.Int(64)
	case frame.KindFloat64:
		n = parquet.Leaf(parquet.DoubleType)
	case frame.KindBool:
		n = parquet.Leaf(parquet.BooleanType)
	case frame.KindTimestamp:
		n = parquet.Timestamp(parquet.Millisecond)
	default:
		n = parquet.String()
	}
	return parquet.Optional(n)
}

// buildSchema converts a frame schema into a parquet schema.
func buildSchema(s frame.Schema) *parquet.Schema {
	group := parquet.Group{}
	for _, c := range s {
		group[c.Name] = parquetNode(c.Type)
	}
	return parquet.NewSchema("frame", group)
}

// convertRow coerces one record's values to the declared column kinds.
// Missing keys and nil values become nulls. A value that cannot be coerced is
// a serialization failure.
func convertRow(rec map[string]interface{}, schema frame.Schema) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(schema))
	for _, col := range schema {
		v, ok := rec[col.Name]
		if !ok || v == nil {
			continue
		}
		cv, err := coerceValue(v, col.Type)
		if err != nil {
			return nil, fmt.Errorf("column '%s': %w", col.Name, err)
		}
		out[col.Name] = cv
	}
	return out, nil
}

// coerceValue converts a single value to the Go representation matching the
// column kind.
func coerceValue(v interface{}, k frame.Kind) (interface{}, error) {
	switch k {
	case frame.KindString:
		switch t := v.(type) {
		case string:
			return t, nil
		case time.Time:
			return t.Format(time.RFC3339), nil
		default:
			return fmt.Sprintf("%v", t), nil
		}
	case frame.KindInt64:
		switch t := v.(type) {
		case int64:
			return t, nil
		case int:
			return int64(t), nil
		case int8:
			return int64(t), nil
		case int16:
			return int64(t), nil
		case int32:
			return int64(t), nil
		case uint:
			return int64(t), nil
		case uint8:
			return int64(t), nil
		case uint16:
			return int64(t), nil
		case uint32:
			return int64(t), nil
		case uint64:
			return int64(t), nil
		case float64:
			if t != math.Trunc(t) {
				return nil, fmt.Errorf("cannot convert non-integral value %v to int64", t)
			}
			return int64(t), nil
		case float32:
			f := float64(t)
			if f != math.Trunc(f) {
				return nil, fmt.Errorf("cannot convert non-integral value %v to int64", t)
			}
			return int64(f), nil
		case string:
			parsed, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("cannot convert string '%s' to int64: %w", t, err)
			}
			return parsed, nil
		default:
			return nil, fmt.Errorf("cannot convert value of type %T to int64", v)
		}
	case frame.KindFloat64:
		switch t := v.(type) {
		case float64:
			return t, nil
		case float32:
			return float64(t), nil
		case int:
			return float64(t), nil
		case int32:
			return float64(t), nil
		case int64:
			return float64(t), nil
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
			if err != nil {
				return nil, fmt.Errorf("cannot convert string '%s' to float64: %w", t, err)
			}
			return parsed, nil
		default:
			return nil, fmt.Errorf("cannot convert value of type %T to float64", v)
		}
	case frame.KindBool:
		switch t := v.(type) {
		case bool:
			return t, nil
		case string:
			parsed, err := strconv.ParseBool(strings.TrimSpace(t))
			if err != nil {
				return nil, fmt.Errorf("cannot convert string '%s' to bool: %w", t, err)
			}
			return parsed, nil
		default:
			return nil, fmt.Errorf("cannot convert value of type %T to bool", v)
		}
	case frame.KindTimestamp:
		switch t := v.(type) {
		case time.Time:
			return t.UTC(), nil
		case string:
			parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(t))
			if err != nil {
				return nil, fmt.Errorf("cannot convert string '%s' to timestamp: %w", t, err)
			}
			return parsed.UTC(), nil
		case int64:
			return time.Unix(t, 0).UTC(), nil
		case int:
			return time.Unix(int64(t), 0).UTC(), nil
		case float64:
			return time.Unix(int64(t), 0).UTC(), nil
		default:
			return nil, fmt.Errorf("cannot convert value of type %T to timestamp", v)
		}
	default:
		return nil, fmt.Errorf("unknown column kind %v", k)
	}
}

// writeFrameFile serializes one in-memory frame to one parquet file,
// overwriting any existing file at that path and creating the parent
// directory if needed. Returns the file's metadata on success.
func writeFrameFile(f *frame.Frame, path string, codec compress.Codec) (FileInfo, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return FileInfo{}, fmt.Errorf("failed to create directory for '%s': %w", path, err)
		}
	}

	// Coerce all rows up front so a type failure surfaces before the file is
	// touched.
	schema := f.Schema()
	rows := make([]map[string]interface{}, 0, f.NumRows())
	for i, rec := range f.Records() {
		row, err := convertRow(rec, schema)
		if err != nil {
			return FileInfo{}, fmt.Errorf("failed to serialize row %d for '%s': %w", i, path, err)
		}
		rows = append(rows, row)
	}

	out, err := os.Create(path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to create file '%s': %w", path, err)
	}

	pw := parquet.NewGenericWriter[map[string]interface{}](out, buildSchema(schema), parquet.Compression(codec))
	if len(rows) > 0 {
		if _, err := pw.Write(rows); err != nil {
			out.Close()
			return FileInfo{}, fmt.Errorf("failed to write rows to '%s': %w", path, err)
		}
	}
	if err := pw.Close(); err != nil {
		out.Close()
		return FileInfo{}, fmt.Errorf("failed to finalize parquet file '%s': %w", path, err)
	}
	if err := out.Close(); err != nil {
		return FileInfo{}, fmt.Errorf("failed to close file '%s': %w", path, err)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to stat written file '%s': %w", path, err)
	}

	logging.Logf(logging.Debug, "Wrote %d rows (%d bytes) to %s", f.NumRows(), stat.Size(), path)
	return FileInfo{Path: filepath.Base(path), Rows: int64(f.NumRows()), Bytes: stat.Size()}, nil
}
