package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"datasink/internal/frame"
	"datasink/internal/logging"
	"datasink/internal/util"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// pgxConnectFunc allows overriding pgx.Connect for testing.
var pgxConnectFunc = pgx.Connect

// Default database connection and query timeout.
const defaultDbTimeout = 30 * time.Second

// PostgresChunkReader implements frame.ChunkReader for PostgreSQL sources.
// The configured query is executed once, lazily, and its result rows are
// consumed in chunkRows-sized frames so that large result sets are never
// buffered whole.
type PostgresChunkReader struct {
	connStr   string
	query     string
	chunkRows int

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	conn   *pgx.Conn
	rows   pgx.Rows
	schema frame.Schema
	cols   []string
	opened bool
	done   bool
}

// NewPostgresChunkReader creates a new PostgresChunkReader instance.
// chunkRows bounds how many rows each chunk holds and must be positive.
func NewPostgresChunkReader(connStr, query string, chunkRows int) (*PostgresChunkReader, error) {
	if chunkRows <= 0 {
		return nil, fmt.Errorf("invalid chunk size %d: must be positive", chunkRows)
	}
	return &PostgresChunkReader{
		connStr:   connStr,
		query:     query,
		chunkRows: chunkRows,
	}, nil
}

// open connects and starts the query. Caller must hold pr.mu.
func (pr *PostgresChunkReader) open() error {
	logging.Logf(logging.Debug, "PostgresChunkReader starting query: %s (ChunkRows: %d)", pr.query, pr.chunkRows)
	ctx, cancel := context.WithTimeout(context.Background(), defaultDbTimeout*2)

	expandedConnStr := util.ExpandEnvUniversal(pr.connStr)
	conn, err := pgxConnectFunc(ctx, expandedConnStr)
	if err != nil {
		cancel()
		maskedConnStr := util.MaskCredentials(expandedConnStr)
		logging.Logf(logging.Error, "PostgresChunkReader failed to connect using connection string: %s", maskedConnStr)
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("PostgresChunkReader database connection timed out: %w", err)
		}
		return fmt.Errorf("PostgresChunkReader failed to connect to database (using %s): %w", maskedConnStr, err)
	}

	rows, err := conn.Query(ctx, pr.query)
	if err != nil {
		conn.Close(ctx)
		cancel()
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("PostgresChunkReader query execution timed out: %w", err)
		}
		return fmt.Errorf("PostgresChunkReader failed to execute query '%s': %w", pr.query, err)
	}

	fieldDescriptions := rows.FieldDescriptions()
	if len(fieldDescriptions) == 0 {
		rows.Close()
		conn.Close(ctx)
		cancel()
		return fmt.Errorf("PostgresChunkReader query '%s' returned no columns", pr.query)
	}

	schema := make(frame.Schema, 0, len(fieldDescriptions))
	cols := make([]string, 0, len(fieldDescriptions))
	for _, fd := range fieldDescriptions {
		name := string(fd.Name)
		cols = append(cols, name)
		schema = append(schema, frame.Column{Name: name, Type: kindForOID(fd.DataTypeOID)})
	}

	pr.ctx = ctx
	pr.cancel = cancel
	pr.conn = conn
	pr.rows = rows
	pr.schema = schema
	pr.cols = cols
	pr.opened = true
	return nil
}

// kindForOID maps common PostgreSQL type OIDs onto column kinds.
// Everything unrecognized is carried as a string.
func kindForOID(oid uint32) frame.Kind {
	switch oid {
	case pgtype.Int2OID, pgtype.Int4OID, pgtype.Int8OID:
		return frame.KindInt64
	case pgtype.Float4OID, pgtype.Float8OID, pgtype.NumericOID:
		return frame.KindFloat64
	case pgtype.BoolOID:
		return frame.KindBool
	case pgtype.TimestampOID, pgtype.TimestamptzOID, pgtype.DateOID:
		return frame.KindTimestamp
	default:
		return frame.KindString
	}
}

// normalizeValue flattens pgx-specific value types into the plain Go values
// the rest of the pipeline understands.
func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case pgtype.Numeric:
		f, err := t.Float64Value()
		if err != nil || !f.Valid {
			return fmt.Sprintf("%v", v)
		}
		return f.Float64
	default:
		return v
	}
}

// Schema returns the column schema derived from the query's field descriptions.
// It connects and starts the query on first use.
func (pr *PostgresChunkReader) Schema() frame.Schema {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if !pr.opened {
		if err := pr.open(); err != nil {
			logging.Logf(logging.Error, "PostgresChunkReader failed to open while resolving schema: %v", err)
			return nil
		}
	}
	return pr.schema
}

// Next scans up to chunkRows result rows into a frame.
// Returns io.EOF once the result set is exhausted.
func (pr *PostgresChunkReader) Next() (*frame.Frame, error) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	if !pr.opened {
		if err := pr.open(); err != nil {
			return nil, err
		}
	}
	if pr.done {
		return nil, io.EOF
	}

	records := make([]map[string]interface{}, 0, pr.chunkRows)
	for len(records) < pr.chunkRows {
		if !pr.rows.Next() {
			if err := pr.rows.Err(); err != nil {
				pr.closeLocked()
				if errors.Is(err, context.DeadlineExceeded) {
					return nil, fmt.Errorf("PostgresChunkReader database operation timed out during row iteration: %w", err)
				}
				return nil, fmt.Errorf("PostgresChunkReader error during row iteration: %w", err)
			}
			pr.closeLocked()
			break
		}

		values, err := pr.rows.Values()
		if err != nil {
			pr.closeLocked()
			return nil, fmt.Errorf("PostgresChunkReader failed to scan row values: %w", err)
		}

		recordMap := make(map[string]interface{}, len(pr.cols))
		for i, col := range pr.cols {
			recordMap[col] = normalizeValue(values[i])
		}
		records = append(records, recordMap)
	}

	if len(records) == 0 {
		return nil, io.EOF
	}

	logging.Logf(logging.Debug, "PostgresChunkReader read chunk of %d records", len(records))
	return frame.New(pr.schema, records)
}

// closeLocked releases the query and connection. Caller must hold pr.mu.
func (pr *PostgresChunkReader) closeLocked() {
	if pr.rows != nil {
		pr.rows.Close()
		pr.rows = nil
	}
	if pr.conn != nil {
		if err := pr.conn.Close(pr.ctx); err != nil {
			logging.Logf(logging.Error, "PostgresChunkReader failed to close connection: %v", err)
		}
		pr.conn = nil
	}
	if pr.cancel != nil {
		pr.cancel()
		pr.cancel = nil
	}
	pr.done = true
}

// Close releases the query and connection. Safe to call multiple times.
func (pr *PostgresChunkReader) Close() error {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pr.closeLocked()
	return nil
}
