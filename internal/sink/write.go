package sink

import (
	"datasink/internal/config"
	"datasink/internal/logging"
)

// Options control how a write invocation serializes its output.
type Options struct {
	// Compression names the parquet codec: none, snappy, gzip or zstd.
	// Empty means snappy.
	Compression string
	// Concurrency bounds parallel partition writes. Values below 1 mean
	// sequential. Chunked writes are always sequential.
	Concurrency int
}

// withDefaults fills unset options.
func (o Options) withDefaults() Options {
	if o.Compression == "" {
		o.Compression = config.DefaultCompression
	}
	if o.Concurrency < 1 {
		o.Concurrency = config.DefaultConcurrency
	}
	return o
}

// Write persists the data source to dest and then writes the manifest beside
// the output. Concurrent invocations must target distinct destinations; the
// caller owns serialization of writes to a shared path.
//
// Failure semantics are asymmetric by design. A data-write failure removes
// all partial output from this invocation and returns a nil result with a
// *WriteError. A checksum or manifest failure after the data files succeeded
// leaves the data files in place and returns the result together with the
// error, so the caller can distinguish "no data" from "data written, manifest
// missing".
func Write(ds DataSource, dest string, caps Capabilities, opts Options) (*WriteResult, error) {
	opts = opts.withDefaults()

	strategy, err := selectStrategy(ds, caps)
	if err != nil {
		return nil, err
	}
	logging.Logf(logging.Debug, "Selected %s write strategy for destination %s", ds.label(), dest)

	res, err := strategy(dest, opts)
	if err != nil {
		return nil, err
	}

	// All data writes have completed before this point; the manifest always
	// describes the full, consistent set of files.
	manifest, err := BuildManifest(res)
	if err != nil {
		return res, err
	}
	if err := WriteManifest(manifest, ManifestPath(res)); err != nil {
		return res, err
	}

	return res, nil
}
