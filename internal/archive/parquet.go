package archive

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// codecFor maps the configured compression name onto a parquet codec. The
// name is validated at config load, so anything unrecognized here falls back
// to SNAPPY rather than failing a flush.
func codecFor(compression string) parquet.CompressionCodec {
	switch compression {
	case "ZSTD":
		return parquet.CompressionCodec_ZSTD
	case "GZIP":
		return parquet.CompressionCodec_GZIP
	default:
		return parquet.CompressionCodec_SNAPPY
	}
}

// newLocalParquetWriter opens a typed parquet writer over a local temp file.
// The returned close function finalizes the part and closes the file; the
// caller owns removing the file after a successful upload.
func newLocalParquetWriter[T any](path string, parallel int64, compression string) (*writer.ParquetWriter, func() error, error) {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open part file %s: %w", path, err)
	}

	pw, err := writer.NewParquetWriter(fw, new(T), parallel)
	if err != nil {
		_ = fw.Close()
		return nil, nil, fmt.Errorf("parquet writer for %s: %w", path, err)
	}
	pw.CompressionType = codecFor(compression)

	closeFn := func() error {
		if err := pw.WriteStop(); err != nil {
			_ = fw.Close()
			return fmt.Errorf("finalize part %s: %w", path, err)
		}
		if err := fw.Close(); err != nil {
			return fmt.Errorf("close part %s: %w", path, err)
		}
		return nil
	}

	return pw, closeFn, nil
}
