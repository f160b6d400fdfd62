package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fec_disbursements/internal/domain/disbursement"

	"github.com/sirupsen/logrus"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const filePerm = 0o644

var _ disbursement.Sink = (*CSVExporter)(nil)

// CSVExporter writes disbursements using the fixed disbursement.Columns header.
type CSVExporter struct {
	bom    bool
	logger *logrus.Entry
}

type CSVOption func(*CSVExporter)

// WithBOM prefixes output with a UTF-8 byte order mark so spreadsheet tools detect
// the encoding. Readers that do not strip the mark will see it in the first header cell.
func WithBOM(enabled bool) CSVOption {
	return func(e *CSVExporter) { e.bom = enabled }
}

func WithLogger(logger *logrus.Entry) CSVOption {
	return func(e *CSVExporter) { e.logger = logger }
}

func NewCSVExporter(opts ...CSVOption) *CSVExporter {
	e := &CSVExporter{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		e.logger = logrus.NewEntry(discard)
	}
	return e
}

// Write emits the header row followed by one row per record, in iteration order.
// It returns the number of data rows written.
func (e *CSVExporter) Write(ctx context.Context, w io.Writer, records disbursement.Sequence) (int, error) {
	if e.bom {
		if _, err := w.Write(utf8BOM); err != nil {
			return 0, fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(disbursement.Columns); err != nil {
		return 0, fmt.Errorf("failed to write headers: %w", err)
	}

	written := 0
	for records.Next(ctx) {
		for _, record := range records.Batch() {
			if err := writer.Write(record.Row()); err != nil {
				return written, fmt.Errorf("failed to write record %d: %w", written, err)
			}
			written++
		}
	}
	if err := records.Err(); err != nil {
		return written, fmt.Errorf("failed to read records: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return written, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return written, nil
}

// WriteFile writes records to path through a temporary file in the same directory,
// renaming it into place only after everything is flushed and synced. On failure
// path is left untouched. The parent directory must already exist.
func (e *CSVExporter) WriteFile(ctx context.Context, path string, records disbursement.Sequence) (written int, err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if written, err = e.Write(ctx, tmp, records); err != nil {
		return written, err
	}
	if err = tmp.Sync(); err != nil {
		return written, fmt.Errorf("failed to sync file: %w", err)
	}
	if err = tmp.Chmod(filePerm); err != nil {
		return written, fmt.Errorf("failed to set file mode: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return written, fmt.Errorf("failed to close file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return written, fmt.Errorf("failed to move file into place: %w", err)
	}

	e.logger.WithFields(logrus.Fields{
		"path":    path,
		"records": written,
	}).Info("CSV file written")
	return written, nil
}
