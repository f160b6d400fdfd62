package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fec_disbursements/internal/domain/disbursement"

	"github.com/sirupsen/logrus"
)

const (
	// FilePrefix starts every export file name.
	FilePrefix = "aipac_donations"

	timestampLayout = "20060102150405"
	dirPerm         = 0o755
)

// Result describes a completed export.
type Result struct {
	Path    string
	Records int
}

// ExportService fetches one cycle of disbursements and writes them to a timestamped CSV.
type ExportService struct {
	source    disbursement.Source
	sink      disbursement.Sink
	outputDir string
	logger    *logrus.Entry

	// Now is the capture clock; overridable in tests.
	Now func() time.Time
}

func NewExportService(source disbursement.Source, sink disbursement.Sink, outputDir string, logger *logrus.Entry) *ExportService {
	return &ExportService{
		source:    source,
		sink:      sink,
		outputDir: outputDir,
		logger:    logger,
		Now:       time.Now,
	}
}

// OutputFileName builds aipac_donations_<cycle>_<YYYYMMDDHHMMSS>.csv from a UTC timestamp.
// Two runs within the same second produce the same name.
func OutputFileName(cycle int, capturedAt time.Time) string {
	return fmt.Sprintf("%s_%d_%s.csv", FilePrefix, cycle, capturedAt.UTC().Format(timestampLayout))
}

// Run fetches every page before touching the output file, so a failed fetch leaves no file behind.
func (s *ExportService) Run(ctx context.Context, cycle int) (*Result, error) {
	if err := os.MkdirAll(s.outputDir, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	log := s.logger.WithField("cycle", cycle)
	log.Info("Fetching disbursements")

	records, err := s.source.All(ctx, cycle)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch disbursements: %w", err)
	}
	log.WithField("records", len(records)).Info("Fetched disbursements")

	path := filepath.Join(s.outputDir, OutputFileName(cycle, s.Now()))
	written, err := s.sink.WriteFile(ctx, path, disbursement.Batch(records).Sequence())
	if err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}

	return &Result{Path: path, Records: written}, nil
}
