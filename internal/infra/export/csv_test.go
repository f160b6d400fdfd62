package export

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"fec_disbursements/internal/domain/disbursement"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "recipient_committee_name,recipient_name,disbursement_date,disbursement_amount"

func str(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

func amount(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

// failingSequence yields one batch and then fails.
type failingSequence struct {
	calls int
	err   error
}

func (s *failingSequence) Next(context.Context) bool {
	s.calls++
	return s.calls == 1
}

func (s *failingSequence) Batch() disbursement.Batch {
	return disbursement.Batch{{RecipientName: str("partial")}}
}

func (s *failingSequence) Err() error {
	if s.calls > 1 {
		return s.err
	}
	return nil
}

func TestWrite_HeaderOnlyForZeroRecords(t *testing.T) {
	var buf bytes.Buffer
	n, err := NewCSVExporter().Write(context.Background(), &buf, disbursement.Batch{}.Sequence())

	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, header+"\n", buf.String())
}

func TestWrite_MissingFieldsRenderEmpty(t *testing.T) {
	records := disbursement.Batch{
		{RecipientName: str("A"), DisbursementAmount: amount("1")},
		{},
	}

	var buf bytes.Buffer
	n, err := NewCSVExporter().Write(context.Background(), &buf, records.Sequence())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, header+"\n,A,,1\n,,,\n", buf.String())
}

func TestWrite_QuotesAndNonASCII(t *testing.T) {
	records := disbursement.Batch{{
		RecipientCommitteeName: str("FRIENDS OF JOSÉ, INC."),
		RecipientName:          str(`Zoë "Z" Ångström`),
		DisbursementDate:       str("2022-03-31T00:00:00"),
		DisbursementAmount:     amount("1500.50"),
	}}

	var buf bytes.Buffer
	_, err := NewCSVExporter().Write(context.Background(), &buf, records.Sequence())
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"FRIENDS OF JOSÉ, INC.", `Zoë "Z" Ångström`, "2022-03-31T00:00:00", "1500.5"}, rows[1])
}

func TestWrite_BOM(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewCSVExporter(WithBOM(true)).Write(context.Background(), &buf, disbursement.Batch{}.Sequence())

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))
	assert.Equal(t, header+"\n", string(bytes.TrimPrefix(buf.Bytes(), utf8BOM)))
}

func TestWriteFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	records := disbursement.Batch{
		{RecipientCommitteeName: str("COM"), RecipientName: str("A"), DisbursementDate: str("2022-01-01"), DisbursementAmount: amount("10")},
		{RecipientName: str("B"), DisbursementAmount: amount("2")},
		{RecipientCommitteeName: str("COM2"), DisbursementDate: str("2022-02-02")},
	}

	n, err := NewCSVExporter().WriteFile(context.Background(), path, records.Sequence())
	require.NoError(t, err)
	assert.Equal(t, len(records), n)

	rows := readCSV(t, path)
	require.Len(t, rows, len(records)+1)
	assert.Equal(t, disbursement.Columns, rows[0])
	for i, record := range records {
		assert.Equal(t, record.Row(), rows[i+1])
	}
	assert.Equal(t, "A", rows[1][1])
	assert.Equal(t, "B", rows[2][1])

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(filePerm), info.Mode().Perm())
}

func TestWriteFile_OverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale,data\n1,2\n3,4\n"), 0o644))

	_, err := NewCSVExporter().WriteFile(context.Background(), path, disbursement.Batch{{RecipientName: str("fresh")}}.Sequence())
	require.NoError(t, err)

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, "fresh", rows[1][1])
}

func TestWriteFile_MissingParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.csv")

	_, err := NewCSVExporter().WriteFile(context.Background(), path, disbursement.Batch{}.Sequence())

	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestWriteFile_SequenceFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	upstream := errors.New("upstream went away")

	n, err := NewCSVExporter().WriteFile(context.Background(), path, &failingSequence{err: upstream})

	require.Error(t, err)
	assert.True(t, errors.Is(err, upstream))
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary file must be cleaned up")
}

func TestWriteFile_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCSVExporter().WriteFile(ctx, path, disbursement.Batch{{RecipientName: str("A")}}.Sequence())

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.NoFileExists(t, path)
}
