package disbursement

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// Columns is the fixed, ordered CSV header for exported disbursements.
var Columns = []string{
	"recipient_committee_name",
	"recipient_name",
	"disbursement_date",
	"disbursement_amount",
}

// Record is a single Schedule B disbursement as reported to the FEC.
// Every field is optional; upstream items routinely omit some of them.
type Record struct {
	RecipientCommitteeName sql.NullString
	RecipientName          sql.NullString
	DisbursementDate       sql.NullString // ISO-like date, passed through as reported
	DisbursementAmount     decimal.NullDecimal
}

// Row renders the record in Columns order. Missing fields become empty cells.
func (r Record) Row() []string {
	row := []string{
		nullString(r.RecipientCommitteeName),
		nullString(r.RecipientName),
		nullString(r.DisbursementDate),
		"",
	}
	if r.DisbursementAmount.Valid {
		row[3] = r.DisbursementAmount.Decimal.String()
	}
	return row
}

func nullString(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return s.String
}
