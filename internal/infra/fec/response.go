package fec

import (
	"database/sql"

	"fec_disbursements/internal/domain/disbursement"

	"github.com/shopspring/decimal"
)

// pageResponse is the subset of a Schedule B response body the exporter reads.
type pageResponse struct {
	Results    []scheduleBItem `json:"results"`
	Pagination *pagination     `json:"pagination"`
}

type pagination struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Count int `json:"count"`
}

type scheduleBItem struct {
	RecipientCommitteeName *string             `json:"recipient_committee_name"`
	RecipientName          *string             `json:"recipient_name"`
	DisbursementDate       *string             `json:"disbursement_date"`
	DisbursementAmount     decimal.NullDecimal `json:"disbursement_amount"`
}

// totalPages is zero when pagination is absent, which ends iteration after this page.
func (r *pageResponse) totalPages() int {
	if r.Pagination == nil {
		return 0
	}
	return r.Pagination.Pages
}

func (r *pageResponse) records() disbursement.Batch {
	batch := make(disbursement.Batch, 0, len(r.Results))
	for _, item := range r.Results {
		batch = append(batch, disbursement.Record{
			RecipientCommitteeName: toNullString(item.RecipientCommitteeName),
			RecipientName:          toNullString(item.RecipientName),
			DisbursementDate:       toNullString(item.DisbursementDate),
			DisbursementAmount:     item.DisbursementAmount,
		})
	}
	return batch
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
