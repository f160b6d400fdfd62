package disbursement

import "context"

// Source retrieves every disbursement for an election cycle.
type Source interface {
	All(ctx context.Context, cycle int) ([]Record, error)
}

// Sink persists a sequence of disbursements at path and reports how many rows it wrote.
type Sink interface {
	WriteFile(ctx context.Context, path string, records Sequence) (int, error)
}
