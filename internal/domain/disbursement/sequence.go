package disbursement

import "context"

// Sequence is a finite, pull-based stream of record batches.
// Callers loop on Next until it returns false and then check Err.
type Sequence interface {
	Next(ctx context.Context) bool
	Batch() Batch
	Err() error
}

// Batch is an ordered group of records, typically one upstream page.
type Batch []Record

// Sequence exposes an in-memory batch as a single-step Sequence.
func (b Batch) Sequence() Sequence {
	return &batchSequence{batch: b}
}

type batchSequence struct {
	batch    Batch
	consumed bool
	err      error
}

func (s *batchSequence) Next(ctx context.Context) bool {
	if s.consumed || s.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		s.err = err
		return false
	}
	s.consumed = true
	return true
}

func (s *batchSequence) Batch() Batch {
	if !s.consumed {
		return nil
	}
	return s.batch
}

func (s *batchSequence) Err() error { return s.err }
