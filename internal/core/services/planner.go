package services

import (
	"fmt"

	"github.com/beaconsearch/connector-sdk/internal/core/domain"
)

// ModePlanner decides the fetch semantics for an indexing run.
type ModePlanner struct {
	// SinceZero is an optional connector-defined default checkpoint for
	// incremental runs when none has been saved yet ("since the
	// beginning of time"). When nil, an incremental run without a saved
	// checkpoint is a configuration error.
	SinceZero *domain.Checkpoint
}

// Plan computes the fetch plan for the given mode.
//
// Full runs fetch everything and expect deletion reconciliation after the
// session closes: deletion inference is only safe when the full record
// universe was observed in one pass. Incremental runs fetch from the
// checkpoint and never infer deletions.
func (p ModePlanner) Plan(mode domain.IndexingMode, checkpoint *domain.Checkpoint) (domain.FetchPlan, error) {
	switch mode {
	case domain.ModeFull:
		return domain.FetchPlan{Since: nil, ExpectDeletions: true}, nil
	case domain.ModeIncremental:
		if checkpoint == nil {
			if p.SinceZero == nil {
				return domain.FetchPlan{}, &domain.ConfigError{
					Reason: "incremental indexing requires a checkpoint and the connector defines no since-zero default",
				}
			}
			checkpoint = p.SinceZero
		}
		return domain.FetchPlan{Since: checkpoint, ExpectDeletions: false}, nil
	default:
		return domain.FetchPlan{}, fmt.Errorf("%w: unknown indexing mode %q", domain.ErrInvalidInput, mode)
	}
}
