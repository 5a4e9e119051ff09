package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"cargoport/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RecomputeJobPayload is the envelope for container repricing jobs.
type RecomputeJobPayload struct {
	ContainerID string `json:"container_id"`
}

// RecomputeWorker reprices whole containers off the request path — used when
// a catalog change touches many containers at once.
type RecomputeWorker struct {
	pricing service.PricingService
}

func NewRecomputeWorker(pricing service.PricingService) *RecomputeWorker {
	return &RecomputeWorker{pricing: pricing}
}

func (w *RecomputeWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload RecomputeJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("invalid recompute payload: %w", err)
	}
	containerID, err := uuid.Parse(payload.ContainerID)
	if err != nil {
		return fmt.Errorf("invalid container_id %q: %w", payload.ContainerID, err)
	}
	if err := w.pricing.RecomputeContainer(ctx, containerID); err != nil {
		return err
	}
	log.Info().Str("container_id", payload.ContainerID).Msg("recompute_worker: container repriced")
	return nil
}

// ReconcileWorker rebuilds every counterparty's balances from history and
// publishes the consistency report. Anomalies are reported, never corrected.
type ReconcileWorker struct {
	ledger service.LedgerService
}

func NewReconcileWorker(ledger service.LedgerService) *ReconcileWorker {
	return &ReconcileWorker{ledger: ledger}
}

func (w *ReconcileWorker) Process(ctx context.Context) error {
	if err := w.ledger.RecalculateAll(ctx); err != nil {
		return fmt.Errorf("recalculate balances: %w", err)
	}
	report, err := w.ledger.ConsistencyCheck(ctx)
	if err != nil {
		return fmt.Errorf("consistency check: %w", err)
	}
	log.Info().
		Int("anomalies", len(report.Anomalies)).
		Msg("reconcile_worker: balances rebuilt, report published")
	return nil
}
