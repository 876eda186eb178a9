package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chris/store-credit-checkout/pkg/alerts"
	"github.com/chris/store-credit-checkout/pkg/metrics"
	"github.com/chris/store-credit-checkout/pkg/models"
)

// recoverableStates are the non-terminal states a crashed process can leave
// a saga in with money still held on a credit.
var recoverableStates = []models.SagaState{
	models.CREDIT_RESERVED,
	models.CHARGING,
	models.DECLINED,
}

// RecoveryReport summarises one sweep.
type RecoveryReport struct {
	Scanned   int
	Recovered []string
	Failed    []string
}

// Recover compensates sagas stuck in a recoverable state for longer than
// olderThan. A saga stuck in CHARGING has an unknown card outcome, so each
// recovered saga raises a warning for manual reconciliation.
func (c *Coordinator) Recover(ctx context.Context, olderThan time.Duration) (*RecoveryReport, error) {
	stale, err := c.sagas.ListStaleSagas(ctx, recoverableStates, olderThan)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale sagas: %w", err)
	}

	report := &RecoveryReport{Scanned: len(stale)}
	for i := range stale {
		rec := &stale[i]
		r := &run{rec: rec, stored: rec.State, log: c.logger.With("reference_id", rec.ReferenceID)}
		r.log.Warn("recovering stale saga", "state", rec.State, "updated_at", rec.UpdatedAt)

		previous, stalledSince := rec.State, rec.UpdatedAt
		err := c.compensate(ctx, r, errors.New("recovered after stalling in "+string(previous)))
		metrics.RecoveredSagas.WithLabelValues(metrics.Result(err)).Inc()
		if err != nil {
			report.Failed = append(report.Failed, rec.ReferenceID)
			continue
		}
		report.Recovered = append(report.Recovered, rec.ReferenceID)

		c.raise(ctx, r, alerts.Warning, "stale settlement compensated",
			fmt.Sprintf("saga stalled in %s since %s; verify the card was not charged for provider order %q",
				previous, stalledSince.Format(time.RFC3339), rec.ProviderOrderID))
	}

	c.logger.Info("saga recovery finished",
		"scanned", report.Scanned, "recovered", len(report.Recovered), "failed", len(report.Failed))
	return report, nil
}
