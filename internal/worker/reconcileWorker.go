package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	repository "github.com/venuedesk/backend/internal/database/postgres"
	"github.com/venuedesk/backend/pkg/metrics"
)

// SummaryReconcileWorker periodically re-derives every event's guest, table
// and ticket aggregates from their base rows and repairs stored summaries
// that drifted. Under correct operation it never finds anything to repair;
// each repair is counted and logged as a consistency incident.
type SummaryReconcileWorker struct {
	events   repository.EventRepository
	tables   repository.TableRepository
	guests   repository.GuestRepository
	tickets  repository.TicketRepository
	interval time.Duration
	batch    int
}

func NewSummaryReconcileWorker(
	events repository.EventRepository,
	tables repository.TableRepository,
	guests repository.GuestRepository,
	tickets repository.TicketRepository,
	interval time.Duration,
	batch int,
) *SummaryReconcileWorker {
	if batch <= 0 {
		batch = 500
	}
	return &SummaryReconcileWorker{
		events:   events,
		tables:   tables,
		guests:   guests,
		tickets:  tickets,
		interval: interval,
		batch:    batch,
	}
}

func (w *SummaryReconcileWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.Info("Summary reconcile worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Summary reconcile worker stopped")
			return
		case <-ticker.C:
			w.reconcileAll(ctx)
		}
	}
}

func (w *SummaryReconcileWorker) reconcileAll(ctx context.Context) {
	eventIDs, err := w.events.ListIDs(ctx, w.batch)
	if err != nil {
		logrus.Errorf("Failed to list events for reconciliation: %v", err)
		return
	}
	if len(eventIDs) == 0 {
		return
	}

	checked := 0
	repaired := 0

	for _, eventID := range eventIDs {
		select {
		case <-ctx.Done():
			logrus.Info("Reconciliation interrupted by context cancellation")
			return
		default:
		}

		checked++
		repaired += w.reconcileEvent(ctx, eventID)
	}

	if repaired > 0 {
		logrus.Warnf("Summary reconciliation repaired %d aggregates across %d events", repaired, checked)
	} else {
		logrus.Debugf("Summary reconciliation checked %d events, all consistent", checked)
	}
}

// reconcileEvent checks the three aggregates of one event and returns the
// number it had to repair.
func (w *SummaryReconcileWorker) reconcileEvent(ctx context.Context, eventID string) int {
	repaired := 0

	if _, fixed, err := w.guests.RecomputeSummary(ctx, eventID); err != nil {
		logrus.Errorf("Failed to reconcile guest summary for event %s: %v", eventID, err)
	} else if fixed {
		metrics.SummaryRepairs.WithLabelValues("guest").Inc()
		logrus.Warnf("Repaired drifted guest summary for event %s", eventID)
		repaired++
	}

	if _, fixed, err := w.tables.RecomputeSummary(ctx, eventID); err != nil {
		logrus.Errorf("Failed to reconcile table summary for event %s: %v", eventID, err)
	} else if fixed {
		metrics.SummaryRepairs.WithLabelValues("table").Inc()
		logrus.Warnf("Repaired drifted table summary for event %s", eventID)
		repaired++
	}

	if _, fixed, err := w.tickets.RecomputeSummary(ctx, eventID); err != nil {
		logrus.Errorf("Failed to reconcile ticket summary for event %s: %v", eventID, err)
	} else if fixed {
		metrics.SummaryRepairs.WithLabelValues("ticket").Inc()
		logrus.Warnf("Repaired drifted ticket summary for event %s", eventID)
		repaired++
	}

	return repaired
}
