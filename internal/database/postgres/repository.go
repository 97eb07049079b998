package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/venuedesk/backend/internal/entity"
	"github.com/venuedesk/backend/pkg/metrics"
)

// ProvisionedEvent is one fully prepared event instance: the event row plus
// every sub-resource the provisioning transaction must create with it.
type ProvisionedEvent struct {
	Event        entity.Event
	TableLists   []entity.TableList
	TableItems   []entity.TableItem
	TableSummary entity.TableAggregate
	GuestLists   []entity.GuestList
}

// EventUpdate is the write set of one updateEvent call. RemoveLayouts names
// the table lists to drop (their negative deltas are computed from stored
// items inside the transaction); AddLists/AddItems/AddDelta carry the
// pre-fetched content of newly attached layouts.
type EventUpdate struct {
	Event          *entity.Event
	LayoutsChanged bool
	RemoveLayouts  []string
	AddLists       []entity.TableList
	AddItems       []entity.TableItem
	AddDelta       entity.TableAggregate
	Activity       *entity.ActivityEntry
}

type EventRepository interface {
	Provision(ctx context.Context, events []*ProvisionedEvent, activity []entity.ActivityEntry) error
	GetByID(ctx context.Context, companyID, eventID string) (*entity.Event, error)
	GetAllByCompany(ctx context.Context, companyID string) ([]*entity.Event, error)
	Update(ctx context.Context, upd *EventUpdate) error
	Delete(ctx context.Context, companyID, eventID string, activity *entity.ActivityEntry) error
	ListIDs(ctx context.Context, limit int) ([]string, error)
}

type TableRepository interface {
	GetLists(ctx context.Context, eventID string) ([]entity.TableList, error)
	GetItems(ctx context.Context, eventID, listID string) ([]entity.TableItem, error)
	GetSummary(ctx context.Context, eventID string) (*entity.TableAggregate, error)
	RecomputeSummary(ctx context.Context, eventID string) (*entity.TableAggregate, bool, error)
}

type GuestRepository interface {
	ListGuests(ctx context.Context, eventID, listID string) ([]entity.Guest, error)
	GetLists(ctx context.Context, eventID string) ([]entity.GuestList, error)
	GetSummary(ctx context.Context, eventID string) (*entity.GuestListSummary, error)
	GetAuditLog(ctx context.Context, eventID string, limit int) ([]entity.AuditEntry, error)

	AddGuests(ctx context.Context, eventID, listID string, guests []entity.Guest, audit []entity.AuditEntry) error
	UpdateGuest(ctx context.Context, eventID, listID, guestID string, upd entity.GuestUpdate, actor entity.Actor) (*entity.Guest, []string, error)
	CheckInGuest(ctx context.Context, eventID, listID, guestID string, mode entity.CheckInMode, normal, free int, actor entity.Actor) (*entity.Guest, entity.GuestDelta, error)
	DeleteGuests(ctx context.Context, eventID, listID string, guestIDs []string, actor entity.Actor) (int, error)

	RecomputeSummary(ctx context.Context, eventID string) (*entity.GuestListSummary, bool, error)
}

type TicketRepository interface {
	Create(ctx context.Context, t *entity.TicketType, activity *entity.ActivityEntry) error
	GetByID(ctx context.Context, eventID, ticketID string) (*entity.TicketType, error)
	GetAllByEvent(ctx context.Context, eventID string) ([]entity.TicketType, error)
	Update(ctx context.Context, eventID, ticketID string, upd entity.TicketUpdate, activity *entity.ActivityEntry) (*entity.TicketType, []string, error)
	Delete(ctx context.Context, eventID, ticketID string, activity *entity.ActivityEntry) (*entity.TicketType, error)
	GetSummary(ctx context.Context, eventID string) (*entity.TicketSummary, error)
	RecomputeSummary(ctx context.Context, eventID string) (*entity.TicketSummary, bool, error)
}

type ReferenceRepository interface {
	GetCompany(ctx context.Context, companyID string) (*entity.Company, error)
	GetNames(ctx context.Context, companyID string, kind entity.ReferenceKind, ids []string) ([]entity.Reference, error)
	GetLayout(ctx context.Context, companyID, layoutID string) (*entity.Layout, error)

	CreateLayout(ctx context.Context, layout *entity.Layout) error
	DeleteLayout(ctx context.Context, companyID, layoutID string) error
	CreateValue(ctx context.Context, kind entity.ReferenceKind, ref *entity.Reference, companyID string) error
	DeleteValue(ctx context.Context, kind entity.ReferenceKind, companyID, id string) error

	ListActivity(ctx context.Context, eventID string, limit int) ([]entity.ActivityEntry, error)
}

const txMaxAttempts = 3

// runTx executes fn inside a transaction, retrying on serialization failures
// and deadlocks (SQLSTATE 40001 / 40P01). Exhausted retries surface
// entity.ErrTransactionConflict; any other failure rolls back with no partial
// effect.
func runTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	var lastErr error

	for attempt := 1; attempt <= txMaxAttempts; attempt++ {
		tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		err = fn(tx)
		if err == nil {
			if err = tx.Commit(); err == nil {
				return nil
			}
		}
		tx.Rollback()

		if !isRetryable(err) {
			return err
		}
		lastErr = err
		logrus.WithFields(logrus.Fields{"attempt": attempt, "error": err}).
			Warn("transaction conflict, retrying")
		time.Sleep(time.Duration(attempt) * 10 * time.Millisecond)
	}

	metrics.TxConflicts.Inc()
	return fmt.Errorf("%w: %v", entity.ErrTransactionConflict, lastErr)
}

func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
