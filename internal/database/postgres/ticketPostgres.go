package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/venuedesk/backend/internal/entity"
)

type ticketRepository struct {
	db *sql.DB
}

func NewTicketRepository(db *sql.DB) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `
	id, event_id, name, price, total_tickets, tickets_left,
	sale_start, sale_end, is_free, buyer_pays_fee, category, max_per_user,
	created_at, updated_at
`

// Create inserts a ticket type and folds its totals into the event's shared
// summary; the first type of an event seeds the summary row.
func (r *ticketRepository) Create(ctx context.Context, t *entity.TicketType, activity *entity.ActivityEntry) error {
	return runTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO tickets (` + ticketColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`
		_, err := tx.ExecContext(ctx, query,
			t.ID,
			t.EventID,
			t.Name,
			t.Price,
			t.TotalTickets,
			t.TicketsLeft,
			t.SaleStart,
			t.SaleEnd,
			t.IsFree,
			t.BuyerPaysFee,
			t.Category,
			t.MaxPerUser,
			t.CreatedAt,
			t.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert ticket type: %w", err)
		}

		d := t.EntryDelta()
		query = `
			INSERT INTO ticket_summaries (event_id, total_tickets, tickets_sold, tickets_left, revenue)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (event_id) DO UPDATE SET
				total_tickets = ticket_summaries.total_tickets + EXCLUDED.total_tickets,
				tickets_sold = ticket_summaries.tickets_sold + EXCLUDED.tickets_sold,
				tickets_left = ticket_summaries.tickets_left + EXCLUDED.tickets_left,
				revenue = ticket_summaries.revenue + EXCLUDED.revenue
		`
		if _, err := tx.ExecContext(ctx, query,
			t.EventID, d.TotalTickets, d.TicketsSold, d.TicketsLeft, d.Revenue); err != nil {
			return fmt.Errorf("failed to upsert ticket summary: %w", err)
		}

		if activity != nil {
			if err := insertActivity(ctx, tx, activity); err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *ticketRepository) GetByID(ctx context.Context, eventID, ticketID string) (*entity.TicketType, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE event_id = $1 AND id = $2`
	return scanTicket(r.db.QueryRowContext(ctx, query, eventID, ticketID))
}

func scanTicket(row rowScanner) (*entity.TicketType, error) {
	var t entity.TicketType
	err := row.Scan(
		&t.ID,
		&t.EventID,
		&t.Name,
		&t.Price,
		&t.TotalTickets,
		&t.TicketsLeft,
		&t.SaleStart,
		&t.SaleEnd,
		&t.IsFree,
		&t.BuyerPaysFee,
		&t.Category,
		&t.MaxPerUser,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan ticket type: %w", err)
	}
	return &t, nil
}

func (r *ticketRepository) GetAllByEvent(ctx context.Context, eventID string) ([]entity.TicketType, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE event_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticket types: %w", err)
	}
	defer rows.Close()

	var types []entity.TicketType
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ticket types: %w", err)
	}

	return types, nil
}

// Update applies a field diff under a row lock. A totals change preserves the
// derived sold count and recomputes tickets_left; the summary receives the
// resulting delta in the same transaction. No changed fields surfaces
// entity.ErrNoChanges.
func (r *ticketRepository) Update(ctx context.Context, eventID, ticketID string, upd entity.TicketUpdate, activity *entity.ActivityEntry) (*entity.TicketType, []string, error) {
	var ticket *entity.TicketType
	var changed []string

	err := runTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `SELECT ` + ticketColumns + ` FROM tickets WHERE event_id = $1 AND id = $2 FOR UPDATE`
		var err error
		ticket, err = scanTicket(tx.QueryRowContext(ctx, query, eventID, ticketID))
		if err != nil {
			return err
		}

		var delta entity.TicketDelta
		changed, delta, err = ticket.ApplyUpdate(upd)
		if err != nil {
			return err
		}
		if len(changed) == 0 {
			return entity.ErrNoChanges
		}

		ticket.UpdatedAt = time.Now().UTC()
		query = `
			UPDATE tickets
			SET name = $1, price = $2, total_tickets = $3, tickets_left = $4,
			    sale_start = $5, sale_end = $6, is_free = $7, buyer_pays_fee = $8,
			    category = $9, max_per_user = $10, updated_at = $11
			WHERE event_id = $12 AND id = $13
		`
		_, err = tx.ExecContext(ctx, query,
			ticket.Name,
			ticket.Price,
			ticket.TotalTickets,
			ticket.TicketsLeft,
			ticket.SaleStart,
			ticket.SaleEnd,
			ticket.IsFree,
			ticket.BuyerPaysFee,
			ticket.Category,
			ticket.MaxPerUser,
			ticket.UpdatedAt,
			eventID,
			ticketID,
		)
		if err != nil {
			return fmt.Errorf("failed to update ticket type: %w", err)
		}

		if err := applyTicketSummaryDelta(ctx, tx, eventID, delta); err != nil {
			return err
		}

		if activity != nil {
			if err := insertActivity(ctx, tx, activity); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return ticket, changed, nil
}

// Delete removes a ticket type with zero sold tickets and subtracts its
// contribution from the summary. Types with sold tickets are protected.
func (r *ticketRepository) Delete(ctx context.Context, eventID, ticketID string, activity *entity.ActivityEntry) (*entity.TicketType, error) {
	var ticket *entity.TicketType

	err := runTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `SELECT ` + ticketColumns + ` FROM tickets WHERE event_id = $1 AND id = $2 FOR UPDATE`
		var err error
		ticket, err = scanTicket(tx.QueryRowContext(ctx, query, eventID, ticketID))
		if err != nil {
			return err
		}

		if ticket.Sold() > 0 {
			return entity.ErrHasSoldTickets
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM tickets WHERE event_id = $1 AND id = $2`, eventID, ticketID); err != nil {
			return fmt.Errorf("failed to delete ticket type: %w", err)
		}

		d := ticket.EntryDelta()
		if err := applyTicketSummaryDelta(ctx, tx, eventID, entity.TicketDelta{
			TotalTickets: -d.TotalTickets,
			TicketsSold:  -d.TicketsSold,
			TicketsLeft:  -d.TicketsLeft,
			Revenue:      -d.Revenue,
		}); err != nil {
			return err
		}

		if activity != nil {
			if err := insertActivity(ctx, tx, activity); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return ticket, nil
}

func (r *ticketRepository) GetSummary(ctx context.Context, eventID string) (*entity.TicketSummary, error) {
	query := `
		SELECT event_id, total_tickets, tickets_sold, tickets_left, revenue
		FROM ticket_summaries
		WHERE event_id = $1
	`

	var s entity.TicketSummary
	err := r.db.QueryRowContext(ctx, query, eventID).Scan(
		&s.EventID,
		&s.TotalTickets,
		&s.TicketsSold,
		&s.TicketsLeft,
		&s.Revenue,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket summary: %w", err)
	}

	return &s, nil
}

// RecomputeSummary re-sums the aggregate from ticket-type rows and repairs
// the stored summary when it drifted.
func (r *ticketRepository) RecomputeSummary(ctx context.Context, eventID string) (*entity.TicketSummary, bool, error) {
	var fresh entity.TicketSummary
	repaired := false

	err := runTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			SELECT COALESCE(SUM(total_tickets), 0),
			       COALESCE(SUM(total_tickets - tickets_left), 0),
			       COALESCE(SUM(tickets_left), 0),
			       COALESCE(SUM(price * (total_tickets - tickets_left)), 0)
			FROM tickets
			WHERE event_id = $1
		`
		err := tx.QueryRowContext(ctx, query, eventID).Scan(
			&fresh.TotalTickets,
			&fresh.TicketsSold,
			&fresh.TicketsLeft,
			&fresh.Revenue,
		)
		if err != nil {
			return fmt.Errorf("failed to re-sum tickets: %w", err)
		}
		fresh.EventID = eventID

		var stored entity.TicketSummary
		query = `
			SELECT total_tickets, tickets_sold, tickets_left, revenue
			FROM ticket_summaries WHERE event_id = $1 FOR UPDATE
		`
		err = tx.QueryRowContext(ctx, query, eventID).Scan(
			&stored.TotalTickets,
			&stored.TicketsSold,
			&stored.TicketsLeft,
			&stored.Revenue,
		)
		if err == sql.ErrNoRows {
			return entity.ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read ticket summary: %w", err)
		}

		stored.EventID = eventID
		if stored == fresh {
			return nil
		}

		repaired = true
		query = `
			UPDATE ticket_summaries
			SET total_tickets = $1, tickets_sold = $2, tickets_left = $3, revenue = $4
			WHERE event_id = $5
		`
		_, err = tx.ExecContext(ctx, query,
			fresh.TotalTickets, fresh.TicketsSold, fresh.TicketsLeft, fresh.Revenue, eventID)
		if err != nil {
			return fmt.Errorf("failed to repair ticket summary: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return &fresh, repaired, nil
}

func applyTicketSummaryDelta(ctx context.Context, tx *sql.Tx, eventID string, d entity.TicketDelta) error {
	if d.IsZero() {
		return nil
	}

	query := `
		UPDATE ticket_summaries
		SET total_tickets = total_tickets + $1,
		    tickets_sold = tickets_sold + $2,
		    tickets_left = tickets_left + $3,
		    revenue = revenue + $4
		WHERE event_id = $5
	`
	result, err := tx.ExecContext(ctx, query,
		d.TotalTickets, d.TicketsSold, d.TicketsLeft, d.Revenue, eventID)
	if err != nil {
		return fmt.Errorf("failed to apply ticket summary delta: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return entity.ErrEventNotFound
	}

	return nil
}
