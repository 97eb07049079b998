package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/venuedesk/backend/internal/entity"
)

type eventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) EventRepository {
	return &eventRepository{db: db}
}

// Provision atomically creates one or more event instances together with
// every dependent sub-resource: table lists copied from layouts, the table
// summary, the guest lists, the zeroed guest-list summary and the zeroed
// ticket summary. Either every instance lands or none does.
func (r *eventRepository) Provision(ctx context.Context, events []*ProvisionedEvent, activity []entity.ActivityEntry) error {
	return runTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, pe := range events {
			if err := insertEvent(ctx, tx, &pe.Event); err != nil {
				return err
			}

			for _, list := range pe.TableLists {
				if err := insertTableList(ctx, tx, &list); err != nil {
					return err
				}
			}
			if err := insertTableItems(ctx, tx, pe.TableItems); err != nil {
				return err
			}

			summary := pe.TableSummary
			summary.EventID = pe.Event.ID
			if err := insertTableSummary(ctx, tx, &summary); err != nil {
				return err
			}

			for _, gl := range pe.GuestLists {
				if err := insertGuestList(ctx, tx, &gl); err != nil {
					return err
				}
			}

			query := `INSERT INTO guest_list_summaries (event_id) VALUES ($1)`
			if _, err := tx.ExecContext(ctx, query, pe.Event.ID); err != nil {
				return fmt.Errorf("failed to create guest list summary: %w", err)
			}

			query = `INSERT INTO ticket_summaries (event_id) VALUES ($1)`
			if _, err := tx.ExecContext(ctx, query, pe.Event.ID); err != nil {
				return fmt.Errorf("failed to create ticket summary: %w", err)
			}
		}

		for i := range activity {
			if err := insertActivity(ctx, tx, &activity[i]); err != nil {
				return err
			}
		}

		return nil
	})
}

func insertEvent(ctx context.Context, tx *sql.Tx, event *entity.Event) error {
	layouts, err := marshalRefs(event.TableLayouts)
	if err != nil {
		return err
	}
	categories, err := marshalRefs(event.Categories)
	if err != nil {
		return err
	}
	cards, err := marshalRefs(event.ClubCards)
	if err != nil {
		return err
	}
	genres, err := marshalRefs(event.Genres)
	if err != nil {
		return err
	}

	var recurring []byte
	if event.Recurring != nil {
		if recurring, err = json.Marshal(event.Recurring); err != nil {
			return fmt.Errorf("failed to marshal recurrence rule: %w", err)
		}
	}

	query := `
		INSERT INTO events (
			id, company_id, name, start_time, end_time,
			table_layouts, categories, club_cards, genres, recurring,
			created_by, created_by_name, created_at, updated_by, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = tx.ExecContext(ctx, query,
		event.ID,
		event.CompanyID,
		event.Name,
		event.StartTime,
		event.EndTime,
		layouts,
		categories,
		cards,
		genres,
		nullBytes(recurring),
		event.CreatedBy,
		event.CreatedByName,
		event.CreatedAt,
		event.UpdatedBy,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// GetByID retrieves an event scoped to its owning company.
func (r *eventRepository) GetByID(ctx context.Context, companyID, eventID string) (*entity.Event, error) {
	query := `
		SELECT
			id, company_id, name, start_time, end_time,
			table_layouts, categories, club_cards, genres, recurring,
			created_by, created_by_name, created_at, updated_by, updated_at
		FROM events
		WHERE company_id = $1 AND id = $2
	`
	return scanEvent(r.db.QueryRowContext(ctx, query, companyID, eventID))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*entity.Event, error) {
	var event entity.Event
	var layouts, categories, cards, genres []byte
	var recurring []byte
	var updatedBy sql.NullString

	err := row.Scan(
		&event.ID,
		&event.CompanyID,
		&event.Name,
		&event.StartTime,
		&event.EndTime,
		&layouts,
		&categories,
		&cards,
		&genres,
		&recurring,
		&event.CreatedBy,
		&event.CreatedByName,
		&event.CreatedAt,
		&updatedBy,
		&event.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	event.UpdatedBy = updatedBy.String
	if event.TableLayouts, err = unmarshalRefs(layouts); err != nil {
		return nil, err
	}
	if event.Categories, err = unmarshalRefs(categories); err != nil {
		return nil, err
	}
	if event.ClubCards, err = unmarshalRefs(cards); err != nil {
		return nil, err
	}
	if event.Genres, err = unmarshalRefs(genres); err != nil {
		return nil, err
	}
	if len(recurring) > 0 {
		event.Recurring = &entity.RecurringRule{}
		if err := json.Unmarshal(recurring, event.Recurring); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recurrence rule: %w", err)
		}
	}

	return &event, nil
}

func (r *eventRepository) GetAllByCompany(ctx context.Context, companyID string) ([]*entity.Event, error) {
	query := `
		SELECT
			id, company_id, name, start_time, end_time,
			table_layouts, categories, club_cards, genres, recurring,
			created_by, created_by_name, created_at, updated_by, updated_at
		FROM events
		WHERE company_id = $1
		ORDER BY start_time ASC
	`

	rows, err := r.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*entity.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// Update persists changed event fields and, when the layout set changed,
// swaps table lists and applies the net aggregate delta in the same
// transaction. Deltas for removed layouts are computed from the stored items
// before any write, since the rows are gone afterwards.
func (r *eventRepository) Update(ctx context.Context, upd *EventUpdate) error {
	event := upd.Event

	return runTx(ctx, r.db, func(tx *sql.Tx) error {
		// Lock the event row so concurrent updates to the same event
		// serialize instead of interleaving their table-side writes.
		var exists string
		query := `SELECT id FROM events WHERE company_id = $1 AND id = $2 FOR UPDATE`
		err := tx.QueryRowContext(ctx, query, event.CompanyID, event.ID).Scan(&exists)
		if err == sql.ErrNoRows {
			return entity.ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock event: %w", err)
		}

		delta := upd.AddDelta
		if upd.LayoutsChanged {
			for _, layoutID := range upd.RemoveLayouts {
				items, err := getTableItemsTx(ctx, tx, event.ID, layoutID)
				if err != nil {
					return err
				}
				delta = delta.Add(entity.SummarizeTableItems(items).Negate())
			}
		}

		layouts, err := marshalRefs(event.TableLayouts)
		if err != nil {
			return err
		}
		categories, err := marshalRefs(event.Categories)
		if err != nil {
			return err
		}
		cards, err := marshalRefs(event.ClubCards)
		if err != nil {
			return err
		}
		genres, err := marshalRefs(event.Genres)
		if err != nil {
			return err
		}

		query = `
			UPDATE events
			SET name = $1, start_time = $2, end_time = $3,
			    table_layouts = $4, categories = $5, club_cards = $6, genres = $7,
			    updated_by = $8, updated_at = $9
			WHERE company_id = $10 AND id = $11
		`
		_, err = tx.ExecContext(ctx, query,
			event.Name,
			event.StartTime,
			event.EndTime,
			layouts,
			categories,
			cards,
			genres,
			event.UpdatedBy,
			event.UpdatedAt,
			event.CompanyID,
			event.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}

		if upd.LayoutsChanged {
			for _, layoutID := range upd.RemoveLayouts {
				if err := deleteTableList(ctx, tx, event.ID, layoutID); err != nil {
					return err
				}
			}
			for _, list := range upd.AddLists {
				if err := insertTableList(ctx, tx, &list); err != nil {
					return err
				}
			}
			if err := insertTableItems(ctx, tx, upd.AddItems); err != nil {
				return err
			}
			if err := applyTableSummaryDelta(ctx, tx, event.ID, delta); err != nil {
				return err
			}
		}

		if upd.Activity != nil {
			if err := insertActivity(ctx, tx, upd.Activity); err != nil {
				return err
			}
		}

		return nil
	})
}

// Delete removes an event and cascades over every sub-resource it owns.
func (r *eventRepository) Delete(ctx context.Context, companyID, eventID string, activity *entity.ActivityEntry) error {
	return runTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists string
		query := `SELECT id FROM events WHERE company_id = $1 AND id = $2 FOR UPDATE`
		err := tx.QueryRowContext(ctx, query, companyID, eventID).Scan(&exists)
		if err == sql.ErrNoRows {
			return entity.ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock event: %w", err)
		}

		cascade := []string{
			`DELETE FROM table_items WHERE event_id = $1`,
			`DELETE FROM table_lists WHERE event_id = $1`,
			`DELETE FROM table_summaries WHERE event_id = $1`,
			`DELETE FROM guests WHERE event_id = $1`,
			`DELETE FROM guest_lists WHERE event_id = $1`,
			`DELETE FROM guest_list_summaries WHERE event_id = $1`,
			`DELETE FROM guest_list_log WHERE event_id = $1`,
			`DELETE FROM tickets WHERE event_id = $1`,
			`DELETE FROM ticket_summaries WHERE event_id = $1`,
			`DELETE FROM events WHERE id = $1`,
		}
		for _, q := range cascade {
			if _, err := tx.ExecContext(ctx, q, eventID); err != nil {
				return fmt.Errorf("failed to cascade event delete: %w", err)
			}
		}

		if activity != nil {
			if err := insertActivity(ctx, tx, activity); err != nil {
				return err
			}
		}

		return nil
	})
}

// ListIDs returns event ids ordered by recency, for the reconciliation worker.
func (r *eventRepository) ListIDs(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id FROM events ORDER BY updated_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query event ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan event id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event ids: %w", err)
	}

	return ids, nil
}

func marshalRefs(refs []entity.Reference) ([]byte, error) {
	if refs == nil {
		refs = []entity.Reference{}
	}
	b, err := json.Marshal(refs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal references: %w", err)
	}
	return b, nil
}

func unmarshalRefs(b []byte) ([]entity.Reference, error) {
	if len(b) == 0 {
		return []entity.Reference{}, nil
	}
	var refs []entity.Reference
	if err := json.Unmarshal(b, &refs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal references: %w", err)
	}
	return refs, nil
}

func nullBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}

func insertActivity(ctx context.Context, tx *sql.Tx, entry *entity.ActivityEntry) error {
	detail, err := json.Marshal(entry.Detail)
	if err != nil {
		return fmt.Errorf("failed to marshal activity detail: %w", err)
	}

	at := entry.CreatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	query := `
		INSERT INTO activity_log (company_id, event_id, action, detail, actor_id, actor_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = tx.ExecContext(ctx, query,
		entry.CompanyID, entry.EventID, entry.Action, detail, entry.ActorID, entry.ActorName, at)
	if err != nil {
		return fmt.Errorf("failed to insert activity entry: %w", err)
	}
	return nil
}
