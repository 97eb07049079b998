package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/venuedesk/backend/internal/entity"
)

type guestRepository struct {
	db *sql.DB
}

func NewGuestRepository(db *sql.DB) GuestRepository {
	return &guestRepository{db: db}
}

func (r *guestRepository) GetLists(ctx context.Context, eventID string) ([]entity.GuestList, error) {
	query := `SELECT event_id, id, name FROM guest_lists WHERE event_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query guest lists: %w", err)
	}
	defer rows.Close()

	var lists []entity.GuestList
	for rows.Next() {
		var list entity.GuestList
		if err := rows.Scan(&list.EventID, &list.ID, &list.Name); err != nil {
			return nil, fmt.Errorf("failed to scan guest list: %w", err)
		}
		lists = append(lists, list)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating guest lists: %w", err)
	}

	return lists, nil
}

const guestColumns = `
	event_id, list_id, guest_id, guest_name,
	normal_guests, free_guests, normal_checked_in, free_checked_in,
	comment, categories, logs, created_at, updated_at
`

func (r *guestRepository) ListGuests(ctx context.Context, eventID, listID string) ([]entity.Guest, error) {
	query := `SELECT ` + guestColumns + `
		FROM guests
		WHERE event_id = $1`
	args := []interface{}{eventID}
	if listID != "" {
		query += ` AND list_id = $2`
		args = append(args, listID)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query guests: %w", err)
	}
	defer rows.Close()

	var guests []entity.Guest
	for rows.Next() {
		guest, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		guests = append(guests, *guest)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating guests: %w", err)
	}

	return guests, nil
}

func scanGuest(row rowScanner) (*entity.Guest, error) {
	var guest entity.Guest
	var categories, logs []byte

	err := row.Scan(
		&guest.EventID,
		&guest.ListID,
		&guest.GuestID,
		&guest.GuestName,
		&guest.NormalGuests,
		&guest.FreeGuests,
		&guest.NormalCheckedIn,
		&guest.FreeCheckedIn,
		&guest.Comment,
		&categories,
		&logs,
		&guest.CreatedAt,
		&guest.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrGuestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan guest: %w", err)
	}

	if len(categories) > 0 {
		if err := json.Unmarshal(categories, &guest.Categories); err != nil {
			return nil, fmt.Errorf("failed to unmarshal guest categories: %w", err)
		}
	}
	if len(logs) > 0 {
		if err := json.Unmarshal(logs, &guest.Logs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal guest logs: %w", err)
		}
	}

	return &guest, nil
}

func (r *guestRepository) GetSummary(ctx context.Context, eventID string) (*entity.GuestListSummary, error) {
	query := `
		SELECT event_id, total_guests, total_checked_in,
		       normal_guests, free_guests, normal_checked_in, free_checked_in
		FROM guest_list_summaries
		WHERE event_id = $1
	`

	var s entity.GuestListSummary
	err := r.db.QueryRowContext(ctx, query, eventID).Scan(
		&s.EventID,
		&s.TotalGuests,
		&s.TotalCheckedIn,
		&s.NormalGuests,
		&s.FreeGuests,
		&s.NormalCheckedIn,
		&s.FreeCheckedIn,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guest list summary: %w", err)
	}

	return &s, nil
}

func (r *guestRepository) GetAuditLog(ctx context.Context, eventID string, limit int) ([]entity.AuditEntry, error) {
	if limit <= 0 {
		limit = 200
	}

	query := `
		SELECT event_id, guest_name, status, user_id, user_name, added_at
		FROM guest_list_log
		WHERE event_id = $1
		ORDER BY added_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query guest audit log: %w", err)
	}
	defer rows.Close()

	var entries []entity.AuditEntry
	for rows.Next() {
		var e entity.AuditEntry
		if err := rows.Scan(&e.EventID, &e.GuestName, &e.Status, &e.UserID, &e.UserName, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log: %w", err)
	}

	return entries, nil
}

// lockGuestList takes the guest-list row lock; every ledger mutation goes
// through it, so mutations on the same list serialize.
func lockGuestList(ctx context.Context, tx *sql.Tx, eventID, listID string) error {
	var id string
	query := `SELECT id FROM guest_lists WHERE event_id = $1 AND id = $2 FOR UPDATE`
	err := tx.QueryRowContext(ctx, query, eventID, listID).Scan(&id)
	if err == sql.ErrNoRows {
		return entity.ErrGuestListNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock guest list: %w", err)
	}
	return nil
}

// AddGuests appends prepared guest rows to a list, writes their audit entries
// and increments the shared summary, all in one transaction.
func (r *guestRepository) AddGuests(ctx context.Context, eventID, listID string, guests []entity.Guest, audit []entity.AuditEntry) error {
	if len(guests) == 0 {
		return nil
	}

	return runTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockGuestList(ctx, tx, eventID, listID); err != nil {
			return err
		}

		var delta entity.GuestDelta
		for i := range guests {
			if err := insertGuest(ctx, tx, &guests[i]); err != nil {
				return err
			}
			delta = delta.Add(guests[i].EntryDelta())
		}

		for i := range audit {
			if err := insertAuditEntry(ctx, tx, &audit[i]); err != nil {
				return err
			}
		}

		return applyGuestSummaryDelta(ctx, tx, eventID, delta)
	})
}

func insertGuest(ctx context.Context, tx *sql.Tx, guest *entity.Guest) error {
	categories, err := json.Marshal(guest.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal guest categories: %w", err)
	}
	logs, err := json.Marshal(guest.Logs)
	if err != nil {
		return fmt.Errorf("failed to marshal guest logs: %w", err)
	}

	query := `
		INSERT INTO guests (` + guestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = tx.ExecContext(ctx, query,
		guest.EventID,
		guest.ListID,
		guest.GuestID,
		guest.GuestName,
		guest.NormalGuests,
		guest.FreeGuests,
		guest.NormalCheckedIn,
		guest.FreeCheckedIn,
		guest.Comment,
		categories,
		logs,
		guest.CreatedAt,
		guest.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert guest: %w", err)
	}
	return nil
}

func getGuestForUpdate(ctx context.Context, tx *sql.Tx, eventID, listID, guestID string) (*entity.Guest, error) {
	query := `SELECT ` + guestColumns + `
		FROM guests
		WHERE event_id = $1 AND list_id = $2 AND guest_id = $3
		FOR UPDATE`
	return scanGuest(tx.QueryRowContext(ctx, query, eventID, listID, guestID))
}

func saveGuest(ctx context.Context, tx *sql.Tx, guest *entity.Guest) error {
	categories, err := json.Marshal(guest.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal guest categories: %w", err)
	}
	logs, err := json.Marshal(guest.Logs)
	if err != nil {
		return fmt.Errorf("failed to marshal guest logs: %w", err)
	}

	query := `
		UPDATE guests
		SET guest_name = $1, normal_guests = $2, free_guests = $3,
		    normal_checked_in = $4, free_checked_in = $5,
		    comment = $6, categories = $7, logs = $8, updated_at = $9
		WHERE event_id = $10 AND list_id = $11 AND guest_id = $12
	`
	_, err = tx.ExecContext(ctx, query,
		guest.GuestName,
		guest.NormalGuests,
		guest.FreeGuests,
		guest.NormalCheckedIn,
		guest.FreeCheckedIn,
		guest.Comment,
		categories,
		logs,
		guest.UpdatedAt,
		guest.EventID,
		guest.ListID,
		guest.GuestID,
	)
	if err != nil {
		return fmt.Errorf("failed to update guest: %w", err)
	}
	return nil
}

// UpdateGuest applies a field diff to one guest under a row lock. When no
// supplied field differs from stored state, nothing is written and the
// returned change list is empty.
func (r *guestRepository) UpdateGuest(ctx context.Context, eventID, listID, guestID string, upd entity.GuestUpdate, actor entity.Actor) (*entity.Guest, []string, error) {
	var guest *entity.Guest
	var changed []string

	err := runTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		guest, err = getGuestForUpdate(ctx, tx, eventID, listID, guestID)
		if err != nil {
			return err
		}

		var delta entity.GuestDelta
		changed, delta, err = guest.ApplyUpdate(upd)
		if err != nil {
			return err
		}
		if len(changed) == 0 {
			return nil
		}

		now := time.Now().UTC()
		guest.UpdatedAt = now
		guest.Logs = append(guest.Logs, entity.GuestLogEntry{
			Action:    entity.GuestStatusUpdated,
			Detail:    strings.Join(changed, ", "),
			ActorID:   actor.ID,
			ActorName: actor.Name,
			At:        now,
		})

		if err := saveGuest(ctx, tx, guest); err != nil {
			return err
		}
		if err := insertAuditEntry(ctx, tx, &entity.AuditEntry{
			EventID:   eventID,
			GuestName: guest.GuestName,
			Status:    entity.GuestStatusUpdated,
			UserID:    actor.ID,
			UserName:  actor.Name,
			AddedAt:   now,
		}); err != nil {
			return err
		}

		return applyGuestSummaryDelta(ctx, tx, eventID, delta)
	})
	if err != nil {
		return nil, nil, err
	}

	return guest, changed, nil
}

// CheckInGuest adjusts a guest's checked-in counters under a row lock so two
// concurrent check-ins on the same guest serialize instead of losing an
// update. A zero-effect call succeeds without writing.
func (r *guestRepository) CheckInGuest(ctx context.Context, eventID, listID, guestID string, mode entity.CheckInMode, normal, free int, actor entity.Actor) (*entity.Guest, entity.GuestDelta, error) {
	var guest *entity.Guest
	var delta entity.GuestDelta

	err := runTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		guest, err = getGuestForUpdate(ctx, tx, eventID, listID, guestID)
		if err != nil {
			return err
		}

		delta, err = guest.ApplyCheckIn(mode, normal, free)
		if err != nil {
			return err
		}
		if delta.IsZero() {
			return nil
		}

		now := time.Now().UTC()
		guest.UpdatedAt = now
		guest.Logs = append(guest.Logs, entity.GuestLogEntry{
			Action: entity.GuestStatusCheckedIn,
			Detail: fmt.Sprintf("checked in %d/%d normal, %d/%d free",
				guest.NormalCheckedIn, guest.NormalGuests, guest.FreeCheckedIn, guest.FreeGuests),
			ActorID:   actor.ID,
			ActorName: actor.Name,
			At:        now,
		})

		if err := saveGuest(ctx, tx, guest); err != nil {
			return err
		}
		if err := insertAuditEntry(ctx, tx, &entity.AuditEntry{
			EventID:   eventID,
			GuestName: guest.GuestName,
			Status:    entity.GuestStatusCheckedIn,
			UserID:    actor.ID,
			UserName:  actor.Name,
			AddedAt:   now,
		}); err != nil {
			return err
		}

		return applyGuestSummaryDelta(ctx, tx, eventID, delta)
	})
	if err != nil {
		return nil, entity.GuestDelta{}, err
	}

	return guest, delta, nil
}

// DeleteGuests removes the matching guests, subtracts their full counts
// (checked-in included) from the summary and writes one audit row each. When
// none of the requested ids match, the call fails with ErrGuestNotFound.
func (r *guestRepository) DeleteGuests(ctx context.Context, eventID, listID string, guestIDs []string, actor entity.Actor) (int, error) {
	if len(guestIDs) == 0 {
		return 0, entity.ErrGuestNotFound
	}

	removed := 0
	err := runTx(ctx, r.db, func(tx *sql.Tx) error {
		removed = 0
		if err := lockGuestList(ctx, tx, eventID, listID); err != nil {
			return err
		}

		query := `SELECT ` + guestColumns + `
			FROM guests
			WHERE event_id = $1 AND list_id = $2 AND guest_id = ANY($3)
			FOR UPDATE`
		rows, err := tx.QueryContext(ctx, query, eventID, listID, pq.Array(guestIDs))
		if err != nil {
			return fmt.Errorf("failed to query guests for delete: %w", err)
		}

		var guests []entity.Guest
		for rows.Next() {
			guest, err := scanGuest(rows)
			if err != nil {
				rows.Close()
				return err
			}
			guests = append(guests, *guest)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("error iterating guests for delete: %w", err)
		}
		rows.Close()

		if len(guests) == 0 {
			return entity.ErrGuestNotFound
		}

		now := time.Now().UTC()
		var delta entity.GuestDelta
		for i := range guests {
			guest := &guests[i]
			delta = delta.Add(guest.EntryDelta().Negate())
			if err := insertAuditEntry(ctx, tx, &entity.AuditEntry{
				EventID:   eventID,
				GuestName: guest.GuestName,
				Status:    entity.GuestStatusDeleted,
				UserID:    actor.ID,
				UserName:  actor.Name,
				AddedAt:   now,
			}); err != nil {
				return err
			}
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM guests WHERE event_id = $1 AND list_id = $2 AND guest_id = ANY($3)`,
			eventID, listID, pq.Array(guestIDs))
		if err != nil {
			return fmt.Errorf("failed to delete guests: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		removed = int(affected)

		return applyGuestSummaryDelta(ctx, tx, eventID, delta)
	})
	if err != nil {
		return 0, err
	}

	return removed, nil
}

// RecomputeSummary re-sums the aggregate from guest rows across every list of
// the event and repairs the stored summary when it drifted.
func (r *guestRepository) RecomputeSummary(ctx context.Context, eventID string) (*entity.GuestListSummary, bool, error) {
	var fresh entity.GuestListSummary
	repaired := false

	err := runTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			SELECT COALESCE(SUM(normal_guests + free_guests), 0),
			       COALESCE(SUM(normal_checked_in + free_checked_in), 0),
			       COALESCE(SUM(normal_guests), 0),
			       COALESCE(SUM(free_guests), 0),
			       COALESCE(SUM(normal_checked_in), 0),
			       COALESCE(SUM(free_checked_in), 0)
			FROM guests
			WHERE event_id = $1
		`
		err := tx.QueryRowContext(ctx, query, eventID).Scan(
			&fresh.TotalGuests,
			&fresh.TotalCheckedIn,
			&fresh.NormalGuests,
			&fresh.FreeGuests,
			&fresh.NormalCheckedIn,
			&fresh.FreeCheckedIn,
		)
		if err != nil {
			return fmt.Errorf("failed to re-sum guests: %w", err)
		}
		fresh.EventID = eventID

		var stored entity.GuestListSummary
		query = `
			SELECT total_guests, total_checked_in,
			       normal_guests, free_guests, normal_checked_in, free_checked_in
			FROM guest_list_summaries WHERE event_id = $1 FOR UPDATE
		`
		err = tx.QueryRowContext(ctx, query, eventID).Scan(
			&stored.TotalGuests,
			&stored.TotalCheckedIn,
			&stored.NormalGuests,
			&stored.FreeGuests,
			&stored.NormalCheckedIn,
			&stored.FreeCheckedIn,
		)
		if err == sql.ErrNoRows {
			return entity.ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read guest list summary: %w", err)
		}

		stored.EventID = eventID
		if stored == fresh {
			return nil
		}

		repaired = true
		query = `
			UPDATE guest_list_summaries
			SET total_guests = $1, total_checked_in = $2,
			    normal_guests = $3, free_guests = $4,
			    normal_checked_in = $5, free_checked_in = $6
			WHERE event_id = $7
		`
		_, err = tx.ExecContext(ctx, query,
			fresh.TotalGuests, fresh.TotalCheckedIn,
			fresh.NormalGuests, fresh.FreeGuests,
			fresh.NormalCheckedIn, fresh.FreeCheckedIn, eventID)
		if err != nil {
			return fmt.Errorf("failed to repair guest list summary: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return &fresh, repaired, nil
}

func insertGuestList(ctx context.Context, tx *sql.Tx, list *entity.GuestList) error {
	query := `INSERT INTO guest_lists (event_id, id, name) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, query, list.EventID, list.ID, list.Name); err != nil {
		return fmt.Errorf("failed to insert guest list: %w", err)
	}
	return nil
}

func insertAuditEntry(ctx context.Context, tx *sql.Tx, e *entity.AuditEntry) error {
	query := `
		INSERT INTO guest_list_log (event_id, guest_name, status, user_id, user_name, added_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query,
		e.EventID, e.GuestName, e.Status, e.UserID, e.UserName, e.AddedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// applyGuestSummaryDelta folds a ledger delta into the shared per-event
// summary with SQL increments.
func applyGuestSummaryDelta(ctx context.Context, tx *sql.Tx, eventID string, d entity.GuestDelta) error {
	if d.IsZero() {
		return nil
	}

	query := `
		UPDATE guest_list_summaries
		SET total_guests = total_guests + $1,
		    total_checked_in = total_checked_in + $2,
		    normal_guests = normal_guests + $3,
		    free_guests = free_guests + $4,
		    normal_checked_in = normal_checked_in + $5,
		    free_checked_in = free_checked_in + $6
		WHERE event_id = $7
	`
	result, err := tx.ExecContext(ctx, query,
		d.Guests, d.CheckedIn, d.NormalGuests, d.FreeGuests,
		d.NormalCheckedIn, d.FreeCheckedIn, eventID)
	if err != nil {
		return fmt.Errorf("failed to apply guest summary delta: %w", err)
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
