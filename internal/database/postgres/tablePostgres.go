package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/venuedesk/backend/internal/entity"
)

type tableRepository struct {
	db *sql.DB
}

func NewTableRepository(db *sql.DB) TableRepository {
	return &tableRepository{db: db}
}

func (r *tableRepository) GetLists(ctx context.Context, eventID string) ([]entity.TableList, error) {
	query := `SELECT event_id, id, name FROM table_lists WHERE event_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query table lists: %w", err)
	}
	defer rows.Close()

	var lists []entity.TableList
	for rows.Next() {
		var list entity.TableList
		if err := rows.Scan(&list.EventID, &list.ID, &list.Name); err != nil {
			return nil, fmt.Errorf("failed to scan table list: %w", err)
		}
		lists = append(lists, list)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table lists: %w", err)
	}

	return lists, nil
}

func (r *tableRepository) GetItems(ctx context.Context, eventID, listID string) ([]entity.TableItem, error) {
	return queryTableItems(ctx, r.db, eventID, listID)
}

func (r *tableRepository) GetSummary(ctx context.Context, eventID string) (*entity.TableAggregate, error) {
	query := `
		SELECT event_id, total_tables, total_guests, total_checked_in,
		       total_booked, total_table_limit, total_spend
		FROM table_summaries
		WHERE event_id = $1
	`

	var s entity.TableAggregate
	err := r.db.QueryRowContext(ctx, query, eventID).Scan(
		&s.EventID,
		&s.TotalTables,
		&s.TotalGuests,
		&s.TotalCheckedIn,
		&s.TotalBooked,
		&s.TotalTableLimit,
		&s.TotalSpend,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get table summary: %w", err)
	}

	return &s, nil
}

// RecomputeSummary re-sums the aggregate from table items and overwrites the
// stored summary when it drifted. Returns the authoritative aggregate and
// whether a repair happened.
func (r *tableRepository) RecomputeSummary(ctx context.Context, eventID string) (*entity.TableAggregate, bool, error) {
	var fresh entity.TableAggregate
	repaired := false

	err := runTx(ctx, r.db, func(tx *sql.Tx) error {
		items, err := getTableItemsTx(ctx, tx, eventID, "")
		if err != nil {
			return err
		}
		fresh = entity.SummarizeTableItems(items)
		fresh.EventID = eventID

		var stored entity.TableAggregate
		query := `
			SELECT total_tables, total_guests, total_checked_in,
			       total_booked, total_table_limit, total_spend
			FROM table_summaries WHERE event_id = $1 FOR UPDATE
		`
		err = tx.QueryRowContext(ctx, query, eventID).Scan(
			&stored.TotalTables,
			&stored.TotalGuests,
			&stored.TotalCheckedIn,
			&stored.TotalBooked,
			&stored.TotalTableLimit,
			&stored.TotalSpend,
		)
		if err == sql.ErrNoRows {
			return entity.ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read table summary: %w", err)
		}

		stored.EventID = eventID
		if stored == fresh {
			return nil
		}

		repaired = true
		query = `
			UPDATE table_summaries
			SET total_tables = $1, total_guests = $2, total_checked_in = $3,
			    total_booked = $4, total_table_limit = $5, total_spend = $6
			WHERE event_id = $7
		`
		_, err = tx.ExecContext(ctx, query,
			fresh.TotalTables, fresh.TotalGuests, fresh.TotalCheckedIn,
			fresh.TotalBooked, fresh.TotalTableLimit, fresh.TotalSpend, eventID)
		if err != nil {
			return fmt.Errorf("failed to repair table summary: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return &fresh, repaired, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// queryTableItems returns the items of one list, or of every list when listID
// is empty.
func queryTableItems(ctx context.Context, q queryer, eventID, listID string) ([]entity.TableItem, error) {
	query := `
		SELECT event_id, list_id, item_id, item_type, shape, label, booked_by,
		       pos_x, pos_y, width, height, rotation,
		       guests, checked_in, table_limit, spend, logs, ord
		FROM table_items
		WHERE event_id = $1
	`
	args := []interface{}{eventID}
	if listID != "" {
		query += ` AND list_id = $2`
		args = append(args, listID)
	}
	query += ` ORDER BY list_id, ord`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query table items: %w", err)
	}
	defer rows.Close()

	var items []entity.TableItem
	for rows.Next() {
		var item entity.TableItem
		var logs []byte
		err := rows.Scan(
			&item.EventID,
			&item.ListID,
			&item.ItemID,
			&item.ItemType,
			&item.Shape,
			&item.Label,
			&item.BookedBy,
			&item.PosX,
			&item.PosY,
			&item.Width,
			&item.Height,
			&item.Rotation,
			&item.Guests,
			&item.CheckedIn,
			&item.TableLimit,
			&item.Spend,
			&logs,
			&item.Ord,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table item: %w", err)
		}
		if len(logs) > 0 {
			if err := json.Unmarshal(logs, &item.Logs); err != nil {
				return nil, fmt.Errorf("failed to unmarshal item logs: %w", err)
			}
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table items: %w", err)
	}

	return items, nil
}

func getTableItemsTx(ctx context.Context, tx *sql.Tx, eventID, listID string) ([]entity.TableItem, error) {
	return queryTableItems(ctx, tx, eventID, listID)
}

func insertTableList(ctx context.Context, tx *sql.Tx, list *entity.TableList) error {
	query := `INSERT INTO table_lists (event_id, id, name) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, query, list.EventID, list.ID, list.Name); err != nil {
		return fmt.Errorf("failed to insert table list: %w", err)
	}
	return nil
}

func deleteTableList(ctx context.Context, tx *sql.Tx, eventID, listID string) error {
	query := `DELETE FROM table_items WHERE event_id = $1 AND list_id = $2`
	if _, err := tx.ExecContext(ctx, query, eventID, listID); err != nil {
		return fmt.Errorf("failed to delete table items: %w", err)
	}
	query = `DELETE FROM table_lists WHERE event_id = $1 AND id = $2`
	if _, err := tx.ExecContext(ctx, query, eventID, listID); err != nil {
		return fmt.Errorf("failed to delete table list: %w", err)
	}
	return nil
}

func insertTableItems(ctx context.Context, tx *sql.Tx, items []entity.TableItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO table_items (
			event_id, list_id, item_id, item_type, shape, label, booked_by,
			pos_x, pos_y, width, height, rotation,
			guests, checked_in, table_limit, spend, logs, ord
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	for i := range items {
		item := &items[i]
		logs, err := json.Marshal(item.Logs)
		if err != nil {
			return fmt.Errorf("failed to marshal item logs: %w", err)
		}
		_, err = tx.ExecContext(ctx, query,
			item.EventID,
			item.ListID,
			item.ItemID,
			item.ItemType,
			item.Shape,
			item.Label,
			item.BookedBy,
			item.PosX,
			item.PosY,
			item.Width,
			item.Height,
			item.Rotation,
			item.Guests,
			item.CheckedIn,
			item.TableLimit,
			item.Spend,
			logs,
			item.Ord,
		)
		if err != nil {
			return fmt.Errorf("failed to insert table item: %w", err)
		}
	}

	return nil
}

func insertTableSummary(ctx context.Context, tx *sql.Tx, s *entity.TableAggregate) error {
	query := `
		INSERT INTO table_summaries (
			event_id, total_tables, total_guests, total_checked_in,
			total_booked, total_table_limit, total_spend
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		s.EventID, s.TotalTables, s.TotalGuests, s.TotalCheckedIn,
		s.TotalBooked, s.TotalTableLimit, s.TotalSpend)
	if err != nil {
		return fmt.Errorf("failed to insert table summary: %w", err)
	}
	return nil
}

// applyTableSummaryDelta folds a net aggregate delta into the stored summary
// with SQL increments; nothing is written for a zero delta.
func applyTableSummaryDelta(ctx context.Context, tx *sql.Tx, eventID string, d entity.TableAggregate) error {
	if d.IsZero() {
		return nil
	}

	query := `
		UPDATE table_summaries
		SET total_tables = total_tables + $1,
		    total_guests = total_guests + $2,
		    total_checked_in = total_checked_in + $3,
		    total_booked = total_booked + $4,
		    total_table_limit = total_table_limit + $5,
		    total_spend = total_spend + $6
		WHERE event_id = $7
	`
	result, err := tx.ExecContext(ctx, query,
		d.TotalTables, d.TotalGuests, d.TotalCheckedIn,
		d.TotalBooked, d.TotalTableLimit, d.TotalSpend, eventID)
	if err != nil {
		return fmt.Errorf("failed to apply table summary delta: %w", err)
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
