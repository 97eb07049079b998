package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/venuedesk/backend/internal/entity"
)

type referenceRepository struct {
	db *sql.DB
}

func NewReferenceRepository(db *sql.DB) ReferenceRepository {
	return &referenceRepository{db: db}
}

// kindTable maps a reference kind to its lookup table and the event column
// holding resolved references of that kind.
func kindTable(kind entity.ReferenceKind) (table, eventColumn string, err error) {
	switch kind {
	case entity.ReferenceLayout:
		return "layouts", "table_layouts", nil
	case entity.ReferenceCategory:
		return "categories", "categories", nil
	case entity.ReferenceClubCard:
		return "club_cards", "club_cards", nil
	case entity.ReferenceGenre:
		return "genres", "genres", nil
	default:
		return "", "", fmt.Errorf("unknown reference kind %q", kind)
	}
}

func (r *referenceRepository) GetCompany(ctx context.Context, companyID string) (*entity.Company, error) {
	query := `SELECT id, name, created_at FROM companies WHERE id = $1`

	var c entity.Company
	err := r.db.QueryRowContext(ctx, query, companyID).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, entity.ErrCompanyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	return &c, nil
}

// GetNames resolves ids of one kind to {id, name} pairs, preserving input
// order. Any id that does not exist in the company's scope fails the whole
// call with a ReferenceNotFoundError naming it.
func (r *referenceRepository) GetNames(ctx context.Context, companyID string, kind entity.ReferenceKind, ids []string) ([]entity.Reference, error) {
	if len(ids) == 0 {
		return []entity.Reference{}, nil
	}

	table, _, err := kindTable(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT id, name FROM %s WHERE company_id = $1 AND id = ANY($2)`, table)
	rows, err := r.db.QueryContext(ctx, query, companyID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s names: %w", table, err)
	}
	defer rows.Close()

	found := make(map[string]string, len(ids))
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan %s name: %w", table, err)
		}
		found[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s names: %w", table, err)
	}

	refs := make([]entity.Reference, 0, len(ids))
	for _, id := range ids {
		name, ok := found[id]
		if !ok {
			return nil, &entity.ReferenceNotFoundError{Kind: kind, ID: id}
		}
		refs = append(refs, entity.Reference{ID: id, Name: name})
	}

	return refs, nil
}

func (r *referenceRepository) GetLayout(ctx context.Context, companyID, layoutID string) (*entity.Layout, error) {
	query := `SELECT id, company_id, name, items, created_at FROM layouts WHERE company_id = $1 AND id = $2`

	var layout entity.Layout
	var items []byte
	err := r.db.QueryRowContext(ctx, query, companyID, layoutID).Scan(
		&layout.ID, &layout.CompanyID, &layout.Name, &items, &layout.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, entity.ErrLayoutNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get layout: %w", err)
	}

	if len(items) > 0 {
		if err := json.Unmarshal(items, &layout.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal layout items: %w", err)
		}
	}

	return &layout, nil
}

func (r *referenceRepository) CreateLayout(ctx context.Context, layout *entity.Layout) error {
	items, err := json.Marshal(layout.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal layout items: %w", err)
	}

	query := `INSERT INTO layouts (id, company_id, name, items, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query,
		layout.ID, layout.CompanyID, layout.Name, items, layout.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert layout: %w", err)
	}
	return nil
}

// DeleteLayout refuses to remove a layout still attached to an event as a
// table list.
func (r *referenceRepository) DeleteLayout(ctx context.Context, companyID, layoutID string) error {
	return runTx(ctx, r.db, func(tx *sql.Tx) error {
		var inUse bool
		query := `SELECT EXISTS (SELECT 1 FROM table_lists WHERE id = $1)`
		if err := tx.QueryRowContext(ctx, query, layoutID).Scan(&inUse); err != nil {
			return fmt.Errorf("failed to check layout usage: %w", err)
		}
		if inUse {
			return entity.ErrInUse
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM layouts WHERE company_id = $1 AND id = $2`, companyID, layoutID)
		if err != nil {
			return fmt.Errorf("failed to delete layout: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return entity.ErrLayoutNotFound
		}
		return nil
	})
}

func (r *referenceRepository) CreateValue(ctx context.Context, kind entity.ReferenceKind, ref *entity.Reference, companyID string) error {
	table, _, err := kindTable(kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, company_id, name) VALUES ($1, $2, $3)`, table)
	if _, err := r.db.ExecContext(ctx, query, ref.ID, companyID, ref.Name); err != nil {
		return fmt.Errorf("failed to insert %s: %w", table, err)
	}
	return nil
}

// DeleteValue refuses to remove a category, club card or genre that any event
// of the company still references.
func (r *referenceRepository) DeleteValue(ctx context.Context, kind entity.ReferenceKind, companyID, id string) error {
	table, eventColumn, err := kindTable(kind)
	if err != nil {
		return err
	}

	return runTx(ctx, r.db, func(tx *sql.Tx) error {
		needle, err := json.Marshal([]map[string]string{{"id": id}})
		if err != nil {
			return fmt.Errorf("failed to marshal reference needle: %w", err)
		}

		var inUse bool
		query := fmt.Sprintf(
			`SELECT EXISTS (SELECT 1 FROM events WHERE company_id = $1 AND %s @> $2::jsonb)`,
			eventColumn)
		if err := tx.QueryRowContext(ctx, query, companyID, needle).Scan(&inUse); err != nil {
			return fmt.Errorf("failed to check %s usage: %w", table, err)
		}
		if inUse {
			return entity.ErrInUse
		}

		result, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE company_id = $1 AND id = $2`, table), companyID, id)
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", table, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return &entity.ReferenceNotFoundError{Kind: kind, ID: id}
		}
		return nil
	})
}

func (r *referenceRepository) ListActivity(ctx context.Context, eventID string, limit int) ([]entity.ActivityEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, company_id, event_id, action, detail, actor_id, actor_name, created_at
		FROM activity_log
		WHERE event_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity log: %w", err)
	}
	defer rows.Close()

	var entries []entity.ActivityEntry
	for rows.Next() {
		var e entity.ActivityEntry
		var detail []byte
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.EventID, &e.Action, &detail, &e.ActorID, &e.ActorName, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &e.Detail); err != nil {
				return nil, fmt.Errorf("failed to unmarshal activity detail: %w", err)
			}
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity log: %w", err)
	}

	return entries, nil
}
