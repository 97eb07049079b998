package entity

import (
	"time"
)

// Reference is a resolved cross-entity link (layout, category, club card,
// genre): the external id plus its display name captured at write time.
type Reference struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// ReferenceKind names the category a Reference belongs to.
type ReferenceKind string

const (
	ReferenceLayout   ReferenceKind = "layout"
	ReferenceCategory ReferenceKind = "category"
	ReferenceClubCard ReferenceKind = "club_card"
	ReferenceGenre    ReferenceKind = "genre"
)

// RecurringRule describes how one event request expands into many instances.
// DaysOfWeek uses 0=Sunday .. 6=Saturday.
type RecurringRule struct {
	IsRecurring        bool      `json:"is_recurring"`
	RecurringStartDate time.Time `json:"recurring_start_date"`
	RecurringEndDate   time.Time `json:"recurring_end_date"`
	DaysOfWeek         []int     `json:"days_of_week"`
}

// Occurrence is one concrete (start, end) pair produced by recurrence expansion.
type Occurrence struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type Event struct {
	ID            string         `json:"id" db:"id"`
	CompanyID     string         `json:"company_id" db:"company_id"`
	Name          string         `json:"name" db:"name"`
	StartTime     time.Time      `json:"start_time" db:"start_time"`
	EndTime       time.Time      `json:"end_time" db:"end_time"`
	TableLayouts  []Reference    `json:"table_layouts" db:"table_layouts"`
	Categories    []Reference    `json:"categories" db:"categories"`
	ClubCards     []Reference    `json:"club_cards" db:"club_cards"`
	Genres        []Reference    `json:"genres" db:"genres"`
	Recurring     *RecurringRule `json:"recurring,omitempty" db:"recurring"`
	CreatedBy     string         `json:"created_by" db:"created_by"`
	CreatedByName string         `json:"created_by_name" db:"created_by_name"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedBy     string         `json:"updated_by,omitempty" db:"updated_by"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// ReferenceIDs returns the ids of the given reference slice, preserving order.
func ReferenceIDs(refs []Reference) []string {
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	return ids
}

// Company is the owning scope of every event and reference table.
type Company struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Actor identifies the authenticated caller performing a mutation.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
