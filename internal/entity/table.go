package entity

import (
	"time"
)

// Table item types. Only ItemTypeTable participates in aggregate counts;
// decorative items (walls, bars, plants) are layout dressing.
const (
	ItemTypeTable      = "table"
	ItemTypeDecoration = "decoration"
)

// TableList is one floor plan attached to an event. Its id equals the source
// layout id, so the set of list ids is the set of attached layouts.
type TableList struct {
	EventID string `json:"event_id" db:"event_id"`
	ID      string `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
}

// TableItem is one table or decorative object on a floor plan, carrying its
// geometry plus per-table occupancy counters and an append-only log.
type TableItem struct {
	EventID    string          `json:"event_id" db:"event_id"`
	ListID     string          `json:"list_id" db:"list_id"`
	ItemID     string          `json:"item_id" db:"item_id"`
	ItemType   string          `json:"item_type" db:"item_type"`
	Shape      string          `json:"shape" db:"shape"`
	Label      string          `json:"label,omitempty" db:"label"`
	BookedBy   string          `json:"booked_by,omitempty" db:"booked_by"`
	PosX       float64         `json:"pos_x" db:"pos_x"`
	PosY       float64         `json:"pos_y" db:"pos_y"`
	Width      float64         `json:"width" db:"width"`
	Height     float64         `json:"height" db:"height"`
	Rotation   float64         `json:"rotation" db:"rotation"`
	Guests     int             `json:"guests" db:"guests"`
	CheckedIn  int             `json:"checked_in" db:"checked_in"`
	TableLimit int             `json:"table_limit" db:"table_limit"`
	Spend      float64         `json:"spend" db:"spend"`
	Logs       []GuestLogEntry `json:"logs" db:"logs"`
	Ord        int             `json:"ord" db:"ord"`
}

// IsBooked reports whether the table has been claimed: either named or
// attributed to a booker.
func (t *TableItem) IsBooked() bool {
	return t.Label != "" || t.BookedBy != ""
}

// TableAggregate is the per-event sum over table-type items across every
// attached floor plan. It doubles as the delta representation: diffs are
// aggregates with possibly negative fields.
type TableAggregate struct {
	EventID         string  `json:"event_id" db:"event_id"`
	TotalTables     int     `json:"total_tables" db:"total_tables"`
	TotalGuests     int     `json:"total_guests" db:"total_guests"`
	TotalCheckedIn  int     `json:"total_checked_in" db:"total_checked_in"`
	TotalBooked     int     `json:"total_booked" db:"total_booked"`
	TotalTableLimit int     `json:"total_table_limit" db:"total_table_limit"`
	TotalSpend      float64 `json:"total_spend" db:"total_spend"`
}

func (a TableAggregate) IsZero() bool {
	return a.TotalTables == 0 && a.TotalGuests == 0 && a.TotalCheckedIn == 0 &&
		a.TotalBooked == 0 && a.TotalTableLimit == 0 && a.TotalSpend == 0
}

func (a TableAggregate) Add(o TableAggregate) TableAggregate {
	a.TotalTables += o.TotalTables
	a.TotalGuests += o.TotalGuests
	a.TotalCheckedIn += o.TotalCheckedIn
	a.TotalBooked += o.TotalBooked
	a.TotalTableLimit += o.TotalTableLimit
	a.TotalSpend += o.TotalSpend
	return a
}

func (a TableAggregate) Negate() TableAggregate {
	return TableAggregate{
		TotalTables:     -a.TotalTables,
		TotalGuests:     -a.TotalGuests,
		TotalCheckedIn:  -a.TotalCheckedIn,
		TotalBooked:     -a.TotalBooked,
		TotalTableLimit: -a.TotalTableLimit,
		TotalSpend:      -a.TotalSpend,
	}
}

// SummarizeTableItems computes the aggregate contribution of a set of items.
// Decorative items are excluded from every count.
func SummarizeTableItems(items []TableItem) TableAggregate {
	var a TableAggregate
	for i := range items {
		item := &items[i]
		if item.ItemType != ItemTypeTable {
			continue
		}
		a.TotalTables++
		a.TotalGuests += item.Guests
		a.TotalCheckedIn += item.CheckedIn
		a.TotalTableLimit += item.TableLimit
		a.TotalSpend += item.Spend
		if item.IsBooked() {
			a.TotalBooked++
		}
	}
	return a
}

// Layout is a reusable floor-plan template owned by a company. Its items are
// copied into a per-event table list at provisioning time.
type Layout struct {
	ID        string      `json:"id" db:"id"`
	CompanyID string      `json:"company_id" db:"company_id"`
	Name      string      `json:"name" db:"name"`
	Items     []TableItem `json:"items" db:"items"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}
