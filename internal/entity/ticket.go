package entity

import (
	"time"
)

type TicketType struct {
	ID           string    `json:"id" db:"id"`
	EventID      string    `json:"event_id" db:"event_id"`
	Name         string    `json:"name" db:"name"`
	Price        float64   `json:"price" db:"price"`
	TotalTickets int       `json:"total_tickets" db:"total_tickets"`
	TicketsLeft  int       `json:"tickets_left" db:"tickets_left"`
	SaleStart    time.Time `json:"sale_start" db:"sale_start"`
	SaleEnd      time.Time `json:"sale_end" db:"sale_end"`
	IsFree       bool      `json:"is_free" db:"is_free"`
	BuyerPaysFee bool      `json:"buyer_pays_fee" db:"buyer_pays_fee"`
	Category     string    `json:"category,omitempty" db:"category"`
	MaxPerUser   int       `json:"max_per_user,omitempty" db:"max_per_user"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Sold derives the number of sold tickets from the inventory invariant
// tickets_left = total - sold.
func (t *TicketType) Sold() int {
	return t.TotalTickets - t.TicketsLeft
}

// Revenue is this type's contribution to the event's ticket revenue.
func (t *TicketType) Revenue() float64 {
	return t.Price * float64(t.Sold())
}

// TicketUpdate carries the fields an update may change; nil leaves a field as is.
type TicketUpdate struct {
	Name         *string    `json:"name,omitempty"`
	Price        *float64   `json:"price,omitempty"`
	TotalTickets *int       `json:"total_tickets,omitempty"`
	SaleStart    *time.Time `json:"sale_start,omitempty"`
	SaleEnd      *time.Time `json:"sale_end,omitempty"`
	IsFree       *bool      `json:"is_free,omitempty"`
	BuyerPaysFee *bool      `json:"buyer_pays_fee,omitempty"`
	Category     *string    `json:"category,omitempty"`
	MaxPerUser   *int       `json:"max_per_user,omitempty"`
}

// TicketDelta is one mutation's contribution to the shared ticket summary.
type TicketDelta struct {
	TotalTickets int
	TicketsSold  int
	TicketsLeft  int
	Revenue      float64
}

func (d TicketDelta) IsZero() bool {
	return d == TicketDelta{}
}

// EntryDelta is the type's full contribution to the summary, used on create
// and remove.
func (t *TicketType) EntryDelta() TicketDelta {
	return TicketDelta{
		TotalTickets: t.TotalTickets,
		TicketsSold:  t.Sold(),
		TicketsLeft:  t.TicketsLeft,
		Revenue:      t.Revenue(),
	}
}

// ApplyUpdate applies the supplied fields and returns the changed field names
// plus the summary delta. A total_tickets change preserves sold and recomputes
// tickets_left; a total below the sold count is rejected. No changed fields
// means the caller must surface ErrNoChanges.
func (t *TicketType) ApplyUpdate(upd TicketUpdate) ([]string, TicketDelta, error) {
	var changed []string
	var delta TicketDelta

	if upd.TotalTickets != nil && *upd.TotalTickets != t.TotalTickets {
		sold := t.Sold()
		if *upd.TotalTickets < sold {
			return nil, TicketDelta{}, NewValidationError("total_tickets",
				"total tickets cannot be reduced below the number already sold")
		}
		newLeft := *upd.TotalTickets - sold
		delta.TotalTickets = *upd.TotalTickets - t.TotalTickets
		delta.TicketsLeft = newLeft - t.TicketsLeft
		t.TotalTickets = *upd.TotalTickets
		t.TicketsLeft = newLeft
		changed = append(changed, "total_tickets")
	}
	if upd.Price != nil && *upd.Price != t.Price {
		if *upd.Price < 0 {
			return nil, TicketDelta{}, NewValidationError("price", "price cannot be negative")
		}
		delta.Revenue += (*upd.Price - t.Price) * float64(t.Sold())
		t.Price = *upd.Price
		changed = append(changed, "price")
	}
	if upd.Name != nil && *upd.Name != t.Name {
		t.Name = *upd.Name
		changed = append(changed, "name")
	}
	if upd.SaleStart != nil && !upd.SaleStart.Equal(t.SaleStart) {
		t.SaleStart = *upd.SaleStart
		changed = append(changed, "sale_start")
	}
	if upd.SaleEnd != nil && !upd.SaleEnd.Equal(t.SaleEnd) {
		t.SaleEnd = *upd.SaleEnd
		changed = append(changed, "sale_end")
	}
	if upd.IsFree != nil && *upd.IsFree != t.IsFree {
		t.IsFree = *upd.IsFree
		changed = append(changed, "is_free")
	}
	if upd.BuyerPaysFee != nil && *upd.BuyerPaysFee != t.BuyerPaysFee {
		t.BuyerPaysFee = *upd.BuyerPaysFee
		changed = append(changed, "buyer_pays_fee")
	}
	if upd.Category != nil && *upd.Category != t.Category {
		t.Category = *upd.Category
		changed = append(changed, "category")
	}
	if upd.MaxPerUser != nil && *upd.MaxPerUser != t.MaxPerUser {
		if *upd.MaxPerUser < 0 {
			return nil, TicketDelta{}, NewValidationError("max_per_user", "per-user cap cannot be negative")
		}
		t.MaxPerUser = *upd.MaxPerUser
		changed = append(changed, "max_per_user")
	}

	return changed, delta, nil
}

// TicketSummary is the per-event aggregate over every ticket type.
type TicketSummary struct {
	EventID      string  `json:"event_id" db:"event_id"`
	TotalTickets int     `json:"total_tickets" db:"total_tickets"`
	TicketsSold  int     `json:"tickets_sold" db:"tickets_sold"`
	TicketsLeft  int     `json:"tickets_left" db:"tickets_left"`
	Revenue      float64 `json:"revenue" db:"revenue"`
}

func (s *TicketSummary) Apply(d TicketDelta) {
	s.TotalTickets += d.TotalTickets
	s.TicketsSold += d.TicketsSold
	s.TicketsLeft += d.TicketsLeft
	s.Revenue += d.Revenue
}

// SummarizeTickets recomputes the aggregate from ticket-type rows.
func SummarizeTickets(eventID string, types []TicketType) TicketSummary {
	s := TicketSummary{EventID: eventID}
	for i := range types {
		s.Apply(types[i].EntryDelta())
	}
	return s
}
