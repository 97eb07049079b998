package entity

import (
	"time"
)

// Activity actions recorded under an event's activity log and published to
// the notification exchange.
const (
	ActivityEventCreated   = "event_created"
	ActivityEventUpdated   = "event_updated"
	ActivityEventDeleted   = "event_deleted"
	ActivityGuestAdded     = "guest_added"
	ActivityGuestUpdated   = "guest_updated"
	ActivityGuestCheckedIn = "guest_checked_in"
	ActivityGuestDeleted   = "guest_deleted"
	ActivityTicketCreated  = "ticket_created"
	ActivityTicketUpdated  = "ticket_updated"
	ActivityTicketRemoved  = "ticket_removed"
)

// ActivityEntry is one row of the company/event activity log.
type ActivityEntry struct {
	ID        int64             `json:"id" db:"id"`
	CompanyID string            `json:"company_id" db:"company_id"`
	EventID   string            `json:"event_id" db:"event_id"`
	Action    string            `json:"action" db:"action"`
	Detail    map[string]string `json:"detail,omitempty" db:"detail"`
	ActorID   string            `json:"actor_id" db:"actor_id"`
	ActorName string            `json:"actor_name" db:"actor_name"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}
