package service

import (
	"context"

	"github.com/venuedesk/backend/internal/entity"
)

// CreateEventRequest carries everything one createEvent call may provision.
type CreateEventRequest struct {
	EventName            string            `json:"event_name" binding:"required,min=1,max=255"`
	StartDateTime        entity.EventTime  `json:"start_date_time" binding:"required"`
	EndDateTime          entity.EventTime  `json:"end_date_time" binding:"required"`
	TableLayouts         []string          `json:"table_layouts"`
	Categories           []string          `json:"categories"`
	ClubCardIDs          []string          `json:"club_card_ids"`
	EventGenre           []string          `json:"event_genre"`
	AdditionalGuestLists []string          `json:"additional_guest_lists"`
	Recurring            *RecurringRequest `json:"recurring,omitempty"`
}

type RecurringRequest struct {
	IsRecurring        bool             `json:"is_recurring"`
	RecurringStartDate entity.EventTime `json:"recurring_start_date"`
	RecurringEndDate   entity.EventTime `json:"recurring_end_date"`
	DaysOfWeek         []int            `json:"days_of_week"`
}

// UpdateEventRequest changes only the supplied fields. A nil reference list
// leaves the existing references untouched; an empty non-nil list clears them.
type UpdateEventRequest struct {
	EventName     *string           `json:"event_name,omitempty"`
	StartDateTime *entity.EventTime `json:"start_date_time,omitempty"`
	EndDateTime   *entity.EventTime `json:"end_date_time,omitempty"`
	TableLayouts  *[]string         `json:"table_layouts,omitempty"`
	Categories    *[]string         `json:"categories,omitempty"`
	ClubCardIDs   *[]string         `json:"club_card_ids,omitempty"`
	EventGenre    *[]string         `json:"event_genre,omitempty"`
}

// EventDetails bundles an event with its three aggregates for read endpoints.
type EventDetails struct {
	Event            *entity.Event            `json:"event"`
	TableSummary     *entity.TableAggregate   `json:"table_summary,omitempty"`
	GuestListSummary *entity.GuestListSummary `json:"guest_list_summary,omitempty"`
	TicketSummary    *entity.TicketSummary    `json:"ticket_summary,omitempty"`
}

type AddGuestRequest struct {
	GuestName    string   `json:"guest_name" binding:"required,min=1,max=255"`
	NormalGuests int      `json:"normal_guests" binding:"min=0"`
	FreeGuests   int      `json:"free_guests" binding:"min=0"`
	Comment      string   `json:"comment" binding:"max=1000"`
	Categories   []string `json:"categories"`
}

// AddMultipleGuestsRequest carries free-form text, one guest per line.
type AddMultipleGuestsRequest struct {
	Text string `json:"text" binding:"required"`
}

type CheckInGuestRequest struct {
	Mode            entity.CheckInMode `json:"mode" binding:"required"`
	NormalCheckedIn int                `json:"normal_checked_in"`
	FreeCheckedIn   int                `json:"free_checked_in"`
}

type DeleteGuestsRequest struct {
	GuestIDs []string `json:"guest_ids" binding:"required,min=1"`
}

// BulkAddResult reports how a text import went: the guests created plus the
// number of lines that did not resolve to a nonzero guest.
type BulkAddResult struct {
	Guests  []entity.Guest `json:"guests"`
	Skipped int            `json:"skipped"`
}

// GuestListDetails is one list's ledger plus the event-wide summary.
type GuestListDetails struct {
	List    *entity.GuestList        `json:"list"`
	Guests  []entity.Guest           `json:"guests"`
	Summary *entity.GuestListSummary `json:"summary"`
}

type CreateTicketRequest struct {
	Name         string           `json:"name" binding:"required,min=1,max=255"`
	Price        float64          `json:"price" binding:"min=0"`
	TotalTickets int              `json:"total_tickets" binding:"required,min=1"`
	SaleStart    entity.EventTime `json:"sale_start" binding:"required"`
	SaleEnd      entity.EventTime `json:"sale_end" binding:"required"`
	IsFree       bool             `json:"is_free"`
	BuyerPaysFee bool             `json:"buyer_pays_fee"`
	Category     string           `json:"category" binding:"max=255"`
	MaxPerUser   int              `json:"max_per_user" binding:"min=0"`
}

// ActivityPublisher forwards committed activity entries to the notification
// exchange. Implementations must tolerate being absent: services treat a nil
// publisher as "notifications disabled".
type ActivityPublisher interface {
	Publish(ctx context.Context, entry *entity.ActivityEntry) error
}

// EventCache is a read-through cache for event documents and their summaries;
// mutations invalidate. Failures are soft: a cache miss or error falls back to
// the repository.
type EventCache interface {
	GetEvent(ctx context.Context, eventID string) (*entity.Event, error)
	SetEvent(ctx context.Context, event *entity.Event) error
	GetGuestSummary(ctx context.Context, eventID string) (*entity.GuestListSummary, error)
	SetGuestSummary(ctx context.Context, s *entity.GuestListSummary) error
	GetTableSummary(ctx context.Context, eventID string) (*entity.TableAggregate, error)
	SetTableSummary(ctx context.Context, s *entity.TableAggregate) error
	GetTicketSummary(ctx context.Context, eventID string) (*entity.TicketSummary, error)
	SetTicketSummary(ctx context.Context, s *entity.TicketSummary) error
	InvalidateEvent(ctx context.Context, eventID string) error
}

type EventService interface {
	CreateEvent(ctx context.Context, actor entity.Actor, companyID string, req *CreateEventRequest) ([]*entity.Event, error)
	GetEvent(ctx context.Context, companyID, eventID string) (*EventDetails, error)
	GetAllEvents(ctx context.Context, companyID string) ([]*entity.Event, error)
	UpdateEvent(ctx context.Context, actor entity.Actor, companyID, eventID string, req *UpdateEventRequest) (*entity.Event, error)
	DeleteEvent(ctx context.Context, actor entity.Actor, companyID, eventID string) error
	GetActivity(ctx context.Context, companyID, eventID string, limit int) ([]entity.ActivityEntry, error)
}

type GuestService interface {
	AddGuest(ctx context.Context, actor entity.Actor, companyID, eventID, listID string, req *AddGuestRequest) (*entity.Guest, error)
	AddMultipleGuests(ctx context.Context, actor entity.Actor, companyID, eventID, listID string, req *AddMultipleGuestsRequest) (*BulkAddResult, error)
	UpdateGuest(ctx context.Context, actor entity.Actor, companyID, eventID, listID, guestID string, upd *entity.GuestUpdate) (*entity.Guest, []string, error)
	CheckInGuest(ctx context.Context, actor entity.Actor, companyID, eventID, listID, guestID string, req *CheckInGuestRequest) (*entity.Guest, error)
	DeleteGuests(ctx context.Context, actor entity.Actor, companyID, eventID, listID string, guestIDs []string) (int, error)

	GetGuestList(ctx context.Context, companyID, eventID, listID string) (*GuestListDetails, error)
	GetSummary(ctx context.Context, companyID, eventID string) (*entity.GuestListSummary, error)
	GetAuditLog(ctx context.Context, companyID, eventID string, limit int) ([]entity.AuditEntry, error)
}

type TicketService interface {
	CreateTicket(ctx context.Context, actor entity.Actor, companyID, eventID string, req *CreateTicketRequest) (*entity.TicketType, error)
	UpdateTicket(ctx context.Context, actor entity.Actor, companyID, eventID, ticketID string, upd *entity.TicketUpdate) (*entity.TicketType, error)
	RemoveTicket(ctx context.Context, actor entity.Actor, companyID, eventID, ticketID string) error
	GetTickets(ctx context.Context, companyID, eventID string) ([]entity.TicketType, error)
	GetSummary(ctx context.Context, companyID, eventID string) (*entity.TicketSummary, error)
}
