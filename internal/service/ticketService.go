package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	repository "github.com/venuedesk/backend/internal/database/postgres"
	"github.com/venuedesk/backend/internal/entity"
)

type ticketService struct {
	events    repository.EventRepository
	tickets   repository.TicketRepository
	refs      repository.ReferenceRepository
	cache     EventCache
	publisher ActivityPublisher
}

func NewTicketService(
	events repository.EventRepository,
	tickets repository.TicketRepository,
	refs repository.ReferenceRepository,
	cache EventCache,
	publisher ActivityPublisher,
) TicketService {
	return &ticketService{
		events:    events,
		tickets:   tickets,
		refs:      refs,
		cache:     cache,
		publisher: publisher,
	}
}

func (s *ticketService) verifyEvent(ctx context.Context, companyID, eventID string) error {
	if _, err := s.refs.GetCompany(ctx, companyID); err != nil {
		return err
	}
	if _, err := s.events.GetByID(ctx, companyID, eventID); err != nil {
		return err
	}
	return nil
}

func (s *ticketService) CreateTicket(ctx context.Context, actor entity.Actor, companyID, eventID string, req *CreateTicketRequest) (*entity.TicketType, error) {
	if err := s.verifyEvent(ctx, companyID, eventID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, entity.NewValidationError("name", "ticket name is required")
	}
	if req.TotalTickets <= 0 {
		return nil, entity.NewValidationError("total_tickets", "total tickets must be positive")
	}
	if req.Price < 0 {
		return nil, entity.NewValidationError("price", "price cannot be negative")
	}
	if !req.SaleEnd.After(req.SaleStart.Time) {
		return nil, entity.NewValidationError("sale_end", "sale must end after it starts")
	}

	price := req.Price
	if req.IsFree {
		price = 0
	}

	now := time.Now().UTC()
	ticket := &entity.TicketType{
		ID:           uuid.NewString(),
		EventID:      eventID,
		Name:         req.Name,
		Price:        price,
		TotalTickets: req.TotalTickets,
		TicketsLeft:  req.TotalTickets,
		SaleStart:    req.SaleStart.Time,
		SaleEnd:      req.SaleEnd.Time,
		IsFree:       req.IsFree,
		BuyerPaysFee: req.BuyerPaysFee,
		Category:     req.Category,
		MaxPerUser:   req.MaxPerUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	activity := s.activity(companyID, eventID, entity.ActivityTicketCreated, ticket.Name, actor, now)
	if err := s.tickets.Create(ctx, ticket, activity); err != nil {
		return nil, err
	}

	s.invalidate(ctx, eventID)
	s.publish(ctx, activity)
	return ticket, nil
}

func (s *ticketService) UpdateTicket(ctx context.Context, actor entity.Actor, companyID, eventID, ticketID string, upd *entity.TicketUpdate) (*entity.TicketType, error) {
	if err := s.verifyEvent(ctx, companyID, eventID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	activity := s.activity(companyID, eventID, entity.ActivityTicketUpdated, "", actor, now)
	ticket, changed, err := s.tickets.Update(ctx, eventID, ticketID, *upd, activity)
	if err != nil {
		return nil, err
	}
	activity.Detail["ticket_name"] = ticket.Name
	activity.Detail["fields"] = strings.Join(changed, ", ")

	s.invalidate(ctx, eventID)
	s.publish(ctx, activity)
	return ticket, nil
}

func (s *ticketService) RemoveTicket(ctx context.Context, actor entity.Actor, companyID, eventID, ticketID string) error {
	if err := s.verifyEvent(ctx, companyID, eventID); err != nil {
		return err
	}

	now := time.Now().UTC()
	activity := s.activity(companyID, eventID, entity.ActivityTicketRemoved, "", actor, now)
	ticket, err := s.tickets.Delete(ctx, eventID, ticketID, activity)
	if err != nil {
		return err
	}
	activity.Detail["ticket_name"] = ticket.Name

	s.invalidate(ctx, eventID)
	s.publish(ctx, activity)
	return nil
}

func (s *ticketService) GetTickets(ctx context.Context, companyID, eventID string) ([]entity.TicketType, error) {
	if err := s.verifyEvent(ctx, companyID, eventID); err != nil {
		return nil, err
	}
	return s.tickets.GetAllByEvent(ctx, eventID)
}

func (s *ticketService) GetSummary(ctx context.Context, companyID, eventID string) (*entity.TicketSummary, error) {
	if err := s.verifyEvent(ctx, companyID, eventID); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if cached, err := s.cache.GetTicketSummary(ctx, eventID); err == nil && cached != nil {
			return cached, nil
		}
	}
	summary, err := s.tickets.GetSummary(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetTicketSummary(ctx, summary)
	}
	return summary, nil
}

func (s *ticketService) activity(companyID, eventID, action, ticketName string, actor entity.Actor, at time.Time) *entity.ActivityEntry {
	detail := map[string]string{}
	if ticketName != "" {
		detail["ticket_name"] = ticketName
	}
	return &entity.ActivityEntry{
		CompanyID: companyID,
		EventID:   eventID,
		Action:    action,
		Detail:    detail,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		CreatedAt: at,
	}
}

func (s *ticketService) invalidate(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.InvalidateEvent(ctx, eventID)
}

func (s *ticketService) publish(ctx context.Context, entry *entity.ActivityEntry) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(ctx, entry)
}
