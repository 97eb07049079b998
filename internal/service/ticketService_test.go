package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuedesk/backend/internal/entity"
)

func newTicketServiceFixture(t *testing.T) (TicketService, *fakeTicketRepo, *fakePublisher) {
	t.Helper()

	refs := newFakeRefRepo()
	refs.companies["c1"] = &entity.Company{ID: "c1", Name: "Club One"}

	events := newFakeEventRepo()
	events.events["ev1"] = &entity.Event{ID: "ev1", CompanyID: "c1", Name: "Friday Night"}

	tickets := newFakeTicketRepo()
	publisher := &fakePublisher{}
	svc := NewTicketService(events, tickets, refs, nil, publisher)
	return svc, tickets, publisher
}

func createTicket(t *testing.T, svc TicketService, name string, total int, price float64) *entity.TicketType {
	t.Helper()
	ticket, err := svc.CreateTicket(context.Background(), entity.Actor{ID: "u1"}, "c1", "ev1", &CreateTicketRequest{
		Name:         name,
		Price:        price,
		TotalTickets: total,
		SaleStart:    eventTime(date(2025, 3, 1, 10, 0)),
		SaleEnd:      eventTime(date(2025, 3, 7, 22, 0)),
	})
	require.NoError(t, err)
	return ticket
}

func TestTicketServiceCreate(t *testing.T) {
	svc, tickets, publisher := newTicketServiceFixture(t)

	ticket := createTicket(t, svc, "Early Bird", 100, 25)
	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, 100, ticket.TicketsLeft)
	assert.Equal(t, 0, ticket.Sold())

	summary, err := tickets.GetSummary(context.Background(), "ev1")
	require.NoError(t, err)
	assert.Equal(t, 100, summary.TotalTickets)
	assert.Equal(t, 100, summary.TicketsLeft)
	assert.Equal(t, 0.0, summary.Revenue)

	assert.Equal(t, []string{entity.ActivityTicketCreated}, publisher.actions())
}

func TestTicketServiceCreateValidation(t *testing.T) {
	svc, _, _ := newTicketServiceFixture(t)
	actor := entity.Actor{ID: "u1"}

	_, err := svc.CreateTicket(context.Background(), actor, "c1", "ev1", &CreateTicketRequest{
		Name:         "No Inventory",
		TotalTickets: 0,
		SaleStart:    eventTime(date(2025, 3, 1, 10, 0)),
		SaleEnd:      eventTime(date(2025, 3, 7, 22, 0)),
	})
	require.Error(t, err)

	_, err = svc.CreateTicket(context.Background(), actor, "c1", "ev1", &CreateTicketRequest{
		Name:         "Backwards Sale",
		TotalTickets: 10,
		SaleStart:    eventTime(date(2025, 3, 7, 22, 0)),
		SaleEnd:      eventTime(date(2025, 3, 1, 10, 0)),
	})
	require.Error(t, err)

	_, err = svc.CreateTicket(context.Background(), actor, "c1", "gone", &CreateTicketRequest{
		Name:         "Ghost Event",
		TotalTickets: 10,
		SaleStart:    eventTime(date(2025, 3, 1, 10, 0)),
		SaleEnd:      eventTime(date(2025, 3, 7, 22, 0)),
	})
	assert.ErrorIs(t, err, entity.ErrEventNotFound)
}

func TestTicketServiceCreateFreeTicketZeroesPrice(t *testing.T) {
	svc, _, _ := newTicketServiceFixture(t)

	ticket, err := svc.CreateTicket(context.Background(), entity.Actor{ID: "u1"}, "c1", "ev1", &CreateTicketRequest{
		Name:         "Guest List",
		Price:        50,
		TotalTickets: 20,
		IsFree:       true,
		SaleStart:    eventTime(date(2025, 3, 1, 10, 0)),
		SaleEnd:      eventTime(date(2025, 3, 7, 22, 0)),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, ticket.Price)
}

func TestTicketServiceUpdate(t *testing.T) {
	svc, tickets, _ := newTicketServiceFixture(t)
	ticket := createTicket(t, svc, "Early Bird", 100, 25)

	total := 150
	updated, err := svc.UpdateTicket(context.Background(), entity.Actor{ID: "u1"}, "c1", "ev1", ticket.ID, &entity.TicketUpdate{
		TotalTickets: &total,
	})
	require.NoError(t, err)
	assert.Equal(t, 150, updated.TotalTickets)
	assert.Equal(t, 150, updated.TicketsLeft)

	summary, err := tickets.GetSummary(context.Background(), "ev1")
	require.NoError(t, err)
	assert.Equal(t, 150, summary.TotalTickets)
	assert.Equal(t, 150, summary.TicketsLeft)
}

func TestTicketServiceUpdateNoChanges(t *testing.T) {
	svc, _, publisher := newTicketServiceFixture(t)
	ticket := createTicket(t, svc, "Early Bird", 100, 25)

	name := "Early Bird"
	_, err := svc.UpdateTicket(context.Background(), entity.Actor{ID: "u1"}, "c1", "ev1", ticket.ID, &entity.TicketUpdate{
		Name: &name,
	})
	assert.ErrorIs(t, err, entity.ErrNoChanges)
	assert.Equal(t, []string{entity.ActivityTicketCreated}, publisher.actions())
}

func TestTicketServiceRemove(t *testing.T) {
	svc, tickets, _ := newTicketServiceFixture(t)
	ticket := createTicket(t, svc, "Early Bird", 100, 25)

	require.NoError(t, svc.RemoveTicket(context.Background(), entity.Actor{ID: "u1"}, "c1", "ev1", ticket.ID))

	summary, err := tickets.GetSummary(context.Background(), "ev1")
	require.NoError(t, err)
	assert.Equal(t, entity.TicketSummary{EventID: "ev1"}, *summary)

	err = svc.RemoveTicket(context.Background(), entity.Actor{ID: "u1"}, "c1", "ev1", ticket.ID)
	assert.ErrorIs(t, err, entity.ErrTicketNotFound)
}

func TestTicketServiceRemoveWithSales(t *testing.T) {
	svc, tickets, _ := newTicketServiceFixture(t)
	ticket := createTicket(t, svc, "Early Bird", 100, 25)

	// simulate sales happening outside the management surface
	tickets.mu.Lock()
	tickets.tickets[ticketKey("ev1", ticket.ID)].TicketsLeft = 60
	tickets.summaries["ev1"].TicketsSold = 40
	tickets.summaries["ev1"].TicketsLeft = 60
	tickets.mu.Unlock()

	err := svc.RemoveTicket(context.Background(), entity.Actor{ID: "u1"}, "c1", "ev1", ticket.ID)
	assert.ErrorIs(t, err, entity.ErrHasSoldTickets)
}

func TestTicketServiceSummaryReconciles(t *testing.T) {
	svc, tickets, _ := newTicketServiceFixture(t)
	createTicket(t, svc, "Early Bird", 100, 25)
	createTicket(t, svc, "Door", 50, 40)

	// corrupt the stored summary and verify recompute repairs it
	tickets.mu.Lock()
	tickets.summaries["ev1"].TotalTickets = 999
	tickets.mu.Unlock()

	repairedSummary, repaired, err := tickets.RecomputeSummary(context.Background(), "ev1")
	require.NoError(t, err)
	assert.True(t, repaired)
	assert.Equal(t, 150, repairedSummary.TotalTickets)

	_, repaired, err = tickets.RecomputeSummary(context.Background(), "ev1")
	require.NoError(t, err)
	assert.False(t, repaired)
}
