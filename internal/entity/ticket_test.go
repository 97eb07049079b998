package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTicket(total, left int, price float64) TicketType {
	return TicketType{
		ID:           "t1",
		EventID:      "ev1",
		Name:         "Early Bird",
		Price:        price,
		TotalTickets: total,
		TicketsLeft:  left,
	}
}

func TestTicketSoldAndRevenue(t *testing.T) {
	ticket := newTestTicket(100, 60, 25)
	assert.Equal(t, 40, ticket.Sold())
	assert.Equal(t, 1000.0, ticket.Revenue())
}

func TestTicketApplyUpdateTotal(t *testing.T) {
	intPtr := func(n int) *int { return &n }

	t.Run("raising total preserves sold", func(t *testing.T) {
		ticket := newTestTicket(100, 60, 25)
		changed, delta, err := ticket.ApplyUpdate(TicketUpdate{TotalTickets: intPtr(150)})
		require.NoError(t, err)
		assert.Equal(t, []string{"total_tickets"}, changed)
		assert.Equal(t, 40, ticket.Sold())
		assert.Equal(t, 110, ticket.TicketsLeft)
		assert.Equal(t, TicketDelta{TotalTickets: 50, TicketsLeft: 50}, delta)
	})

	t.Run("total below sold rejected", func(t *testing.T) {
		ticket := newTestTicket(100, 60, 25)
		_, _, err := ticket.ApplyUpdate(TicketUpdate{TotalTickets: intPtr(30)})
		require.Error(t, err)
		var validation *ValidationError
		assert.True(t, errors.As(err, &validation))
		assert.Equal(t, 100, ticket.TotalTickets)
	})

	t.Run("total equal to sold empties inventory", func(t *testing.T) {
		ticket := newTestTicket(100, 60, 25)
		_, _, err := ticket.ApplyUpdate(TicketUpdate{TotalTickets: intPtr(40)})
		require.NoError(t, err)
		assert.Equal(t, 0, ticket.TicketsLeft)
		assert.Equal(t, 40, ticket.Sold())
	})
}

func TestTicketApplyUpdatePrice(t *testing.T) {
	floatPtr := func(f float64) *float64 { return &f }

	ticket := newTestTicket(100, 60, 25)
	changed, delta, err := ticket.ApplyUpdate(TicketUpdate{Price: floatPtr(30)})
	require.NoError(t, err)
	assert.Equal(t, []string{"price"}, changed)
	// 40 sold at a 5 unit increase
	assert.Equal(t, 200.0, delta.Revenue)

	_, _, err = ticket.ApplyUpdate(TicketUpdate{Price: floatPtr(-1)})
	require.Error(t, err)
}

func TestTicketApplyUpdateNoChanges(t *testing.T) {
	ticket := newTestTicket(100, 100, 25)
	name := ticket.Name
	changed, delta, err := ticket.ApplyUpdate(TicketUpdate{Name: &name})
	require.NoError(t, err)
	assert.Empty(t, changed)
	assert.True(t, delta.IsZero())
}

func TestSummarizeTickets(t *testing.T) {
	types := []TicketType{
		newTestTicket(100, 60, 25),
		newTestTicket(50, 50, 10),
	}
	summary := SummarizeTickets("ev1", types)
	assert.Equal(t, TicketSummary{
		EventID:      "ev1",
		TotalTickets: 150,
		TicketsSold:  40,
		TicketsLeft:  110,
		Revenue:      1000,
	}, summary)
}
