package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuedesk/backend/internal/entity"
)

func newGuestServiceFixture(t *testing.T) (GuestService, *fakeEventRepo, *fakeGuestRepo, *fakePublisher) {
	t.Helper()

	refs := newFakeRefRepo()
	refs.companies["c1"] = &entity.Company{ID: "c1", Name: "Club One"}

	events := newFakeEventRepo()
	events.events["ev1"] = &entity.Event{ID: "ev1", CompanyID: "c1", Name: "Friday Night"}

	guests := newFakeGuestRepo()
	guests.seedEvent("ev1")

	publisher := &fakePublisher{}
	svc := NewGuestService(events, guests, refs, nil, publisher)
	return svc, events, guests, publisher
}

func addGuest(t *testing.T, svc GuestService, normal, free int) *entity.Guest {
	t.Helper()
	guest, err := svc.AddGuest(context.Background(), entity.Actor{ID: "u1", Name: "Op"}, "c1", "ev1", entity.DefaultGuestListID, &AddGuestRequest{
		GuestName:    "Ann Lee",
		NormalGuests: normal,
		FreeGuests:   free,
	})
	require.NoError(t, err)
	return guest
}

func TestGuestServiceAddGuest(t *testing.T) {
	svc, _, guests, publisher := newGuestServiceFixture(t)

	guest := addGuest(t, svc, 2, 1)
	assert.NotEmpty(t, guest.GuestID)
	require.Len(t, guest.Logs, 1)
	assert.Equal(t, "created", guest.Logs[0].Action)

	summary, err := guests.GetSummary(context.Background(), "ev1")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalGuests)
	assert.Equal(t, 0, summary.TotalCheckedIn)

	assert.Equal(t, []string{entity.ActivityGuestAdded}, publisher.actions())
}

func TestGuestServiceAddGuestValidation(t *testing.T) {
	svc, _, _, _ := newGuestServiceFixture(t)
	actor := entity.Actor{ID: "u1"}

	_, err := svc.AddGuest(context.Background(), actor, "c1", "ev1", entity.DefaultGuestListID, &AddGuestRequest{GuestName: "  ", NormalGuests: 1})
	require.Error(t, err)

	_, err = svc.AddGuest(context.Background(), actor, "c1", "ev1", entity.DefaultGuestListID, &AddGuestRequest{GuestName: "Ann"})
	require.Error(t, err)

	_, err = svc.AddGuest(context.Background(), actor, "c1", "ev1", "nope", &AddGuestRequest{GuestName: "Ann", NormalGuests: 1})
	assert.ErrorIs(t, err, entity.ErrGuestListNotFound)

	_, err = svc.AddGuest(context.Background(), actor, "c1", "gone", entity.DefaultGuestListID, &AddGuestRequest{GuestName: "Ann", NormalGuests: 1})
	assert.ErrorIs(t, err, entity.ErrEventNotFound)

	_, err = svc.AddGuest(context.Background(), actor, "c2", "ev1", entity.DefaultGuestListID, &AddGuestRequest{GuestName: "Ann", NormalGuests: 1})
	assert.ErrorIs(t, err, entity.ErrCompanyNotFound)
}

func TestGuestServiceBulkAdd(t *testing.T) {
	svc, _, guests, _ := newGuestServiceFixture(t)

	result, err := svc.AddMultipleGuests(context.Background(), entity.Actor{ID: "u1"}, "c1", "ev1", entity.DefaultGuestListID, &AddMultipleGuestsRequest{
		Text: "Ann Lee 2 3\nBea Cole +2\nCarl\n0\n\nDina Park 0",
	})
	require.NoError(t, err)

	// Ann: 2 free + 3 paying, Bea: 2 free, Carl: 1 free; "0" has no name,
	// "Dina Park 0" resolves to zero guests
	require.Len(t, result.Guests, 3)
	assert.Equal(t, 2, result.Skipped)

	summary, err := guests.GetSummary(context.Background(), "ev1")
	require.NoError(t, err)
	assert.Equal(t, 8, summary.TotalGuests)
	assert.Equal(t, 3, summary.NormalGuests)
	assert.Equal(t, 5, summary.FreeGuests)
}

func TestParseGuestLines(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		want        []parsedGuest
		wantSkipped int
	}{
		{
			name: "name only means one free guest",
			text: "Ann Lee",
			want: []parsedGuest{{Name: "Ann Lee", Free: 1}},
		},
		{
			name: "single number is the free count",
			text: "Ann Lee 4",
			want: []parsedGuest{{Name: "Ann Lee", Free: 4}},
		},
		{
			name: "two numbers are free then paying",
			text: "Ann Lee 2 3",
			want: []parsedGuest{{Name: "Ann Lee", Free: 2, Normal: 3}},
		},
		{
			name: "plus prefix accepted",
			text: "Bea +2",
			want: []parsedGuest{{Name: "Bea", Free: 2}},
		},
		{
			name: "numeric-looking name part survives",
			text: "Table 9 Crew 2",
			want: []parsedGuest{{Name: "Table 9 Crew", Free: 2}},
		},
		{
			name:        "zero count skipped",
			text:        "Ann 0",
			wantSkipped: 1,
		},
		{
			name:        "bare number has no name",
			text:        "12",
			wantSkipped: 1,
		},
		{
			name: "blank lines ignored",
			text: "\n\nAnn\n\n",
			want: []parsedGuest{{Name: "Ann", Free: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, skipped := parseGuestLines(tt.text)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantSkipped, skipped)
		})
	}
}

func TestGuestServiceCheckIn(t *testing.T) {
	svc, _, guests, publisher := newGuestServiceFixture(t)
	guest := addGuest(t, svc, 3, 1)
	actor := entity.Actor{ID: "u2", Name: "Door"}

	updated, err := svc.CheckInGuest(context.Background(), actor, "c1", "ev1", entity.DefaultGuestListID, guest.GuestID, &CheckInGuestRequest{
		Mode:            entity.CheckInIncrement,
		NormalCheckedIn: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.NormalCheckedIn)

	summary, err := guests.GetSummary(context.Background(), "ev1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalCheckedIn)

	// over the limit
	_, err = svc.CheckInGuest(context.Background(), actor, "c1", "ev1", entity.DefaultGuestListID, guest.GuestID, &CheckInGuestRequest{
		Mode:            entity.CheckInIncrement,
		NormalCheckedIn: 2,
	})
	assert.ErrorIs(t, err, entity.ErrCheckInLimitExceeded)

	actions := publisher.actions()
	assert.Equal(t, []string{entity.ActivityGuestAdded, entity.ActivityGuestCheckedIn}, actions)
}

func TestGuestServiceConcurrentCheckIns(t *testing.T) {
	svc, _, guests, _ := newGuestServiceFixture(t)
	guest := addGuest(t, svc, 2, 0)
	actor := entity.Actor{ID: "u2"}

	// ten racing +1 increments against a limit of 2: exactly two must win
	var wg sync.WaitGroup
	succeeded := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CheckInGuest(context.Background(), actor, "c1", "ev1", entity.DefaultGuestListID, guest.GuestID, &CheckInGuestRequest{
				Mode:            entity.CheckInIncrement,
				NormalCheckedIn: 1,
			})
			if err == nil {
				succeeded <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(succeeded)

	wins := 0
	for range succeeded {
		wins++
	}
	assert.Equal(t, 2, wins)

	summary, err := guests.GetSummary(context.Background(), "ev1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalCheckedIn)

	_, repaired, err := guests.RecomputeSummary(context.Background(), "ev1")
	require.NoError(t, err)
	assert.False(t, repaired)
}

func TestGuestServiceUpdateNoChanges(t *testing.T) {
	svc, _, _, publisher := newGuestServiceFixture(t)
	guest := addGuest(t, svc, 2, 0)

	name := guest.GuestName
	_, changed, err := svc.UpdateGuest(context.Background(), entity.Actor{ID: "u1"}, "c1", "ev1", entity.DefaultGuestListID, guest.GuestID, &entity.GuestUpdate{GuestName: &name})
	require.NoError(t, err)
	assert.Empty(t, changed)

	// nothing beyond the original add was published
	assert.Equal(t, []string{entity.ActivityGuestAdded}, publisher.actions())
}

func TestGuestServiceDeleteRoundTrip(t *testing.T) {
	svc, _, guests, _ := newGuestServiceFixture(t)
	actor := entity.Actor{ID: "u1"}

	var ids []string
	for i := 0; i < 5; i++ {
		g := addGuest(t, svc, 2, 1)
		ids = append(ids, g.GuestID)
	}

	deleted, err := svc.DeleteGuests(context.Background(), actor, "c1", "ev1", entity.DefaultGuestListID, ids)
	require.NoError(t, err)
	assert.Equal(t, 5, deleted)

	// adding then deleting everything must return the summary to zero
	summary, err := guests.GetSummary(context.Background(), "ev1")
	require.NoError(t, err)
	assert.Equal(t, entity.GuestListSummary{EventID: "ev1"}, *summary)

	_, err = svc.DeleteGuests(context.Background(), actor, "c1", "ev1", entity.DefaultGuestListID, ids)
	assert.ErrorIs(t, err, entity.ErrGuestNotFound)
}

func TestGuestServiceAuditLog(t *testing.T) {
	svc, _, _, _ := newGuestServiceFixture(t)
	actor := entity.Actor{ID: "u1", Name: "Op"}

	guest := addGuest(t, svc, 2, 0)
	_, err := svc.CheckInGuest(context.Background(), actor, "c1", "ev1", entity.DefaultGuestListID, guest.GuestID, &CheckInGuestRequest{
		Mode:            entity.CheckInSet,
		NormalCheckedIn: 1,
	})
	require.NoError(t, err)

	// newest entry first
	log, err := svc.GetAuditLog(context.Background(), "c1", "ev1", 10)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, entity.GuestStatusCheckedIn, log[0].Status)
	assert.Equal(t, entity.GuestStatusAdded, log[1].Status)
}

func TestGuestServiceGetGuestList(t *testing.T) {
	svc, _, _, _ := newGuestServiceFixture(t)
	addGuest(t, svc, 2, 1)

	details, err := svc.GetGuestList(context.Background(), "c1", "ev1", entity.DefaultGuestListID)
	require.NoError(t, err)
	assert.Equal(t, "Main", details.List.Name)
	assert.Len(t, details.Guests, 1)
	assert.Equal(t, 3, details.Summary.TotalGuests)

	_, err = svc.GetGuestList(context.Background(), "c1", "ev1", "nope")
	assert.ErrorIs(t, err, entity.ErrGuestListNotFound)
}
