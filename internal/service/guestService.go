package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	repository "github.com/venuedesk/backend/internal/database/postgres"
	"github.com/venuedesk/backend/internal/entity"
)

type guestService struct {
	events    repository.EventRepository
	guests    repository.GuestRepository
	refs      repository.ReferenceRepository
	cache     EventCache
	publisher ActivityPublisher
}

func NewGuestService(
	events repository.EventRepository,
	guests repository.GuestRepository,
	refs repository.ReferenceRepository,
	cache EventCache,
	publisher ActivityPublisher,
) GuestService {
	return &guestService{
		events:    events,
		guests:    guests,
		refs:      refs,
		cache:     cache,
		publisher: publisher,
	}
}

func (s *guestService) verifyEvent(ctx context.Context, companyID, eventID string) error {
	if _, err := s.refs.GetCompany(ctx, companyID); err != nil {
		return err
	}
	if _, err := s.events.GetByID(ctx, companyID, eventID); err != nil {
		return err
	}
	return nil
}

func (s *guestService) AddGuest(ctx context.Context, actor entity.Actor, companyID, eventID, listID string, req *AddGuestRequest) (*entity.Guest, error) {
	if err := s.verifyEvent(ctx, companyID, eventID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.GuestName)
	if name == "" {
		return nil, entity.NewValidationError("guest_name", "guest name is required")
	}
	if req.NormalGuests < 0 || req.FreeGuests < 0 {
		return nil, entity.NewValidationError("normal_guests", "guest count cannot be negative")
	}
	if req.NormalGuests+req.FreeGuests == 0 {
		return nil, entity.NewValidationError("normal_guests", "guest must bring at least one person")
	}

	now := time.Now().UTC()
	guest := newGuest(eventID, listID, name, req.NormalGuests, req.FreeGuests, req.Comment, req.Categories, actor, now)
	audit := []entity.AuditEntry{guestAudit(eventID, name, entity.GuestStatusAdded, actor, now)}

	if err := s.guests.AddGuests(ctx, eventID, listID, []entity.Guest{guest}, audit); err != nil {
		return nil, err
	}

	s.invalidate(ctx, eventID)
	s.publishGuest(ctx, companyID, eventID, entity.ActivityGuestAdded, name, actor, now)
	return &guest, nil
}

func (s *guestService) AddMultipleGuests(ctx context.Context, actor entity.Actor, companyID, eventID, listID string, req *AddMultipleGuestsRequest) (*BulkAddResult, error) {
	if err := s.verifyEvent(ctx, companyID, eventID); err != nil {
		return nil, err
	}

	parsed, skipped := parseGuestLines(req.Text)
	if len(parsed) == 0 {
		return nil, entity.NewValidationError("text", "no valid guest lines found")
	}

	now := time.Now().UTC()
	guests := make([]entity.Guest, 0, len(parsed))
	audit := make([]entity.AuditEntry, 0, len(parsed))
	for _, p := range parsed {
		guests = append(guests, newGuest(eventID, listID, p.Name, p.Normal, p.Free, "", nil, actor, now))
		audit = append(audit, guestAudit(eventID, p.Name, entity.GuestStatusAdded, actor, now))
	}

	if err := s.guests.AddGuests(ctx, eventID, listID, guests, audit); err != nil {
		return nil, err
	}

	s.invalidate(ctx, eventID)
	for _, g := range guests {
		s.publishGuest(ctx, companyID, eventID, entity.ActivityGuestAdded, g.GuestName, actor, now)
	}
	return &BulkAddResult{Guests: guests, Skipped: skipped}, nil
}

func (s *guestService) UpdateGuest(ctx context.Context, actor entity.Actor, companyID, eventID, listID, guestID string, upd *entity.GuestUpdate) (*entity.Guest, []string, error) {
	if err := s.verifyEvent(ctx, companyID, eventID); err != nil {
		return nil, nil, err
	}

	guest, changed, err := s.guests.UpdateGuest(ctx, eventID, listID, guestID, *upd, actor)
	if err != nil {
		return nil, nil, err
	}
	if len(changed) > 0 {
		s.invalidate(ctx, eventID)
		s.publishGuest(ctx, companyID, eventID, entity.ActivityGuestUpdated, guest.GuestName, actor, time.Now().UTC())
	}
	return guest, changed, nil
}

func (s *guestService) CheckInGuest(ctx context.Context, actor entity.Actor, companyID, eventID, listID, guestID string, req *CheckInGuestRequest) (*entity.Guest, error) {
	if err := s.verifyEvent(ctx, companyID, eventID); err != nil {
		return nil, err
	}

	guest, delta, err := s.guests.CheckInGuest(ctx, eventID, listID, guestID, req.Mode, req.NormalCheckedIn, req.FreeCheckedIn, actor)
	if err != nil {
		return nil, err
	}
	if !delta.IsZero() {
		s.invalidate(ctx, eventID)
		s.publishGuest(ctx, companyID, eventID, entity.ActivityGuestCheckedIn, guest.GuestName, actor, time.Now().UTC())
	}
	return guest, nil
}

func (s *guestService) DeleteGuests(ctx context.Context, actor entity.Actor, companyID, eventID, listID string, guestIDs []string) (int, error) {
	if err := s.verifyEvent(ctx, companyID, eventID); err != nil {
		return 0, err
	}
	if len(guestIDs) == 0 {
		return 0, entity.NewValidationError("guest_ids", "at least one guest id is required")
	}

	deleted, err := s.guests.DeleteGuests(ctx, eventID, listID, guestIDs, actor)
	if err != nil {
		return 0, err
	}

	s.invalidate(ctx, eventID)
	s.publishGuest(ctx, companyID, eventID, entity.ActivityGuestDeleted, strconv.Itoa(deleted)+" guests", actor, time.Now().UTC())
	return deleted, nil
}

func (s *guestService) GetGuestList(ctx context.Context, companyID, eventID, listID string) (*GuestListDetails, error) {
	if err := s.verifyEvent(ctx, companyID, eventID); err != nil {
		return nil, err
	}

	lists, err := s.guests.GetLists(ctx, eventID)
	if err != nil {
		return nil, err
	}
	var list *entity.GuestList
	for i := range lists {
		if lists[i].ID == listID {
			list = &lists[i]
			break
		}
	}
	if list == nil {
		return nil, entity.ErrGuestListNotFound
	}

	guests, err := s.guests.ListGuests(ctx, eventID, listID)
	if err != nil {
		return nil, err
	}
	summary, err := s.summary(ctx, eventID)
	if err != nil {
		return nil, err
	}

	return &GuestListDetails{List: list, Guests: guests, Summary: summary}, nil
}

func (s *guestService) GetSummary(ctx context.Context, companyID, eventID string) (*entity.GuestListSummary, error) {
	if err := s.verifyEvent(ctx, companyID, eventID); err != nil {
		return nil, err
	}
	return s.summary(ctx, eventID)
}

func (s *guestService) GetAuditLog(ctx context.Context, companyID, eventID string, limit int) ([]entity.AuditEntry, error) {
	if err := s.verifyEvent(ctx, companyID, eventID); err != nil {
		return nil, err
	}
	return s.guests.GetAuditLog(ctx, eventID, limit)
}

func (s *guestService) summary(ctx context.Context, eventID string) (*entity.GuestListSummary, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetGuestSummary(ctx, eventID); err == nil && cached != nil {
			return cached, nil
		}
	}
	summary, err := s.guests.GetSummary(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetGuestSummary(ctx, summary)
	}
	return summary, nil
}

func (s *guestService) invalidate(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.InvalidateEvent(ctx, eventID)
}

func (s *guestService) publishGuest(ctx context.Context, companyID, eventID, action, guestName string, actor entity.Actor, at time.Time) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(ctx, &entity.ActivityEntry{
		CompanyID: companyID,
		EventID:   eventID,
		Action:    action,
		Detail:    map[string]string{"guest_name": guestName},
		ActorID:   actor.ID,
		ActorName: actor.Name,
		CreatedAt: at,
	})
}

func newGuest(eventID, listID, name string, normal, free int, comment string, categories []string, actor entity.Actor, now time.Time) entity.Guest {
	if categories == nil {
		categories = []string{}
	}
	return entity.Guest{
		EventID:      eventID,
		ListID:       listID,
		GuestID:      uuid.NewString(),
		GuestName:    name,
		NormalGuests: normal,
		FreeGuests:   free,
		Comment:      comment,
		Categories:   categories,
		Logs: []entity.GuestLogEntry{{
			Action:    "created",
			ActorID:   actor.ID,
			ActorName: actor.Name,
			At:        now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func guestAudit(eventID, guestName, status string, actor entity.Actor, at time.Time) entity.AuditEntry {
	return entity.AuditEntry{
		EventID:   eventID,
		GuestName: guestName,
		Status:    status,
		UserID:    actor.ID,
		UserName:  actor.Name,
		AddedAt:   at,
	}
}

var guestCountToken = regexp.MustCompile(`^\+?\d+$`)

type parsedGuest struct {
	Name   string
	Normal int
	Free   int
}

// parseGuestLines turns free-form text into guest rows, one per line. Up to
// two trailing numeric tokens are read as counts: with two, the first is the
// free count and the second the paying count; with one, it is the free count.
// A line with no name or with both counts zero is skipped. A name with no
// counts means one free guest.
func parseGuestLines(text string) ([]parsedGuest, int) {
	var out []parsedGuest
	skipped := 0

	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		var counts []int
		for len(fields) > 0 && len(counts) < 2 {
			last := fields[len(fields)-1]
			if !guestCountToken.MatchString(last) {
				break
			}
			n, err := strconv.Atoi(strings.TrimPrefix(last, "+"))
			if err != nil {
				break
			}
			counts = append([]int{n}, counts...)
			fields = fields[:len(fields)-1]
		}

		name := strings.Join(fields, " ")
		if name == "" {
			skipped++
			continue
		}

		p := parsedGuest{Name: name}
		switch len(counts) {
		case 0:
			p.Free = 1
		case 1:
			p.Free = counts[0]
		case 2:
			p.Free = counts[0]
			p.Normal = counts[1]
		}
		if p.Free+p.Normal == 0 {
			skipped++
			continue
		}
		out = append(out, p)
	}
	return out, skipped
}
