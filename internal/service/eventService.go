package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	repository "github.com/venuedesk/backend/internal/database/postgres"
	"github.com/venuedesk/backend/internal/entity"
)

type eventService struct {
	events    repository.EventRepository
	tables    repository.TableRepository
	guests    repository.GuestRepository
	tickets   repository.TicketRepository
	refs      repository.ReferenceRepository
	resolver  *referenceResolver
	cache     EventCache
	publisher ActivityPublisher
}

func NewEventService(
	events repository.EventRepository,
	tables repository.TableRepository,
	guests repository.GuestRepository,
	tickets repository.TicketRepository,
	refs repository.ReferenceRepository,
	cache EventCache,
	publisher ActivityPublisher,
) EventService {
	return &eventService{
		events:    events,
		tables:    tables,
		guests:    guests,
		tickets:   tickets,
		refs:      refs,
		resolver:  newReferenceResolver(refs),
		cache:     cache,
		publisher: publisher,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, actor entity.Actor, companyID string, req *CreateEventRequest) ([]*entity.Event, error) {
	if _, err := s.refs.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}
	if !req.EndDateTime.After(req.StartDateTime.Time) {
		return nil, entity.NewValidationError("end_date_time", "event must end after it starts")
	}

	refs, err := s.resolver.resolveAll(ctx, companyID, req)
	if err != nil {
		return nil, err
	}

	// Layout contents are fetched once and stamped into every instance.
	layouts := make([]*entity.Layout, 0, len(refs.Layouts))
	for _, ref := range refs.Layouts {
		layout, err := s.refs.GetLayout(ctx, companyID, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch layout %s: %w", ref.ID, err)
		}
		layouts = append(layouts, layout)
	}

	var rule *entity.RecurringRule
	if req.Recurring != nil && req.Recurring.IsRecurring {
		rule = &entity.RecurringRule{
			IsRecurring:        true,
			RecurringStartDate: req.Recurring.RecurringStartDate.Time,
			RecurringEndDate:   req.Recurring.RecurringEndDate.Time,
			DaysOfWeek:         req.Recurring.DaysOfWeek,
		}
	}
	occurrences, err := expandRecurrence(rule, req.StartDateTime.Time, req.EndDateTime.Time)
	if err != nil {
		return nil, fmt.Errorf("expand recurrence: %w", err)
	}
	// A rule whose window contains no matching days creates nothing.
	if len(occurrences) == 0 {
		return []*entity.Event{}, nil
	}

	now := time.Now().UTC()
	provisioned := make([]*repository.ProvisionedEvent, 0, len(occurrences))
	activity := make([]entity.ActivityEntry, 0, len(occurrences))
	result := make([]*entity.Event, 0, len(occurrences))

	for _, occ := range occurrences {
		event := entity.Event{
			ID:            uuid.NewString(),
			CompanyID:     companyID,
			Name:          req.EventName,
			StartTime:     occ.Start,
			EndTime:       occ.End,
			TableLayouts:  refs.Layouts,
			Categories:    refs.Categories,
			ClubCards:     refs.ClubCards,
			Genres:        refs.Genres,
			Recurring:     rule,
			CreatedBy:     actor.ID,
			CreatedByName: actor.Name,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		p := &repository.ProvisionedEvent{Event: event}
		for _, layout := range layouts {
			list, items := buildTableList(event.ID, layout, actor, "created", now)
			p.TableLists = append(p.TableLists, list)
			p.TableItems = append(p.TableItems, items...)
		}
		p.TableSummary = entity.SummarizeTableItems(p.TableItems)
		p.TableSummary.EventID = event.ID

		p.GuestLists = append(p.GuestLists, entity.GuestList{
			EventID: event.ID,
			ID:      entity.DefaultGuestListID,
			Name:    "Main",
		})
		for _, name := range req.AdditionalGuestLists {
			p.GuestLists = append(p.GuestLists, entity.GuestList{
				EventID: event.ID,
				ID:      uuid.NewString(),
				Name:    name,
			})
		}

		provisioned = append(provisioned, p)
		activity = append(activity, entity.ActivityEntry{
			CompanyID: companyID,
			EventID:   event.ID,
			Action:    entity.ActivityEventCreated,
			Detail:    map[string]string{"event_name": event.Name},
			ActorID:   actor.ID,
			ActorName: actor.Name,
			CreatedAt: now,
		})
		ev := event
		result = append(result, &ev)
	}

	if err := s.events.Provision(ctx, provisioned, activity); err != nil {
		return nil, err
	}

	for i := range activity {
		s.publish(ctx, &activity[i])
	}
	return result, nil
}

func (s *eventService) GetEvent(ctx context.Context, companyID, eventID string) (*EventDetails, error) {
	if _, err := s.refs.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}

	event := s.cachedEvent(ctx, eventID)
	if event == nil || event.CompanyID != companyID {
		var err error
		event, err = s.events.GetByID(ctx, companyID, eventID)
		if err != nil {
			return nil, err
		}
		s.cacheEvent(ctx, event)
	}

	details := &EventDetails{Event: event}

	if ts, err := s.tableSummary(ctx, eventID); err == nil {
		details.TableSummary = ts
	} else {
		logrus.WithField("event_id", eventID).WithError(err).Warn("failed to load table summary")
	}
	if gs, err := s.guests.GetSummary(ctx, eventID); err == nil {
		details.GuestListSummary = gs
	} else {
		logrus.WithField("event_id", eventID).WithError(err).Warn("failed to load guest summary")
	}
	if tks, err := s.tickets.GetSummary(ctx, eventID); err == nil {
		details.TicketSummary = tks
	} else {
		logrus.WithField("event_id", eventID).WithError(err).Warn("failed to load ticket summary")
	}

	return details, nil
}

func (s *eventService) GetAllEvents(ctx context.Context, companyID string) ([]*entity.Event, error) {
	if _, err := s.refs.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}
	return s.events.GetAllByCompany(ctx, companyID)
}

func (s *eventService) UpdateEvent(ctx context.Context, actor entity.Actor, companyID, eventID string, req *UpdateEventRequest) (*entity.Event, error) {
	if _, err := s.refs.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}
	event, err := s.events.GetByID(ctx, companyID, eventID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var changed []string

	if req.EventName != nil && *req.EventName != event.Name {
		event.Name = *req.EventName
		changed = append(changed, "event_name")
	}
	if req.StartDateTime != nil && !req.StartDateTime.Equal(event.StartTime) {
		event.StartTime = req.StartDateTime.Time
		changed = append(changed, "start_date_time")
	}
	if req.EndDateTime != nil && !req.EndDateTime.Equal(event.EndTime) {
		event.EndTime = req.EndDateTime.Time
		changed = append(changed, "end_date_time")
	}
	if !event.EndTime.After(event.StartTime) {
		return nil, entity.NewValidationError("end_date_time", "event must end after it starts")
	}

	if req.Categories != nil {
		refs, err := s.resolver.resolve(ctx, companyID, entity.ReferenceCategory, *req.Categories)
		if err != nil {
			return nil, err
		}
		event.Categories = refs
		changed = append(changed, "categories")
	}
	if req.ClubCardIDs != nil {
		refs, err := s.resolver.resolve(ctx, companyID, entity.ReferenceClubCard, *req.ClubCardIDs)
		if err != nil {
			return nil, err
		}
		event.ClubCards = refs
		changed = append(changed, "club_card_ids")
	}
	if req.EventGenre != nil {
		refs, err := s.resolver.resolve(ctx, companyID, entity.ReferenceGenre, *req.EventGenre)
		if err != nil {
			return nil, err
		}
		event.Genres = refs
		changed = append(changed, "event_genre")
	}

	upd := &repository.EventUpdate{Event: event}

	if req.TableLayouts != nil {
		diff := diffLayouts(entity.ReferenceIDs(event.TableLayouts), *req.TableLayouts)
		if diff.Changed() {
			refs, err := s.resolver.resolve(ctx, companyID, entity.ReferenceLayout, *req.TableLayouts)
			if err != nil {
				return nil, err
			}
			event.TableLayouts = refs
			changed = append(changed, "table_layouts")

			upd.LayoutsChanged = true
			upd.RemoveLayouts = diff.Removed
			for _, layoutID := range diff.Added {
				layout, err := s.refs.GetLayout(ctx, companyID, layoutID)
				if err != nil {
					return nil, fmt.Errorf("fetch layout %s: %w", layoutID, err)
				}
				list, items := buildTableList(eventID, layout, actor, "added", now)
				upd.AddLists = append(upd.AddLists, list)
				upd.AddItems = append(upd.AddItems, items...)
			}
			upd.AddDelta = entity.SummarizeTableItems(upd.AddItems)
		}
	}

	if len(changed) == 0 {
		return nil, entity.ErrNoChanges
	}

	event.UpdatedBy = actor.ID
	event.UpdatedAt = now

	upd.Activity = &entity.ActivityEntry{
		CompanyID: companyID,
		EventID:   eventID,
		Action:    entity.ActivityEventUpdated,
		Detail:    changedDetail(event.Name, changed),
		ActorID:   actor.ID,
		ActorName: actor.Name,
		CreatedAt: now,
	}

	if err := s.events.Update(ctx, upd); err != nil {
		return nil, err
	}

	s.invalidate(ctx, eventID)
	s.publish(ctx, upd.Activity)
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, actor entity.Actor, companyID, eventID string) error {
	if _, err := s.refs.GetCompany(ctx, companyID); err != nil {
		return err
	}
	event, err := s.events.GetByID(ctx, companyID, eventID)
	if err != nil {
		return err
	}

	activity := &entity.ActivityEntry{
		CompanyID: companyID,
		EventID:   eventID,
		Action:    entity.ActivityEventDeleted,
		Detail:    map[string]string{"event_name": event.Name},
		ActorID:   actor.ID,
		ActorName: actor.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.events.Delete(ctx, companyID, eventID, activity); err != nil {
		return err
	}

	s.invalidate(ctx, eventID)
	s.publish(ctx, activity)
	return nil
}

func (s *eventService) GetActivity(ctx context.Context, companyID, eventID string, limit int) ([]entity.ActivityEntry, error) {
	if _, err := s.refs.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}
	if _, err := s.events.GetByID(ctx, companyID, eventID); err != nil {
		return nil, err
	}
	return s.refs.ListActivity(ctx, eventID, limit)
}

func changedDetail(eventName string, changed []string) map[string]string {
	detail := map[string]string{"event_name": eventName}
	for i, field := range changed {
		detail[fmt.Sprintf("field_%d", i)] = field
	}
	return detail
}

func (s *eventService) tableSummary(ctx context.Context, eventID string) (*entity.TableAggregate, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetTableSummary(ctx, eventID); err == nil && cached != nil {
			return cached, nil
		}
	}
	summary, err := s.tables.GetSummary(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetTableSummary(ctx, summary)
	}
	return summary, nil
}

func (s *eventService) cachedEvent(ctx context.Context, eventID string) *entity.Event {
	if s.cache == nil {
		return nil
	}
	event, err := s.cache.GetEvent(ctx, eventID)
	if err != nil {
		return nil
	}
	return event
}

func (s *eventService) cacheEvent(ctx context.Context, event *entity.Event) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetEvent(ctx, event); err != nil {
		logrus.WithField("event_id", event.ID).WithError(err).Warn("failed to cache event")
	}
}

func (s *eventService) invalidate(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateEvent(ctx, eventID); err != nil {
		logrus.WithField("event_id", eventID).WithError(err).Warn("failed to invalidate event cache")
	}
}

func (s *eventService) publish(ctx context.Context, entry *entity.ActivityEntry) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, entry); err != nil {
		logrus.WithFields(logrus.Fields{
			"event_id": entry.EventID,
			"action":   entry.Action,
		}).WithError(err).Warn("failed to publish activity")
	}
}
