package service

import (
	"context"
	"errors"
	"sync"

	repository "github.com/venuedesk/backend/internal/database/postgres"
	"github.com/venuedesk/backend/internal/entity"
)

// In-memory fakes mirroring the repository semantics: per-event locking,
// delta-maintained summaries and the same sentinel errors.

type fakeRefRepo struct {
	mu        sync.Mutex
	companies map[string]*entity.Company
	names     map[entity.ReferenceKind]map[string]string
	layouts   map[string]*entity.Layout
	activity  []entity.ActivityEntry
}

func newFakeRefRepo() *fakeRefRepo {
	return &fakeRefRepo{
		companies: map[string]*entity.Company{},
		names:     map[entity.ReferenceKind]map[string]string{},
		layouts:   map[string]*entity.Layout{},
	}
}

func (f *fakeRefRepo) addName(kind entity.ReferenceKind, id, name string) {
	if f.names[kind] == nil {
		f.names[kind] = map[string]string{}
	}
	f.names[kind][id] = name
}

func (f *fakeRefRepo) GetCompany(_ context.Context, companyID string) (*entity.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.companies[companyID]
	if !ok {
		return nil, entity.ErrCompanyNotFound
	}
	return c, nil
}

func (f *fakeRefRepo) GetNames(_ context.Context, _ string, kind entity.ReferenceKind, ids []string) ([]entity.Reference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	refs := make([]entity.Reference, 0, len(ids))
	for _, id := range ids {
		name, ok := f.names[kind][id]
		if !ok {
			return nil, &entity.ReferenceNotFoundError{Kind: kind, ID: id}
		}
		refs = append(refs, entity.Reference{ID: id, Name: name})
	}
	return refs, nil
}

func (f *fakeRefRepo) GetLayout(_ context.Context, _, layoutID string) (*entity.Layout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.layouts[layoutID]
	if !ok {
		return nil, entity.ErrLayoutNotFound
	}
	return l, nil
}

func (f *fakeRefRepo) CreateLayout(_ context.Context, layout *entity.Layout) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.layouts[layout.ID] = layout
	f.addName(entity.ReferenceLayout, layout.ID, layout.Name)
	return nil
}

func (f *fakeRefRepo) DeleteLayout(_ context.Context, _, layoutID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.layouts, layoutID)
	return nil
}

func (f *fakeRefRepo) CreateValue(_ context.Context, kind entity.ReferenceKind, ref *entity.Reference, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addName(kind, ref.ID, ref.Name)
	return nil
}

func (f *fakeRefRepo) DeleteValue(_ context.Context, kind entity.ReferenceKind, _, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.names[kind], id)
	return nil
}

// ListActivity returns entries newest first, like the repository's
// ORDER BY created_at DESC.
func (f *fakeRefRepo) ListActivity(_ context.Context, eventID string, limit int) ([]entity.ActivityEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.ActivityEntry
	for i := len(f.activity) - 1; i >= 0; i-- {
		if f.activity[i].EventID == eventID {
			out = append(out, f.activity[i])
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeEventRepo struct {
	mu          sync.Mutex
	events      map[string]*entity.Event
	provisioned []*repository.ProvisionedEvent
	updates     []*repository.EventUpdate
	deleted     []string
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: map[string]*entity.Event{}}
}

func (f *fakeEventRepo) Provision(_ context.Context, events []*repository.ProvisionedEvent, _ []entity.ActivityEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range events {
		ev := p.Event
		f.events[ev.ID] = &ev
		f.provisioned = append(f.provisioned, p)
	}
	return nil
}

func (f *fakeEventRepo) GetByID(_ context.Context, companyID, eventID string) (*entity.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[eventID]
	if !ok || ev.CompanyID != companyID {
		return nil, entity.ErrEventNotFound
	}
	copied := *ev
	return &copied, nil
}

func (f *fakeEventRepo) GetAllByCompany(_ context.Context, companyID string) ([]*entity.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Event
	for _, ev := range f.events {
		if ev.CompanyID == companyID {
			copied := *ev
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) Update(_ context.Context, upd *repository.EventUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[upd.Event.ID]; !ok {
		return entity.ErrEventNotFound
	}
	copied := *upd.Event
	f.events[copied.ID] = &copied
	f.updates = append(f.updates, upd)
	return nil
}

func (f *fakeEventRepo) Delete(_ context.Context, companyID, eventID string, _ *entity.ActivityEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[eventID]
	if !ok || ev.CompanyID != companyID {
		return entity.ErrEventNotFound
	}
	delete(f.events, eventID)
	f.deleted = append(f.deleted, eventID)
	return nil
}

func (f *fakeEventRepo) ListIDs(_ context.Context, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id := range f.events {
		ids = append(ids, id)
		if len(ids) == limit {
			break
		}
	}
	return ids, nil
}

type fakeTableRepo struct {
	mu        sync.Mutex
	lists     map[string][]entity.TableList
	items     map[string][]entity.TableItem
	summaries map[string]*entity.TableAggregate
}

func newFakeTableRepo() *fakeTableRepo {
	return &fakeTableRepo{
		lists:     map[string][]entity.TableList{},
		items:     map[string][]entity.TableItem{},
		summaries: map[string]*entity.TableAggregate{},
	}
}

func (f *fakeTableRepo) GetLists(_ context.Context, eventID string) ([]entity.TableList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists[eventID], nil
}

func (f *fakeTableRepo) GetItems(_ context.Context, eventID, listID string) ([]entity.TableItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.TableItem
	for _, item := range f.items[eventID] {
		if listID == "" || item.ListID == listID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeTableRepo) GetSummary(_ context.Context, eventID string) (*entity.TableAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.summaries[eventID]
	if !ok {
		return nil, entity.ErrEventNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeTableRepo) RecomputeSummary(_ context.Context, eventID string) (*entity.TableAggregate, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := entity.SummarizeTableItems(f.items[eventID])
	want.EventID = eventID
	stored, ok := f.summaries[eventID]
	if !ok {
		return nil, false, entity.ErrEventNotFound
	}
	if *stored != want {
		f.summaries[eventID] = &want
		return &want, true, nil
	}
	return stored, false, nil
}

type fakeGuestRepo struct {
	mu        sync.Mutex
	lists     map[string][]entity.GuestList
	guests    map[string]*entity.Guest // keyed eventID+"/"+listID+"/"+guestID
	summaries map[string]*entity.GuestListSummary
	audit     []entity.AuditEntry
}

func newFakeGuestRepo() *fakeGuestRepo {
	return &fakeGuestRepo{
		lists:     map[string][]entity.GuestList{},
		guests:    map[string]*entity.Guest{},
		summaries: map[string]*entity.GuestListSummary{},
	}
}

func (f *fakeGuestRepo) seedEvent(eventID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[eventID] = []entity.GuestList{{EventID: eventID, ID: entity.DefaultGuestListID, Name: "Main"}}
	f.summaries[eventID] = &entity.GuestListSummary{EventID: eventID}
}

func guestKey(eventID, listID, guestID string) string {
	return eventID + "/" + listID + "/" + guestID
}

func (f *fakeGuestRepo) hasList(eventID, listID string) bool {
	for _, l := range f.lists[eventID] {
		if l.ID == listID {
			return true
		}
	}
	return false
}

func (f *fakeGuestRepo) ListGuests(_ context.Context, eventID, listID string) ([]entity.Guest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Guest
	for _, g := range f.guests {
		if g.EventID == eventID && g.ListID == listID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeGuestRepo) GetLists(_ context.Context, eventID string) ([]entity.GuestList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists[eventID], nil
}

func (f *fakeGuestRepo) GetSummary(_ context.Context, eventID string) (*entity.GuestListSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.summaries[eventID]
	if !ok {
		return nil, entity.ErrEventNotFound
	}
	copied := *s
	return &copied, nil
}

// GetAuditLog returns entries newest first, like the repository's
// ORDER BY added_at DESC.
func (f *fakeGuestRepo) GetAuditLog(_ context.Context, eventID string, limit int) ([]entity.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.AuditEntry
	for i := len(f.audit) - 1; i >= 0; i-- {
		if f.audit[i].EventID == eventID {
			out = append(out, f.audit[i])
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeGuestRepo) AddGuests(_ context.Context, eventID, listID string, guests []entity.Guest, audit []entity.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.hasList(eventID, listID) {
		return entity.ErrGuestListNotFound
	}
	summary := f.summaries[eventID]
	for i := range guests {
		g := guests[i]
		f.guests[guestKey(eventID, listID, g.GuestID)] = &g
		summary.Apply(g.EntryDelta())
	}
	f.audit = append(f.audit, audit...)
	return nil
}

func (f *fakeGuestRepo) UpdateGuest(_ context.Context, eventID, listID, guestID string, upd entity.GuestUpdate, actor entity.Actor) (*entity.Guest, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.guests[guestKey(eventID, listID, guestID)]
	if !ok {
		return nil, nil, entity.ErrGuestNotFound
	}
	changed, delta, err := g.ApplyUpdate(upd)
	if err != nil {
		return nil, nil, err
	}
	if len(changed) > 0 {
		f.summaries[eventID].Apply(delta)
		f.audit = append(f.audit, entity.AuditEntry{
			EventID: eventID, GuestName: g.GuestName, Status: entity.GuestStatusUpdated,
			UserID: actor.ID, UserName: actor.Name,
		})
	}
	copied := *g
	return &copied, changed, nil
}

func (f *fakeGuestRepo) CheckInGuest(_ context.Context, eventID, listID, guestID string, mode entity.CheckInMode, normal, free int, actor entity.Actor) (*entity.Guest, entity.GuestDelta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.guests[guestKey(eventID, listID, guestID)]
	if !ok {
		return nil, entity.GuestDelta{}, entity.ErrGuestNotFound
	}
	delta, err := g.ApplyCheckIn(mode, normal, free)
	if err != nil {
		return nil, entity.GuestDelta{}, err
	}
	if !delta.IsZero() {
		f.summaries[eventID].Apply(delta)
		f.audit = append(f.audit, entity.AuditEntry{
			EventID: eventID, GuestName: g.GuestName, Status: entity.GuestStatusCheckedIn,
			UserID: actor.ID, UserName: actor.Name,
		})
	}
	copied := *g
	return &copied, delta, nil
}

func (f *fakeGuestRepo) DeleteGuests(_ context.Context, eventID, listID string, guestIDs []string, actor entity.Actor) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.hasList(eventID, listID) {
		return 0, entity.ErrGuestListNotFound
	}
	deleted := 0
	for _, id := range guestIDs {
		key := guestKey(eventID, listID, id)
		g, ok := f.guests[key]
		if !ok {
			continue
		}
		f.summaries[eventID].Apply(g.EntryDelta().Negate())
		f.audit = append(f.audit, entity.AuditEntry{
			EventID: eventID, GuestName: g.GuestName, Status: entity.GuestStatusDeleted,
			UserID: actor.ID, UserName: actor.Name,
		})
		delete(f.guests, key)
		deleted++
	}
	if deleted == 0 {
		return 0, entity.ErrGuestNotFound
	}
	return deleted, nil
}

func (f *fakeGuestRepo) RecomputeSummary(_ context.Context, eventID string) (*entity.GuestListSummary, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.summaries[eventID]
	if !ok {
		return nil, false, entity.ErrEventNotFound
	}
	var rows []entity.Guest
	for _, g := range f.guests {
		if g.EventID == eventID {
			rows = append(rows, *g)
		}
	}
	want := entity.SummarizeGuests(eventID, rows)
	if *stored != want {
		f.summaries[eventID] = &want
		return &want, true, nil
	}
	return stored, false, nil
}

type fakeTicketRepo struct {
	mu        sync.Mutex
	tickets   map[string]*entity.TicketType // keyed eventID+"/"+ticketID
	summaries map[string]*entity.TicketSummary
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets:   map[string]*entity.TicketType{},
		summaries: map[string]*entity.TicketSummary{},
	}
}

func ticketKey(eventID, ticketID string) string { return eventID + "/" + ticketID }

func (f *fakeTicketRepo) Create(_ context.Context, t *entity.TicketType, _ *entity.ActivityEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *t
	f.tickets[ticketKey(t.EventID, t.ID)] = &copied
	summary, ok := f.summaries[t.EventID]
	if !ok {
		summary = &entity.TicketSummary{EventID: t.EventID}
		f.summaries[t.EventID] = summary
	}
	summary.Apply(t.EntryDelta())
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, eventID, ticketID string) (*entity.TicketType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[ticketKey(eventID, ticketID)]
	if !ok {
		return nil, entity.ErrTicketNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTicketRepo) GetAllByEvent(_ context.Context, eventID string) ([]entity.TicketType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.TicketType
	for _, t := range f.tickets {
		if t.EventID == eventID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTicketRepo) Update(_ context.Context, eventID, ticketID string, upd entity.TicketUpdate, _ *entity.ActivityEntry) (*entity.TicketType, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[ticketKey(eventID, ticketID)]
	if !ok {
		return nil, nil, entity.ErrTicketNotFound
	}
	changed, delta, err := t.ApplyUpdate(upd)
	if err != nil {
		return nil, nil, err
	}
	if len(changed) == 0 {
		return nil, nil, entity.ErrNoChanges
	}
	f.summaries[eventID].Apply(delta)
	copied := *t
	return &copied, changed, nil
}

func (f *fakeTicketRepo) Delete(_ context.Context, eventID, ticketID string, _ *entity.ActivityEntry) (*entity.TicketType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := ticketKey(eventID, ticketID)
	t, ok := f.tickets[key]
	if !ok {
		return nil, entity.ErrTicketNotFound
	}
	if t.Sold() > 0 {
		return nil, entity.ErrHasSoldTickets
	}
	d := t.EntryDelta()
	f.summaries[eventID].Apply(entity.TicketDelta{
		TotalTickets: -d.TotalTickets,
		TicketsSold:  -d.TicketsSold,
		TicketsLeft:  -d.TicketsLeft,
		Revenue:      -d.Revenue,
	})
	delete(f.tickets, key)
	copied := *t
	return &copied, nil
}

func (f *fakeTicketRepo) GetSummary(_ context.Context, eventID string) (*entity.TicketSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.summaries[eventID]
	if !ok {
		return nil, entity.ErrEventNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeTicketRepo) RecomputeSummary(_ context.Context, eventID string) (*entity.TicketSummary, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.summaries[eventID]
	if !ok {
		return nil, false, entity.ErrEventNotFound
	}
	var rows []entity.TicketType
	for _, t := range f.tickets {
		if t.EventID == eventID {
			rows = append(rows, *t)
		}
	}
	want := entity.SummarizeTickets(eventID, rows)
	if *stored != want {
		f.summaries[eventID] = &want
		return &want, true, nil
	}
	return stored, false, nil
}

var errCacheMiss = errors.New("cache miss")

type fakeEventCache struct {
	mu              sync.Mutex
	events          map[string]*entity.Event
	guestSummaries  map[string]*entity.GuestListSummary
	tableSummaries  map[string]*entity.TableAggregate
	ticketSummaries map[string]*entity.TicketSummary
	invalidated     []string
}

func newFakeEventCache() *fakeEventCache {
	return &fakeEventCache{
		events:          map[string]*entity.Event{},
		guestSummaries:  map[string]*entity.GuestListSummary{},
		tableSummaries:  map[string]*entity.TableAggregate{},
		ticketSummaries: map[string]*entity.TicketSummary{},
	}
}

func (f *fakeEventCache) GetEvent(_ context.Context, eventID string) (*entity.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[eventID]
	if !ok {
		return nil, errCacheMiss
	}
	copied := *ev
	return &copied, nil
}

func (f *fakeEventCache) SetEvent(_ context.Context, event *entity.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *event
	f.events[event.ID] = &copied
	return nil
}

func (f *fakeEventCache) GetGuestSummary(_ context.Context, eventID string) (*entity.GuestListSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.guestSummaries[eventID]
	if !ok {
		return nil, errCacheMiss
	}
	copied := *s
	return &copied, nil
}

func (f *fakeEventCache) SetGuestSummary(_ context.Context, s *entity.GuestListSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *s
	f.guestSummaries[s.EventID] = &copied
	return nil
}

func (f *fakeEventCache) GetTableSummary(_ context.Context, eventID string) (*entity.TableAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.tableSummaries[eventID]
	if !ok {
		return nil, errCacheMiss
	}
	copied := *s
	return &copied, nil
}

func (f *fakeEventCache) SetTableSummary(_ context.Context, s *entity.TableAggregate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *s
	f.tableSummaries[s.EventID] = &copied
	return nil
}

func (f *fakeEventCache) GetTicketSummary(_ context.Context, eventID string) (*entity.TicketSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.ticketSummaries[eventID]
	if !ok {
		return nil, errCacheMiss
	}
	copied := *s
	return &copied, nil
}

func (f *fakeEventCache) SetTicketSummary(_ context.Context, s *entity.TicketSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *s
	f.ticketSummaries[s.EventID] = &copied
	return nil
}

func (f *fakeEventCache) InvalidateEvent(_ context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.events, eventID)
	delete(f.guestSummaries, eventID)
	delete(f.tableSummaries, eventID)
	delete(f.ticketSummaries, eventID)
	f.invalidated = append(f.invalidated, eventID)
	return nil
}

type fakePublisher struct {
	mu      sync.Mutex
	entries []*entity.ActivityEntry
}

func (f *fakePublisher) Publish(_ context.Context, entry *entity.ActivityEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakePublisher) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}
