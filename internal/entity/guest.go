package entity

import (
	"fmt"
	"time"
)

// DefaultGuestListID is the list every event starts with.
const DefaultGuestListID = "main"

// Guest ledger audit statuses, mirrored into the per-event audit log.
const (
	GuestStatusAdded     = "added"
	GuestStatusUpdated   = "updated"
	GuestStatusCheckedIn = "checked_in"
	GuestStatusDeleted   = "deleted"
)

// GuestLogEntry is one line of a guest's own append-only history.
type GuestLogEntry struct {
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	At        time.Time `json:"at"`
}

type GuestList struct {
	EventID string `json:"event_id" db:"event_id"`
	ID      string `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
}

type Guest struct {
	EventID         string          `json:"event_id" db:"event_id"`
	ListID          string          `json:"list_id" db:"list_id"`
	GuestID         string          `json:"guest_id" db:"guest_id"`
	GuestName       string          `json:"guest_name" db:"guest_name"`
	NormalGuests    int             `json:"normal_guests" db:"normal_guests"`
	FreeGuests      int             `json:"free_guests" db:"free_guests"`
	NormalCheckedIn int             `json:"normal_checked_in" db:"normal_checked_in"`
	FreeCheckedIn   int             `json:"free_checked_in" db:"free_checked_in"`
	Comment         string          `json:"comment,omitempty" db:"comment"`
	Categories      []string        `json:"categories" db:"categories"`
	Logs            []GuestLogEntry `json:"logs" db:"logs"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// GuestUpdate carries the fields an update operation may change. Nil means
// "leave as is", which is distinct from a zero value.
type GuestUpdate struct {
	GuestName    *string   `json:"guest_name,omitempty"`
	NormalGuests *int      `json:"normal_guests,omitempty"`
	FreeGuests   *int      `json:"free_guests,omitempty"`
	Comment      *string   `json:"comment,omitempty"`
	Categories   *[]string `json:"categories,omitempty"`
}

// CheckInMode selects between repeated tap-to-check-in deltas and absolute
// assignment.
type CheckInMode string

const (
	CheckInIncrement CheckInMode = "increment"
	CheckInSet       CheckInMode = "set"
)

// GuestDelta is the contribution of one ledger mutation to the shared
// guest-list summary.
type GuestDelta struct {
	Guests          int
	CheckedIn       int
	NormalGuests    int
	FreeGuests      int
	NormalCheckedIn int
	FreeCheckedIn   int
}

func (d GuestDelta) IsZero() bool {
	return d == GuestDelta{}
}

func (d GuestDelta) Add(o GuestDelta) GuestDelta {
	d.Guests += o.Guests
	d.CheckedIn += o.CheckedIn
	d.NormalGuests += o.NormalGuests
	d.FreeGuests += o.FreeGuests
	d.NormalCheckedIn += o.NormalCheckedIn
	d.FreeCheckedIn += o.FreeCheckedIn
	return d
}

// Negate returns the delta that undoes d.
func (d GuestDelta) Negate() GuestDelta {
	return GuestDelta{
		Guests:          -d.Guests,
		CheckedIn:       -d.CheckedIn,
		NormalGuests:    -d.NormalGuests,
		FreeGuests:      -d.FreeGuests,
		NormalCheckedIn: -d.NormalCheckedIn,
		FreeCheckedIn:   -d.FreeCheckedIn,
	}
}

// EntryDelta is the guest's full contribution to the summary, used when the
// guest is added or removed.
func (g *Guest) EntryDelta() GuestDelta {
	return GuestDelta{
		Guests:          g.NormalGuests + g.FreeGuests,
		CheckedIn:       g.NormalCheckedIn + g.FreeCheckedIn,
		NormalGuests:    g.NormalGuests,
		FreeGuests:      g.FreeGuests,
		NormalCheckedIn: g.NormalCheckedIn,
		FreeCheckedIn:   g.FreeCheckedIn,
	}
}

// ApplyCheckIn mutates the guest's checked-in counters according to mode and
// returns the resulting summary delta. The counters can never leave the
// [0, guests] range; violations return ErrCheckInLimitExceeded or a validation
// error without mutating the guest. A zero-effect call returns a zero delta.
func (g *Guest) ApplyCheckIn(mode CheckInMode, normal, free int) (GuestDelta, error) {
	newNormal := g.NormalCheckedIn
	newFree := g.FreeCheckedIn

	switch mode {
	case CheckInIncrement:
		newNormal += normal
		newFree += free
	case CheckInSet:
		newNormal = normal
		newFree = free
	default:
		return GuestDelta{}, NewValidationError("mode", fmt.Sprintf("unknown check-in mode %q", mode))
	}

	if newNormal < 0 || newFree < 0 {
		return GuestDelta{}, NewValidationError("checked_in", "checked-in count cannot be negative")
	}
	if newNormal > g.NormalGuests || newFree > g.FreeGuests {
		return GuestDelta{}, ErrCheckInLimitExceeded
	}

	delta := GuestDelta{
		CheckedIn:       (newNormal - g.NormalCheckedIn) + (newFree - g.FreeCheckedIn),
		NormalCheckedIn: newNormal - g.NormalCheckedIn,
		FreeCheckedIn:   newFree - g.FreeCheckedIn,
	}

	g.NormalCheckedIn = newNormal
	g.FreeCheckedIn = newFree
	return delta, nil
}

// ApplyUpdate applies the supplied fields to the guest and returns the names
// of the fields that actually changed plus the summary delta caused by count
// changes. An update that would drop a guest count below its checked-in
// counter is rejected. An identical payload returns no changes and leaves the
// guest untouched.
func (g *Guest) ApplyUpdate(upd GuestUpdate) ([]string, GuestDelta, error) {
	var changed []string
	var delta GuestDelta

	if upd.NormalGuests != nil && *upd.NormalGuests != g.NormalGuests {
		if *upd.NormalGuests < 0 {
			return nil, GuestDelta{}, NewValidationError("normal_guests", "guest count cannot be negative")
		}
		if *upd.NormalGuests < g.NormalCheckedIn {
			return nil, GuestDelta{}, NewValidationError("normal_guests",
				fmt.Sprintf("cannot reduce guest count below %d already checked in", g.NormalCheckedIn))
		}
	}
	if upd.FreeGuests != nil && *upd.FreeGuests != g.FreeGuests {
		if *upd.FreeGuests < 0 {
			return nil, GuestDelta{}, NewValidationError("free_guests", "guest count cannot be negative")
		}
		if *upd.FreeGuests < g.FreeCheckedIn {
			return nil, GuestDelta{}, NewValidationError("free_guests",
				fmt.Sprintf("cannot reduce guest count below %d already checked in", g.FreeCheckedIn))
		}
	}

	if upd.GuestName != nil && *upd.GuestName != g.GuestName {
		g.GuestName = *upd.GuestName
		changed = append(changed, "guest_name")
	}
	if upd.NormalGuests != nil && *upd.NormalGuests != g.NormalGuests {
		diff := *upd.NormalGuests - g.NormalGuests
		delta.Guests += diff
		delta.NormalGuests += diff
		g.NormalGuests = *upd.NormalGuests
		changed = append(changed, "normal_guests")
	}
	if upd.FreeGuests != nil && *upd.FreeGuests != g.FreeGuests {
		diff := *upd.FreeGuests - g.FreeGuests
		delta.Guests += diff
		delta.FreeGuests += diff
		g.FreeGuests = *upd.FreeGuests
		changed = append(changed, "free_guests")
	}
	if upd.Comment != nil && *upd.Comment != g.Comment {
		g.Comment = *upd.Comment
		changed = append(changed, "comment")
	}
	if upd.Categories != nil && !equalStrings(*upd.Categories, g.Categories) {
		g.Categories = *upd.Categories
		changed = append(changed, "categories")
	}

	return changed, delta, nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// GuestListSummary is the per-event aggregate over every guest row. One
// summary is shared by all named lists of the event.
type GuestListSummary struct {
	EventID         string `json:"event_id" db:"event_id"`
	TotalGuests     int    `json:"total_guests" db:"total_guests"`
	TotalCheckedIn  int    `json:"total_checked_in" db:"total_checked_in"`
	NormalGuests    int    `json:"normal_guests" db:"normal_guests"`
	FreeGuests      int    `json:"free_guests" db:"free_guests"`
	NormalCheckedIn int    `json:"normal_checked_in" db:"normal_checked_in"`
	FreeCheckedIn   int    `json:"free_checked_in" db:"free_checked_in"`
}

// Apply folds a delta into the summary.
func (s *GuestListSummary) Apply(d GuestDelta) {
	s.TotalGuests += d.Guests
	s.TotalCheckedIn += d.CheckedIn
	s.NormalGuests += d.NormalGuests
	s.FreeGuests += d.FreeGuests
	s.NormalCheckedIn += d.NormalCheckedIn
	s.FreeCheckedIn += d.FreeCheckedIn
}

// SummarizeGuests recomputes the aggregate from guest rows. Used by the
// reconciliation worker and by tests as the source of truth.
func SummarizeGuests(eventID string, guests []Guest) GuestListSummary {
	s := GuestListSummary{EventID: eventID}
	for i := range guests {
		s.Apply(guests[i].EntryDelta())
	}
	return s
}

// AuditEntry is one row of the per-event append-only guest audit log.
type AuditEntry struct {
	EventID   string    `json:"event_id" db:"event_id"`
	GuestName string    `json:"guest_name" db:"guest_name"`
	Status    string    `json:"status" db:"status"`
	UserID    string    `json:"user_id" db:"user_id"`
	UserName  string    `json:"user_name" db:"user_name"`
	AddedAt   time.Time `json:"added_at" db:"added_at"`
}
