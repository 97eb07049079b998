package service

import (
	"time"

	"github.com/venuedesk/backend/internal/entity"
)

// layoutDiff is the outcome of comparing an event's attached layout set with a
// requested one.
type layoutDiff struct {
	Added   []string
	Removed []string
	Kept    []string
}

func (d layoutDiff) Changed() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0
}

// diffLayouts compares the current and requested layout id sets. Order is
// ignored; duplicates collapse. Output slices preserve request order for Added
// and current order for Removed and Kept.
func diffLayouts(current, requested []string) layoutDiff {
	currentSet := make(map[string]bool, len(current))
	for _, id := range current {
		currentSet[id] = true
	}
	requestedSet := make(map[string]bool, len(requested))
	for _, id := range requested {
		requestedSet[id] = true
	}

	var d layoutDiff
	seen := make(map[string]bool, len(requested))
	for _, id := range requested {
		if seen[id] {
			continue
		}
		seen[id] = true
		if !currentSet[id] {
			d.Added = append(d.Added, id)
		}
	}
	for _, id := range current {
		if requestedSet[id] {
			d.Kept = append(d.Kept, id)
		} else {
			d.Removed = append(d.Removed, id)
		}
	}
	return d
}

// buildTableList instantiates a layout template as an event's floor plan. The
// list id equals the layout id; every item gets a creation log entry stamped
// with the acting user.
func buildTableList(eventID string, layout *entity.Layout, actor entity.Actor, action string, now time.Time) (entity.TableList, []entity.TableItem) {
	list := entity.TableList{
		EventID: eventID,
		ID:      layout.ID,
		Name:    layout.Name,
	}
	items := make([]entity.TableItem, 0, len(layout.Items))
	for i, tpl := range layout.Items {
		item := tpl
		item.EventID = eventID
		item.ListID = layout.ID
		item.Ord = i
		item.Logs = []entity.GuestLogEntry{{
			Action:    action,
			ActorID:   actor.ID,
			ActorName: actor.Name,
			At:        now,
		}}
		items = append(items, item)
	}
	return list, items
}
