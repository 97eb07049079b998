package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/venuedesk/backend/internal/entity"
)

// EventCache is a read-through cache over event documents and the three
// per-event summary aggregates. Every mutation path invalidates the whole
// event key group.
type EventCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewEventCache(client *redis.Client, ttl time.Duration) *EventCache {
	return &EventCache{client: client, ttl: ttl}
}

func (c *EventCache) GetEvent(ctx context.Context, eventID string) (*entity.Event, error) {
	var event entity.Event
	if err := c.get(ctx, "event:"+eventID, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *EventCache) SetEvent(ctx context.Context, event *entity.Event) error {
	return c.set(ctx, "event:"+event.ID, event)
}

func (c *EventCache) GetGuestSummary(ctx context.Context, eventID string) (*entity.GuestListSummary, error) {
	var s entity.GuestListSummary
	if err := c.get(ctx, "guest_summary:"+eventID, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *EventCache) SetGuestSummary(ctx context.Context, s *entity.GuestListSummary) error {
	return c.set(ctx, "guest_summary:"+s.EventID, s)
}

func (c *EventCache) GetTableSummary(ctx context.Context, eventID string) (*entity.TableAggregate, error) {
	var s entity.TableAggregate
	if err := c.get(ctx, "table_summary:"+eventID, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *EventCache) SetTableSummary(ctx context.Context, s *entity.TableAggregate) error {
	return c.set(ctx, "table_summary:"+s.EventID, s)
}

func (c *EventCache) GetTicketSummary(ctx context.Context, eventID string) (*entity.TicketSummary, error) {
	var s entity.TicketSummary
	if err := c.get(ctx, "ticket_summary:"+eventID, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *EventCache) SetTicketSummary(ctx context.Context, s *entity.TicketSummary) error {
	return c.set(ctx, "ticket_summary:"+s.EventID, s)
}

func (c *EventCache) InvalidateEvent(ctx context.Context, eventID string) error {
	return c.client.Del(ctx,
		"event:"+eventID,
		"guest_summary:"+eventID,
		"table_summary:"+eventID,
		"ticket_summary:"+eventID,
	).Err()
}

func (c *EventCache) get(ctx context.Context, key string, dst interface{}) error {
	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dst)
}

func (c *EventCache) set(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}
