package entity

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// EventTime accepts both RFC3339 instants and the minute-precision layout the
// operator UI sends, and stores everything in UTC.
type EventTime struct {
	time.Time
}

const shortTimeLayout = "2006-01-02T15:04"

func (et *EventTime) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("invalid time literal %s", string(b))
	}
	s := string(b[1 : len(b)-1])

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		et.Time = t.UTC()
		return nil
	}
	t, err := time.Parse(shortTimeLayout, s)
	if err != nil {
		return err
	}
	et.Time = t.UTC()
	return nil
}

func (et EventTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + et.UTC().Format(time.RFC3339) + `"`), nil
}

func (et EventTime) Value() (driver.Value, error) {
	return et.Time, nil
}

func (et *EventTime) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case time.Time:
		et.Time = v
	case []byte:
		t, err := time.Parse("2006-01-02 15:04:05", string(v))
		if err != nil {
			return err
		}
		et.Time = t
	default:
		return fmt.Errorf("cannot scan type %T into EventTime", value)
	}
	return nil
}
