package clinic

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day without a time component.
type Date struct {
	t time.Time
}

// NewDate returns the calendar day y-m-d.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day t falls on in its own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate accepts YYYY-MM-DD. A full RFC3339 timestamp is also accepted
// and truncated to its date part, as older clients send toISOString().
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) && s[len(dateLayout)] == 'T' {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, Invalid("day", fmt.Sprintf("%q is not a YYYY-MM-DD date", s))
	}
	return Date{t: t}, nil
}

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) String() string { return d.t.Format(dateLayout) }

// Time returns midnight UTC of the day, the form stored in DATE columns.
func (d Date) Time() time.Time { return d.t }

func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return Invalid("day", "must be a string")
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Calendar resolves "today" in the clinic's single locale.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// NewCalendar builds a calendar for loc. A nil now uses time.Now.
func NewCalendar(loc *time.Location, now func() time.Time) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Calendar{loc: loc, now: now}
}

// LoadCalendar builds a wall-clock calendar for an IANA zone name.
func LoadCalendar(timezone string) (*Calendar, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load clinic timezone %q: %w", timezone, err)
	}
	return NewCalendar(loc, nil), nil
}

func (c *Calendar) Location() *time.Location { return c.loc }

// Now returns the current instant expressed in the clinic locale.
func (c *Calendar) Now() time.Time { return c.now().In(c.loc) }

func (c *Calendar) Today() Date { return DateOf(c.Now()) }

// Bounds returns [start of d, start of the following day) in the clinic
// locale. AddDate keeps the range correct across DST changes.
func (c *Calendar) Bounds(d Date) (time.Time, time.Time) {
	y, m, day := d.t.Date()
	start := time.Date(y, m, day, 0, 0, 0, 0, c.loc)
	return start, start.AddDate(0, 0, 1)
}
