package chrono

import "time"

// DateLayout is how every calendar day is formatted, both in queries and in records.
const DateLayout = "2006-01-02"

type API interface {
	Now() time.Time
	Location() *time.Location
}

type StandardImpl struct {
	location *time.Location
}

// NewStandardImpl creates a clock in the given IANA time zone, an empty
// name or "Local" means the machine's local time zone.
func NewStandardImpl(timezone string) (StandardImpl, error) {
	if timezone == "" || timezone == "Local" {
		return StandardImpl{location: time.Local}, nil
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return StandardImpl{}, err
	}
	return StandardImpl{location: location}, nil
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

// FixedImpl always returns the same instant.
type FixedImpl struct {
	At time.Time
}

func (f FixedImpl) Now() time.Time {
	return f.At
}

func (f FixedImpl) Location() *time.Location {
	return f.At.Location()
}

// Date formats the calendar day of t.
func Date(t time.Time) string {
	return t.Format(DateLayout)
}

// Yesterday returns the calendar day before the clock's current day.
func Yesterday(clock API) time.Time {
	now := clock.Now()
	return time.Date(now.Year(), now.Month(), now.Day()-1, 0, 0, 0, 0, now.Location())
}
