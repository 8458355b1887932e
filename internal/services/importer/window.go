package importer

import (
    "fmt"
    "time"
)

const DateLayout = "2006-01-02"

// WeekWindow returns Monday of now's week through now, as yyyy-MM-dd dates
// in now's location.
func WeekWindow(now time.Time) (start, end string) {
    offset := (int(now.Weekday()) + 6) % 7
    y, m, d := now.Date()
    monday := time.Date(y, m, d-offset, 0, 0, 0, 0, now.Location())
    return monday.Format(DateLayout), now.Format(DateLayout)
}

// ValidateDates checks both dates parse and start is not after end.
func ValidateDates(start, end string) error {
    s, err := time.Parse(DateLayout, start)
    if err != nil {
        return fmt.Errorf("%w: startDate %q: want yyyy-MM-dd", ErrInvalidDateRange, start)
    }
    e, err := time.Parse(DateLayout, end)
    if err != nil {
        return fmt.Errorf("%w: endDate %q: want yyyy-MM-dd", ErrInvalidDateRange, end)
    }
    if s.After(e) {
        return fmt.Errorf("%w: startDate %s is after endDate %s", ErrInvalidDateRange, start, end)
    }
    return nil
}
