package servicehours

import "time"

// ActiveServices resolves the set of service ids running on the given date:
// weekly patterns whose weekday flag is set and whose validity window
// contains the date (both bounds inclusive), plus ADD exceptions for exactly
// that date, minus REMOVE exceptions. A REMOVE always wins, and exceptions
// apply even when the feed carries no weekly patterns at all.
func (d *Dataset) ActiveServices(date time.Time) map[string]struct{} {
	date = dateOnly(date)
	weekday := date.Weekday()
	key := date.Format("20060102")

	active := make(map[string]struct{})

	for _, p := range d.patterns {
		if !p.weekdays[weekday] {
			continue
		}
		if date.Before(p.start) || date.After(p.end) {
			continue
		}
		active[p.serviceID] = struct{}{}
	}

	for id := range d.added[key] {
		active[id] = struct{}{}
	}
	for id := range d.removed[key] {
		delete(active, id)
	}

	return active
}
