package servicehours

import "time"

// UnblockedTripPolicy decides what happens to trips without a block id on
// days where other trips do carry one. Historically such trips contributed
// nothing, which Exclude preserves; PerTrip lets them fall back to their own
// per-trip span.
type UnblockedTripPolicy string

const (
	UnblockedTripsExcluded UnblockedTripPolicy = "exclude"
	UnblockedTripsPerTrip  UnblockedTripPolicy = "per_trip"
)

// Options configures a computation.
type Options struct {
	UnblockedTrips UnblockedTripPolicy
}

type extent struct {
	minDeparture time.Duration
	maxArrival   time.Duration
}

func (e *extent) extend(rows []spanRow) {
	for _, r := range rows {
		if r.departure < e.minDeparture {
			e.minDeparture = r.departure
		}
		if r.arrival > e.maxArrival {
			e.maxArrival = r.arrival
		}
	}
}

// DayHours computes the service hours contributed by a single date: trips of
// the active services are joined to their parsed stop-time rows, grouped by
// block id when any joined trip has one (by trip id otherwise), and each
// group's strictly positive max(arrival)-min(departure) span is summed.
func (d *Dataset) DayHours(date time.Time, opts Options) float64 {
	return d.hoursForServices(d.ActiveServices(date), opts)
}

func (d *Dataset) hoursForServices(active map[string]struct{}, opts Options) float64 {
	var selected []*tripEntry
	blockMode := false

	for id := range active {
		for _, ti := range d.tripsByService[id] {
			t := &d.trips[ti]
			if len(t.rows) == 0 {
				// inner join: trips without usable stop-time rows drop out
				continue
			}
			selected = append(selected, t)
			if t.blockID != "" {
				blockMode = true
			}
		}
	}
	if len(selected) == 0 {
		return 0
	}

	groups := make(map[string]*extent)
	extend := func(key string, rows []spanRow) {
		g, ok := groups[key]
		if !ok {
			g = &extent{minDeparture: rows[0].departure, maxArrival: rows[0].arrival}
			groups[key] = g
		}
		g.extend(rows)
	}

	for _, t := range selected {
		switch {
		case !blockMode:
			extend("trip:"+t.tripID, t.rows)
		case t.blockID != "":
			extend("block:"+t.blockID, t.rows)
		case opts.UnblockedTrips == UnblockedTripsPerTrip:
			extend("trip:"+t.tripID, t.rows)
		}
		// unblocked trips in block mode are otherwise excluded
	}

	total := 0.0
	for _, g := range groups {
		if span := g.maxArrival - g.minDeparture; span > 0 {
			total += span.Hours()
		}
	}
	return total
}
