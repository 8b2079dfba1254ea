// Package catalog holds the static DSTY bus-stop table and school location.
// The table is embedded in the binary and versioned with it; it is read-only
// after startup and safe to share without locks.
package catalog

import (
	"errors"
	"fmt"
	"sort"

	"dsty-finder/internal/geo"
	"dsty-finder/internal/models"
)

// ErrStopNotFound is returned by Get for an unknown stop id.
var ErrStopNotFound = errors.New("catalog: bus stop not found")

// Catalog exposes lookups over the bus-stop table.
type Catalog struct {
	stops  []models.BusStop // sorted by id for deterministic scans
	byID   map[string]models.BusStop
	school models.School
}

// New builds a catalog from the given stops and school. An empty stop table
// is a configuration error and refuses to construct.
func New(stops []models.BusStop, school models.School) (*Catalog, error) {
	if len(stops) == 0 {
		return nil, errors.New("catalog: stop table is empty")
	}

	sorted := make([]models.BusStop, len(stops))
	copy(sorted, stops)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byID := make(map[string]models.BusStop, len(sorted))
	for _, s := range sorted {
		if _, dup := byID[s.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate stop id %q", s.ID)
		}
		byID[s.ID] = s
	}

	return &Catalog{stops: sorted, byID: byID, school: school}, nil
}

// Default returns the catalog shipped with the binary.
func Default() *Catalog {
	c, err := New(dstyBusStops, dstySchool)
	if err != nil {
		// The embedded table is validated by tests; reaching here means the
		// binary itself is broken.
		panic(err)
	}
	return c
}

// School returns the commute destination.
func (c *Catalog) School() models.School {
	return c.school
}

// Get looks up a stop by id.
func (c *Catalog) Get(id string) (models.BusStop, error) {
	stop, ok := c.byID[id]
	if !ok {
		return models.BusStop{}, fmt.Errorf("%w: %s", ErrStopNotFound, id)
	}
	return stop, nil
}

// All returns every stop, sorted by id.
func (c *Catalog) All() []models.BusStop {
	out := make([]models.BusStop, len(c.stops))
	copy(out, c.stops)
	return out
}

// Nearest scans all stops and returns the one minimizing walking minutes
// from the given coordinate, together with that walk time. Ties break on
// higher priority, then lexicographic id (guaranteed by scan order).
func (c *Catalog) Nearest(coord geo.Coordinate) (models.BusStop, int) {
	best := c.stops[0]
	bestWalk := geo.WalkMinutesBetween(coord, best.Coordinates)

	for _, stop := range c.stops[1:] {
		walk := geo.WalkMinutesBetween(coord, stop.Coordinates)
		if walk < bestWalk || (walk == bestWalk && stop.Priority > best.Priority) {
			best = stop
			bestWalk = walk
		}
	}

	return best, bestWalk
}
