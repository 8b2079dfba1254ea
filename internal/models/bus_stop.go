package models

import "dsty-finder/internal/geo"

// RouteTag identifies which chartered shuttle loop serves a stop.
type RouteTag string

const (
	RoutePink   RouteTag = "Pink"
	RouteYellow RouteTag = "Yellow"
	RouteGreen  RouteTag = "Green"
	RouteOrange RouteTag = "Orange"
	RouteSchool RouteTag = "School"
)

// BusStop is an immutable catalog entry for a chartered bus pickup point.
type BusStop struct {
	ID            string         `json:"id"`
	NamePrimary   string         `json:"name_primary"`
	NameSecondary string         `json:"name_secondary"`
	Route         RouteTag       `json:"route_tag"`
	Priority      int            `json:"priority"` // 1-10, higher is better
	Coordinates   geo.Coordinate `json:"coordinates"`
	Description   string         `json:"description"`
}

// School is the commute destination. Loaded once per process.
type School struct {
	Name                  string         `json:"name"`
	Coordinates           geo.Coordinate `json:"coordinates"`
	AcceptableWalkMinutes int            `json:"acceptable_walk_minutes"`
}
