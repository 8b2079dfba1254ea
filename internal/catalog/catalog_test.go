package catalog

import (
	"testing"

	"dsty-finder/internal/geo"
	"dsty-finder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogLoads(t *testing.T) {
	c := Default()

	assert.Len(t, c.All(), 18)
	assert.Equal(t, "Deutsche Schule Tokyo Yokohama", c.School().Name)
	assert.Equal(t, 15, c.School().AcceptableWalkMinutes)
}

func TestNewRejectsEmptyTable(t *testing.T) {
	_, err := New(nil, dstySchool)
	assert.Error(t, err)
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	stops := []models.BusStop{
		{ID: "a", Route: models.RoutePink, Priority: 5},
		{ID: "a", Route: models.RouteGreen, Priority: 3},
	}
	_, err := New(stops, dstySchool)
	assert.Error(t, err)
}

func TestGet(t *testing.T) {
	c := Default()

	stop, err := c.Get("sony")
	require.NoError(t, err)
	assert.Equal(t, models.RouteYellow, stop.Route)
	assert.Equal(t, 10, stop.Priority)

	_, err = c.Get("no_such_stop")
	assert.ErrorIs(t, err, ErrStopNotFound)
}

func TestNearestAtExactStopCoordinate(t *testing.T) {
	c := Default()

	sony, err := c.Get("sony")
	require.NoError(t, err)

	stop, walk := c.Nearest(sony.Coordinates)
	assert.Equal(t, "sony", stop.ID)
	assert.Equal(t, 0, walk)
}

func TestNearestTieBreaksOnPriority(t *testing.T) {
	school := models.School{Name: "s", AcceptableWalkMinutes: 15}
	stops := []models.BusStop{
		{ID: "low", Route: models.RouteGreen, Priority: 3, Coordinates: geo.Coordinate{Lat: 35.60, Lng: 139.70}},
		{ID: "high", Route: models.RoutePink, Priority: 9, Coordinates: geo.Coordinate{Lat: 35.60, Lng: 139.70}},
	}
	c, err := New(stops, school)
	require.NoError(t, err)

	stop, _ := c.Nearest(geo.Coordinate{Lat: 35.60, Lng: 139.70})
	assert.Equal(t, "high", stop.ID)
}

func TestNearestTieBreaksOnIDWhenPriorityEqual(t *testing.T) {
	school := models.School{Name: "s", AcceptableWalkMinutes: 15}
	coord := geo.Coordinate{Lat: 35.60, Lng: 139.70}
	stops := []models.BusStop{
		{ID: "zeta", Route: models.RouteGreen, Priority: 5, Coordinates: coord},
		{ID: "alpha", Route: models.RoutePink, Priority: 5, Coordinates: coord},
	}
	c, err := New(stops, school)
	require.NoError(t, err)

	stop, _ := c.Nearest(coord)
	assert.Equal(t, "alpha", stop.ID)
}

func TestNearestIsDeterministic(t *testing.T) {
	c := Default()
	coord := geo.Coordinate{Lat: 35.615, Lng: 139.68}

	first, firstWalk := c.Nearest(coord)
	for i := 0; i < 10; i++ {
		stop, walk := c.Nearest(coord)
		assert.Equal(t, first.ID, stop.ID)
		assert.Equal(t, firstWalk, walk)
	}
}
