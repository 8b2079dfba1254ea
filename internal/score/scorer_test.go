package score

import (
	"testing"

	"dsty-finder/internal/catalog"
	"dsty-finder/internal/criteria"
	"dsty-finder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScorer(t *testing.T) *Scorer {
	t.Helper()
	return New(catalog.Default(), criteria.FamilyProfile())
}

func ptr(v float64) *float64 { return &v }

// Listing placed exactly at the school: the commute needs no bus at all.
func schoolsideListing() models.Listing {
	return models.Listing{
		ID:               "schoolside",
		PriceJPY:         265000,
		LayoutCode:       "3LDK",
		WalkToStationMin: 3,
		Parking:          models.ParkingYes,
		Lat:              ptr(35.5658),
		Lng:              ptr(139.5789),
		Active:           true,
	}
}

func TestScoreSchoolWalkableListing(t *testing.T) {
	s := newScorer(t)

	scored := s.Score(schoolsideListing())

	// 25 budget + 20 layout + 35 school-walk access + 10 station + 5 parking.
	assert.Equal(t, 95, scored.Score)
	require.NotEmpty(t, scored.Reasons)
	assert.Contains(t, scored.Reasons[0], "Perfect budget fit")
	require.NotNil(t, scored.WalkToSchoolMin)
	assert.Equal(t, 0, *scored.WalkToSchoolMin)
}

func TestScoreSchoolBranchSkipsRouteBonus(t *testing.T) {
	s := newScorer(t)

	for _, c := range s.Explain(schoolsideListing()) {
		assert.NotEqual(t, "route_bonus", c.Component)
		assert.NotEqual(t, "extra_yellow", c.Component)
	}
}

// Listing at the Sony stop: bus commute on the Yellow loop.
func sonysideListing() models.Listing {
	return models.Listing{
		ID:               "sonyside",
		PriceJPY:         315000,
		LayoutCode:       "3LDK",
		WalkToStationMin: 12,
		Parking:          models.ParkingYes,
		Lat:              ptr(35.6242),
		Lng:              ptr(139.7423),
		Active:           true,
	}
}

func TestScoreBusBranchAtYellowStop(t *testing.T) {
	s := newScorer(t)

	scored := s.Score(sonysideListing())

	// 25 budget + 20 layout + 25 access (WS=0) + 10 route + 4 station
	// + 5 parking + 5 yellow loop.
	assert.Equal(t, 94, scored.Score)
	assert.Equal(t, "sony", scored.NearestStopID)
	assert.Equal(t, string(models.RouteYellow), scored.RouteTag)
	require.NotNil(t, scored.WalkToStopMin)
	assert.Equal(t, 0, *scored.WalkToStopMin)
}

func TestScorePremiumRouteHouse(t *testing.T) {
	s := newScorer(t)

	// About 500m south of Denenchofu Station (Pink, priority 10).
	listing := models.Listing{
		ID:               "denenchofu-house",
		PriceJPY:         380000,
		LayoutCode:       "4LDK",
		WalkToStationMin: 6,
		Parking:          models.ParkingYes,
		BuildingType:     models.BuildingHouse,
		Lat:              ptr(35.5974),
		Lng:              ptr(139.6692),
		Active:           true,
	}

	scored := s.Score(listing)

	// 18 budget (within +50k) + 18 layout + 22 access + 10 route +
	// 7 station + 5 parking + 3 house.
	assert.Equal(t, 83, scored.Score)
	assert.Equal(t, "denenchofu_station", scored.NearestStopID)
	require.NotNil(t, scored.WalkToStopMin)
	assert.Equal(t, 6, *scored.WalkToStopMin)
}

func TestScoreWithoutCoordinates(t *testing.T) {
	s := newScorer(t)

	listing := models.Listing{
		ID:               "no-coords",
		PriceJPY:         300000,
		LayoutCode:       "3LDK",
		WalkToStationMin: 5,
		Active:           true,
	}

	scored := s.Score(listing)

	// 25 budget + 20 layout + 10 station. Access and route are omitted.
	assert.Equal(t, 55, scored.Score)
	assert.Empty(t, scored.NearestStopID)
	assert.Nil(t, scored.WalkToStopMin)
	assert.Nil(t, scored.WalkToSchoolMin)
	assert.Equal(t, "Location not geocoded - access unknown", scored.FamilySuitability)

	for _, c := range s.Explain(listing) {
		assert.NotEqual(t, "access", c.Component)
		assert.NotEqual(t, "route_bonus", c.Component)
	}
}

func TestScoreNeverDropsAsSchoolWalkShrinks(t *testing.T) {
	s := newScorer(t)

	// Due north of the school: 0.0105, 0.0067 and 0.0030 degrees of
	// latitude give school walks of 14, 9 and 4 minutes.
	latitudes := []float64{35.5763, 35.5725, 35.5688}

	prev := -1
	for _, lat := range latitudes {
		listing := schoolsideListing()
		listing.Lat = ptr(lat)

		scored := s.Score(listing)
		require.NotNil(t, scored.WalkToSchoolMin)
		assert.LessOrEqual(t, *scored.WalkToSchoolMin, 15)
		assert.GreaterOrEqual(t, scored.Score, prev, "walk %d min", *scored.WalkToSchoolMin)
		prev = scored.Score
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	s := newScorer(t)
	listing := sonysideListing()

	first := s.Score(listing)
	for i := 0; i < 5; i++ {
		again := s.Score(listing)
		assert.Equal(t, first.Score, again.Score)
		assert.Equal(t, first.Reasons, again.Reasons)
	}
}

func TestScoreDoesNotMutateInput(t *testing.T) {
	s := newScorer(t)

	listing := sonysideListing()
	s.Score(listing)

	assert.Equal(t, 0, listing.Score)
	assert.Empty(t, listing.Reasons)
	assert.Empty(t, listing.NearestStopID)
}

func TestScoreStaysWithinBounds(t *testing.T) {
	s := newScorer(t)

	listings := []models.Listing{
		schoolsideListing(),
		sonysideListing(),
		{ID: "bare", PriceJPY: 999999, LayoutCode: "1K", WalkToStationMin: 90},
		{ID: "cheap", PriceJPY: 60000, LayoutCode: "Unknown", WalkToStationMin: 99},
	}

	for _, l := range listings {
		scored := s.Score(l)
		assert.GreaterOrEqual(t, scored.Score, 0, l.ID)
		assert.LessOrEqual(t, scored.Score, 100, l.ID)
	}
}

func TestExtrasShareTenPointCap(t *testing.T) {
	s := newScorer(t)

	// Parking (5) + house (3) + yellow loop (5) would be 13 uncapped.
	listing := sonysideListing()
	listing.BuildingType = models.BuildingHouse

	extras := 0
	for _, c := range s.Explain(listing) {
		switch c.Component {
		case "extra_parking", "extra_house", "extra_yellow":
			extras += c.Points
		}
	}
	assert.Equal(t, 10, extras)
}

func TestExplainMatchesScore(t *testing.T) {
	s := newScorer(t)

	for _, listing := range []models.Listing{schoolsideListing(), sonysideListing()} {
		scored := s.Score(listing)

		total := 0
		var reasons []string
		for _, c := range s.Explain(listing) {
			total += c.Points
			reasons = append(reasons, c.Reason)
		}

		assert.Equal(t, scored.Score, total)
		assert.Equal(t, []string(scored.Reasons), reasons)
	}
}

func TestReasonsFollowEvaluationOrder(t *testing.T) {
	s := newScorer(t)

	contributions := s.Explain(sonysideListing())
	var order []string
	for _, c := range contributions {
		order = append(order, c.Component)
	}

	assert.Equal(t, []string{"budget", "layout", "access", "route_bonus", "station", "extra_parking", "extra_yellow"}, order)
}

func TestBudgetBands(t *testing.T) {
	s := newScorer(t)

	cases := []struct {
		price int
		want  int
	}{
		{265000, 25}, // inside the sweet band
		{200000, 20}, // under budget
		{380000, 18}, // within 50k over
		{450000, 10}, // far over
	}

	for _, tc := range cases {
		listing := models.Listing{ID: "p", PriceJPY: tc.price, LayoutCode: "Unknown", WalkToStationMin: 99}
		found := false
		for _, c := range s.Explain(listing) {
			if c.Component == "budget" {
				assert.Equal(t, tc.want, c.Points, "price %d", tc.price)
				found = true
			}
		}
		assert.True(t, found, "price %d", tc.price)
	}
}

func TestLayoutBands(t *testing.T) {
	s := newScorer(t)

	cases := map[string]int{
		"3LDK": 20,
		"4LDK": 18,
		"2LDK": 15,
	}

	for layout, want := range cases {
		listing := models.Listing{ID: "l", PriceJPY: 300000, LayoutCode: layout, WalkToStationMin: 99}
		for _, c := range s.Explain(listing) {
			if c.Component == "layout" {
				assert.Equal(t, want, c.Points, layout)
			}
		}
	}

	// Unknown layouts contribute nothing at all.
	listing := models.Listing{ID: "l", PriceJPY: 300000, LayoutCode: "1K", WalkToStationMin: 99}
	for _, c := range s.Explain(listing) {
		assert.NotEqual(t, "layout", c.Component)
	}
}
