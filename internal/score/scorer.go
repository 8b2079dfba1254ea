// Package score houses every policy knob of the ranking engine. The scorer
// is pure: the same listing, catalog and criteria always produce the same
// score and the same ordered reasons.
package score

import (
	"fmt"
	"strconv"
	"strings"

	"dsty-finder/internal/catalog"
	"dsty-finder/internal/criteria"
	"dsty-finder/internal/geo"
	"dsty-finder/internal/models"
)

const (
	maxScore       = 100
	maxExtraPoints = 10
)

// Scorer evaluates listings against one criteria profile.
type Scorer struct {
	catalog *catalog.Catalog
	school  models.School
	profile *criteria.Profile
}

func New(cat *catalog.Catalog, profile *criteria.Profile) *Scorer {
	return &Scorer{
		catalog: cat,
		school:  cat.School(),
		profile: profile,
	}
}

// Contribution is one evaluated row of the scoring table.
type Contribution struct {
	Component string `json:"component"`
	Points    int    `json:"points"`
	Reason    string `json:"reason"`
}

// access carries the resolved bus/school facts for one listing.
type access struct {
	hasCoords    bool
	stop         models.BusStop
	walkToStop   int
	walkToSchool int
	schoolBranch bool // school itself is walkable, bus irrelevant
	busBranch    bool // coordinates present, school not walkable
}

// component is one row of the scoring table. Rows that do not apply
// contribute neither points nor a reason.
type component struct {
	name string
	eval func(l *models.Listing, a access, p *criteria.Profile) (points int, reason string, applied bool)
}

// table lists the components in the order their reasons appear.
var table = []component{
	{name: "budget", eval: evalBudget},
	{name: "layout", eval: evalLayout},
	{name: "access", eval: evalAccess},
	{name: "route_bonus", eval: evalRouteBonus},
	{name: "station", eval: evalStation},
	{name: "extra_parking", eval: evalParkingExtra},
	{name: "extra_house", eval: evalHouseExtra},
	{name: "extra_yellow", eval: evalYellowExtra},
}

// Score returns a new annotated copy of the listing. The input is never
// mutated.
func (s *Scorer) Score(listing models.Listing) models.Listing {
	a := s.resolveAccess(&listing)
	contributions := evaluate(&listing, a, s.profile)

	total := 0
	reasons := make(models.StringList, 0, len(contributions))
	for _, c := range contributions {
		total += c.Points
		reasons = append(reasons, c.Reason)
	}
	if total > maxScore {
		total = maxScore
	}
	if total < 0 {
		total = 0
	}

	scored := listing
	if a.hasCoords {
		scored.NearestStopID = a.stop.ID
		scored.NearestStopName = a.stop.NamePrimary
		walkToStop := a.walkToStop
		walkToSchool := a.walkToSchool
		scored.WalkToStopMin = &walkToStop
		scored.WalkToSchoolMin = &walkToSchool
		scored.RouteTag = string(a.stop.Route)
		scored.RoutePriority = a.stop.Priority
	}
	scored.Score = total
	scored.Reasons = reasons
	scored.FamilySuitability = s.suitability(a)

	return scored
}

// Explain re-executes the scoring table and returns the per-component
// contributions, in evaluation order. The sum of the points equals the score
// before clamping.
func (s *Scorer) Explain(listing models.Listing) []Contribution {
	return evaluate(&listing, s.resolveAccess(&listing), s.profile)
}

func evaluate(l *models.Listing, a access, p *criteria.Profile) []Contribution {
	var out []Contribution
	extras := 0

	for _, row := range table {
		points, reason, applied := row.eval(l, a, p)
		if !applied {
			continue
		}

		if strings.HasPrefix(row.name, "extra_") {
			// Family extras share a 10-point cap.
			if extras+points > maxExtraPoints {
				points = maxExtraPoints - extras
			}
			if points <= 0 {
				continue
			}
			extras += points
		}

		out = append(out, Contribution{Component: row.name, Points: points, Reason: reason})
	}

	return out
}

func (s *Scorer) resolveAccess(l *models.Listing) access {
	lat, lng, ok := l.Coordinates()
	if !ok {
		return access{}
	}

	coord := geo.Coordinate{Lat: lat, Lng: lng}
	stop, walkToStop := s.catalog.Nearest(coord)
	walkToSchool := geo.WalkMinutesBetween(coord, s.school.Coordinates)

	a := access{
		hasCoords:    true,
		stop:         stop,
		walkToStop:   walkToStop,
		walkToSchool: walkToSchool,
	}
	if walkToSchool <= s.school.AcceptableWalkMinutes {
		a.schoolBranch = true
	} else {
		a.busBranch = true
	}
	return a
}

func (s *Scorer) suitability(a access) string {
	switch {
	case !a.hasCoords:
		return "Location not geocoded - access unknown"
	case a.schoolBranch:
		return fmt.Sprintf("EXCELLENT - walk to school in %d min", a.walkToSchool)
	case a.walkToStop <= 8:
		return fmt.Sprintf("Great - %d min to bus", a.walkToStop)
	case a.walkToStop <= 15:
		return fmt.Sprintf("Good - %d min to bus", a.walkToStop)
	default:
		return fmt.Sprintf("Access via %d min to bus", a.walkToStop)
	}
}

// evalBudget awards up to 25 points.
func evalBudget(l *models.Listing, _ access, p *criteria.Profile) (int, string, bool) {
	price := l.PriceJPY
	yen := formatYen(price)

	switch {
	case price >= p.BudgetSweetMin && price <= p.BudgetSweetMax:
		return 25, fmt.Sprintf("Perfect budget fit (¥%s/month)", yen), true
	case price >= p.BudgetMin && price <= p.BudgetMax:
		return 20, fmt.Sprintf("Good price (¥%s/month)", yen), true
	case price < p.BudgetMin:
		return 20, fmt.Sprintf("Great value - under budget (¥%s/month)", yen), true
	case price <= p.BudgetMax+50000:
		return 18, fmt.Sprintf("Slightly over budget but good area (¥%s/month)", yen), true
	default:
		return 10, fmt.Sprintf("Over budget (¥%s/month)", yen), true
	}
}

// evalLayout awards up to 20 points.
func evalLayout(l *models.Listing, _ access, p *criteria.Profile) (int, string, bool) {
	switch {
	case strings.Contains(l.LayoutCode, "3LDK"):
		return 20, fmt.Sprintf("Perfect for family of %d (3LDK)", p.FamilySize), true
	case strings.Contains(l.LayoutCode, "4LDK"):
		return 18, fmt.Sprintf("Spacious for family of %d (4LDK)", p.FamilySize), true
	case strings.Contains(l.LayoutCode, "2LDK"):
		return 15, "Compact but workable for family (2LDK)", true
	default:
		return 0, "", false
	}
}

// evalAccess awards up to 35 points. Without coordinates the whole component
// collapses to nothing; the rest of the score stays well-defined.
func evalAccess(_ *models.Listing, a access, _ *criteria.Profile) (int, string, bool) {
	if !a.hasCoords {
		return 0, "", false
	}

	if a.schoolBranch {
		switch {
		case a.walkToSchool <= 5:
			return 35, fmt.Sprintf("Excellent DSTY access - walk to school in %d min", a.walkToSchool), true
		case a.walkToSchool <= 10:
			return 32, fmt.Sprintf("Great DSTY access - walk to school in %d min", a.walkToSchool), true
		default:
			return 30, fmt.Sprintf("Good DSTY access - walk to school in %d min", a.walkToSchool), true
		}
	}

	stop := fmt.Sprintf("%s (%s Route)", a.stop.NamePrimary, a.stop.Route)
	switch {
	case a.walkToStop <= 5:
		return 25, fmt.Sprintf("Excellent DSTY access - %d min to %s", a.walkToStop, stop), true
	case a.walkToStop <= 8:
		return 22, fmt.Sprintf("Great DSTY access - %d min to %s", a.walkToStop, stop), true
	case a.walkToStop <= 12:
		return 18, fmt.Sprintf("Good DSTY access - %d min to %s", a.walkToStop, stop), true
	case a.walkToStop <= 15:
		return 15, fmt.Sprintf("Acceptable DSTY access - %d min to %s", a.walkToStop, stop), true
	default:
		return 5, fmt.Sprintf("Far from DSTY bus - %d min to %s", a.walkToStop, a.stop.NamePrimary), true
	}
}

// evalRouteBonus awards up to 10 points, only when the commute relies on the
// bus.
func evalRouteBonus(_ *models.Listing, a access, _ *criteria.Profile) (int, string, bool) {
	if !a.busBranch {
		return 0, "", false
	}

	switch {
	case a.stop.Priority >= 9:
		return 10, fmt.Sprintf("Premium %s Route - excellent DSTY service", a.stop.Route), true
	case a.stop.Priority >= 7:
		return 8, fmt.Sprintf("Great %s Route - good DSTY service", a.stop.Route), true
	default:
		return 5, fmt.Sprintf("%s Route - decent DSTY service", a.stop.Route), true
	}
}

// evalStation awards up to 10 points for rail access, independent of the
// school commute.
func evalStation(l *models.Listing, _ access, _ *criteria.Profile) (int, string, bool) {
	walk := l.WalkToStationMin
	switch {
	case walk <= 5:
		return 10, fmt.Sprintf("Very close to station (%d min)", walk), true
	case walk <= 10:
		return 7, fmt.Sprintf("Close to station (%d min)", walk), true
	case walk <= 15:
		return 4, fmt.Sprintf("Reasonable walk to station (%d min)", walk), true
	default:
		return 0, "", false
	}
}

func evalParkingExtra(l *models.Listing, _ access, _ *criteria.Profile) (int, string, bool) {
	if l.Parking != models.ParkingYes {
		return 0, "", false
	}
	return 5, "Parking available - essential for family", true
}

func evalHouseExtra(l *models.Listing, _ access, _ *criteria.Profile) (int, string, bool) {
	if l.BuildingType != models.BuildingHouse {
		return 0, "", false
	}
	return 3, "House rental - more space for family", true
}

func evalYellowExtra(_ *models.Listing, a access, _ *criteria.Profile) (int, string, bool) {
	if !a.busBranch || a.stop.Route != models.RouteYellow {
		return 0, "", false
	}
	return 5, "Yellow Route access - same loop as the Sony reference stop", true
}

// formatYen renders 265000 as "265,000".
func formatYen(v int) string {
	s := strconv.Itoa(v)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
