package database

import "dsty-finder/internal/models"

// UpsertResult reports what an upsert did.
type UpsertResult string

const (
	UpsertInserted  UpsertResult = "inserted"
	UpsertUpdated   UpsertResult = "updated"
	UpsertUnchanged UpsertResult = "unchanged"
)

// Stats aggregates the active listings for the dashboard.
type Stats struct {
	Total       int64   `json:"total"`
	InBudget    int64   `json:"in_budget"`
	AvgScore    float64 `json:"avg_score"`
	MaxScore    int     `json:"max_score"`
	CloseToBus  int64   `json:"close_to_bus"`
	WithParking int64   `json:"with_parking"`
	AvgBusWalk  float64 `json:"avg_bus_walk"`
}

// Store is the persistence contract consumed by the engine and handlers.
// Uniqueness is enforced on the listing id (derived from source_url).
type Store interface {
	// Upsert inserts a new listing or updates an existing one keyed by id.
	Upsert(l *models.Listing) (UpsertResult, error)

	// ListActive returns active listings ordered by the display ranking.
	// limit <= 0 means no limit.
	ListActive(limit int) ([]models.Listing, error)

	// GetByID returns one listing or gorm.ErrRecordNotFound / sql.ErrNoRows.
	GetByID(id string) (*models.Listing, error)

	// Stats aggregates active listings; the budget bounds come from the
	// active criteria profile.
	Stats(budgetMin, budgetMax int) (*Stats, error)

	// SaveRunSummary archives the outcome of one refresh.
	SaveRunSummary(s *models.RunSummary) error

	Close() error
}

// scoredFieldsEqual reports whether a re-scored listing carries any change
// worth writing. Timestamps and DB bookkeeping are ignored.
func scoredFieldsEqual(a, b *models.Listing) bool {
	if a.Title != b.Title ||
		a.Location != b.Location ||
		a.StationName != b.StationName ||
		a.PriceJPY != b.PriceJPY ||
		a.LayoutCode != b.LayoutCode ||
		a.WalkToStationMin != b.WalkToStationMin ||
		a.BuildingType != b.BuildingType ||
		a.Parking != b.Parking ||
		a.NearestStopID != b.NearestStopID ||
		a.RouteTag != b.RouteTag ||
		a.Score != b.Score ||
		a.FamilySuitability != b.FamilySuitability ||
		a.Active != b.Active {
		return false
	}
	if (a.WalkToStopMin == nil) != (b.WalkToStopMin == nil) {
		return false
	}
	if a.WalkToStopMin != nil && *a.WalkToStopMin != *b.WalkToStopMin {
		return false
	}
	return true
}
