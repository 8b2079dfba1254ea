package database

import (
	"database/sql"
	"fmt"

	"dsty-finder/internal/models"

	_ "github.com/lib/pq"
)

type DB struct {
	conn *sql.DB
}

func NewDB(host, port, user, password, dbname string) (*DB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// InitSchema creates the listings and run_summaries tables if they don't exist.
func (db *DB) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS listings (
		id VARCHAR(32) PRIMARY KEY,
		source_url VARCHAR(500) NOT NULL UNIQUE,
		source_name VARCHAR(50),
		title TEXT NOT NULL,
		location TEXT,
		station_name TEXT,
		price_jpy INTEGER NOT NULL,
		layout_code VARCHAR(20),
		walk_to_station_min INTEGER,
		lat DECIMAL(10, 6),
		lng DECIMAL(10, 6),
		building_type VARCHAR(20),
		parking VARCHAR(10),
		move_in_date DATE,

		nearest_stop_id VARCHAR(50),
		nearest_stop_name TEXT,
		walk_to_stop_min INTEGER,
		walk_to_school_min INTEGER,
		route_tag VARCHAR(20),
		route_priority INTEGER,
		score INTEGER NOT NULL,
		reasons TEXT,
		family_suitability TEXT,

		active BOOLEAN NOT NULL DEFAULT TRUE,
		found_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_listings_score ON listings(score DESC);
	CREATE INDEX IF NOT EXISTS idx_listings_active ON listings(active);
	CREATE INDEX IF NOT EXISTS idx_listings_route_tag ON listings(route_tag);
	CREATE INDEX IF NOT EXISTS idx_listings_walk_to_stop ON listings(walk_to_stop_min);

	CREATE TABLE IF NOT EXISTS run_summaries (
		id SERIAL PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		fetched INTEGER NOT NULL,
		normalized INTEGER NOT NULL,
		rejected INTEGER NOT NULL,
		new INTEGER NOT NULL,
		updated INTEGER NOT NULL,
		unchanged INTEGER NOT NULL,
		persist_errors INTEGER NOT NULL,
		reject_reasons TEXT
	);
	`
	_, err := db.conn.Exec(query)
	return err
}

const listingColumns = `id, source_url, source_name, title, location, station_name,
	price_jpy, layout_code, walk_to_station_min, lat, lng, building_type, parking, move_in_date,
	nearest_stop_id, nearest_stop_name, walk_to_stop_min, walk_to_school_min,
	route_tag, route_priority, score, reasons, family_suitability,
	active, found_at, created_at, updated_at`

// Upsert inserts a new listing or updates an existing one keyed by id.
func (db *DB) Upsert(l *models.Listing) (UpsertResult, error) {
	existing, err := db.GetByID(l.ID)
	if err != nil && err != sql.ErrNoRows {
		return "", err
	}

	reasons, err := l.Reasons.Value()
	if err != nil {
		return "", err
	}

	if existing == nil {
		query := `
		INSERT INTO listings (` + listingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, NOW(), NOW())
		`
		_, err = db.conn.Exec(query,
			l.ID, l.SourceURL, l.SourceName, l.Title, l.Location, l.StationName,
			l.PriceJPY, l.LayoutCode, l.WalkToStationMin, l.Lat, l.Lng, l.BuildingType, l.Parking, l.MoveInDate,
			nullIfEmpty(l.NearestStopID), nullIfEmpty(l.NearestStopName), l.WalkToStopMin, l.WalkToSchoolMin,
			nullIfEmpty(l.RouteTag), l.RoutePriority, l.Score, reasons, l.FamilySuitability,
			l.Active, l.FoundAt)
		if err != nil {
			return "", err
		}
		return UpsertInserted, nil
	}

	if scoredFieldsEqual(existing, l) {
		return UpsertUnchanged, nil
	}

	query := `
	UPDATE listings SET
		source_url = $2, source_name = $3, title = $4, location = $5, station_name = $6,
		price_jpy = $7, layout_code = $8, walk_to_station_min = $9,
		lat = $10, lng = $11, building_type = $12, parking = $13, move_in_date = $14,
		nearest_stop_id = $15, nearest_stop_name = $16, walk_to_stop_min = $17, walk_to_school_min = $18,
		route_tag = $19, route_priority = $20, score = $21, reasons = $22, family_suitability = $23,
		active = $24, updated_at = NOW()
	WHERE id = $1
	`
	_, err = db.conn.Exec(query,
		l.ID, l.SourceURL, l.SourceName, l.Title, l.Location, l.StationName,
		l.PriceJPY, l.LayoutCode, l.WalkToStationMin, l.Lat, l.Lng, l.BuildingType, l.Parking, l.MoveInDate,
		nullIfEmpty(l.NearestStopID), nullIfEmpty(l.NearestStopName), l.WalkToStopMin, l.WalkToSchoolMin,
		nullIfEmpty(l.RouteTag), l.RoutePriority, l.Score, reasons, l.FamilySuitability,
		l.Active)
	if err != nil {
		return "", err
	}
	return UpsertUpdated, nil
}

// ListActive retrieves active listings in display order.
func (db *DB) ListActive(limit int) ([]models.Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE active = TRUE
		ORDER BY score DESC, walk_to_stop_min ASC NULLS LAST, found_at DESC, id ASC
	`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = db.conn.Query(query+" LIMIT $1", limit)
	} else {
		rows, err = db.conn.Query(query)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

// GetByID retrieves a listing by id.
func (db *DB) GetByID(id string) (*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	return scanListing(db.conn.QueryRow(query, id))
}

// Stats aggregates active listings.
func (db *DB) Stats(budgetMin, budgetMax int) (*Stats, error) {
	stats := &Stats{}
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE price_jpy BETWEEN $1 AND $2),
			COALESCE(AVG(score), 0),
			COALESCE(MAX(score), 0),
			COUNT(*) FILTER (WHERE walk_to_stop_min <= 10),
			COUNT(*) FILTER (WHERE parking = 'yes'),
			COALESCE(AVG(walk_to_stop_min), 0)
		FROM listings
		WHERE active = TRUE
	`
	err := db.conn.QueryRow(query, budgetMin, budgetMax).Scan(
		&stats.Total, &stats.InBudget, &stats.AvgScore, &stats.MaxScore,
		&stats.CloseToBus, &stats.WithParking, &stats.AvgBusWalk)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// SaveRunSummary archives one refresh outcome.
func (db *DB) SaveRunSummary(s *models.RunSummary) error {
	reasons, err := s.RejectReasons.Value()
	if err != nil {
		return err
	}

	query := `
	INSERT INTO run_summaries
		(started_at, finished_at, fetched, normalized, rejected, new, updated, unchanged, persist_errors, reject_reasons)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = db.conn.Exec(query,
		s.StartedAt, s.FinishedAt, s.Fetched, s.Normalized, s.Rejected,
		s.New, s.Updated, s.Unchanged, s.PersistErrors, reasons)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(row rowScanner) (*models.Listing, error) {
	var l models.Listing
	var sourceName, location, stationName sql.NullString
	var layoutCode, buildingType, parking sql.NullString
	var nearestStopID, nearestStopName, routeTag, suitability sql.NullString
	var routePriority sql.NullInt64
	var moveIn sql.NullTime
	var reasons sql.NullString

	err := row.Scan(
		&l.ID, &l.SourceURL, &sourceName, &l.Title, &location, &stationName,
		&l.PriceJPY, &layoutCode, &l.WalkToStationMin, &l.Lat, &l.Lng, &buildingType, &parking, &moveIn,
		&nearestStopID, &nearestStopName, &l.WalkToStopMin, &l.WalkToSchoolMin,
		&routeTag, &routePriority, &l.Score, &reasons, &suitability,
		&l.Active, &l.FoundAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.SourceName = sourceName.String
	l.Location = location.String
	l.StationName = stationName.String
	l.LayoutCode = layoutCode.String
	l.BuildingType = models.BuildingType(buildingType.String)
	l.Parking = models.ParkingState(parking.String)
	l.NearestStopID = nearestStopID.String
	l.NearestStopName = nearestStopName.String
	l.RouteTag = routeTag.String
	l.RoutePriority = int(routePriority.Int64)
	l.FamilySuitability = suitability.String
	if moveIn.Valid {
		t := moveIn.Time
		l.MoveInDate = &t
	}
	if reasons.Valid {
		if err := l.Reasons.Scan(reasons.String); err != nil {
			return nil, err
		}
	}
	return &l, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
