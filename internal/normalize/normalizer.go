// Package normalize turns heterogeneous source records into canonical
// Listings. All locale-specific parsing happens here, at the boundary;
// downstream components only ever see fully-typed values.
package normalize

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"dsty-finder/internal/models"
)

// RawRecord is the acquisition-layer contract: an untyped mapping with at
// least "source", "url" and "title" plus arbitrary source-specific fields.
type RawRecord map[string]string

// Reject describes why a record was dropped. A record is either accepted in
// full or rejected; there is no partial acceptance.
type Reject struct {
	URL    string
	Reason string
}

func (r Reject) String() string {
	if r.URL == "" {
		return r.Reason
	}
	return fmt.Sprintf("%s (%s)", r.Reason, r.URL)
}

// minAcceptablePrice rejects parser garbage: no Tokyo family rental lists
// below 50,000 yen/month.
const minAcceptablePrice = 50000

// walkMinutesCap saturates walk-to-station values.
const walkMinutesCap = 99

// defaultWalkMinutes is assumed when the record has no walk fragment at all.
const defaultWalkMinutes = 10

var (
	manPriceRe    = regexp.MustCompile(`(\d+(?:\.\d+)?)万`)
	bigNumberRe   = regexp.MustCompile(`\d{6,}`)
	anyNumberRe   = regexp.MustCompile(`\d+(?:\.\d+)?`)
	layoutRe      = regexp.MustCompile(`\d+LDK|\d+DK|\d+K`)
	stationWalkRe = regexp.MustCompile(`徒歩(\d+)分`)
	bareWalkRe    = regexp.MustCompile(`(\d+)分`)
)

// Field names probed for each attribute, in priority order.
var (
	priceFields   = []string{"price", "rent", "price_text"}
	layoutFields  = []string{"rooms", "layout", "madori", "floor_plan", "title"}
	walkFields    = []string{"walk", "access", "station_walk", "walk_minutes"}
	latFields     = []string{"lat", "latitude"}
	lngFields     = []string{"lng", "lon", "longitude"}
	moveInFields  = []string{"move_in_date", "move_in"}
	addressFields = []string{"location", "address"}
)

// Normalizer converts raw records into Listings. The zero value is not
// usable; construct with New.
type Normalizer struct {
	now func() time.Time
}

func New() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NewWithClock pins the found_at timestamp, for reproducible runs.
func NewWithClock(now func() time.Time) *Normalizer {
	return &Normalizer{now: now}
}

// Normalize parses one record. It never fails partially: either a complete
// Listing is returned, or a Reject with the reason the record was dropped.
func (n *Normalizer) Normalize(rec RawRecord) (*models.Listing, *Reject) {
	rawURL := strings.TrimSpace(rec["url"])
	if rawURL == "" {
		return nil, &Reject{Reason: "missing url"}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Reject{URL: rawURL, Reason: "url is not absolute"}
	}

	price, ok := parsePrice(firstNonEmpty(rec, priceFields))
	if !ok {
		return nil, &Reject{URL: rawURL, Reason: "no parseable price"}
	}
	if price < minAcceptablePrice {
		return nil, &Reject{URL: rawURL, Reason: fmt.Sprintf("price %d below minimum %d", price, minAcceptablePrice)}
	}

	listing := &models.Listing{
		ID:               listingID(rawURL),
		SourceURL:        rawURL,
		SourceName:       rec["source"],
		Title:            rec["title"],
		Location:         firstNonEmpty(rec, addressFields),
		StationName:      rec["station"],
		PriceJPY:         price,
		LayoutCode:       parseLayout(rec),
		WalkToStationMin: parseWalkMinutes(rec),
		BuildingType:     parseBuildingType(rec["building_type"]),
		Parking:          parseParking(rec["parking"]),
		Active:           true,
		FoundAt:          n.now(),
	}

	if lat, lng, ok := parseCoordinates(rec); ok {
		listing.Lat = &lat
		listing.Lng = &lng
	}

	if moveIn, ok := parseMoveInDate(firstNonEmpty(rec, moveInFields)); ok {
		listing.MoveInDate = &moveIn
	}

	return listing, nil
}

// listingID derives a stable id from the source URL, one-to-one within a
// run. Query string and fragment are ignored so tracking parameters do not
// split one listing into many.
func listingID(rawURL string) string {
	normalized := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		u.RawQuery = ""
		u.Fragment = ""
		normalized = strings.TrimSuffix(u.String(), "/")
	}
	hash := md5.Sum([]byte(normalized))
	return hex.EncodeToString(hash[:])
}

// parsePrice extracts a yen/month figure from Japanese free text like
// "28万円", "265,000円" or a bare "265000". Only the first match counts;
// trailing numbers (deposits, management fees) are ignored.
func parsePrice(text string) (int, bool) {
	if text == "" {
		return 0, false
	}

	// Drop separators and units that only add noise. 万 is kept so the
	// ten-thousand form can be recognized first.
	cleaned := strings.NewReplacer(",", "", "円", "", " ", "", "　", "").Replace(text)

	if m := manPriceRe.FindStringSubmatch(cleaned); m != nil {
		f, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return int(f * 10000), true
		}
	}

	if m := bigNumberRe.FindString(cleaned); m != "" {
		v, err := strconv.Atoi(m)
		if err == nil {
			return v, true
		}
	}

	if m := anyNumberRe.FindString(cleaned); m != "" {
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0, false
		}
		if f < 100 {
			// Bare small numbers are quoted in 万円.
			return int(f * 10000), true
		}
		return int(f), true
	}

	return 0, false
}

// parseLayout finds the first room code like 3LDK / 2DK / 1K in any
// candidate field.
func parseLayout(rec RawRecord) string {
	for _, field := range layoutFields {
		if m := layoutRe.FindString(rec[field]); m != "" {
			return m
		}
	}
	return "Unknown"
}

// parseWalkMinutes extracts 徒歩N分 (preferred) or a bare N分 fragment.
func parseWalkMinutes(rec RawRecord) int {
	for _, field := range walkFields {
		text := rec[field]
		if text == "" {
			continue
		}

		if m := stationWalkRe.FindStringSubmatch(text); m != nil {
			return clampWalk(atoi(m[1]))
		}
		if m := bareWalkRe.FindStringSubmatch(text); m != nil {
			return clampWalk(atoi(m[1]))
		}
		// Sources sometimes provide the value pre-parsed.
		if v, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
			return clampWalk(v)
		}
	}
	return defaultWalkMinutes
}

func clampWalk(v int) int {
	if v < 0 {
		return 0
	}
	if v > walkMinutesCap {
		return walkMinutesCap
	}
	return v
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func parseCoordinates(rec RawRecord) (lat, lng float64, ok bool) {
	latText := firstNonEmpty(rec, latFields)
	lngText := firstNonEmpty(rec, lngFields)
	if latText == "" || lngText == "" {
		return 0, 0, false
	}

	lat, errLat := strconv.ParseFloat(latText, 64)
	lng, errLng := strconv.ParseFloat(lngText, 64)
	if errLat != nil || errLng != nil {
		return 0, 0, false
	}
	return lat, lng, true
}

func parseBuildingType(text string) models.BuildingType {
	switch {
	case text == "":
		return models.BuildingUnknown
	case strings.Contains(text, "戸建") || strings.EqualFold(text, "house"):
		return models.BuildingHouse
	case strings.Contains(text, "マンション") || strings.Contains(text, "アパート") || strings.EqualFold(text, "apartment"):
		return models.BuildingApartment
	default:
		return models.BuildingUnknown
	}
}

func parseParking(text string) models.ParkingState {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "有", "あり", "yes", "true", "1":
		return models.ParkingYes
	case "無", "なし", "no", "false", "0":
		return models.ParkingNo
	default:
		return models.ParkingUnknown
	}
}

func parseMoveInDate(text string) (time.Time, bool) {
	if text == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(text))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func firstNonEmpty(rec RawRecord, fields []string) string {
	for _, f := range fields {
		if v := strings.TrimSpace(rec[f]); v != "" {
			return v
		}
	}
	return ""
}
