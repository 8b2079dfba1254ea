package normalize

import (
	"testing"
	"time"

	"dsty-finder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
}

func validRecord() RawRecord {
	return RawRecord{
		"source":  "suumo",
		"url":     "https://suumo.jp/chintai/jnc_000012345678/",
		"title":   "世田谷区等々力 ファミリー向け 3LDK",
		"price":   "28.5万円",
		"rooms":   "3LDK",
		"station": "等々力",
		"walk":    "徒歩5分",
	}
}

func TestNormalizeAcceptsCompleteRecord(t *testing.T) {
	n := NewWithClock(fixedClock)

	listing, reject := n.Normalize(validRecord())
	require.Nil(t, reject)
	require.NotNil(t, listing)

	assert.NotEmpty(t, listing.ID)
	assert.Equal(t, 285000, listing.PriceJPY)
	assert.Equal(t, "3LDK", listing.LayoutCode)
	assert.Equal(t, 5, listing.WalkToStationMin)
	assert.True(t, listing.Active)
	assert.Equal(t, fixedClock(), listing.FoundAt)
}

func TestNormalizeRejectsMissingURL(t *testing.T) {
	n := New()

	rec := RawRecord{"title": "物件", "price": "28万"}
	listing, reject := n.Normalize(rec)

	assert.Nil(t, listing)
	require.NotNil(t, reject)
	assert.Equal(t, "missing url", reject.Reason)
}

func TestNormalizeRejectsRelativeURL(t *testing.T) {
	n := New()

	rec := validRecord()
	rec["url"] = "/chintai/jnc_000012345678/"
	listing, reject := n.Normalize(rec)

	assert.Nil(t, listing)
	require.NotNil(t, reject)
	assert.Contains(t, reject.Reason, "not absolute")
}

func TestNormalizeRejectsMissingPrice(t *testing.T) {
	n := New()

	rec := validRecord()
	delete(rec, "price")
	_, reject := n.Normalize(rec)

	require.NotNil(t, reject)
	assert.Contains(t, reject.Reason, "price")
}

func TestNormalizeRejectsImplausiblyCheapPrice(t *testing.T) {
	n := New()

	rec := validRecord()
	rec["price"] = "30000"
	_, reject := n.Normalize(rec)

	require.NotNil(t, reject)
	assert.Contains(t, reject.Reason, "below minimum")
}

func TestParsePriceForms(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"28万円", 280000},
		{"28.5万円", 285000},
		{"265,000円", 265000},
		{"315000", 315000},
		{"31.5", 315000},
		{"28", 280000},
	}

	for _, tc := range cases {
		got, ok := parsePrice(tc.in)
		assert.True(t, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, ok := parsePrice("")
	assert.False(t, ok)
	_, ok = parsePrice("相談")
	assert.False(t, ok)
}

func TestParsePriceOnlyFirstNumberCounts(t *testing.T) {
	// Management fee after the rent must not leak into the price.
	got, ok := parsePrice("28万円 管理費5000円")
	assert.True(t, ok)
	assert.Equal(t, 280000, got)
}

func TestParseLayoutFallsBackToTitle(t *testing.T) {
	n := New()

	rec := validRecord()
	delete(rec, "rooms")
	rec["title"] = "リノベーション2LDK 世田谷"

	listing, reject := n.Normalize(rec)
	require.Nil(t, reject)
	assert.Equal(t, "2LDK", listing.LayoutCode)
}

func TestParseLayoutUnknown(t *testing.T) {
	n := New()

	rec := validRecord()
	delete(rec, "rooms")
	rec["title"] = "駅近の物件"

	listing, reject := n.Normalize(rec)
	require.Nil(t, reject)
	assert.Equal(t, "Unknown", listing.LayoutCode)
}

func TestParseWalkMinutes(t *testing.T) {
	n := New()

	cases := []struct {
		walk string
		want int
	}{
		{"徒歩12分", 12},
		{"バス5分 徒歩3分", 3},
		{"8分", 8},
		{"7", 7},
		{"徒歩150分", 99},
	}

	for _, tc := range cases {
		rec := validRecord()
		rec["walk"] = tc.walk
		listing, reject := n.Normalize(rec)
		require.Nil(t, reject, tc.walk)
		assert.Equal(t, tc.want, listing.WalkToStationMin, tc.walk)
	}
}

func TestParseWalkMinutesDefault(t *testing.T) {
	n := New()

	rec := validRecord()
	delete(rec, "walk")
	listing, reject := n.Normalize(rec)
	require.Nil(t, reject)
	assert.Equal(t, 10, listing.WalkToStationMin)
}

func TestListingIDStripsQueryAndFragment(t *testing.T) {
	base := listingID("https://suumo.jp/chintai/jnc_0001/")
	withQuery := listingID("https://suumo.jp/chintai/jnc_0001/?utm_source=mail")
	withFragment := listingID("https://suumo.jp/chintai/jnc_0001#photos")

	assert.Equal(t, base, withQuery)
	assert.Equal(t, base, withFragment)
	assert.Len(t, base, 32)

	other := listingID("https://suumo.jp/chintai/jnc_0002/")
	assert.NotEqual(t, base, other)
}

func TestNormalizeCoordinates(t *testing.T) {
	n := New()

	rec := validRecord()
	rec["lat"] = "35.6108"
	rec["lng"] = "139.6547"

	listing, reject := n.Normalize(rec)
	require.Nil(t, reject)

	lat, lng, ok := listing.Coordinates()
	require.True(t, ok)
	assert.InDelta(t, 35.6108, lat, 1e-9)
	assert.InDelta(t, 139.6547, lng, 1e-9)
}

func TestNormalizeWithoutCoordinates(t *testing.T) {
	n := New()

	listing, reject := n.Normalize(validRecord())
	require.Nil(t, reject)

	_, _, ok := listing.Coordinates()
	assert.False(t, ok)
}

func TestNormalizeBuildingTypeAndParking(t *testing.T) {
	n := New()

	rec := validRecord()
	rec["building_type"] = "マンション"
	rec["parking"] = "有"

	listing, reject := n.Normalize(rec)
	require.Nil(t, reject)
	assert.Equal(t, models.BuildingApartment, listing.BuildingType)
	assert.Equal(t, models.ParkingYes, listing.Parking)

	rec["building_type"] = "戸建て"
	rec["parking"] = "なし"
	listing, reject = n.Normalize(rec)
	require.Nil(t, reject)
	assert.Equal(t, models.BuildingHouse, listing.BuildingType)
	assert.Equal(t, models.ParkingNo, listing.Parking)
}

func TestNormalizeMoveInDate(t *testing.T) {
	n := New()

	rec := validRecord()
	rec["move_in_date"] = "2025-11-01"

	listing, reject := n.Normalize(rec)
	require.Nil(t, reject)
	require.NotNil(t, listing.MoveInDate)
	assert.Equal(t, time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), *listing.MoveInDate)
}
