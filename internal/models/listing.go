package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Listing struct {
	// 基本情報
	ID         string `gorm:"type:varchar(32);primaryKey" json:"id"`
	SourceURL  string `gorm:"type:varchar(500);not null;uniqueIndex" json:"source_url"`
	SourceName string `gorm:"type:varchar(50);index" json:"source_name"`
	Title      string `gorm:"type:text;not null" json:"title"`

	// フィルタ用属性
	Location         string       `gorm:"type:text" json:"location,omitempty"`
	StationName      string       `gorm:"type:text" json:"station_name,omitempty"`
	PriceJPY         int          `gorm:"type:int;not null;index" json:"price_jpy"`
	LayoutCode       string       `gorm:"type:varchar(20);index" json:"layout_code"`
	WalkToStationMin int          `gorm:"type:int" json:"walk_to_station_min"`
	Lat              *float64     `gorm:"type:decimal(10,6)" json:"lat,omitempty"`
	Lng              *float64     `gorm:"type:decimal(10,6)" json:"lng,omitempty"`
	BuildingType     BuildingType `gorm:"type:varchar(20)" json:"building_type"`
	Parking          ParkingState `gorm:"type:varchar(10)" json:"parking_available"`
	MoveInDate       *time.Time   `gorm:"type:date" json:"move_in_date,omitempty"`

	// スコアリングで付与される属性
	NearestStopID     string     `gorm:"type:varchar(50)" json:"nearest_stop_id,omitempty"`
	NearestStopName   string     `gorm:"type:text" json:"nearest_stop_name,omitempty"`
	WalkToStopMin     *int       `gorm:"type:int;index" json:"walk_to_stop_min,omitempty"`
	WalkToSchoolMin   *int       `gorm:"type:int" json:"walk_to_school_min,omitempty"`
	RouteTag          string     `gorm:"type:varchar(20);index" json:"route_tag,omitempty"`
	RoutePriority     int        `gorm:"type:int" json:"route_priority"`
	Score             int        `gorm:"type:int;not null;index" json:"score"`
	Reasons           StringList `gorm:"type:text" json:"reasons"`
	FamilySuitability string     `gorm:"type:text" json:"family_suitability,omitempty"`

	// ステータス管理
	Active bool `gorm:"not null;default:true;index" json:"active"`

	// タイムスタンプ
	FoundAt   time.Time `gorm:"type:datetime;not null" json:"found_at"`
	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// TableName はテーブル名を明示的に指定
func (Listing) TableName() string {
	return "listings"
}

// Coordinates reports the listing position when both lat and lng are present.
func (l *Listing) Coordinates() (lat, lng float64, ok bool) {
	if l.Lat == nil || l.Lng == nil {
		return 0, 0, false
	}
	return *l.Lat, *l.Lng, true
}

// BuildingType classifies the building kind of a listing.
type BuildingType string

const (
	BuildingApartment BuildingType = "apartment"
	BuildingHouse     BuildingType = "house"
	BuildingUnknown   BuildingType = "unknown"
)

// ParkingState is a tri-state parking flag.
type ParkingState string

const (
	ParkingYes     ParkingState = "yes"
	ParkingNo      ParkingState = "no"
	ParkingUnknown ParkingState = "unknown"
)

// StringList stores an ordered list of strings as a JSON text column.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}

	if len(data) == 0 {
		*s = nil
		return nil
	}
	return json.Unmarshal(data, (*[]string)(s))
}
