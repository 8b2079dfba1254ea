package catalog

import (
	"dsty-finder/internal/geo"
	"dsty-finder/internal/models"
)

// dstySchool is the Deutsche Schule Tokyo Yokohama campus in Tsuzuki-ku.
var dstySchool = models.School{
	Name:                  "Deutsche Schule Tokyo Yokohama",
	Coordinates:           geo.Coordinate{Lat: 35.5658, Lng: 139.5789},
	AcceptableWalkMinutes: 15,
}

// dstyBusStops is the authoritative stop table, taken from the published
// route maps. Each geographic stop carries exactly one route assignment.
var dstyBusStops = []models.BusStop{
	// Pink Route A & B (Morning & Return)
	{
		ID:            "denenchofu_station",
		NamePrimary:   "田園調布駅",
		NameSecondary: "Denenchofu Station",
		Route:         models.RoutePink,
		Priority:      10,
		Coordinates:   geo.Coordinate{Lat: 35.6019, Lng: 139.6692},
		Description:   "Main station - excellent access",
	},
	{
		ID:            "german_embassy",
		NamePrimary:   "ドイツ大使館",
		NameSecondary: "German Embassy",
		Route:         models.RoutePink,
		Priority:      10,
		Coordinates:   geo.Coordinate{Lat: 35.6478, Lng: 139.7378},
		Description:   "Premium Hiroo area",
	},
	{
		ID:            "korean_embassy",
		NamePrimary:   "韓国大使館/仙台坂上",
		NameSecondary: "Korean Embassy/Sendai-sakaue",
		Route:         models.RoutePink,
		Priority:      9,
		Coordinates:   geo.Coordinate{Lat: 35.6465, Lng: 139.7365},
		Description:   "Hiroo diplomatic area",
	},
	{
		ID:            "ebisu_station",
		NamePrimary:   "恵比寿駅",
		NameSecondary: "Ebisu Station",
		Route:         models.RoutePink,
		Priority:      9,
		Coordinates:   geo.Coordinate{Lat: 35.6466, Lng: 139.7106},
		Description:   "Major hub with excellent transport",
	},
	{
		ID:            "meguro_station",
		NamePrimary:   "JR目黒駅",
		NameSecondary: "JR Meguro Station",
		Route:         models.RoutePink,
		Priority:      10,
		Coordinates:   geo.Coordinate{Lat: 35.6339, Lng: 139.7158},
		Description:   "Major station with multiple lines",
	},
	{
		ID:            "arisugawa_park",
		NamePrimary:   "有栖川公園",
		NameSecondary: "Arisugawa Park",
		Route:         models.RoutePink,
		Priority:      8,
		Coordinates:   geo.Coordinate{Lat: 35.6526, Lng: 139.7245},
		Description:   "Beautiful park area, family-friendly",
	},

	// Yellow Route
	{
		ID:            "sony",
		NamePrimary:   "ソニー/御殿山小学校前",
		NameSecondary: "Sony/Gotenyama Elementary",
		Route:         models.RouteYellow,
		Priority:      10,
		Coordinates:   geo.Coordinate{Lat: 35.6242, Lng: 139.7423},
		Description:   "Kitashinagawa reference stop - convenient area",
	},
	{
		ID:            "todoroki_campus",
		NamePrimary:   "等々力キャンパス東",
		NameSecondary: "Todoroki Campus East",
		Route:         models.RouteYellow,
		Priority:      8,
		Coordinates:   geo.Coordinate{Lat: 35.6108, Lng: 139.6547},
		Description:   "Excellent family area",
	},
	{
		ID:            "toritsu_daigaku",
		NamePrimary:   "都立大学駅北口",
		NameSecondary: "Toritsu Daigaku Station North",
		Route:         models.RouteYellow,
		Priority:      8,
		Coordinates:   geo.Coordinate{Lat: 35.6086, Lng: 139.6841},
		Description:   "University area, good for families",
	},
	{
		ID:            "oyamadai_2chome",
		NamePrimary:   "尾山台2丁目",
		NameSecondary: "Oyamadai 2-chome",
		Route:         models.RouteYellow,
		Priority:      8,
		Coordinates:   geo.Coordinate{Lat: 35.6084, Lng: 139.6695},
		Description:   "Quiet residential family area",
	},
	{
		ID:            "tokyo_city_university",
		NamePrimary:   "東京都市大学",
		NameSecondary: "Tokyo City University",
		Route:         models.RouteYellow,
		Priority:      7,
		Coordinates:   geo.Coordinate{Lat: 35.6066, Lng: 139.6632},
		Description:   "University area",
	},
	{
		ID:            "senzoku_ike",
		NamePrimary:   "洗足池/ベンツ",
		NameSecondary: "Senzoku-ike/Benz",
		Route:         models.RouteYellow,
		Priority:      6,
		Coordinates:   geo.Coordinate{Lat: 35.6009, Lng: 139.6952},
		Description:   "Residential area with pond",
	},

	// Green Route
	{
		ID:            "komazawa_park",
		NamePrimary:   "駒沢公園",
		NameSecondary: "Komazawa Park",
		Route:         models.RouteGreen,
		Priority:      7,
		Coordinates:   geo.Coordinate{Lat: 35.6281, Lng: 139.6661},
		Description:   "Large park, great for families",
	},
	{
		ID:            "sangenjaya",
		NamePrimary:   "三軒茶屋",
		NameSecondary: "Sangenjaya",
		Route:         models.RouteGreen,
		Priority:      7,
		Coordinates:   geo.Coordinate{Lat: 35.6439, Lng: 139.6681},
		Description:   "Vibrant shopping and dining area",
	},
	{
		ID:            "noge_3chome",
		NamePrimary:   "野毛３丁目",
		NameSecondary: "Noge 3-chome",
		Route:         models.RouteGreen,
		Priority:      6,
		Coordinates:   geo.Coordinate{Lat: 35.6321, Lng: 139.6598},
		Description:   "Residential Setagaya area",
	},
	{
		ID:            "tamabidai_mae",
		NamePrimary:   "多摩美大前",
		NameSecondary: "Tamabidai-mae",
		Route:         models.RouteGreen,
		Priority:      6,
		Coordinates:   geo.Coordinate{Lat: 35.6398, Lng: 139.6543},
		Description:   "Art university area",
	},

	// Near School Direct
	{
		ID:            "nakamachidai_station",
		NamePrimary:   "仲町台駅",
		NameSecondary: "Nakamachidai Station",
		Route:         models.RouteSchool,
		Priority:      6,
		Coordinates:   geo.Coordinate{Lat: 35.5458, Lng: 139.5643},
		Description:   "Direct access to school area",
	},
	{
		ID:            "center_minami",
		NamePrimary:   "センター南",
		NameSecondary: "Center Minami",
		Route:         models.RouteSchool,
		Priority:      6,
		Coordinates:   geo.Coordinate{Lat: 35.5507, Lng: 139.5711},
		Description:   "Modern shopping and residential area",
	},
}
