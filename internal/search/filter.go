package search

import (
	"fmt"
	"strings"

	"dsty-finder/internal/models"

	"github.com/meilisearch/meilisearch-go"
)

type FilterParams struct {
	Query       string
	MinPrice    *int
	MaxPrice    *int
	Layouts     []string
	MaxBusWalk  *int
	RouteTags   []string
	MinScore    *int
	SortBy      string
	Limit       int64
}

// FilterSearch performs search with structured filters
func (s *SearchClient) FilterSearch(params FilterParams) ([]models.Listing, error) {
	var filters []string

	// Price range filter
	if params.MinPrice != nil {
		filters = append(filters, fmt.Sprintf("price_jpy >= %d", *params.MinPrice))
	}
	if params.MaxPrice != nil {
		filters = append(filters, fmt.Sprintf("price_jpy <= %d", *params.MaxPrice))
	}

	// Layout filter
	if len(params.Layouts) > 0 {
		layoutFilters := make([]string, len(params.Layouts))
		for i, layout := range params.Layouts {
			layoutFilters[i] = fmt.Sprintf("layout_code = '%s'", layout)
		}
		filters = append(filters, fmt.Sprintf("(%s)", strings.Join(layoutFilters, " OR ")))
	}

	// Bus stop walk filter
	if params.MaxBusWalk != nil {
		filters = append(filters, fmt.Sprintf("walk_to_stop_min <= %d", *params.MaxBusWalk))
	}

	// Route filter
	if len(params.RouteTags) > 0 {
		routeFilters := make([]string, len(params.RouteTags))
		for i, tag := range params.RouteTags {
			routeFilters[i] = fmt.Sprintf("route_tag = '%s'", tag)
		}
		filters = append(filters, fmt.Sprintf("(%s)", strings.Join(routeFilters, " OR ")))
	}

	// Score floor
	if params.MinScore != nil {
		filters = append(filters, fmt.Sprintf("score >= %d", *params.MinScore))
	}

	// Only active listings surface in search
	filters = append(filters, "active = true")

	var sort []string
	if params.SortBy != "" {
		sort = []string{params.SortBy}
	}

	if params.Limit == 0 {
		params.Limit = 20
	}

	searchReq := &meilisearch.SearchRequest{
		Limit:  params.Limit,
		Filter: strings.Join(filters, " AND "),
	}

	if len(sort) > 0 {
		searchReq.Sort = sort
	}

	searchRes, err := s.client.Index(s.index).Search(params.Query, searchReq)
	if err != nil {
		return nil, err
	}

	return decodeHits(searchRes.Hits), nil
}
