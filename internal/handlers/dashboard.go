// Package handlers exposes the dashboard API.
package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"dsty-finder/internal/catalog"
	"dsty-finder/internal/criteria"
	"dsty-finder/internal/database"
	"dsty-finder/internal/engine"
	"dsty-finder/internal/models"
	"dsty-finder/internal/rank"
	"dsty-finder/internal/ratelimit"
	"dsty-finder/internal/search"

	"github.com/gin-gonic/gin"
)

const defaultListingLimit = 20

// DashboardHandler serves ranked listings, stats and refresh triggers.
type DashboardHandler struct {
	store   database.Store
	engine  *engine.Orchestrator
	profile *criteria.Profile
	catalog *catalog.Catalog
	search  *search.SearchClient
	limiter *ratelimit.Limiter
}

func NewDashboardHandler(store database.Store, orch *engine.Orchestrator, profile *criteria.Profile, cat *catalog.Catalog) *DashboardHandler {
	return &DashboardHandler{
		store:   store,
		engine:  orch,
		profile: profile,
		catalog: cat,
	}
}

// WithSearch attaches the optional search client.
func (h *DashboardHandler) WithSearch(client *search.SearchClient) *DashboardHandler {
	h.search = client
	return h
}

// WithLimiter attaches the fetcher rate limiter for the stats endpoint.
func (h *DashboardHandler) WithLimiter(limiter *ratelimit.Limiter) *DashboardHandler {
	h.limiter = limiter
	return h
}

// RegisterRoutes wires all dashboard endpoints onto the router.
func (h *DashboardHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		api.GET("/listings", h.GetListings)
		api.GET("/listings/:id", h.GetListing)
		api.GET("/stats", h.GetStats)
		api.GET("/routes/analysis", h.GetRouteAnalysis)
		api.GET("/busstops", h.GetBusStops)
		api.POST("/refresh", h.TriggerRefresh)
		api.GET("/export/csv", h.ExportCSV)
		api.GET("/search", h.Search)
		api.POST("/search/reindex", h.Reindex)
		api.GET("/ratelimit/stats", h.GetRateLimitStats)
	}
}

// Health returns liveness info.
func (h *DashboardHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"profile": h.profile.Name,
	})
}

// GetListings returns the top ranked active listings.
func (h *DashboardHandler) GetListings(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListingLimit)))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}

	listings, err := h.store.ListActive(0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ranked := rank.Top(listings, limit)
	c.JSON(http.StatusOK, gin.H{
		"listings": ranked,
		"count":    len(ranked),
	})
}

// GetListing returns one listing by id.
func (h *DashboardHandler) GetListing(c *gin.Context) {
	listing, err := h.store.GetByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		return
	}
	c.JSON(http.StatusOK, listing)
}

// GetStats returns aggregate statistics for the active listings.
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.store.Stats(h.profile.BudgetMin, h.profile.BudgetMax)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// routeAggregate is one row of the route analysis.
type routeAggregate struct {
	Route      string  `json:"route"`
	Count      int     `json:"count"`
	AvgScore   float64 `json:"avg_score"`
	BestScore  int     `json:"best_score"`
	AvgBusWalk float64 `json:"avg_bus_walk"`
}

// stopAggregate is one row of the per-stop analysis.
type stopAggregate struct {
	StopID     string  `json:"stop_id"`
	StopName   string  `json:"stop_name"`
	Route      string  `json:"route"`
	Count      int     `json:"count"`
	AvgScore   float64 `json:"avg_score"`
	BestScore  int     `json:"best_score"`
	AvgBusWalk float64 `json:"avg_bus_walk"`
}

// GetRouteAnalysis aggregates active listings per bus route and per stop.
func (h *DashboardHandler) GetRouteAnalysis(c *gin.Context) {
	listings, err := h.store.ListActive(0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"routes": aggregateRoutes(listings),
		"stops":  aggregateStops(listings),
	})
}

// aggregateRoutes groups listings by route tag. Listings without a resolved
// stop are grouped under "unassigned". Output follows the input encounter
// order, which is already the display ranking.
func aggregateRoutes(listings []models.Listing) []routeAggregate {
	type acc struct {
		count     int
		scoreSum  int
		bestScore int
		walkSum   int
		walkCount int
	}

	byRoute := make(map[string]*acc)
	var order []string

	for _, l := range listings {
		route := l.RouteTag
		if route == "" {
			route = "unassigned"
		}

		a, ok := byRoute[route]
		if !ok {
			a = &acc{}
			byRoute[route] = a
			order = append(order, route)
		}

		a.count++
		a.scoreSum += l.Score
		if l.Score > a.bestScore {
			a.bestScore = l.Score
		}
		if l.WalkToStopMin != nil {
			a.walkSum += *l.WalkToStopMin
			a.walkCount++
		}
	}

	out := make([]routeAggregate, 0, len(order))
	for _, route := range order {
		a := byRoute[route]
		agg := routeAggregate{
			Route:     route,
			Count:     a.count,
			AvgScore:  float64(a.scoreSum) / float64(a.count),
			BestScore: a.bestScore,
		}
		if a.walkCount > 0 {
			agg.AvgBusWalk = float64(a.walkSum) / float64(a.walkCount)
		}
		out = append(out, agg)
	}
	return out
}

// aggregateStops groups listings by their resolved nearest stop. Listings
// without a stop are left out; the route table already accounts for them.
func aggregateStops(listings []models.Listing) []stopAggregate {
	type acc struct {
		name      string
		route     string
		count     int
		scoreSum  int
		bestScore int
		walkSum   int
		walkCount int
	}

	byStop := make(map[string]*acc)
	var order []string

	for _, l := range listings {
		if l.NearestStopID == "" {
			continue
		}

		a, ok := byStop[l.NearestStopID]
		if !ok {
			a = &acc{name: l.NearestStopName, route: l.RouteTag}
			byStop[l.NearestStopID] = a
			order = append(order, l.NearestStopID)
		}

		a.count++
		a.scoreSum += l.Score
		if l.Score > a.bestScore {
			a.bestScore = l.Score
		}
		if l.WalkToStopMin != nil {
			a.walkSum += *l.WalkToStopMin
			a.walkCount++
		}
	}

	out := make([]stopAggregate, 0, len(order))
	for _, id := range order {
		a := byStop[id]
		agg := stopAggregate{
			StopID:    id,
			StopName:  a.name,
			Route:     a.route,
			Count:     a.count,
			AvgScore:  float64(a.scoreSum) / float64(a.count),
			BestScore: a.bestScore,
		}
		if a.walkCount > 0 {
			agg.AvgBusWalk = float64(a.walkSum) / float64(a.walkCount)
		}
		out = append(out, agg)
	}
	return out
}

// GetBusStops returns the embedded stop table.
func (h *DashboardHandler) GetBusStops(c *gin.Context) {
	stops := h.catalog.All()
	c.JSON(http.StatusOK, gin.H{
		"school": h.catalog.School(),
		"stops":  stops,
		"count":  len(stops),
	})
}

// TriggerRefresh runs a refresh synchronously. A refresh already in flight
// yields a skip response, not an error.
func (h *DashboardHandler) TriggerRefresh(c *gin.Context) {
	log.Println("[API] Manual refresh requested")

	result, err := h.engine.Refresh(c.Request.Context())
	if errors.Is(err, engine.ErrRefreshInProgress) {
		c.JSON(http.StatusConflict, gin.H{
			"status":  "skipped",
			"message": "refresh already in progress",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "completed",
		"result": result,
	})
}

// ExportCSV streams the full ranked listing set as CSV.
func (h *DashboardHandler) ExportCSV(c *gin.Context) {
	listings, err := h.store.ListActive(0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ranked := rank.Rank(listings)

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="dsty_listings.csv"`)

	w := csv.NewWriter(c.Writer)
	header := []string{"rank", "score", "title", "price_jpy", "layout_code", "location", "station_name", "walk_to_station_min", "route_tag", "source_url"}
	if err := w.Write(header); err != nil {
		return
	}

	for i, l := range ranked {
		row := []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(l.Score),
			l.Title,
			strconv.Itoa(l.PriceJPY),
			l.LayoutCode,
			l.Location,
			l.StationName,
			strconv.Itoa(l.WalkToStationMin),
			l.RouteTag,
			l.SourceURL,
		}
		if err := w.Write(row); err != nil {
			return
		}
	}
	w.Flush()
}

// Search proxies full-text queries to Meilisearch.
func (h *DashboardHandler) Search(c *gin.Context) {
	if h.search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is not configured"})
		return
	}

	query := c.Query("q")
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}

	params := search.FilterParams{
		Query:  query,
		SortBy: "score:desc",
		Limit:  limit,
	}
	if v := c.Query("min_price"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			params.MinPrice = &p
		}
	}
	if v := c.Query("max_price"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			params.MaxPrice = &p
		}
	}
	if v := c.Query("layout"); v != "" {
		params.Layouts = []string{v}
	}
	if v := c.Query("route"); v != "" {
		params.RouteTags = []string{v}
	}
	if v := c.Query("max_bus_walk"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			params.MaxBusWalk = &p
		}
	}

	hits, err := h.search.FilterSearch(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listings": hits,
		"count":    len(hits),
	})
}

// Reindex pushes every active listing into the search index.
func (h *DashboardHandler) Reindex(c *gin.Context) {
	if h.search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is not configured"})
		return
	}

	listings, err := h.store.ListActive(0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.search.IndexListings(listings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("reindexed %d listings", len(listings)),
	})
}

// GetRateLimitStats reports the fetcher request budget.
func (h *DashboardHandler) GetRateLimitStats(c *gin.Context) {
	if h.limiter == nil {
		c.JSON(http.StatusOK, ratelimit.Stats{Enabled: false})
		return
	}
	c.JSON(http.StatusOK, h.limiter.GetStats())
}
