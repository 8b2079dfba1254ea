package main

import (
	"fmt"
	"log"
	"os"

	"dsty-finder/internal/catalog"
	"dsty-finder/internal/config"
	"dsty-finder/internal/criteria"
	"dsty-finder/internal/database"
	"dsty-finder/internal/engine"
	"dsty-finder/internal/fetcher"
	"dsty-finder/internal/handlers"
	"dsty-finder/internal/normalize"
	"dsty-finder/internal/ratelimit"
	"dsty-finder/internal/scheduler"
	"dsty-finder/internal/score"
	"dsty-finder/internal/search"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	configPath := getEnv("CONFIG_PATH", "config/dsty_finder.yaml")
	appConfig, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config from %s: %v", configPath, err)
	}
	log.Printf("Configuration loaded (database: %s, source: %s)", appConfig.Database.Type, appConfig.Fetcher.Source)

	// Criteria profile. A broken profile refuses startup.
	registry, err := criteria.DefaultRegistry()
	if err != nil {
		log.Fatalf("Invalid criteria profiles: %v", err)
	}
	profileName := appConfig.Criteria.Profile
	if profileName == "" {
		profileName = "family"
	}
	profile, err := registry.Get(profileName)
	if err != nil {
		log.Fatalf("Unknown criteria profile: %v", err)
	}
	log.Printf("Using criteria profile %q (budget %d-%d yen)", profile.Name, profile.BudgetMin, profile.BudgetMax)

	// Bus stop catalog. Default() panics if the embedded table is broken,
	// which is exactly the refuse-to-start behavior we want.
	cat := catalog.Default()
	log.Printf("Bus stop catalog loaded: %d stops, school %s", len(cat.All()), cat.School().Name)

	// Database
	store, err := openStore(appConfig)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	// Meilisearch (optional)
	var searchClient *search.SearchClient
	if appConfig.Search.Enabled {
		host := getEnvOrConfig(appConfig.Search.Meilisearch.Host, "MEILISEARCH_HOST", "http://localhost:7700")
		key := getEnvOrConfig(appConfig.Search.Meilisearch.APIKey, "MEILISEARCH_KEY", "")
		searchClient = search.NewSearchClient(host, key)
		if err := searchClient.InitIndex(); err != nil {
			log.Printf("Warning: Failed to initialize search index: %v", err)
		}
	}

	// Rate limiter shared between fetcher and stats endpoint
	limiter := ratelimit.New(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)

	// Acquisition source
	source := buildSource(appConfig, profile, limiter)
	log.Printf("Acquisition source: %s", source.Name())

	// Refresh pipeline
	scorer := score.New(cat, profile)
	orch := engine.New(source, normalize.New(), scorer, store)
	if searchClient != nil {
		orch.WithIndexer(searchClient)
	}

	// Scheduler
	if appConfig.Scheduler.Enabled {
		sched := scheduler.New(orch, appConfig.Scheduler.GetInterval(), appConfig.Scheduler.GetTimeout())
		if err := sched.Start(); err != nil {
			log.Printf("Warning: Failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	// HTTP API
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	dashboard := handlers.NewDashboardHandler(store, orch, profile, cat).
		WithSearch(searchClient).
		WithLimiter(limiter)
	dashboard.RegisterRoutes(r)

	port := getEnv("PORT", fmt.Sprintf("%d", appConfig.Server.Port))
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// openStore connects to the configured database backend and migrates the
// schema.
func openStore(cfg *config.Config) (database.Store, error) {
	switch cfg.Database.Type {
	case "postgres":
		pg := cfg.Database.Postgres
		db, err := database.NewDB(
			getEnvOrConfig(pg.Host, "DB_HOST", "localhost"),
			getEnvOrConfig(portString(pg.Port), "DB_PORT", "5432"),
			getEnvOrConfig(pg.User, "DB_USER", "dsty"),
			getEnvOrConfig(pg.Password, "DB_PASSWORD", "dsty"),
			getEnvOrConfig(pg.Database, "DB_NAME", "dsty_finder"),
		)
		if err != nil {
			return nil, err
		}
		if err := db.InitSchema(); err != nil {
			return nil, err
		}
		log.Println("Using PostgreSQL")
		return db, nil

	default:
		my := cfg.Database.MySQL
		db, err := database.NewGormDB(
			getEnvOrConfig(my.Host, "DB_HOST", "localhost"),
			getEnvOrConfig(portString(my.Port), "DB_PORT", "3306"),
			getEnvOrConfig(my.User, "DB_USER", "dsty"),
			getEnvOrConfig(my.Password, "DB_PASSWORD", "dsty"),
			getEnvOrConfig(my.Database, "DB_NAME", "dsty_finder"),
		)
		if err != nil {
			return nil, err
		}
		if err := db.InitSchema(); err != nil {
			return nil, err
		}
		log.Println("Using MySQL with GORM")
		return db, nil
	}
}

// buildSource picks the acquisition source from config.
func buildSource(cfg *config.Config, profile *criteria.Profile, limiter *ratelimit.Limiter) fetcher.Source {
	if cfg.Fetcher.Source == "suumo" {
		return fetcher.NewSuumoSource(fetcher.SuumoConfig{
			Timeout:      cfg.Fetcher.GetTimeout(),
			MaxRetries:   cfg.Fetcher.MaxRetries,
			RetryDelay:   cfg.Fetcher.GetRetryDelay(),
			RequestDelay: cfg.Fetcher.GetRequestDelay(),
			MaxPerArea:   cfg.Fetcher.MaxPerArea,
			BudgetMinJPY: profile.BudgetMin,
			BudgetMaxJPY: profile.BudgetMax,
			Limiter:      limiter,
		})
	}
	return fetcher.NewStaticSource()
}

func portString(port int) string {
	if port <= 0 {
		return ""
	}
	return fmt.Sprintf("%d", port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig returns the config value if set, otherwise the environment
// variable, then the default.
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}
