package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"truck-tracking-service/internal/adapters/feeds"
	"truck-tracking-service/internal/adapters/notify"
	"truck-tracking-service/internal/adapters/repositories"
	"truck-tracking-service/internal/adapters/sources"
	"truck-tracking-service/internal/api"
	"truck-tracking-service/internal/platform/config"
	"truck-tracking-service/internal/platform/db"
	"truck-tracking-service/internal/ports"
	"truck-tracking-service/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"
)

// main is the application composition root.
// It wires concrete adapters (Postgres/SQLite, GPS vendor API, Redis)
// behind ports, loads the geofence and history seeds, and starts the
// HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg := config.Load()

	store, repo, err := openStore(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	manifests, closeSource, err := openManifestFeed(cfg, store)
	if err != nil {
		log.Fatal(err)
	}
	defer closeSource()

	positions, err := feeds.NewHTTPPositionFeed(cfg.PositionAPIBase, cfg.PositionAPIToken)
	if err != nil {
		log.Fatal(err)
	}

	var notifier ports.AlertNotifier
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rn, err := notify.NewRedisAlertNotifier(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.AlertChannel)
		cancel()
		if err != nil {
			log.Fatal(err)
		}
		defer rn.Close()
		notifier = rn
		log.Printf("critical alert publishing enabled channel=%s", cfg.AlertChannel)
	}

	var history ports.HistorySource
	if cfg.HistorySeedPath != "" {
		history = &sources.JSONHistorySource{Path: cfg.HistorySeedPath}
	}

	tracker := services.NewTracker(
		positions,
		manifests,
		repo,
		&sources.JSONGeofenceSource{Path: cfg.GeofenceSeedPath},
		history,
		notifier,
		services.TrackerConfig{
			CacheTTL:       time.Duration(cfg.CacheTTLSeconds) * time.Second,
			CycleTimeout:   time.Duration(cfg.CycleTimeoutSeconds) * time.Second,
			Workers:        cfg.CycleWorkers,
			DepartedStatus: cfg.DepartedStatus,
			Thresholds: services.WaitThresholds{
				Attention: time.Duration(cfg.AttentionHours * float64(time.Hour)),
				Warning:   time.Duration(cfg.WarningHours * float64(time.Hour)),
				Critical:  time.Duration(cfg.CriticalHours * float64(time.Hour)),
			},
		},
	)

	if err := loadSeeds(tracker, cfg); err != nil {
		log.Fatal(err)
	}

	// Warm the snapshot so the first /trucks request does not pay for a
	// full cycle. Failures here are logged, not fatal; the first request
	// retries.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.CycleTimeoutSeconds)*time.Second)
		defer cancel()
		if err := tracker.RunCycle(ctx); err != nil {
			log.Printf("startup cycle failed err=%v", err)
		}
	}()

	router := api.NewRouter(tracker, store.Ping)

	// WriteTimeout covers a synchronous ?wait=true cycle trigger.
	log.Printf("Server listening addr=:%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      time.Duration(cfg.CycleTimeoutSeconds+30) * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

// openStore connects the tracking store: Postgres when DATABASE_URL is
// set, a local SQLite file otherwise. Schema init runs on every start.
func openStore(cfg *config.Config) (*sql.DB, ports.TrackingRepository, error) {
	if cfg.DatabaseURL != "" {
		store, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := repositories.InitSchema(store, repositories.DialectPostgres); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, repositories.NewSQLTrackingRepository(store), nil
	}

	store, err := db.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	if err := repositories.InitSchema(store, repositories.DialectSqlite); err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, repositories.NewSqliteTrackingRepository(store), nil
}

// openManifestFeed connects the fleet source database that holds trip
// manifests. When SOURCE_DATABASE_URL is unset the tracking store doubles
// as the source, which is how local and test environments run.
func openManifestFeed(cfg *config.Config, store *sql.DB) (ports.ManifestFeed, func(), error) {
	if cfg.SourceDatabaseURL == "" {
		return feeds.NewSQLManifestFeed(store, cfg.DepartedStatus), func() {}, nil
	}

	source, err := db.Open(cfg.SourceDatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return feeds.NewSQLManifestFeed(source, cfg.DepartedStatus), func() { source.Close() }, nil
}

func loadSeeds(tracker *services.Tracker, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := tracker.ReloadGeofences(ctx); err != nil {
		return err
	}
	if err := tracker.ReloadHistory(ctx); err != nil {
		return err
	}

	// Without a seed file the tracker keeps its built-in destination
	// profiles.
	if cfg.ProfileSeedPath != "" {
		src := &sources.JSONProfileSource{Path: cfg.ProfileSeedPath}
		profiles, err := src.ListProfiles(ctx)
		if err != nil {
			return err
		}
		tracker.SetProfiles(profiles)
	}
	return nil
}
