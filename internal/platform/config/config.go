package config

import (
	"os"
	"strconv"
)

// Config carries all environment-driven settings for the service.
type Config struct {
	// HTTP
	HTTPPort string

	// Tracking store (Postgres when DATABASE_URL is set, SQLite otherwise)
	DatabaseURL string
	SQLitePath  string

	// Manifest source database (defaults to the tracking store URL)
	SourceDatabaseURL string

	// Fleet GPS vendor API
	PositionAPIBase  string
	PositionAPIToken string

	// Redis (optional; empty addr disables alert publishing)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AlertChannel  string

	// Seed files
	GeofenceSeedPath string
	HistorySeedPath  string
	ProfileSeedPath  string

	// Processing
	CacheTTLSeconds     int
	CycleTimeoutSeconds int
	CycleWorkers        int
	DepartedStatus      string

	// Alert thresholds (hours)
	AttentionHours float64
	WarningHours   float64
	CriticalHours  float64
}

func Load() *Config {
	return &Config{
		HTTPPort:            Get("PORT", "8080"),
		DatabaseURL:         Get("DATABASE_URL", ""),
		SQLitePath:          Get("SQLITE_PATH", "data/tracking.db"),
		SourceDatabaseURL:   Get("SOURCE_DATABASE_URL", ""),
		PositionAPIBase:     Get("POSITION_API_BASE", ""),
		PositionAPIToken:    Get("POSITION_API_TOKEN", ""),
		RedisAddr:           Get("REDIS_ADDR", ""),
		RedisPassword:       Get("REDIS_PASSWORD", ""),
		RedisDB:             getInt("REDIS_DB", 0),
		AlertChannel:        Get("ALERT_CHANNEL", "tracking:alerts"),
		GeofenceSeedPath:    Get("GEOFENCE_SEED_PATH", "data/seeds/geofences.json"),
		HistorySeedPath:     Get("HISTORY_SEED_PATH", ""),
		ProfileSeedPath:     Get("PROFILE_SEED_PATH", ""),
		CacheTTLSeconds:     getInt("CACHE_TTL_SECONDS", 300),
		CycleTimeoutSeconds: getInt("CYCLE_TIMEOUT_SECONDS", 120),
		CycleWorkers:        getInt("CYCLE_WORKERS", 8),
		DepartedStatus:      Get("DEPARTED_STATUS", "SALIDA"),
		AttentionHours:      getFloat("ALERT_ATTENTION_HOURS", 4),
		WarningHours:        getFloat("ALERT_WARNING_HOURS", 8),
		CriticalHours:       getFloat("ALERT_CRITICAL_HOURS", 48),
	}
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
