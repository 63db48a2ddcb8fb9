package config

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Sources SourcesConfig
	State   StateConfig
	Engine  EngineConfig
	Redis   RedisConfig
	CORS    CORSConfig
	Log     LogConfig
	Exports ExportsConfig
	Cache   CacheConfig
	History HistoryConfig
}

// SourcesConfig locates the flat input files the engine reads.
type SourcesConfig struct {
	DataDir       string
	TimetableFile string
	RosterFile    string
	SchedulesFile string
	OverridesFile string
}

// StateConfig locates the persisted run output.
type StateConfig struct {
	Dir string
}

// EngineConfig tunes the allocation and verification caps.
type EngineConfig struct {
	MaxDailyAssignments int
	SubstituteVerifyCap int
	RegularVerifyCap    int
	ScanPrefixLength    int
	DefaultGradeLevel   int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ExportsConfig configures asynchronous substitution-sheet exports.
type ExportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// CacheConfig governs the read-side assignment cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// HistoryConfig gates the on-device run history store.
type HistoryConfig struct {
	Enabled bool
	DBPath  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	dataDir := v.GetString("DATA_DIR")
	cfg.Sources = SourcesConfig{
		DataDir:       dataDir,
		TimetableFile: resolvePath(dataDir, v.GetString("TIMETABLE_FILE")),
		RosterFile:    resolvePath(dataDir, v.GetString("ROSTER_FILE")),
		SchedulesFile: resolvePath(dataDir, v.GetString("SCHEDULES_FILE")),
		OverridesFile: resolvePath(dataDir, v.GetString("OVERRIDES_FILE")),
	}

	cfg.State = StateConfig{Dir: v.GetString("STATE_DIR")}

	cfg.Engine = EngineConfig{
		MaxDailyAssignments: v.GetInt("MAX_DAILY_ASSIGNMENTS"),
		SubstituteVerifyCap: v.GetInt("SUBSTITUTE_VERIFY_CAP"),
		RegularVerifyCap:    v.GetInt("REGULAR_VERIFY_CAP"),
		ScanPrefixLength:    v.GetInt("SCAN_PREFIX_LENGTH"),
		DefaultGradeLevel:   v.GetInt("DEFAULT_GRADE_LEVEL"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Exports = ExportsConfig{
		Enabled:           v.GetBool("ENABLE_EXPORTS"),
		StorageDir:        v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("EXPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("EXPORTS_WORKER_RETRIES"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 10*time.Minute),
	}

	cfg.History = HistoryConfig{
		Enabled: v.GetBool("ENABLE_HISTORY"),
		DBPath:  v.GetString("HISTORY_DB_PATH"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("TIMETABLE_FILE", "timetable.csv")
	v.SetDefault("ROSTER_FILE", "substitutes.csv")
	v.SetDefault("SCHEDULES_FILE", "teacher_schedules.json")
	v.SetDefault("OVERRIDES_FILE", "period_overrides.json")

	v.SetDefault("STATE_DIR", "./state")

	v.SetDefault("MAX_DAILY_ASSIGNMENTS", 6)
	v.SetDefault("SUBSTITUTE_VERIFY_CAP", 3)
	v.SetDefault("REGULAR_VERIFY_CAP", 2)
	v.SetDefault("SCAN_PREFIX_LENGTH", 5)
	v.SetDefault("DEFAULT_GRADE_LEVEL", 10)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_EXPORTS", false)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("EXPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("EXPORTS_WORKER_RETRIES", 3)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "10m")

	v.SetDefault("ENABLE_HISTORY", false)
	v.SetDefault("HISTORY_DB_PATH", "./state/runs.db")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

func resolvePath(dir, file string) string {
	if file == "" {
		return ""
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(dir, file)
}
