package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	StorageTypePostgres = "postgres"
	StorageTypeMemory   = "memory"
)

// GeofenceFailurePolicy decides what an infrastructure failure during
// geofence processing does to the surrounding timesheet write.
type GeofenceFailurePolicy string

const (
	// FailurePolicyStrict rolls back the whole write.
	FailurePolicyStrict GeofenceFailurePolicy = "strict"
	// FailurePolicyLenient keeps the entry and leaves its geofence status unchecked.
	FailurePolicyLenient GeofenceFailurePolicy = "lenient"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Rules    RulesConfig
	Geofence GeofenceConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Storage  StorageConfig
}

type DatabaseConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MigrateOnStart bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	CORSOrigins []string
}

// RulesConfig holds the timesheet ceilings. Overridable per deployment.
type RulesConfig struct {
	WeeklyHoursLimit      decimal.Decimal
	MonthlyOvertimeLimit  decimal.Decimal
	DefaultHours          decimal.Decimal
	BulkMaxDays           int
	GeofenceFailurePolicy GeofenceFailurePolicy
}

// DefaultRulesConfig returns the stock ceilings: 60 weekly hours, 40 monthly overtime hours, 8 default hours.
func DefaultRulesConfig() RulesConfig {
	return RulesConfig{
		WeeklyHoursLimit:      decimal.NewFromInt(60),
		MonthlyOvertimeLimit:  decimal.NewFromInt(40),
		DefaultHours:          decimal.NewFromInt(8),
		BulkMaxDays:           31,
		GeofenceFailurePolicy: FailurePolicyStrict,
	}
}

type GeofenceConfig struct {
	MinRadiusMeters        float64
	MaxRadiusMeters        float64
	MaxPolygonPoints       int
	ZoneCacheTTL           time.Duration
	ViolationRetentionDays int
	CleanupInterval        time.Duration
	ViolationSubjectPrefix string
}

type RedisConfig struct {
	URL string
}

type NATSConfig struct {
	URL string
}

type StorageConfig struct {
	Type string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:           getEnv("DB_HOST", "localhost"),
		Port:           dbPort,
		User:           getEnv("DB_USER", "postgres"),
		Password:       getEnv("DB_PASSWORD", ""),
		Name:           getEnv("DB_NAME", "cmlabs-timesheet"),
		SSLMode:        getEnv("DB_SSL_MODE", "disable"),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", true),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}
	if len(config.App.CORSOrigins) == 0 {
		config.App.CORSOrigins = []string{"http://localhost:3000"}
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Rule ceilings
	rules := DefaultRulesConfig()
	if rules.WeeklyHoursLimit, err = getEnvDecimal("WEEKLY_HOURS_LIMIT", rules.WeeklyHoursLimit); err != nil {
		return nil, err
	}
	if rules.MonthlyOvertimeLimit, err = getEnvDecimal("MONTHLY_OVERTIME_LIMIT", rules.MonthlyOvertimeLimit); err != nil {
		return nil, err
	}
	if rules.DefaultHours, err = getEnvDecimal("TIMESHEET_DEFAULT_HOURS", rules.DefaultHours); err != nil {
		return nil, err
	}
	if rules.BulkMaxDays, err = getEnvInt("TIMESHEET_BULK_MAX_DAYS", rules.BulkMaxDays); err != nil {
		return nil, err
	}
	rules.GeofenceFailurePolicy = GeofenceFailurePolicy(getEnv("GEOFENCE_FAILURE_POLICY", string(FailurePolicyStrict)))
	config.Rules = rules

	// Geofence configuration
	minRadius, err := strconv.ParseFloat(getEnv("GEOFENCE_MIN_RADIUS", "1"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid GEOFENCE_MIN_RADIUS: %w", err)
	}
	maxRadius, err := strconv.ParseFloat(getEnv("GEOFENCE_MAX_RADIUS", "50000"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid GEOFENCE_MAX_RADIUS: %w", err)
	}
	maxPoints, err := getEnvInt("GEOFENCE_MAX_POLYGON_POINTS", 50)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := time.ParseDuration(getEnv("GEOFENCE_ZONE_CACHE_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid GEOFENCE_ZONE_CACHE_TTL: %w", err)
	}
	retentionDays, err := getEnvInt("GEOFENCE_VIOLATION_RETENTION_DAYS", 365)
	if err != nil {
		return nil, err
	}
	cleanupInterval, err := time.ParseDuration(getEnv("GEOFENCE_CLEANUP_INTERVAL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid GEOFENCE_CLEANUP_INTERVAL: %w", err)
	}

	config.Geofence = GeofenceConfig{
		MinRadiusMeters:        minRadius,
		MaxRadiusMeters:        maxRadius,
		MaxPolygonPoints:       maxPoints,
		ZoneCacheTTL:           cacheTTL,
		ViolationRetentionDays: retentionDays,
		CleanupInterval:        cleanupInterval,
		ViolationSubjectPrefix: getEnv("NATS_VIOLATION_SUBJECT", "timesheet.geofence.violation"),
	}

	// Optional infrastructure
	config.Redis = RedisConfig{URL: getEnv("REDIS_URL", "")}
	config.NATS = NATSConfig{URL: getEnv("NATS_URL", "")}
	config.Storage = StorageConfig{Type: getEnv("STORAGE_TYPE", StorageTypePostgres)}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageTypePostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case StorageTypeMemory:
	default:
		return fmt.Errorf("STORAGE_TYPE must be %q or %q", StorageTypePostgres, StorageTypeMemory)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	return c.Rules.Validate()
}

func (r RulesConfig) Validate() error {
	if !r.WeeklyHoursLimit.IsPositive() {
		return fmt.Errorf("WEEKLY_HOURS_LIMIT must be positive")
	}
	if !r.MonthlyOvertimeLimit.IsPositive() {
		return fmt.Errorf("MONTHLY_OVERTIME_LIMIT must be positive")
	}
	if r.DefaultHours.IsNegative() || r.DefaultHours.GreaterThan(decimal.NewFromInt(24)) {
		return fmt.Errorf("TIMESHEET_DEFAULT_HOURS must be between 0 and 24")
	}
	if r.BulkMaxDays < 1 {
		return fmt.Errorf("TIMESHEET_BULK_MAX_DAYS must be at least 1")
	}
	switch r.GeofenceFailurePolicy {
	case FailurePolicyStrict, FailurePolicyLenient:
	default:
		return fmt.Errorf("GEOFENCE_FAILURE_POLICY must be %q or %q", FailurePolicyStrict, FailurePolicyLenient)
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvDecimal(key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
