package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers
const (
	DriverGORM      = "gorm"
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"
	DriverMongo     = "mongo"
	DriverMemory    = "memory"
)

// Identity providers
const (
	AuthJWT      = "jwt"
	AuthFirebase = "firebase"
)

// DefaultAllowedOrigin is the CORS origin used when ALLOWED_ORIGINS is empty
const DefaultAllowedOrigin = "http://localhost:3000"

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

// Config holds every setting of the service
type Config struct {
	GoEnv     string
	Port      int
	LogLevel  string
	LogFormat string

	CollegeID     string
	StoreDriver   string
	StoreMaxBatch int

	// Postgres (gorm and postgres drivers)
	DBUserName string
	DBPassword string
	DBName     string
	DBHost     string
	DBPort     string
	DBSSLMode  string

	// Firebase (firestore driver and firebase auth)
	FirebaseProjectID       string
	FirebaseCredentialsFile string

	// MongoDB
	MongoURI      string
	MongoDatabase string

	// Redis
	RedisURL string
	CacheTTL time.Duration

	// Identity
	AuthProvider string
	JWTSecret    string
	JWTIssuer    string

	CronEnabled bool

	// Subtree archive on delete (DigitalOcean Spaces / S3)
	ArchiveEnabled     bool
	SpacesAccessKey    string
	SpacesSecretKey    string
	SpacesBucket       string
	SpacesRegion       string
	SpacesEndpoint     string
	AllowedOrigins     string
	RateLimitPerMinute int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GO_ENV", "development")
	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("COLLEGE_ID", "GEC")
	v.SetDefault("STORE_DRIVER", DriverGORM)
	v.SetDefault("STORE_MAX_BATCH", 500)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("MONGO_DATABASE", "campus")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CACHE_TTL", "10m")
	v.SetDefault("AUTH_PROVIDER", AuthJWT)
	v.SetDefault("JWT_ISSUER", "campus-api")
	v.SetDefault("CRON_ENABLED", true)
	v.SetDefault("ARCHIVE_ENABLED", false)
	v.SetDefault("ALLOWED_ORIGINS", DefaultAllowedOrigin)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 100)
}

// Get reads the configuration from the environment
func Get() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		GoEnv:     v.GetString("GO_ENV"),
		Port:      v.GetInt("PORT"),
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		CollegeID:     v.GetString("COLLEGE_ID"),
		StoreDriver:   strings.ToLower(v.GetString("STORE_DRIVER")),
		StoreMaxBatch: v.GetInt("STORE_MAX_BATCH"),

		DBUserName: v.GetString("DB_USER_NAME"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBSSLMode:  v.GetString("DB_SSL_MODE"),

		FirebaseProjectID:       v.GetString("FIREBASE_PROJECT_ID"),
		FirebaseCredentialsFile: v.GetString("FIREBASE_CREDENTIALS_FILE"),

		MongoURI:      v.GetString("MONGO_URI"),
		MongoDatabase: v.GetString("MONGO_DATABASE"),

		RedisURL: v.GetString("REDIS_URL"),
		CacheTTL: v.GetDuration("CACHE_TTL"),

		AuthProvider: strings.ToLower(v.GetString("AUTH_PROVIDER")),
		JWTSecret:    v.GetString("JWT_SECRET"),
		JWTIssuer:    v.GetString("JWT_ISSUER"),

		CronEnabled: v.GetBool("CRON_ENABLED"),

		ArchiveEnabled:     v.GetBool("ARCHIVE_ENABLED"),
		SpacesAccessKey:    v.GetString("DO_SPACES_ACCESS_KEY"),
		SpacesSecretKey:    v.GetString("DO_SPACES_SECRET_KEY"),
		SpacesBucket:       v.GetString("DO_SPACES_BUCKET"),
		SpacesRegion:       v.GetString("DO_SPACES_REGION"),
		SpacesEndpoint:     v.GetString("DO_SPACES_ENDPOINT"),
		AllowedOrigins:     v.GetString("ALLOWED_ORIGINS"),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
	}

	if cfg.SpacesEndpoint == "" && cfg.SpacesRegion != "" {
		cfg.SpacesEndpoint = fmt.Sprintf("%s.digitaloceanspaces.com", cfg.SpacesRegion)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Origins splits ALLOWED_ORIGINS on commas, dropping blanks and trailing slashes
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Validate checks combinations the service cannot start with
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverGORM, DriverPostgres, DriverFirestore, DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of gorm, postgres, firestore, mongo, memory; got %q", c.StoreDriver)
	}

	if c.StoreMaxBatch < 1 {
		return fmt.Errorf("STORE_MAX_BATCH must be positive")
	}
	if c.CollegeID == "" || strings.Contains(c.CollegeID, "/") {
		return fmt.Errorf("COLLEGE_ID must be a non-empty id without '/'")
	}
	if c.StoreDriver == DriverMongo && c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required for the mongo driver")
	}

	switch c.AuthProvider {
	case AuthJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET environment variable is not set")
		}
	case AuthFirebase:
	default:
		return fmt.Errorf("AUTH_PROVIDER must be jwt or firebase; got %q", c.AuthProvider)
	}

	if c.ArchiveEnabled && (c.SpacesBucket == "" || c.SpacesRegion == "") {
		return fmt.Errorf("DO_SPACES_BUCKET and DO_SPACES_REGION must be configured when ARCHIVE_ENABLED is set")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}
