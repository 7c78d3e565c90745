package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile            = ".env"
	defaultPort               = "5000"
	defaultReadTimeout        = 15 * time.Second
	defaultWriteTimeout       = 60 * time.Second
	defaultIdleTimeout        = 120 * time.Second
	defaultStorageBackend     = StorageBackendGCS
	defaultImagePrefix        = "template-images"
	defaultGCSPublicBaseURL   = "https://storage.googleapis.com"
	defaultTemplateStore      = TemplateStoreNone
	defaultFirestoreColl      = "emailTemplates"
	defaultMongoDatabase      = "emailTemplates"
	defaultMongoCollection    = "emailtemplates"
	defaultUploadMaxBytes     = int64(10 << 20)
	defaultUploadRatePerMin   = 30
	defaultRenderDownloadName = "rendered-template.html"
	defaultLogLevel           = "info"
)

// Storage backends supported for uploaded images.
const (
	StorageBackendGCS = "gcs"
	StorageBackendS3  = "s3"
)

// Template stores supported for saved templates.
const (
	TemplateStoreNone      = "none"
	TemplateStoreMemory    = "memory"
	TemplateStoreFirestore = "firestore"
	TemplateStoreMongo     = "mongo"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server      ServerConfig
	Firebase    FirebaseConfig
	Storage     StorageConfig
	Persistence PersistenceConfig
	Events      EventsConfig
	Upload      UploadConfig
	Render      RenderConfig
	CORS        CORSConfig
	Logging     LoggingConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Environment  string
}

// FirebaseConfig stores Firebase project settings used to bootstrap the storage bucket.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// StorageConfig describes where uploaded images are written.
type StorageConfig struct {
	Backend       string
	Bucket        string
	ImagePrefix   string
	PublicBaseURL string
	PublicRead    bool
	S3            S3Config
}

// S3Config holds the S3 specific settings used when Backend is "s3".
type S3Config struct {
	Region         string
	Endpoint       string
	AccessKeyID    string
	SecretKey      string
	ForcePathStyle bool
}

// PersistenceConfig selects and configures the template store.
type PersistenceConfig struct {
	Store     string
	Firestore FirestoreConfig
	Mongo     MongoConfig
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
	Collection   string
}

// MongoConfig stores MongoDB connection parameters.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// EventsConfig configures the optional Pub/Sub topic receiving template events.
type EventsConfig struct {
	ProjectID string
	TopicID   string
}

// UploadConfig constrains image uploads.
type UploadConfig struct {
	MaxBytes         int64
	AllowedTypes     []string
	RatePerMinute    int
	RateLimitEnabled bool
}

// RenderConfig controls the template renderer.
type RenderConfig struct {
	LayoutFile   string
	TempDir      string
	DownloadName string
}

// CORSConfig lists origins allowed to call the gateway from a browser.
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level string
	File  string
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// EnvironmentValues returns the effective key/value environment map after applying the same precedence
// rules as Load (dotenv < OS env < explicit env map).
func EnvironmentValues(opts ...Option) (map[string]string, error) {
	options := defaultLoaderOptions(opts)

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	merge := func(source map[string]string) {
		for key, value := range source {
			values[key] = value
		}
	}

	merge(dotEnvValues)

	if options.useSystemEnv {
		system := make(map[string]string)
		for _, entry := range os.Environ() {
			parts := strings.SplitN(entry, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			if key == "" {
				continue
			}
			system[key] = parts[1]
		}
		merge(system)
	}

	merge(options.envMap)

	return values, nil
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

func defaultLoaderOptions(opts []Option) loaderOptions {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	return options
}

// Load assembles the application configuration by combining defaults, .env overrides
// and environment variables.
func Load(_ context.Context, opts ...Option) (Config, error) {
	options := defaultLoaderOptions(opts)

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "COMPOSER_SERVER_PORT", stringWithDefault(lookup, "PORT", defaultPort)),
			ReadTimeout:  durationWithDefault(lookup, "COMPOSER_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "COMPOSER_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "COMPOSER_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			Environment:  strings.ToLower(stringWithDefault(lookup, "COMPOSER_ENVIRONMENT", "local")),
		},
		Firebase: FirebaseConfig{
			ProjectID:       stringWithDefault(lookup, "COMPOSER_FIREBASE_PROJECT_ID", ""),
			CredentialsFile: stringWithDefault(lookup, "COMPOSER_FIREBASE_CREDENTIALS_FILE", ""),
		},
		Storage: StorageConfig{
			Backend:       strings.ToLower(stringWithDefault(lookup, "COMPOSER_STORAGE_BACKEND", defaultStorageBackend)),
			Bucket:        stringWithDefault(lookup, "COMPOSER_STORAGE_BUCKET", ""),
			ImagePrefix:   strings.Trim(stringWithDefault(lookup, "COMPOSER_STORAGE_IMAGE_PREFIX", defaultImagePrefix), "/"),
			PublicBaseURL: strings.TrimRight(stringWithDefault(lookup, "COMPOSER_STORAGE_PUBLIC_BASE_URL", ""), "/"),
			PublicRead:    boolWithDefault(lookup, "COMPOSER_STORAGE_PUBLIC_READ", true),
			S3: S3Config{
				Region:         stringWithDefault(lookup, "COMPOSER_S3_REGION", ""),
				Endpoint:       stringWithDefault(lookup, "COMPOSER_S3_ENDPOINT", ""),
				AccessKeyID:    stringWithDefault(lookup, "COMPOSER_S3_ACCESS_KEY_ID", ""),
				SecretKey:      stringWithDefault(lookup, "COMPOSER_S3_SECRET_KEY", ""),
				ForcePathStyle: boolWithDefault(lookup, "COMPOSER_S3_FORCE_PATH_STYLE", false),
			},
		},
		Persistence: PersistenceConfig{
			Store: strings.ToLower(stringWithDefault(lookup, "COMPOSER_TEMPLATE_STORE", defaultTemplateStore)),
			Firestore: FirestoreConfig{
				ProjectID:    stringWithDefault(lookup, "COMPOSER_FIRESTORE_PROJECT_ID", ""),
				EmulatorHost: stringWithDefault(lookup, "COMPOSER_FIRESTORE_EMULATOR_HOST", ""),
				Collection:   stringWithDefault(lookup, "COMPOSER_FIRESTORE_COLLECTION", defaultFirestoreColl),
			},
			Mongo: MongoConfig{
				URI:        stringWithDefault(lookup, "COMPOSER_MONGO_URI", ""),
				Database:   stringWithDefault(lookup, "COMPOSER_MONGO_DATABASE", defaultMongoDatabase),
				Collection: stringWithDefault(lookup, "COMPOSER_MONGO_COLLECTION", defaultMongoCollection),
			},
		},
		Events: EventsConfig{
			ProjectID: stringWithDefault(lookup, "COMPOSER_PUBSUB_PROJECT_ID", ""),
			TopicID:   stringWithDefault(lookup, "COMPOSER_PUBSUB_TOPIC", ""),
		},
		Upload: UploadConfig{
			MaxBytes:         int64WithDefault(lookup, "COMPOSER_UPLOAD_MAX_BYTES", defaultUploadMaxBytes),
			AllowedTypes:     csvWithDefault(lookup, "COMPOSER_UPLOAD_ALLOWED_TYPES", []string{"image/*"}),
			RatePerMinute:    intWithDefault(lookup, "COMPOSER_UPLOAD_RATE_PER_MIN", defaultUploadRatePerMin),
			RateLimitEnabled: boolWithDefault(lookup, "COMPOSER_UPLOAD_RATE_LIMIT", true),
		},
		Render: RenderConfig{
			LayoutFile:   stringWithDefault(lookup, "COMPOSER_RENDER_LAYOUT_FILE", ""),
			TempDir:      stringWithDefault(lookup, "COMPOSER_RENDER_TEMP_DIR", ""),
			DownloadName: stringWithDefault(lookup, "COMPOSER_RENDER_DOWNLOAD_NAME", defaultRenderDownloadName),
		},
		CORS: CORSConfig{
			AllowedOrigins: csvWithDefault(lookup, "COMPOSER_CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Logging: LoggingConfig{
			Level: strings.ToLower(stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel)),
			File:  stringWithDefault(lookup, "LOG_FILE", ""),
		},
	}

	// Firestore and Pub/Sub default to the Firebase project when unspecified.
	if cfg.Persistence.Firestore.ProjectID == "" {
		cfg.Persistence.Firestore.ProjectID = cfg.Firebase.ProjectID
	}
	if cfg.Events.ProjectID == "" {
		cfg.Events.ProjectID = cfg.Firebase.ProjectID
	}
	if cfg.Storage.PublicBaseURL == "" && cfg.Storage.Backend == StorageBackendGCS {
		cfg.Storage.PublicBaseURL = defaultGCSPublicBaseURL
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	switch cfg.Storage.Backend {
	case StorageBackendGCS:
	case StorageBackendS3:
		if cfg.Storage.S3.Region == "" {
			missing = append(missing, "Storage.S3.Region")
		}
	default:
		missing = append(missing, "Storage.Backend")
	}
	if cfg.Storage.Bucket == "" {
		missing = append(missing, "Storage.Bucket")
	}
	switch cfg.Persistence.Store {
	case TemplateStoreNone, TemplateStoreMemory:
	case TemplateStoreFirestore:
		if cfg.Persistence.Firestore.ProjectID == "" {
			missing = append(missing, "Persistence.Firestore.ProjectID")
		}
	case TemplateStoreMongo:
		if cfg.Persistence.Mongo.URI == "" {
			missing = append(missing, "Persistence.Mongo.URI")
		}
	default:
		missing = append(missing, "Persistence.Store")
	}
	if cfg.Events.TopicID != "" && cfg.Events.ProjectID == "" {
		missing = append(missing, "Events.ProjectID")
	}
	if cfg.Upload.MaxBytes <= 0 {
		missing = append(missing, "Upload.MaxBytes")
	}
	if strings.TrimSpace(cfg.Render.DownloadName) == "" {
		missing = append(missing, "Render.DownloadName")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	values, err := godotenv.Read(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func int64WithDefault(lookup func(string) (string, bool), key string, fallback int64) int64 {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key string, fallback []string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		out := make([]string, len(fallback))
		copy(out, fallback)
		return out
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
