package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultCompany           = "Realty of America"
	defaultRenderEndpoint    = "https://api.bannerbear.com/v2"
	defaultImageHostEndpoint = "https://freeimage.host/api/1/upload"
	defaultMLSEndpoint       = "https://staging-v2.realtyofamerica.com/api/mls-search/v1"
	defaultMLSSystemID       = 386
	defaultGeminiModel       = "gemini-2.0-flash"
)

type Config struct {
	Port    string
	Env     string
	Company string

	GeminiAPIKey string
	GeminiModel  string

	RenderAPIKey   string
	RenderEndpoint string

	ImageHostAPIKey   string
	ImageHostEndpoint string

	MLSEndpoint string
	MLSSystemID int

	// FieldMapFile optionally overrides the built-in layer->path table.
	FieldMapFile string

	// DatabaseURL enables the Postgres turn log when set.
	DatabaseURL string

	Archive ArchiveConfig

	SessionCap int
	SessionTTL time.Duration
	CatalogTTL time.Duration
}

// ArchiveConfig enables the S3 design archive when an endpoint is set.
type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8080", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:    *port,
		Env:     env,
		Company: firstNonEmpty(strings.TrimSpace(os.Getenv("COMPANY_NAME")), defaultCompany),

		GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:  firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_MODEL")), defaultGeminiModel),

		RenderAPIKey:   strings.TrimSpace(os.Getenv("RENDER_API_KEY")),
		RenderEndpoint: firstNonEmpty(strings.TrimSpace(os.Getenv("RENDER_API_ENDPOINT")), defaultRenderEndpoint),

		ImageHostAPIKey:   strings.TrimSpace(os.Getenv("IMAGE_HOST_API_KEY")),
		ImageHostEndpoint: firstNonEmpty(strings.TrimSpace(os.Getenv("IMAGE_HOST_ENDPOINT")), defaultImageHostEndpoint),

		MLSEndpoint: firstNonEmpty(strings.TrimSpace(os.Getenv("MLS_SEARCH_ENDPOINT")), defaultMLSEndpoint),
		MLSSystemID: intEnv("MLS_SYSTEM_ID", defaultMLSSystemID),

		FieldMapFile: strings.TrimSpace(os.Getenv("FIELD_MAP_FILE")),
		DatabaseURL:  strings.TrimSpace(os.Getenv("DATABASE_URL")),

		Archive: loadArchiveConfig(),

		SessionCap: intEnv("SESSION_CAP", 1024),
		SessionTTL: durationEnv("SESSION_TTL", 2*time.Hour),
		CatalogTTL: durationEnv("CATALOG_TTL", 10*time.Minute),
	}, nil
}

func loadArchiveConfig() ArchiveConfig {
	endpoint := strings.TrimSpace(os.Getenv("ARCHIVE_S3_ENDPOINT"))
	return ArchiveConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_BUCKET")), "designify-designs"),
		UseSSL:    boolEnv("ARCHIVE_S3_USE_SSL", true),
	}
}

func intEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func boolEnv(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
