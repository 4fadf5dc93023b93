// Package properties holds the typed runtime configuration for the service.
// Everything is loaded from the environment once and passed into constructors;
// no package reads os.Getenv at call time.
package properties

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config is the complete application configuration.
type Config struct {
	Server     ServerConfig     `envPrefix:"SERVER_"`
	Copernicus CopernicusConfig `envPrefix:"CDSE_"`
	Limits     LimitsConfig     `envPrefix:"LIMIT_"`
	Output     OutputConfig     `envPrefix:"OUTPUT_"`
	Discord    DiscordConfig    `envPrefix:"DISCORD_"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PORT" envDefault:"5000"`
}

// CopernicusConfig configures the Copernicus Data Space Ecosystem clients.
type CopernicusConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	TokenURL     string `env:"TOKEN_URL" envDefault:"https://identity.dataspace.copernicus.eu/auth/realms/CDSE/protocol/openid-connect/token"`
	BaseURL      string `env:"BASE_URL" envDefault:"https://sh.dataspace.copernicus.eu"`
	Collection   string `env:"COLLECTION" envDefault:"sentinel-2-l1c"`
}

// LimitsConfig contains the request guards and pipeline tuning knobs.
type LimitsConfig struct {
	MaxPolygonAreaSqKm   float64 `env:"MAX_POLYGON_AREA_SQKM" envDefault:"25"`
	MaxImagesPerInterval int     `env:"MAX_IMAGES_PER_INTERVAL" envDefault:"30"`
	CloudCeiling         float64 `env:"CLOUD_CEILING" envDefault:"0.8"`
	Workers              int     `env:"WORKERS" envDefault:"4"`
}

// OutputConfig controls where artifacts are written and served from.
type OutputConfig struct {
	Dir      string `env:"DIR" envDefault:"output"`
	CacheDir string `env:"CACHE_DIR"`
}

// DiscordConfig holds optional webhook URLs for run notifications.
type DiscordConfig struct {
	ErrorWebhookURL   string `env:"ERROR_NOTIFICATION_URL"`
	SuccessWebhookURL string `env:"SUCCESS_NOTIFICATION_URL"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if cfg.Limits.Workers < 1 {
		cfg.Limits.Workers = 1
	}
	return cfg, nil
}

// LoadDotenv loads a .env file when one exists. A missing file is fine; the
// environment may already be populated by the deployment.
func LoadDotenv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			return
		}
	}
}
