// Package config loads application configuration from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every runtime knob. Values come from the environment, with an
// optional .env file for local development.
type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`

	// Auth
	JWTSecret  string        `env:"JWT_SECRET,required"`
	JWTTTL     time.Duration `env:"JWT_TTL" envDefault:"24h"`
	ResetTTL   time.Duration `env:"RESET_TOKEN_TTL" envDefault:"1h"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"12"`

	// Ingestion sources
	ArticleFeeds    []string `env:"ARTICLE_FEEDS" envSeparator:","`
	ArxivCategories []string `env:"ARXIV_CATEGORIES" envSeparator:"," envDefault:"cs.AI,cs.LG"`
	YouTubeChannels []string `env:"YOUTUBE_CHANNELS" envSeparator:","`
	ArxivMaxResults int      `env:"ARXIV_MAX_RESULTS" envDefault:"50"`

	// Ingestion behavior
	ScrapeInterval time.Duration `env:"SCRAPE_INTERVAL" envDefault:"1h"`
	WebFetchRPS    float64       `env:"WEB_FETCH_RPS" envDefault:"1"`

	// NLP boundary
	NLPAPIKey    string `env:"NLP_API_KEY"`
	NLPModel     string `env:"NLP_MODEL" envDefault:"gpt-4o-mini"`
	RateLimitRPS int    `env:"RATE_LIMIT_RPS" envDefault:"1"`

	// Background sweeps
	AlertSweepInterval time.Duration `env:"ALERT_SWEEP_INTERVAL" envDefault:"30m"`
	GaugeSweepInterval time.Duration `env:"GAUGE_SWEEP_INTERVAL" envDefault:"5m"`
	AlertLookback      time.Duration `env:"ALERT_LOOKBACK" envDefault:"1h"`

	// Dashboard
	DashboardDefaultLimit int `env:"DASHBOARD_DEFAULT_LIMIT" envDefault:"10"`
	TrendingWindowDays    int `env:"TRENDING_WINDOW_DAYS" envDefault:"30"`

	// Database pool
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"2"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
