package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Port                     string
	DatabaseURL              string
	ContentPath              string
	MaxPlayers               int
	RevealPhase              bool
	ReverseProbability       float64
	TopicTemplate            string
	PlayerIdleSeconds        int
	SweepSchedule            string
	EventRetentionDays       int
	PruneSchedule            string
	RateLimitPerMinute       int
	RateLimitBurst           int
	AllowedOrigins           []string
	AdminToken               string
	PublicURL                string
	WSPingSeconds            int
	LogLevel                 string
	LogPretty                bool
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
}

func Default() Config {
	return Config{
		Port:                     "8080",
		ContentPath:              "data.json",
		MaxPlayers:               10,
		RevealPhase:              false,
		ReverseProbability:       0.1,
		TopicTemplate:            "「%s」から始まる「%s」といえば？",
		PlayerIdleSeconds:        600,
		SweepSchedule:            "@every 1m",
		EventRetentionDays:       7,
		PruneSchedule:            "0 4 * * *",
		RateLimitPerMinute:       120,
		RateLimitBurst:           30,
		AllowedOrigins:           []string{"*"},
		PublicURL:                "http://localhost:8080",
		WSPingSeconds:            25,
		LogLevel:                 "info",
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("PORT"); raw != "" {
		cfg.Port = raw
	}
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		cfg.DatabaseURL = raw
	}
	if raw := os.Getenv("CONTENT_PATH"); raw != "" {
		cfg.ContentPath = raw
	}
	if raw := os.Getenv("MAX_PLAYERS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MaxPlayers = value
		}
	}
	if raw := os.Getenv("REVEAL_PHASE"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.RevealPhase = value
		}
	}
	if raw := os.Getenv("REVERSE_PROBABILITY"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil && value >= 0 && value <= 1 {
			cfg.ReverseProbability = value
		}
	}
	if raw := os.Getenv("TOPIC_TEMPLATE"); raw != "" {
		cfg.TopicTemplate = raw
	}
	if raw := os.Getenv("PLAYER_IDLE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.PlayerIdleSeconds = value
		}
	}
	if raw := os.Getenv("SWEEP_SCHEDULE"); raw != "" {
		cfg.SweepSchedule = raw
	}
	if raw := os.Getenv("EVENT_RETENTION_DAYS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.EventRetentionDays = value
		}
	}
	if raw := os.Getenv("PRUNE_SCHEDULE"); raw != "" {
		cfg.PruneSchedule = raw
	}
	if raw := os.Getenv("RATE_LIMIT_PER_MINUTE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.RateLimitPerMinute = value
		}
	}
	if raw := os.Getenv("RATE_LIMIT_BURST"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.RateLimitBurst = value
		}
	}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		origins := make([]string, 0)
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		if len(origins) > 0 {
			cfg.AllowedOrigins = origins
		}
	}
	if raw := os.Getenv("ADMIN_TOKEN"); raw != "" {
		cfg.AdminToken = raw
	}
	if raw := os.Getenv("PUBLIC_URL"); raw != "" {
		cfg.PublicURL = strings.TrimRight(raw, "/")
	}
	if raw := os.Getenv("WS_PING_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.WSPingSeconds = value
		}
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		cfg.LogLevel = raw
	}
	if raw := os.Getenv("LOG_PRETTY"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.LogPretty = value
		}
	}
	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxOpenConns = value
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxIdleConns = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxLifetimeSeconds = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxIdleTimeSeconds = value
		}
	}
	return cfg
}
