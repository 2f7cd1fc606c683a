package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/careercoach/careercoach/backend/go-services/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	OAuth     OAuthConfig
	JWT       JWTConfig
	Session   SessionConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	// FrontendURL is the base every OAuth redirect points back to.
	FrontendURL string
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// IsProduction reports whether NODE_ENV/SERVER_ENVIRONMENT is "production".
func (s ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

type DatabaseConfig struct {
	Driver      string // postgres | sqlite
	URL         string
	AutoMigrate bool
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// ProviderConfig is the raw client registration for one identity provider.
type ProviderConfig struct {
	Name         string
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// Complete reports whether both client id and secret are present.
func (p ProviderConfig) Complete() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

type OAuthConfig struct {
	Google   ProviderConfig
	LinkedIn ProviderConfig
	// LinkPolicy controls attaching a provider id to an existing account: always | oauth_only
	LinkPolicy string
}

// EnabledProviders returns the providers with complete credentials, in a fixed order.
func (o OAuthConfig) EnabledProviders() []ProviderConfig {
	var out []ProviderConfig
	for _, p := range []ProviderConfig{o.Google, o.LinkedIn} {
		if p.Complete() {
			out = append(out, p)
		}
	}
	return out
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type SessionConfig struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

var defaultDevOrigins = []string{
	"http://localhost:5173",
	"http://localhost:5174",
	"http://localhost:5175",
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "5000")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("NODE_ENV", "development")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_AUTO_MIGRATE", true)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MONGODB_DATABASE", "careercoach")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("GOOGLE_CALLBACK_URL", "http://localhost:5000/api/auth/google/callback")
	v.SetDefault("LINKEDIN_CALLBACK_URL", "http://localhost:5000/api/auth/linkedin/callback")
	v.SetDefault("OAUTH_LINK_POLICY", "always")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("JWT_TTL_HOURS", 7*24)
	v.SetDefault("SESSION_SECRET", defaultSessionSecret)
	v.SetDefault("SESSION_TTL_HOURS", 24)
	v.SetDefault("SESSION_COOKIE_NAME", "careercoach.sid")
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)

	env := v.GetString("NODE_ENV")
	if se := v.GetString("SERVER_ENVIRONMENT"); se != "" {
		env = se
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  env,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:      strings.ToLower(v.GetString("DATABASE_DRIVER")),
			URL:         v.GetString("DATABASE_URL"),
			AutoMigrate: v.GetBool("DATABASE_AUTO_MIGRATE"),
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		OAuth: OAuthConfig{
			Google: ProviderConfig{
				Name:         "google",
				ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
				ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
				CallbackURL:  v.GetString("GOOGLE_CALLBACK_URL"),
			},
			LinkedIn: ProviderConfig{
				Name:         "linkedin",
				ClientID:     v.GetString("LINKEDIN_CLIENT_ID"),
				ClientSecret: v.GetString("LINKEDIN_CLIENT_SECRET"),
				CallbackURL:  v.GetString("LINKEDIN_CALLBACK_URL"),
			},
			LinkPolicy: strings.ToLower(v.GetString("OAUTH_LINK_POLICY")),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			TTL:    time.Duration(v.GetInt("JWT_TTL_HOURS")) * time.Hour,
		},
		Session: SessionConfig{
			Secret:     v.GetString("SESSION_SECRET"),
			TTL:        time.Duration(v.GetInt("SESSION_TTL_HOURS")) * time.Hour,
			CookieName: v.GetString("SESSION_COOKIE_NAME"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		FrontendURL: strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
	}
	cfg.Session.Secure = cfg.Server.IsProduction()
	cfg.CORS.AllowedOrigins = allowedOrigins(v.GetString("CORS_ALLOWED_ORIGINS"), cfg.FrontendURL)

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("environment variable DATABASE_URL is required")
	}
	switch cfg.Database.Driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q (want postgres or sqlite)", cfg.Database.Driver)
	}
	switch cfg.OAuth.LinkPolicy {
	case "always", "oauth_only":
	default:
		return nil, fmt.Errorf("unsupported OAUTH_LINK_POLICY %q (want always or oauth_only)", cfg.OAuth.LinkPolicy)
	}

	if cfg.JWT.Secret == "" {
		logger.Warn("JWT_SECRET is not set; bearer tokens cannot be issued until it is")
	}
	if cfg.Session.Secret == defaultSessionSecret {
		if cfg.Server.IsProduction() {
			return nil, fmt.Errorf("SESSION_SECRET must be set in production")
		}
		logger.Warn("SESSION_SECRET is not set; using the development default")
	}

	return cfg, nil
}

// development-only cookie signing secret, refused in production
const defaultSessionSecret = "your-secret-key"

// allowedOrigins merges an explicit comma separated list (or the dev defaults) with the frontend URL.
func allowedOrigins(raw, frontend string) []string {
	var base []string
	if strings.TrimSpace(raw) != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				base = append(base, strings.TrimRight(o, "/"))
			}
		}
	} else {
		base = append(base, defaultDevOrigins...)
	}
	seen := map[string]bool{}
	var out []string
	for _, o := range append(base, frontend) {
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	return out
}
