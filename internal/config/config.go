// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
	StoreMemory    = "memory"

	IdentityFirebase = "firebase"
	IdentityLocal    = "local"

	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type Config struct {
	App      AppConfig      `koanf:"app"`
	Server   ServerConfig   `koanf:"server"`
	Firebase FirebaseConfig `koanf:"firebase"`
	Store    StoreConfig    `koanf:"store"`
	Identity IdentityConfig `koanf:"identity"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	JWT      JWTConfig      `koanf:"jwt"`
	Admin    AdminConfig    `koanf:"admin"`
	Site     SiteConfig     `koanf:"site"`
	Session  SessionConfig  `koanf:"session"`
	CORS     CORSConfig     `koanf:"cors"`
	Log      LogConfig      `koanf:"log"`
	Otel     OtelConfig     `koanf:"otel"`

	// Fallback lists the provider keys that were missing when the local
	// development profile was substituted. Empty when the config is complete.
	Fallback []string `koanf:"-"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type FirebaseConfig struct {
	APIKey             string `koanf:"api_key"`
	AuthDomain         string `koanf:"auth_domain"`
	ProjectID          string `koanf:"project_id"`
	StorageBucket      string `koanf:"storage_bucket"`
	MessagingSenderID  string `koanf:"messaging_sender_id"`
	AppID              string `koanf:"app_id"`
	CredentialsFile    string `koanf:"credentials_file"`
	AuthEmulatorHost   string `koanf:"auth_emulator_host"`
	FirestoreEmulator  string `koanf:"firestore_emulator_host"`
	StorageEmulatorURL string `koanf:"storage_emulator_url"`
}

type StoreConfig struct {
	Driver string `koanf:"driver"`
}

type IdentityConfig struct {
	Provider          string `koanf:"provider"`
	MinPasswordLength int    `koanf:"min_password_length"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type JWTConfig struct {
	PrivateKeyPath     string        `koanf:"private_key_path"`
	AccessTokenExpire  time.Duration `koanf:"access_token_expire"`
	RefreshTokenExpire time.Duration `koanf:"refresh_token_expire"`
	Issuer             string        `koanf:"issuer"`
	Audience           string        `koanf:"audience"`
}

type AdminConfig struct {
	Emails string `koanf:"emails"`
}

type SiteConfig struct {
	URL string `koanf:"url"`
}

type SessionConfig struct {
	ResolveTimeout time.Duration `koanf:"resolve_timeout"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	c.applyFallback()

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Mahuru Activation",
		"app.version":     "1.0.0",
		"app.environment": EnvDevelopment,

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "0s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"identity.min_password_length": 6,

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 2,

		"jwt.access_token_expire":  "15m",
		"jwt.refresh_token_expire": "720h",
		"jwt.issuer":               "mahuru-activation",
		"jwt.audience":             "mahuru-activation-api",
		"jwt.private_key_path":     "keys/private.pem",

		"site.url":                "http://localhost:3000",
		"session.resolve_timeout": "10s",

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "mahuru-activation",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"ENVIRONMENT":                    "app.environment",
	"HOST":                           "server.host",
	"PORT":                           "server.port",
	"FIREBASE_API_KEY":               "firebase.api_key",
	"FIREBASE_AUTH_DOMAIN":           "firebase.auth_domain",
	"FIREBASE_PROJECT_ID":            "firebase.project_id",
	"FIREBASE_STORAGE_BUCKET":        "firebase.storage_bucket",
	"FIREBASE_MESSAGING_SENDER_ID":   "firebase.messaging_sender_id",
	"FIREBASE_APP_ID":                "firebase.app_id",
	"GOOGLE_APPLICATION_CREDENTIALS": "firebase.credentials_file",
	"FIREBASE_AUTH_EMULATOR_HOST":    "firebase.auth_emulator_host",
	"FIRESTORE_EMULATOR_HOST":        "firebase.firestore_emulator_host",
	"STORAGE_EMULATOR_URL":           "firebase.storage_emulator_url",
	"STORE_DRIVER":                   "store.driver",
	"IDENTITY_PROVIDER":              "identity.provider",
	"DATABASE_URL":                   "database.url",
	"REDIS_URL":                      "redis.url",
	"JWT_PRIVATE_KEY_PATH":           "jwt.private_key_path",
	"JWT_ACCESS_TOKEN_EXPIRE":        "jwt.access_token_expire",
	"JWT_REFRESH_TOKEN_EXPIRE":       "jwt.refresh_token_expire",
	"JWT_ISSUER":                     "jwt.issuer",
	"JWT_AUDIENCE":                   "jwt.audience",
	"ADMIN_EMAILS":                   "admin.emails",
	"SITE_URL":                       "site.url",
	"SESSION_RESOLVE_TIMEOUT":        "session.resolve_timeout",
	"LOG_LEVEL":                      "log.level",
	"LOG_FORMAT":                     "log.format",
	"OTEL_ENDPOINT":                  "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT":    "otel.endpoint",
	"OTEL_SERVICE_NAME":              "otel.service_name",
	"OTEL_ENABLED":                   "otel.enabled",
	"OTEL_INSECURE":                  "otel.insecure",
	"OTEL_SAMPLE_RATE":               "otel.sample_rate",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

// fallbackFirebase is the local development profile. None of these values
// are secrets; they only let the service boot without a hosted project.
var fallbackFirebase = FirebaseConfig{
	APIKey:            "local-dev-api-key",
	AuthDomain:        "localhost",
	ProjectID:         "mahuru-activation-dev",
	StorageBucket:     "mahuru-activation-dev.appspot.com",
	MessagingSenderID: "000000000000",
	AppID:             "1:000000000000:web:local",
}

func (c *Config) MissingProviderKeys() []string {
	fields := map[string]string{
		"FIREBASE_API_KEY":             c.Firebase.APIKey,
		"FIREBASE_AUTH_DOMAIN":         c.Firebase.AuthDomain,
		"FIREBASE_PROJECT_ID":          c.Firebase.ProjectID,
		"FIREBASE_STORAGE_BUCKET":      c.Firebase.StorageBucket,
		"FIREBASE_MESSAGING_SENDER_ID": c.Firebase.MessagingSenderID,
		"FIREBASE_APP_ID":              c.Firebase.AppID,
	}

	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// applyFallback fills unset drivers. Outside production a config with
// missing provider keys falls back to the local development profile.
func (c *Config) applyFallback() {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	c.Identity.Provider = strings.ToLower(strings.TrimSpace(c.Identity.Provider))

	missing := c.MissingProviderKeys()
	if len(missing) == 0 || c.IsProduction() {
		if c.Store.Driver == "" {
			c.Store.Driver = StoreFirestore
		}
		if c.Identity.Provider == "" {
			c.Identity.Provider = IdentityFirebase
		}
		return
	}

	c.Fallback = missing
	if c.Firebase.APIKey == "" {
		c.Firebase.APIKey = fallbackFirebase.APIKey
	}
	if c.Firebase.AuthDomain == "" {
		c.Firebase.AuthDomain = fallbackFirebase.AuthDomain
	}
	if c.Firebase.ProjectID == "" {
		c.Firebase.ProjectID = fallbackFirebase.ProjectID
	}
	if c.Firebase.StorageBucket == "" {
		c.Firebase.StorageBucket = fallbackFirebase.StorageBucket
	}
	if c.Firebase.MessagingSenderID == "" {
		c.Firebase.MessagingSenderID = fallbackFirebase.MessagingSenderID
	}
	if c.Firebase.AppID == "" {
		c.Firebase.AppID = fallbackFirebase.AppID
	}

	if c.Identity.Provider == "" {
		c.Identity.Provider = IdentityLocal
	}
	if c.Store.Driver == "" {
		c.Store.Driver = StoreMemory
	}
}

func validate(c *Config) error {
	if c.IsProduction() {
		if missing := c.MissingProviderKeys(); len(missing) > 0 {
			return fmt.Errorf(
				"missing provider configuration in production: %s",
				strings.Join(missing, ", "),
			)
		}
		if c.Identity.Provider == IdentityLocal {
			return fmt.Errorf("IDENTITY_PROVIDER=local is not allowed in production")
		}
		if c.Store.Driver == StoreMemory {
			return fmt.Errorf("STORE_DRIVER=memory is not allowed in production")
		}
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	switch c.Store.Driver {
	case StoreFirestore, StoreMemory:
	case StorePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Identity.Provider {
	case IdentityFirebase, IdentityLocal:
	default:
		return fmt.Errorf("unknown identity provider %q", c.Identity.Provider)
	}

	if c.JWT.PrivateKeyPath == "" {
		return fmt.Errorf("JWT_PRIVATE_KEY_PATH is required")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Session.ResolveTimeout <= 0 {
		return fmt.Errorf("session.resolve_timeout must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

func (c *Config) IsAdminEmail(email string) bool {
	_, ok := ParseEmailList(c.Admin.Emails)[normalizeEmail(email)]
	return ok
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ParseEmailList turns "a@x.com, B@y.com" into a lower-cased set.
func ParseEmailList(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		email := normalizeEmail(part)
		if email == "" {
			continue
		}
		set[email] = struct{}{}
	}
	return set
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
