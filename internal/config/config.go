// Package config loads all runtime configuration from environment variables.
// No config files and no third-party config framework are used.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all runtime configuration for Skillboard.
type Config struct {
	HTTP   HTTPConfig
	DB     DBConfig
	Log    LogConfig
	Mail   MailConfig
	Skills AuthConfig
	Studio AuthConfig
	CORS   CORSConfig
	Worker WorkerConfig
	OTel   OTelConfig
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int
}

// DBConfig holds PostgreSQL connection configuration. The individual
// variables are collected leniently: absence is only an error at first use
// of the database, which reports the missing names.
type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string // "require" in production, "prefer" otherwise
	MaxConns int
}

// Missing returns the names of required DB_* variables that are absent.
func (c *DBConfig) Missing() []string {
	var missing []string
	for _, v := range []struct{ name, val string }{
		{"DB_HOST", c.Host},
		{"DB_PORT", c.Port},
		{"DB_NAME", c.Name},
		{"DB_USER", c.User},
		{"DB_PASSWORD", c.Password},
	} {
		if v.val == "" {
			missing = append(missing, v.name)
		}
	}
	return missing
}

// DSN builds the PostgreSQL connection string.
func (c *DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string
	Format string
}

// MailConfig holds Mailjet credentials and addressing defaults.
type MailConfig struct {
	PublicKey  string //nolint:gosec // intentional: holds the Mailjet API key loaded from env
	PrivateKey string //nolint:gosec // intentional: holds the Mailjet secret key loaded from env
	AlertDest  string
	From       string
}

// Configured reports whether both Mailjet credentials are present.
func (c *MailConfig) Configured() bool {
	return c.PublicKey != "" && c.PrivateKey != ""
}

// AuthConfig holds one portal's identity provider settings and its
// super-admin list. SuperAdmins is lowercased at load time and immutable
// for the process lifetime.
type AuthConfig struct {
	Portal      string // "skills" or "studio"
	BaseURL     string
	AnonKey     string
	SuperAdmins []string
}

// Missing returns the names of required provider variables that are absent.
func (c *AuthConfig) Missing() []string {
	prefix := strings.ToUpper(c.Portal)
	var missing []string
	if c.BaseURL == "" {
		missing = append(missing, prefix+"_SUPABASE_URL")
	}
	if c.AnonKey == "" {
		missing = append(missing, prefix+"_SUPABASE_ANON_KEY")
	}
	return missing
}

// CORSConfig holds the per-process CORS allow-list.
type CORSConfig struct {
	Origins []string
}

// WorkerConfig holds mail queue worker settings.
type WorkerConfig struct {
	Concurrency int
}

// OTelConfig holds OpenTelemetry exporter settings.
type OTelConfig struct {
	OTLPEndpoint string
}

// defaultOrigins is used when CORS_ORIGINS is unset: the production portal
// domains plus the local development hosts.
var defaultOrigins = []string{
	"https://skills.skillboard.fr",
	"https://studio.skillboard.fr",
	"http://localhost:5173",
	"http://localhost:3000",
}

// Load reads configuration from environment variables and applies defaults.
// Credential groups (DB, mail, identity providers) are collected without
// validation; their Missing helpers are checked at first use.
func Load() (*Config, error) {
	cfg := &Config{}

	// HTTP
	cfg.HTTP.Port = envInt("HTTP_PORT", 8080)

	// DB
	cfg.DB.Host = os.Getenv("DB_HOST")
	cfg.DB.Port = envStr("DB_PORT", "5432")
	cfg.DB.Name = os.Getenv("DB_NAME")
	cfg.DB.User = os.Getenv("DB_USER")
	cfg.DB.Password = os.Getenv("DB_PASSWORD")
	cfg.DB.SSLMode = envStr("DB_SSLMODE", "require")
	cfg.DB.MaxConns = envInt("DB_MAX_CONNS", 25)

	// Log
	cfg.Log.Level = envStr("LOG_LEVEL", "info")
	cfg.Log.Format = envStr("LOG_FORMAT", "json")

	// Mail
	cfg.Mail.PublicKey = os.Getenv("MJ_APIKEY_PUBLIC")
	cfg.Mail.PrivateKey = os.Getenv("MJ_APIKEY_PRIVATE")
	cfg.Mail.AlertDest = os.Getenv("MAIL_ALERT_DEST")
	cfg.Mail.From = envStr("MAIL_FROM", cfg.Mail.AlertDest)

	// Identity providers
	cfg.Skills = AuthConfig{
		Portal:      "skills",
		BaseURL:     strings.TrimRight(os.Getenv("SKILLS_SUPABASE_URL"), "/"),
		AnonKey:     os.Getenv("SKILLS_SUPABASE_ANON_KEY"),
		SuperAdmins: splitEmails(os.Getenv("SKILLS_SUPER_ADMIN_EMAILS")),
	}
	cfg.Studio = AuthConfig{
		Portal:      "studio",
		BaseURL:     strings.TrimRight(os.Getenv("STUDIO_SUPABASE_URL"), "/"),
		AnonKey:     os.Getenv("STUDIO_SUPABASE_ANON_KEY"),
		SuperAdmins: splitEmails(os.Getenv("STUDIO_SUPER_ADMIN_EMAILS")),
	}

	// CORS
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORS.Origins = splitList(v)
	} else {
		cfg.CORS.Origins = defaultOrigins
	}

	// Worker
	cfg.Worker.Concurrency = envInt("WORKER_CONCURRENCY", 5)

	// OTel
	cfg.OTel.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

	return cfg, nil
}

// splitEmails splits a comma-separated list, trimming and lowercasing each
// entry. Email comparisons are case-insensitive everywhere.
func splitEmails(v string) []string {
	var out []string
	for _, e := range strings.Split(v, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
