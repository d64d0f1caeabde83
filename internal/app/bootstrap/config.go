// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/schoolhub/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const (
	devSessionKey  = "dev-only-change-me-please-0123456789ABCDEF"
	devTokenSecret = "dev-only-token-secret-change-me-0123456789"
	minSecretLen   = 32
)

// appConfigKeys defines the configuration keys for schoolhub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: SCHOOLHUB_MONGO_URI, SCHOOLHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "school", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size (default: 5)"},

	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "schoolhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "12h", Desc: "Session cookie lifetime (e.g., 12h, 30m)"},

	{Name: "token_secret", Default: devTokenSecret, Desc: "HS256 secret for login access tokens (32+ chars)"},
	{Name: "token_ttl", Default: "12h", Desc: "Access token lifetime"},

	{Name: "auth_legacy_username", Default: true, Desc: "Accept ?username= and X-Username as identity on protected routes"},

	{Name: "login_rate_limit", Default: 10, Desc: "Login attempts allowed per client IP per minute"},
	{Name: "login_rate_burst", Default: 5, Desc: "Login attempts allowed in a burst"},
	{Name: "trust_proxy_headers", Default: false, Desc: "Use X-Forwarded-For / X-Real-IP as the client IP (enable only behind a trusted proxy)"},

	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document database operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for list queries and startup schema work"},

	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Announcement change logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_retention", Default: "2160h", Desc: "How long audit events are kept (0 keeps them forever)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, SCHOOLHUB_* for app) and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "SCHOOLHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 12*time.Hour),

		TokenSecret: appValues.String("token_secret"),
		TokenTTL:    appValues.Duration("token_ttl", 12*time.Hour),

		AuthLegacyUsername: appValues.Bool("auth_legacy_username"),

		LoginRateLimit: appValues.Int("login_rate_limit"),
		LoginRateBurst: appValues.Int("login_rate_burst"),

		TrustProxyHeaders: appValues.Bool("trust_proxy_headers"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		AuditRetention: appValues.Duration("audit_retention", 90*24*time.Hour),
	}

	return coreCfg, appCfg, nil
}

func validAuditMode(m string) bool {
	switch m {
	case auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
		return true
	}
	return false
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Development defaults for the secrets are refused in production.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database is required")
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}

	if len(appCfg.TokenSecret) < minSecretLen {
		return fmt.Errorf("token_secret must be at least %d characters", minSecretLen)
	}
	if appCfg.SessionKey == "" {
		return fmt.Errorf("session_key is required")
	}
	if appCfg.TokenTTL <= 0 || appCfg.SessionMaxAge <= 0 {
		return fmt.Errorf("token_ttl and session_max_age must be positive")
	}

	if coreCfg != nil && coreCfg.Env == "prod" {
		if appCfg.SessionKey == devSessionKey || appCfg.TokenSecret == devTokenSecret {
			return fmt.Errorf("development secrets must be replaced in production (session_key, token_secret)")
		}
		if len(appCfg.SessionKey) < minSecretLen {
			return fmt.Errorf("session_key must be at least %d characters in production", minSecretLen)
		}
	}

	if appCfg.LoginRateLimit <= 0 || appCfg.LoginRateBurst <= 0 {
		return fmt.Errorf("login_rate_limit and login_rate_burst must be positive")
	}

	if !validAuditMode(appCfg.AuditLogAuth) || !validAuditMode(appCfg.AuditLogAdmin) {
		return fmt.Errorf("audit_log_auth/audit_log_admin must be one of all, db, log, off")
	}
	if appCfg.AuditRetention < 0 {
		return fmt.Errorf("audit_retention must not be negative")
	}

	if appCfg.AuthLegacyUsername {
		logger.Warn("legacy username identity is enabled; protected routes accept unsigned ?username= / X-Username")
	}
	return nil
}
