// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	announcementsfeature "github.com/dalemusser/schoolhub/internal/app/features/announcements"
	healthfeature "github.com/dalemusser/schoolhub/internal/app/features/health"
	loginfeature "github.com/dalemusser/schoolhub/internal/app/features/login"
	announcementstore "github.com/dalemusser/schoolhub/internal/app/store/announcements"
	"github.com/dalemusser/schoolhub/internal/app/store/audit"
	teacherstore "github.com/dalemusser/schoolhub/internal/app/store/teachers"
	"github.com/dalemusser/schoolhub/internal/app/system/apierr"
	"github.com/dalemusser/schoolhub/internal/app/system/auditlog"
	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/dalemusser/schoolhub/internal/app/system/ratelimit"
	"github.com/dalemusser/schoolhub/internal/app/system/requestlog"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// Stores are built over the shared database and handed to the feature
// handlers; the auth gate and the login handler share one session manager
// and one token manager.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg != nil && coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain,
		appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	tokenMgr, err := auth.NewTokenManager(appCfg.TokenSecret, appCfg.TokenTTL)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.SchoolHubMongoDatabase
	teachers := teacherstore.New(db)
	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	gate := &auth.Gate{
		Teachers:            teachers,
		Sessions:            sessionMgr,
		Tokens:              tokenMgr,
		AllowLegacyUsername: appCfg.AuthLegacyUsername,
		Log:                 logger,
	}

	r := chi.NewRouter()
	if appCfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(requestlog.RequestID)
	r.Use(requestlog.Logger(logger))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apierr.WriteJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apierr.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "Method Not Allowed"})
	})

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.SchoolHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	annHandler := announcementsfeature.NewHandler(announcementstore.New(db), auditLog, logger)
	r.Mount("/announcements", announcementsfeature.Routes(annHandler, gate))

	limiter := ratelimit.NewLoginLimiter(appCfg.LoginRateLimit, appCfg.LoginRateBurst)
	loginHandler := loginfeature.NewHandler(teachers, sessionMgr, tokenMgr, limiter, auditLog, logger)
	r.Mount("/auth", loginfeature.Routes(loginHandler))

	return r, nil
}
