// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/schoolhub/internal/app/store/audit"
	teacherstore "github.com/dalemusser/schoolhub/internal/app/store/teachers"
	"github.com/dalemusser/schoolhub/internal/app/system/timeouts"
	"github.com/dalemusser/schoolhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// auditRetention is the running retention worker, stopped in Shutdown.
var auditRetention *workers.AuditRetention

// Startup runs after the DB connection and schema setup, before the HTTP
// handler is built. Teachers are seeded out of band (cmd/seedteachers), so
// an empty teachers collection only produces a warning.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), logger, "count teachers")
	defer cancel()

	n, err := deps.SchoolHubMongoDatabase.Collection(teacherstore.CollectionName).CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("count teachers: %w", err)
	}
	if n == 0 {
		logger.Warn("no teachers found; seed them with cmd/seedteachers")
	}

	if appCfg.AuditRetention > 0 {
		auditRetention = workers.NewAuditRetention(audit.New(deps.SchoolHubMongoDatabase), logger,
			time.Hour, appCfg.AuditRetention)
		auditRetention.Start()
	}

	logger.Info("schoolhub ready",
		zap.Int64("teachers", n),
		zap.Bool("legacy_username_auth", appCfg.AuthLegacyUsername),
		zap.Duration("token_ttl", appCfg.TokenTTL),
		zap.Any("timeouts", timeouts.Current()))
	return nil
}
