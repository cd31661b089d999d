// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dalemusser/templehub/internal/app/store/audit"
	"github.com/dalemusser/templehub/internal/app/store/lookups"
	"github.com/dalemusser/templehub/internal/app/store/members"
	"github.com/dalemusser/templehub/internal/app/system/auditlog"
	"github.com/dalemusser/templehub/internal/app/system/inputval"
	"github.com/dalemusser/templehub/internal/app/system/normalize"
	"github.com/dalemusser/templehub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built: it seeds
// the role and lookup tables and bootstraps the admin member.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Log(logger)

	seedCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()
	if err := lookups.New(deps.MongoDatabase).Seed(seedCtx); err != nil {
		logger.Error("seed lookups failed", zap.Error(err))
		return err
	}

	if appCfg.AdminPhone != "" {
		al := newAuditLogger(appCfg, deps, logger)
		if err := ensureAdmin(seedCtx, deps, appCfg, al, logger); err != nil {
			logger.Error("admin bootstrap failed", zap.Error(err))
			return err
		}
	}
	return nil
}

func newAuditLogger(appCfg AppConfig, deps DBDeps, logger *zap.Logger) *auditlog.Logger {
	return auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
}

// ensureAdmin creates the configured admin member or promotes an existing
// member with that phone.
func ensureAdmin(ctx context.Context, deps DBDeps, appCfg AppConfig, al *auditlog.Logger, logger *zap.Logger) error {
	phone, _ := normalize.Phone(appCfg.AdminPhone, appCfg.DefaultCallingCode)
	if !inputval.IsValidPhone(phone) {
		return fmt.Errorf("admin_phone %q is not a valid phone number", appCfg.AdminPhone)
	}
	name := normalize.Name(appCfg.AdminName)
	if name == "" {
		name = "Administrator"
	}

	id, changed, err := members.New(deps.MongoDatabase).EnsureAdmin(ctx, phone, name)
	if err != nil {
		return err
	}
	if !changed {
		logger.Debug("admin member already present", zap.Int64("member_id", id))
		return nil
	}
	logger.Info("admin member bootstrapped", zap.Int64("member_id", id), zap.String("phone", phone))
	al.Admin(ctx, nil, audit.EventAdminBootstrapped, id, id, map[string]string{
		"phone":     phone,
		"member_id": strconv.FormatInt(id, 10),
	})
	return nil
}
