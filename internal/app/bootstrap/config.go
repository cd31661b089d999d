// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/templehub/internal/app/system/auditlog"
	"github.com/dalemusser/templehub/internal/app/system/auth"
	"github.com/dalemusser/templehub/internal/app/system/normalize"
	"github.com/dalemusser/templehub/internal/app/system/ratelimit"
	"github.com/dalemusser/templehub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// Development-only credentials. ValidateConfig refuses them outside dev.
const (
	devAccessSecret   = "dev-only-access-secret-change-me-0123456789"
	devRenewalHashKey = "dev-only-renewal-hash-key-change-me-0123456789abcdef"
)

// minSecretLen is the shortest access secret or renewal hash key accepted
// outside dev.
const minSecretLen = 32

// appConfigKeys defines the configuration keys for TempleHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, access_token_ttl, etc.
//   - Environment variables: TEMPLEHUB_MONGO_URI, TEMPLEHUB_ACCESS_TOKEN_TTL, etc.
//   - Command-line flags: --mongo_uri, --access_token_ttl, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "templehub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Session credentials
	{Name: "access_token_secret", Default: devAccessSecret, Desc: "HMAC secret for access tokens (at least 32 bytes in production)"},
	{Name: "access_token_ttl", Default: "15m", Desc: "Access token lifetime"},
	{Name: "renewal_token_hash_key", Default: devRenewalHashKey, Desc: "HMAC key for the renewal cookie (at least 32 bytes in production)"},
	{Name: "renewal_token_block_key", Default: "", Desc: "AES key for the renewal cookie: blank, 16, 24 or 32 bytes"},
	{Name: "renewal_token_ttl", Default: "8640h", Desc: "Renewal token lifetime (default 360 days)"},
	{Name: "renewal_cookie_name", Default: "templehub-renewal", Desc: "Renewal cookie name"},
	{Name: "cookie_domain", Default: "", Desc: "Renewal cookie domain (blank means current host)"},

	// SMS OTP provider
	{Name: "otp_verify_url", Default: "", Desc: "OTP provider verify-access-token endpoint"},
	{Name: "otp_auth_key", Default: "", Desc: "OTP provider auth key"},

	// Telegram feed relay
	{Name: "telegram_bot_token", Default: "", Desc: "Telegram bot token (blank disables feed posting)"},
	{Name: "telegram_channel_id", Default: "", Desc: "Telegram channel id or @username"},
	{Name: "telegram_api_url", Default: "https://api.telegram.org", Desc: "Telegram Bot API base URL"},

	// Regional defaults
	{Name: "default_calling_code", Default: normalize.DefaultCallingCode, Desc: "Calling code for numbers without a country"},
	{Name: "report_timezone", Default: "Asia/Kolkata", Desc: "IANA time zone for report date ranges"},

	// HTTP surface
	{Name: "allowed_origins", Default: "http://localhost:3000", Desc: "Comma-separated CORS origins"},
	{Name: "login_rate_limit", Default: 10, Desc: "Login attempts per minute per client IP (0 disables)"},
	{Name: "trusted_proxies", Default: "", Desc: "Comma-separated reverse proxy IPs or CIDRs allowed to set X-Forwarded-For"},

	// Admin bootstrap
	{Name: "admin_phone", Default: "", Desc: "Phone of the admin member (promotes/creates on startup)"},
	{Name: "admin_name", Default: "Administrator", Desc: "Name used when the admin member is created"},

	// Timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for list and search operations"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for reports and hierarchy builds"},
	{Name: "timeout_batch", Default: "2m", Desc: "Timeout for bulk imports"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges, in order of precedence,
// command-line flags, TEMPLEHUB_* environment variables, config files and
// the defaults above.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "TEMPLEHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		AccessTokenSecret: appValues.String("access_token_secret"),
		AccessTokenTTL:    appValues.Duration("access_token_ttl", auth.DefaultAccessTTL),
		RenewalHashKey:    appValues.String("renewal_token_hash_key"),
		RenewalBlockKey:   appValues.String("renewal_token_block_key"),
		RenewalTTL:        appValues.Duration("renewal_token_ttl", auth.DefaultRenewalTTL),
		RenewalCookieName: appValues.String("renewal_cookie_name"),
		CookieDomain:      appValues.String("cookie_domain"),

		OTPVerifyURL: appValues.String("otp_verify_url"),
		OTPAuthKey:   appValues.String("otp_auth_key"),

		TelegramBotToken:  appValues.String("telegram_bot_token"),
		TelegramChannelID: appValues.String("telegram_channel_id"),
		TelegramAPIURL:    appValues.String("telegram_api_url"),

		DefaultCallingCode: normalize.Digits(appValues.String("default_calling_code")),
		ReportTimezone:     appValues.String("report_timezone"),

		AllowedOrigins: splitList(appValues.String("allowed_origins")),
		LoginRateLimit: appValues.Int("login_rate_limit"),
		TrustedProxies: splitList(appValues.String("trusted_proxies")),

		AdminPhone: appValues.String("admin_phone"),
		AdminName:  appValues.String("admin_name"),

		TimeoutShort:  appValues.Duration("timeout_short", timeouts.DefaultShort),
		TimeoutMedium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
		TimeoutLong:   appValues.Duration("timeout_long", timeouts.DefaultLong),
		TimeoutBatch:  appValues.Duration("timeout_batch", timeouts.DefaultBatch),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// It checks the MongoDB URI format, credential strength, the renewal block
// key length, the report time zone and the audit modes, so that a bad
// deployment fails before connecting to anything.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if err := validateSecrets(coreCfg.Env, appCfg); err != nil {
		return err
	}
	if _, err := time.LoadLocation(appCfg.ReportTimezone); err != nil {
		return fmt.Errorf("report_timezone %q: %w", appCfg.ReportTimezone, err)
	}
	if appCfg.DefaultCallingCode == "" {
		return fmt.Errorf("default_calling_code must contain digits")
	}
	for key, mode := range map[string]string{
		"audit_log_auth":  appCfg.AuditLogAuth,
		"audit_log_admin": appCfg.AuditLogAdmin,
	} {
		switch mode {
		case auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
		default:
			return fmt.Errorf("%s must be all, db, log or off (got %q)", key, mode)
		}
	}
	if appCfg.LoginRateLimit < 0 {
		return fmt.Errorf("login_rate_limit must not be negative")
	}
	if _, err := ratelimit.ParseProxies(appCfg.TrustedProxies); err != nil {
		return fmt.Errorf("trusted_proxies: %w", err)
	}

	if coreCfg.Env != "dev" {
		if appCfg.OTPVerifyURL == "" || appCfg.OTPAuthKey == "" {
			return fmt.Errorf("otp_verify_url and otp_auth_key are required outside dev")
		}
		if appCfg.TelegramBotToken == "" {
			logger.Warn("telegram_bot_token not set; feed posting is disabled")
		}
	}
	if appCfg.TelegramBotToken != "" && appCfg.TelegramChannelID == "" {
		return fmt.Errorf("telegram_channel_id is required when telegram_bot_token is set")
	}
	return nil
}

func validateSecrets(env string, appCfg AppConfig) error {
	switch len(appCfg.RenewalBlockKey) {
	case 0, 16, 24, 32:
	default:
		return fmt.Errorf("renewal_token_block_key must be 16, 24 or 32 bytes, got %d", len(appCfg.RenewalBlockKey))
	}
	if appCfg.AccessTokenSecret == "" || appCfg.RenewalHashKey == "" {
		return fmt.Errorf("access_token_secret and renewal_token_hash_key are required")
	}
	if env == "dev" {
		return nil
	}
	if appCfg.AccessTokenSecret == devAccessSecret || len(appCfg.AccessTokenSecret) < minSecretLen {
		return fmt.Errorf("access_token_secret must be set to at least %d bytes outside dev", minSecretLen)
	}
	if appCfg.RenewalHashKey == devRenewalHashKey || len(appCfg.RenewalHashKey) < minSecretLen {
		return fmt.Errorf("renewal_token_hash_key must be set to at least %d bytes outside dev", minSecretLen)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
