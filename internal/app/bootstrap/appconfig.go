// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings: ports, TLS, log level and request limits.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Access tokens (HS256 JWT) and renewal cookies
	AccessTokenSecret string
	AccessTokenTTL    time.Duration
	RenewalHashKey    string
	RenewalBlockKey   string // 0, 16, 24 or 32 bytes
	RenewalTTL        time.Duration
	RenewalCookieName string
	CookieDomain      string

	// SMS OTP provider
	OTPVerifyURL string
	OTPAuthKey   string

	// Telegram feed relay (blank token disables posting)
	TelegramBotToken  string
	TelegramChannelID string
	TelegramAPIURL    string

	// Regional defaults
	DefaultCallingCode string // digits, no "+"
	ReportTimezone     string // IANA name used for report date ranges

	// HTTP surface
	AllowedOrigins []string
	LoginRateLimit int      // attempts per minute per client IP
	TrustedProxies []string // IPs/CIDRs whose X-Forwarded-For is honoured

	// Admin bootstrap
	AdminPhone string
	AdminName  string

	// Operation timeouts
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
	TimeoutBatch  time.Duration

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth  string
	AuditLogAdmin string
}
