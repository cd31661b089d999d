package bootstrap

import (
	"strings"
	"testing"

	"github.com/dalemusser/waffle/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:           "mongodb://localhost:27017",
		AccessTokenSecret:  strings.Repeat("a", 40),
		RenewalHashKey:     strings.Repeat("h", 64),
		RenewalBlockKey:    strings.Repeat("b", 32),
		OTPVerifyURL:       "https://otp.example.test/verify",
		OTPAuthKey:         "key",
		DefaultCallingCode: "91",
		ReportTimezone:     "Asia/Kolkata",
		LoginRateLimit:     10,
		AuditLogAuth:       "all",
		AuditLogAdmin:      "db",
	}
}

func TestValidateConfig_Accepts(t *testing.T) {
	core := &config.CoreConfig{Env: "prod"}
	require.NoError(t, ValidateConfig(core, validConfig(), testLogger()))

	cfg := validConfig()
	cfg.TrustedProxies = []string{"10.0.0.0/8", "127.0.0.1"}
	require.NoError(t, ValidateConfig(core, cfg, testLogger()))
}

func TestValidateConfig_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		env    string
		mutate func(*AppConfig)
	}{
		{"bad mongo uri", "prod", func(c *AppConfig) { c.MongoURI = "postgres://nope" }},
		{"short access secret", "prod", func(c *AppConfig) { c.AccessTokenSecret = "short" }},
		{"dev access secret in prod", "prod", func(c *AppConfig) { c.AccessTokenSecret = devAccessSecret }},
		{"dev hash key in prod", "prod", func(c *AppConfig) { c.RenewalHashKey = devRenewalHashKey }},
		{"empty access secret in dev", "dev", func(c *AppConfig) { c.AccessTokenSecret = "" }},
		{"block key length", "dev", func(c *AppConfig) { c.RenewalBlockKey = "0123456789" }},
		{"unknown timezone", "dev", func(c *AppConfig) { c.ReportTimezone = "Mars/Olympus_Mons" }},
		{"no calling code", "dev", func(c *AppConfig) { c.DefaultCallingCode = "" }},
		{"audit mode", "dev", func(c *AppConfig) { c.AuditLogAdmin = "everything" }},
		{"negative rate limit", "dev", func(c *AppConfig) { c.LoginRateLimit = -1 }},
		{"otp missing in prod", "prod", func(c *AppConfig) { c.OTPAuthKey = "" }},
		{"telegram without channel", "dev", func(c *AppConfig) { c.TelegramBotToken = "123:abc" }},
		{"bad trusted proxy", "dev", func(c *AppConfig) { c.TrustedProxies = []string{"lb.internal"} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			assert.Error(t, ValidateConfig(&config.CoreConfig{Env: tc.env}, cfg, testLogger()))
		})
	}
}

func TestValidateConfig_DevAllowsDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.AccessTokenSecret = devAccessSecret
	cfg.RenewalHashKey = devRenewalHashKey
	cfg.RenewalBlockKey = ""
	cfg.OTPVerifyURL, cfg.OTPAuthKey = "", ""
	assert.NoError(t, ValidateConfig(&config.CoreConfig{Env: "dev"}, cfg, testLogger()))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, splitList(" https://a.test, ,https://b.test "))
	assert.Nil(t, splitList(""))
}
