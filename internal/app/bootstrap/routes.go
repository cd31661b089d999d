// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	auditlogfeature "github.com/dalemusser/templehub/internal/app/features/auditlog"
	devoteesfeature "github.com/dalemusser/templehub/internal/app/features/devotees"
	donationsfeature "github.com/dalemusser/templehub/internal/app/features/donations"
	errorsfeature "github.com/dalemusser/templehub/internal/app/features/errors"
	feedfeature "github.com/dalemusser/templehub/internal/app/features/feed"
	healthfeature "github.com/dalemusser/templehub/internal/app/features/health"
	loginfeature "github.com/dalemusser/templehub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/templehub/internal/app/features/logout"
	organizationfeature "github.com/dalemusser/templehub/internal/app/features/organization"
	reportsfeature "github.com/dalemusser/templehub/internal/app/features/reports"
	userinfofeature "github.com/dalemusser/templehub/internal/app/features/userinfo"
	"github.com/dalemusser/templehub/internal/app/store/audit"
	donationstore "github.com/dalemusser/templehub/internal/app/store/donations"
	feedstore "github.com/dalemusser/templehub/internal/app/store/feed"
	"github.com/dalemusser/templehub/internal/app/store/lookups"
	memberstore "github.com/dalemusser/templehub/internal/app/store/members"
	"github.com/dalemusser/templehub/internal/app/system/auth"
	"github.com/dalemusser/templehub/internal/app/system/ingest"
	"github.com/dalemusser/templehub/internal/app/system/metrics"
	"github.com/dalemusser/templehub/internal/app/system/otp"
	"github.com/dalemusser/templehub/internal/app/system/ratelimit"
	"github.com/dalemusser/templehub/internal/app/system/telegram"
	"github.com/dalemusser/templehub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// limiterSweepInterval is how often idle login rate-limit buckets are dropped.
const limiterSweepInterval = 10 * time.Minute

// outboundTimeout bounds calls to the OTP provider and the Telegram Bot API.
// Media uploads get the batch timeout instead.
const outboundTimeout = 15 * time.Second

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It builds the credential service, the
// external clients and the stores, applies CORS, metrics and session
// middleware, and mounts every feature router.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Secure cookies everywhere except local development over plain HTTP.
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		AccessSecret:    []byte(appCfg.AccessTokenSecret),
		AccessTTL:       appCfg.AccessTokenTTL,
		RenewalHashKey:  []byte(appCfg.RenewalHashKey),
		RenewalBlockKey: []byte(appCfg.RenewalBlockKey),
		RenewalTTL:      appCfg.RenewalTTL,
		CookieName:      appCfg.RenewalCookieName,
		CookiePath:      "/auth",
		CookieDomain:    appCfg.CookieDomain,
		Secure:          coreCfg.Env != "dev",
	})
	if err != nil {
		logger.Error("token service init failed", zap.Error(err))
		return nil, err
	}

	verifier, err := newVerifier(appCfg, logger)
	if err != nil {
		return nil, err
	}
	relay, err := newRelay(appCfg, logger)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(appCfg.ReportTimezone)
	if err != nil {
		return nil, err
	}

	members := memberstore.New(db)
	donations := donationstore.New(db)
	feed := feedstore.New(db)

	sessionMgr := auth.NewSessionManager(tokens, logger)
	// Fresh member data on each request, so role changes and deaths apply
	// to live access tokens immediately.
	sessionMgr.SetUserFetcher(memberstore.NewFetcher(members))

	m := metrics.New()
	auditLogger := newAuditLogger(appCfg, deps, logger)
	errLog := errorsfeature.NewErrorLogger(logger)

	pipeline := ingest.New(members, donations, ingest.Options{
		DefaultCallingCode: appCfg.DefaultCallingCode,
		Recorder:           m,
	})

	proxies, err := ratelimit.ParseProxies(appCfg.TrustedProxies)
	if err != nil {
		return nil, err
	}
	limiter := ratelimit.New(appCfg.LoginRateLimit, time.Minute)
	startWorker(workers.NewPeriodic("login-limiter-sweep", limiterSweepInterval, time.Second,
		func(context.Context) { limiter.Sweep() }, logger))

	r := chi.NewRouter()
	r.Use(proxies.RealIP)
	r.Use(m.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global auth middleware: loads the SessionUser from a valid access
	// token. Handlers and route guards read it via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Operational endpoints
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", m.Handler())

	// Authentication
	loginHandler := &loginfeature.Handler{
		Members:  members,
		Lookups:  lookups.New(db),
		OTP:      verifier,
		Tokens:   tokens,
		Limiter:  limiter,
		Metrics:  m,
		AuditLog: auditLogger,
		ErrLog:   errLog,
		Log:      logger,
	}
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(tokens, auditLogger, logger)
	userinfoHandler := userinfofeature.NewHandler(members, errLog)
	r.Route("/auth", func(ar chi.Router) {
		loginfeature.MountAuthRoutes(ar, loginHandler)
		logoutfeature.MountRoutes(ar, logoutHandler)
		userinfofeature.MountRoutes(ar, userinfoHandler, sessionMgr)
	})

	// Member directory
	devoteesHandler := devoteesfeature.NewHandler(members, pipeline, auditLogger, errLog, logger)
	r.Mount("/devotees", devoteesfeature.Routes(devoteesHandler, sessionMgr))
	r.Mount("/devotee", devoteesfeature.DevoteeRoutes(devoteesHandler, sessionMgr))

	// Leadership hierarchy
	orgHandler := organizationfeature.NewHandler(members, errLog, logger)
	r.Mount("/organization", organizationfeature.Routes(orgHandler, sessionMgr))

	// Donations and reports
	donationsHandler := donationsfeature.NewHandler(donations, pipeline, appCfg.DefaultCallingCode, auditLogger, errLog, logger)
	r.Mount("/donations", donationsfeature.Routes(donationsHandler, sessionMgr))

	reportsHandler := reportsfeature.NewHandler(donations, loc, errLog, logger)
	r.Mount("/reports", reportsfeature.Routes(reportsHandler, sessionMgr))

	// Community feed
	feedHandler := feedfeature.NewHandler(feed, relay, m, auditLogger, errLog, logger)
	r.Mount("/feed", feedfeature.Routes(feedHandler, sessionMgr))

	// Audit trail (admin)
	auditHandler := auditlogfeature.NewHandler(audit.New(db), members, errLog, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errorsfeature.NotFound(w)
	})

	return r, nil
}

// Background workers started by BuildHandler and stopped in Shutdown.
var (
	workersMu sync.Mutex
	running   []*workers.Periodic
)

func startWorker(w *workers.Periodic) {
	workersMu.Lock()
	defer workersMu.Unlock()
	w.Start()
	running = append(running, w)
}

func stopWorkers() {
	workersMu.Lock()
	ws := running
	running = nil
	workersMu.Unlock()
	for _, w := range ws {
		w.Stop()
	}
}

func newVerifier(appCfg AppConfig, logger *zap.Logger) (otp.Verifier, error) {
	if appCfg.OTPVerifyURL == "" && appCfg.OTPAuthKey == "" {
		// Only reachable in dev; ValidateConfig requires both elsewhere.
		logger.Warn("OTP provider not configured; every login will be rejected")
		return rejectAll{}, nil
	}
	return otp.NewClient(otp.Config{
		VerifyURL:  appCfg.OTPVerifyURL,
		AuthKey:    appCfg.OTPAuthKey,
		HTTPClient: &http.Client{Timeout: outboundTimeout},
		Logger:     logger,
	})
}

func newRelay(appCfg AppConfig, logger *zap.Logger) (feedfeature.Relay, error) {
	if appCfg.TelegramBotToken == "" {
		return disabledRelay{}, nil
	}
	return telegram.NewClient(telegram.Config{
		BaseURL:    appCfg.TelegramAPIURL,
		BotToken:   appCfg.TelegramBotToken,
		ChannelID:  appCfg.TelegramChannelID,
		HTTPClient: &http.Client{Timeout: appCfg.TimeoutBatch},
		Logger:     logger,
	})
}

type rejectAll struct{}

func (rejectAll) Verify(context.Context, string) (string, error) { return "", otp.ErrNotVerified }

var errRelayDisabled = errors.New("feed relay is not configured")

// disabledRelay stands in for Telegram when no bot token is configured.
// Posts fail as relay errors; listing still works from the local copy.
type disabledRelay struct{}

func (disabledRelay) SendMessage(context.Context, string) (telegram.Message, error) {
	return telegram.Message{}, errRelayDisabled
}

func (disabledRelay) SendMedia(context.Context, string, string, io.Reader, string) (telegram.Message, error) {
	return telegram.Message{}, errRelayDisabled
}

func (disabledRelay) FileURL(context.Context, string) (string, error) {
	return "", errRelayDisabled
}
