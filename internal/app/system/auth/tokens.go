// internal/app/system/auth/tokens.go
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

// ErrInvalidOrExpired is the only failure callers ever see from token
// verification. Malformed, tampered and expired tokens are not distinguished.
var ErrInvalidOrExpired = errors.New("invalid or expired credential")

// DefaultRenewalTTL is how long a renewal credential stays valid (360 days).
const DefaultRenewalTTL = 360 * 24 * time.Hour

// DefaultAccessTTL is how long an access credential stays valid.
const DefaultAccessTTL = 15 * time.Minute

// TokenConfig configures a TokenService.
type TokenConfig struct {
	AccessSecret []byte
	AccessTTL    time.Duration

	// RenewalHashKey authenticates the renewal cookie; RenewalBlockKey (16, 24
	// or 32 bytes, optional) encrypts it.
	RenewalHashKey  []byte
	RenewalBlockKey []byte
	RenewalTTL      time.Duration

	CookieName   string
	CookiePath   string
	CookieDomain string
	Secure       bool
}

// TokenService issues and verifies the two credentials of a session:
// a short-lived stateless access token (JWT) carried in the Authorization
// header, and a long-lived renewal token carried only in an HTTP-only cookie.
//
// There is no server-side revocation list. A renewal token stays valid until
// it expires even after it has been rotated or the session has ended.
type TokenService struct {
	accessSecret []byte
	accessTTL    time.Duration
	renewalTTL   time.Duration
	codecs       []securecookie.Codec
	cookieOpts   sessions.Options
	cookieName   string
	now          func() time.Time
}

type accessClaims struct {
	MemberID int64 `json:"mid"`
	jwt.RegisteredClaims
}

type renewalClaims struct {
	MemberID int64  `json:"mid"`
	Nonce    string `json:"n"`
}

// NewTokenService validates cfg and builds a TokenService.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.AccessSecret) == 0 {
		return nil, fmt.Errorf("auth: access secret is empty")
	}
	if len(cfg.RenewalHashKey) == 0 {
		return nil, fmt.Errorf("auth: renewal hash key is empty")
	}
	switch len(cfg.RenewalBlockKey) {
	case 0, 16, 24, 32:
	default:
		return nil, fmt.Errorf("auth: renewal block key must be 16, 24 or 32 bytes, got %d", len(cfg.RenewalBlockKey))
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RenewalTTL <= 0 {
		cfg.RenewalTTL = DefaultRenewalTTL
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "templehub-renewal"
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = "/auth"
	}

	var blockKey []byte
	if len(cfg.RenewalBlockKey) > 0 {
		blockKey = cfg.RenewalBlockKey
	}
	codecs := securecookie.CodecsFromPairs(cfg.RenewalHashKey, blockKey)
	for _, c := range codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(int(cfg.RenewalTTL / time.Second))
			sc.SetSerializer(securecookie.JSONEncoder{})
		}
	}

	return &TokenService{
		accessSecret: cfg.AccessSecret,
		accessTTL:    cfg.AccessTTL,
		renewalTTL:   cfg.RenewalTTL,
		codecs:       codecs,
		cookieName:   cfg.CookieName,
		cookieOpts: sessions.Options{
			Path:     cfg.CookiePath,
			Domain:   cfg.CookieDomain,
			MaxAge:   int(cfg.RenewalTTL / time.Second),
			Secure:   cfg.Secure,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		},
		now: time.Now,
	}, nil
}

// CookieName is the name of the renewal cookie.
func (s *TokenService) CookieName() string { return s.cookieName }

// IssueSession mints both credentials for memberID and sets the renewal
// cookie on w.
func (s *TokenService) IssueSession(w http.ResponseWriter, memberID int64) (access, renewal string, err error) {
	access, err = s.issueAccess(memberID)
	if err != nil {
		return "", "", err
	}
	renewal, err = s.issueRenewal(memberID)
	if err != nil {
		return "", "", err
	}
	opts := s.cookieOpts
	http.SetCookie(w, sessions.NewCookie(s.cookieName, renewal, &opts))
	return access, renewal, nil
}

// VerifyAccess returns the member id carried by a valid access token.
func (s *TokenService) VerifyAccess(token string) (int64, error) {
	if token == "" {
		return 0, ErrInvalidOrExpired
	}
	var claims accessClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.accessSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || claims.MemberID <= 0 || claims.Subject != strconv.FormatInt(claims.MemberID, 10) {
		return 0, ErrInvalidOrExpired
	}
	return claims.MemberID, nil
}

// Renew reads the renewal cookie from r and, if it is valid, rotates both
// credentials. The returned member id is the one the old cookie carried.
func (s *TokenService) Renew(w http.ResponseWriter, r *http.Request) (access, renewal string, memberID int64, err error) {
	c, cerr := r.Cookie(s.cookieName)
	if cerr != nil || c.Value == "" {
		return "", "", 0, ErrInvalidOrExpired
	}
	memberID, err = s.VerifyRenewal(c.Value)
	if err != nil {
		return "", "", 0, err
	}
	access, renewal, err = s.IssueSession(w, memberID)
	if err != nil {
		return "", "", 0, err
	}
	return access, renewal, memberID, nil
}

// VerifyRenewal decodes a renewal token. Expiry is enforced by the
// timestamp securecookie embeds in every value.
func (s *TokenService) VerifyRenewal(value string) (int64, error) {
	var claims renewalClaims
	if err := securecookie.DecodeMulti(s.cookieName, value, &claims, s.codecs...); err != nil {
		return 0, ErrInvalidOrExpired
	}
	if claims.MemberID <= 0 {
		return 0, ErrInvalidOrExpired
	}
	return claims.MemberID, nil
}

// EndSession clears the renewal cookie. Access tokens already issued remain
// valid until they expire.
func (s *TokenService) EndSession(w http.ResponseWriter) {
	opts := s.cookieOpts
	opts.MaxAge = -1
	http.SetCookie(w, sessions.NewCookie(s.cookieName, "", &opts))
}

func (s *TokenService) issueAccess(memberID int64) (string, error) {
	now := s.now()
	claims := accessClaims{
		MemberID: memberID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(memberID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		return "", fmt.Errorf("auth: sign access token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) issueRenewal(memberID int64) (string, error) {
	nonce := make([]byte, 12)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("auth: renewal nonce: %w", err)
	}
	value, err := securecookie.EncodeMulti(s.cookieName, renewalClaims{
		MemberID: memberID,
		Nonce:    hex.EncodeToString(nonce),
	}, s.codecs...)
	if err != nil {
		return "", fmt.Errorf("auth: encode renewal token: %w", err)
	}
	return value, nil
}
