// Package token mints and verifies the portal's signed session tokens.
//
// Access and refresh tokens are both HS256 JWTs but are signed with different
// keys and carry a token_use claim, so neither can stand in for the other.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/requestcontext"
)

const (
	UseAccess  = "access"
	UseRefresh = "refresh"
)

// Claims are the self-contained access token claims. They reflect the account
// as of issuance; role or sector edits take effect at the next login or refresh.
type Claims struct {
	AccountID  domain.AccountID `json:"account_id"`
	Name       string           `json:"name"`
	Role       domain.Role      `json:"role"`
	SectorID   domain.SectorID  `json:"sector_id,omitempty"`
	SectorName string           `json:"sector_name,omitempty"`
	SectorCode string           `json:"sector_code,omitempty"`
	TokenUse   string           `json:"token_use"`
	jwt.RegisteredClaims
}

// Principal projects the claims onto the request-scoped caller identity.
func (c *Claims) Principal() requestcontext.AuthPrincipal {
	return requestcontext.AuthPrincipal{
		AccountID:  c.AccountID,
		Name:       c.Name,
		Role:       c.Role,
		SectorID:   c.SectorID,
		SectorName: c.SectorName,
		SectorCode: c.SectorCode,
		TokenID:    c.ID,
	}
}

// RefreshClaims identify the account only; everything else is re-read from
// the credential store when the refresh token is redeemed.
type RefreshClaims struct {
	AccountID domain.AccountID `json:"account_id"`
	TokenUse  string           `json:"token_use"`
	jwt.RegisteredClaims
}

// Subject is the account snapshot embedded in an access token.
type Subject struct {
	AccountID  domain.AccountID
	Name       string
	Role       domain.Role
	SectorID   domain.SectorID
	SectorName string
	SectorCode string
}

// Config holds signing material and lifetimes.
type Config struct {
	AccessKey  string
	RefreshKey string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Service handles JWT creation and validation.
type Service struct {
	accessKey  []byte
	refreshKey []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type Option func(*Service)

// WithClock sets the clock used to check expiry on parse.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(cfg Config, opts ...Option) *Service {
	s := &Service{
		accessKey:  []byte(cfg.AccessKey),
		refreshKey: []byte(cfg.RefreshKey),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) AccessTTL() time.Duration  { return s.accessTTL }
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *Service) registered(now time.Time, ttl time.Duration, subject domain.AccountID) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   subject.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    s.issuer,
		Audience:  jwt.ClaimStrings{s.audience},
		ID:        uuid.NewString(),
	}
}

// IssueAccess signs an access token for subj valid from now.
func (s *Service) IssueAccess(subj Subject, now time.Time) (string, *Claims, error) {
	claims := &Claims{
		AccountID:        subj.AccountID,
		Name:             subj.Name,
		Role:             subj.Role,
		SectorID:         subj.SectorID,
		SectorName:       subj.SectorName,
		SectorCode:       subj.SectorCode,
		TokenUse:         UseAccess,
		RegisteredClaims: s.registered(now, s.accessTTL, subj.AccountID),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessKey)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign access token")
	}
	return signed, claims, nil
}

// IssueRefresh signs a refresh token for accountID. Its jti is the handle
// used for revocation.
func (s *Service) IssueRefresh(accountID domain.AccountID, now time.Time) (string, *RefreshClaims, error) {
	claims := &RefreshClaims{
		AccountID:        accountID,
		TokenUse:         UseRefresh,
		RegisteredClaims: s.registered(now, s.refreshTTL, accountID),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshKey)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign refresh token")
	}
	return signed, claims, nil
}

// ParseAccess verifies an access token. Any signature, algorithm, issuer,
// audience or expiry failure is an error.
func (s *Service) ParseAccess(raw string) (*Claims, error) {
	claims := &Claims{}
	if err := s.parse(raw, claims, s.accessKey); err != nil {
		return nil, err
	}
	if claims.TokenUse != UseAccess || claims.AccountID.IsZero() || !claims.Role.IsValid() {
		return nil, dErrors.New(dErrors.CodeTokenMalformed, "invalid token claims")
	}
	return claims, nil
}

// ParseRefresh verifies a refresh token.
func (s *Service) ParseRefresh(raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.parse(raw, claims, s.refreshKey); err != nil {
		return nil, err
	}
	if claims.TokenUse != UseRefresh || claims.AccountID.IsZero() || claims.ID == "" {
		return nil, dErrors.New(dErrors.CodeTokenMalformed, "invalid token claims")
	}
	return claims, nil
}

func (s *Service) parse(raw string, claims jwt.Claims, key []byte) error {
	parsed, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenUnverifiable
			}
			return key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return dErrors.New(dErrors.CodeTokenExpired, "token has expired")
		}
		return dErrors.New(dErrors.CodeTokenMalformed, "invalid token")
	}
	if !parsed.Valid {
		return dErrors.New(dErrors.CodeTokenMalformed, "invalid token")
	}
	return nil
}
