package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/flexprice/contractflow/internal/config"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/golang-jwt/jwt/v4"
)

// ShareLinkClaims is the identity carried by a share-link token
type ShareLinkClaims struct {
	TenantID     string
	ContractID   string
	ContractorID string
	ExpiresAt    time.Time
}

// ShareLinkAuth issues and validates the HS256 tokens behind contractor
// share links. Expiry is checked against the injected clock at resolution
// time.
type ShareLinkAuth struct {
	config config.ShareLinkConfig
	now    func() time.Time
}

func NewShareLinkAuth(cfg *config.Configuration) *ShareLinkAuth {
	return &ShareLinkAuth{
		config: cfg.ShareLink,
		now:    time.Now,
	}
}

// WithClock returns a copy that reads the time from now
func (a *ShareLinkAuth) WithClock(now func() time.Time) *ShareLinkAuth {
	return &ShareLinkAuth{config: a.config, now: now}
}

// DefaultTTL is used when the caller does not ask for a lifetime
func (a *ShareLinkAuth) DefaultTTL() time.Duration {
	if a.config.DefaultTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return a.config.DefaultTTL
}

func (a *ShareLinkAuth) GenerateToken(tenantID, contractID, contractorID string, ttl time.Duration) (string, time.Time, error) {
	if a.config.Secret == "" {
		return "", time.Time{}, ierr.NewError("share link secret not configured").
			WithHint("Share links are not configured").
			Mark(ierr.ErrSystem)
	}
	if ttl <= 0 {
		ttl = a.DefaultTTL()
	}

	issuedAt := a.now()
	expiresAt := issuedAt.Add(ttl)

	claims := jwt.MapClaims{
		"tenant_id":     tenantID,
		"contract_id":   contractID,
		"contractor_id": contractorID,
		"exp":           expiresAt.Unix(),
		"iat":           issuedAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(a.config.Secret))
	if err != nil {
		return "", time.Time{}, ierr.WithError(err).
			WithHint("Failed to generate share link").
			Mark(ierr.ErrSystem)
	}

	return signed, time.Unix(expiresAt.Unix(), 0).UTC(), nil
}

func (a *ShareLinkAuth) ValidateToken(token string) (*ShareLinkClaims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	parsedToken, err := parser.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewError("unexpected signing method").
				WithHint(fmt.Sprintf("unexpected signing method: %v", token.Header["alg"])).
				Mark(ierr.ErrPermissionDenied)
		}
		return []byte(a.config.Secret), nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid share link").
			Mark(ierr.ErrPermissionDenied)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, ierr.NewError("invalid token claims").
			WithHint("Invalid share link").
			Mark(ierr.ErrPermissionDenied)
	}

	if !claims.VerifyExpiresAt(a.now().Unix(), true) {
		return nil, ierr.NewError("share link expired").
			WithHint("This share link has expired, ask for a new one").
			Mark(ierr.ErrPermissionDenied)
	}

	contractID, _ := claims["contract_id"].(string)
	contractorID, _ := claims["contractor_id"].(string)
	if contractID == "" || contractorID == "" {
		return nil, ierr.NewError("token missing contract or contractor").
			WithHint("Invalid share link").
			Mark(ierr.ErrPermissionDenied)
	}

	tenantID, tenantOk := claims["tenant_id"].(string)
	if !tenantOk || tenantID == "" {
		tenantID = types.DefaultTenantID
	}

	var expiresAt time.Time
	if exp, ok := claims["exp"].(float64); ok {
		expiresAt = time.Unix(int64(exp), 0).UTC()
	}

	return &ShareLinkClaims{
		TenantID:     tenantID,
		ContractID:   contractID,
		ContractorID: contractorID,
		ExpiresAt:    expiresAt,
	}, nil
}

// LinkURL is the public URL a contractor opens to view and sign
func (a *ShareLinkAuth) LinkURL(token string) string {
	return fmt.Sprintf("%s/v1/share/%s", strings.TrimSuffix(a.config.BaseURL, "/"), token)
}
