// Package token signs and verifies the two token kinds an invitation email
// carries: the registration token embedded in the claim link and the tracking
// token embedded in the open-pixel and click-redirect URLs.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "irgate/pkg/domain-errors"
	"irgate/pkg/platform/sentinel"
)

// Kind distinguishes registration tokens from tracking tokens so one can
// never be replayed as the other.
type Kind string

const (
	KindRegistration Kind = "registration"
	KindTracking     Kind = "tracking"
)

// Claims carries the applicant identity inside a signed token. Applicant ids
// are opaque strings; registry imports may carry ids that are not UUIDs.
type Claims struct {
	ApplicantID string `json:"applicant_id"`
	Kind        Kind   `json:"kind"`
	jwt.RegisteredClaims
}

// Manager signs and verifies invitation tokens.
type Manager struct {
	signingKey []byte
	issuer     string
}

// NewManager constructs a token manager around an HMAC signing key.
func NewManager(signingKey string) *Manager {
	return &Manager{signingKey: []byte(signingKey), issuer: "irgate"}
}

// RegistrationToken signs the token embedded in an applicant's personal
// registration link. The validity window bounds how long the link works.
func (m *Manager) RegistrationToken(applicantID string, now time.Time, validity time.Duration) (string, error) {
	return m.sign(applicantID, KindRegistration, now, validity)
}

// TrackingToken signs the token embedded in open-pixel and click-redirect
// URLs. Tracking tokens outlive the registration window so late opens are
// still attributed.
func (m *Manager) TrackingToken(applicantID string, now time.Time, validity time.Duration) (string, error) {
	return m.sign(applicantID, KindTracking, now, validity)
}

func (m *Manager) sign(applicantID string, kind Kind, now time.Time, validity time.Duration) (string, error) {
	if applicantID == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "empty applicant id")
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ApplicantID: applicantID,
		Kind:        kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			ID:        uuid.NewString(),
		},
	})
	signed, err := tok.SignedString(m.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify parses a token string, checks the signature and expiry, and asserts
// the expected kind. Expired tokens surface sentinel.ErrExpired so callers
// can distinguish them from forgeries.
func (m *Manager) Verify(tokenString string, want Kind) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return m.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", sentinel.ErrExpired
		}
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.Kind != want {
		return "", dErrors.New(dErrors.CodeUnauthorized, "wrong token kind")
	}
	if claims.ApplicantID == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "missing applicant id in token")
	}
	return claims.ApplicantID, nil
}
