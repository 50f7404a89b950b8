// Package jwttoken issues and validates compliance officer bearer tokens.
package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "kyc-gateway/pkg/domain-errors"
)

// RoleComplianceOfficer may override manual reviews and annotate records.
const RoleComplianceOfficer = "compliance_officer"

// Claims represents the JWT claims carried by officer tokens.
type Claims struct {
	OfficerID string `json:"officer_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService handles officer token creation and validation.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewJWTService(signingKey string, issuer string, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// GenerateOfficerToken is used by operators and tests to mint admin tokens.
func (s *JWTService) GenerateOfficerToken(officerID, role string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		OfficerID: officerID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.OfficerID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token has no officer")
	}
	return claims, nil
}

// ValidateOfficerToken adapts ValidateToken for the admin middleware and
// enforces the officer role.
func (s *JWTService) ValidateOfficerToken(tokenString string) (string, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	if claims.Role != RoleComplianceOfficer {
		return "", dErrors.New(dErrors.CodeForbidden, "compliance officer role required")
	}
	return claims.OfficerID, nil
}
