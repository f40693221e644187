package middleware

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/fastygo/caseboard/domain"
	authUC "github.com/fastygo/caseboard/usecase/auth"
)

// TokenClaims is the HS256 payload accepted by the API. Role is informational;
// the directory stays authoritative for authorization.
type TokenClaims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies bearer tokens.
type TokenService struct {
	secret []byte
	issuer string
}

func NewTokenService(secret, issuer string) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &TokenService{secret: []byte(secret), issuer: issuer}, nil
}

// Issue mints a token for user with a fresh jti.
func (s *TokenService) Issue(userID int64, role domain.Role, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := time.Now().UTC()
	claims := TokenClaims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks signature, expiry and issuer.
func (s *TokenService) Verify(raw string) (authUC.Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return authUC.Claims{}, domain.WrapError(domain.ErrCodeUnauthorized, "invalid token", err)
	}
	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return authUC.Claims{}, domain.ErrUnauthorized
	}
	if s.issuer != "" && !claims.VerifyIssuer(s.issuer, true) {
		return authUC.Claims{}, domain.WrapError(domain.ErrCodeUnauthorized, "invalid token", errors.New("issuer mismatch"))
	}

	out := authUC.Claims{TokenID: claims.ID, UserID: claims.UserID}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
