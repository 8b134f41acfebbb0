package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/secret-tech/aag-backend-go/internal/domain"
)

// TokenService wraps JWT creation and validation. Token issuance belongs to
// the external auth service; CreateForLogin exists for tooling and tests.
type TokenService struct {
	secret    []byte
	expiresIn time.Duration
}

func NewTokenService(secret string, expiresIn time.Duration) *TokenService {
	return &TokenService{
		secret:    []byte(secret),
		expiresIn: expiresIn,
	}
}

// VerificationResult is what the connection gateway needs from a verified
// token: the login to resolve the user record by.
type VerificationResult struct {
	Login string
}

// CreateForLogin creates a JWT for the given login using the default TTL.
func (t *TokenService) CreateForLogin(login string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"login": login,
		"sub":   login,
		"iat":   now.Unix(),
		"exp":   now.Add(t.expiresIn).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify validates a token and extracts the login identifier. Any failure
// is reported as ErrAuthenticationFailed.
func (t *TokenService) Verify(tokenStr string) (*VerificationResult, error) {
	claims, err := t.parse(tokenStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthenticationFailed, err)
	}

	login, _ := claims["login"].(string)
	if login == "" {
		login, _ = claims["sub"].(string)
	}
	if login == "" {
		return nil, fmt.Errorf("%w: token carries no login", domain.ErrAuthenticationFailed)
	}
	return &VerificationResult{Login: login}, nil
}

func (t *TokenService) parse(tokenStr string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok {
		return claims, nil
	}
	return nil, jwt.ErrTokenMalformed
}
